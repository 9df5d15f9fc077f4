// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/olegiv/blango/internal/auth"
	"github.com/olegiv/blango/internal/broker"
	"github.com/olegiv/blango/internal/metrics"
	"github.com/olegiv/blango/internal/model"
	"github.com/olegiv/blango/internal/store"
)

// StaleAccountAge is how long an unactivated account is kept.
const StaleAccountAge = 7 * 24 * time.Hour

// Login results recorded in metrics.
const (
	loginSuccess  = "success"
	loginFailure  = "failure"
	loginInactive = "inactive"
)

// RegisterInput is the registration form.
type RegisterInput struct {
	Email     string
	Password1 string
	Password2 string
	// Honeypot is a field hidden from humans; bots fill it in.
	Honeypot string
}

// AccountOptions configures the account service.
type AccountOptions struct {
	RequireActivation bool
	SiteURL           string
}

// AccountService handles registration, activation and authentication.
type AccountService struct {
	db         *sql.DB
	queries    *store.Queries
	siteConfig *SiteConfigService
	eventLog   *EventService
	events     emitter
	metrics    *metrics.Metrics
	opts       AccountOptions
	now        Clock
}

// NewAccountService creates an AccountService. siteConfig, eventLog,
// publisher and m may be nil.
func NewAccountService(db *sql.DB, siteConfig *SiteConfigService, eventLog *EventService, publisher broker.Publisher, m *metrics.Metrics, opts AccountOptions) *AccountService {
	opts.SiteURL = strings.TrimRight(opts.SiteURL, "/")
	return &AccountService{
		db:         db,
		queries:    store.New(db),
		siteConfig: siteConfig,
		eventLog:   eventLog,
		events:     emitter{publisher: publisher, metrics: m},
		metrics:    m,
		opts:       opts,
		now:        defaultClock,
	}
}

// RequiresActivation reports whether new accounts start inactive.
func (s *AccountService) RequiresActivation() bool {
	return s.opts.RequireActivation
}

// Register creates an author account. Without activation the account is
// active immediately and the caller logs the user in.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (store.User, error) {
	if strings.TrimSpace(in.Honeypot) != "" {
		logWarn(ctx, "registration honeypot triggered", "category", model.EventCategoryAuth)
		return store.User{}, ErrSpamDetected
	}
	if s.siteConfig != nil && !s.siteConfig.Settings(ctx).AllowRegistration {
		return store.User{}, ErrRegistrationClosed
	}

	errs := ValidationErrors{}
	email, err := auth.NormalizeEmail(in.Email)
	switch {
	case strings.TrimSpace(in.Email) == "":
		errs.Add("email", "This field is required.")
	case err != nil:
		errs.Add("email", "Enter a valid email address.")
	default:
		exists, err := s.queries.EmailExists(ctx, email)
		if err != nil {
			return store.User{}, fmt.Errorf("checking email: %w", err)
		}
		if exists {
			errs.Add("email", "This email address is already in use.")
		}
	}

	switch {
	case in.Password1 == "":
		errs.Add("password1", "This field is required.")
	case in.Password2 == "":
		errs.Add("password2", "This field is required.")
	default:
		if err := auth.ValidateNewPassword(in.Password1, in.Password2); err != nil {
			errs.Add("password2", passwordMessage(err))
		}
	}
	if err := errs.Err(); err != nil {
		return store.User{}, err
	}

	username, err := auth.GenerateUsername(ctx, email, s.queries.UsernameExists)
	if err != nil {
		return store.User{}, fmt.Errorf("generating username: %w", err)
	}
	hash, err := auth.HashPassword(in.Password1)
	if err != nil {
		return store.User{}, fmt.Errorf("hashing password: %w", err)
	}

	now := s.now()
	params := store.CreateUserParams{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		Role:         model.RoleAuthor,
		IsActive:     !s.opts.RequireActivation,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if s.opts.RequireActivation {
		params.ActivationKey = sql.NullString{String: auth.NewActivationKey(), Valid: true}
	}

	user, err := s.queries.CreateUser(ctx, params)
	if err != nil {
		return store.User{}, fmt.Errorf("creating user: %w", err)
	}

	if user.ActivationKey.Valid {
		// Activation links are recorded instead of mailed.
		s.logEvent(ctx, "Activation link issued", user.ID, map[string]any{
			"email":          user.Email,
			"activation_url": s.ActivationURL(user.ActivationKey.String),
		})
	}
	s.logEvent(ctx, "User registered", user.ID, map[string]any{"email": user.Email})

	if s.metrics != nil {
		s.metrics.Registrations.Inc()
	}
	s.events.emit(ctx, broker.NewEvent(model.TopicUserRegistered, strconv.FormatInt(user.ID, 10), map[string]any{
		"id":        user.ID,
		"username":  user.Username,
		"is_active": user.IsActive,
	}))
	return user, nil
}

// ActivationURL returns the absolute activation link for key.
func (s *AccountService) ActivationURL(key string) string {
	return s.opts.SiteURL + "/accounts/activate/" + key
}

// Activate enables the inactive account holding key and clears the key.
func (s *AccountService) Activate(ctx context.Context, key string) (store.User, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return store.User{}, ErrInvalidActivation
	}
	user, err := s.queries.GetUserByActivationKey(ctx, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.User{}, ErrInvalidActivation
		}
		return store.User{}, err
	}
	if user.IsActive {
		return store.User{}, ErrInvalidActivation
	}

	now := s.now()
	if err := s.queries.ActivateUser(ctx, store.ActivateUserParams{UpdatedAt: now, ID: user.ID}); err != nil {
		return store.User{}, fmt.Errorf("activating user: %w", err)
	}
	user.IsActive = true
	user.ActivationKey = sql.NullString{}
	user.UpdatedAt = now

	s.logEvent(ctx, "Account activated", user.ID, nil)
	return user, nil
}

// Authenticate checks an email and password. Email matching is
// case-insensitive. Legacy hashes are upgraded on success.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (store.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		s.countLogin(loginFailure)
		return store.User{}, ErrInvalidCredentials
	}

	user, err := s.queries.GetUserByEmail(ctx, email)
	if err != nil {
		s.countLogin(loginFailure)
		if errors.Is(err, sql.ErrNoRows) {
			return store.User{}, ErrInvalidCredentials
		}
		return store.User{}, err
	}

	ok, err := auth.CheckPassword(password, user.PasswordHash)
	if err != nil || !ok {
		s.countLogin(loginFailure)
		return store.User{}, ErrInvalidCredentials
	}
	if !user.IsActive {
		s.countLogin(loginInactive)
		return store.User{}, ErrAccountInactive
	}

	if auth.NeedsRehash(user.PasswordHash) {
		if hash, err := auth.HashPassword(password); err == nil {
			if err := s.queries.UpdateUserPassword(ctx, store.UpdateUserPasswordParams{
				PasswordHash: hash, UpdatedAt: s.now(), ID: user.ID,
			}); err != nil {
				logWarn(ctx, "failed to upgrade password hash", "user_id", user.ID, "error", err)
			} else {
				user.PasswordHash = hash
			}
		}
	}

	now := s.now()
	if err := s.queries.UpdateUserLastLogin(ctx, store.UpdateUserLastLoginParams{
		LastLoginAt: sql.NullTime{Time: now, Valid: true},
		ID:          user.ID,
	}); err != nil {
		logWarn(ctx, "failed to record last login", "user_id", user.ID, "error", err)
	}
	user.LastLoginAt = sql.NullTime{Time: now, Valid: true}

	s.countLogin(loginSuccess)
	return user, nil
}

// ChangePassword verifies the old password and stores the new one.
func (s *AccountService) ChangePassword(ctx context.Context, userID int64, oldPassword, new1, new2 string) error {
	user, err := s.queries.GetUserByID(ctx, userID)
	if err != nil {
		return notFound(err)
	}

	errs := ValidationErrors{}
	if ok, err := auth.CheckPassword(oldPassword, user.PasswordHash); err != nil || !ok {
		errs.Add("old_password", "Your old password was entered incorrectly. Please enter it again.")
	}
	if new1 == "" {
		errs.Add("new_password1", "This field is required.")
	} else if err := auth.ValidateNewPassword(new1, new2); err != nil {
		errs.Add("new_password2", passwordMessage(err))
	}
	if err := errs.Err(); err != nil {
		return err
	}

	hash, err := auth.HashPassword(new1)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	if err := s.queries.UpdateUserPassword(ctx, store.UpdateUserPasswordParams{
		PasswordHash: hash, UpdatedAt: s.now(), ID: userID,
	}); err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	s.logEvent(ctx, "Password changed", userID, nil)
	return nil
}

// User returns the user with id.
func (s *AccountService) User(ctx context.Context, id int64) (store.User, error) {
	u, err := s.queries.GetUserByID(ctx, id)
	return u, notFound(err)
}

// PurgeStaleAccounts deletes unactivated accounts created more than age
// ago. Accounts that authored posts are kept.
func (s *AccountService) PurgeStaleAccounts(ctx context.Context, age time.Duration) (int64, error) {
	n, err := s.queries.DeleteStaleInactiveUsers(ctx, s.now().Add(-age))
	if err != nil {
		return 0, fmt.Errorf("purging stale accounts: %w", err)
	}
	if n > 0 {
		logInfo(ctx, "purged stale accounts", "count", n)
	}
	return n, nil
}

func (s *AccountService) countLogin(result string) {
	if s.metrics != nil {
		s.metrics.Logins.WithLabelValues(result).Inc()
	}
}

func (s *AccountService) logEvent(ctx context.Context, message string, userID int64, metadata map[string]any) {
	if s.eventLog == nil {
		return
	}
	_ = s.eventLog.LogInfo(ctx, model.EventCategoryAuth, message, userID, metadata)
}

func passwordMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrPasswordsDontMatch):
		return "The two password fields didn't match."
	case errors.Is(err, auth.ErrPasswordTooShort):
		return fmt.Sprintf("This password is too short. It must contain at least %d characters.", auth.MinPasswordLength)
	case errors.Is(err, auth.ErrPasswordNumeric):
		return "This password is entirely numeric."
	default:
		return err.Error()
	}
}

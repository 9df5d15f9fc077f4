// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/olegiv/blango/internal/middleware"
	"github.com/olegiv/blango/internal/model"
	"github.com/olegiv/blango/internal/render"
	"github.com/olegiv/blango/internal/service"
	"github.com/olegiv/blango/internal/session"
)

// Account routes used in redirects.
const (
	RouteProfile              = "/accounts/profile"
	RouteRegistrationComplete = "/accounts/register/complete"
	routeRegister             = "/accounts/register"
	routePasswordChange       = "/accounts/password_change"
)

// AuthHandler handles registration, activation, login, logout and
// password changes.
type AuthHandler struct {
	renderer        *render.Renderer
	sessionManager  *scs.SessionManager
	accounts        *service.AccountService
	eventService    *service.EventService
	loginProtection *middleware.LoginProtection
}

// NewAuthHandler creates a new AuthHandler. lp may be nil.
func NewAuthHandler(renderer *render.Renderer, sm *scs.SessionManager, accounts *service.AccountService,
	events *service.EventService, lp *middleware.LoginProtection) *AuthHandler {
	return &AuthHandler{
		renderer:        renderer,
		sessionManager:  sm,
		accounts:        accounts,
		eventService:    events,
		loginProtection: lp,
	}
}

// RegisterForm renders the registration page.
// GET /accounts/register
func (h *AuthHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	if middleware.GetUser(r) != nil {
		http.Redirect(w, r, RouteProfile, http.StatusSeeOther)
		return
	}
	h.renderRegister(w, r, http.StatusOK, nil, nil)
}

// Register creates an account. Without activation the new user is logged
// in straight away.
// POST /accounts/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, routeRegister) {
		return
	}

	user, err := h.accounts.Register(r.Context(), service.RegisterInput{
		Email:     r.FormValue("email"),
		Password1: r.FormValue("password1"),
		Password2: r.FormValue("password2"),
		Honeypot:  r.FormValue("your_name"),
	})
	if err != nil {
		form := formValues(r, "email")
		if verrs, ok := service.AsValidationErrors(err); ok {
			h.renderRegister(w, r, http.StatusUnprocessableEntity, form, verrs)
			return
		}
		switch {
		case errors.Is(err, service.ErrSpamDetected):
			h.renderRegister(w, r, http.StatusUnprocessableEntity, form, service.ValidationErrors{
				"form": "Your registration could not be processed.",
			})
		case errors.Is(err, service.ErrRegistrationClosed):
			h.renderer.Error(w, r, http.StatusForbidden, "Registration is closed.")
		default:
			serverError(w, r, h.renderer, "registration failed", err)
		}
		return
	}

	if !user.IsActive {
		http.Redirect(w, r, RouteRegistrationComplete, http.StatusSeeOther)
		return
	}

	if err := h.logIn(r, user.ID, false); err != nil {
		logAndInternalError(w, "session renewal error", "error", err)
		return
	}
	slog.Info("user registered", "user_id", user.ID)
	flashSuccess(w, r, h.renderer, RouteProfile, "Welcome! Your account has been created.")
}

// RegistrationComplete tells a new user to activate their account.
// GET /accounts/register/complete
func (h *AuthHandler) RegistrationComplete(w http.ResponseWriter, r *http.Request) {
	renderPage(w, r, h.renderer, http.StatusOK, "accounts/registration_complete", render.TemplateData{
		Title: "Check your activation link",
	})
}

func (h *AuthHandler) renderRegister(w http.ResponseWriter, r *http.Request, status int, form map[string]string, errs service.ValidationErrors) {
	renderPage(w, r, h.renderer, status, "accounts/register", render.TemplateData{
		Title:  "Register",
		Form:   form,
		Errors: errs,
	})
}

// Activate enables the account holding the activation key.
// GET /accounts/activate/{key}
func (h *AuthHandler) Activate(w http.ResponseWriter, r *http.Request) {
	user, err := h.accounts.Activate(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidActivation) {
			renderPage(w, r, h.renderer, http.StatusNotFound, "accounts/activation_failed", render.TemplateData{
				Title: "Activation failed",
				Data:  err.Error(),
			})
			return
		}
		serverError(w, r, h.renderer, "activation failed", err)
		return
	}

	slog.Info("account activated", "user_id", user.ID)
	flashSuccess(w, r, h.renderer, middleware.LoginPath, "Your account is now active. Please log in.")
}

// LoginForm renders the login page. Logged-in users go straight to next.
// GET /accounts/login
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	next := r.URL.Query().Get("next")
	if middleware.GetUser(r) != nil {
		http.Redirect(w, r, safeNextPath(next, RouteProfile), http.StatusSeeOther)
		return
	}

	renderPage(w, r, h.renderer, http.StatusOK, "accounts/login", render.TemplateData{
		Title: "Log in",
		Form:  map[string]string{"next": safeNextPath(next, "")},
	})
}

// Login handles the login form submission.
// POST /accounts/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, middleware.LoginPath) {
		return
	}

	email := r.FormValue("email")
	password := r.FormValue("password")
	next := safeNextPath(r.FormValue("next"), "")
	retryURL := loginURLWithNext(next)

	if email == "" || password == "" {
		flashError(w, r, h.renderer, retryURL, "Please enter your email and password.")
		return
	}

	if h.loginProtection != nil {
		if locked, remaining := h.loginProtection.IsAccountLocked(email); locked {
			h.logAuthWarning(r, "Login attempt on locked account", 0, map[string]any{"email": email})
			flashError(w, r, h.renderer, retryURL, fmt.Sprintf("Too many failed attempts. Try again in %s.", formatDuration(remaining)))
			return
		}
	}

	user, err := h.accounts.Authenticate(r.Context(), email, password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			h.logAuthWarning(r, "Login failed: invalid credentials", 0, map[string]any{"email": email})
			flashError(w, r, h.renderer, retryURL, h.failedLoginMessage(email))
		case errors.Is(err, service.ErrAccountInactive):
			h.logAuthWarning(r, "Login failed: inactive account", 0, map[string]any{"email": email})
			flashError(w, r, h.renderer, retryURL, "This account is inactive.")
		default:
			serverError(w, r, h.renderer, "database error during login", err)
		}
		return
	}

	if h.loginProtection != nil {
		h.loginProtection.RecordSuccessfulLogin(email)
	}

	if err := h.logIn(r, user.ID, r.FormValue("remember_me") != ""); err != nil {
		logAndInternalError(w, "session renewal error", "error", err)
		return
	}

	slog.Info("user logged in", "user_id", user.ID)
	if h.eventService != nil {
		_ = h.eventService.LogInfo(r.Context(), model.EventCategoryAuth, "User logged in", user.ID, map[string]any{"email": user.Email})
	}
	http.Redirect(w, r, safeNextPath(next, RouteProfile), http.StatusSeeOther)
}

// failedLoginMessage records the failure and words the error, warning when
// few attempts are left before the account locks.
func (h *AuthHandler) failedLoginMessage(email string) string {
	const invalid = "Please enter a correct email and password."
	if h.loginProtection == nil {
		return invalid
	}
	if locked, lockDuration := h.loginProtection.RecordFailedAttempt(email); locked {
		return fmt.Sprintf("Too many failed attempts. Try again in %s.", formatDuration(lockDuration))
	}
	if remaining := h.loginProtection.RemainingAttempts(email); remaining > 0 && remaining <= 3 {
		return fmt.Sprintf("%s %d attempts remaining.", invalid, remaining)
	}
	return invalid
}

// logIn renews the session token and stores the user in the session.
func (h *AuthHandler) logIn(r *http.Request, userID int64, remember bool) error {
	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		return err
	}
	h.sessionManager.Put(r.Context(), middleware.SessionKeyUserID, userID)
	session.RememberMe(r.Context(), h.sessionManager, remember)
	return nil
}

// Logout destroys the session.
// GET|POST /accounts/custom_logout and /accounts/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if userID > 0 && h.eventService != nil {
		_ = h.eventService.LogInfo(r.Context(), model.EventCategoryAuth, "User logged out", userID, nil)
	}

	if err := h.sessionManager.Destroy(r.Context()); err != nil {
		slog.Error("session destroy error", "error", err)
	}

	slog.Info("user logged out", "user_id", userID)
	flashAndRedirect(w, r, h.renderer, middleware.LoginPath, "You have been logged out.", flashTypeInfo)
}

// PasswordChangeForm renders the password change page.
// GET /accounts/password_change
func (h *AuthHandler) PasswordChangeForm(w http.ResponseWriter, r *http.Request) {
	renderPage(w, r, h.renderer, http.StatusOK, "accounts/password_change", render.TemplateData{
		Title: "Change password",
	})
}

// PasswordChange verifies the old password and stores the new one.
// POST /accounts/password_change
func (h *AuthHandler) PasswordChange(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, routePasswordChange) {
		return
	}
	userID := middleware.GetUserID(r)

	err := h.accounts.ChangePassword(r.Context(), userID,
		r.FormValue("old_password"), r.FormValue("new_password1"), r.FormValue("new_password2"))
	if verrs, ok := service.AsValidationErrors(err); ok {
		renderPage(w, r, h.renderer, http.StatusUnprocessableEntity, "accounts/password_change", render.TemplateData{
			Title:  "Change password",
			Errors: verrs,
		})
		return
	}
	if err != nil {
		notFoundOrError(w, r, h.renderer, "password change failed", err, "user_id", userID)
		return
	}

	// Keep the user logged in under a fresh token.
	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		logAndInternalError(w, "session renewal error", "error", err)
		return
	}
	flashSuccess(w, r, h.renderer, RouteProfile, "Your password was changed.")
}

func (h *AuthHandler) logAuthWarning(r *http.Request, message string, userID int64, metadata map[string]any) {
	if h.eventService == nil {
		return
	}
	_ = h.eventService.LogWarning(r.Context(), model.EventCategoryAuth, message, userID, metadata)
}

// loginURLWithNext returns the login path carrying next.
func loginURLWithNext(next string) string {
	if next == "" {
		return middleware.LoginPath
	}
	return middleware.LoginPath + "?next=" + url.QueryEscape(next)
}

// formatDuration formats a duration into a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%d seconds", int(d.Seconds()))
	}
	if d < time.Hour {
		mins := int(d.Minutes())
		if mins == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", mins)
	}
	hours := int(d.Hours())
	if hours == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", hours)
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for authentication,
// authorization, and request context handling.
package middleware

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/blango/internal/logging"
	"github.com/olegiv/blango/internal/model"
	"github.com/olegiv/blango/internal/service"
	"github.com/olegiv/blango/internal/store"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// Context keys for request data.
const (
	ContextKeyUser     ContextKey = "user"
	ContextKeySettings ContextKey = "site_settings"
)

// SessionKeyUserID holds the ID of the signed-in user.
const SessionKeyUserID = "user_id"

// LoginPath is where anonymous users are sent by RequireUser.
const LoginPath = "/accounts/login"

// LoadUser loads the signed-in user into the request context. A session
// pointing at a deleted or deactivated user is treated as anonymous and the
// stale user ID is removed.
func LoadUser(sm *scs.SessionManager, db *sql.DB) func(http.Handler) http.Handler {
	queries := store.New(db)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := sm.GetInt64(r.Context(), SessionKeyUserID)
			if userID == 0 {
				next.ServeHTTP(w, r)
				return
			}

			user, err := queries.GetUserByID(r.Context(), userID)
			if err != nil || !user.IsActive {
				sm.Remove(r.Context(), SessionKeyUserID)
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUser, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUser retrieves the current user from the request context.
// Returns nil if no user is in context.
func GetUser(r *http.Request) *store.User {
	user, ok := r.Context().Value(ContextKeyUser).(store.User)
	if !ok {
		return nil
	}
	return &user
}

// GetUserID returns the current user's ID from context, or 0 if not found.
func GetUserID(r *http.Request) int64 {
	if user := GetUser(r); user != nil {
		return user.ID
	}
	return 0
}

// IsAdmin reports whether the current user has the admin role.
func IsAdmin(r *http.Request) bool {
	user := GetUser(r)
	return user != nil && user.Role == model.RoleAdmin
}

// LoginURL returns the login page URL that leads back to r afterwards.
func LoginURL(r *http.Request) string {
	return LoginPath + "?next=" + url.QueryEscape(r.URL.RequestURI())
}

// RequireUser redirects anonymous requests to the login page.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetUser(r) == nil {
			http.Redirect(w, r, LoginURL(r), http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin allows only admins. Anonymous users are sent to the login
// page; signed-in users without the role get 403, which is also written to
// the event log when events is not nil.
func RequireAdmin(events *service.EventService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUser(r)
			if user == nil {
				http.Redirect(w, r, LoginURL(r), http.StatusSeeOther)
				return
			}
			if user.Role != model.RoleAdmin {
				slog.Warn("access denied",
					"status", http.StatusForbidden,
					"method", r.Method,
					"path", r.URL.Path,
					"user_id", user.ID,
					"user_role", user.Role,
				)
				if events != nil {
					_ = events.LogWarning(r.Context(), model.EventCategoryAuth, "Access denied: admin role required", user.ID, map[string]any{
						"method": r.Method,
						"path":   r.URL.Path,
					})
				}
				http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// LoadSiteSettings puts the site settings into the request context.
func LoadSiteSettings(svc *service.SiteConfigService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), ContextKeySettings, svc.Settings(r.Context()))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSiteSettings returns the settings loaded by LoadSiteSettings, or the
// defaults when the middleware did not run.
func GetSiteSettings(r *http.Request) service.SiteSettings {
	if s, ok := r.Context().Value(ContextKeySettings).(service.SiteSettings); ok {
		return s
	}
	return service.SiteSettings{
		SiteName:          "Blango",
		AllowComments:     true,
		AllowRegistration: true,
		SidebarSize:       5,
	}
}

// CountryResolver maps a client IP to a country code.
type CountryResolver interface {
	Country(ip string) string
}

// RequestInfo stores the request URL, client IP, country and user ID in the
// context so log records and audit events can be tied to the request. geo
// may be nil. It must run after LoadUser.
func RequestInfo(geo CountryResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			info := logging.RequestInfo{
				URL:    r.URL.RequestURI(),
				IP:     ClientIP(r),
				UserID: GetUserID(r),
			}
			if geo != nil {
				info.Country = geo.Country(info.IP)
			}
			next.ServeHTTP(w, r.WithContext(logging.WithRequestInfo(r.Context(), info)))
		})
	}
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session configures the cookie session manager backed by the
// sessions table.
package session

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
)

// Lifetime is how long a remembered login stays valid.
const Lifetime = 14 * 24 * time.Hour

// New creates a session manager that stores sessions in SQLite.
//
// Cookies are browser-session cookies unless RememberMe is called for the
// request, which makes the cookie persist for Lifetime.
func New(db *sql.DB, isDev bool) *scs.SessionManager {
	sm := scs.New()

	sm.Store = sqlite3store.New(db)

	sm.Lifetime = Lifetime
	sm.IdleTimeout = 0
	sm.Cookie.Persist = false
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"
	sm.Cookie.Secure = !isDev
	if !isDev {
		sm.Cookie.Name = "__Host-session"
	}

	return sm
}

// RememberMe sets whether the session cookie outlives the browser session.
func RememberMe(ctx context.Context, sm *scs.SessionManager, remember bool) {
	sm.RememberMe(ctx, remember)
}

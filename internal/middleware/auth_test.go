// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/blango/internal/logging"
	"github.com/olegiv/blango/internal/model"
	"github.com/olegiv/blango/internal/service"
	"github.com/olegiv/blango/internal/store"
	"github.com/olegiv/blango/internal/testutil"
)

func withUser(r *http.Request, u store.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), ContextKeyUser, u))
}

func TestGetUser(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if GetUser(req) != nil || GetUserID(req) != 0 || IsAdmin(req) {
		t.Fatal("anonymous request should have no user")
	}

	req = withUser(req, store.User{ID: 7, Email: "a@example.com", Role: model.RoleAdmin})
	user := GetUser(req)
	if user == nil || user.ID != 7 || user.Email != "a@example.com" {
		t.Fatalf("GetUser = %+v", user)
	}
	if GetUserID(req) != 7 || !IsAdmin(req) {
		t.Error("admin user not detected")
	}
}

// sessionWithUser runs one request through sm that stores userID and
// returns the resulting session cookie.
func sessionWithUser(t *testing.T, sm *scs.SessionManager, userID int64) *http.Cookie {
	t.Helper()
	h := sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sm.Put(r.Context(), SessionKeyUserID, userID)
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	cookies := rr.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("no session cookie set")
	}
	return cookies[0]
}

func TestLoadUser(t *testing.T) {
	db := testutil.TestDB(t)
	active := testutil.CreateUser(t, db, "active@example.com", "")

	now := time.Now()
	inactive, err := store.New(db).CreateUser(context.Background(), store.CreateUserParams{
		Email:        "inactive@example.com",
		Username:     "inactive",
		PasswordHash: "x",
		Role:         model.RoleAuthor,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	tests := []struct {
		name   string
		userID int64
		wantID int64
	}{
		{"active user", active.ID, active.ID},
		{"inactive user is anonymous", inactive.ID, 0},
		{"deleted user is anonymous", 9999, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm := scs.New()
			cookie := sessionWithUser(t, sm, tt.userID)

			var gotID, sessionID int64
			h := sm.LoadAndSave(LoadUser(sm, db)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotID = GetUserID(r)
				sessionID = sm.GetInt64(r.Context(), SessionKeyUserID)
			})))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.AddCookie(cookie)
			h.ServeHTTP(httptest.NewRecorder(), req)

			if gotID != tt.wantID {
				t.Errorf("user id = %d, want %d", gotID, tt.wantID)
			}
			if sessionID != tt.wantID {
				t.Errorf("session user id = %d, want %d", sessionID, tt.wantID)
			}
		})
	}
}

func TestRequireUser(t *testing.T) {
	handler := RequireUser(okHandler())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/accounts/profile?tab=posts", nil))
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("anonymous status = %d, want 303", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != "/accounts/login?next=%2Faccounts%2Fprofile%3Ftab%3Dposts" {
		t.Errorf("Location = %q", loc)
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, withUser(httptest.NewRequest(http.MethodGet, "/accounts/profile", nil), store.User{ID: 1}))
	if rr.Code != http.StatusOK {
		t.Errorf("signed-in status = %d, want 200", rr.Code)
	}
}

func TestRequireAdmin(t *testing.T) {
	db := testutil.TestDB(t)
	events := service.NewEventService(db)
	handler := RequireAdmin(events)(okHandler())

	t.Run("anonymous", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin", nil))
		if rr.Code != http.StatusSeeOther {
			t.Errorf("status = %d, want 303", rr.Code)
		}
	})

	t.Run("author is forbidden and logged", func(t *testing.T) {
		author := testutil.CreateUser(t, db, "author@example.com", model.RoleAuthor)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, withUser(httptest.NewRequest(http.MethodGet, "/admin", nil), author))
		if rr.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rr.Code)
		}

		list, total, err := events.List(context.Background(), 1, 10)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if total != 1 || list[0].Category != model.EventCategoryAuth {
			t.Errorf("events = %+v", list)
		}
	})

	t.Run("admin", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, withUser(httptest.NewRequest(http.MethodGet, "/admin", nil), store.User{ID: 1, Role: model.RoleAdmin}))
		if rr.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rr.Code)
		}
	})
}

func TestSiteSettings(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if s := GetSiteSettings(req); s.SiteName != "Blango" || !s.AllowComments || s.SidebarSize != 5 {
		t.Errorf("defaults = %+v", s)
	}

	db := testutil.TestDB(t)
	svc := service.NewSiteConfigService(db, nil)
	if err := svc.Update(context.Background(), model.ConfigKeySiteName, "My Blog"); err != nil {
		t.Fatalf("Update: %v", err)
	}

	var got service.SiteSettings
	LoadSiteSettings(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetSiteSettings(r)
	})).ServeHTTP(httptest.NewRecorder(), req)

	if got.SiteName != "My Blog" {
		t.Errorf("SiteName = %q", got.SiteName)
	}
}

func TestRequestInfo(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/post/hello?x=1", nil)
	req.RemoteAddr = "192.0.2.5:1234"
	req = withUser(req, store.User{ID: 3})

	var info logging.RequestInfo
	var ok bool
	RequestInfo(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info, ok = logging.RequestInfoFromContext(r.Context())
	})).ServeHTTP(httptest.NewRecorder(), req)

	if !ok {
		t.Fatal("request info missing")
	}
	if info.URL != "/post/hello?x=1" || info.IP != "192.0.2.5" || info.UserID != 3 || info.Country != "" {
		t.Errorf("info = %+v", info)
	}
}

type stubCountries map[string]string

func (s stubCountries) Country(ip string) string { return s[ip] }

func TestRequestInfo_Country(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.5:1234"

	var info logging.RequestInfo
	RequestInfo(stubCountries{"192.0.2.5": "NL"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info, _ = logging.RequestInfoFromContext(r.Context())
	})).ServeHTTP(httptest.NewRecorder(), req)

	if info.Country != "NL" {
		t.Errorf("Country = %q, want NL", info.Country)
	}
}

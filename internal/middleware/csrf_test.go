// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

var testCSRFKey = []byte("12345678901234567890123456789012")

func TestDefaultCSRFConfig(t *testing.T) {
	tests := []struct {
		name    string
		siteURL string
		isDev   bool
		want    []string
	}{
		{"production with site url", "https://blog.example.com", false, []string{"blog.example.com"}},
		{"production without site url", "", false, nil},
		{"development", "http://localhost:8080", true, []string{"localhost:8080", "localhost:8080", "127.0.0.1:8080"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultCSRFConfig(testCSRFKey, tt.siteURL, tt.isDev)
			if len(cfg.AuthKey) != 32 {
				t.Errorf("AuthKey length = %d", len(cfg.AuthKey))
			}
			if len(cfg.TrustedOrigins) != len(tt.want) {
				t.Fatalf("TrustedOrigins = %v, want %v", cfg.TrustedOrigins, tt.want)
			}
			for i, origin := range cfg.TrustedOrigins {
				if origin != tt.want[i] {
					t.Errorf("TrustedOrigins[%d] = %q, want %q", i, origin, tt.want[i])
				}
				// The csrf library expects host[:port], not full URLs.
				if strings.HasPrefix(origin, "http") {
					t.Errorf("origin %q should not include a scheme", origin)
				}
			}
		})
	}
}

func TestCSRF_AllowsSafeMethods(t *testing.T) {
	handler := CSRF(DefaultCSRFConfig(testCSRFKey, "", false))(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Sec-Fetch-Site", "cross-site")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("GET status = %d, want 200", rr.Code)
	}
}

func TestCSRF_SameOriginPost(t *testing.T) {
	handler := CSRF(DefaultCSRFConfig(testCSRFKey, "", false))(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/accounts/login", nil)
	req.Header.Set("Sec-Fetch-Site", "same-origin")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("same-origin POST status = %d, want 200", rr.Code)
	}
}

func TestCSRF_RejectsCrossSitePost(t *testing.T) {
	handler := CSRF(DefaultCSRFConfig(testCSRFKey, "", false))(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/accounts/login", nil)
	req.Header.Set("Sec-Fetch-Site", "cross-site")
	req.Header.Set("Origin", "https://evil.example")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("cross-site POST status = %d, want 403", rr.Code)
	}
}

func TestCSRF_CustomErrorHandler(t *testing.T) {
	cfg := DefaultCSRFConfig(testCSRFKey, "", false)
	called := false
	cfg.ErrorHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		http.Error(w, "custom", http.StatusTeapot)
	})
	handler := CSRF(cfg)(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/posts/create", nil)
	req.Header.Set("Sec-Fetch-Site", "cross-site")
	req.Header.Set("Origin", "https://evil.example")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if !called || rr.Code != http.StatusTeapot {
		t.Errorf("custom handler called=%v status=%d", called, rr.Code)
	}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

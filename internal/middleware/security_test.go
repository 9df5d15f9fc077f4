// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func serveWithSecurityHeaders(cfg SecurityHeadersConfig, path string) http.Header {
	handler := SecurityHeaders(cfg)(okHandler())
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr.Header()
}

func TestSecurityHeaders(t *testing.T) {
	tests := []struct {
		name     string
		isDev    bool
		wantHSTS bool
		wantEval bool
	}{
		{"production", false, true, false},
		{"development", true, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := serveWithSecurityHeaders(DefaultSecurityHeadersConfig(tt.isDev), "/")

			csp := h.Get("Content-Security-Policy")
			if !strings.HasPrefix(csp, "default-src 'self'; script-src") {
				t.Errorf("CSP = %q", csp)
			}
			if !strings.Contains(csp, "https://cdn.jsdelivr.net") {
				t.Error("CSP should allow the editor CDN")
			}
			if strings.Contains(csp, "'unsafe-eval'") != tt.wantEval {
				t.Errorf("unsafe-eval present = %v, want %v", !tt.wantEval, tt.wantEval)
			}

			hsts := h.Get("Strict-Transport-Security")
			if (hsts != "") != tt.wantHSTS {
				t.Errorf("HSTS = %q, want present=%v", hsts, tt.wantHSTS)
			}
			if tt.wantHSTS && hsts != "max-age=31536000; includeSubDomains" {
				t.Errorf("HSTS = %q", hsts)
			}

			for header, want := range map[string]string{
				"X-Frame-Options":        "SAMEORIGIN",
				"X-Content-Type-Options": "nosniff",
				"Referrer-Policy":        "strict-origin-when-cross-origin",
			} {
				if got := h.Get(header); got != want {
					t.Errorf("%s = %q, want %q", header, got, want)
				}
			}
			if !strings.Contains(h.Get("Permissions-Policy"), "camera=()") {
				t.Errorf("Permissions-Policy = %q", h.Get("Permissions-Policy"))
			}
		})
	}
}

func TestSecurityHeadersExcludePaths(t *testing.T) {
	cfg := DefaultSecurityHeadersConfig(false)

	if h := serveWithSecurityHeaders(cfg, "/metrics"); h.Get("Content-Security-Policy") != "" {
		t.Error("/metrics should be excluded")
	}
	if h := serveWithSecurityHeaders(cfg, "/post/hello"); h.Get("Content-Security-Policy") == "" {
		t.Error("/post/hello should get headers")
	}
}

func TestSecurityHeadersHSTSOptions(t *testing.T) {
	cfg := SecurityHeadersConfig{HSTSMaxAge: 600, HSTSPreload: true}
	if got := serveWithSecurityHeaders(cfg, "/").Get("Strict-Transport-Security"); got != "max-age=600; preload" {
		t.Errorf("HSTS = %q", got)
	}

	cfg.HSTSMaxAge = 0
	if got := serveWithSecurityHeaders(cfg, "/").Get("Strict-Transport-Security"); got != "" {
		t.Errorf("HSTS with zero max-age = %q", got)
	}
}

func TestBuildCSP(t *testing.T) {
	got := buildCSP(map[string]string{
		"zz-custom":   "a",
		"img-src":     "'self'",
		"default-src": "'none'",
		"aa-custom":   "b",
	})
	want := "default-src 'none'; img-src 'self'; aa-custom b; zz-custom a"
	if got != want {
		t.Errorf("buildCSP = %q, want %q", got, want)
	}
}

func TestBuildPermissionsPolicy(t *testing.T) {
	got := buildPermissionsPolicy(map[string]string{"usb": "()", "camera": "()"})
	if got != "camera=(), usb=()" {
		t.Errorf("buildPermissionsPolicy = %q", got)
	}
}

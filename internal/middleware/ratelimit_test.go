// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		realIP     string
		forwarded  string
		remoteAddr string
		want       string
	}{
		{"remote addr with port", "", "", "192.0.2.7:5555", "192.0.2.7"},
		{"remote addr without port", "", "", "192.0.2.7", "192.0.2.7"},
		{"x-real-ip wins", "203.0.113.9", "198.51.100.1", "192.0.2.7:1", "203.0.113.9"},
		{"first forwarded hop", "", "198.51.100.1, 10.0.0.1", "192.0.2.7:1", "198.51.100.1"},
		{"ipv6 remote", "", "", "[2001:db8::1]:443", "2001:db8::1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if got := ClientIP(req); got != tt.want {
				t.Errorf("ClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRateLimiter_JSON(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	handler := rl.Middleware()(okHandler())

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/v1/posts", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("first = %d", first.Code)
	}

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/api/v1/posts", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second = %d, want 429", second.Code)
	}
	if ct := second.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var body APIError
	if err := json.NewDecoder(second.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != "rate_limit_exceeded" {
		t.Errorf("code = %q", body.Error.Code)
	}
}

func TestRateLimiter_HTMLPerIP(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	handler := rl.HTMLMiddleware()(okHandler())

	send := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/accounts/register", nil)
		req.RemoteAddr = addr
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	if rr := send("192.0.2.1:1"); rr.Code != http.StatusOK {
		t.Fatalf("first = %d", rr.Code)
	}
	rr := send("192.0.2.1:2")
	if rr.Code != http.StatusTooManyRequests || !strings.Contains(rr.Body.String(), "Too many requests") {
		t.Errorf("second = %d %q", rr.Code, rr.Body.String())
	}
	if rr := send("192.0.2.2:1"); rr.Code != http.StatusOK {
		t.Errorf("other IP = %d, want 200", rr.Code)
	}
}

func TestLimiterCache_ClearIfExceeds(t *testing.T) {
	lc := newLimiterCache[string](1, 1)
	for _, k := range []string{"a", "b", "c"} {
		lc.get(k)
	}
	if lc.clearIfExceeds(5) {
		t.Error("cleared below limit")
	}
	if !lc.clearIfExceeds(2) || lc.size() != 0 {
		t.Errorf("clearIfExceeds(2) left %d entries", lc.size())
	}
}

func TestWriteAPIError_Details(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteAPIError(rr, http.StatusBadRequest, "validation_error", "Invalid query", map[string]string{"q": "required"})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rr.Code)
	}
	var body APIError
	_ = json.NewDecoder(rr.Body).Decode(&body)
	if body.Error.Details["q"] != "required" || body.Error.Message != "Invalid query" {
		t.Errorf("body = %+v", body)
	}
}

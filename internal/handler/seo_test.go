// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/olegiv/blango/internal/service"
	"github.com/olegiv/blango/internal/testutil"
)

func TestSitemap(t *testing.T) {
	app := newTestApp(t)
	author := testutil.CreateUser(t, app.db, "a@example.com", "")
	cat := testutil.CreateCategory(t, app.db, "Go")
	testutil.CreatePost(t, app.db, author.ID, cat.ID, "Live", "live", time.Now().Add(-time.Hour))
	testutil.CreatePost(t, app.db, author.ID, cat.ID, "Scheduled", "scheduled", time.Now().Add(time.Hour))

	h := NewSEOHandler(service.NewSitemapService(app.db, app.cache, "https://blog.example.com", time.Minute),
		"https://blog.example.com", false)

	rr := httptest.NewRecorder()
	h.Sitemap(rr, httptest.NewRequest(http.MethodGet, "/sitemap.xml", nil))

	assertStatus(t, rr.Code, http.StatusOK)
	assert.Equal(t, "application/xml; charset=utf-8", rr.Header().Get("Content-Type"))
	body := rr.Body.String()
	assert.Contains(t, body, "<loc>https://blog.example.com/post/live</loc>")
	assert.NotContains(t, body, "/post/scheduled")
}

func TestRobots(t *testing.T) {
	tests := []struct {
		name        string
		disallowAll bool
		want        []string
	}{
		{"public site", false, []string{"Disallow: /admin", "Allow: /", "Sitemap: https://blog.example.com/sitemap.xml"}},
		{"staging site", true, []string{"User-agent: *\nDisallow: /\n"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewSEOHandler(nil, "https://blog.example.com/", tt.disallowAll)
			rr := httptest.NewRecorder()
			h.Robots(rr, httptest.NewRequest(http.MethodGet, "/robots.txt", nil))

			assertStatus(t, rr.Code, http.StatusOK)
			assert.Equal(t, "text/plain; charset=utf-8", rr.Header().Get("Content-Type"))
			for _, want := range tt.want {
				assert.Contains(t, rr.Body.String(), want)
			}
		})
	}
}

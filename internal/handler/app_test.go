// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/olegiv/blango/internal/broker"
	"github.com/olegiv/blango/internal/cache"
	"github.com/olegiv/blango/internal/metrics"
	"github.com/olegiv/blango/internal/middleware"
	"github.com/olegiv/blango/internal/render"
	"github.com/olegiv/blango/internal/service"
	"github.com/olegiv/blango/internal/storage"
	"github.com/olegiv/blango/internal/store"
	"github.com/olegiv/blango/internal/testutil"
)

// testPages lists the pages of the test template set. Every page prints its
// name so tests can tell which one was rendered, plus the data they check.
var testPages = [][2]string{
	{"errors/error", `{{.Data.Status}} {{.Data.Message}}`},
	{"blog/index", `{{.Data.Heading}}{{range .Data.Posts}}[{{.Title}}]{{end}} pages:{{.Data.Pagination.TotalPages}}`},
	{"blog/post", `{{.Data.Post.Title}} views:{{.Data.ViewCount}} can_comment:{{.Data.CanComment}}{{range .Data.Comments}} [{{.Content}}]{{end}}`},
	{"blog/results", `valid:{{.Data.Valid}}{{range .Data.Results}}[{{.Title}}]{{end}}`},
	{"blog/post_form", `{{.Data.Action}}`},
	{"accounts/login", `next:{{index .Form "next"}}`},
	{"accounts/register", `{{index .Form "email"}}`},
	{"accounts/registration_complete", ``},
	{"accounts/activation_failed", `{{.Data}}`},
	{"accounts/password_change", ``},
	{"accounts/profile", `{{.Data.User.Email}}{{range .Data.Posts}}[{{.Title}}]{{end}}`},
	{"accounts/edit_profile", `{{index .Form "first_name"}}`},
	{"admin/dashboard", `posts:{{.Data.Stats.Posts}}`},
	{"admin/categories", `{{range .Data}}[{{.Name}}]{{end}}`},
	{"admin/tags", `{{range .Data}}[{{.Value}}]{{end}}`},
	{"admin/comments", `{{range .Data.Comments}}[{{.Content}}]{{end}}`},
	{"admin/config", `{{range .Data}}[{{.Key}}={{.Value}}]{{end}}`},
	{"admin/events", `total:{{.Data.TotalEvents}}`},
	{"admin/cache", `stats:{{.Data.HasStats}}`},
}

// testTemplates builds the test template set.
func testTemplates() fstest.MapFS {
	fsys := fstest.MapFS{
		"layouts/base.html": {Data: []byte(`{{define "base"}}<title>{{.Title}}</title>` +
			`{{with .Flash}}<p class="flash">{{.}}</p>{{end}}` +
			`{{range $k, $v := .Errors}}<p class="error">{{$k}}: {{$v}}</p>{{end}}` +
			`{{template "content" .}}{{end}}`)},
		"layouts/admin.html":  {Data: []byte(`{{define "admin_nav"}}admin{{end}}`)},
		"partials/empty.html": {Data: []byte(`{{define "empty"}}{{end}}`)},
	}
	for _, p := range testPages {
		fsys[p[0]+".html"] = &fstest.MapFile{
			Data: []byte(`{{define "content"}}page:` + p[0] + `|` + p[1] + `{{end}}`),
		}
	}
	return fsys
}

// testApp wires the services against a migrated temp database, a memory
// cache, disk storage in a temp dir and an in-memory session store.
type testApp struct {
	db         *sql.DB
	sm         *scs.SessionManager
	renderer   *render.Renderer
	cache      *cache.MemoryCache
	recorder   *broker.Recorder
	events     *service.EventService
	siteConfig *service.SiteConfigService
	widgets    *service.WidgetService
	media      *service.MediaService
	posts      *service.PostService
	comments   *service.CommentService
	search     *service.SearchService
	accounts   *service.AccountService
	profiles   *service.ProfileService
	taxonomy   *service.TaxonomyService
	stats      *service.StatsService
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db := testutil.TestDB(t)
	c := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = c.Close() })

	disk, err := storage.NewDisk(t.TempDir())
	if err != nil {
		t.Fatalf("NewDisk: %v", err)
	}

	sm := testSessionManager(t)
	m := metrics.New()
	app := &testApp{
		db:       db,
		sm:       sm,
		cache:    c,
		recorder: &broker.Recorder{},
		events:   service.NewEventService(db),
		media:    service.NewMediaService(disk),
	}
	app.siteConfig = service.NewSiteConfigService(db, c)
	app.widgets = service.NewWidgetService(db, c, app.siteConfig, time.Minute)
	app.posts = service.NewPostService(db, app.media, app.widgets, app.recorder, m)
	app.comments = service.NewCommentService(db, app.siteConfig, app.recorder, m)
	app.search = service.NewSearchService(db)
	app.accounts = service.NewAccountService(db, app.siteConfig, app.events, app.recorder, m,
		service.AccountOptions{SiteURL: "http://example.com"})
	app.profiles = service.NewProfileService(db, app.media, app.widgets)
	app.taxonomy = service.NewTaxonomyService(db, app.widgets)
	app.stats = service.NewStatsService(db, m)

	app.renderer, err = render.New(render.Config{
		TemplatesFS:    testTemplates(),
		SessionManager: sm,
		MediaURL:       app.media.URL,
	})
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}
	return app
}

// testSessionManager creates a session manager for testing.
func testSessionManager(t *testing.T) *scs.SessionManager {
	t.Helper()
	sm := scs.New()
	sm.Lifetime = 24 * time.Hour
	return sm
}

// requestWithURLParams adds chi URL parameters to a request.
func requestWithURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// requestWithSession wraps a request with session context.
func requestWithSession(sm *scs.SessionManager, r *http.Request) *http.Request {
	ctx, err := sm.Load(r.Context(), "")
	if err != nil {
		return r
	}
	return r.WithContext(ctx)
}

// requestWithUser puts u into the request context the way LoadUser does.
func requestWithUser(r *http.Request, u store.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), middleware.ContextKeyUser, u))
}

// newRequest builds a session-backed request, form-encoded when form is set.
func (a *testApp) newRequest(method, target string, form url.Values) *http.Request {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	return requestWithSession(a.sm, req)
}

// serve runs h and returns the recorded response.
func serve(h http.HandlerFunc, r *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h(rr, r)
	return rr
}

// flash returns the flash message a handler stored in r's session.
func (a *testApp) flash(r *http.Request) string {
	return a.sm.GetString(r.Context(), "flash")
}

// assertStatus checks if the response status code matches the expected value.
func assertStatus(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status = %d; want %d", got, want)
	}
}

// assertRedirect checks for a 303 to want.
func assertRedirect(t *testing.T, rr *httptest.ResponseRecorder, want string) {
	t.Helper()
	assertStatus(t, rr.Code, http.StatusSeeOther)
	if got := rr.Header().Get("Location"); got != want {
		t.Errorf("Location = %q; want %q", got, want)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

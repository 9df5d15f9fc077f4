// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/blango/internal/auth"
	"github.com/olegiv/blango/internal/cache"
	"github.com/olegiv/blango/internal/service"
	"github.com/olegiv/blango/internal/storage"
	"github.com/olegiv/blango/internal/store"
	"github.com/olegiv/blango/internal/testutil"
)

type apiFixture struct {
	db      *sql.DB
	cache   *cache.MemoryCache
	widgets *service.WidgetService
	handler *Handler
	router  http.Handler
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	db := testutil.TestDB(t)
	c := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = c.Close() })
	disk, err := storage.NewDisk(t.TempDir())
	require.NoError(t, err)

	siteConfig := service.NewSiteConfigService(db, c)
	widgets := service.NewWidgetService(db, c, siteConfig, time.Minute)
	posts := service.NewPostService(db, service.NewMediaService(disk), widgets, nil, nil)
	h := NewHandler(posts, service.NewTaxonomyService(db, widgets), c, time.Minute)
	return &apiFixture{db: db, cache: c, widgets: widgets, handler: h, router: h.Routes([]string{"https://app.example.com"})}
}

func (f *apiFixture) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	return rr
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Meta  *Meta           `json:"meta"`
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	return env
}

// seed creates three live posts and one scheduled post in one category.
func (f *apiFixture) seed(t *testing.T) (store.Category, store.Tag) {
	t.Helper()
	author := testutil.CreateUser(t, f.db, "writer@example.com", "")
	cat := testutil.CreateCategory(t, f.db, "Go")
	tag := testutil.CreateTag(t, f.db, "concurrency")
	base := time.Now().Add(-time.Hour)
	for i, slug := range []string{"first", "second", "third"} {
		p := testutil.CreatePost(t, f.db, author.ID, cat.ID, "Post "+slug, slug, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, store.New(f.db).AddTagToPost(context.Background(), store.AddTagToPostParams{PostID: p.ID, TagID: tag.ID}))
	}
	testutil.CreatePost(t, f.db, author.ID, cat.ID, "Post later", "later", time.Now().Add(24*time.Hour))
	return cat, tag
}

func TestListPosts(t *testing.T) {
	f := newAPIFixture(t)
	f.seed(t)

	rr := f.get(t, "/posts?per_page=2")
	require.Equal(t, http.StatusOK, rr.Code)
	env := decode(t, rr)

	var posts []PostAPIResponse
	require.NoError(t, json.Unmarshal(env.Data, &posts))
	require.Len(t, posts, 2)
	assert.Equal(t, "third", posts[0].Slug)
	assert.Equal(t, "second", posts[1].Slug)
	assert.Empty(t, posts[0].Content, "list omits the body")
	assert.Equal(t, "Go", posts[0].Category.Name)
	assert.Equal(t, auth.UsernameFor("writer@example.com"), posts[0].Author.Username)
	require.Len(t, posts[0].Tags, 1)
	assert.Equal(t, "concurrency", posts[0].Tags[0].Name)

	require.NotNil(t, env.Meta)
	assert.Equal(t, Meta{Total: 3, Page: 1, PerPage: 2, Pages: 2}, *env.Meta)

	rr = f.get(t, "/posts?page=2&per_page=2")
	require.NoError(t, json.Unmarshal(decode(t, rr).Data, &posts))
	require.Len(t, posts, 1)
	assert.Equal(t, "first", posts[0].Slug)
}

func TestListPostsEmpty(t *testing.T) {
	f := newAPIFixture(t)

	env := decode(t, f.get(t, "/posts"))
	assert.JSONEq(t, "[]", string(env.Data))
	assert.Equal(t, int64(0), env.Meta.Total)
	assert.Equal(t, 1, env.Meta.Pages)
}

func TestListPostsInvalidPagination(t *testing.T) {
	tests := []struct {
		query string
		field string
	}{
		{"page=0", "page"},
		{"page=abc", "page"},
		{"per_page=0", "per_page"},
		{"per_page=101", "per_page"},
	}
	f := newAPIFixture(t)
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rr := f.get(t, "/posts?"+tt.query)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			env := decode(t, rr)
			require.NotNil(t, env.Error)
			assert.Equal(t, "bad_request", env.Error.Code)
			assert.Contains(t, env.Error.Details, tt.field)
		})
	}
}

func TestGetPost(t *testing.T) {
	f := newAPIFixture(t)
	f.seed(t)

	t.Run("published", func(t *testing.T) {
		rr := f.get(t, "/posts/second")
		require.Equal(t, http.StatusOK, rr.Code)
		var post PostAPIResponse
		require.NoError(t, json.Unmarshal(decode(t, rr).Data, &post))
		assert.Equal(t, "Post second", post.Title)
		assert.Equal(t, "<p>Content of Post second</p>", post.Content)
	})

	for _, slug := range []string{"later", "missing"} {
		t.Run(slug, func(t *testing.T) {
			rr := f.get(t, "/posts/"+slug)
			assert.Equal(t, http.StatusNotFound, rr.Code)
			env := decode(t, rr)
			require.NotNil(t, env.Error)
			assert.Equal(t, "not_found", env.Error.Code)
			assert.Equal(t, "Post not found", env.Error.Message)
		})
	}
}

func TestTaxonomyEndpoints(t *testing.T) {
	f := newAPIFixture(t)
	cat, tag := f.seed(t)
	testutil.CreateCategory(t, f.db, "Empty")

	var cats []CategoryAPIResponse
	require.NoError(t, json.Unmarshal(decode(t, f.get(t, "/categories")).Data, &cats))
	require.Len(t, cats, 2)
	byName := map[string]CategoryAPIResponse{}
	for _, c := range cats {
		byName[c.Name] = c
	}
	assert.Equal(t, cat.ID, byName["Go"].ID)
	assert.Positive(t, byName["Go"].PostCount)
	assert.Zero(t, byName["Empty"].PostCount)

	var tags []TagAPIResponse
	require.NoError(t, json.Unmarshal(decode(t, f.get(t, "/tags")).Data, &tags))
	require.Len(t, tags, 1)
	assert.Equal(t, tag.ID, tags[0].ID)
	assert.Equal(t, "concurrency", tags[0].Name)
}

func TestResponsesAreCachedUntilInvalidated(t *testing.T) {
	f := newAPIFixture(t)
	testutil.CreateCategory(t, f.db, "Go")

	var cats []CategoryAPIResponse
	require.NoError(t, json.Unmarshal(decode(t, f.get(t, "/categories")).Data, &cats))
	require.Len(t, cats, 1)

	ok, err := f.cache.Has(context.Background(), cache.PrefixAPI+"categories")
	require.NoError(t, err)
	assert.True(t, ok)

	testutil.CreateCategory(t, f.db, "Rust")
	require.NoError(t, json.Unmarshal(decode(t, f.get(t, "/categories")).Data, &cats))
	assert.Len(t, cats, 1, "served from cache")

	f.widgets.Invalidate(context.Background())
	require.NoError(t, json.Unmarshal(decode(t, f.get(t, "/categories")).Data, &cats))
	assert.Len(t, cats, 2)
}

func TestCORS(t *testing.T) {
	f := newAPIFixture(t)

	t.Run("allowed origin", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/tags", nil)
		r.Header.Set("Origin", "https://app.example.com")
		rr := httptest.NewRecorder()
		f.router.ServeHTTP(rr, r)
		assert.Equal(t, "https://app.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("other origin", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/tags", nil)
		r.Header.Set("Origin", "https://evil.example.com")
		rr := httptest.NewRecorder()
		f.router.ServeHTTP(rr, r)
		assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodOptions, "/posts", nil)
		r.Header.Set("Origin", "https://app.example.com")
		r.Header.Set("Access-Control-Request-Method", http.MethodGet)
		rr := httptest.NewRecorder()
		f.router.ServeHTTP(rr, r)
		assert.Less(t, rr.Code, 300)
		assert.Contains(t, rr.Header().Get("Access-Control-Allow-Methods"), http.MethodGet)
	})
}

func TestUnknownEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	rr := f.get(t, "/pages")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "not_found", decode(t, rr).Error.Code)

	rr = httptest.NewRecorder()
	f.router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/posts", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

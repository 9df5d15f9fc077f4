// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the read-only JSON API of the blog.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"

	"github.com/olegiv/blango/internal/cache"
	"github.com/olegiv/blango/internal/middleware"
	"github.com/olegiv/blango/internal/service"
)

// Pagination limits for list endpoints.
const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	posts    *service.PostService
	taxonomy *service.TaxonomyService
	cache    *cache.Typed[Response]
	now      func() time.Time
}

// NewHandler creates a new API handler. Responses are cached in c under
// cache.PrefixAPI for ttl; c may be nil.
func NewHandler(posts *service.PostService, taxonomy *service.TaxonomyService, c cache.Cacher, ttl time.Duration) *Handler {
	h := &Handler{
		posts:    posts,
		taxonomy: taxonomy,
		now:      func() time.Time { return time.Now().UTC() },
	}
	if c != nil {
		h.cache = cache.NewTyped[Response](c, ttl)
	}
	return h
}

// Routes returns the /api/v1 router. Only GET and OPTIONS are served.
func (h *Handler) Routes(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(CORS(allowedOrigins))
	r.Get("/posts", h.ListPosts)
	r.Get("/posts/{slug}", h.GetPost)
	r.Get("/categories", h.ListCategories)
	r.Get("/tags", h.ListTags)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		WriteNotFound(w, "Endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		middleware.WriteAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed", nil)
	})
	return r
}

// CORS allows cross-origin reads from allowedOrigins. An empty list allows
// any origin.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         3600,
	})
	return c.Handler
}

// Response is the standard API response wrapper.
type Response struct {
	Data any   `json:"data"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta contains pagination metadata.
type Meta struct {
	Total   int64 `json:"total"`
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Pages   int   `json:"pages"`
}

func metaFor(p service.Pagination) *Meta {
	return &Meta{Total: p.Total, Page: p.Page, PerPage: p.PerPage, Pages: p.TotalPages()}
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful JSON response.
func WriteSuccess(w http.ResponseWriter, resp Response) {
	WriteJSON(w, http.StatusOK, resp)
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, message string, details map[string]string) {
	middleware.WriteAPIError(w, http.StatusBadRequest, "bad_request", message, details)
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(w http.ResponseWriter, message string) {
	middleware.WriteAPIError(w, http.StatusNotFound, "not_found", message, nil)
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter, message string) {
	middleware.WriteAPIError(w, http.StatusInternalServerError, "internal_error", message, nil)
}

// cached serves key from the cache or builds and stores it.
func (h *Handler) cached(r *http.Request, key string, build func() (Response, error)) (Response, error) {
	if h.cache == nil {
		return build()
	}
	return h.cache.GetOrLoad(r.Context(), cache.PrefixAPI+key, func(_ context.Context) (Response, error) {
		return build()
	})
}

// pageParams reads ?page= and ?per_page=. Invalid values are reported in
// the returned details map.
func pageParams(r *http.Request) (page, perPage int, details map[string]string) {
	page, perPage = 1, DefaultPerPage
	details = map[string]string{}
	if v := r.URL.Query().Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			details["page"] = "Must be a positive integer"
		} else {
			page = n
		}
	}
	if v := r.URL.Query().Get("per_page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > MaxPerPage {
			details["per_page"] = "Must be between 1 and " + strconv.Itoa(MaxPerPage)
		} else {
			perPage = n
		}
	}
	return page, perPage, details
}

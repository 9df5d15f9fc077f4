// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"log/slog"
	"net/http"
	"time"
)

// CategoryAPIResponse represents a category in API responses.
type CategoryAPIResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	PostCount int64     `json:"post_count"`
	CreatedAt time.Time `json:"created_at"`
}

// TagAPIResponse represents a tag in API responses.
type TagAPIResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	PostCount int64     `json:"post_count"`
	CreatedAt time.Time `json:"created_at"`
}

// ListCategories handles GET /api/v1/categories
// Public: returns all categories with post counts
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	resp, err := h.cached(r, "categories", func() (Response, error) {
		cats, err := h.taxonomy.Categories(r.Context())
		if err != nil {
			return Response{}, err
		}
		data := make([]CategoryAPIResponse, 0, len(cats))
		for _, c := range cats {
			data = append(data, CategoryAPIResponse{ID: c.ID, Name: c.Name, PostCount: c.PostCount, CreatedAt: c.CreatedAt})
		}
		return Response{Data: data, Meta: &Meta{Total: int64(len(data)), Page: 1, PerPage: len(data), Pages: 1}}, nil
	})
	if err != nil {
		slog.Error("api: failed to list categories", "error", err)
		WriteInternalError(w, "Failed to retrieve categories")
		return
	}
	WriteSuccess(w, resp)
}

// ListTags handles GET /api/v1/tags
// Public: returns all tags with post counts
func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	resp, err := h.cached(r, "tags", func() (Response, error) {
		tags, err := h.taxonomy.Tags(r.Context())
		if err != nil {
			return Response{}, err
		}
		data := make([]TagAPIResponse, 0, len(tags))
		for _, t := range tags {
			data = append(data, TagAPIResponse{ID: t.ID, Name: t.Value, PostCount: t.PostCount, CreatedAt: t.CreatedAt})
		}
		return Response{Data: data, Meta: &Meta{Total: int64(len(data)), Page: 1, PerPage: len(data), Pages: 1}}, nil
	})
	if err != nil {
		slog.Error("api: failed to list tags", "error", err)
		WriteInternalError(w, "Failed to retrieve tags")
		return
	}
	WriteSuccess(w, resp)
}

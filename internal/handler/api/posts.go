// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/blango/internal/service"
)

// errNotPublished marks a post that exists but is not visible yet.
var errNotPublished = errors.New("post not published")

// PostAPIResponse represents a post in API responses.
type PostAPIResponse struct {
	ID          int64             `json:"id"`
	Title       string            `json:"title"`
	Slug        string            `json:"slug"`
	Summary     string            `json:"summary"`
	Content     string            `json:"content,omitempty"`
	Image       string            `json:"image,omitempty"`
	PublishedAt time.Time         `json:"published_at"`
	ModifiedAt  time.Time         `json:"modified_at"`
	ViewCount   int64             `json:"view_count"`
	Author      AuthorAPIResponse `json:"author"`
	Category    RefAPIResponse    `json:"category"`
	Tags        []RefAPIResponse  `json:"tags"`
}

// AuthorAPIResponse is the public part of a post author.
type AuthorAPIResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// RefAPIResponse is a category or tag embedded in a post.
type RefAPIResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (h *Handler) postToResponse(p service.PostCard, withContent bool) PostAPIResponse {
	resp := PostAPIResponse{
		ID:          p.ID,
		Title:       p.Title,
		Slug:        p.Slug,
		Summary:     p.Summary,
		PublishedAt: p.PublishedAt.Time,
		ModifiedAt:  p.ModifiedAt,
		ViewCount:   p.ViewCount,
		Author: AuthorAPIResponse{
			ID:        p.AuthorID,
			Username:  p.AuthorUsername,
			FirstName: p.AuthorFirstName,
			LastName:  p.AuthorLastName,
		},
		Category: RefAPIResponse{ID: p.CategoryID, Name: p.CategoryName},
		Tags:     make([]RefAPIResponse, 0, len(p.Tags)),
	}
	if withContent {
		resp.Content = p.Content
	}
	if p.Image != "" {
		resp.Image = h.posts.ImageURL(p.Image)
	}
	for _, t := range p.Tags {
		resp.Tags = append(resp.Tags, RefAPIResponse{ID: t.ID, Name: t.Value})
	}
	return resp
}

// ListPosts handles GET /api/v1/posts
// Public: returns published posts, newest first.
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	page, perPage, details := pageParams(r)
	if len(details) > 0 {
		WriteBadRequest(w, "Invalid pagination parameters", details)
		return
	}

	key := "posts:" + strconv.Itoa(page) + ":" + strconv.Itoa(perPage)
	resp, err := h.cached(r, key, func() (Response, error) {
		pp, err := h.posts.Published(r.Context(), page, perPage)
		if err != nil {
			return Response{}, err
		}
		data := make([]PostAPIResponse, 0, len(pp.Posts))
		for _, p := range pp.Posts {
			data = append(data, h.postToResponse(p, false))
		}
		return Response{Data: data, Meta: metaFor(pp.Pagination)}, nil
	})
	if err != nil {
		slog.Error("api: failed to list posts", "error", err)
		WriteInternalError(w, "Failed to retrieve posts")
		return
	}
	WriteSuccess(w, resp)
}

// GetPost handles GET /api/v1/posts/{slug}
// Public: posts that are not published yet are reported as missing.
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if slug == "" {
		WriteBadRequest(w, "Missing post slug", nil)
		return
	}

	resp, err := h.cached(r, "post:"+slug, func() (Response, error) {
		p, err := h.posts.BySlug(r.Context(), slug)
		if err != nil {
			return Response{}, err
		}
		if !p.IsPublishedAt(h.now()) {
			return Response{}, errNotPublished
		}
		return Response{Data: h.postToResponse(p, true)}, nil
	})
	switch {
	case errors.Is(err, service.ErrNotFound), errors.Is(err, errNotPublished):
		WriteNotFound(w, "Post not found")
	case err != nil:
		slog.Error("api: failed to get post", "slug", slug, "error", err)
		WriteInternalError(w, "Failed to retrieve post")
	default:
		WriteSuccess(w, resp)
	}
}

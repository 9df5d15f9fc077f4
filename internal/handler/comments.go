// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"

	"github.com/olegiv/blango/internal/middleware"
	"github.com/olegiv/blango/internal/model"
	"github.com/olegiv/blango/internal/render"
	"github.com/olegiv/blango/internal/service"
	"github.com/olegiv/blango/internal/store"
)

const (
	redirectAdminComments = "/admin/comments"
	// CommentsPerPage is the number of comments per moderation page.
	CommentsPerPage = 20
)

// CommentsListData holds data for the comment moderation template.
type CommentsListData struct {
	Comments   []store.CommentRow
	Pagination PaginationView
}

// CommentsHandler handles comment moderation.
type CommentsHandler struct {
	renderer *render.Renderer
	comments *service.CommentService
	events   *service.EventService
}

// NewCommentsHandler creates a new CommentsHandler.
func NewCommentsHandler(renderer *render.Renderer, comments *service.CommentService, events *service.EventService) *CommentsHandler {
	return &CommentsHandler{renderer: renderer, comments: comments, events: events}
}

// List handles GET /admin/comments.
func (h *CommentsHandler) List(w http.ResponseWriter, r *http.Request) {
	comments, p, err := h.comments.List(r.Context(), pageParam(r), CommentsPerPage)
	if err != nil {
		serverError(w, r, h.renderer, "failed to list comments", err)
		return
	}

	renderPage(w, r, h.renderer, http.StatusOK, "admin/comments", render.TemplateData{
		Title: "Comments",
		Data: CommentsListData{
			Comments:   comments,
			Pagination: BuildPagination(p, redirectAdminComments, r.URL.Query()),
		},
	})
}

// Delete handles POST /admin/comments/{id}/delete.
func (h *CommentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		flashError(w, r, h.renderer, redirectAdminComments, "Invalid comment ID")
		return
	}

	if err := h.comments.Delete(r.Context(), id); err != nil {
		if isNotFound(err) {
			flashError(w, r, h.renderer, redirectAdminComments, "Comment not found")
			return
		}
		slog.Error("failed to delete comment", "error", err, "comment_id", id)
		flashError(w, r, h.renderer, redirectAdminComments, "Error deleting comment")
		return
	}

	slog.Info("comment deleted", "comment_id", id, "deleted_by", middleware.GetUserID(r))
	if h.events != nil {
		_ = h.events.LogInfo(r.Context(), model.EventCategoryComment, "Comment deleted", middleware.GetUserID(r),
			map[string]any{"comment_id": id})
	}
	flashSuccess(w, r, h.renderer, redirectAdminComments, "Comment deleted.")
}

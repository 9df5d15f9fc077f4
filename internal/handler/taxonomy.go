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
)

const (
	redirectAdminCategories = "/admin/categories"
	redirectAdminTags       = "/admin/tags"
)

// TaxonomyHandler handles category and tag management.
type TaxonomyHandler struct {
	renderer *render.Renderer
	taxonomy *service.TaxonomyService
	events   *service.EventService
}

// NewTaxonomyHandler creates a new TaxonomyHandler.
func NewTaxonomyHandler(renderer *render.Renderer, taxonomy *service.TaxonomyService, events *service.EventService) *TaxonomyHandler {
	return &TaxonomyHandler{renderer: renderer, taxonomy: taxonomy, events: events}
}

// ListCategories handles GET /admin/categories.
func (h *TaxonomyHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	h.renderCategories(w, r, http.StatusOK, nil, nil)
}

// CreateCategory handles POST /admin/categories.
func (h *TaxonomyHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminCategories) {
		return
	}

	cat, err := h.taxonomy.CreateCategory(r.Context(), r.FormValue("name"))
	if verrs, ok := service.AsValidationErrors(err); ok {
		h.renderCategories(w, r, http.StatusUnprocessableEntity, formValues(r, "name"), verrs)
		return
	}
	if err != nil {
		serverError(w, r, h.renderer, "failed to create category", err)
		return
	}

	slog.Info("category created", "category_id", cat.ID, "created_by", middleware.GetUserID(r))
	h.logEvent(r, "Category created", map[string]any{"category_id": cat.ID, "name": cat.Name})
	flashSuccess(w, r, h.renderer, redirectAdminCategories, "Category \""+cat.Name+"\" created.")
}

// UpdateCategory handles POST /admin/categories/{id}.
func (h *TaxonomyHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		flashError(w, r, h.renderer, redirectAdminCategories, "Invalid category ID")
		return
	}
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminCategories) {
		return
	}

	cat, err := h.taxonomy.UpdateCategory(r.Context(), id, r.FormValue("name"))
	if verrs, ok := service.AsValidationErrors(err); ok {
		flashError(w, r, h.renderer, redirectAdminCategories, validationMessage(verrs))
		return
	}
	if err != nil {
		h.flashServiceError(w, r, redirectAdminCategories, "category", err)
		return
	}

	h.logEvent(r, "Category updated", map[string]any{"category_id": cat.ID, "name": cat.Name})
	flashSuccess(w, r, h.renderer, redirectAdminCategories, "Category updated.")
}

// DeleteCategory handles POST /admin/categories/{id}/delete.
func (h *TaxonomyHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		flashError(w, r, h.renderer, redirectAdminCategories, "Invalid category ID")
		return
	}

	if err := h.taxonomy.DeleteCategory(r.Context(), id); err != nil {
		h.flashServiceError(w, r, redirectAdminCategories, "category", err)
		return
	}

	h.logEvent(r, "Category deleted", map[string]any{"category_id": id})
	flashSuccess(w, r, h.renderer, redirectAdminCategories, "Category deleted.")
}

// ListTags handles GET /admin/tags.
func (h *TaxonomyHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	h.renderTags(w, r, http.StatusOK, nil, nil)
}

// CreateTag handles POST /admin/tags.
func (h *TaxonomyHandler) CreateTag(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminTags) {
		return
	}

	tag, err := h.taxonomy.CreateTag(r.Context(), r.FormValue("value"))
	if verrs, ok := service.AsValidationErrors(err); ok {
		h.renderTags(w, r, http.StatusUnprocessableEntity, formValues(r, "value"), verrs)
		return
	}
	if err != nil {
		serverError(w, r, h.renderer, "failed to create tag", err)
		return
	}

	h.logEvent(r, "Tag created", map[string]any{"tag_id": tag.ID, "value": tag.Value})
	flashSuccess(w, r, h.renderer, redirectAdminTags, "Tag \""+tag.Value+"\" created.")
}

// UpdateTag handles POST /admin/tags/{id}.
func (h *TaxonomyHandler) UpdateTag(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		flashError(w, r, h.renderer, redirectAdminTags, "Invalid tag ID")
		return
	}
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminTags) {
		return
	}

	tag, err := h.taxonomy.UpdateTag(r.Context(), id, r.FormValue("value"))
	if verrs, ok := service.AsValidationErrors(err); ok {
		flashError(w, r, h.renderer, redirectAdminTags, validationMessage(verrs))
		return
	}
	if err != nil {
		h.flashServiceError(w, r, redirectAdminTags, "tag", err)
		return
	}

	h.logEvent(r, "Tag updated", map[string]any{"tag_id": tag.ID, "value": tag.Value})
	flashSuccess(w, r, h.renderer, redirectAdminTags, "Tag updated.")
}

// DeleteTag handles POST /admin/tags/{id}/delete.
func (h *TaxonomyHandler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		flashError(w, r, h.renderer, redirectAdminTags, "Invalid tag ID")
		return
	}

	if err := h.taxonomy.DeleteTag(r.Context(), id); err != nil {
		h.flashServiceError(w, r, redirectAdminTags, "tag", err)
		return
	}

	h.logEvent(r, "Tag deleted", map[string]any{"tag_id": id})
	flashSuccess(w, r, h.renderer, redirectAdminTags, "Tag deleted.")
}

func (h *TaxonomyHandler) renderCategories(w http.ResponseWriter, r *http.Request, status int, form map[string]string, errs service.ValidationErrors) {
	categories, err := h.taxonomy.Categories(r.Context())
	if err != nil {
		serverError(w, r, h.renderer, "failed to list categories", err)
		return
	}
	renderPage(w, r, h.renderer, status, "admin/categories", render.TemplateData{
		Title:  "Categories",
		Data:   categories,
		Form:   form,
		Errors: errs,
	})
}

func (h *TaxonomyHandler) renderTags(w http.ResponseWriter, r *http.Request, status int, form map[string]string, errs service.ValidationErrors) {
	tags, err := h.taxonomy.Tags(r.Context())
	if err != nil {
		serverError(w, r, h.renderer, "failed to list tags", err)
		return
	}
	renderPage(w, r, h.renderer, status, "admin/tags", render.TemplateData{
		Title:  "Tags",
		Data:   tags,
		Form:   form,
		Errors: errs,
	})
}

// flashServiceError redirects with "not found" for service.ErrNotFound and
// a generic error otherwise.
func (h *TaxonomyHandler) flashServiceError(w http.ResponseWriter, r *http.Request, url, entity string, err error) {
	if isNotFound(err) {
		flashError(w, r, h.renderer, url, entity+" not found")
		return
	}
	slog.Error("failed to change "+entity, "error", err)
	flashError(w, r, h.renderer, url, "Error saving "+entity)
}

func (h *TaxonomyHandler) logEvent(r *http.Request, message string, metadata map[string]any) {
	if h.events != nil {
		_ = h.events.LogInfo(r.Context(), model.EventCategoryPost, message, middleware.GetUserID(r), metadata)
	}
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/olegiv/blango/internal/cache"
	"github.com/olegiv/blango/internal/middleware"
	"github.com/olegiv/blango/internal/model"
	"github.com/olegiv/blango/internal/render"
	"github.com/olegiv/blango/internal/service"
)

const redirectAdminCache = "/admin/cache"

// CacheHandler handles cache management routes.
type CacheHandler struct {
	renderer     *render.Renderer
	cache        cache.Cacher
	eventService *service.EventService
}

// NewCacheHandler creates a new CacheHandler.
func NewCacheHandler(renderer *render.Renderer, c cache.Cacher, es *service.EventService) *CacheHandler {
	return &CacheHandler{
		renderer:     renderer,
		cache:        c,
		eventService: es,
	}
}

// CacheStatsData holds data for the cache stats template.
type CacheStatsData struct {
	Stats    cache.Stats
	HasStats bool
}

// Stats handles GET /admin/cache - displays cache statistics.
func (h *CacheHandler) Stats(w http.ResponseWriter, r *http.Request) {
	var data CacheStatsData
	if sp, ok := h.cache.(cache.StatsProvider); ok {
		data.Stats = sp.Stats()
		data.HasStats = true
	}

	renderPage(w, r, h.renderer, http.StatusOK, "admin/cache", render.TemplateData{
		Title: "Cache",
		Data:  data,
	})
}

// clearCacheHelper performs the clear operation, logging, and flash message.
func (h *CacheHandler) clearCacheHelper(w http.ResponseWriter, r *http.Request, clearFn func(context.Context) error, logMsg, eventMsg, flashMsg string) {
	if err := clearFn(r.Context()); err != nil {
		slog.Error("failed to clear cache", "error", err)
		flashError(w, r, h.renderer, redirectAdminCache, "Failed to clear cache")
		return
	}
	slog.Info(logMsg, "cleared_by", middleware.GetUserID(r))

	if h.eventService != nil {
		_ = h.eventService.LogInfo(r.Context(), model.EventCategoryCache, eventMsg, middleware.GetUserID(r), nil)
	}

	flashSuccess(w, r, h.renderer, redirectAdminCache, flashMsg)
}

// Clear handles POST /admin/cache/clear - clears all caches.
func (h *CacheHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.clearCacheHelper(w, r, h.cache.Clear,
		"cache cleared", "All caches cleared", "All caches cleared successfully")
}

// ClearWidgets handles POST /admin/cache/clear/widgets - clears the sidebar lists.
func (h *CacheHandler) ClearWidgets(w http.ResponseWriter, r *http.Request) {
	h.clearCacheHelper(w, r, prefixClearer(h.cache, cache.PrefixWidgets),
		"widget cache cleared", "Widget cache cleared", "Widget cache cleared")
}

// ClearSitemap handles POST /admin/cache/clear/sitemap - clears sitemap cache.
func (h *CacheHandler) ClearSitemap(w http.ResponseWriter, r *http.Request) {
	h.clearCacheHelper(w, r, prefixClearer(h.cache, cache.PrefixSitemap),
		"sitemap cache cleared", "Sitemap cache cleared", "Sitemap cache cleared")
}

// ResetStats handles POST /admin/cache/reset-stats.
func (h *CacheHandler) ResetStats(w http.ResponseWriter, r *http.Request) {
	if sp, ok := h.cache.(cache.StatsProvider); ok {
		sp.ResetStats()
	}
	flashSuccess(w, r, h.renderer, redirectAdminCache, "Cache statistics reset")
}

func prefixClearer(c cache.Cacher, prefix string) func(context.Context) error {
	return func(ctx context.Context) error {
		return c.DeleteByPrefix(ctx, prefix)
	}
}

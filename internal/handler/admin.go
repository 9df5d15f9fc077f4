// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"

	"github.com/olegiv/blango/internal/render"
	"github.com/olegiv/blango/internal/service"
)

// dashboardRecentEvents is how many events the dashboard lists.
const dashboardRecentEvents = 10

// DashboardData holds data for the dashboard template.
type DashboardData struct {
	Stats        service.DashboardStats
	RecentEvents []EventView
}

// AdminHandler handles the admin dashboard.
type AdminHandler struct {
	renderer *render.Renderer
	stats    *service.StatsService
	events   *service.EventService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(renderer *render.Renderer, stats *service.StatsService, events *service.EventService) *AdminHandler {
	return &AdminHandler{renderer: renderer, stats: stats, events: events}
}

// Dashboard renders the admin dashboard.
// GET /admin
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.stats.Dashboard(ctx)
	if err != nil {
		serverError(w, r, h.renderer, "failed to load dashboard stats", err)
		return
	}

	events, _, err := h.events.List(ctx, 1, dashboardRecentEvents)
	if err != nil {
		serverError(w, r, h.renderer, "failed to load recent events", err)
		return
	}

	renderPage(w, r, h.renderer, http.StatusOK, "admin/dashboard", render.TemplateData{
		Title: "Dashboard",
		Data: DashboardData{
			Stats:        stats,
			RecentEvents: toEventViews(events),
		},
	})
}

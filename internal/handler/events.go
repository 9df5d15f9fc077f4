// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/olegiv/blango/internal/render"
	"github.com/olegiv/blango/internal/service"
	"github.com/olegiv/blango/internal/store"
)

// EventsPerPage is the number of events per page.
const EventsPerPage = 25

// detailsLengthThreshold is the max chars before details are collapsible
const detailsLengthThreshold = 80

// EventView is an event with its metadata flattened for display.
type EventView struct {
	store.Event
	Details     string
	Collapsible bool
}

// EventsListData holds data for the events list template.
type EventsListData struct {
	Events      []EventView
	TotalEvents int64
	Pagination  PaginationView
}

// EventsHandler handles the event log page.
type EventsHandler struct {
	renderer *render.Renderer
	events   *service.EventService
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(renderer *render.Renderer, events *service.EventService) *EventsHandler {
	return &EventsHandler{renderer: renderer, events: events}
}

// List handles GET /admin/events - displays the paginated event log.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	events, total, err := h.events.List(r.Context(), pageParam(r), EventsPerPage)
	if err != nil {
		serverError(w, r, h.renderer, "failed to list events", err)
		return
	}

	p := service.NewPagination(pageParam(r), EventsPerPage, total)
	renderPage(w, r, h.renderer, http.StatusOK, "admin/events", render.TemplateData{
		Title: "Event log",
		Data: EventsListData{
			Events:      toEventViews(events),
			TotalEvents: total,
			Pagination:  BuildPagination(p, "/admin/events", r.URL.Query()),
		},
	})
}

func toEventViews(events []store.Event) []EventView {
	views := make([]EventView, 0, len(events))
	for _, e := range events {
		details := formatMetadata(e.Metadata)
		views = append(views, EventView{
			Event:       e,
			Details:     details,
			Collapsible: len(details) > detailsLengthThreshold,
		})
	}
	return views
}

// formatMetadata converts JSON metadata to readable text format.
// Example: {"path":"/admin","error":"not found"} -> "error: not found, path: /admin"
func formatMetadata(metadata string) string {
	if metadata == "" || metadata == "{}" {
		return ""
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(metadata), &data); err != nil {
		return metadata // Return as-is if not valid JSON
	}

	if len(data) == 0 {
		return ""
	}

	// Sort keys for consistent output order
	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		var strValue string
		switch v := data[key].(type) {
		case string:
			strValue = v
		case float64:
			strValue = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			strValue = strconv.FormatBool(v)
		default:
			if b, err := json.Marshal(v); err == nil {
				strValue = string(b)
			}
		}
		parts = append(parts, key+": "+strValue)
	}

	return strings.Join(parts, ", ")
}

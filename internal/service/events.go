// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/olegiv/blango/internal/logging"
	"github.com/olegiv/blango/internal/model"
	"github.com/olegiv/blango/internal/store"
)

// EventService writes and reads the audit event log.
type EventService struct {
	queries *store.Queries
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB) *EventService {
	return &EventService{queries: store.New(db)}
}

// LogEvent records an event. Request URL, IP and user come from the
// request info in ctx when userID is zero.
func (s *EventService) LogEvent(ctx context.Context, level, category, message string, userID int64, metadata map[string]any) error {
	params := store.CreateEventParams{
		Level:     level,
		Category:  category,
		Message:   message,
		Metadata:  "{}",
		CreatedAt: time.Now(),
	}
	if info, ok := logging.RequestInfoFromContext(ctx); ok {
		params.IpAddress = info.IP
		params.RequestUrl = info.URL
		if userID == 0 {
			userID = info.UserID
		}
		if info.Country != "" {
			metadata = withCountry(metadata, info.Country)
		}
	}
	if userID > 0 {
		params.UserID = sql.NullInt64{Int64: userID, Valid: true}
	}
	if len(metadata) > 0 {
		if data, err := json.Marshal(metadata); err == nil {
			params.Metadata = string(data)
		}
	}

	if _, err := s.queries.CreateEvent(ctx, params); err != nil {
		slog.Error("failed to log event", "error", err, "message", message)
		return err
	}
	return nil
}

// withCountry copies metadata with the client country added.
func withCountry(metadata map[string]any, country string) map[string]any {
	out := make(map[string]any, len(metadata)+1)
	for k, v := range metadata {
		out[k] = v
	}
	out["country"] = country
	return out
}

// LogInfo logs an info-level event.
func (s *EventService) LogInfo(ctx context.Context, category, message string, userID int64, metadata map[string]any) error {
	return s.LogEvent(ctx, model.EventLevelInfo, category, message, userID, metadata)
}

// LogWarning logs a warning-level event.
func (s *EventService) LogWarning(ctx context.Context, category, message string, userID int64, metadata map[string]any) error {
	return s.LogEvent(ctx, model.EventLevelWarning, category, message, userID, metadata)
}

// List returns one page of events, newest first, and the total count.
func (s *EventService) List(ctx context.Context, page, perPage int) ([]store.Event, int64, error) {
	total, err := s.queries.CountEvents(ctx)
	if err != nil {
		return nil, 0, err
	}
	p := NewPagination(page, perPage, total)
	events, err := s.queries.ListEvents(ctx, store.ListEventsParams{Limit: p.Limit(), Offset: p.Offset()})
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// DeleteOlderThan removes events older than d and returns how many went.
func (s *EventService) DeleteOlderThan(ctx context.Context, d time.Duration) (int64, error) {
	return s.queries.DeleteEventsBefore(ctx, time.Now().Add(-d))
}

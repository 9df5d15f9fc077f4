// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/olegiv/blango/internal/metrics"
	"github.com/olegiv/blango/internal/store"
)

// DashboardStats are the admin dashboard counters.
type DashboardStats struct {
	Posts      int64 `json:"posts"`
	Published  int64 `json:"published"`
	Comments   int64 `json:"comments"`
	Users      int64 `json:"users"`
	Categories int64 `json:"categories"`
	Views      int64 `json:"views"`
}

// StatsService computes site-wide counts.
type StatsService struct {
	queries *store.Queries
	metrics *metrics.Metrics
	now     Clock
}

// NewStatsService creates a StatsService. m may be nil.
func NewStatsService(db *sql.DB, m *metrics.Metrics) *StatsService {
	return &StatsService{queries: store.New(db), metrics: m, now: defaultClock}
}

// Dashboard returns the current counts.
func (s *StatsService) Dashboard(ctx context.Context) (DashboardStats, error) {
	var st DashboardStats
	var err error
	if st.Posts, err = s.queries.CountPosts(ctx); err != nil {
		return st, fmt.Errorf("counting posts: %w", err)
	}
	if st.Published, err = s.queries.CountPublishedPosts(ctx, s.now()); err != nil {
		return st, fmt.Errorf("counting published posts: %w", err)
	}
	if st.Comments, err = s.queries.CountComments(ctx); err != nil {
		return st, fmt.Errorf("counting comments: %w", err)
	}
	if st.Users, err = s.queries.CountUsers(ctx); err != nil {
		return st, fmt.Errorf("counting users: %w", err)
	}
	if st.Categories, err = s.queries.CountCategories(ctx); err != nil {
		return st, fmt.Errorf("counting categories: %w", err)
	}
	if st.Views, err = s.queries.SumPostViews(ctx); err != nil {
		return st, fmt.Errorf("summing views: %w", err)
	}
	return st, nil
}

// RefreshGauges copies the current counts into the Prometheus gauges.
func (s *StatsService) RefreshGauges(ctx context.Context) error {
	if s.metrics == nil {
		return nil
	}
	st, err := s.Dashboard(ctx)
	if err != nil {
		return err
	}
	s.metrics.PostsTotal.Set(float64(st.Posts))
	s.metrics.CommentsTotal.Set(float64(st.Comments))
	s.metrics.UsersTotal.Set(float64(st.Users))
	return nil
}

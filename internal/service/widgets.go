// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/olegiv/blango/internal/cache"
	"github.com/olegiv/blango/internal/store"
)

// PostLink is the compact post shape the sidebar lists render.
type PostLink struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	PublishedAt time.Time `json:"published_at"`
	ViewCount   int64     `json:"view_count"`
}

func toPostLinks(rows []store.PostRow) []PostLink {
	links := make([]PostLink, 0, len(rows))
	for _, r := range rows {
		links = append(links, PostLink{
			ID:          r.ID,
			Title:       r.Title,
			Slug:        r.Slug,
			PublishedAt: r.PublishedAt.Time,
			ViewCount:   r.ViewCount,
		})
	}
	return links
}

// WidgetService builds the sidebar lists. Results are cached under
// cache.PrefixWidgets and dropped whenever posts or taxonomy change.
type WidgetService struct {
	queries    *store.Queries
	siteConfig *SiteConfigService
	cache      cache.Cacher
	links      *cache.Typed[[]PostLink]
	categories *cache.Typed[[]store.CategoryWithCount]
	tags       *cache.Typed[[]store.TagWithCount]
	now        Clock
}

// NewWidgetService creates a WidgetService backed by c.
func NewWidgetService(db *sql.DB, c cache.Cacher, siteConfig *SiteConfigService, ttl time.Duration) *WidgetService {
	return &WidgetService{
		queries:    store.New(db),
		siteConfig: siteConfig,
		cache:      c,
		links:      cache.NewTyped[[]PostLink](c, ttl),
		categories: cache.NewTyped[[]store.CategoryWithCount](c, ttl),
		tags:       cache.NewTyped[[]store.TagWithCount](c, ttl),
		now:        defaultClock,
	}
}

func (s *WidgetService) limit(ctx context.Context) int64 {
	if s.siteConfig == nil {
		return 5
	}
	return int64(s.siteConfig.Settings(ctx).SidebarSize)
}

// RecentPosts returns the newest published posts except excludeID.
func (s *WidgetService) RecentPosts(ctx context.Context, excludeID int64) []PostLink {
	key := fmt.Sprintf("%srecent:%d", cache.PrefixWidgets, excludeID)
	links, err := s.links.GetOrLoad(ctx, key, func(ctx context.Context) ([]PostLink, error) {
		rows, err := s.queries.ListRecentPosts(ctx, store.ListRecentPostsParams{
			ExcludeID: excludeID,
			Now:       s.now(),
			Limit:     s.limit(ctx),
		})
		return toPostLinks(rows), err
	})
	if err != nil {
		logWarn(ctx, "failed to load recent posts", "error", err)
	}
	return links
}

// MostViewedPosts returns the posts with the highest view counters except
// excludeID.
func (s *WidgetService) MostViewedPosts(ctx context.Context, excludeID int64) []PostLink {
	key := fmt.Sprintf("%sviewed:%d", cache.PrefixWidgets, excludeID)
	links, err := s.links.GetOrLoad(ctx, key, func(ctx context.Context) ([]PostLink, error) {
		rows, err := s.queries.ListMostViewedPosts(ctx, store.ListMostViewedPostsParams{
			ExcludeID: excludeID,
			Now:       s.now(),
			Limit:     s.limit(ctx),
		})
		return toPostLinks(rows), err
	})
	if err != nil {
		logWarn(ctx, "failed to load most viewed posts", "error", err)
	}
	return links
}

// PostsByCategory returns the first posts of a category.
func (s *WidgetService) PostsByCategory(ctx context.Context, categoryID int64) []PostLink {
	key := fmt.Sprintf("%scategory:%d", cache.PrefixWidgets, categoryID)
	links, err := s.links.GetOrLoad(ctx, key, func(ctx context.Context) ([]PostLink, error) {
		rows, err := s.queries.ListPostsByCategory(ctx, store.ListPostsByCategoryParams{
			CategoryID: categoryID,
			Now:        s.now(),
			Limit:      s.limit(ctx),
		})
		return toPostLinks(rows), err
	})
	if err != nil {
		logWarn(ctx, "failed to load category posts", "category_id", categoryID, "error", err)
	}
	return links
}

// UserPosts returns every post of a user, drafts and scheduled included.
// It is shown on the owner's profile and is not cached.
func (s *WidgetService) UserPosts(ctx context.Context, userID int64) []store.PostRow {
	rows, err := s.queries.ListPostsByAuthor(ctx, userID)
	if err != nil {
		logWarn(ctx, "failed to load user posts", "user_id", userID, "error", err)
	}
	return rows
}

// Categories returns all categories with their post counts.
func (s *WidgetService) Categories(ctx context.Context) []store.CategoryWithCount {
	cats, err := s.categories.GetOrLoad(ctx, cache.PrefixWidgets+"categories", s.queries.ListCategoriesWithCount)
	if err != nil {
		logWarn(ctx, "failed to load categories", "error", err)
	}
	return cats
}

// Tags returns all tags with their post counts.
func (s *WidgetService) Tags(ctx context.Context) []store.TagWithCount {
	tags, err := s.tags.GetOrLoad(ctx, cache.PrefixWidgets+"tags", s.queries.ListTagsWithCount)
	if err != nil {
		logWarn(ctx, "failed to load tags", "error", err)
	}
	return tags
}

// Invalidate drops every cached sidebar list and the sitemap.
func (s *WidgetService) Invalidate(ctx context.Context) {
	for _, prefix := range []string{cache.PrefixWidgets, cache.PrefixSitemap, cache.PrefixAPI} {
		if err := s.cache.DeleteByPrefix(ctx, prefix); err != nil {
			logWarn(ctx, "failed to invalidate cache", "prefix", prefix, "error", err)
		}
	}
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/olegiv/blango/internal/cache"
	"github.com/olegiv/blango/internal/seo"
	"github.com/olegiv/blango/internal/store"
)

const (
	sitemapCacheKey = cache.PrefixSitemap + "xml"
	// sitemapMaxPosts is the per-file URL limit of the sitemap protocol.
	sitemapMaxPosts = 50000
)

// SitemapService builds sitemap.xml from the published posts, categories
// and tags. The document is cached until content changes.
type SitemapService struct {
	queries *store.Queries
	cache   cache.Cacher
	siteURL string
	ttl     time.Duration
	now     Clock
}

// NewSitemapService creates a SitemapService. c may be nil.
func NewSitemapService(db *sql.DB, c cache.Cacher, siteURL string, ttl time.Duration) *SitemapService {
	return &SitemapService{
		queries: store.New(db),
		cache:   c,
		siteURL: siteURL,
		ttl:     ttl,
		now:     defaultClock,
	}
}

// Sitemap returns the sitemap XML.
func (s *SitemapService) Sitemap(ctx context.Context) ([]byte, error) {
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, sitemapCacheKey); err == nil {
			return data, nil
		}
	}

	data, err := s.build(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, sitemapCacheKey, data, s.ttl); err != nil {
			logWarn(ctx, "failed to cache sitemap", "error", err)
		}
	}
	return data, nil
}

func (s *SitemapService) build(ctx context.Context) ([]byte, error) {
	posts, err := s.queries.ListPublishedPosts(ctx, store.ListPublishedPostsParams{
		Now: s.now(), Limit: sitemapMaxPosts, Offset: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	categories, err := s.queries.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	tags, err := s.queries.ListTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}

	b := seo.NewSitemapBuilder(s.siteURL)
	b.AddHomepage()
	for _, p := range posts {
		b.AddPost(seo.SitemapPost{Slug: p.Slug, ModifiedAt: p.ModifiedAt})
	}
	for _, c := range categories {
		b.AddCategory(c.ID)
	}
	for _, t := range tags {
		b.AddTag(t.ID)
	}
	return b.Build()
}

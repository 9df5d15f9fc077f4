// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/olegiv/blango/internal/model"
	"github.com/olegiv/blango/internal/store"
)

// TaxonomyService manages categories and tags from the admin area.
// Deleting a category deletes its posts.
type TaxonomyService struct {
	queries *store.Queries
	widgets *WidgetService
	now     Clock
}

// NewTaxonomyService creates a TaxonomyService. widgets may be nil.
func NewTaxonomyService(db *sql.DB, widgets *WidgetService) *TaxonomyService {
	return &TaxonomyService{queries: store.New(db), widgets: widgets, now: defaultClock}
}

func validateName(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	errs := ValidationErrors{}
	switch {
	case value == "":
		errs.Add(field, "This field is required.")
	case utf8.RuneCountInString(value) > model.MaxNameLength:
		errs.Add(field, fmt.Sprintf("Ensure this value has at most %d characters.", model.MaxNameLength))
	}
	return value, errs.Err()
}

// Categories lists categories with post counts.
func (s *TaxonomyService) Categories(ctx context.Context) ([]store.CategoryWithCount, error) {
	return s.queries.ListCategoriesWithCount(ctx)
}

// Category returns one category.
func (s *TaxonomyService) Category(ctx context.Context, id int64) (store.Category, error) {
	c, err := s.queries.GetCategoryByID(ctx, id)
	return c, notFound(err)
}

// CreateCategory adds a category.
func (s *TaxonomyService) CreateCategory(ctx context.Context, name string) (store.Category, error) {
	name, err := validateName("name", name)
	if err != nil {
		return store.Category{}, err
	}
	c, err := s.queries.CreateCategory(ctx, store.CreateCategoryParams{Name: name, CreatedAt: s.now()})
	if err != nil {
		return store.Category{}, fmt.Errorf("creating category: %w", err)
	}
	s.invalidate(ctx)
	return c, nil
}

// UpdateCategory renames a category.
func (s *TaxonomyService) UpdateCategory(ctx context.Context, id int64, name string) (store.Category, error) {
	name, err := validateName("name", name)
	if err != nil {
		return store.Category{}, err
	}
	c, err := s.queries.UpdateCategory(ctx, store.UpdateCategoryParams{Name: name, ID: id})
	if err != nil {
		return store.Category{}, notFound(err)
	}
	s.invalidate(ctx)
	return c, nil
}

// DeleteCategory removes a category and, through the foreign key, its posts.
func (s *TaxonomyService) DeleteCategory(ctx context.Context, id int64) error {
	if _, err := s.queries.GetCategoryByID(ctx, id); err != nil {
		return notFound(err)
	}
	if err := s.queries.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("deleting category: %w", err)
	}
	s.invalidate(ctx)
	return nil
}

// Tags lists tags with post counts.
func (s *TaxonomyService) Tags(ctx context.Context) ([]store.TagWithCount, error) {
	return s.queries.ListTagsWithCount(ctx)
}

// Tag returns one tag.
func (s *TaxonomyService) Tag(ctx context.Context, id int64) (store.Tag, error) {
	t, err := s.queries.GetTagByID(ctx, id)
	return t, notFound(err)
}

// CreateTag adds a tag.
func (s *TaxonomyService) CreateTag(ctx context.Context, value string) (store.Tag, error) {
	value, err := validateName("value", value)
	if err != nil {
		return store.Tag{}, err
	}
	t, err := s.queries.CreateTag(ctx, store.CreateTagParams{Value: value, CreatedAt: s.now()})
	if err != nil {
		return store.Tag{}, fmt.Errorf("creating tag: %w", err)
	}
	s.invalidate(ctx)
	return t, nil
}

// UpdateTag changes the value of a tag.
func (s *TaxonomyService) UpdateTag(ctx context.Context, id int64, value string) (store.Tag, error) {
	value, err := validateName("value", value)
	if err != nil {
		return store.Tag{}, err
	}
	t, err := s.queries.UpdateTag(ctx, store.UpdateTagParams{Value: value, ID: id})
	if err != nil {
		return store.Tag{}, notFound(err)
	}
	s.invalidate(ctx)
	return t, nil
}

// DeleteTag removes a tag from every post and deletes it.
func (s *TaxonomyService) DeleteTag(ctx context.Context, id int64) error {
	if _, err := s.queries.GetTagByID(ctx, id); err != nil {
		return notFound(err)
	}
	if err := s.queries.DeleteTag(ctx, id); err != nil {
		return fmt.Errorf("deleting tag: %w", err)
	}
	s.invalidate(ctx)
	return nil
}

func (s *TaxonomyService) invalidate(ctx context.Context) {
	if s.widgets != nil {
		s.widgets.Invalidate(ctx)
	}
}

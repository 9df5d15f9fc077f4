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

// searchLimit caps the number of results on the search page.
const searchLimit = 50

// SearchResult is the outcome of a search form submission. Errors is set
// when the form did not validate; Posts is then empty.
type SearchResult struct {
	Query  string
	Posts  []store.PostRow
	Errors ValidationErrors
}

// Valid reports whether the query passed validation.
func (r SearchResult) Valid() bool {
	return len(r.Errors) == 0
}

// SearchService finds published posts by case-insensitive substring.
type SearchService struct {
	queries *store.Queries
	now     Clock
}

// NewSearchService creates a new search service.
func NewSearchService(db *sql.DB) *SearchService {
	return &SearchService{queries: store.New(db), now: defaultClock}
}

// ValidateQuery applies the search form rules: required and at most
// model.MaxSearchQueryLength characters.
func ValidateQuery(raw string) (string, ValidationErrors) {
	q := strings.TrimSpace(raw)
	errs := ValidationErrors{}
	switch {
	case q == "":
		errs.Add("query", "This field is required.")
	case utf8.RuneCountInString(q) > model.MaxSearchQueryLength:
		errs.Add("query", fmt.Sprintf("Ensure this value has at most %d characters (it has %d).",
			model.MaxSearchQueryLength, utf8.RuneCountInString(q)))
	}
	return q, errs
}

// Search matches post content first; when nothing matches, titles are
// searched instead.
func (s *SearchService) Search(ctx context.Context, raw string) (SearchResult, error) {
	q, errs := ValidateQuery(raw)
	res := SearchResult{Query: q}
	if len(errs) > 0 {
		res.Errors = errs
		return res, nil
	}

	params := store.SearchPostsParams{Query: q, Now: s.now(), Limit: searchLimit}
	posts, err := s.queries.SearchPostsByContent(ctx, params)
	if err != nil {
		return res, fmt.Errorf("searching content: %w", err)
	}
	if len(posts) == 0 {
		posts, err = s.queries.SearchPostsByTitle(ctx, params)
		if err != nil {
			return res, fmt.Errorf("searching titles: %w", err)
		}
	}
	res.Posts = posts
	return res, nil
}

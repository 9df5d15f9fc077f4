// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/olegiv/blango/internal/store"
	tu "github.com/olegiv/blango/internal/testutil"
)

func createSearchPost(t *testing.T, db *sql.DB, authorID, categoryID int64, title, content string, published time.Time) {
	t.Helper()
	now := time.Now()
	_, err := store.New(db).CreatePost(context.Background(), store.CreatePostParams{
		AuthorID:    authorID,
		CategoryID:  categoryID,
		Title:       title,
		Slug:        strings.ToLower(strings.ReplaceAll(title, " ", "-")),
		Content:     content,
		PublishedAt: sql.NullTime{Time: published, Valid: !published.IsZero()},
		CreatedAt:   now,
		ModifiedAt:  now,
	})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
}

func TestSearchService_Search(t *testing.T) {
	db := tu.TestDB(t)
	author := tu.CreateUser(t, db, "author@example.com", "")
	cat := tu.CreateCategory(t, db, "Go")
	past := time.Now().Add(-time.Hour)

	createSearchPost(t, db, author.ID, cat.ID, "Channels", "<p>Goroutines talk over channels.</p>", past)
	createSearchPost(t, db, author.ID, cat.ID, "Generics Intro", "<p>Type parameters arrived in 1.18.</p>", past)
	createSearchPost(t, db, author.ID, cat.ID, "Draft Goroutines", "<p>Goroutines draft.</p>", time.Time{})
	createSearchPost(t, db, author.ID, cat.ID, "Percent", "<p>100% coverage</p>", past)

	svc := NewSearchService(db)
	ctx := context.Background()

	tests := []struct {
		name      string
		query     string
		wantTitle []string
	}{
		{"content match, case-insensitive", "GOROUTINES", []string{"Channels"}},
		{"falls back to title", "intro", []string{"Generics Intro"}},
		{"no match", "rust", nil},
		{"wildcards are literal", "%", []string{"Percent"}},
		{"trimmed", "  channels  ", []string{"Channels"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.Search(ctx, tt.query)
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			if !res.Valid() {
				t.Fatalf("unexpected validation errors: %v", res.Errors)
			}
			if len(res.Posts) != len(tt.wantTitle) {
				t.Fatalf("got %d posts, want %d", len(res.Posts), len(tt.wantTitle))
			}
			for i, p := range res.Posts {
				if p.Title != tt.wantTitle[i] {
					t.Errorf("post %d = %q, want %q", i, p.Title, tt.wantTitle[i])
				}
			}
		})
	}
}

func TestValidateQuery(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantErr bool
	}{
		{"ok", "go", false},
		{"empty", "", true},
		{"blank", "   ", true},
		{"max length", strings.Repeat("a", 100), false},
		{"too long", strings.Repeat("a", 101), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errs := ValidateQuery(tt.query)
			if (len(errs) > 0) != tt.wantErr {
				t.Errorf("ValidateQuery(%q) errors = %v, wantErr %v", tt.query, errs, tt.wantErr)
			}
		})
	}
}

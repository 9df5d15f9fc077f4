// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package testutil provides shared test helpers for the Blango packages.
package testutil

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/olegiv/blango/internal/auth"
	"github.com/olegiv/blango/internal/model"
	"github.com/olegiv/blango/internal/store"
)

// TestPassword is the plain-text password of users created by CreateUser.
const TestPassword = "correct-horse-battery"

// TestLogger creates a test logger that only outputs warnings and errors.
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

// TestDB creates a temporary file database with all migrations applied.
// It is closed when the test ends.
func TestDB(t *testing.T) *sql.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "blango-test.db")
	db, err := store.NewDB(dbPath)
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := store.Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return db
}

// CreateUser inserts an active user whose password is TestPassword.
func CreateUser(t *testing.T, db *sql.DB, email, role string) store.User {
	t.Helper()

	hash, err := auth.HashPassword(TestPassword)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if role == "" {
		role = model.RoleAuthor
	}

	now := time.Now()
	u, err := store.New(db).CreateUser(context.Background(), store.CreateUserParams{
		Email:        email,
		Username:     auth.UsernameFor(email),
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u
}

// CreateCategory inserts a category.
func CreateCategory(t *testing.T, db *sql.DB, name string) store.Category {
	t.Helper()
	c, err := store.New(db).CreateCategory(context.Background(), store.CreateCategoryParams{
		Name:      name,
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	return c
}

// CreateTag inserts a tag.
func CreateTag(t *testing.T, db *sql.DB, value string) store.Tag {
	t.Helper()
	tag, err := store.New(db).CreateTag(context.Background(), store.CreateTagParams{
		Value:     value,
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateTag: %v", err)
	}
	return tag
}

// CreatePost inserts a post published at publishedAt; the zero time leaves
// it unpublished.
func CreatePost(t *testing.T, db *sql.DB, authorID, categoryID int64, title, slug string, publishedAt time.Time) store.Post {
	t.Helper()
	now := time.Now()
	p, err := store.New(db).CreatePost(context.Background(), store.CreatePostParams{
		AuthorID:    authorID,
		CategoryID:  categoryID,
		Title:       title,
		Slug:        slug,
		Summary:     "<p>Summary of " + title + "</p>",
		Content:     "<p>Content of " + title + "</p>",
		PublishedAt: sql.NullTime{Time: publishedAt, Valid: !publishedAt.IsZero()},
		CreatedAt:   now,
		ModifiedAt:  now,
	})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	return p
}

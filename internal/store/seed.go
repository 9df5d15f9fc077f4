// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/blango/internal/auth"
	"github.com/olegiv/blango/internal/model"
)

// DefaultCategories are created on a fresh seeded database.
var DefaultCategories = []string{"General", "Technology", "Travel"}

// DefaultTags are created on a fresh seeded database.
var DefaultTags = []string{"news", "howto", "opinion"}

// SeedOptions controls what Seed creates.
type SeedOptions struct {
	// Enabled creates the admin account and starter taxonomy.
	Enabled       bool
	AdminEmail    string
	AdminPassword string
}

// Seed stores the default site configuration rows and, when enabled,
// an admin user with starter categories and tags.
func Seed(ctx context.Context, db *sql.DB, opts SeedOptions) error {
	queries := New(db)
	now := time.Now()

	for _, d := range model.ConfigDefaults {
		if err := queries.InsertConfigIfMissing(ctx, UpsertConfigParams{
			Key:         d.Key,
			Value:       d.Value,
			Type:        d.Type,
			Description: d.Description,
			UpdatedAt:   now,
		}); err != nil {
			return fmt.Errorf("seeding config %q: %w", d.Key, err)
		}
	}

	if !opts.Enabled {
		return nil
	}

	email, err := auth.NormalizeEmail(opts.AdminEmail)
	if err != nil {
		return fmt.Errorf("admin email: %w", err)
	}

	_, err = queries.GetUserByEmail(ctx, email)
	if err == nil {
		slog.Info("admin user already exists, skipping seed")
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking for admin user: %w", err)
	}

	return RunInTx(ctx, db, func(q *Queries) error {
		passwordHash, err := auth.HashPassword(opts.AdminPassword)
		if err != nil {
			return fmt.Errorf("hashing password: %w", err)
		}

		username, err := auth.GenerateUsername(ctx, email, q.UsernameExists)
		if err != nil {
			return fmt.Errorf("generating username: %w", err)
		}

		user, err := q.CreateUser(ctx, CreateUserParams{
			Email:        email,
			Username:     username,
			FirstName:    "Site",
			LastName:     "Administrator",
			PasswordHash: passwordHash,
			Role:         model.RoleAdmin,
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil {
			return fmt.Errorf("creating admin user: %w", err)
		}

		for _, name := range DefaultCategories {
			if _, err := q.CreateCategory(ctx, CreateCategoryParams{Name: name, CreatedAt: now}); err != nil {
				return fmt.Errorf("creating category %q: %w", name, err)
			}
		}
		for _, value := range DefaultTags {
			if _, err := q.CreateTag(ctx, CreateTagParams{Value: value, CreatedAt: now}); err != nil {
				return fmt.Errorf("creating tag %q: %w", value, err)
			}
		}

		slog.Info("created default admin user", "id", user.ID, "email", user.Email)
		return nil
	})
}

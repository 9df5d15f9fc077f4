// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/blango/internal/store"
	tu "github.com/olegiv/blango/internal/testutil"
)

func TestTaxonomyService_Categories(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := NewTaxonomyService(env.db, env.widgets)

	_, err := svc.CreateCategory(ctx, "   ")
	_, isValidation := AsValidationErrors(err)
	assert.True(t, isValidation)
	_, err = svc.CreateCategory(ctx, strings.Repeat("c", 501))
	_, isValidation = AsValidationErrors(err)
	assert.True(t, isValidation)

	cat, err := svc.CreateCategory(ctx, " Go ")
	require.NoError(t, err)
	assert.Equal(t, "Go", cat.Name)

	renamed, err := svc.UpdateCategory(ctx, cat.ID, "Golang")
	require.NoError(t, err)
	assert.Equal(t, "Golang", renamed.Name)

	_, err = svc.UpdateCategory(ctx, 999, "Nope")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting a category takes its posts with it.
	author := tu.CreateUser(t, env.db, "author@example.com", "")
	tu.CreatePost(t, env.db, author.ID, cat.ID, "Gone", "gone", time.Now())
	require.NoError(t, svc.DeleteCategory(ctx, cat.ID))

	n, err := store.New(env.db).CountPosts(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.ErrorIs(t, svc.DeleteCategory(ctx, cat.ID), ErrNotFound)
	_, err = svc.Category(ctx, cat.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTaxonomyService_Tags(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := NewTaxonomyService(env.db, env.widgets)
	author := tu.CreateUser(t, env.db, "author@example.com", "")
	cat := tu.CreateCategory(t, env.db, "Go")
	post := tu.CreatePost(t, env.db, author.ID, cat.ID, "Tagged", "tagged", time.Now())

	tag, err := svc.CreateTag(ctx, "concurrency")
	require.NoError(t, err)
	require.NoError(t, store.New(env.db).AddTagToPost(ctx, store.AddTagToPostParams{PostID: post.ID, TagID: tag.ID}))

	tags, err := svc.Tags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, int64(1), tags[0].PostCount)

	updated, err := svc.UpdateTag(ctx, tag.ID, "channels")
	require.NoError(t, err)
	assert.Equal(t, "channels", updated.Value)

	require.NoError(t, svc.DeleteTag(ctx, tag.ID))
	left, err := store.New(env.db).GetTagsForPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, left, "tag links are removed with the tag")

	_, err = svc.Tag(ctx, tag.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.DeleteTag(ctx, tag.ID), ErrNotFound)
}

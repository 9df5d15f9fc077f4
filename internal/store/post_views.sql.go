// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import "context"

const incrementPostView = `-- name: IncrementPostView :one
INSERT INTO post_views (post_id, view_count) VALUES (?, 1)
ON CONFLICT(post_id) DO UPDATE SET view_count = view_count + 1
RETURNING view_count`

// IncrementPostView creates the counter on first view and bumps it
// otherwise, in a single statement. Returns the new count.
func (q *Queries) IncrementPostView(ctx context.Context, postID int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, incrementPostView, postID).Scan(&count)
	return count, err
}

const getPostView = `-- name: GetPostView :one
SELECT id, post_id, view_count FROM post_views WHERE post_id = ?`

func (q *Queries) GetPostView(ctx context.Context, postID int64) (PostView, error) {
	row := q.db.QueryRowContext(ctx, getPostView, postID)
	var i PostView
	err := row.Scan(&i.ID, &i.PostID, &i.ViewCount)
	return i, err
}

const sumPostViews = `-- name: SumPostViews :one
SELECT COALESCE(SUM(view_count), 0) FROM post_views`

func (q *Queries) SumPostViews(ctx context.Context) (int64, error) {
	var total int64
	err := q.db.QueryRowContext(ctx, sumPostViews).Scan(&total)
	return total, err
}

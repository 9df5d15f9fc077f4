// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const createTag = `-- name: CreateTag :one
INSERT INTO tags (value, created_at) VALUES (?, ?)
RETURNING id, value, created_at`

type CreateTagParams struct {
	Value     string
	CreatedAt time.Time
}

func (q *Queries) CreateTag(ctx context.Context, arg CreateTagParams) (Tag, error) {
	row := q.db.QueryRowContext(ctx, createTag, arg.Value, arg.CreatedAt.UTC())
	var i Tag
	err := row.Scan(&i.ID, &i.Value, &i.CreatedAt)
	return i, err
}

const getTagByID = `-- name: GetTagByID :one
SELECT id, value, created_at FROM tags WHERE id = ?`

func (q *Queries) GetTagByID(ctx context.Context, id int64) (Tag, error) {
	row := q.db.QueryRowContext(ctx, getTagByID, id)
	var i Tag
	err := row.Scan(&i.ID, &i.Value, &i.CreatedAt)
	return i, err
}

func (q *Queries) queryTags(ctx context.Context, query string, args ...interface{}) ([]Tag, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []Tag
	for rows.Next() {
		var i Tag
		if err := rows.Scan(&i.ID, &i.Value, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listTags = `-- name: ListTags :many
SELECT id, value, created_at FROM tags ORDER BY value, id`

func (q *Queries) ListTags(ctx context.Context) ([]Tag, error) {
	return q.queryTags(ctx, listTags)
}

const getTagsForPost = `-- name: GetTagsForPost :many
SELECT t.id, t.value, t.created_at
FROM tags t
INNER JOIN post_tags pt ON pt.tag_id = t.id
WHERE pt.post_id = ?
ORDER BY t.value, t.id`

func (q *Queries) GetTagsForPost(ctx context.Context, postID int64) ([]Tag, error) {
	return q.queryTags(ctx, getTagsForPost, postID)
}

const listTagsWithCount = `-- name: ListTagsWithCount :many
SELECT t.id, t.value, t.created_at, COUNT(pt.post_id) AS post_count
FROM tags t
LEFT JOIN post_tags pt ON pt.tag_id = t.id
GROUP BY t.id
ORDER BY t.value, t.id`

func (q *Queries) ListTagsWithCount(ctx context.Context) ([]TagWithCount, error) {
	rows, err := q.db.QueryContext(ctx, listTagsWithCount)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []TagWithCount
	for rows.Next() {
		var i TagWithCount
		if err := rows.Scan(&i.ID, &i.Value, &i.CreatedAt, &i.PostCount); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateTag = `-- name: UpdateTag :one
UPDATE tags SET value = ? WHERE id = ?
RETURNING id, value, created_at`

type UpdateTagParams struct {
	Value string
	ID    int64
}

func (q *Queries) UpdateTag(ctx context.Context, arg UpdateTagParams) (Tag, error) {
	row := q.db.QueryRowContext(ctx, updateTag, arg.Value, arg.ID)
	var i Tag
	err := row.Scan(&i.ID, &i.Value, &i.CreatedAt)
	return i, err
}

const deleteTag = `-- name: DeleteTag :exec
DELETE FROM tags WHERE id = ?`

func (q *Queries) DeleteTag(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteTag, id)
	return err
}

const addTagToPost = `-- name: AddTagToPost :exec
INSERT OR IGNORE INTO post_tags (post_id, tag_id) VALUES (?, ?)`

type AddTagToPostParams struct {
	PostID int64
	TagID  int64
}

func (q *Queries) AddTagToPost(ctx context.Context, arg AddTagToPostParams) error {
	_, err := q.db.ExecContext(ctx, addTagToPost, arg.PostID, arg.TagID)
	return err
}

const clearPostTags = `-- name: ClearPostTags :exec
DELETE FROM post_tags WHERE post_id = ?`

func (q *Queries) ClearPostTags(ctx context.Context, postID int64) error {
	_, err := q.db.ExecContext(ctx, clearPostTags, postID)
	return err
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const commentColumns = `id, creator_id, content, content_type, object_id, created_at, modified_at`

const commentRowSelect = `SELECT c.id, c.creator_id, c.content, c.content_type, c.object_id, c.created_at, c.modified_at,
       u.username, u.first_name, u.last_name
FROM comments c
INNER JOIN users u ON u.id = c.creator_id`

func scanCommentRow(row interface{ Scan(...interface{}) error }) (CommentRow, error) {
	var i CommentRow
	err := row.Scan(
		&i.ID,
		&i.CreatorID,
		&i.Content,
		&i.ContentType,
		&i.ObjectID,
		&i.CreatedAt,
		&i.ModifiedAt,
		&i.CreatorUsername,
		&i.CreatorFirstName,
		&i.CreatorLastName,
	)
	return i, err
}

func (q *Queries) queryCommentRows(ctx context.Context, query string, args ...interface{}) ([]CommentRow, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []CommentRow
	for rows.Next() {
		i, err := scanCommentRow(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createComment = `-- name: CreateComment :one
INSERT INTO comments (creator_id, content, content_type, object_id, created_at, modified_at)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING ` + commentColumns

type CreateCommentParams struct {
	CreatorID   int64
	Content     string
	ContentType string
	ObjectID    int64
	CreatedAt   time.Time
	ModifiedAt  time.Time
}

func (q *Queries) CreateComment(ctx context.Context, arg CreateCommentParams) (Comment, error) {
	row := q.db.QueryRowContext(ctx, createComment,
		arg.CreatorID,
		arg.Content,
		arg.ContentType,
		arg.ObjectID,
		arg.CreatedAt.UTC(),
		arg.ModifiedAt.UTC(),
	)
	var i Comment
	err := row.Scan(
		&i.ID,
		&i.CreatorID,
		&i.Content,
		&i.ContentType,
		&i.ObjectID,
		&i.CreatedAt,
		&i.ModifiedAt,
	)
	return i, err
}

const getCommentByID = `-- name: GetCommentByID :one
` + commentRowSelect + `
WHERE c.id = ?`

func (q *Queries) GetCommentByID(ctx context.Context, id int64) (CommentRow, error) {
	return scanCommentRow(q.db.QueryRowContext(ctx, getCommentByID, id))
}

const listCommentsForObject = `-- name: ListCommentsForObject :many
` + commentRowSelect + `
WHERE c.content_type = ? AND c.object_id = ?
ORDER BY c.created_at, c.id`

type ListCommentsForObjectParams struct {
	ContentType string
	ObjectID    int64
}

// ListCommentsForObject returns the comments attached to one target, oldest first.
func (q *Queries) ListCommentsForObject(ctx context.Context, arg ListCommentsForObjectParams) ([]CommentRow, error) {
	return q.queryCommentRows(ctx, listCommentsForObject, arg.ContentType, arg.ObjectID)
}

const listComments = `-- name: ListComments :many
` + commentRowSelect + `
ORDER BY c.created_at DESC, c.id DESC
LIMIT ? OFFSET ?`

type ListCommentsParams struct {
	Limit  int64
	Offset int64
}

func (q *Queries) ListComments(ctx context.Context, arg ListCommentsParams) ([]CommentRow, error) {
	return q.queryCommentRows(ctx, listComments, arg.Limit, arg.Offset)
}

const countComments = `-- name: CountComments :one
SELECT COUNT(*) FROM comments`

func (q *Queries) CountComments(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countComments).Scan(&count)
	return count, err
}

const deleteComment = `-- name: DeleteComment :exec
DELETE FROM comments WHERE id = ?`

func (q *Queries) DeleteComment(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteComment, id)
	return err
}

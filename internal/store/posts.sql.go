// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

const postColumns = `id, author_id, category_id, title, slug, summary, content, image, published_at, created_at, modified_at`

const postRowSelect = `SELECT p.id, p.author_id, p.category_id, p.title, p.slug, p.summary, p.content, p.image,
       p.published_at, p.created_at, p.modified_at,
       u.username, u.first_name, u.last_name, u.email, c.name, COALESCE(v.view_count, 0)
FROM posts p
INNER JOIN users u ON u.id = p.author_id
INNER JOIN categories c ON c.id = p.category_id
LEFT JOIN post_views v ON v.post_id = p.id`

const publishedFilter = `p.published_at IS NOT NULL AND p.published_at <= ?`

func scanPost(row interface{ Scan(...interface{}) error }) (Post, error) {
	var i Post
	err := row.Scan(
		&i.ID,
		&i.AuthorID,
		&i.CategoryID,
		&i.Title,
		&i.Slug,
		&i.Summary,
		&i.Content,
		&i.Image,
		&i.PublishedAt,
		&i.CreatedAt,
		&i.ModifiedAt,
	)
	return i, err
}

func scanPostRow(row interface{ Scan(...interface{}) error }) (PostRow, error) {
	var i PostRow
	err := row.Scan(
		&i.ID,
		&i.AuthorID,
		&i.CategoryID,
		&i.Title,
		&i.Slug,
		&i.Summary,
		&i.Content,
		&i.Image,
		&i.PublishedAt,
		&i.CreatedAt,
		&i.ModifiedAt,
		&i.AuthorUsername,
		&i.AuthorFirstName,
		&i.AuthorLastName,
		&i.AuthorEmail,
		&i.CategoryName,
		&i.ViewCount,
	)
	return i, err
}

func (q *Queries) queryPostRows(ctx context.Context, query string, args ...interface{}) ([]PostRow, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []PostRow
	for rows.Next() {
		i, err := scanPostRow(rows)
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

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func nullTimeUTC(t sql.NullTime) sql.NullTime {
	if t.Valid {
		t.Time = t.Time.UTC()
	}
	return t
}

const createPost = `-- name: CreatePost :one
INSERT INTO posts (author_id, category_id, title, slug, summary, content, image, published_at, created_at, modified_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + postColumns

type CreatePostParams struct {
	AuthorID    int64
	CategoryID  int64
	Title       string
	Slug        string
	Summary     string
	Content     string
	Image       string
	PublishedAt sql.NullTime
	CreatedAt   time.Time
	ModifiedAt  time.Time
}

func (q *Queries) CreatePost(ctx context.Context, arg CreatePostParams) (Post, error) {
	row := q.db.QueryRowContext(ctx, createPost,
		arg.AuthorID,
		arg.CategoryID,
		arg.Title,
		arg.Slug,
		arg.Summary,
		arg.Content,
		arg.Image,
		nullTimeUTC(arg.PublishedAt),
		arg.CreatedAt.UTC(),
		arg.ModifiedAt.UTC(),
	)
	return scanPost(row)
}

const updatePost = `-- name: UpdatePost :one
UPDATE posts
SET category_id = ?, title = ?, slug = ?, summary = ?, content = ?, image = ?, published_at = ?, modified_at = ?
WHERE id = ?
RETURNING ` + postColumns

type UpdatePostParams struct {
	CategoryID  int64
	Title       string
	Slug        string
	Summary     string
	Content     string
	Image       string
	PublishedAt sql.NullTime
	ModifiedAt  time.Time
	ID          int64
}

func (q *Queries) UpdatePost(ctx context.Context, arg UpdatePostParams) (Post, error) {
	row := q.db.QueryRowContext(ctx, updatePost,
		arg.CategoryID,
		arg.Title,
		arg.Slug,
		arg.Summary,
		arg.Content,
		arg.Image,
		nullTimeUTC(arg.PublishedAt),
		arg.ModifiedAt.UTC(),
		arg.ID,
	)
	return scanPost(row)
}

const getPostByID = `-- name: GetPostByID :one
` + postRowSelect + `
WHERE p.id = ?`

func (q *Queries) GetPostByID(ctx context.Context, id int64) (PostRow, error) {
	return scanPostRow(q.db.QueryRowContext(ctx, getPostByID, id))
}

const getPostBySlug = `-- name: GetPostBySlug :one
` + postRowSelect + `
WHERE p.slug = ?`

func (q *Queries) GetPostBySlug(ctx context.Context, slug string) (PostRow, error) {
	return scanPostRow(q.db.QueryRowContext(ctx, getPostBySlug, slug))
}

const getPostByIDAndAuthor = `-- name: GetPostByIDAndAuthor :one
` + postRowSelect + `
WHERE p.id = ? AND p.author_id = ?`

type GetPostByIDAndAuthorParams struct {
	ID       int64
	AuthorID int64
}

func (q *Queries) GetPostByIDAndAuthor(ctx context.Context, arg GetPostByIDAndAuthorParams) (PostRow, error) {
	return scanPostRow(q.db.QueryRowContext(ctx, getPostByIDAndAuthor, arg.ID, arg.AuthorID))
}

const slugExists = `-- name: SlugExists :one
SELECT EXISTS(SELECT 1 FROM posts WHERE slug = ? AND id != ?)`

type SlugExistsParams struct {
	Slug      string
	ExcludeID int64
}

// SlugExists reports whether another post (not ExcludeID) already uses Slug.
func (q *Queries) SlugExists(ctx context.Context, arg SlugExistsParams) (bool, error) {
	var exists bool
	err := q.db.QueryRowContext(ctx, slugExists, arg.Slug, arg.ExcludeID).Scan(&exists)
	return exists, err
}

const listPublishedPosts = `-- name: ListPublishedPosts :many
` + postRowSelect + `
WHERE ` + publishedFilter + `
ORDER BY p.published_at DESC, p.id DESC
LIMIT ? OFFSET ?`

type ListPublishedPostsParams struct {
	Now    time.Time
	Limit  int64
	Offset int64
}

func (q *Queries) ListPublishedPosts(ctx context.Context, arg ListPublishedPostsParams) ([]PostRow, error) {
	return q.queryPostRows(ctx, listPublishedPosts, arg.Now.UTC(), arg.Limit, arg.Offset)
}

const countPublishedPosts = `-- name: CountPublishedPosts :one
SELECT COUNT(*) FROM posts p WHERE ` + publishedFilter

func (q *Queries) CountPublishedPosts(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countPublishedPosts, now.UTC()).Scan(&count)
	return count, err
}

const listPostsByCategory = `-- name: ListPostsByCategory :many
` + postRowSelect + `
WHERE p.category_id = ? AND ` + publishedFilter + `
ORDER BY p.published_at DESC, p.id DESC
LIMIT ? OFFSET ?`

type ListPostsByCategoryParams struct {
	CategoryID int64
	Now        time.Time
	Limit      int64
	Offset     int64
}

func (q *Queries) ListPostsByCategory(ctx context.Context, arg ListPostsByCategoryParams) ([]PostRow, error) {
	return q.queryPostRows(ctx, listPostsByCategory, arg.CategoryID, arg.Now.UTC(), arg.Limit, arg.Offset)
}

const countPostsByCategory = `-- name: CountPostsByCategory :one
SELECT COUNT(*) FROM posts p WHERE p.category_id = ? AND ` + publishedFilter

type CountPostsByCategoryParams struct {
	CategoryID int64
	Now        time.Time
}

func (q *Queries) CountPostsByCategory(ctx context.Context, arg CountPostsByCategoryParams) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countPostsByCategory, arg.CategoryID, arg.Now.UTC()).Scan(&count)
	return count, err
}

const listPostsByTag = `-- name: ListPostsByTag :many
` + postRowSelect + `
INNER JOIN post_tags pt ON pt.post_id = p.id
WHERE pt.tag_id = ? AND ` + publishedFilter + `
ORDER BY p.published_at DESC, p.id DESC
LIMIT ? OFFSET ?`

type ListPostsByTagParams struct {
	TagID  int64
	Now    time.Time
	Limit  int64
	Offset int64
}

func (q *Queries) ListPostsByTag(ctx context.Context, arg ListPostsByTagParams) ([]PostRow, error) {
	return q.queryPostRows(ctx, listPostsByTag, arg.TagID, arg.Now.UTC(), arg.Limit, arg.Offset)
}

const countPostsByTag = `-- name: CountPostsByTag :one
SELECT COUNT(*) FROM posts p
INNER JOIN post_tags pt ON pt.post_id = p.id
WHERE pt.tag_id = ? AND ` + publishedFilter

type CountPostsByTagParams struct {
	TagID int64
	Now   time.Time
}

func (q *Queries) CountPostsByTag(ctx context.Context, arg CountPostsByTagParams) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countPostsByTag, arg.TagID, arg.Now.UTC()).Scan(&count)
	return count, err
}

const listPostsByAuthor = `-- name: ListPostsByAuthor :many
` + postRowSelect + `
WHERE p.author_id = ?
ORDER BY p.created_at DESC, p.id DESC`

// ListPostsByAuthor returns every post of an author, scheduled ones included.
func (q *Queries) ListPostsByAuthor(ctx context.Context, authorID int64) ([]PostRow, error) {
	return q.queryPostRows(ctx, listPostsByAuthor, authorID)
}

const listRecentPosts = `-- name: ListRecentPosts :many
` + postRowSelect + `
WHERE p.id != ? AND ` + publishedFilter + `
ORDER BY p.published_at DESC, p.id DESC
LIMIT ?`

type ListRecentPostsParams struct {
	ExcludeID int64
	Now       time.Time
	Limit     int64
}

func (q *Queries) ListRecentPosts(ctx context.Context, arg ListRecentPostsParams) ([]PostRow, error) {
	return q.queryPostRows(ctx, listRecentPosts, arg.ExcludeID, arg.Now.UTC(), arg.Limit)
}

const listMostViewedPosts = `-- name: ListMostViewedPosts :many
` + postRowSelect + `
WHERE v.view_count IS NOT NULL AND p.id != ? AND ` + publishedFilter + `
ORDER BY v.view_count DESC, p.id DESC
LIMIT ?`

type ListMostViewedPostsParams struct {
	ExcludeID int64
	Now       time.Time
	Limit     int64
}

// ListMostViewedPosts returns posts that have a view counter, highest first.
func (q *Queries) ListMostViewedPosts(ctx context.Context, arg ListMostViewedPostsParams) ([]PostRow, error) {
	return q.queryPostRows(ctx, listMostViewedPosts, arg.ExcludeID, arg.Now.UTC(), arg.Limit)
}

const searchPostsByContent = `-- name: SearchPostsByContent :many
` + postRowSelect + `
WHERE p.content LIKE '%' || ? || '%' ESCAPE '\' AND ` + publishedFilter + `
ORDER BY p.published_at DESC, p.id DESC
LIMIT ?`

type SearchPostsParams struct {
	Query string
	Now   time.Time
	Limit int64
}

// SearchPostsByContent matches the query as a case-insensitive substring
// of the post content.
func (q *Queries) SearchPostsByContent(ctx context.Context, arg SearchPostsParams) ([]PostRow, error) {
	return q.queryPostRows(ctx, searchPostsByContent, escapeLike(arg.Query), arg.Now.UTC(), arg.Limit)
}

const searchPostsByTitle = `-- name: SearchPostsByTitle :many
` + postRowSelect + `
WHERE p.title LIKE '%' || ? || '%' ESCAPE '\' AND ` + publishedFilter + `
ORDER BY p.published_at DESC, p.id DESC
LIMIT ?`

// SearchPostsByTitle matches the query as a case-insensitive substring
// of the post title.
func (q *Queries) SearchPostsByTitle(ctx context.Context, arg SearchPostsParams) ([]PostRow, error) {
	return q.queryPostRows(ctx, searchPostsByTitle, escapeLike(arg.Query), arg.Now.UTC(), arg.Limit)
}

const listPostsPublishedBetween = `-- name: ListPostsPublishedBetween :many
` + postRowSelect + `
WHERE p.published_at IS NOT NULL AND p.published_at > ? AND p.published_at <= ? AND p.published_at > p.created_at
ORDER BY p.published_at, p.id`

type ListPostsPublishedBetweenParams struct {
	After time.Time
	UpTo  time.Time
}

// ListPostsPublishedBetween returns scheduled posts whose publication time
// falls in (After, UpTo]. Posts published at creation time are excluded.
func (q *Queries) ListPostsPublishedBetween(ctx context.Context, arg ListPostsPublishedBetweenParams) ([]PostRow, error) {
	return q.queryPostRows(ctx, listPostsPublishedBetween, arg.After.UTC(), arg.UpTo.UTC())
}

const deletePost = `-- name: DeletePost :exec
DELETE FROM posts WHERE id = ?`

func (q *Queries) DeletePost(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deletePost, id)
	return err
}

const countPosts = `-- name: CountPosts :one
SELECT COUNT(*) FROM posts`

func (q *Queries) CountPosts(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countPosts).Scan(&count)
	return count, err
}

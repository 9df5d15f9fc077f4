// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const userColumns = `id, email, username, first_name, last_name, password_hash, role, is_active, activation_key, last_login_at, created_at, updated_at`

func scanUser(row interface{ Scan(...interface{}) error }) (User, error) {
	var i User
	err := row.Scan(
		&i.ID,
		&i.Email,
		&i.Username,
		&i.FirstName,
		&i.LastName,
		&i.PasswordHash,
		&i.Role,
		&i.IsActive,
		&i.ActivationKey,
		&i.LastLoginAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createUser = `-- name: CreateUser :one
INSERT INTO users (email, username, first_name, last_name, password_hash, role, is_active, activation_key, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + userColumns

type CreateUserParams struct {
	Email         string
	Username      string
	FirstName     string
	LastName      string
	PasswordHash  string
	Role          string
	IsActive      bool
	ActivationKey sql.NullString
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRowContext(ctx, createUser,
		arg.Email,
		arg.Username,
		arg.FirstName,
		arg.LastName,
		arg.PasswordHash,
		arg.Role,
		arg.IsActive,
		arg.ActivationKey,
		arg.CreatedAt.UTC(),
		arg.UpdatedAt.UTC(),
	)
	return scanUser(row)
}

const getUserByID = `-- name: GetUserByID :one
SELECT ` + userColumns + ` FROM users WHERE id = ?`

func (q *Queries) GetUserByID(ctx context.Context, id int64) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByID, id))
}

const getUserByEmail = `-- name: GetUserByEmail :one
SELECT ` + userColumns + ` FROM users WHERE email = lower(?) COLLATE NOCASE`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByEmail, email))
}

const getUserByActivationKey = `-- name: GetUserByActivationKey :one
SELECT ` + userColumns + ` FROM users WHERE activation_key = ?`

func (q *Queries) GetUserByActivationKey(ctx context.Context, key string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByActivationKey, key))
}

const emailExists = `-- name: EmailExists :one
SELECT EXISTS(SELECT 1 FROM users WHERE email = lower(?) COLLATE NOCASE)`

func (q *Queries) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := q.db.QueryRowContext(ctx, emailExists, email).Scan(&exists)
	return exists, err
}

const usernameExists = `-- name: UsernameExists :one
SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)`

func (q *Queries) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := q.db.QueryRowContext(ctx, usernameExists, username).Scan(&exists)
	return exists, err
}

const activateUser = `-- name: ActivateUser :exec
UPDATE users SET is_active = 1, activation_key = NULL, updated_at = ? WHERE id = ?`

type ActivateUserParams struct {
	UpdatedAt time.Time
	ID        int64
}

func (q *Queries) ActivateUser(ctx context.Context, arg ActivateUserParams) error {
	_, err := q.db.ExecContext(ctx, activateUser, arg.UpdatedAt.UTC(), arg.ID)
	return err
}

const updateUserPassword = `-- name: UpdateUserPassword :exec
UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`

type UpdateUserPasswordParams struct {
	PasswordHash string
	UpdatedAt    time.Time
	ID           int64
}

func (q *Queries) UpdateUserPassword(ctx context.Context, arg UpdateUserPasswordParams) error {
	_, err := q.db.ExecContext(ctx, updateUserPassword, arg.PasswordHash, arg.UpdatedAt.UTC(), arg.ID)
	return err
}

const updateUserNames = `-- name: UpdateUserNames :exec
UPDATE users SET first_name = ?, last_name = ?, updated_at = ? WHERE id = ?`

type UpdateUserNamesParams struct {
	FirstName string
	LastName  string
	UpdatedAt time.Time
	ID        int64
}

func (q *Queries) UpdateUserNames(ctx context.Context, arg UpdateUserNamesParams) error {
	_, err := q.db.ExecContext(ctx, updateUserNames, arg.FirstName, arg.LastName, arg.UpdatedAt.UTC(), arg.ID)
	return err
}

const updateUserRole = `-- name: UpdateUserRole :exec
UPDATE users SET role = ?, updated_at = ? WHERE id = ?`

type UpdateUserRoleParams struct {
	Role      string
	UpdatedAt time.Time
	ID        int64
}

func (q *Queries) UpdateUserRole(ctx context.Context, arg UpdateUserRoleParams) error {
	_, err := q.db.ExecContext(ctx, updateUserRole, arg.Role, arg.UpdatedAt.UTC(), arg.ID)
	return err
}

const updateUserLastLogin = `-- name: UpdateUserLastLogin :exec
UPDATE users SET last_login_at = ? WHERE id = ?`

type UpdateUserLastLoginParams struct {
	LastLoginAt sql.NullTime
	ID          int64
}

func (q *Queries) UpdateUserLastLogin(ctx context.Context, arg UpdateUserLastLoginParams) error {
	if arg.LastLoginAt.Valid {
		arg.LastLoginAt.Time = arg.LastLoginAt.Time.UTC()
	}
	_, err := q.db.ExecContext(ctx, updateUserLastLogin, arg.LastLoginAt, arg.ID)
	return err
}

const listUsers = `-- name: ListUsers :many
SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`

type ListUsersParams struct {
	Limit  int64
	Offset int64
}

func (q *Queries) ListUsers(ctx context.Context, arg ListUsersParams) ([]User, error) {
	rows, err := q.db.QueryContext(ctx, listUsers, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []User
	for rows.Next() {
		i, err := scanUser(rows)
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

const countUsers = `-- name: CountUsers :one
SELECT COUNT(*) FROM users`

func (q *Queries) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countUsers).Scan(&count)
	return count, err
}

const deleteUser = `-- name: DeleteUser :exec
DELETE FROM users WHERE id = ?`

func (q *Queries) DeleteUser(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteUser, id)
	return err
}

const deleteStaleInactiveUsers = `-- name: DeleteStaleInactiveUsers :execrows
DELETE FROM users
WHERE is_active = 0
  AND activation_key IS NOT NULL
  AND created_at < ?
  AND NOT EXISTS (SELECT 1 FROM posts WHERE posts.author_id = users.id)`

func (q *Queries) DeleteStaleInactiveUsers(ctx context.Context, createdBefore time.Time) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteStaleInactiveUsers, createdBefore.UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const getConfigByKey = `-- name: GetConfigByKey :one
SELECT key, value, type, description, updated_at FROM config WHERE key = ?`

func (q *Queries) GetConfigByKey(ctx context.Context, key string) (Config, error) {
	row := q.db.QueryRowContext(ctx, getConfigByKey, key)
	var i Config
	err := row.Scan(&i.Key, &i.Value, &i.Type, &i.Description, &i.UpdatedAt)
	return i, err
}

const listConfig = `-- name: ListConfig :many
SELECT key, value, type, description, updated_at FROM config ORDER BY key`

func (q *Queries) ListConfig(ctx context.Context) ([]Config, error) {
	rows, err := q.db.QueryContext(ctx, listConfig)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []Config
	for rows.Next() {
		var i Config
		if err := rows.Scan(&i.Key, &i.Value, &i.Type, &i.Description, &i.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertConfig = `-- name: UpsertConfig :exec
INSERT INTO config (key, value, type, description, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

type UpsertConfigParams struct {
	Key         string
	Value       string
	Type        string
	Description string
	UpdatedAt   time.Time
}

func (q *Queries) UpsertConfig(ctx context.Context, arg UpsertConfigParams) error {
	_, err := q.db.ExecContext(ctx, upsertConfig, arg.Key, arg.Value, arg.Type, arg.Description, arg.UpdatedAt.UTC())
	return err
}

const insertConfigIfMissing = `-- name: InsertConfigIfMissing :exec
INSERT OR IGNORE INTO config (key, value, type, description, updated_at)
VALUES (?, ?, ?, ?, ?)`

func (q *Queries) InsertConfigIfMissing(ctx context.Context, arg UpsertConfigParams) error {
	_, err := q.db.ExecContext(ctx, insertConfigIfMissing, arg.Key, arg.Value, arg.Type, arg.Description, arg.UpdatedAt.UTC())
	return err
}

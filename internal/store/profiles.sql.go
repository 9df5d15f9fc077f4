// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
)

const getAuthorProfileByUserID = `-- name: GetAuthorProfileByUserID :one
SELECT id, user_id, bio, profile_image, date_of_birth, gender
FROM author_profiles WHERE user_id = ?`

func (q *Queries) GetAuthorProfileByUserID(ctx context.Context, userID int64) (AuthorProfile, error) {
	row := q.db.QueryRowContext(ctx, getAuthorProfileByUserID, userID)
	var i AuthorProfile
	err := row.Scan(&i.ID, &i.UserID, &i.Bio, &i.ProfileImage, &i.DateOfBirth, &i.Gender)
	return i, err
}

const upsertAuthorProfile = `-- name: UpsertAuthorProfile :one
INSERT INTO author_profiles (user_id, bio, profile_image, date_of_birth, gender)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET
    bio = excluded.bio,
    profile_image = excluded.profile_image,
    date_of_birth = excluded.date_of_birth,
    gender = excluded.gender
RETURNING id, user_id, bio, profile_image, date_of_birth, gender`

type UpsertAuthorProfileParams struct {
	UserID       int64
	Bio          string
	ProfileImage string
	DateOfBirth  sql.NullTime
	Gender       string
}

// UpsertAuthorProfile creates the profile of a user or replaces its fields.
func (q *Queries) UpsertAuthorProfile(ctx context.Context, arg UpsertAuthorProfileParams) (AuthorProfile, error) {
	row := q.db.QueryRowContext(ctx, upsertAuthorProfile,
		arg.UserID,
		arg.Bio,
		arg.ProfileImage,
		nullTimeUTC(arg.DateOfBirth),
		arg.Gender,
	)
	var i AuthorProfile
	err := row.Scan(&i.ID, &i.UserID, &i.Bio, &i.ProfileImage, &i.DateOfBirth, &i.Gender)
	return i, err
}

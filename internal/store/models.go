// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"database/sql"
	"strings"
	"time"
)

type User struct {
	ID            int64          `json:"id"`
	Email         string         `json:"email"`
	Username      string         `json:"username"`
	FirstName     string         `json:"first_name"`
	LastName      string         `json:"last_name"`
	PasswordHash  string         `json:"-"`
	Role          string         `json:"role"`
	IsActive      bool           `json:"is_active"`
	ActivationKey sql.NullString `json:"-"`
	LastLoginAt   sql.NullTime   `json:"last_login_at"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// FullName returns "first last" when both names are set, otherwise "".
func (u User) FullName() string {
	if u.FirstName == "" || u.LastName == "" {
		return ""
	}
	return u.FirstName + " " + u.LastName
}

// DisplayName returns the full name, falling back to the username.
func (u User) DisplayName() string {
	if name := u.FullName(); name != "" {
		return name
	}
	return u.Username
}

type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type CategoryWithCount struct {
	Category
	PostCount int64 `json:"post_count"`
}

type Tag struct {
	ID        int64     `json:"id"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
}

type TagWithCount struct {
	Tag
	PostCount int64 `json:"post_count"`
}

type Post struct {
	ID          int64        `json:"id"`
	AuthorID    int64        `json:"author_id"`
	CategoryID  int64        `json:"category_id"`
	Title       string       `json:"title"`
	Slug        string       `json:"slug"`
	Summary     string       `json:"summary"`
	Content     string       `json:"content"`
	Image       string       `json:"image"`
	PublishedAt sql.NullTime `json:"published_at"`
	CreatedAt   time.Time    `json:"created_at"`
	ModifiedAt  time.Time    `json:"modified_at"`
}

// IsPublishedAt reports whether the post is visible at t.
func (p Post) IsPublishedAt(t time.Time) bool {
	return p.PublishedAt.Valid && !p.PublishedAt.Time.After(t)
}

// PostRow is a post joined with its author, category and view counter,
// the shape every listing and detail page renders.
type PostRow struct {
	Post
	AuthorUsername  string `json:"author_username"`
	AuthorFirstName string `json:"author_first_name"`
	AuthorLastName  string `json:"author_last_name"`
	AuthorEmail     string `json:"-"`
	CategoryName    string `json:"category_name"`
	ViewCount       int64  `json:"view_count"`
}

// Author rebuilds the author user from the joined columns.
func (r PostRow) Author() User {
	return User{
		ID:        r.AuthorID,
		Username:  r.AuthorUsername,
		FirstName: r.AuthorFirstName,
		LastName:  r.AuthorLastName,
		Email:     r.AuthorEmail,
	}
}

type PostView struct {
	ID        int64 `json:"id"`
	PostID    int64 `json:"post_id"`
	ViewCount int64 `json:"view_count"`
}

type Comment struct {
	ID          int64     `json:"id"`
	CreatorID   int64     `json:"creator_id"`
	Content     string    `json:"content"`
	ContentType string    `json:"content_type"`
	ObjectID    int64     `json:"object_id"`
	CreatedAt   time.Time `json:"created_at"`
	ModifiedAt  time.Time `json:"modified_at"`
}

// CommentRow is a comment joined with its creator.
type CommentRow struct {
	Comment
	CreatorUsername  string `json:"creator_username"`
	CreatorFirstName string `json:"creator_first_name"`
	CreatorLastName  string `json:"creator_last_name"`
}

// CreatorName returns the display name of the comment creator.
func (c CommentRow) CreatorName() string {
	if c.CreatorFirstName != "" && c.CreatorLastName != "" {
		return strings.TrimSpace(c.CreatorFirstName + " " + c.CreatorLastName)
	}
	return c.CreatorUsername
}

type AuthorProfile struct {
	ID           int64        `json:"id"`
	UserID       int64        `json:"user_id"`
	Bio          string       `json:"bio"`
	ProfileImage string       `json:"profile_image"`
	DateOfBirth  sql.NullTime `json:"date_of_birth"`
	Gender       string       `json:"gender"`
}

type Config struct {
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Event struct {
	ID         int64         `json:"id"`
	Level      string        `json:"level"`
	Category   string        `json:"category"`
	Message    string        `json:"message"`
	UserID     sql.NullInt64 `json:"user_id"`
	IpAddress  string        `json:"ip_address"`
	RequestUrl string        `json:"request_url"`
	Metadata   string        `json:"metadata"`
	CreatedAt  time.Time     `json:"created_at"`
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the enumerations and small domain rules shared by
// the store, services and handlers: roles, genders, comment targets,
// event levels and site configuration keys.
package model

// User roles.
const (
	RoleAdmin  = "admin"
	RoleAuthor = "author"
)

// ValidRoles lists every role a user can hold.
var ValidRoles = []string{RoleAdmin, RoleAuthor}

// IsValidRole reports whether role is a known role.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

// Commentable content types. A comment row points at its target through
// (content_type, object_id).
const (
	ContentTypePost = "post"
)

// IsCommentable reports whether comments may be attached to contentType.
func IsCommentable(contentType string) bool {
	return contentType == ContentTypePost
}

// Field limits.
const (
	MaxTitleLength       = 1500
	MaxNameLength        = 500
	MaxCommentLength     = 5000
	MaxSearchQueryLength = 100
	MaxBioLength         = 5000
)

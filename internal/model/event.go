// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Event levels
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Event categories
const (
	EventCategoryAuth    = "auth"
	EventCategoryPost    = "post"
	EventCategoryComment = "comment"
	EventCategoryUser    = "user"
	EventCategoryConfig  = "config"
	EventCategorySystem  = "system"
	EventCategoryCache   = "cache"
)

// Domain event names published to the broker.
const (
	TopicPostPublished  = "post.published"
	TopicPostUpdated    = "post.updated"
	TopicPostDeleted    = "post.deleted"
	TopicCommentCreated = "comment.created"
	TopicUserRegistered = "user.registered"
)

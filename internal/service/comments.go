// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/olegiv/blango/internal/broker"
	"github.com/olegiv/blango/internal/metrics"
	"github.com/olegiv/blango/internal/model"
	"github.com/olegiv/blango/internal/store"
)

// CommentService attaches comments to commentable objects through the
// (content_type, object_id) generic relation.
type CommentService struct {
	queries    *store.Queries
	siteConfig *SiteConfigService
	events     emitter
	metrics    *metrics.Metrics
	now        Clock
}

// NewCommentService creates a CommentService. publisher and m may be nil.
func NewCommentService(db *sql.DB, siteConfig *SiteConfigService, publisher broker.Publisher, m *metrics.Metrics) *CommentService {
	return &CommentService{
		queries:    store.New(db),
		siteConfig: siteConfig,
		events:     emitter{publisher: publisher, metrics: m},
		metrics:    m,
		now:        defaultClock,
	}
}

// Add stores a comment by creator on the target object. Only active users
// may comment; the creator always comes from the session, never the form.
func (s *CommentService) Add(ctx context.Context, creator store.User, contentType string, objectID int64, content string) (store.Comment, error) {
	if !creator.IsActive {
		return store.Comment{}, ErrAccountInactive
	}
	if s.siteConfig != nil && !s.siteConfig.Settings(ctx).AllowComments {
		return store.Comment{}, ErrCommentsDisabled
	}
	if !model.IsCommentable(contentType) {
		return store.Comment{}, ErrNotCommentable
	}
	if err := s.targetExists(ctx, contentType, objectID); err != nil {
		return store.Comment{}, err
	}

	content = strings.TrimSpace(content)
	errs := ValidationErrors{}
	switch {
	case content == "":
		errs.Add("content", "This field is required.")
	case utf8.RuneCountInString(content) > model.MaxCommentLength:
		errs.Add("content", fmt.Sprintf("Ensure this value has at most %d characters.", model.MaxCommentLength))
	}
	if err := errs.Err(); err != nil {
		return store.Comment{}, err
	}

	now := s.now()
	c, err := s.queries.CreateComment(ctx, store.CreateCommentParams{
		CreatorID:   creator.ID,
		Content:     content,
		ContentType: contentType,
		ObjectID:    objectID,
		CreatedAt:   now,
		ModifiedAt:  now,
	})
	if err != nil {
		return store.Comment{}, fmt.Errorf("creating comment: %w", err)
	}

	if s.metrics != nil {
		s.metrics.CommentsCreated.Inc()
	}
	s.events.emit(ctx, broker.NewEvent(model.TopicCommentCreated, strconv.FormatInt(objectID, 10), map[string]any{
		"id":           c.ID,
		"content_type": contentType,
		"object_id":    objectID,
		"creator_id":   creator.ID,
	}))
	return c, nil
}

func (s *CommentService) targetExists(ctx context.Context, contentType string, objectID int64) error {
	switch contentType {
	case model.ContentTypePost:
		_, err := s.queries.GetPostByID(ctx, objectID)
		return notFound(err)
	default:
		return ErrNotCommentable
	}
}

// For returns the comments of an object, oldest first.
func (s *CommentService) For(ctx context.Context, contentType string, objectID int64) ([]store.CommentRow, error) {
	return s.queries.ListCommentsForObject(ctx, store.ListCommentsForObjectParams{
		ContentType: contentType,
		ObjectID:    objectID,
	})
}

// List returns a page of all comments, newest first, for moderation.
func (s *CommentService) List(ctx context.Context, page, perPage int) ([]store.CommentRow, Pagination, error) {
	total, err := s.queries.CountComments(ctx)
	if err != nil {
		return nil, Pagination{}, err
	}
	p := NewPagination(page, perPage, total)
	rows, err := s.queries.ListComments(ctx, store.ListCommentsParams{Limit: p.Limit(), Offset: p.Offset()})
	return rows, p, err
}

// Delete removes a comment.
func (s *CommentService) Delete(ctx context.Context, id int64) error {
	if _, err := s.queries.GetCommentByID(ctx, id); err != nil {
		return notFound(err)
	}
	return s.queries.DeleteComment(ctx, id)
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/olegiv/blango/internal/broker"
	"github.com/olegiv/blango/internal/imaging"
	"github.com/olegiv/blango/internal/metrics"
	"github.com/olegiv/blango/internal/model"
	"github.com/olegiv/blango/internal/storage"
	"github.com/olegiv/blango/internal/store"
	"github.com/olegiv/blango/internal/util"
)

// maxSlugAttempts bounds the suffix search for a free slug.
const maxSlugAttempts = 1000

// PostInput is the submitted create/edit post form.
type PostInput struct {
	Title       string
	Slug        string
	CategoryID  int64
	Summary     string
	Content     string
	TagIDs      []int64
	PublishedAt sql.NullTime // invalid means now
	Image       *Upload
}

// PostCard is a post with its tags, as listed on index pages.
type PostCard struct {
	store.PostRow
	Tags []store.Tag
}

// PostPage is one page of post cards.
type PostPage struct {
	Posts      []PostCard
	Pagination Pagination
}

// PostService implements listing, authoring and view counting of posts.
type PostService struct {
	db      *sql.DB
	queries *store.Queries
	media   *MediaService
	widgets *WidgetService
	events  emitter
	metrics *metrics.Metrics
	now     Clock
}

// NewPostService creates a PostService. publisher and m may be nil.
func NewPostService(db *sql.DB, media *MediaService, widgets *WidgetService, publisher broker.Publisher, m *metrics.Metrics) *PostService {
	return &PostService{
		db:      db,
		queries: store.New(db),
		media:   media,
		widgets: widgets,
		events:  emitter{publisher: publisher, metrics: m},
		metrics: m,
		now:     defaultClock,
	}
}

// Published returns a page of posts visible now, newest first.
func (s *PostService) Published(ctx context.Context, page, perPage int) (PostPage, error) {
	now := s.now()
	total, err := s.queries.CountPublishedPosts(ctx, now)
	if err != nil {
		return PostPage{}, fmt.Errorf("counting posts: %w", err)
	}
	p := NewPagination(page, perPage, total)
	rows, err := s.queries.ListPublishedPosts(ctx, store.ListPublishedPostsParams{
		Now: now, Limit: p.Limit(), Offset: p.Offset(),
	})
	if err != nil {
		return PostPage{}, fmt.Errorf("listing posts: %w", err)
	}
	return PostPage{Posts: s.withTags(ctx, rows), Pagination: p}, nil
}

// ByCategory returns the category and a page of its published posts.
func (s *PostService) ByCategory(ctx context.Context, categoryID int64, page, perPage int) (store.Category, PostPage, error) {
	cat, err := s.queries.GetCategoryByID(ctx, categoryID)
	if err != nil {
		return store.Category{}, PostPage{}, notFound(err)
	}

	now := s.now()
	total, err := s.queries.CountPostsByCategory(ctx, store.CountPostsByCategoryParams{CategoryID: categoryID, Now: now})
	if err != nil {
		return cat, PostPage{}, err
	}
	p := NewPagination(page, perPage, total)
	rows, err := s.queries.ListPostsByCategory(ctx, store.ListPostsByCategoryParams{
		CategoryID: categoryID, Now: now, Limit: p.Limit(), Offset: p.Offset(),
	})
	if err != nil {
		return cat, PostPage{}, err
	}
	return cat, PostPage{Posts: s.withTags(ctx, rows), Pagination: p}, nil
}

// ByTag returns the tag and a page of its published posts.
func (s *PostService) ByTag(ctx context.Context, tagID int64, page, perPage int) (store.Tag, PostPage, error) {
	tag, err := s.queries.GetTagByID(ctx, tagID)
	if err != nil {
		return store.Tag{}, PostPage{}, notFound(err)
	}

	now := s.now()
	total, err := s.queries.CountPostsByTag(ctx, store.CountPostsByTagParams{TagID: tagID, Now: now})
	if err != nil {
		return tag, PostPage{}, err
	}
	p := NewPagination(page, perPage, total)
	rows, err := s.queries.ListPostsByTag(ctx, store.ListPostsByTagParams{
		TagID: tagID, Now: now, Limit: p.Limit(), Offset: p.Offset(),
	})
	if err != nil {
		return tag, PostPage{}, err
	}
	return tag, PostPage{Posts: s.withTags(ctx, rows), Pagination: p}, nil
}

// BySlug returns a post with its tags regardless of publication state; the
// detail page is reachable by anyone who knows the slug.
func (s *PostService) BySlug(ctx context.Context, slug string) (PostCard, error) {
	row, err := s.queries.GetPostBySlug(ctx, slug)
	if err != nil {
		return PostCard{}, notFound(err)
	}
	return s.withTags(ctx, []store.PostRow{row})[0], nil
}

// OwnPost returns a post only when it belongs to authorID.
func (s *PostService) OwnPost(ctx context.Context, authorID, postID int64) (PostCard, error) {
	row, err := s.queries.GetPostByIDAndAuthor(ctx, store.GetPostByIDAndAuthorParams{ID: postID, AuthorID: authorID})
	if err != nil {
		return PostCard{}, notFound(err)
	}
	return s.withTags(ctx, []store.PostRow{row})[0], nil
}

// RecordView increments the view counter of a post and returns the new
// count. The increment is a single upsert, so concurrent views are never
// lost.
func (s *PostService) RecordView(ctx context.Context, postID int64) (int64, error) {
	n, err := s.queries.IncrementPostView(ctx, postID)
	if err != nil {
		return 0, fmt.Errorf("incrementing view counter: %w", err)
	}
	if s.metrics != nil {
		s.metrics.PostViews.Inc()
	}
	return n, nil
}

// Categories and Tags feed the post form's select boxes.
func (s *PostService) Categories(ctx context.Context) ([]store.Category, error) {
	return s.queries.ListCategories(ctx)
}

func (s *PostService) Tags(ctx context.Context) ([]store.Tag, error) {
	return s.queries.ListTags(ctx)
}

// Create validates in and stores a new post authored by authorID.
func (s *PostService) Create(ctx context.Context, authorID int64, in PostInput) (store.Post, error) {
	now := s.now()
	in.normalize()
	if err := s.validate(ctx, &in, 0); err != nil {
		return store.Post{}, err
	}

	imageKey, err := s.saveImage(ctx, in.Image)
	if err != nil {
		return store.Post{}, err
	}

	publishedAt := in.PublishedAt
	if !publishedAt.Valid {
		publishedAt = sql.NullTime{Time: now, Valid: true}
	}

	var post store.Post
	err = store.RunInTx(ctx, s.db, func(q *store.Queries) error {
		var err error
		post, err = q.CreatePost(ctx, store.CreatePostParams{
			AuthorID:    authorID,
			CategoryID:  in.CategoryID,
			Title:       in.Title,
			Slug:        in.Slug,
			Summary:     in.Summary,
			Content:     in.Content,
			Image:       imageKey,
			PublishedAt: publishedAt,
			CreatedAt:   now,
			ModifiedAt:  now,
		})
		if err != nil {
			return fmt.Errorf("creating post: %w", err)
		}
		return setTags(ctx, q, post.ID, in.TagIDs)
	})
	if err != nil {
		s.media.Delete(ctx, imageKey)
		return store.Post{}, err
	}

	logInfo(ctx, "post created", "post_id", post.ID, "slug", post.Slug, "author_id", authorID, "category", model.EventCategoryPost)
	if s.metrics != nil {
		s.metrics.PostsCreated.Inc()
	}
	s.widgets.Invalidate(ctx)
	if post.IsPublishedAt(now) {
		s.events.emit(ctx, postEvent(model.TopicPostPublished, post))
	}
	return post, nil
}

// Update changes a post of authorID. ErrNotFound is returned when the post
// does not exist or belongs to someone else. A new image replaces the old
// file; an empty slug is regenerated from the title.
func (s *PostService) Update(ctx context.Context, authorID, postID int64, in PostInput) (store.Post, error) {
	existing, err := s.queries.GetPostByIDAndAuthor(ctx, store.GetPostByIDAndAuthorParams{ID: postID, AuthorID: authorID})
	if err != nil {
		return store.Post{}, notFound(err)
	}

	now := s.now()
	in.normalize()
	if err := s.validate(ctx, &in, postID); err != nil {
		return store.Post{}, err
	}

	imageKey := existing.Image
	var newImage string
	if in.Image != nil {
		newImage, err = s.saveImage(ctx, in.Image)
		if err != nil {
			return store.Post{}, err
		}
		imageKey = newImage
	}

	publishedAt := in.PublishedAt
	if !publishedAt.Valid {
		publishedAt = existing.PublishedAt
	}

	var post store.Post
	err = store.RunInTx(ctx, s.db, func(q *store.Queries) error {
		var err error
		post, err = q.UpdatePost(ctx, store.UpdatePostParams{
			ID:          postID,
			CategoryID:  in.CategoryID,
			Title:       in.Title,
			Slug:        in.Slug,
			Summary:     in.Summary,
			Content:     in.Content,
			Image:       imageKey,
			PublishedAt: publishedAt,
			ModifiedAt:  now,
		})
		if err != nil {
			return fmt.Errorf("updating post: %w", err)
		}
		if err := q.ClearPostTags(ctx, postID); err != nil {
			return err
		}
		return setTags(ctx, q, postID, in.TagIDs)
	})
	if err != nil {
		s.media.Delete(ctx, newImage)
		return store.Post{}, err
	}
	if newImage != "" {
		s.media.Delete(ctx, existing.Image)
	}

	logInfo(ctx, "post updated", "post_id", post.ID, "slug", post.Slug, "category", model.EventCategoryPost)
	s.widgets.Invalidate(ctx)

	wasLive := existing.IsPublishedAt(now)
	switch {
	case post.IsPublishedAt(now) && !wasLive:
		s.events.emit(ctx, postEvent(model.TopicPostPublished, post))
	case post.IsPublishedAt(now):
		s.events.emit(ctx, postEvent(model.TopicPostUpdated, post))
	}
	return post, nil
}

// Delete removes a post of authorID together with its tag links, view
// counter, comments and image.
func (s *PostService) Delete(ctx context.Context, authorID, postID int64) error {
	existing, err := s.queries.GetPostByIDAndAuthor(ctx, store.GetPostByIDAndAuthorParams{ID: postID, AuthorID: authorID})
	if err != nil {
		return notFound(err)
	}

	if err := store.RunInTx(ctx, s.db, func(q *store.Queries) error {
		return q.DeletePost(ctx, postID)
	}); err != nil {
		return fmt.Errorf("deleting post: %w", err)
	}
	s.media.Delete(ctx, existing.Image)

	logInfo(ctx, "post deleted", "post_id", postID, "slug", existing.Slug, "category", model.EventCategoryPost)
	s.widgets.Invalidate(ctx)
	s.events.emit(ctx, postEvent(model.TopicPostDeleted, existing.Post))
	return nil
}

// PublishDue announces scheduled posts that went live in (after, upTo]
// and returns how many there were.
func (s *PostService) PublishDue(ctx context.Context, after, upTo time.Time) (int, error) {
	rows, err := s.queries.ListPostsPublishedBetween(ctx, store.ListPostsPublishedBetweenParams{After: after, UpTo: upTo})
	if err != nil {
		return 0, fmt.Errorf("listing due posts: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	for _, r := range rows {
		s.events.emit(ctx, postEvent(model.TopicPostPublished, r.Post))
		if s.metrics != nil {
			s.metrics.ScheduledPublish.Inc()
		}
	}
	s.widgets.Invalidate(ctx)
	return len(rows), nil
}

// SaveEditorImage stores an image inserted through the rich text editor
// and returns its public URL.
func (s *PostService) SaveEditorImage(ctx context.Context, up *Upload) (string, error) {
	key, err := s.media.SaveImage(ctx, storage.PrefixEditorUploads, imaging.EditorImage, up)
	if err != nil {
		return "", err
	}
	return s.media.URL(key), nil
}

// ImageURL returns the public URL of a post image key.
func (s *PostService) ImageURL(key string) string {
	return s.media.URL(key)
}

func (in *PostInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Slug = strings.ToLower(strings.TrimSpace(in.Slug))
	in.Summary = SanitizeHTML(in.Summary)
	in.Content = SanitizeHTML(in.Content)
}

// validate checks in and fills in a generated slug. excludeID is the post
// being edited, so its own slug does not count as taken.
func (s *PostService) validate(ctx context.Context, in *PostInput, excludeID int64) error {
	errs := ValidationErrors{}

	switch {
	case in.Title == "":
		errs.Add("title", "This field is required.")
	case utf8.RuneCountInString(in.Title) > model.MaxTitleLength:
		errs.Add("title", fmt.Sprintf("Ensure this value has at most %d characters.", model.MaxTitleLength))
	}

	if in.CategoryID <= 0 {
		errs.Add("category", "This field is required.")
	} else if _, err := s.queries.GetCategoryByID(ctx, in.CategoryID); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		errs.Add("category", "Select a valid choice. That choice is not one of the available choices.")
	}

	for _, id := range in.TagIDs {
		if _, err := s.queries.GetTagByID(ctx, id); err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return err
			}
			errs.Add("tags", fmt.Sprintf("Select a valid choice. %d is not one of the available choices.", id))
		}
	}

	if in.Image != nil && in.Image.ContentType != "" && !imaging.IsSupportedMimeType(in.Image.ContentType) {
		errs.Add("image", imaging.ErrUnsupportedFormat.Error())
	}

	if in.Slug == "" {
		if in.Title != "" {
			slug, err := s.uniqueSlug(ctx, in.Title, excludeID)
			if err != nil {
				return err
			}
			if slug == "" {
				errs.Add("slug", "Could not generate a slug from the title; enter one.")
			}
			in.Slug = slug
		}
	} else if !util.IsValidSlug(in.Slug) || len(in.Slug) > util.MaxSlugLength {
		errs.Add("slug", "Enter a valid slug consisting of letters, numbers or hyphens.")
	} else {
		taken, err := s.queries.SlugExists(ctx, store.SlugExistsParams{Slug: in.Slug, ExcludeID: excludeID})
		if err != nil {
			return err
		}
		if taken {
			errs.Add("slug", "Post with this Slug already exists.")
		}
	}

	return errs.Err()
}

// uniqueSlug slugifies title and appends -2, -3, ... until it is free.
func (s *PostService) uniqueSlug(ctx context.Context, title string, excludeID int64) (string, error) {
	base := util.Slugify(title)
	if base == "" {
		return "", nil
	}
	for n := 1; n <= maxSlugAttempts; n++ {
		candidate := util.SlugWithSuffix(base, n)
		taken, err := s.queries.SlugExists(ctx, store.SlugExistsParams{Slug: candidate, ExcludeID: excludeID})
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free slug for %q", base)
}

func (s *PostService) saveImage(ctx context.Context, up *Upload) (string, error) {
	if up == nil {
		return "", nil
	}
	key, err := s.media.SaveImage(ctx, storage.PrefixPostImages, imaging.PostImage, up)
	if err != nil {
		if IsUploadError(err) {
			return "", ValidationErrors{"image": err.Error()}
		}
		return "", err
	}
	return key, nil
}

func (s *PostService) withTags(ctx context.Context, rows []store.PostRow) []PostCard {
	cards := make([]PostCard, 0, len(rows))
	for _, r := range rows {
		tags, err := s.queries.GetTagsForPost(ctx, r.ID)
		if err != nil {
			logWarn(ctx, "failed to load post tags", "post_id", r.ID, "error", err)
		}
		cards = append(cards, PostCard{PostRow: r, Tags: tags})
	}
	return cards
}

func setTags(ctx context.Context, q *store.Queries, postID int64, tagIDs []int64) error {
	for _, id := range tagIDs {
		if err := q.AddTagToPost(ctx, store.AddTagToPostParams{PostID: postID, TagID: id}); err != nil {
			return fmt.Errorf("tagging post: %w", err)
		}
	}
	return nil
}

func postEvent(topic string, p store.Post) broker.Event {
	return broker.NewEvent(topic, strconv.FormatInt(p.ID, 10), map[string]any{
		"id":           p.ID,
		"slug":         p.Slug,
		"title":        p.Title,
		"author_id":    p.AuthorID,
		"category_id":  p.CategoryID,
		"published_at": p.PublishedAt.Time,
	})
}

// notFound maps sql.ErrNoRows to ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

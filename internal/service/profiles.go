// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/olegiv/blango/internal/imaging"
	"github.com/olegiv/blango/internal/model"
	"github.com/olegiv/blango/internal/storage"
	"github.com/olegiv/blango/internal/store"
	"github.com/olegiv/blango/internal/util"
)

// ProfileInput is the edit-profile form. DateOfBirth is YYYY-MM-DD or
// blank; Image is nil when no new file was chosen.
type ProfileInput struct {
	FirstName   string
	LastName    string
	Bio         string
	DateOfBirth string
	Gender      string
	Image       *Upload
}

// Profile is a user with their author profile, if one was ever saved.
type Profile struct {
	User     store.User
	Author   *store.AuthorProfile
	Posts    []store.PostRow
	ImageURL string
}

// ProfileService reads and edits author profiles.
type ProfileService struct {
	db      *sql.DB
	queries *store.Queries
	media   *MediaService
	widgets *WidgetService
	now     Clock
}

// NewProfileService creates a ProfileService. widgets may be nil.
func NewProfileService(db *sql.DB, media *MediaService, widgets *WidgetService) *ProfileService {
	return &ProfileService{
		db:      db,
		queries: store.New(db),
		media:   media,
		widgets: widgets,
		now:     defaultClock,
	}
}

// Get loads the profile page data of userID.
func (s *ProfileService) Get(ctx context.Context, userID int64) (Profile, error) {
	user, err := s.queries.GetUserByID(ctx, userID)
	if err != nil {
		return Profile{}, notFound(err)
	}
	p := Profile{User: user}

	ap, err := s.queries.GetAuthorProfileByUserID(ctx, userID)
	switch {
	case err == nil:
		p.Author = &ap
		p.ImageURL = s.media.URL(ap.ProfileImage)
	case !errors.Is(err, sql.ErrNoRows):
		return Profile{}, fmt.Errorf("loading author profile: %w", err)
	}

	if s.widgets != nil {
		p.Posts = s.widgets.UserPosts(ctx, userID)
		return p, nil
	}
	if p.Posts, err = s.queries.ListPostsByAuthor(ctx, userID); err != nil {
		return Profile{}, fmt.Errorf("loading user posts: %w", err)
	}
	return p, nil
}

// Update saves the names and author profile of userID, creating the
// profile on first save. A new image replaces the previous one.
func (s *ProfileService) Update(ctx context.Context, userID int64, in ProfileInput) (store.AuthorProfile, error) {
	user, err := s.queries.GetUserByID(ctx, userID)
	if err != nil {
		return store.AuthorProfile{}, notFound(err)
	}

	var current store.AuthorProfile
	if ap, err := s.queries.GetAuthorProfileByUserID(ctx, userID); err == nil {
		current = ap
	} else if !errors.Is(err, sql.ErrNoRows) {
		return store.AuthorProfile{}, err
	}

	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Bio = strings.TrimSpace(in.Bio)

	errs := ValidationErrors{}
	if utf8.RuneCountInString(in.FirstName) > 150 {
		errs.Add("first_name", "Ensure this value has at most 150 characters.")
	}
	if utf8.RuneCountInString(in.LastName) > 150 {
		errs.Add("last_name", "Ensure this value has at most 150 characters.")
	}
	if utf8.RuneCountInString(in.Bio) > model.MaxBioLength {
		errs.Add("bio", fmt.Sprintf("Ensure this value has at most %d characters.", model.MaxBioLength))
	}
	dob, err := util.ParseNullDate(in.DateOfBirth)
	switch {
	case err != nil:
		errs.Add("date_of_birth", "Enter a valid date.")
	case dob.Valid && dob.Time.After(s.now()):
		errs.Add("date_of_birth", "Date of birth cannot be in the future.")
	}
	switch {
	case in.Gender == "":
		errs.Add("gender", "This field is required.")
	case !model.IsValidGender(in.Gender):
		errs.Add("gender", fmt.Sprintf("Select a valid choice. %s is not one of the available choices.", in.Gender))
	}
	if in.Image != nil && in.Image.ContentType != "" && !imaging.IsSupportedMimeType(in.Image.ContentType) {
		errs.Add("profile_image", imaging.ErrUnsupportedFormat.Error())
	}
	if err := errs.Err(); err != nil {
		return store.AuthorProfile{}, err
	}

	imageKey := current.ProfileImage
	var newKey string
	if in.Image != nil {
		newKey, err = s.media.SaveImage(ctx, storage.PrefixProfileImages, imaging.ProfileImage, in.Image)
		if err != nil {
			if IsUploadError(err) {
				return store.AuthorProfile{}, ValidationErrors{"profile_image": err.Error()}
			}
			return store.AuthorProfile{}, err
		}
		imageKey = newKey
	}

	var ap store.AuthorProfile
	err = store.RunInTx(ctx, s.db, func(q *store.Queries) error {
		if err := q.UpdateUserNames(ctx, store.UpdateUserNamesParams{
			FirstName: in.FirstName,
			LastName:  in.LastName,
			UpdatedAt: s.now(),
			ID:        user.ID,
		}); err != nil {
			return fmt.Errorf("updating names: %w", err)
		}
		var err error
		ap, err = q.UpsertAuthorProfile(ctx, store.UpsertAuthorProfileParams{
			UserID:       user.ID,
			Bio:          in.Bio,
			ProfileImage: imageKey,
			DateOfBirth:  dob,
			Gender:       in.Gender,
		})
		if err != nil {
			return fmt.Errorf("saving profile: %w", err)
		}
		return nil
	})
	if err != nil {
		s.media.Delete(ctx, newKey)
		return store.AuthorProfile{}, err
	}

	if newKey != "" && current.ProfileImage != "" {
		s.media.Delete(ctx, current.ProfileImage)
	}
	// Author names appear in sidebar and API payloads.
	if s.widgets != nil {
		s.widgets.Invalidate(ctx)
	}
	return ap, nil
}

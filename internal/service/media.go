// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/google/uuid"

	"github.com/olegiv/blango/internal/imaging"
	"github.com/olegiv/blango/internal/storage"
)

// Upload is an uploaded file taken from a multipart form.
type Upload struct {
	Reader      io.Reader
	Filename    string
	ContentType string
	Size        int64
}

// MediaService processes uploaded images and stores them.
type MediaService struct {
	store storage.Storage
}

// NewMediaService creates a MediaService writing to st.
func NewMediaService(st storage.Storage) *MediaService {
	return &MediaService{store: st}
}

// SaveImage resizes up for variant v and stores it under prefix with a
// random name. It returns the storage key.
func (s *MediaService) SaveImage(ctx context.Context, prefix string, v imaging.Variant, up *Upload) (string, error) {
	if up == nil || up.Reader == nil {
		return "", ErrNothingToUpload
	}
	if up.Size > imaging.MaxUploadSize {
		return "", imaging.ErrTooLarge
	}
	if up.ContentType != "" && !imaging.IsSupportedMimeType(up.ContentType) {
		return "", imaging.ErrUnsupportedFormat
	}

	res, err := imaging.Process(up.Reader, v)
	if err != nil {
		return "", err
	}

	key := path.Join(prefix, uuid.NewString()+res.Extension)
	if err := s.store.Put(ctx, key, bytes.NewReader(res.Data), int64(len(res.Data)), res.MimeType); err != nil {
		return "", fmt.Errorf("storing image: %w", err)
	}
	return key, nil
}

// Delete removes a stored file. Missing files are ignored.
func (s *MediaService) Delete(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.store.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
		logWarn(ctx, "failed to delete media file", "key", key, "error", err)
	}
}

// URL returns the public URL of a stored file, or "" for an empty key.
func (s *MediaService) URL(key string) string {
	if key == "" {
		return ""
	}
	return s.store.URL(key)
}

// IsUploadError reports whether err describes a bad upload the user can fix.
func IsUploadError(err error) bool {
	return errors.Is(err, imaging.ErrTooLarge) || errors.Is(err, imaging.ErrUnsupportedFormat) ||
		errors.Is(err, ErrNothingToUpload)
}

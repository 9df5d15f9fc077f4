// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package storage stores uploaded media (post images, profile images and
// editor uploads) on local disk or in an S3-compatible bucket.
package storage

import (
	"context"
	"errors"
	"io"
)

// Key prefixes for the kinds of uploaded media.
const (
	PrefixPostImages    = "images"
	PrefixProfileImages = "profile_images"
	PrefixEditorUploads = "uploads"
)

// ErrNotFound is returned when deleting or opening a key that does not exist.
var ErrNotFound = errors.New("storage: object not found")

// Storage is implemented by the upload backends. Keys are slash-separated
// paths relative to the storage root, for example "images/ab12.jpg".
type Storage interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error

	// URL returns the public URL the object is served from.
	URL(key string) string
}

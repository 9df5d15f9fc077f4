// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"bytes"
	"database/sql"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/olegiv/blango/internal/broker"
	"github.com/olegiv/blango/internal/cache"
	"github.com/olegiv/blango/internal/metrics"
	"github.com/olegiv/blango/internal/storage"
	"github.com/olegiv/blango/internal/testutil"
)

// testEnv wires the services against a migrated temp database, a memory
// cache and disk storage in a temp dir.
type testEnv struct {
	db         *sql.DB
	cache      *cache.MemoryCache
	disk       *storage.Disk
	media      *MediaService
	siteConfig *SiteConfigService
	widgets    *WidgetService
	recorder   *broker.Recorder
	metrics    *metrics.Metrics
	posts      *PostService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.TestDB(t)
	c := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = c.Close() })

	disk, err := storage.NewDisk(t.TempDir())
	if err != nil {
		t.Fatalf("NewDisk: %v", err)
	}

	env := &testEnv{
		db:       db,
		cache:    c,
		disk:     disk,
		media:    NewMediaService(disk),
		recorder: &broker.Recorder{},
		metrics:  metrics.New(),
	}
	env.siteConfig = NewSiteConfigService(db, c)
	env.widgets = NewWidgetService(db, c, env.siteConfig, time.Minute)
	env.posts = NewPostService(db, env.media, env.widgets, env.recorder, env.metrics)
	return env
}

// pngUpload returns an upload holding a w x h PNG.
func pngUpload(t *testing.T, w, h int) *Upload {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return &Upload{
		Reader:      bytes.NewReader(buf.Bytes()),
		Filename:    "picture.png",
		ContentType: "image/png",
		Size:        int64(buf.Len()),
	}
}

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func TestValidationErrors(t *testing.T) {
	errs := ValidationErrors{}
	if errs.Err() != nil {
		t.Fatal("empty ValidationErrors should be a nil error")
	}

	errs.Add("title", "required")
	errs.Add("title", "too long")
	errs.Add("content", "required")

	if errs["title"] != "required" {
		t.Errorf("first message should win, got %q", errs["title"])
	}
	err := errs.Err()
	if err == nil {
		t.Fatal("Err() = nil")
	}
	if got := err.Error(); got != "validation failed: content: required; title: required" {
		t.Errorf("Error() = %q", got)
	}

	wrapped := errors.Join(errors.New("context"), err)
	v, ok := AsValidationErrors(wrapped)
	if !ok || len(v) != 2 {
		t.Errorf("AsValidationErrors = %v, %v", v, ok)
	}
	if _, ok := AsValidationErrors(ErrNotFound); ok {
		t.Error("ErrNotFound is not a validation error")
	}
}

func TestPagination(t *testing.T) {
	tests := []struct {
		name      string
		page      int
		perPage   int
		total     int64
		wantPage  int
		wantPages int
		hasPrev   bool
		hasNext   bool
	}{
		{"empty", 1, 10, 0, 1, 1, false, false},
		{"first of three", 1, 10, 25, 1, 3, false, true},
		{"middle", 2, 10, 25, 2, 3, true, true},
		{"last", 3, 10, 25, 3, 3, true, false},
		{"beyond last clamps", 9, 10, 25, 3, 3, true, false},
		{"zero page clamps", 0, 10, 25, 1, 3, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPagination(tt.page, tt.perPage, tt.total)
			if p.Page != tt.wantPage {
				t.Errorf("Page = %d, want %d", p.Page, tt.wantPage)
			}
			if p.TotalPages() != tt.wantPages {
				t.Errorf("TotalPages = %d, want %d", p.TotalPages(), tt.wantPages)
			}
			if p.HasPrev() != tt.hasPrev || p.HasNext() != tt.hasNext {
				t.Errorf("HasPrev/HasNext = %v/%v", p.HasPrev(), p.HasNext())
			}
			if p.Offset() != int64((p.Page-1)*tt.perPage) {
				t.Errorf("Offset = %d", p.Offset())
			}
		})
	}
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

// createTestImage creates a simple test image with the given dimensions.
func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func TestProcess_FitsLargeImage(t *testing.T) {
	data := encodePNG(t, createTestImage(2400, 1200))

	res, err := Process(bytes.NewReader(data), PostImage)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Width != 1200 || res.Height != 600 {
		t.Errorf("size = %dx%d, want 1200x600", res.Width, res.Height)
	}
	if res.MimeType != MimeTypePNG || res.Extension != ".png" {
		t.Errorf("type = %s %s", res.MimeType, res.Extension)
	}
}

func TestProcess_DoesNotUpscale(t *testing.T) {
	data := encodePNG(t, createTestImage(100, 50))

	res, err := Process(bytes.NewReader(data), PostImage)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Width != 100 || res.Height != 50 {
		t.Errorf("size = %dx%d, want 100x50", res.Width, res.Height)
	}
}

func TestProcess_CropsProfileImage(t *testing.T) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, createTestImage(640, 480), nil); err != nil {
		t.Fatal(err)
	}

	res, err := Process(&buf, ProfileImage)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Width != 300 || res.Height != 300 {
		t.Errorf("size = %dx%d, want 300x300", res.Width, res.Height)
	}
	if res.Extension != ".jpg" || res.MimeType != MimeTypeJPEG {
		t.Errorf("type = %s %s", res.MimeType, res.Extension)
	}
}

func TestProcess_RejectsNonImage(t *testing.T) {
	_, err := Process(bytes.NewReader([]byte("hello, this is not an image")), PostImage)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestProcess_RejectsTooLarge(t *testing.T) {
	data := make([]byte, MaxUploadSize+10)
	copy(data, encodePNG(t, createTestImage(2, 2)))

	_, err := Process(bytes.NewReader(data), PostImage)
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("err = %v, want ErrTooLarge", err)
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"png", encodePNG(t, createTestImage(1, 1)), "png"},
		{"gif", []byte("GIF89a......"), "gif"},
		{"tiff", []byte("II*\x00........"), ""},
		{"text", []byte("plain text"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectFormat(tt.data); got != tt.want {
				t.Errorf("DetectFormat = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsSupportedMimeType(t *testing.T) {
	for _, m := range []string{MimeTypeJPEG, MimeTypePNG, MimeTypeGIF, MimeTypeWebP} {
		if !IsSupportedMimeType(m) {
			t.Errorf("%s should be supported", m)
		}
	}
	for _, m := range []string{"image/tiff", "application/pdf", ""} {
		if IsSupportedMimeType(m) {
			t.Errorf("%s should not be supported", m)
		}
	}
}

func TestApplyOrientation(t *testing.T) {
	img := createTestImage(40, 20)

	if b := applyOrientation(img, 6).Bounds(); b.Dx() != 20 || b.Dy() != 40 {
		t.Errorf("orientation 6 = %dx%d, want 20x40", b.Dx(), b.Dy())
	}
	if b := applyOrientation(img, 3).Bounds(); b.Dx() != 40 || b.Dy() != 20 {
		t.Errorf("orientation 3 = %dx%d, want 40x20", b.Dx(), b.Dy())
	}
	if applyOrientation(img, 1) != img {
		t.Error("orientation 1 should return the image unchanged")
	}
}

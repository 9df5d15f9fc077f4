// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package imaging normalizes uploaded images: EXIF orientation is applied,
// metadata is stripped and the picture is resized for its use.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp" // WebP decoder
)

// MaxUploadSize is the largest accepted upload in bytes.
const MaxUploadSize = 10 << 20

// Supported MIME types.
const (
	MimeTypeJPEG = "image/jpeg"
	MimeTypePNG  = "image/png"
	MimeTypeGIF  = "image/gif"
	MimeTypeWebP = "image/webp"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported image format; use JPEG, PNG, GIF or WebP")
	ErrTooLarge          = errors.New("image is larger than 10 MB")
)

// Variant describes how an upload is resized.
type Variant struct {
	Name    string
	Width   int
	Height  int
	Crop    bool // fill and center-crop instead of fitting
	Quality int
}

var (
	// PostImage is the header image of a post.
	PostImage = Variant{Name: "post", Width: 1200, Height: 800, Quality: 85}

	// ProfileImage is a square author avatar.
	ProfileImage = Variant{Name: "profile", Width: 300, Height: 300, Crop: true, Quality: 85}

	// EditorImage is an inline picture inserted through the rich-text editor.
	EditorImage = Variant{Name: "editor", Width: 1600, Height: 1600, Quality: 85}
)

// Result is a processed image ready to be stored.
type Result struct {
	Data      []byte
	MimeType  string
	Extension string
	Width     int
	Height    int
}

// Process reads at most MaxUploadSize bytes from r and returns the image
// re-encoded for v. Images smaller than the variant are not upscaled.
func Process(r io.Reader, v Variant) (*Result, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	if len(data) > MaxUploadSize {
		return nil, ErrTooLarge
	}

	format := DetectFormat(data)
	if format == "" {
		return nil, ErrUnsupportedFormat
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	img = applyOrientation(img, readExifOrientation(bytes.NewReader(data)))
	img = resize(img, v)

	// No pure Go WebP encoder; WebP uploads are stored as JPEG.
	if format == "webp" {
		format = "jpeg"
	}

	encoded, err := encode(img, format, v.Quality)
	if err != nil {
		return nil, fmt.Errorf("encoding image: %w", err)
	}

	b := img.Bounds()
	return &Result{
		Data:      encoded,
		MimeType:  "image/" + format,
		Extension: extensionFor(format),
		Width:     b.Dx(),
		Height:    b.Dy(),
	}, nil
}

func resize(img image.Image, v Variant) image.Image {
	if v.Width <= 0 || v.Height <= 0 {
		return img
	}
	b := img.Bounds()
	if v.Crop {
		if b.Dx() == v.Width && b.Dy() == v.Height {
			return img
		}
		return imaging.Fill(img, v.Width, v.Height, imaging.Center, imaging.Lanczos)
	}
	if b.Dx() <= v.Width && b.Dy() <= v.Height {
		return img
	}
	return imaging.Fit(img, v.Width, v.Height, imaging.Lanczos)
}

// DetectFormat sniffs the format from the leading bytes. TIFF is rejected
// (CVE-2023-36308 in disintegration/imaging).
func DetectFormat(data []byte) string {
	contentType := http.DetectContentType(data)
	switch {
	case strings.Contains(contentType, "tiff"):
		return ""
	case strings.Contains(contentType, "jpeg"):
		return "jpeg"
	case strings.Contains(contentType, "png"):
		return "png"
	case strings.Contains(contentType, "gif"):
		return "gif"
	case strings.Contains(contentType, "webp"):
		return "webp"
	default:
		return ""
	}
}

// IsSupportedMimeType reports whether an upload's declared type is accepted.
func IsSupportedMimeType(mimeType string) bool {
	switch mimeType {
	case MimeTypeJPEG, MimeTypePNG, MimeTypeGIF, MimeTypeWebP:
		return true
	default:
		return false
	}
}

func extensionFor(format string) string {
	if format == "jpeg" {
		return ".jpg"
	}
	return "." + format
}

// readExifOrientation returns 1 (normal) when the tag is absent.
func readExifOrientation(r io.Reader) int {
	x, err := exif.Decode(r)
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	orientation, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return orientation
}

// applyOrientation maps EXIF orientations 2-8 to flips and rotations.
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.FlipH(imaging.Rotate270(img))
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.FlipH(imaging.Rotate90(img))
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

func encode(img image.Image, format string, quality int) ([]byte, error) {
	if quality <= 0 {
		quality = 85
	}
	var buf bytes.Buffer
	var err error
	switch format {
	case "png":
		err = png.Encode(&buf, img)
	case "gif":
		err = gif.Encode(&buf, img, nil)
	default:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

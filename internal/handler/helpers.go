// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/blango/internal/imaging"
	"github.com/olegiv/blango/internal/service"
)

// maxFormMemory is the part of a multipart form kept in memory; the rest
// spills to temporary files.
const maxFormMemory = 32 << 20

// pageParam returns the ?page= value, defaulting to 1.
func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// idParam parses a positive int64 URL parameter.
func idParam(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// formIDs parses repeated form values as ids. Blank values are ignored;
// the first value that is not a positive integer is returned as invalid.
func formIDs(values []string) (ids []int64, invalid string, ok bool) {
	ids = make([]int64, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return nil, v, false
		}
		ids = append(ids, id)
	}
	return ids, "", true
}

// formValues copies the named fields of a parsed form for re-rendering.
func formValues(r *http.Request, fields ...string) map[string]string {
	values := make(map[string]string, len(fields))
	for _, f := range fields {
		values[f] = r.FormValue(f)
	}
	return values
}

// parseMultipartForm parses a multipart form capped at the upload limit
// plus room for the text fields.
func parseMultipartForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadSize+maxFormMemory)
	err := r.ParseMultipartForm(maxFormMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		return r.ParseForm()
	}
	return err
}

// formUpload returns the file in field, or nil when none was chosen. The
// caller closes the returned file.
func formUpload(r *http.Request, field string) (*service.Upload, multipart.File, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	if header.Size == 0 {
		_ = file.Close()
		return nil, nil, nil
	}
	return &service.Upload{
		Reader:      file,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
	}, file, nil
}

// safeNextPath returns next when it is a local absolute path, otherwise
// fallback. Protocol-relative and backslash tricks are rejected.
func safeNextPath(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") {
		return fallback
	}
	if strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") || strings.ContainsAny(next, "\r\n") {
		return fallback
	}
	return next
}

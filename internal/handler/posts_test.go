// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/blango/internal/store"
	"github.com/olegiv/blango/internal/testutil"
)

type authoringFixture struct {
	app    *testApp
	h      *AuthoringHandler
	author store.User
	other  store.User
	cat    store.Category
	tag    store.Tag
}

func newAuthoringFixture(t *testing.T) *authoringFixture {
	t.Helper()
	app := newTestApp(t)
	return &authoringFixture{
		app:    app,
		h:      NewAuthoringHandler(app.renderer, app.posts, time.UTC),
		author: testutil.CreateUser(t, app.db, "writer@example.com", ""),
		other:  testutil.CreateUser(t, app.db, "other@example.com", ""),
		cat:    testutil.CreateCategory(t, app.db, "Go"),
		tag:    testutil.CreateTag(t, app.db, "tips"),
	}
}

func (f *authoringFixture) request(method, target string, form url.Values, user store.User, id int64) *http.Request {
	req := requestWithUser(f.app.newRequest(method, target, form), user)
	if id > 0 {
		req = requestWithURLParams(req, map[string]string{"id": itoa(id)})
	}
	return req
}

// pngBytes encodes a small w x h PNG.
func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// multipartRequest builds a POST carrying one file part.
func multipartRequest(t *testing.T, target, field, filename, contentType string, data []byte) *http.Request {
	t.Helper()
	return multipartFormRequest(t, target, nil, field, filename, contentType, data)
}

// multipartFormRequest is multipartRequest with extra plain form fields.
func multipartFormRequest(t *testing.T, target string, fields url.Values, field, filename, contentType string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, values := range fields {
		for _, v := range values {
			require.NoError(t, mw.WriteField(name, v))
		}
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestCreatePost(t *testing.T) {
	f := newAuthoringFixture(t)
	ctx := context.Background()

	t.Run("valid post is stored with its tags", func(t *testing.T) {
		form := url.Values{
			"title":    {"Channels in Practice"},
			"category": {itoa(f.cat.ID)},
			"summary":  {"<p>Short</p>"},
			"content":  {"<p>Long <script>alert(1)</script>text</p>"},
			"tags":     {itoa(f.tag.ID)},
		}
		req := f.request(http.MethodPost, routeCreatePost, form, f.author, 0)
		rr := serve(f.h.CreatePost, req)

		assertRedirect(t, rr, RouteProfile)
		post, err := f.app.posts.BySlug(ctx, "channels-in-practice")
		require.NoError(t, err)
		assert.Equal(t, f.author.ID, post.AuthorID)
		assert.NotContains(t, post.Content, "<script>")
		require.Len(t, post.Tags, 1)
		assert.Equal(t, "tips", post.Tags[0].Value)
		assert.True(t, post.PublishedAt.Valid)
	})

	t.Run("scheduled publication date", func(t *testing.T) {
		form := url.Values{
			"title":        {"Later"},
			"category":     {itoa(f.cat.ID)},
			"published_at": {"2099-01-02T15:04"},
		}
		rr := serve(f.h.CreatePost, f.request(http.MethodPost, routeCreatePost, form, f.author, 0))
		assertRedirect(t, rr, RouteProfile)

		post, err := f.app.posts.BySlug(ctx, "later")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2099, 1, 2, 15, 4, 0, 0, time.UTC), post.PublishedAt.Time.UTC())
	})

	tests := []struct {
		name string
		form url.Values
		want string
	}{
		{"missing title", url.Values{"category": {itoa(f.cat.ID)}}, "title: This field is required."},
		{"missing category", url.Values{"title": {"No category"}}, "category: This field is required."},
		{"unknown category", url.Values{"title": {"Bad category"}, "category": {"999"}}, "category: Select a valid choice."},
		{"unknown tag", url.Values{"title": {"Bad tag"}, "category": {itoa(f.cat.ID)}, "tags": {"999"}}, "tags: Select a valid choice. 999"},
		{"non-numeric tag", url.Values{"title": {"Bad tag id"}, "category": {itoa(f.cat.ID)}, "tags": {itoa(f.tag.ID), "golang"}}, "tags: Select a valid choice. golang is not one of the available choices."},
		{"taken slug", url.Values{"title": {"Dup"}, "slug": {"channels-in-practice"}, "category": {itoa(f.cat.ID)}}, "slug: Post with this Slug already exists."},
		{"bad date", url.Values{"title": {"Bad date"}, "category": {itoa(f.cat.ID)}, "published_at": {"tomorrow"}}, "published_at: Enter a valid date/time."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(f.h.CreatePost, f.request(http.MethodPost, routeCreatePost, tt.form, f.author, 0))
			assertStatus(t, rr.Code, http.StatusUnprocessableEntity)
			assert.Contains(t, rr.Body.String(), "page:blog/post_form|"+routeCreatePost)
			assert.Contains(t, rr.Body.String(), tt.want)
		})
	}
}

func TestEditPost(t *testing.T) {
	f := newAuthoringFixture(t)
	post := testutil.CreatePost(t, f.app.db, f.author.ID, f.cat.ID, "Draft Title", "draft-title", time.Now().Add(-time.Hour))

	t.Run("form is only shown to the author", func(t *testing.T) {
		rr := serve(f.h.EditPostForm, f.request(http.MethodGet, editPostPath(post.ID), nil, f.author, post.ID))
		assertStatus(t, rr.Code, http.StatusOK)
		assert.Contains(t, rr.Body.String(), "page:blog/post_form|"+editPostPath(post.ID))

		rr = serve(f.h.EditPostForm, f.request(http.MethodGet, editPostPath(post.ID), nil, f.other, post.ID))
		assertStatus(t, rr.Code, http.StatusNotFound)
	})

	t.Run("another user cannot update", func(t *testing.T) {
		form := url.Values{"title": {"Hijacked"}, "category": {itoa(f.cat.ID)}}
		rr := serve(f.h.EditPost, f.request(http.MethodPost, editPostPath(post.ID), form, f.other, post.ID))
		assertStatus(t, rr.Code, http.StatusNotFound)
	})

	t.Run("author updates the post", func(t *testing.T) {
		form := url.Values{"title": {"Final Title"}, "slug": {"draft-title"}, "category": {itoa(f.cat.ID)}, "content": {"<p>Done</p>"}}
		req := f.request(http.MethodPost, editPostPath(post.ID), form, f.author, post.ID)
		rr := serve(f.h.EditPost, req)

		assertRedirect(t, rr, "/")
		assert.Equal(t, "Post updated.", f.app.flash(req))
		updated, err := f.app.posts.BySlug(context.Background(), "draft-title")
		require.NoError(t, err)
		assert.Equal(t, "Final Title", updated.Title)
	})

	t.Run("invalid update re-renders", func(t *testing.T) {
		form := url.Values{"title": {""}, "category": {itoa(f.cat.ID)}}
		rr := serve(f.h.EditPost, f.request(http.MethodPost, editPostPath(post.ID), form, f.author, post.ID))
		assertStatus(t, rr.Code, http.StatusUnprocessableEntity)
		assert.Contains(t, rr.Body.String(), "title: This field is required.")
	})
}

func TestDeletePost(t *testing.T) {
	f := newAuthoringFixture(t)
	post := testutil.CreatePost(t, f.app.db, f.author.ID, f.cat.ID, "Doomed", "doomed", time.Now())

	rr := serve(f.h.DeletePost, f.request(http.MethodPost, editPostPath(post.ID)+"/delete", nil, f.other, post.ID))
	assertStatus(t, rr.Code, http.StatusNotFound)

	req := f.request(http.MethodPost, editPostPath(post.ID)+"/delete", nil, f.author, post.ID)
	rr = serve(f.h.DeletePost, req)
	assertRedirect(t, rr, RouteProfile)

	_, err := f.app.posts.BySlug(context.Background(), "doomed")
	assert.Error(t, err)
}

func TestEditorUpload(t *testing.T) {
	f := newAuthoringFixture(t)

	t.Run("image is stored", func(t *testing.T) {
		req := multipartRequest(t, "/summernote/upload", "file", "shot.png", "image/png", pngBytes(t, 40, 30))
		rr := serve(f.h.EditorUpload, requestWithUser(req, f.author))

		assertStatus(t, rr.Code, http.StatusOK)
		var resp map[string]string
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.True(t, strings.HasPrefix(resp["url"], "/media/"), resp["url"])
	})

	t.Run("non-image is rejected", func(t *testing.T) {
		req := multipartRequest(t, "/summernote/upload", "file", "notes.txt", "text/plain", []byte("hello"))
		rr := serve(f.h.EditorUpload, requestWithUser(req, f.author))

		assertStatus(t, rr.Code, http.StatusBadRequest)
		assert.Contains(t, rr.Body.String(), `"success":false`)
	})

	t.Run("missing file", func(t *testing.T) {
		req := multipartRequest(t, "/summernote/upload", "other", "x.png", "image/png", []byte("x"))
		rr := serve(f.h.EditorUpload, requestWithUser(req, f.author))
		assertStatus(t, rr.Code, http.StatusBadRequest)
	})
}

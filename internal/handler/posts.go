// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/olegiv/blango/internal/middleware"
	"github.com/olegiv/blango/internal/render"
	"github.com/olegiv/blango/internal/service"
	"github.com/olegiv/blango/internal/store"
	"github.com/olegiv/blango/internal/util"
)

const routeCreatePost = "/accounts/profile/create_post"

// postFields are the post form text fields refilled on errors.
var postFields = []string{"title", "slug", "category", "summary", "content", "published_at"}

// PostFormData is the data of the create and edit post pages.
type PostFormData struct {
	Action       string
	Post         *service.PostCard
	ImageURL     string
	Categories   []store.Category
	Tags         []store.Tag
	SelectedTags []int64
}

// AuthoringHandler lets logged-in users write, edit and delete their posts.
type AuthoringHandler struct {
	renderer *render.Renderer
	posts    *service.PostService
	location *time.Location
}

// NewAuthoringHandler creates a new AuthoringHandler. Submitted
// published_at values are read in loc; nil means the server's local zone.
func NewAuthoringHandler(renderer *render.Renderer, posts *service.PostService, loc *time.Location) *AuthoringHandler {
	if loc == nil {
		loc = time.Local
	}
	return &AuthoringHandler{renderer: renderer, posts: posts, location: loc}
}

// CreatePostForm renders an empty post form.
// GET /accounts/profile/create_post
func (h *AuthoringHandler) CreatePostForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, PostFormData{Action: routeCreatePost}, nil, nil)
}

// CreatePost stores a new post by the current user.
// POST /accounts/profile/create_post
func (h *AuthoringHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	in, file, verrs, ok := h.readInput(w, r, routeCreatePost)
	if !ok {
		return
	}
	if file != nil {
		defer func() { _ = file.Close() }()
	}

	data := PostFormData{Action: routeCreatePost, SelectedTags: in.TagIDs}
	if verrs != nil {
		h.renderForm(w, r, http.StatusUnprocessableEntity, data, formValues(r, postFields...), verrs)
		return
	}

	post, err := h.posts.Create(r.Context(), middleware.GetUserID(r), in)
	if verrs, ok := service.AsValidationErrors(err); ok {
		h.renderForm(w, r, http.StatusUnprocessableEntity, data, formValues(r, postFields...), verrs)
		return
	}
	if err != nil {
		serverError(w, r, h.renderer, "failed to create post", err)
		return
	}

	flashSuccess(w, r, h.renderer, RouteProfile, "Post \""+post.Title+"\" created.")
}

// EditPostForm renders the form of one of the current user's posts.
// GET /edit_post/{id}
func (h *AuthoringHandler) EditPostForm(w http.ResponseWriter, r *http.Request) {
	post, ok := h.ownPost(w, r)
	if !ok {
		return
	}

	form := map[string]string{
		"title":    post.Title,
		"slug":     post.Slug,
		"category": strconv.FormatInt(post.CategoryID, 10),
		"summary":  post.Summary,
		"content":  post.Content,
	}
	if post.PublishedAt.Valid {
		form["published_at"] = post.PublishedAt.Time.In(h.location).Format(util.DateTimeLocalLayout)
	}
	tagIDs := make([]int64, 0, len(post.Tags))
	for _, t := range post.Tags {
		tagIDs = append(tagIDs, t.ID)
	}

	h.renderForm(w, r, http.StatusOK, h.editData(post, tagIDs), form, nil)
}

// EditPost updates one of the current user's posts.
// POST /edit_post/{id}
func (h *AuthoringHandler) EditPost(w http.ResponseWriter, r *http.Request) {
	post, ok := h.ownPost(w, r)
	if !ok {
		return
	}

	in, file, verrs, ok := h.readInput(w, r, editPostPath(post.ID))
	if !ok {
		return
	}
	if file != nil {
		defer func() { _ = file.Close() }()
	}

	data := h.editData(post, in.TagIDs)
	if verrs != nil {
		h.renderForm(w, r, http.StatusUnprocessableEntity, data, formValues(r, postFields...), verrs)
		return
	}

	_, err := h.posts.Update(r.Context(), middleware.GetUserID(r), post.ID, in)
	if verrs, ok := service.AsValidationErrors(err); ok {
		h.renderForm(w, r, http.StatusUnprocessableEntity, data, formValues(r, postFields...), verrs)
		return
	}
	if err != nil {
		notFoundOrError(w, r, h.renderer, "failed to update post", err, "post_id", post.ID)
		return
	}

	flashSuccess(w, r, h.renderer, "/", "Post updated.")
}

// DeletePost removes one of the current user's posts.
// POST /edit_post/{id}/delete
func (h *AuthoringHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		h.renderer.NotFound(w, r)
		return
	}

	if err := h.posts.Delete(r.Context(), middleware.GetUserID(r), id); err != nil {
		notFoundOrError(w, r, h.renderer, "failed to delete post", err, "post_id", id)
		return
	}
	flashSuccess(w, r, h.renderer, RouteProfile, "Post deleted.")
}

// EditorUpload stores an image inserted through the rich text editor.
// POST /summernote/upload
func (h *AuthoringHandler) EditorUpload(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipartForm(w, r); err != nil {
		writeJSONError(w, http.StatusBadRequest, "The upload is too large or malformed.")
		return
	}
	upload, file, err := formUpload(r, "file")
	if err != nil || upload == nil {
		writeJSONError(w, http.StatusBadRequest, service.ErrNothingToUpload.Error())
		return
	}
	defer func() { _ = file.Close() }()

	url, err := h.posts.SaveEditorImage(r.Context(), upload)
	if err != nil {
		if service.IsUploadError(err) {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		logAndHTTPError(w, "Internal Server Error", http.StatusInternalServerError, "failed to store editor image", "error", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// readInput parses the post form. Field errors the service cannot see,
// such as a malformed date, come back as verrs. ok is false when a
// response was already written.
func (h *AuthoringHandler) readInput(w http.ResponseWriter, r *http.Request, formURL string) (in service.PostInput, file io.Closer, verrs service.ValidationErrors, ok bool) {
	if err := parseMultipartForm(w, r); err != nil {
		flashError(w, r, h.renderer, formURL, "The upload is too large or malformed.")
		return in, nil, nil, false
	}

	upload, f, err := formUpload(r, "image")
	if err != nil {
		flashError(w, r, h.renderer, formURL, "The upload could not be read.")
		return in, nil, nil, false
	}
	if f != nil {
		file = f
	}

	categoryID, _ := strconv.ParseInt(r.FormValue("category"), 10, 64)
	tagIDs, badTag, tagsOK := formIDs(r.Form["tags"])
	in = service.PostInput{
		Title:      r.FormValue("title"),
		Slug:       r.FormValue("slug"),
		CategoryID: categoryID,
		Summary:    r.FormValue("summary"),
		Content:    r.FormValue("content"),
		TagIDs:     tagIDs,
		Image:      upload,
	}

	errs := service.ValidationErrors{}
	if !tagsOK {
		errs.Add("tags", fmt.Sprintf("Select a valid choice. %s is not one of the available choices.", badTag))
	}
	publishedAt, err := util.ParseNullDateTimeLocal(r.FormValue("published_at"), h.location)
	if err != nil {
		errs.Add("published_at", "Enter a valid date/time.")
	}
	in.PublishedAt = publishedAt
	if len(errs) > 0 {
		verrs = errs
	}
	return in, file, verrs, true
}

// ownPost loads the {id} post when it belongs to the current user and
// renders 404 otherwise.
func (h *AuthoringHandler) ownPost(w http.ResponseWriter, r *http.Request) (service.PostCard, bool) {
	id, ok := idParam(r, "id")
	if !ok {
		h.renderer.NotFound(w, r)
		return service.PostCard{}, false
	}
	post, err := h.posts.OwnPost(r.Context(), middleware.GetUserID(r), id)
	if err != nil {
		notFoundOrError(w, r, h.renderer, "failed to load post", err, "post_id", id)
		return service.PostCard{}, false
	}
	return post, true
}

func (h *AuthoringHandler) editData(post service.PostCard, tagIDs []int64) PostFormData {
	return PostFormData{
		Action:       editPostPath(post.ID),
		Post:         &post,
		ImageURL:     h.posts.ImageURL(post.Image),
		SelectedTags: tagIDs,
	}
}

func (h *AuthoringHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, data PostFormData,
	form map[string]string, errs service.ValidationErrors) {
	ctx := r.Context()
	var err error
	if data.Categories, err = h.posts.Categories(ctx); err != nil {
		serverError(w, r, h.renderer, "failed to list categories", err)
		return
	}
	if data.Tags, err = h.posts.Tags(ctx); err != nil {
		serverError(w, r, h.renderer, "failed to list tags", err)
		return
	}

	title := "Create post"
	if data.Post != nil {
		title = "Edit post"
	}
	renderPage(w, r, h.renderer, status, "blog/post_form", render.TemplateData{
		Title:  title,
		Data:   data,
		Form:   form,
		Errors: errs,
	})
}

func editPostPath(id int64) string {
	return "/edit_post/" + strconv.FormatInt(id, 10)
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler provides HTTP handlers for the application.
package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mileusna/useragent"

	"github.com/olegiv/blango/internal/middleware"
	"github.com/olegiv/blango/internal/model"
	"github.com/olegiv/blango/internal/render"
	"github.com/olegiv/blango/internal/seo"
	"github.com/olegiv/blango/internal/service"
	"github.com/olegiv/blango/internal/store"
)

// DefaultPostsPerPage is the listing page size when none is configured.
const DefaultPostsPerPage = 10

// Sidebar holds the widget lists rendered next to every blog page.
type Sidebar struct {
	RecentPosts     []service.PostLink
	MostViewedPosts []service.PostLink
	Categories      []store.CategoryWithCount
	Tags            []store.TagWithCount
}

// PostListData is the data of the index, category and tag pages.
type PostListData struct {
	Heading    string
	Category   *store.Category
	Tag        *store.Tag
	Posts      []service.PostCard
	Pagination PaginationView
	Sidebar    Sidebar
}

// PostDetailData is the data of a post page.
type PostDetailData struct {
	Post          service.PostCard
	ImageURL      string
	ViewCount     int64
	Comments      []store.CommentRow
	CanComment    bool
	CategoryPosts []service.PostLink
	Sidebar       Sidebar
}

// SearchData is the data of the search results page.
type SearchData struct {
	Query   string
	Results []store.PostRow
	Valid   bool
	Sidebar Sidebar
}

// BlogHandler serves the public blog pages.
type BlogHandler struct {
	renderer *render.Renderer
	posts    *service.PostService
	comments *service.CommentService
	widgets  *service.WidgetService
	search   *service.SearchService
	siteURL  string
	perPage  int
}

// NewBlogHandler creates a new BlogHandler.
func NewBlogHandler(renderer *render.Renderer, posts *service.PostService, comments *service.CommentService,
	widgets *service.WidgetService, search *service.SearchService, siteURL string, perPage int) *BlogHandler {
	if perPage <= 0 {
		perPage = DefaultPostsPerPage
	}
	return &BlogHandler{
		renderer: renderer,
		posts:    posts,
		comments: comments,
		widgets:  widgets,
		search:   search,
		siteURL:  siteURL,
		perPage:  perPage,
	}
}

// Index lists published posts, newest first.
// GET /
func (h *BlogHandler) Index(w http.ResponseWriter, r *http.Request) {
	page, err := h.posts.Published(r.Context(), pageParam(r), h.perPage)
	if err != nil {
		serverError(w, r, h.renderer, "failed to list posts", err)
		return
	}

	meta := seo.SiteMeta(h.site(r), "")
	renderPage(w, r, h.renderer, http.StatusOK, "blog/index", render.TemplateData{
		Title: "Home",
		Meta:  &meta,
		Data: PostListData{
			Posts:      page.Posts,
			Pagination: BuildPagination(page.Pagination, "/", r.URL.Query()),
			Sidebar:    h.sidebar(r, 0),
		},
	})
}

// PostDetail shows a post with its comments and counts the view.
// GET /post/{slug}
func (h *BlogHandler) PostDetail(w http.ResponseWriter, r *http.Request) {
	post, err := h.posts.BySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		notFoundOrError(w, r, h.renderer, "failed to load post", err, "slug", chi.URLParam(r, "slug"))
		return
	}
	h.renderDetail(w, r, post, http.StatusOK, nil, nil)
}

// AddComment stores a comment by the current user on a post.
// POST /post/{slug}
func (h *BlogHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		http.Redirect(w, r, middleware.LoginURL(r), http.StatusSeeOther)
		return
	}

	post, err := h.posts.BySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		notFoundOrError(w, r, h.renderer, "failed to load post", err, "slug", chi.URLParam(r, "slug"))
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderer.Error(w, r, http.StatusBadRequest, "Invalid form data")
		return
	}

	content := r.FormValue("content")
	_, err = h.comments.Add(r.Context(), *user, model.ContentTypePost, post.ID, content)
	if verrs, ok := service.AsValidationErrors(err); ok {
		h.renderDetail(w, r, post, http.StatusUnprocessableEntity, map[string]string{"content": content}, verrs)
		return
	}
	switch {
	case err == nil:
		flashSuccess(w, r, h.renderer, r.URL.Path, "Your comment has been posted.")
	case errors.Is(err, service.ErrCommentsDisabled):
		flashError(w, r, h.renderer, r.URL.Path, "Comments are disabled.")
	case errors.Is(err, service.ErrAccountInactive):
		h.renderer.Error(w, r, http.StatusForbidden, "Only active users can comment.")
	default:
		notFoundOrError(w, r, h.renderer, "failed to add comment", err, "post_id", post.ID)
	}
}

// renderDetail counts the view and renders the post page.
func (h *BlogHandler) renderDetail(w http.ResponseWriter, r *http.Request, post service.PostCard, status int,
	form map[string]string, errs service.ValidationErrors) {
	ctx := r.Context()

	views := post.ViewCount
	if !isBot(r.UserAgent()) {
		n, err := h.posts.RecordView(ctx, post.ID)
		if err != nil {
			slog.Warn("failed to record post view", "post_id", post.ID, "error", err)
		} else {
			views = n
		}
	}

	comments, err := h.comments.For(ctx, model.ContentTypePost, post.ID)
	if err != nil {
		serverError(w, r, h.renderer, "failed to load comments", err, "post_id", post.ID)
		return
	}

	user := middleware.GetUser(r)
	imageURL := h.posts.ImageURL(post.Image)
	meta := seo.PostMeta(h.site(r), seo.Post{
		Title:       post.Title,
		Slug:        post.Slug,
		Summary:     post.Summary,
		ImageURL:    imageURL,
		AuthorName:  post.Author().DisplayName(),
		PublishedAt: post.PublishedAt.Time,
		ModifiedAt:  post.ModifiedAt,
	})

	renderPage(w, r, h.renderer, status, "blog/post", render.TemplateData{
		Title:  post.Title,
		Meta:   &meta,
		Form:   form,
		Errors: errs,
		Data: PostDetailData{
			Post:          post,
			ImageURL:      imageURL,
			ViewCount:     views,
			Comments:      comments,
			CanComment:    user != nil && user.IsActive && middleware.GetSiteSettings(r).AllowComments,
			CategoryPosts: h.widgets.PostsByCategory(ctx, post.CategoryID),
			Sidebar:       h.sidebar(r, post.ID),
		},
	})
}

// CategoryPosts lists the published posts of a category.
// GET /category/{id}
func (h *BlogHandler) CategoryPosts(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		h.renderer.NotFound(w, r)
		return
	}

	cat, page, err := h.posts.ByCategory(r.Context(), id, pageParam(r), h.perPage)
	if err != nil {
		notFoundOrError(w, r, h.renderer, "failed to list category posts", err, "category_id", id)
		return
	}

	meta := seo.SiteMeta(h.site(r), cat.Name)
	renderPage(w, r, h.renderer, http.StatusOK, "blog/index", render.TemplateData{
		Title: cat.Name,
		Meta:  &meta,
		Data: PostListData{
			Heading:    "Posts in " + cat.Name,
			Category:   &cat,
			Posts:      page.Posts,
			Pagination: BuildPagination(page.Pagination, r.URL.Path, r.URL.Query()),
			Sidebar:    h.sidebar(r, 0),
		},
	})
}

// TagPosts lists the published posts carrying a tag.
// GET /tag/{id}
func (h *BlogHandler) TagPosts(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		h.renderer.NotFound(w, r)
		return
	}

	tag, page, err := h.posts.ByTag(r.Context(), id, pageParam(r), h.perPage)
	if err != nil {
		notFoundOrError(w, r, h.renderer, "failed to list tag posts", err, "tag_id", id)
		return
	}

	meta := seo.SiteMeta(h.site(r), tag.Value)
	renderPage(w, r, h.renderer, http.StatusOK, "blog/index", render.TemplateData{
		Title: tag.Value,
		Meta:  &meta,
		Data: PostListData{
			Heading:    "Posts tagged " + tag.Value,
			Tag:        &tag,
			Posts:      page.Posts,
			Pagination: BuildPagination(page.Pagination, r.URL.Path, r.URL.Query()),
			Sidebar:    h.sidebar(r, 0),
		},
	})
}

// Search finds posts by content, falling back to titles.
// GET /results?query=
func (h *BlogHandler) Search(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("query")
	result, err := h.search.Search(r.Context(), raw)
	if err != nil {
		serverError(w, r, h.renderer, "search failed", err)
		return
	}

	meta := seo.SiteMeta(h.site(r), "Search")
	renderPage(w, r, h.renderer, http.StatusOK, "blog/results", render.TemplateData{
		Title:  "Search",
		Meta:   &meta,
		Form:   map[string]string{"query": raw},
		Errors: result.Errors,
		Data: SearchData{
			Query:   result.Query,
			Results: result.Posts,
			Valid:   result.Valid(),
			Sidebar: h.sidebar(r, 0),
		},
	})
}

// sidebar loads the widget lists, leaving excludeID out of the post lists.
func (h *BlogHandler) sidebar(r *http.Request, excludeID int64) Sidebar {
	ctx := r.Context()
	return Sidebar{
		RecentPosts:     h.widgets.RecentPosts(ctx, excludeID),
		MostViewedPosts: h.widgets.MostViewedPosts(ctx, excludeID),
		Categories:      h.widgets.Categories(ctx),
		Tags:            h.widgets.Tags(ctx),
	}
}

func (h *BlogHandler) site(r *http.Request) seo.Site {
	settings := middleware.GetSiteSettings(r)
	return seo.Site{Name: settings.SiteName, URL: h.siteURL, Description: settings.SiteDescription}
}

// isBot reports whether ua belongs to a known crawler.
func isBot(ua string) bool {
	if ua == "" {
		return false
	}
	return useragent.Parse(ua).Bot
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"

	"github.com/olegiv/blango/internal/middleware"
	"github.com/olegiv/blango/internal/render"
	"github.com/olegiv/blango/internal/service"
	"github.com/olegiv/blango/internal/util"
)

const routeEditProfile = "/accounts/profile/edit"

// profileFields are the edit-profile form fields refilled on errors.
var profileFields = []string{"first_name", "last_name", "bio", "date_of_birth", "gender"}

// ProfileHandler shows and edits the current user's profile.
type ProfileHandler struct {
	renderer *render.Renderer
	profiles *service.ProfileService
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(renderer *render.Renderer, profiles *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{renderer: renderer, profiles: profiles}
}

// Profile shows the user, their author profile and their posts.
// GET /accounts/profile
func (h *ProfileHandler) Profile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	p, err := h.profiles.Get(r.Context(), userID)
	if err != nil {
		notFoundOrError(w, r, h.renderer, "failed to load profile", err, "user_id", userID)
		return
	}

	renderPage(w, r, h.renderer, http.StatusOK, "accounts/profile", render.TemplateData{
		Title: "Profile",
		Data:  p,
	})
}

// EditProfileForm renders the profile form filled with the saved values.
// GET /accounts/profile/edit
func (h *ProfileHandler) EditProfileForm(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	p, err := h.profiles.Get(r.Context(), userID)
	if err != nil {
		notFoundOrError(w, r, h.renderer, "failed to load profile", err, "user_id", userID)
		return
	}

	form := map[string]string{
		"first_name": p.User.FirstName,
		"last_name":  p.User.LastName,
	}
	if p.Author != nil {
		form["bio"] = p.Author.Bio
		form["gender"] = p.Author.Gender
		if p.Author.DateOfBirth.Valid {
			form["date_of_birth"] = p.Author.DateOfBirth.Time.Format(util.DateLayout)
		}
	}
	h.renderEdit(w, r, http.StatusOK, p, form, nil)
}

// EditProfile saves the profile, creating it on first save.
// POST /accounts/profile/edit
func (h *ProfileHandler) EditProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if err := parseMultipartForm(w, r); err != nil {
		flashError(w, r, h.renderer, routeEditProfile, "The upload is too large or malformed.")
		return
	}

	upload, file, err := formUpload(r, "profile_image")
	if err != nil {
		flashError(w, r, h.renderer, routeEditProfile, "The upload could not be read.")
		return
	}
	if file != nil {
		defer func() { _ = file.Close() }()
	}

	_, err = h.profiles.Update(r.Context(), userID, service.ProfileInput{
		FirstName:   r.FormValue("first_name"),
		LastName:    r.FormValue("last_name"),
		Bio:         r.FormValue("bio"),
		DateOfBirth: r.FormValue("date_of_birth"),
		Gender:      r.FormValue("gender"),
		Image:       upload,
	})
	if verrs, ok := service.AsValidationErrors(err); ok {
		p, gerr := h.profiles.Get(r.Context(), userID)
		if gerr != nil {
			notFoundOrError(w, r, h.renderer, "failed to load profile", gerr, "user_id", userID)
			return
		}
		h.renderEdit(w, r, http.StatusUnprocessableEntity, p, formValues(r, profileFields...), verrs)
		return
	}
	if err != nil {
		notFoundOrError(w, r, h.renderer, "failed to update profile", err, "user_id", userID)
		return
	}

	flashSuccess(w, r, h.renderer, RouteProfile, "Your profile has been updated.")
}

func (h *ProfileHandler) renderEdit(w http.ResponseWriter, r *http.Request, status int, p service.Profile,
	form map[string]string, errs service.ValidationErrors) {
	renderPage(w, r, h.renderer, status, "accounts/edit_profile", render.TemplateData{
		Title:  "Edit profile",
		Data:   p,
		Form:   form,
		Errors: errs,
	})
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/olegiv/blango/internal/middleware"
	"github.com/olegiv/blango/internal/model"
	"github.com/olegiv/blango/internal/render"
	"github.com/olegiv/blango/internal/service"
	"github.com/olegiv/blango/internal/store"
)

const redirectAdminConfig = "/admin/config"

// ConfigItem represents a config item with display metadata.
type ConfigItem struct {
	store.Config
	Label string
}

// ConfigHandler handles configuration management routes.
type ConfigHandler struct {
	renderer     *render.Renderer
	siteConfig   *service.SiteConfigService
	eventService *service.EventService
}

// NewConfigHandler creates a new ConfigHandler.
func NewConfigHandler(renderer *render.Renderer, siteConfig *service.SiteConfigService, es *service.EventService) *ConfigHandler {
	return &ConfigHandler{renderer: renderer, siteConfig: siteConfig, eventService: es}
}

// List handles GET /admin/config - displays configuration settings.
func (h *ConfigHandler) List(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, nil, nil)
}

// Update handles POST /admin/config - updates every submitted known key.
// Keys that are not already defined are rejected.
func (h *ConfigHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminConfig) {
		return
	}

	configs, err := h.siteConfig.List(r.Context())
	if err != nil {
		serverError(w, r, h.renderer, "failed to list config", err)
		return
	}

	errs := service.ValidationErrors{}
	form := make(map[string]string, len(configs))
	var changed []string
	for _, c := range configs {
		// Unchecked boxes are absent from the form but still mean "false".
		if _, ok := r.PostForm[c.Key]; !ok && c.Type != model.ConfigTypeBool {
			continue
		}
		value := r.PostFormValue(c.Key)
		if c.Type == model.ConfigTypeBool && value == "" {
			value = "false"
		}
		form[c.Key] = value
		if value == c.Value {
			continue
		}
		err := h.siteConfig.Update(r.Context(), c.Key, value)
		if verrs, ok := service.AsValidationErrors(err); ok {
			for k, msg := range verrs {
				errs.Add(k, msg)
			}
			continue
		}
		if err != nil {
			serverError(w, r, h.renderer, "failed to update config", err, "key", c.Key)
			return
		}
		changed = append(changed, c.Key)
	}

	for key := range r.PostForm {
		if _, ok := model.LookupConfigDefault(key); !ok {
			slog.Warn("rejected unknown config key", "key", key, "error", service.ErrUnknownConfigKey)
		}
	}

	if len(errs) > 0 {
		h.render(w, r, http.StatusUnprocessableEntity, form, errs)
		return
	}

	if len(changed) > 0 {
		slog.Info("config updated", "keys", changed, "updated_by", middleware.GetUserID(r))
		if h.eventService != nil {
			_ = h.eventService.LogInfo(r.Context(), model.EventCategoryConfig, "Configuration updated",
				middleware.GetUserID(r), map[string]any{"keys": strings.Join(changed, ",")})
		}
	}
	flashSuccess(w, r, h.renderer, redirectAdminConfig, "Configuration saved")
}

func (h *ConfigHandler) render(w http.ResponseWriter, r *http.Request, status int, form map[string]string, errs service.ValidationErrors) {
	configs, err := h.siteConfig.List(r.Context())
	if err != nil {
		serverError(w, r, h.renderer, "failed to list config", err)
		return
	}

	items := make([]ConfigItem, 0, len(configs))
	for _, c := range configs {
		if v, ok := form[c.Key]; ok {
			c.Value = v
		}
		items = append(items, ConfigItem{Config: c, Label: configKeyToLabel(c.Key)})
	}

	renderPage(w, r, h.renderer, status, "admin/config", render.TemplateData{
		Title:  "Site configuration",
		Data:   items,
		Errors: errs,
	})
}

// configKeyToLabel turns "sidebar_size" into "Sidebar size".
func configKeyToLabel(key string) string {
	label := strings.ReplaceAll(key, "_", " ")
	if label == "" {
		return label
	}
	return strings.ToUpper(label[:1]) + label[1:]
}

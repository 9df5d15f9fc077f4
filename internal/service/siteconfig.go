// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/olegiv/blango/internal/cache"
	"github.com/olegiv/blango/internal/model"
	"github.com/olegiv/blango/internal/store"
)

// SiteSettings is the typed view of the site configuration rows.
type SiteSettings struct {
	SiteName          string `json:"site_name"`
	SiteDescription   string `json:"site_description"`
	AllowComments     bool   `json:"allow_comments"`
	AllowRegistration bool   `json:"allow_registration"`
	SidebarSize       int    `json:"sidebar_size"`
}

const settingsCacheKey = "config:settings"

// SiteConfigService reads and updates the singleton site configuration.
// Keys that were never saved read as their defaults.
type SiteConfigService struct {
	queries  *store.Queries
	settings *cache.Typed[SiteSettings]
	cache    cache.Cacher
}

// NewSiteConfigService creates a SiteConfigService. c may be nil.
func NewSiteConfigService(db *sql.DB, c cache.Cacher) *SiteConfigService {
	s := &SiteConfigService{queries: store.New(db), cache: c}
	if c != nil {
		s.settings = cache.NewTyped[SiteSettings](c, 10*time.Minute)
	}
	return s
}

// Get returns the stored value of key or its default.
func (s *SiteConfigService) Get(ctx context.Context, key string) string {
	row, err := s.queries.GetConfigByKey(ctx, key)
	if err == nil {
		return row.Value
	}
	if !errors.Is(err, sql.ErrNoRows) {
		logWarn(ctx, "failed to read config", "key", key, "error", err)
	}
	if d, ok := model.LookupConfigDefault(key); ok {
		return d.Value
	}
	return ""
}

// Settings returns all known settings, cached when a cache is configured.
func (s *SiteConfigService) Settings(ctx context.Context) SiteSettings {
	if s.settings == nil {
		return s.loadSettings(ctx)
	}
	v, _ := s.settings.GetOrLoad(ctx, settingsCacheKey, func(ctx context.Context) (SiteSettings, error) {
		return s.loadSettings(ctx), nil
	})
	return v
}

func (s *SiteConfigService) loadSettings(ctx context.Context) SiteSettings {
	values := make(map[string]string, len(model.ConfigDefaults))
	for _, d := range model.ConfigDefaults {
		values[d.Key] = d.Value
	}
	rows, err := s.queries.ListConfig(ctx)
	if err != nil {
		logWarn(ctx, "failed to list config", "error", err)
	}
	for _, r := range rows {
		values[r.Key] = r.Value
	}

	size, err := strconv.Atoi(values[model.ConfigKeySidebarSize])
	if err != nil || size <= 0 {
		size = 5
	}
	return SiteSettings{
		SiteName:          values[model.ConfigKeySiteName],
		SiteDescription:   values[model.ConfigKeySiteDescription],
		AllowComments:     parseBool(values[model.ConfigKeyAllowComments]),
		AllowRegistration: parseBool(values[model.ConfigKeyAllowSignup]),
		SidebarSize:       size,
	}
}

// List returns every known key with its current value, defaults filled in.
func (s *SiteConfigService) List(ctx context.Context) ([]store.Config, error) {
	rows, err := s.queries.ListConfig(ctx)
	if err != nil {
		return nil, err
	}
	byKey := make(map[string]store.Config, len(rows))
	for _, r := range rows {
		byKey[r.Key] = r
	}

	out := make([]store.Config, 0, len(model.ConfigDefaults))
	for _, d := range model.ConfigDefaults {
		if r, ok := byKey[d.Key]; ok {
			out = append(out, r)
			continue
		}
		out = append(out, store.Config{Key: d.Key, Value: d.Value, Type: d.Type, Description: d.Description})
	}
	return out, nil
}

// Update changes the value of an existing key. Keys cannot be created.
func (s *SiteConfigService) Update(ctx context.Context, key, value string) error {
	d, ok := model.LookupConfigDefault(key)
	if !ok {
		return ErrUnknownConfigKey
	}

	value = strings.TrimSpace(value)
	errs := ValidationErrors{}
	switch d.Type {
	case model.ConfigTypeBool:
		// Unchecked checkboxes are not submitted.
		switch value {
		case "on":
			value = "true"
		case "":
			value = "false"
		}
		if _, err := strconv.ParseBool(value); err != nil {
			errs.Add(key, "Enter true or false")
		}
	case model.ConfigTypeInt:
		if n, err := strconv.Atoi(value); err != nil || n < 0 {
			errs.Add(key, "Enter a non-negative whole number")
		}
	default:
		if len(value) > model.MaxNameLength {
			errs.Add(key, "Value is too long")
		}
	}
	if err := errs.Err(); err != nil {
		return err
	}

	if err := s.queries.UpsertConfig(ctx, store.UpsertConfigParams{
		Key:         key,
		Value:       value,
		Type:        d.Type,
		Description: d.Description,
		UpdatedAt:   time.Now(),
	}); err != nil {
		return err
	}

	s.invalidate(ctx)
	return nil
}

func (s *SiteConfigService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Delete(ctx, settingsCacheKey)
	// Sidebar sizes depend on the settings.
	_ = s.cache.DeleteByPrefix(ctx, cache.PrefixWidgets)
}

func parseBool(v string) bool {
	b, _ := strconv.ParseBool(v)
	return b
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"errors"
	"testing"

	"github.com/olegiv/blango/internal/cache"
	"github.com/olegiv/blango/internal/model"
	tu "github.com/olegiv/blango/internal/testutil"
)

func TestSiteConfigService_Defaults(t *testing.T) {
	db := tu.TestDB(t)
	svc := NewSiteConfigService(db, nil)
	ctx := context.Background()

	s := svc.Settings(ctx)
	if s.SiteName != "Blango" || !s.AllowComments || !s.AllowRegistration || s.SidebarSize != 5 {
		t.Errorf("Settings = %+v", s)
	}
	if got := svc.Get(ctx, model.ConfigKeySiteName); got != "Blango" {
		t.Errorf("Get(site_name) = %q", got)
	}
	if got := svc.Get(ctx, "no_such_key"); got != "" {
		t.Errorf("Get(unknown) = %q", got)
	}

	rows, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(rows) != len(model.ConfigDefaults) {
		t.Errorf("List returned %d rows, want %d", len(rows), len(model.ConfigDefaults))
	}
}

func TestSiteConfigService_Update(t *testing.T) {
	db := tu.TestDB(t)
	c := cache.NewMemoryCache(cache.MemoryCacheOptions{})
	t.Cleanup(func() { _ = c.Close() })
	svc := NewSiteConfigService(db, c)
	ctx := context.Background()

	// Prime the cache so the update has to invalidate it.
	_ = svc.Settings(ctx)

	if err := svc.Update(ctx, model.ConfigKeySiteName, "  My Blog "); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := svc.Update(ctx, model.ConfigKeyAllowComments, ""); err != nil {
		t.Fatalf("Update checkbox off: %v", err)
	}
	if err := svc.Update(ctx, model.ConfigKeySidebarSize, "8"); err != nil {
		t.Fatalf("Update int: %v", err)
	}

	s := svc.Settings(ctx)
	if s.SiteName != "My Blog" || s.AllowComments || s.SidebarSize != 8 {
		t.Errorf("Settings after update = %+v", s)
	}

	if err := svc.Update(ctx, model.ConfigKeyAllowComments, "on"); err != nil {
		t.Fatalf("Update checkbox on: %v", err)
	}
	if !svc.Settings(ctx).AllowComments {
		t.Error("checkbox value \"on\" should enable the setting")
	}
}

func TestSiteConfigService_UpdateRejects(t *testing.T) {
	db := tu.TestDB(t)
	svc := NewSiteConfigService(db, nil)
	ctx := context.Background()

	if err := svc.Update(ctx, "new_key", "x"); !errors.Is(err, ErrUnknownConfigKey) {
		t.Errorf("unknown key: err = %v", err)
	}

	tests := []struct {
		key   string
		value string
	}{
		{model.ConfigKeySidebarSize, "many"},
		{model.ConfigKeySidebarSize, "-1"},
		{model.ConfigKeyAllowSignup, "maybe"},
	}
	for _, tt := range tests {
		err := svc.Update(ctx, tt.key, tt.value)
		if _, ok := AsValidationErrors(err); !ok {
			t.Errorf("Update(%s, %q) = %v, want validation error", tt.key, tt.value, err)
		}
	}
}

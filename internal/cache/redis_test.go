// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

// skipIfNoRedis skips the test unless BLANGO_TEST_REDIS_URL points at a
// disposable Redis database.
func skipIfNoRedis(t *testing.T) *RedisCache {
	t.Helper()
	url := os.Getenv("BLANGO_TEST_REDIS_URL")
	if url == "" {
		t.Skip("Skipping Redis tests: BLANGO_TEST_REDIS_URL not set")
	}

	c, err := NewRedisCache(RedisCacheOptions{URL: url, Prefix: "blango-test:", DefaultTTL: time.Minute})
	if err != nil {
		t.Fatalf("NewRedisCache: %v", err)
	}
	t.Cleanup(func() {
		_ = c.Clear(context.Background())
		_ = c.Close()
	})
	return c
}

func TestRedisCache_Basic(t *testing.T) {
	c := skipIfNoRedis(t)
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := c.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Fatalf("Get = %q, %v", got, err)
	}
	if has, _ := c.Has(ctx, "k"); !has {
		t.Error("Has = false")
	}
	_ = c.Delete(ctx, "k")
	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get after Delete = %v", err)
	}
}

func TestRedisCache_DeleteByPrefix(t *testing.T) {
	c := skipIfNoRedis(t)
	ctx := context.Background()

	_ = c.Set(ctx, PrefixWidgets+"a", []byte("1"), 0)
	_ = c.Set(ctx, PrefixWidgets+"b", []byte("1"), 0)
	_ = c.Set(ctx, PrefixAPI+"posts", []byte("1"), 0)

	if err := c.DeleteByPrefix(ctx, PrefixWidgets); err != nil {
		t.Fatalf("DeleteByPrefix: %v", err)
	}
	if has, _ := c.Has(ctx, PrefixWidgets+"a"); has {
		t.Error("widget key survived")
	}
	if has, _ := c.Has(ctx, PrefixAPI+"posts"); !has {
		t.Error("api key was removed")
	}
	if s := c.Stats(); s.Backend != BackendRedis || s.Items != 1 {
		t.Errorf("Stats = %+v", s)
	}
}

func TestRedisCache_InvalidURL(t *testing.T) {
	if _, err := NewRedisCache(RedisCacheOptions{}); err == nil {
		t.Error("empty URL should fail")
	}
	if _, err := NewRedisCache(RedisCacheOptions{URL: "://bad"}); err == nil {
		t.Error("malformed URL should fail")
	}
}

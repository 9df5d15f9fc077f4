// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package seo

import (
	"encoding/xml"
	"strings"
	"testing"
	"time"
)

func TestSitemapBuilder(t *testing.T) {
	b := NewSitemapBuilder("https://blog.example.com/")
	b.AddHomepage()
	b.AddPost(SitemapPost{Slug: "hello-world", ModifiedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.FixedZone("X", 3600))})
	b.AddCategory(3)
	b.AddTag(7)

	if b.Len() != 4 {
		t.Fatalf("Len = %d, want 4", b.Len())
	}

	data, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !strings.HasPrefix(string(data), xml.Header) {
		t.Error("missing XML header")
	}

	var got Sitemap
	if err := xml.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.XMLNS != XMLNamespace {
		t.Errorf("xmlns = %q", got.XMLNS)
	}

	want := []SitemapURL{
		{Loc: "https://blog.example.com/", ChangeFreq: ChangeFreqDaily, Priority: "1.0"},
		{Loc: "https://blog.example.com/post/hello-world", LastMod: "2024-05-01T09:00:00Z", ChangeFreq: ChangeFreqWeekly, Priority: "0.8"},
		{Loc: "https://blog.example.com/category/3", ChangeFreq: ChangeFreqWeekly, Priority: "0.6"},
		{Loc: "https://blog.example.com/tag/7", ChangeFreq: ChangeFreqWeekly, Priority: "0.5"},
	}
	for i, w := range want {
		if got.URLs[i] != w {
			t.Errorf("URL[%d] = %+v, want %+v", i, got.URLs[i], w)
		}
	}
}

func TestSitemapBuilder_Empty(t *testing.T) {
	data, err := NewSitemapBuilder("https://x.test").Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if strings.Contains(string(data), "<url>") {
		t.Error("empty sitemap should have no urls")
	}
}

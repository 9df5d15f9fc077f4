// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package seo

import (
	"strings"
	"testing"
)

func TestGenerateRobots(t *testing.T) {
	got := GenerateRobots(RobotsConfig{SiteURL: "https://blog.example.com/"})

	for _, want := range []string{
		"User-agent: *\n",
		"Disallow: /admin\n",
		"Disallow: /accounts\n",
		"Disallow: /api\n",
		"Allow: /\n",
		"Sitemap: https://blog.example.com/sitemap.xml\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("robots.txt missing %q:\n%s", want, got)
		}
	}
}

func TestGenerateRobots_NoSiteURL(t *testing.T) {
	if got := GenerateRobots(RobotsConfig{}); strings.Contains(got, "Sitemap:") {
		t.Errorf("unexpected sitemap line:\n%s", got)
	}
}

func TestGenerateRobots_DisallowAll(t *testing.T) {
	got := GenerateRobots(RobotsConfig{SiteURL: "https://staging.example.com", DisallowAll: true})
	if got != "User-agent: *\nDisallow: /\n" {
		t.Errorf("robots.txt = %q", got)
	}
}

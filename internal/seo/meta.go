// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package seo

import (
	"encoding/json"
	"html/template"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// descriptionLength is the usual cut-off search engines display.
const descriptionLength = 160

var textPolicy = bluemonday.StrictPolicy()

// Meta holds the meta tags of one page.
type Meta struct {
	Title       string
	Description string
	Canonical   string
	OGType      string
	OGImage     string
	OGSiteName  string
	// JSONLD is Article structured data, empty for non-post pages.
	JSONLD template.JS
}

// Site holds the site-wide values used in meta tags.
type Site struct {
	Name        string
	URL         string
	Description string
}

// Post holds the post values used in meta tags.
type Post struct {
	Title       string
	Slug        string
	Summary     string // HTML
	ImageURL    string
	AuthorName  string
	PublishedAt time.Time
	ModifiedAt  time.Time
}

// SiteMeta returns the meta tags for listing pages.
func SiteMeta(site Site, title string) Meta {
	m := Meta{
		Title:       site.Name,
		Description: site.Description,
		Canonical:   strings.TrimSuffix(site.URL, "/") + "/",
		OGType:      "website",
		OGSiteName:  site.Name,
	}
	if title != "" {
		m.Title = title + " | " + site.Name
	}
	return m
}

// PostMeta returns the meta tags and Article structured data of a post.
func PostMeta(site Site, p Post) Meta {
	base := strings.TrimSuffix(site.URL, "/")
	m := Meta{
		Title:       p.Title + " | " + site.Name,
		Description: Description(p.Summary),
		Canonical:   base + "/post/" + p.Slug,
		OGType:      "article",
		OGImage:     absoluteURL(p.ImageURL, base),
		OGSiteName:  site.Name,
	}

	article := map[string]any{
		"@context":         "https://schema.org",
		"@type":            "Article",
		"headline":         p.Title,
		"mainEntityOfPage": m.Canonical,
		"publisher":        map[string]string{"@type": "Organization", "name": site.Name},
	}
	if m.Description != "" {
		article["description"] = m.Description
	}
	if m.OGImage != "" {
		article["image"] = m.OGImage
	}
	if !p.PublishedAt.IsZero() {
		article["datePublished"] = p.PublishedAt.UTC().Format(time.RFC3339)
	}
	if !p.ModifiedAt.IsZero() {
		article["dateModified"] = p.ModifiedAt.UTC().Format(time.RFC3339)
	}
	if p.AuthorName != "" {
		article["author"] = map[string]string{"@type": "Person", "name": p.AuthorName}
	}
	if data, err := json.Marshal(article); err == nil {
		m.JSONLD = template.JS(data) //nolint:gosec // json.Marshal escapes <, > and &
	}
	return m
}

// Description turns HTML into plain text cut at a word boundary.
func Description(html string) string {
	text := strings.Join(strings.Fields(textPolicy.Sanitize(html)), " ")
	text = strings.NewReplacer("&amp;", "&", "&#39;", "'", "&#34;", `"`, "&lt;", "<", "&gt;", ">").Replace(text)
	if utf8.RuneCountInString(text) <= descriptionLength {
		return text
	}

	cut := string([]rune(text)[:descriptionLength])
	if i := strings.LastIndex(cut, " "); i > descriptionLength/2 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut) + "..."
}

func absoluteURL(u, base string) string {
	if u == "" || strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u
	}
	if !strings.HasPrefix(u, "/") {
		u = "/" + u
	}
	return base + u
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"bytes"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// ugcPolicy keeps the formatting the rich-text editor produces and strips
// scripts, event handlers and other active content.
var ugcPolicy = newUGCPolicy()

func newUGCPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Globally()
	p.AllowAttrs("style").OnElements("span", "p", "img", "table", "td", "th")
	p.AllowStyles("text-align", "color", "background-color", "font-weight", "font-style", "text-decoration", "width", "float").Globally()
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

// strictPolicy is used for plain-text fields that must not carry markup.
var strictPolicy = bluemonday.StrictPolicy()

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// SanitizeHTML cleans rich-text editor output.
func SanitizeHTML(s string) string {
	return ugcPolicy.Sanitize(s)
}

// StripTags removes all markup from s.
func StripTags(s string) string {
	return strictPolicy.Sanitize(s)
}

// RenderMarkdown converts comment Markdown into sanitized HTML. Raw HTML in
// the source is escaped by goldmark's default renderer and the result is
// sanitized again before it is trusted.
func RenderMarkdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src)) //nolint:gosec // escaped
	}
	return template.HTML(ugcPolicy.SanitizeBytes(buf.Bytes())) //nolint:gosec // sanitized
}

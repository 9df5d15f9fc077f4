// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package render

import (
	"fmt"
	"html/template"
	"net/url"
	"slices"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/olegiv/blango/internal/model"
	"github.com/olegiv/blango/internal/service"
	"github.com/olegiv/blango/internal/store"
)

// AuthorDetails renders how a post author is shown: "me" in bold for the
// current user, otherwise the full name or username, linked to the author's
// email when there is one.
func AuthorDetails(author store.User, current *store.User) template.HTML {
	if current != nil && current.ID == author.ID {
		return "<strong>me</strong>"
	}

	name := author.FullName()
	if name == "" {
		name = author.Username
	}
	name = template.HTMLEscapeString(name)

	if author.Email == "" {
		return template.HTML(name) //nolint:gosec // escaped
	}
	href := template.HTMLEscapeString("mailto:" + author.Email)
	return template.HTML(`<a href="` + href + `">` + name + `</a>`) //nolint:gosec // escaped
}

func (r *Renderer) templateFuncs() template.FuncMap {
	return template.FuncMap{
		"authorDetails": AuthorDetails,
		"genderLabel":   model.GenderLabel,
		"markdown":      service.RenderMarkdown,
		"mediaURL": func(key string) string {
			if key == "" {
				return ""
			}
			return r.mediaURL(key)
		},
		// Post bodies are sanitized before they are stored.
		"safe": func(s string) template.HTML {
			return template.HTML(s) //nolint:gosec // sanitized on save
		},
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("Jan 2, 2006")
		},
		"formatDateTime": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("Jan 2, 2006 3:04 PM")
		},
		"datetimeLocal": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("2006-01-02T15:04")
		},
		"truncate":      truncate,
		"pageURL":       pageURL,
		"hasID":         func(ids []int64, id int64) bool { return slices.Contains(ids, id) },
		"add":           func(a, b int) int { return a + b },
		"sub":           func(a, b int) int { return a - b },
		"seq":           seq,
		"dict":          dict,
		"itoa":          strconv.Itoa,
		"genderChoices": func() []model.Choice { return model.GenderChoices },
	}
}

// truncate shortens s to at most n runes, appending "...".
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

// pageURL sets the page query parameter on base, keeping other parameters.
func pageURL(base string, page int) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	if page <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(page))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func seq(start, end int) []int {
	var result []int
	for i := start; i <= end; i++ {
		result = append(result, i)
	}
	return result
}

// dict builds a map from alternating keys and values for partials.
func dict(pairs ...any) (map[string]any, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("dict: odd number of arguments")
	}
	m := make(map[string]any, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict: key %v is not a string", pairs[i])
		}
		m[key] = pairs[i+1]
	}
	return m, nil
}

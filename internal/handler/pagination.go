// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/url"
	"strconv"

	"github.com/olegiv/blango/internal/service"
)

// PaginationView holds pagination links for templates.
type PaginationView struct {
	CurrentPage int
	TotalPages  int
	TotalItems  int64
	HasPrev     bool
	HasNext     bool
	PrevURL     string
	NextURL     string
	Pages       []PaginationPage
}

// PaginationPage is a single page link; ellipsis entries have no URL.
type PaginationPage struct {
	Number     int
	URL        string
	IsCurrent  bool
	IsEllipsis bool
}

// BuildPagination creates page links around the current page, keeping the
// other query parameters (e.g. the search query) in every link.
func BuildPagination(p service.Pagination, baseURL string, query url.Values) PaginationView {
	totalPages := p.TotalPages()
	view := PaginationView{
		CurrentPage: p.Page,
		TotalPages:  totalPages,
		TotalItems:  p.Total,
		HasPrev:     p.HasPrev(),
		HasNext:     p.HasNext(),
	}

	params := make(url.Values)
	for k, v := range query {
		if k != "page" && len(v) > 0 && v[0] != "" {
			params[k] = v
		}
	}
	buildURL := func(page int) string {
		q := make(url.Values, len(params)+1)
		for k, v := range params {
			q[k] = v
		}
		if page > 1 {
			q.Set("page", strconv.Itoa(page))
		}
		if len(q) == 0 {
			return baseURL
		}
		return baseURL + "?" + q.Encode()
	}

	if view.HasPrev {
		view.PrevURL = buildURL(p.PrevPage())
	}
	if view.HasNext {
		view.NextURL = buildURL(p.NextPage())
	}
	if totalPages <= 1 {
		return view
	}

	// At most 5 numbered links around the current page.
	start := max(p.Page-2, 1)
	end := start + 4
	if end > totalPages {
		end = totalPages
		start = max(end-4, 1)
	}

	if start > 1 {
		view.Pages = append(view.Pages, PaginationPage{Number: 1, URL: buildURL(1)})
		if start > 2 {
			view.Pages = append(view.Pages, PaginationPage{IsEllipsis: true})
		}
	}
	for i := start; i <= end; i++ {
		view.Pages = append(view.Pages, PaginationPage{
			Number:    i,
			URL:       buildURL(i),
			IsCurrent: i == p.Page,
		})
	}
	if end < totalPages {
		if end < totalPages-1 {
			view.Pages = append(view.Pages, PaginationPage{IsEllipsis: true})
		}
		view.Pages = append(view.Pages, PaginationPage{Number: totalPages, URL: buildURL(totalPages)})
	}
	return view
}

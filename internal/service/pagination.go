// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

// Pagination describes one page of a listing.
type Pagination struct {
	Page    int
	PerPage int
	Total   int64
}

// NewPagination clamps page into the valid range for total items.
func NewPagination(page, perPage int, total int64) Pagination {
	if perPage <= 0 {
		perPage = 10
	}
	p := Pagination{Page: page, PerPage: perPage, Total: total}
	if p.Page < 1 {
		p.Page = 1
	}
	if last := p.TotalPages(); p.Page > last {
		p.Page = last
	}
	return p
}

// TotalPages is at least 1 so an empty listing still has a page.
func (p Pagination) TotalPages() int {
	n := int((p.Total + int64(p.PerPage) - 1) / int64(p.PerPage))
	if n < 1 {
		return 1
	}
	return n
}

func (p Pagination) Limit() int64  { return int64(p.PerPage) }
func (p Pagination) Offset() int64 { return int64((p.Page - 1) * p.PerPage) }
func (p Pagination) HasPrev() bool { return p.Page > 1 }
func (p Pagination) HasNext() bool { return p.Page < p.TotalPages() }
func (p Pagination) PrevPage() int { return p.Page - 1 }
func (p Pagination) NextPage() int { return p.Page + 1 }

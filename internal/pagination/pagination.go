// Package pagination splits ordered result sets into numbered pages.
//
// Page numbers are 1-based and never fail: a missing, non-numeric or
// non-positive number selects the first page, and a number past the end
// selects the last page. An empty result still has one (empty) page.
package pagination

import (
	"strconv"
	"strings"
)

// Paginator describes a result set of Count items shown PerPage at a time.
type Paginator struct {
	PerPage int
	Count   int64
}

// Window is the slice of the result set a page covers.
type Window struct {
	Number int
	Offset int
	Limit  int
}

// NumPages returns the number of pages, at least 1.
func (p Paginator) NumPages() int {
	if p.PerPage <= 0 || p.Count <= 0 {
		return 1
	}
	return int((p.Count + int64(p.PerPage) - 1) / int64(p.PerPage))
}

// GetPage resolves a raw page number, as found in the query string, to a
// valid window.
func (p Paginator) GetPage(raw string) Window {
	number, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || number < 1 {
		number = 1
	}
	if last := p.NumPages(); number > last {
		number = last
	}
	return Window{
		Number: number,
		Offset: (number - 1) * p.PerPage,
		Limit:  p.PerPage,
	}
}

// Meta is the pagination block returned next to page items.
type Meta struct {
	CurrentPage     int   `json:"currentPage"`
	TotalPages      int   `json:"totalPages"`
	TotalItems      int64 `json:"totalItems"`
	ItemsPerPage    int   `json:"itemsPerPage"`
	HasNextPage     bool  `json:"hasNextPage"`
	HasPreviousPage bool  `json:"hasPreviousPage"`
}

// Page is one page of items together with its position in the result set.
type Page[T any] struct {
	Items []T  `json:"items"`
	Meta  Meta `json:"meta"`
}

// NewPage assembles a page from the items fetched for window w.
func NewPage[T any](p Paginator, w Window, items []T) Page[T] {
	if items == nil {
		items = []T{}
	}
	total := p.NumPages()
	return Page[T]{
		Items: items,
		Meta: Meta{
			CurrentPage:     w.Number,
			TotalPages:      total,
			TotalItems:      p.Count,
			ItemsPerPage:    p.PerPage,
			HasNextPage:     w.Number < total,
			HasPreviousPage: w.Number > 1,
		},
	}
}

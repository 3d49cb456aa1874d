// Package paging computes page windows over a counted result set.
//
// The clamping rules are lenient: a page parameter that is not a number
// selects the first page, and a number outside 1..TotalPages selects the
// last page. An empty result set still has one (empty) page.
package paging

import "strconv"

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Page is one window of a result set.
type Page struct {
	Number     int // 1-based page number after clamping
	Size       int // items per page
	TotalPages int
	TotalCount int
}

// New builds the page selected by the raw page and page_size query values
// for a result set of total items.
func New(total int, pageParam, sizeParam string) Page {
	size := ParseSize(sizeParam)
	if total < 0 {
		total = 0
	}
	pages := (total + size - 1) / size
	if pages < 1 {
		pages = 1
	}

	number, err := strconv.Atoi(pageParam)
	switch {
	case pageParam == "" || err != nil:
		number = 1
	case number < 1 || number > pages:
		number = pages
	}

	return Page{Number: number, Size: size, TotalPages: pages, TotalCount: total}
}

// ParseSize returns the page size for a raw page_size value, falling back to
// DefaultPageSize when it is missing or invalid and capping at MaxPageSize.
func ParseSize(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return DefaultPageSize
	}
	if n > MaxPageSize {
		return MaxPageSize
	}
	return n
}

// Offset is the number of items before this page.
func (p Page) Offset() int { return (p.Number - 1) * p.Size }

// Limit is the maximum number of items on this page.
func (p Page) Limit() int { return p.Size }

func (p Page) HasNext() bool { return p.Number < p.TotalPages }

func (p Page) HasPrev() bool { return p.Number > 1 }

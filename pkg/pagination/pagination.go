// Package pagination implements page-number pagination for list endpoints.
package pagination

import (
	"net/http"
	"strconv"

	"mercator-hq/bastion/pkg/apierror"
)

// PageParam is the query parameter carrying the page number.
const PageParam = "page"

// Config holds the paging limits.
type Config struct {
	PageSize      int
	MaxPageSize   int
	PageSizeParam string
}

// Page is a requested page.
type Page struct {
	Number int
	Size   int
}

// Result is the body of a paginated list response. Next and Previous are
// page numbers, nil at the ends.
type Result[T any] struct {
	Count    int  `json:"count"`
	Next     *int `json:"next"`
	Previous *int `json:"previous"`
	Results  []T  `json:"results"`
}

// FromRequest reads the page number and size from the query string. Sizes
// above MaxPageSize are capped. Malformed values give a validation error.
func FromRequest(r *http.Request, cfg Config) (Page, error) {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 20
	}
	if cfg.MaxPageSize < cfg.PageSize {
		cfg.MaxPageSize = cfg.PageSize
	}
	if cfg.PageSizeParam == "" {
		cfg.PageSizeParam = "page_size"
	}

	q := r.URL.Query()
	p := Page{Number: 1, Size: cfg.PageSize}
	fields := map[string][]string{}

	if v := q.Get(PageParam); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			fields[PageParam] = []string{"A valid positive integer is required."}
		} else {
			p.Number = n
		}
	}

	if v := q.Get(cfg.PageSizeParam); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			fields[cfg.PageSizeParam] = []string{"A valid positive integer is required."}
		} else {
			p.Size = min(n, cfg.MaxPageSize)
		}
	}

	if len(fields) > 0 {
		return Page{}, apierror.Validation(fields)
	}
	return p, nil
}

// Paginate slices items for page. A page past the end gives NotFound, except
// page 1 of an empty list.
func Paginate[T any](items []T, page Page) (Result[T], error) {
	if page.Size <= 0 {
		page.Size = len(items)
		if page.Size == 0 {
			page.Size = 1
		}
	}
	if page.Number < 1 {
		page.Number = 1
	}

	count := len(items)
	pages := max((count+page.Size-1)/page.Size, 1)
	if page.Number > pages {
		return Result[T]{}, apierror.NotFound("Invalid page.")
	}

	start := (page.Number - 1) * page.Size
	end := min(start+page.Size, count)

	res := Result[T]{
		Count:   count,
		Results: append([]T{}, items[start:end]...),
	}
	if page.Number < pages {
		next := page.Number + 1
		res.Next = &next
	}
	if page.Number > 1 {
		prev := page.Number - 1
		res.Previous = &prev
	}
	return res, nil
}

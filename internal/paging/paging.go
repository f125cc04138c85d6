// Package paging holds page/limit parameters and the page envelope shared
// by list endpoints.
package paging

import (
	"net/url"
	"strconv"

	"github.com/nerrad567/vidhub-core/internal/apperr"
)

// Limits applied by Normalize.
const (
	DefaultLimit = 10
	MaxLimit     = 100
	// MaxPage keeps Offset well inside int range.
	MaxPage = 1_000_000
)

// Params selects one page. Page is 1-based.
type Params struct {
	Page  int
	Limit int
}

// Normalize clamps p into range.
func (p Params) Normalize() Params {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Offset is the number of rows skipped before this page.
func (p Params) Offset() int {
	p = p.Normalize()
	return (p.Page - 1) * p.Limit
}

// FromQuery reads page and limit from URL query values.
// Absent values take defaults. Non-numeric values, and a page past MaxPage,
// are a validation error.
func FromQuery(q url.Values) (Params, error) {
	var p Params
	var err error
	if v := q.Get("page"); v != "" {
		if p.Page, err = strconv.Atoi(v); err != nil {
			return Params{}, apperr.Validation("page must be a number")
		}
		if p.Page > MaxPage {
			return Params{}, apperr.Validation("page is out of range")
		}
	}
	if v := q.Get("limit"); v != "" {
		if p.Limit, err = strconv.Atoi(v); err != nil {
			return Params{}, apperr.Validation("limit must be a number")
		}
	}
	return p.Normalize(), nil
}

// Page is one page of results.
type Page[T any] struct {
	Items      []T  `json:"items"`
	Total      int  `json:"total"`
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
}

// New wraps items as page p of total results.
func New[T any](items []T, total int, p Params) Page[T] {
	p = p.Normalize()
	if items == nil {
		items = []T{}
	}
	pages := (total + p.Limit - 1) / p.Limit
	return Page[T]{
		Items:      items,
		Total:      total,
		Page:       p.Page,
		Limit:      p.Limit,
		TotalPages: pages,
		HasNext:    p.Page < pages,
	}
}

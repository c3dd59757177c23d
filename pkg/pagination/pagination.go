package pagination

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultLimit = 25
	MaxLimit     = 100
)

// Params holds page-based pagination parameters extracted from a request.
type Params struct {
	Page  int
	Limit int
}

// FromContext extracts page/limit query parameters, clamping them to valid
// ranges: page >= 1, 1 <= limit <= 100 (default 25).
func FromContext(c echo.Context) Params {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return Params{Page: page, Limit: limit}
}

// Offset returns the row offset for the current page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Meta is the pagination metadata block returned alongside a page of rows.
type Meta struct {
	CurrentPage  int  `json:"currentPage"`
	TotalPages   int  `json:"totalPages"`
	TotalRecords int  `json:"totalRecords"`
	Limit        int  `json:"limit"`
	HasNext      bool `json:"hasNext"`
	HasPrev      bool `json:"hasPrev"`
}

// NewMeta computes pagination metadata for a total row count. totalPages has
// a floor of 1 even when total is 0.
func NewMeta(p Params, total int) Meta {
	totalPages := (total + p.Limit - 1) / p.Limit
	if totalPages < 1 {
		totalPages = 1
	}
	return Meta{
		CurrentPage:  p.Page,
		TotalPages:   totalPages,
		TotalRecords: total,
		Limit:        p.Limit,
		HasNext:      p.Page < totalPages,
		HasPrev:      p.Page > 1,
	}
}

package pagination

import (
	"fmt"
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params holds the window requested by a listing endpoint.
type Params struct {
	Limit  int
	Offset int
}

// FromContext reads limit and offset from the query string. The FHIR names
// _count and _offset win over limit and offset. Missing or unusable values
// fall back to the defaults and the limit is capped at MaxLimit.
func FromContext(c echo.Context) Params {
	limit := firstPositive(c.QueryParam("_count"), c.QueryParam("limit"))
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Params{Limit: limit, Offset: firstPositive(c.QueryParam("_offset"), c.QueryParam("offset"))}
}

func firstPositive(values ...string) int {
	for _, v := range values {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return 0
}

func (p Params) HasNext(total int) bool {
	return p.Offset+p.Limit < total
}

func (p Params) HasPrevious() bool {
	return p.Offset > 0
}

// Links holds the relative URLs of the neighbouring pages, if any.
type Links struct {
	Next     string `json:"next,omitempty"`
	Previous string `json:"previous,omitempty"`
}

// Page is one window of a listing.
type Page[T any] struct {
	Data    []T   `json:"data"`
	Total   int   `json:"total"`
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	HasMore bool  `json:"has_more"`
	Links   Links `json:"links"`
}

// NewPage wraps data, the window p selected out of total items. path is the
// listing's own path and is used to build the neighbour links.
func NewPage[T any](path string, data []T, total int, p Params) *Page[T] {
	if data == nil {
		data = []T{}
	}
	page := &Page[T]{
		Data:    data,
		Total:   total,
		Limit:   p.Limit,
		Offset:  p.Offset,
		HasMore: p.HasNext(total),
	}
	if page.HasMore {
		page.Links.Next = link(path, p.Offset+p.Limit, p.Limit)
	}
	if p.HasPrevious() {
		page.Links.Previous = link(path, max(p.Offset-p.Limit, 0), p.Limit)
	}
	return page
}

func link(path string, offset, limit int) string {
	return fmt.Sprintf("%s?_offset=%d&_count=%d", path, offset, limit)
}

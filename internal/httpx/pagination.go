package httpx

import (
	"net/url"
	"strconv"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// PageParams are the normalized skip/limit inputs of every list endpoint.
type PageParams struct {
	Page  int
	Limit int
	Skip  int
}

// ParsePageParams clamps page/limit query values into valid bounds. Garbage
// input falls back to the defaults rather than erroring.
func ParsePageParams(q url.Values) PageParams {
	page := DefaultPage
	if n, err := strconv.Atoi(q.Get("page")); err == nil && n > 0 {
		page = n
	}
	limit := DefaultLimit
	if n, err := strconv.Atoi(q.Get("limit")); err == nil && n > 0 {
		limit = n
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return PageParams{Page: page, Limit: limit, Skip: (page - 1) * limit}
}

// PageMeta reports the filtered total independent of skip/limit so clients
// can compute page counts.
type PageMeta struct {
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"totalPages"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
}

func NewPageMeta(p PageParams, total int64) PageMeta {
	totalPages := int((total + int64(p.Limit) - 1) / int64(p.Limit))
	return PageMeta{
		Page:        p.Page,
		Limit:       p.Limit,
		Total:       total,
		TotalPages:  totalPages,
		HasNextPage: p.Page < totalPages,
		HasPrevPage: p.Page > 1,
	}
}

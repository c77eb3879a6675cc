package api

import (
	"math"
	"net/http"
	"strconv"
)

// PaginationParams holds parsed pagination values from query params.
type PaginationParams struct {
	Page   int
	Limit  int
	Offset int
}

// ParsePagination extracts page and limit from query params. Missing or
// non-positive values take the defaults; limit is capped at maxLimit.
func ParsePagination(r *http.Request, defaultLimit, maxLimit int) PaginationParams {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return PaginationParams{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}

// PageMeta describes where a page sits in the full result.
type PageMeta struct {
	Total   int  `json:"total"`
	Page    int  `json:"page"`
	Pages   int  `json:"pages"`
	HasNext bool `json:"has_next"`
}

func newPageMeta(p PaginationParams, total int) PageMeta {
	pages := int(math.Ceil(float64(total) / float64(p.Limit)))
	return PageMeta{
		Total:   total,
		Page:    p.Page,
		Pages:   pages,
		HasNext: p.Page < pages,
	}
}

package dto

import (
	"net/http"
	"rental/shared/constant"
	"strconv"
	"strings"
)

const (
	SortDirAsc  = "ASC"
	SortDirDesc = "DESC"

	// MaxLimit caps a single page regardless of what the client asks for.
	MaxLimit = 100
)

type QueryParams struct {
	Page    int    `json:"page"     validate:"omitempty"`
	Limit   int    `json:"limit"    validate:"omitempty"`
	SortBy  string `json:"sort_by"  validate:"omitempty"`
	SortDir string `json:"sort_dir" validate:"omitempty,oneof=ASC DESC"`
}

// FromRequest reads page, limit, sort_by and sort_dir. Invalid values are dropped. With
// paginate set, missing page and limit take their defaults and limit is capped at MaxLimit.
func (q *QueryParams) FromRequest(r *http.Request, paginate bool) {
	values := r.URL.Query()

	if page, ok := positiveInt(values.Get(constant.RequestParamPage)); ok {
		q.Page = page
	}

	if limit, ok := positiveInt(values.Get(constant.RequestParamLimit)); ok {
		q.Limit = limit
	}

	if sortBy := strings.TrimSpace(values.Get(constant.RequestParamSortBy)); sortBy != constant.Empty {
		q.SortBy = sortBy
	}

	switch sortDir := strings.ToUpper(values.Get(constant.RequestParamSortDir)); sortDir {
	case SortDirAsc, SortDirDesc:
		q.SortDir = sortDir
	}

	if !paginate {
		return
	}

	if q.Page == 0 {
		q.Page = constant.DefaultValuePage
	}

	if q.Limit == 0 {
		q.Limit = constant.DefaultValueLimit
	}

	q.Limit = min(q.Limit, MaxLimit)
}

// Offset is the number of rows before the current page. It is zero when paging is off.
func (q QueryParams) Offset() int {
	if q.Page <= 0 || q.Limit <= 0 {
		return 0
	}

	return (q.Page - 1) * q.Limit
}

func positiveInt(raw string) (int, bool) {
	if raw == constant.Empty {
		return 0, false
	}

	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return 0, false
	}

	return value, true
}

// Package handlers holds the HTTP handlers of the dashboard API.
package handlers

import (
	"net/http"
	"strconv"
	"strings"

	apperrors "pmadmin-backend/internal/errors"
	"pmadmin-backend/internal/repository"
)

// Reserved query parameters. Every other parameter is a column filter.
const (
	paramPage      = "page"
	paramLimit     = "limit"
	paramSortBy    = "sortBy"
	paramSortOrder = "sortOrder"
)

// parsePaginationParams reads page, limit and sort from the query string.
// Repeated filter parameters are joined into an IN list.
func parsePaginationParams(r *http.Request) (repository.PaginationParams, error) {
	query := r.URL.Query()
	params := repository.PaginationParams{
		SortBy:    query.Get(paramSortBy),
		SortOrder: repository.SortOrder(query.Get(paramSortOrder)),
	}

	var err error
	if params.Page, err = intParam(query.Get(paramPage), paramPage); err != nil {
		return params, err
	}
	if params.Limit, err = intParam(query.Get(paramLimit), paramLimit); err != nil {
		return params, err
	}

	for column, values := range query {
		switch column {
		case paramPage, paramLimit, paramSortBy, paramSortOrder:
			continue
		}
		if params.Filters == nil {
			params.Filters = make(map[string]string)
		}
		params.Filters[column] = strings.Join(values, ",")
	}
	return params, nil
}

func intParam(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.NewValidationf("%s must be an integer, got %q", name, raw)
	}
	return n, nil
}

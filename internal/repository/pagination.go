package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	apperrors "pmadmin-backend/internal/errors"
)

// SortOrder represents sort direction
type SortOrder string

const (
	Ascending  SortOrder = "asc"
	Descending SortOrder = "desc"
)

// Constants for pagination
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func paramsValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// PaginationParams describes one page request. Page is 1-based. Filters map a
// column to a scalar value or to a comma-joined list of accepted values.
type PaginationParams struct {
	Page      int               `json:"page" validate:"min=1"`
	Limit     int               `json:"limit" validate:"min=1,max=100"`
	SortBy    string            `json:"sortBy,omitempty" validate:"omitempty,max=64"`
	SortOrder SortOrder         `json:"sortOrder,omitempty" validate:"omitempty,oneof=asc desc"`
	Filters   map[string]string `json:"filters,omitempty"`
}

// Normalize fills defaults: page 1, DefaultPageSize, ascending order. Limits
// above MaxPageSize are clamped.
func (p PaginationParams) Normalize() PaginationParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	if p.SortOrder == "" {
		p.SortOrder = Ascending
	}
	p.SortOrder = SortOrder(strings.ToLower(string(p.SortOrder)))
	return p
}

// Validate checks if pagination parameters are valid
func (p PaginationParams) Validate() error {
	if err := paramsValidator().Struct(p); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return apperrors.NewValidationf("invalid pagination parameter %s: failed %q (value %v)",
				fe.Field(), fe.Tag(), fe.Value())
		}
		return apperrors.NewValidation(err.Error())
	}
	for column := range p.Filters {
		if column == "" {
			return apperrors.NewValidation("invalid filter: empty column name")
		}
	}
	return nil
}

// Offset returns the zero-based index of the first row of the page.
func (p PaginationParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Range returns the inclusive row range the page covers.
func (p PaginationParams) Range() (from, to int) {
	from = p.Offset()
	return from, from + p.Limit - 1
}

// Sort returns the sort clause, or nil when no sort column was requested.
func (p PaginationParams) Sort() *Sort {
	if p.SortBy == "" {
		return nil
	}
	return &Sort{Column: p.SortBy, Ascending: p.SortOrder != Descending}
}

// CanonicalFilters serialises the filters as the source query sees them, so
// filter sets that select the same rows produce the same string. Columns are
// sorted, empty values dropped and set members trimmed, sorted and
// deduplicated. A single-member set is written like an equality match. No
// filters serialise as "{}".
func (p PaginationParams) CanonicalFilters() string {
	filters := BuildFilters(p.Filters)
	if len(filters) == 0 {
		return "{}"
	}

	canonical := make(map[string]string, len(filters))
	for _, f := range filters {
		switch f.Operator {
		case Equals:
			canonical[f.Column] = f.Value
		case InFilter:
			values := slices.Clone(f.Values)
			slices.Sort(values)
			canonical[f.Column] = strings.Join(slices.Compact(values), ",")
		}
	}

	// encoding/json writes map keys in sorted order.
	data, err := json.Marshal(canonical)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// CacheKey derives the cache key of a page request:
// domain:page:limit:JSON(filters), followed by :sortBy:sortOrder when a sort
// column is set.
func CacheKey(domain string, p PaginationParams) string {
	key := fmt.Sprintf("%s:%d:%d:%s", domain, p.Page, p.Limit, p.CanonicalFilters())
	if p.SortBy != "" {
		key += fmt.Sprintf(":%s:%s", p.SortBy, p.SortOrder)
	}
	return key
}

// ToQuery builds the source query for the page.
func (p PaginationParams) ToQuery(table string) Query {
	from, to := p.Range()
	return Query{
		Table:   table,
		Filters: BuildFilters(p.Filters),
		Sort:    p.Sort(),
		From:    from,
		To:      to,
	}
}

// PageMeta contains pagination metadata
type PageMeta struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// NewPageMeta computes the metadata of a page.
func NewPageMeta(page, limit, total int) PageMeta {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return PageMeta{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

// PaginatedResult represents a paginated response with metadata
type PaginatedResult[T any] struct {
	Data       []T      `json:"data"`
	Pagination PageMeta `json:"pagination"`
}

// NewPaginatedResult builds a result for the rows of one page.
func NewPaginatedResult[T any](data []T, p PaginationParams, total int) PaginatedResult[T] {
	if data == nil {
		data = []T{}
	}
	return PaginatedResult[T]{
		Data:       data,
		Pagination: NewPageMeta(p.Page, p.Limit, total),
	}
}

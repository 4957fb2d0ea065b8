package repository

import (
	"context"
	"sort"
	"strings"
)

// Source is the external data store the pagination layer reads from. It must
// support equality and set-membership filters, single column sorting and
// contiguous range reads with an exact total count.
//
// Select decodes the matching rows of q into dest, which must be a pointer to
// a slice, and returns the total number of rows matching the filters (ignoring
// the range).
type Source interface {
	Select(ctx context.Context, q Query, dest any) (total int, err error)
}

// FilterOperator represents comparison operators
type FilterOperator string

const (
	Equals   FilterOperator = "eq"
	InFilter FilterOperator = "in"
)

// Filter is a single column condition.
type Filter struct {
	Column   string
	Operator FilterOperator
	Value    string   // used by Equals
	Values   []string // used by InFilter
}

// Sort orders the result by one column.
type Sort struct {
	Column    string
	Ascending bool
}

// Query is a filtered, sorted range read against one table. From and To are
// zero-based and inclusive.
type Query struct {
	Table   string
	Filters []Filter
	Sort    *Sort
	From    int
	To      int
}

// Limit returns the number of rows the range covers.
func (q Query) Limit() int {
	return q.To - q.From + 1
}

// BuildFilters turns a filter map into conditions. A value containing a comma
// becomes a set-membership match on its trimmed, non-empty parts; any other
// non-empty value becomes an equality match. Empty values are skipped. The
// result is ordered by column so queries are reproducible.
func BuildFilters(filters map[string]string) []Filter {
	if len(filters) == 0 {
		return nil
	}

	columns := make([]string, 0, len(filters))
	for column := range filters {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	out := make([]Filter, 0, len(columns))
	for _, column := range columns {
		value := filters[column]
		if value == "" {
			continue
		}

		if !strings.Contains(value, ",") {
			out = append(out, Filter{Column: column, Operator: Equals, Value: value})
			continue
		}

		var values []string
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				values = append(values, part)
			}
		}
		if len(values) == 0 {
			continue
		}
		out = append(out, Filter{Column: column, Operator: InFilter, Values: values})
	}
	return out
}

// Matches reports whether a stringified column value satisfies the filter.
func (f Filter) Matches(value string) bool {
	switch f.Operator {
	case Equals:
		return value == f.Value
	case InFilter:
		for _, v := range f.Values {
			if v == value {
				return true
			}
		}
	}
	return false
}

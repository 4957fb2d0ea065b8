// Package memory provides an in-process repository.Source. It backs tests,
// local development and the CLI demo mode with the same filter, sort and range
// semantics as the hosted backend.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"pmadmin-backend/internal/repository"
)

type row = map[string]any

// Source stores rows per table as decoded JSON objects.
type Source struct {
	mu      sync.RWMutex
	tables  map[string][]row
	queries []repository.Query
	failure error
	logger  *zap.Logger
}

var _ repository.Source = (*Source)(nil)

// NewSource creates an empty source.
func NewSource(logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{
		tables: make(map[string][]row),
		logger: logger,
	}
}

// Insert appends rows to table. Each row is round-tripped through JSON so the
// stored shape matches what the hosted backend returns.
func (s *Source) Insert(table string, rows ...any) error {
	decoded := make([]row, 0, len(rows))
	for _, r := range rows {
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to encode %s row: %w", table, err)
		}
		var m row
		if err := json.Unmarshal(data, &m); err != nil {
			return fmt.Errorf("failed to decode %s row: %w", table, err)
		}
		decoded = append(decoded, m)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[table] = append(s.tables[table], decoded...)
	return nil
}

// FailWith makes every following Select return err. Pass nil to recover.
func (s *Source) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failure = err
}

// Queries returns every query executed so far.
func (s *Source) Queries() []repository.Query {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]repository.Query, len(s.queries))
	copy(out, s.queries)
	return out
}

// QueryCount returns how many queries reached the source.
func (s *Source) QueryCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.queries)
}

// Select implements repository.Source.
func (s *Source) Select(ctx context.Context, q repository.Query, dest any) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	s.queries = append(s.queries, q)
	failure := s.failure
	rows := s.tables[q.Table]
	matched := make([]row, 0, len(rows))
	for _, r := range rows {
		if matches(r, q.Filters) {
			matched = append(matched, r)
		}
	}
	s.mu.Unlock()

	if failure != nil {
		return 0, failure
	}

	if q.Sort != nil {
		column, asc := q.Sort.Column, q.Sort.Ascending
		sort.SliceStable(matched, func(i, j int) bool {
			a, b := matched[i][column], matched[j][column]
			if a == nil || b == nil {
				// Nulls last in both directions.
				return a != nil && b == nil
			}
			if asc {
				return less(a, b)
			}
			return less(b, a)
		})
	}

	total := len(matched)
	var page []row
	if from, to := clamp(q.From, total), clamp(q.To+1, total); from < to {
		page = matched[from:to]
	}

	data, err := json.Marshal(page)
	if err != nil {
		return 0, fmt.Errorf("failed to encode %s page: %w", q.Table, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return 0, fmt.Errorf("failed to decode %s page: %w", q.Table, err)
	}

	s.logger.Debug("Served in-memory query",
		zap.String("table", q.Table),
		zap.Int("filters", len(q.Filters)),
		zap.Int("total", total),
		zap.Int("returned", len(page)),
	)
	return total, nil
}

func matches(r row, filters []repository.Filter) bool {
	for _, f := range filters {
		value, ok := r[f.Column]
		if !ok || !f.Matches(stringify(value)) {
			return false
		}
	}
	return true
}

func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}

// stringify renders a decoded JSON value the way PostgREST compares filter
// values: as text.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		data, _ := json.Marshal(t)
		return string(data)
	}
}

// less orders numbers numerically and everything else as text.
func less(a, b any) bool {
	fa, aNum := a.(float64)
	fb, bNum := b.(float64)
	if aNum && bNum {
		return fa < fb
	}
	return stringify(a) < stringify(b)
}

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	prettytable "github.com/jedib0t/go-pretty/v6/table"

	"pmadmin-backend/internal/infrastructure/cache"
)

// printPage renders the rows of one page as a table followed by its
// pagination metadata.
func printPage(out io.Writer, title string, columns []string, page pageResult) error {
	if page.err != nil {
		return page.err
	}

	t := prettytable.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(prettytable.StyleRounded)
	t.SetTitle(title)

	header := make(prettytable.Row, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	t.AppendHeader(header)

	for _, row := range page.rows {
		fields, err := toFields(row)
		if err != nil {
			return err
		}
		cells := make(prettytable.Row, len(columns))
		for i, c := range columns {
			cells[i] = formatCell(fields[c])
		}
		t.AppendRow(cells)
	}
	t.Render()

	m := page.meta
	_, err := fmt.Fprintf(out, "Page %d of %d (%s rows, %d per page)\n",
		m.Page, m.TotalPages, humanize.Comma(int64(m.Total)), m.Limit)
	return err
}

// toFields flattens a row into its JSON fields.
func toFields(row any) (map[string]any, error) {
	data, err := json.Marshal(row)
	if err != nil {
		return nil, fmt.Errorf("failed to encode row: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode row: %w", err)
	}
	return fields, nil
}

func formatCell(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		if ts, err := time.Parse(time.RFC3339, value); err == nil {
			return ts.Format("2006-01-02 15:04")
		}
		return value
	case float64:
		return humanize.Comma(int64(value))
	default:
		return fmt.Sprint(value)
	}
}

// printStats renders cache statistics.
func printStats(out io.Writer, stats []cache.Stats) {
	t := prettytable.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(prettytable.StyleRounded)
	t.AppendHeader(prettytable.Row{"Cache", "Valid", "Expired", "Max", "Hits", "Misses", "Evictions", "Hit rate"})

	for _, s := range stats {
		t.AppendRow(prettytable.Row{
			s.Name,
			humanize.Comma(int64(s.Valid)),
			humanize.Comma(int64(s.Expired)),
			humanize.Comma(int64(s.MaxSize)),
			humanize.Comma(s.Hits),
			humanize.Comma(s.Misses),
			humanize.Comma(s.Evictions),
			fmt.Sprintf("%.1f%%", s.HitRate*100),
		})
	}
	t.Render()
}

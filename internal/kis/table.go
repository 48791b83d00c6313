package kis

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// dedupeRows removes duplicate rows while preserving first-seen order.
// The gateway occasionally repeats the boundary row of one page at the
// head of the next, so aggregated multi-page results pass through here.
func dedupeRows[T comparable](rows []T) []T {
	if len(rows) < 2 {
		return rows
	}
	seen := make(map[T]struct{}, len(rows))
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

// Table is an ordered-column tabular result used by the CLI commands.
type Table struct {
	Columns []string
	Rows    [][]string
}

// NewTable creates a table with the given column order.
func NewTable(columns ...string) *Table {
	return &Table{Columns: columns}
}

// Append adds one row. Short rows are padded to the column count.
func (t *Table) Append(row ...string) {
	for len(row) < len(t.Columns) {
		row = append(row, "")
	}
	t.Rows = append(t.Rows, row)
}

// Empty reports whether the table has no rows.
func (t *Table) Empty() bool {
	return len(t.Rows) == 0
}

// Render writes the table as aligned text.
func (t *Table) Render(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, col := range t.Columns {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, col)
	}
	fmt.Fprintln(tw)
	for _, row := range t.Rows {
		for i, cell := range row {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, cell)
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

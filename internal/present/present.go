// Package present turns SPARQL result sets into display tables and writes
// them as aligned text, JSON, or CSV.
package present

import (
	"fmt"

	"ontomaint/internal/domain"
)

// NoResults is printed in place of an empty table.
const NoResults = "No results."

// Cell is one table value. Unbound cells have Bound == false.
type Cell struct {
	Text  string
	Bound bool
}

// String returns the text, or "" when unbound.
func (c Cell) String() string { return c.Text }

// Line returns the text for single-line formats, "None" when unbound.
func (c Cell) Line() string {
	if !c.Bound {
		return domain.NoneValue
	}
	return c.Text
}

// Table is a result set shaped for display.
type Table struct {
	Headers []string
	Rows    [][]Cell
}

// Empty reports whether the table has no rows.
func (t *Table) Empty() bool { return t == nil || len(t.Rows) == 0 }

// Strings returns the rows with unbound cells as "".
func (t *Table) Strings() [][]string {
	if t == nil {
		return nil
	}
	out := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = make([]string, len(row))
		for j, c := range row {
			out[i][j] = c.String()
		}
	}
	return out
}

// Column returns the index of the named header, or -1.
func (t *Table) Column(name string) int {
	for i, h := range t.Headers {
		if h == name {
			return i
		}
	}
	return -1
}

// Options controls how terms become cells.
type Options struct {
	// Prettify shortens IRIs and blank nodes to their local names.
	// Literals are never shortened.
	Prettify bool
	// Columns are preferred header names. They are used only when their
	// count equals the row width.
	Columns []string
}

// Present shapes rs for display. Headers are opts.Columns when they fit,
// else the projection variables when every row has one value per variable,
// else col1..colN.
func Present(rs *domain.ResultSet, opts Options) *Table {
	t := &Table{}
	if rs == nil {
		return t
	}

	width := len(rs.Vars)
	uniform := true
	for _, row := range rs.Rows {
		if len(row) != len(rs.Vars) {
			uniform = false
		}
		if len(row) > width {
			width = len(row)
		}
	}

	switch {
	case len(opts.Columns) > 0 && len(opts.Columns) == width:
		t.Headers = append([]string(nil), opts.Columns...)
	case uniform && len(rs.Vars) > 0:
		t.Headers = append([]string(nil), rs.Vars...)
	default:
		t.Headers = make([]string, width)
		for i := range t.Headers {
			t.Headers[i] = fmt.Sprintf("col%d", i+1)
		}
	}

	t.Rows = make([][]Cell, 0, len(rs.Rows))
	for _, row := range rs.Rows {
		cells := make([]Cell, width)
		for i := 0; i < width; i++ {
			cells[i] = cell(row.At(i), opts.Prettify)
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}

func cell(term *domain.Term, prettify bool) Cell {
	if term == nil {
		return Cell{}
	}
	if prettify {
		return Cell{Text: domain.LocalName(term.Value), Bound: true}
	}
	return Cell{Text: term.Value, Bound: true}
}

// FromStrings builds a table of bound cells.
func FromStrings(headers []string, rows [][]string) *Table {
	t := &Table{Headers: append([]string(nil), headers...), Rows: make([][]Cell, 0, len(rows))}
	for _, row := range rows {
		cells := make([]Cell, len(row))
		for i, v := range row {
			cells[i] = Cell{Text: v, Bound: true}
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}

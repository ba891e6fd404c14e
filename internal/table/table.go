// Package table holds the tabular results every parser mode produces.
package table

import "fmt"

// Table is a header row followed by data rows, all of the header's width.
type Table struct {
	Header []string
	Rows   [][]string

	numeric map[int]bool
}

// New creates an empty table with the given header.
func New(header ...string) *Table {
	return &Table{Header: header}
}

// Append adds a row. It panics if the row width differs from the header's,
// since that is a programming error in the parser that built the table.
func (t *Table) Append(cells ...string) {
	if len(cells) != len(t.Header) {
		panic(fmt.Sprintf("table: row has %d cells, header has %d", len(cells), len(t.Header)))
	}
	t.Rows = append(t.Rows, cells)
}

// Records returns the header followed by the rows.
func (t *Table) Records() [][]string {
	out := make([][]string, 0, len(t.Rows)+1)
	out = append(out, t.Header)
	out = append(out, t.Rows...)
	return out
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// SetNumeric marks columns whose cells hold integers. Renderers that have
// typed cells store them as numbers; every other column stays text.
func (t *Table) SetNumeric(cols ...int) {
	if t.numeric == nil {
		t.numeric = make(map[int]bool, len(cols))
	}
	for _, c := range cols {
		if c < 0 || c >= len(t.Header) {
			panic(fmt.Sprintf("table: column %d out of range", c))
		}
		t.numeric[c] = true
	}
}

// IsNumeric reports whether col was marked with SetNumeric.
func (t *Table) IsNumeric(col int) bool {
	return t.numeric[col]
}

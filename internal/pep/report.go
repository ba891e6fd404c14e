package pep

import (
	"sort"
	"strconv"

	"github.com/agatinet31/pep-parser/internal/table"
)

const (
	HeaderStatus = "Status"
	HeaderCount  = "Count"
	TotalLabel   = "Total"
)

// Tally counts PEPs per authoritative status name.
type Tally map[string]int

// Row is one status line of a report.
type Row struct {
	Name  string
	Count int
}

// Report is the finished status summary: a header, one row per status
// sorted by name, and the total.
type Report struct {
	Header [2]string
	Rows   []Row
	Total  int
}

// Assemble builds a report from a tally. The total is the sum of the counts.
func Assemble(tally Tally) *Report {
	rows := make([]Row, 0, len(tally))
	total := 0
	for name, count := range tally {
		rows = append(rows, Row{Name: name, Count: count})
		total += count
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Name < rows[j].Name
	})

	return &Report{
		Header: [2]string{HeaderStatus, HeaderCount},
		Rows:   rows,
		Total:  total,
	}
}

// Table renders the report as string rows, ending with the total row.
func (r *Report) Table() *table.Table {
	t := table.New(r.Header[0], r.Header[1])
	t.SetNumeric(1)
	for _, row := range r.Rows {
		t.Append(row.Name, strconv.Itoa(row.Count))
	}
	t.Append(TotalLabel, strconv.Itoa(r.Total))
	return t
}

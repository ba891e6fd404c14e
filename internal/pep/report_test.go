package pep

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestAssemble(t *testing.T) {
	report := Assemble(Tally{"Withdrawn": 2, "Active": 5, "Final": 10, "Deferred": 1})

	assert.Equal(t, [2]string{"Status", "Count"}, report.Header)
	assert.Equal(t, []Row{
		{"Active", 5},
		{"Deferred", 1},
		{"Final", 10},
		{"Withdrawn", 2},
	}, report.Rows)
	assert.Equal(t, 18, report.Total)
}

func TestAssemble_Empty(t *testing.T) {
	report := Assemble(Tally{})

	assert.Empty(t, report.Rows)
	assert.Zero(t, report.Total)
	assert.Equal(t, [][]string{{"Status", "Count"}, {"Total", "0"}}, report.Table().Records())
}

func TestReport_Table(t *testing.T) {
	tbl := Assemble(Tally{"Final": 2, "Active": 1}).Table()

	assert.Equal(t, [][]string{
		{"Status", "Count"},
		{"Active", "1"},
		{"Final", "2"},
		{"Total", "3"},
	}, tbl.Records())

	for _, rec := range tbl.Records() {
		assert.Len(t, rec, 2)
	}
	assert.False(t, tbl.IsNumeric(0))
	assert.True(t, tbl.IsNumeric(1))
}

func TestAssemble_TotalIsSumOfRows(t *testing.T) {
	tests := []struct {
		name  string
		tally Tally
		want  *Report
	}{
		{
			name:  "single status",
			tally: Tally{"Final": 3},
			want:  &Report{Header: [2]string{"Status", "Count"}, Rows: []Row{{"Final", 3}}, Total: 3},
		},
		{
			name:  "case sensitive ordering",
			tally: Tally{"active": 1, "Active": 1, "Zeta": 4},
			want: &Report{
				Header: [2]string{"Status", "Count"},
				Rows:   []Row{{"Active", 1}, {"Zeta", 4}, {"active", 1}},
				Total:  6,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Assemble(tt.tally)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Assemble() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

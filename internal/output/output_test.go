package output

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/agatinet31/pep-parser/internal/logger"
	"github.com/agatinet31/pep-parser/internal/storage"
	"github.com/agatinet31/pep-parser/internal/table"
)

func sampleTable() *table.Table {
	t := table.New("Status", "Count")
	t.Append("Active", "31")
	t.Append("Final", "305")
	t.Append("Total", "336")
	return t
}

func testOptions(t *testing.T, stdout *bytes.Buffer) Options {
	t.Helper()
	results, err := storage.New(filepath.Join(t.TempDir(), "results"))
	require.NoError(t, err)
	return Options{
		Stdout:  stdout,
		Results: results,
		Mode:    "pep",
		Now:     func() time.Time { return time.Date(2026, 3, 1, 9, 5, 7, 0, time.UTC) },
		Logger:  logger.New(logger.LevelError, &bytes.Buffer{}),
	}
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"console": FormatConsole,
		"PRETTY":  FormatPretty,
		" file ":  FormatFile,
		"xlsx":    FormatXLSX,
		"":        FormatConsole,
		"html":    FormatConsole,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseFormat(in), "ParseFormat(%q)", in)
	}
}

func TestWrite_Console(t *testing.T) {
	var out bytes.Buffer
	path, err := Write(FormatConsole, sampleTable(), testOptions(t, &out))
	require.NoError(t, err)
	assert.Empty(t, path)

	assert.Equal(t, "Status Count\nActive 31\nFinal 305\nTotal 336\n", out.String())
}

func TestWrite_Pretty(t *testing.T) {
	var out bytes.Buffer
	_, err := Write(FormatPretty, sampleTable(), testOptions(t, &out))
	require.NoError(t, err)

	text := out.String()
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	assert.Contains(t, text, "Status")
	assert.Contains(t, text, "Final")
	assert.Contains(t, text, "336")
	// top border, header, separator, three rows, bottom border
	assert.Len(t, lines, 7)
	assert.True(t, strings.HasPrefix(lines[0], "┌"), "first line %q should be a border", lines[0])
}

func TestWrite_File(t *testing.T) {
	opts := testOptions(t, &bytes.Buffer{})
	path, err := Write(FormatFile, sampleTable(), opts)
	require.NoError(t, err)

	assert.Equal(t, "pep_2026-03-01_09-05-07.csv", filepath.Base(path))
	assert.Equal(t, opts.Results.Dir(), filepath.Dir(path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, sampleTable().Records(), records)
}

func TestWrite_FileQuotesEveryField(t *testing.T) {
	tbl := table.New("Article link", "Title", "Editor, Author")
	tbl.Append("https://docs.python.org/3/whatsnew/3.12.html", `The "walrus" release`, "Editor: Adam Turner")

	opts := testOptions(t, &bytes.Buffer{})
	opts.Mode = "whats-new"
	path, err := Write(FormatFile, tbl, opts)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `"Article link","Title","Editor, Author"`+"\n"+
		`"https://docs.python.org/3/whatsnew/3.12.html","The ""walrus"" release","Editor: Adam Turner"`+"\n",
		string(data))
}

func TestWrite_XLSX(t *testing.T) {
	opts := testOptions(t, &bytes.Buffer{})
	path, err := Write(FormatXLSX, sampleTable(), opts)
	require.NoError(t, err)
	assert.Equal(t, "pep_2026-03-01_09-05-07.xlsx", filepath.Base(path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	assert.Equal(t, sampleTable().Records(), rows)
}

func TestWrite_XLSXKeepsTextColumns(t *testing.T) {
	tbl := table.New("Documentation link", "Version", "Status")
	tbl.Append("https://docs.python.org/3.13/", "007", "stable")

	opts := testOptions(t, &bytes.Buffer{})
	path, err := Write(FormatXLSX, tbl, opts)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	sheet := f.GetSheetName(0)
	value, err := f.GetCellValue(sheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, "007", value)

	cellType, err := f.GetCellType(sheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, excelize.CellTypeSharedString, cellType)
}

func TestWrite_XLSXNumericColumn(t *testing.T) {
	opts := testOptions(t, &bytes.Buffer{})
	tbl := sampleTable()
	tbl.SetNumeric(1)
	path, err := Write(FormatXLSX, tbl, opts)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	sheet := f.GetSheetName(0)
	countType, err := f.GetCellType(sheet, "B4")
	require.NoError(t, err)
	assert.NotEqual(t, excelize.CellTypeSharedString, countType, "counts are stored as numbers")

	headerType, err := f.GetCellType(sheet, "B1")
	require.NoError(t, err)
	assert.Equal(t, excelize.CellTypeSharedString, headerType)
}

func TestWrite_FileWithoutResultsDir(t *testing.T) {
	opts := testOptions(t, &bytes.Buffer{})
	opts.Results = nil

	_, err := Write(FormatFile, sampleTable(), opts)
	assert.Error(t, err)
}

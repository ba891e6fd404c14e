// Package output renders parser results to the console or to result files.
package output

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/xuri/excelize/v2"

	"github.com/agatinet31/pep-parser/internal/logger"
	"github.com/agatinet31/pep-parser/internal/storage"
	"github.com/agatinet31/pep-parser/internal/table"
)

// Format selects how results are rendered
type Format string

const (
	FormatConsole Format = "console"
	FormatPretty  Format = "pretty"
	FormatFile    Format = "file"
	FormatXLSX    Format = "xlsx"
)

// DefaultTimeFormat stamps result file names.
const DefaultTimeFormat = "2006-01-02_15-04-05"

// Formats lists the accepted format names.
func Formats() []Format {
	return []Format{FormatConsole, FormatPretty, FormatFile, FormatXLSX}
}

// ParseFormat maps a name to a Format. Unknown names fall back to console.
func ParseFormat(s string) Format {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats() {
		if f == known {
			return f
		}
	}
	return FormatConsole
}

// Options carries what the renderers need besides the table.
type Options struct {
	Stdout     io.Writer        // console and pretty output; defaults to os.Stdout
	Results    *storage.Storage // required for file and xlsx
	Mode       string           // parser mode, used in file names
	TimeFormat string
	Now        func() time.Time
	Logger     *logger.Logger
}

// Write renders t in format. For file formats it returns the written path.
func Write(format Format, t *table.Table, opts Options) (string, error) {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Logger == nil {
		opts.Logger = logger.Default()
	}

	switch format {
	case FormatPretty:
		return "", writePretty(opts.Stdout, t)
	case FormatFile:
		return writeFile(t, opts, "csv", encodeCSV)
	case FormatXLSX:
		return writeFile(t, opts, "xlsx", encodeXLSX)
	default:
		return "", writeConsole(opts.Stdout, t)
	}
}

// writeConsole prints each row with cells separated by a space
func writeConsole(w io.Writer, t *table.Table) error {
	for _, rec := range t.Records() {
		if _, err := fmt.Fprintln(w, strings.Join(rec, " ")); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
	}
	return nil
}

// writePretty prints a bordered, left-aligned table
func writePretty(w io.Writer, t *table.Table) error {
	cell := lipgloss.NewStyle().Padding(0, 1)
	tbl := lgtable.New().
		Border(lipgloss.NormalBorder()).
		Headers(t.Header...).
		Rows(t.Rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			return cell
		})

	if _, err := fmt.Fprintln(w, tbl.String()); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

func fileName(opts Options, ext string) string {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	layout := opts.TimeFormat
	if layout == "" {
		layout = DefaultTimeFormat
	}
	return fmt.Sprintf("%s_%s.%s", opts.Mode, now().Format(layout), ext)
}

func writeFile(t *table.Table, opts Options, ext string, encode func(io.Writer, *table.Table) error) (string, error) {
	if opts.Results == nil {
		return "", fmt.Errorf("no results directory configured")
	}

	f, err := opts.Results.Create(fileName(opts, ext))
	if err != nil {
		return "", err
	}

	if err := encode(f, t); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", f.Name(), err)
	}

	opts.Logger.Info("Results saved", logger.Fields{"path": f.Name(), "rows": t.Len()})
	return f.Name(), nil
}

// encodeCSV writes the unix dialect: every field quoted, embedded quotes
// doubled, rows ended by \n.
func encodeCSV(w io.Writer, t *table.Table) error {
	bw := bufio.NewWriter(w)
	for _, rec := range t.Records() {
		for j, v := range rec {
			if j > 0 {
				bw.WriteByte(',')
			}
			bw.WriteByte('"')
			bw.WriteString(strings.ReplaceAll(v, `"`, `""`))
			bw.WriteByte('"')
		}
		bw.WriteByte('\n')
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing CSV: %w", err)
	}
	return nil
}

func encodeXLSX(w io.Writer, t *table.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, rec := range t.Records() {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("addressing row %d: %w", i+1, err)
		}

		values := make([]interface{}, len(rec))
		for j, v := range rec {
			if i > 0 && t.IsNumeric(j) {
				if n, err := strconv.Atoi(v); err == nil {
					values[j] = n
					continue
				}
			}
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing XLSX: %w", err)
	}
	return nil
}

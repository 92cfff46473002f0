// Package tabular loads loosely structured reference tables (CSV or XLSX) and
// resolves logical columns against headers whose names vary between sources.
package tabular

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/cases"
)

// Table errors.
var (
	ErrEmptyTable        = errors.New("table has no rows")
	ErrUnsupportedFormat = errors.New("unsupported table format")
)

// Frame is a read-only view over a loaded table with typed columns.
type Frame struct {
	df     dataframe.DataFrame
	folded map[string]string // folded header -> original header
}

// foldName normalizes a header for case-insensitive comparison.
// Casers are stateful, so one is built per call.
func foldName(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

func newFrame(df dataframe.DataFrame) (*Frame, error) {
	if df.Err != nil {
		return nil, fmt.Errorf("building frame: %w", df.Err)
	}
	if df.Nrow() == 0 {
		return nil, ErrEmptyTable
	}

	folded := make(map[string]string, df.Ncol())
	for _, name := range df.Names() {
		folded[foldName(name)] = name
	}

	return &Frame{df: df, folded: folded}, nil
}

// ReadCSV reads a CSV stream with a header row, detecting column types.
func ReadCSV(r io.Reader) (*Frame, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.WithLazyQuotes(true),
	)
	return newFrame(df)
}

// FromRecords builds a frame from string records, the first being the header.
func FromRecords(records [][]string) (*Frame, error) {
	if len(records) < 2 {
		return nil, ErrEmptyTable
	}

	// Spreadsheet rows may be ragged; pad them to the header width.
	width := len(records[0])
	padded := make([][]string, len(records))
	for i, row := range records {
		if len(row) >= width {
			padded[i] = row[:width]
			continue
		}
		r := make([]string, width)
		copy(r, row)
		padded[i] = r
	}

	df := dataframe.LoadRecords(padded,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
	)
	return newFrame(df)
}

// LoadFile opens a CSV or XLSX table. XLSX files are read from their first sheet.
func LoadFile(path string) (*Frame, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt", "":
		f, err := os.Open(path) //nolint:gosec // path comes from operator configuration
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return ReadCSV(f)
	case ".xlsx", ".xlsm":
		return readXLSX(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func readXLSX(path string) (*Frame, error) {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyTable
	}

	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}

	return FromRecords(rows)
}

// Len returns the number of data rows.
func (f *Frame) Len() int {
	return f.df.Nrow()
}

// Columns returns the original column names in table order.
func (f *Frame) Columns() []string {
	return f.df.Names()
}

// IsNumeric reports whether a column holds integer or float values.
func (f *Frame) IsNumeric(col string) bool {
	t := f.df.Col(col).Type()
	return t == series.Int || t == series.Float
}

// IsText reports whether a column holds string values.
func (f *Frame) IsText(col string) bool {
	return f.df.Col(col).Type() == series.String
}

// Strings returns a column's values as strings.
func (f *Frame) Strings(col string) []string {
	return f.df.Col(col).Records()
}

// Floats returns a column's values as floats. Unparsable cells are NaN.
func (f *Frame) Floats(col string) []float64 {
	return f.df.Col(col).Float()
}

// lookup returns the original header for a case-insensitive name.
func (f *Frame) lookup(name string) (string, bool) {
	orig, ok := f.folded[foldName(name)]
	return orig, ok
}

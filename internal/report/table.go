// Package report reads the roster and claims tables and writes the faculty
// summary and publication assignment tables.
package report

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrMissingColumn is returned when an input table lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// ErrNoRows is returned when an input table has a header but no data.
var ErrNoRows = errors.New("table has no data rows")

// Table is a header plus string rows. Rows may be shorter than the header.
type Table struct {
	Name   string     `json:"name,omitempty"`
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// ReadFile reads a CSV or XLSX table, chosen by file extension.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "report: open %s", path)
	}
	defer f.Close() //nolint:errcheck
	return Read(filepath.Base(path), f)
}

// Read reads a table from r. Names ending in .xlsx are parsed as workbooks
// (first sheet); anything else as CSV.
func Read(name string, r io.Reader) (*Table, error) {
	var (
		t   *Table
		err error
	)
	if strings.EqualFold(filepath.Ext(name), ".xlsx") {
		data, readErr := io.ReadAll(r)
		if readErr != nil {
			return nil, eris.Wrapf(readErr, "report: read %s", name)
		}
		t, err = ReadXLSX(data)
	} else {
		t, err = ReadCSV(r)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "report: parse %s", name)
	}
	t.Name = name
	return t, nil
}

// ReadCSV parses a CSV table. A UTF-8 or UTF-16 byte order mark is honored
// and stripped.
func ReadCSV(r io.Reader) (*Table, error) {
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	reader := csv.NewReader(transform.NewReader(r, dec))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "csv: read rows")
	}
	return fromRecords(records), nil
}

// ReadXLSX parses the first sheet of an XLSX workbook.
func ReadXLSX(data []byte) (*Table, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("xlsx: workbook has no sheets")
	}

	var records [][]string
	for _, row := range f.Sheets[0].Rows {
		if row == nil {
			continue
		}
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		records = append(records, cells)
	}
	return fromRecords(records), nil
}

func fromRecords(records [][]string) *Table {
	t := &Table{}
	if len(records) == 0 {
		return t
	}
	t.Header = make([]string, len(records[0]))
	for i, h := range records[0] {
		t.Header[i] = strings.TrimSpace(h)
	}
	for _, rec := range records[1:] {
		if blankRow(rec) {
			continue
		}
		t.Rows = append(t.Rows, rec)
	}
	return t
}

func blankRow(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// columns maps header names to column indexes. Lookups are case-insensitive.
type columns map[string]int

func (t *Table) columns() columns {
	idx := make(columns, len(t.Header))
	for i, h := range t.Header {
		key := strings.ToLower(h)
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}
	return idx
}

func (c columns) has(name string) bool {
	_, ok := c[strings.ToLower(name)]
	return ok
}

// get returns the trimmed cell for name, or "" when the column or cell is absent.
func (c columns) get(row []string, name string) string {
	i, ok := c[strings.ToLower(name)]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (c columns) require(table string, names ...string) error {
	var missing []string
	for _, n := range names {
		if !c.has(n) {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return eris.Wrapf(ErrMissingColumn, "%s: %s", table, strings.Join(missing, ", "))
	}
	return nil
}

// WriteCSV writes t as CSV.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return eris.Wrap(err, "csv: write header")
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return eris.Wrap(err, "csv: write rows")
	}
	return nil
}

// WriteXLSX writes each table to its own sheet, named after Table.Name.
func WriteXLSX(w io.Writer, tables ...*Table) error {
	f := xlsx.NewFile()
	for i, t := range tables {
		name := sheetName(t.Name, i)
		sheet, err := f.AddSheet(name)
		if err != nil {
			return eris.Wrapf(err, "xlsx: add sheet %s", name)
		}
		addRow(sheet, t.Header)
		for _, row := range t.Rows {
			addRow(sheet, row)
		}
	}
	return eris.Wrap(f.Write(w), "xlsx: write")
}

func addRow(sheet *xlsx.Sheet, values []string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

// sheetName trims to Excel's 31 character limit and fills blanks.
func sheetName(name string, i int) string {
	name = strings.TrimSuffix(name, filepath.Ext(name))
	if name == "" {
		name = "Sheet" + strconv.Itoa(i+1)
	}
	if len(name) > 31 {
		name = name[:31]
	}
	return name
}

// Package table reads and writes the CSV results tables exchanged between
// experiment stages.
package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var (
	// ErrNotText indicates the input file is not a delimited text file.
	ErrNotText = errors.New("input is not a text table")
	// ErrMissingColumn indicates a required column is absent from the header.
	ErrMissingColumn = errors.New("missing column")
	// ErrEmptyTable indicates the input has no header row.
	ErrEmptyTable = errors.New("table has no header")
)

// Table is an in-memory CSV table. Missing values are empty cells.
type Table struct {
	Header []string
	Rows   [][]string
	index  map[string]int
}

// New builds a table from a header and rows.
func New(header []string, rows [][]string) *Table {
	t := &Table{Header: append([]string(nil), header...), Rows: rows}
	t.reindex()
	return t
}

// Read loads a CSV table from path.
func Read(path string) (*Table, error) {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("detect %s: %w", path, err)
	}
	if !isText(mtype) {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotText, path, mtype.String())
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open table: %w", err)
	}
	defer f.Close()

	t, err := ReadFrom(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return t, nil
}

// ReadFrom decodes a CSV table from r.
func ReadFrom(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrEmptyTable
	}

	header := records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	return New(header, records[1:]), nil
}

// Write stores the table at path, creating parent directories as needed.
func (t *Table) Write(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	if err := t.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// WriteTo encodes the table as CSV.
func (t *Table) WriteTo(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Header); err != nil {
		return err
	}
	if err := writer.WriteAll(t.Rows); err != nil {
		return err
	}
	return writer.Error()
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Has reports whether the header contains name.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Require returns ErrMissingColumn naming the first absent column.
func (t *Table) Require(names ...string) error {
	for _, name := range names {
		if !t.Has(name) {
			return fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
	}
	return nil
}

// Value returns the cell of row in column name. Short rows and missing
// columns yield an empty value.
func (t *Table) Value(row int, name string) string {
	col, ok := t.index[name]
	if !ok || row < 0 || row >= len(t.Rows) || col >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][col]
}

// Column returns every value of column name.
func (t *Table) Column(name string) ([]string, error) {
	if err := t.Require(name); err != nil {
		return nil, err
	}
	values := make([]string, len(t.Rows))
	for i := range t.Rows {
		values[i] = t.Value(i, name)
	}
	return values, nil
}

// SetColumn replaces column name with values, appending it when absent.
func (t *Table) SetColumn(name string, values []string) error {
	if len(values) != len(t.Rows) {
		return fmt.Errorf("column %q has %d values for %d rows", name, len(values), len(t.Rows))
	}

	col, ok := t.index[name]
	if !ok {
		col = len(t.Header)
		t.Header = append(t.Header, name)
		t.index[name] = col
	}

	for i, value := range values {
		row := t.Rows[i]
		for len(row) <= col {
			row = append(row, "")
		}
		row[col] = value
		t.Rows[i] = row
	}
	return nil
}

// Filter returns a new table holding the rows keep accepts.
func (t *Table) Filter(keep func(row int) bool) *Table {
	rows := make([][]string, 0, len(t.Rows))
	for i, row := range t.Rows {
		if keep(i) {
			rows = append(rows, append([]string(nil), row...))
		}
	}
	return New(t.Header, rows)
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.Header))
	for i, name := range t.Header {
		if _, exists := t.index[name]; !exists {
			t.index[name] = i
		}
	}
}

func isText(mtype *mimetype.MIME) bool {
	for m := mtype; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

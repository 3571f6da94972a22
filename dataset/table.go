// Package dataset holds the immutable, ordered tables replayed by a stream.
package dataset

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var (
	// ErrNotTabular is returned for input that cannot be shaped into columns and rows
	ErrNotTabular = errors.New("input is not tabular")

	// ErrEmpty is returned for a table without rows
	ErrEmpty = errors.New("table has no rows")
)

// Table is an ordered collection of rows sharing one column layout.
// It is never modified after construction.
type Table struct {
	columns []string
	rows    [][]interface{}
}

// New validates columns and rows and builds a table from copies of them
func New(columns []string, rows [][]interface{}) (*Table, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: no columns", ErrNotTabular)
	}

	var seen = make(map[string]struct{}, len(columns))
	for i, col := range columns {
		if col == "" {
			return nil, fmt.Errorf("%w: column %d has no name", ErrNotTabular, i)
		}
		if _, ok := seen[col]; ok {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrNotTabular, col)
		}
		seen[col] = struct{}{}
	}

	if len(rows) == 0 {
		return nil, ErrEmpty
	}

	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrNotTabular, i, len(row), len(columns))
		}
	}

	var t = &Table{columns: columns, rows: rows}
	return t.Clone(), nil
}

// FromRecords builds a table from column->value records.
// Columns are the sorted keys of the first record; every record must carry the same keys.
func FromRecords(records []map[string]interface{}) (*Table, error) {
	if records == nil {
		return nil, fmt.Errorf("%w: nil records", ErrNotTabular)
	}
	if len(records) == 0 {
		return nil, ErrEmpty
	}

	var columns = make([]string, 0, len(records[0]))
	for col := range records[0] {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	var rows = make([][]interface{}, len(records))
	for i, rec := range records {
		if len(rec) != len(columns) {
			return nil, fmt.Errorf("%w: record %d has %d fields, want %d", ErrNotTabular, i, len(rec), len(columns))
		}

		var row = make([]interface{}, len(columns))
		for j, col := range columns {
			v, ok := rec[col]
			if !ok {
				return nil, fmt.Errorf("%w: record %d has no field %q", ErrNotTabular, i, col)
			}
			row[j] = v
		}
		rows[i] = row
	}

	return &Table{columns: columns, rows: rows}, nil
}

// Clone returns a copy that shares no slices with t
func (t *Table) Clone() *Table {
	var columns = make([]string, len(t.columns))
	copy(columns, t.columns)

	var rows = make([][]interface{}, len(t.rows))
	for i, row := range t.rows {
		rows[i] = cloneValues(row)
	}

	return &Table{columns: columns, rows: rows}
}

func cloneValues(values []interface{}) []interface{} {
	var c = make([]interface{}, len(values))
	for i, v := range values {
		if b, ok := v.([]byte); ok {
			v = append([]byte(nil), b...)
		}
		c[i] = v
	}
	return c
}

// Head returns a table with the first n rows, or t itself when n is not positive or not smaller than Len
func (t *Table) Head(n int) *Table {
	if n <= 0 || n >= len(t.rows) {
		return t
	}

	return &Table{columns: t.columns, rows: t.rows[:n]}
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.rows)
}

// Columns returns a copy of the column names in order
func (t *Table) Columns() []string {
	var columns = make([]string, len(t.columns))
	copy(columns, t.columns)
	return columns
}

// Row returns the row at position i, which must be in [0, Len())
func (t *Table) Row(i int) Row {
	return Row{
		Index:   i,
		Columns: t.columns,
		Values:  t.rows[i],
	}
}

// Each calls fn for every row in input order and stops at the first error, which it returns
func (t *Table) Each(fn func(Row) error) error {
	for i := range t.rows {
		if err := fn(t.Row(i)); err != nil {
			return err
		}
	}
	return nil
}

// Row is a single table row identified by its zero based position.
// Columns and Values are shared with the table and must not be modified.
type Row struct {
	Index   int
	Columns []string
	Values  []interface{}
}

// Map returns the row as column->value
func (r Row) Map() map[string]interface{} {
	var m = make(map[string]interface{}, len(r.Columns))
	for i, col := range r.Columns {
		m[col] = r.Values[i]
	}
	return m
}

// String renders the row in column order, e.g. {city: Oslo, temp: 4.5}
func (r Row) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, col := range r.Columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(col)
		sb.WriteString(": ")
		sb.WriteString(formatValue(r.Values[i]))
	}
	sb.WriteByte('}')
	return sb.String()
}

func formatValue(v interface{}) string {
	switch value := v.(type) {
	case nil:
		return "null"
	case string:
		return value
	case []byte:
		return fmt.Sprintf("0x%x", value)
	case time.Time:
		return value.Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(value)
	}
}

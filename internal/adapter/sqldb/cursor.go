// Package sqldb adapts database/sql result sets to the reader package.
package sqldb

import (
	"database/sql"
	"fmt"
	"reflect"

	"github.com/guillermoBallester/pgreader/internal/core/domain"
	"github.com/guillermoBallester/pgreader/internal/core/port"
	"github.com/guillermoBallester/pgreader/internal/core/reader"
)

var (
	_ port.VendorCursor = (*Cursor)(nil)
	_ port.NestedOpener = (*Cursor)(nil)
)

// Cursor is a port.VendorCursor over *sql.Rows. database/sql does not report
// affected-row counts on rows, so RowsAffected is always -1.
type Cursor struct {
	rows *sql.Rows

	columns []port.Column
	values  []any // current row, scanned on first Value
	onRow   bool
	closed  bool
}

// NewCursor wraps rows and reads the first result set's column types.
func NewCursor(rows *sql.Rows) (*Cursor, error) {
	c := &Cursor{rows: rows}
	if err := c.describe(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Cursor) describe() error {
	types, err := c.rows.ColumnTypes()
	if err != nil {
		return fmt.Errorf("reading column types: %w", err)
	}
	c.columns = describe(types)
	return nil
}

func describe(types []*sql.ColumnType) []port.Column {
	cols := make([]port.Column, len(types))
	for i, ct := range types {
		col := port.Column{
			Name:         ct.Name(),
			Ordinal:      i,
			DataTypeName: ct.DatabaseTypeName(),
			FieldType:    ct.ScanType(),
			Length:       -1,
			Precision:    -1,
			Scale:        -1,
		}
		if col.FieldType == nil {
			col.FieldType = reflect.TypeFor[any]()
		}
		if nullable, ok := ct.Nullable(); ok {
			col.Nullable = port.NullableNo
			if nullable {
				col.Nullable = port.NullableYes
			}
		}
		if n, ok := ct.Length(); ok {
			col.Length = n
		}
		if p, s, ok := ct.DecimalSize(); ok {
			col.Precision, col.Scale = p, s
		}
		cols[i] = col
	}
	return cols
}

func (c *Cursor) Next() bool {
	if c.closed {
		return false
	}
	c.values = nil
	c.onRow = c.rows.Next()
	return c.onRow
}

func (c *Cursor) NextResultSet() bool {
	if c.closed {
		return false
	}
	c.values = nil
	c.onRow = false
	if !c.rows.NextResultSet() {
		return false
	}
	if err := c.describe(); err != nil {
		c.columns = nil
		return false
	}
	return true
}

func (c *Cursor) Err() error {
	return c.rows.Err()
}

func (c *Cursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.onRow = false
	return c.rows.Close()
}

func (c *Cursor) IsClosed() bool {
	return c.closed
}

func (c *Cursor) RowsAffected() int64 {
	return -1
}

func (c *Cursor) FieldCount() int {
	return len(c.columns)
}

func (c *Cursor) Columns() ([]port.Column, error) {
	if c.closed {
		return nil, domain.ErrClosed
	}
	return c.columns, nil
}

func (c *Cursor) check(ordinal int) error {
	if c.closed {
		return domain.ErrClosed
	}
	if err := domain.CheckOrdinal(ordinal, len(c.columns)); err != nil {
		return err
	}
	if !c.onRow {
		return domain.ErrNoRow
	}
	return nil
}

// skip discards a column during a single-column Scan.
type skip struct{}

func (skip) Scan(any) error { return nil }

// scanOne scans the column at ordinal into dest and discards the rest.
// database/sql allows Scan to be called more than once per row.
func (c *Cursor) scanOne(ordinal int, dest any) error {
	dests := make([]any, len(c.columns))
	for i := range dests {
		dests[i] = skip{}
	}
	dests[ordinal] = dest
	return c.rows.Scan(dests...)
}

func (c *Cursor) Value(ordinal int) (any, error) {
	if err := c.check(ordinal); err != nil {
		return nil, err
	}
	if c.values == nil {
		vals := make([]any, len(c.columns))
		dests := make([]any, len(vals))
		for i := range vals {
			dests[i] = &vals[i]
		}
		if err := c.rows.Scan(dests...); err != nil {
			return nil, fmt.Errorf("reading row values: %w", err)
		}
		c.values = vals
	}
	return c.values[ordinal], nil
}

func (c *Cursor) ScanColumn(ordinal int, dest any) error {
	if err := c.check(ordinal); err != nil {
		return err
	}
	return c.scanOne(ordinal, dest)
}

func (c *Cursor) raw(ordinal int) (sql.RawBytes, error) {
	if err := c.check(ordinal); err != nil {
		return nil, err
	}
	var raw sql.RawBytes
	if err := c.scanOne(ordinal, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("column %d: %w", ordinal, domain.ErrNullValue)
	}
	return raw, nil
}

func (c *Cursor) ReadBytes(ordinal int, fieldOffset int64, buf []byte) (int, error) {
	raw, err := c.raw(ordinal)
	if err != nil {
		return 0, err
	}
	if fieldOffset < 0 {
		return 0, fmt.Errorf("%w: negative field offset %d", domain.ErrIndexOutOfRange, fieldOffset)
	}
	if fieldOffset >= int64(len(raw)) {
		return 0, nil
	}
	return copy(buf, raw[fieldOffset:]), nil
}

func (c *Cursor) FieldLength(ordinal int) (int64, error) {
	raw, err := c.raw(ordinal)
	if err != nil {
		return 0, err
	}
	return int64(len(raw)), nil
}

// OpenNested opens a cursor returned by the driver as a column value.
func (c *Cursor) OpenNested(ordinal int) (port.VendorCursor, error) {
	if err := c.check(ordinal); err != nil {
		return nil, err
	}
	nested := new(sql.Rows)
	if err := c.scanOne(ordinal, nested); err != nil {
		return nil, fmt.Errorf("opening nested cursor in column %d: %w", ordinal, err)
	}
	return NewCursor(nested)
}

// Unwrap returns the underlying *sql.Rows.
func (c *Cursor) Unwrap() any {
	return c.rows
}

// Rows extracts the *sql.Rows behind r, if r wraps a database/sql Cursor.
func Rows(r *reader.Reader) (*sql.Rows, bool) {
	c, ok := r.Unwrap().(*Cursor)
	if !ok {
		return nil, false
	}
	return c.rows, true
}

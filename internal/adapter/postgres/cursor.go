package postgres

import (
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/guillermoBallester/pgreader/internal/core/domain"
	"github.com/guillermoBallester/pgreader/internal/core/port"
	"github.com/guillermoBallester/pgreader/internal/core/reader"
)

var _ port.VendorCursor = (*Cursor)(nil)

// Cursor is a port.VendorCursor over a single pgx result set.
type Cursor struct {
	rows    pgx.Rows
	typeMap *pgtype.Map
	release func() error

	columns  []port.Column
	values   []any // decoded current row, filled on first Value
	onRow    bool
	complete bool
	closed   bool
}

// NewCursor wraps rows. release, when non-nil, runs once on Close and frees
// whatever the rows borrowed (a pooled connection, a transaction).
func NewCursor(rows pgx.Rows, release func() error) *Cursor {
	c := &Cursor{rows: rows, release: release}
	if conn := rows.Conn(); conn != nil {
		c.typeMap = conn.TypeMap()
	} else {
		c.typeMap = pgtype.NewMap()
	}
	c.describe()
	return c
}

func (c *Cursor) describe() {
	if c.columns != nil {
		return
	}
	if fds := c.rows.FieldDescriptions(); fds != nil {
		c.columns = describe(c.typeMap, fds)
	}
}

func (c *Cursor) Next() bool {
	if c.closed || c.complete {
		return false
	}
	c.values = nil
	c.onRow = c.rows.Next()
	c.describe()
	if !c.onRow {
		c.complete = true
	}
	return c.onRow
}

// NextResultSet reports false: a pgx.Rows carries exactly one result set.
// Use Database.QueryBatch for multi-statement batches.
func (c *Cursor) NextResultSet() bool {
	if !c.closed && !c.complete {
		c.rows.Close()
		c.complete = true
		c.onRow = false
	}
	return false
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
	c.rows.Close()
	c.complete = true
	if c.release != nil {
		return c.release()
	}
	return nil
}

func (c *Cursor) IsClosed() bool {
	return c.closed
}

func (c *Cursor) RowsAffected() int64 {
	return rowsAffected(c.rows.CommandTag(), c.complete)
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

func (c *Cursor) Value(ordinal int) (any, error) {
	if err := c.check(ordinal); err != nil {
		return nil, err
	}
	if c.values == nil {
		vals, err := c.rows.Values()
		if err != nil {
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
	fd := c.rows.FieldDescriptions()[ordinal]
	return scanValue(c.typeMap, fd, c.rows.RawValues()[ordinal], dest)
}

func (c *Cursor) ReadBytes(ordinal int, fieldOffset int64, buf []byte) (int, error) {
	if err := c.check(ordinal); err != nil {
		return 0, err
	}
	fd := c.rows.FieldDescriptions()[ordinal]
	b, err := fieldBytes(c.typeMap, fd, c.rows.RawValues()[ordinal])
	if err != nil {
		return 0, err
	}
	return copyFrom(b, fieldOffset, buf)
}

func (c *Cursor) FieldLength(ordinal int) (int64, error) {
	if err := c.check(ordinal); err != nil {
		return 0, err
	}
	fd := c.rows.FieldDescriptions()[ordinal]
	b, err := fieldBytes(c.typeMap, fd, c.rows.RawValues()[ordinal])
	if err != nil {
		return 0, err
	}
	return int64(len(b)), nil
}

// Unwrap returns the underlying pgx.Rows.
func (c *Cursor) Unwrap() any {
	return c.rows
}

// Rows extracts the pgx.Rows behind r, if r wraps a pgx Cursor.
func Rows(r *reader.Reader) (pgx.Rows, bool) {
	c, ok := r.Unwrap().(*Cursor)
	if !ok {
		return nil, false
	}
	return c.rows, true
}

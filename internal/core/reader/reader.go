// Package reader adapts a driver-specific cursor to a uniform, typed,
// column-oriented read API.
//
// A Reader is a thin synchronous pass-through: it performs no retries and no
// buffering, and driver errors reach the caller unchanged. The only failures
// it raises itself are the coercion failures of Bool, Byte and Int16 and the
// malformed identifier failure of GUID.
//
// A Reader is not safe for concurrent use.
package reader

import (
	"fmt"
	"iter"
	"reflect"

	"github.com/guillermoBallester/pgreader/internal/core/domain"
	"github.com/guillermoBallester/pgreader/internal/core/port"
)

// Option configures a Reader.
type Option func(*Reader)

// WithNameMatching sets how Ordinal compares column names.
func WithNameMatching(m domain.NameMatching) Option {
	return func(r *Reader) {
		r.matching = m
	}
}

// Reader wraps exactly one vendor cursor and owns it.
type Reader struct {
	vendor   port.VendorCursor
	matching domain.NameMatching
	depth    int

	exhausted bool // current result set returned its last row
	closed    bool

	row   uint64 // bumped on every cursor move
	chars *charCache
}

type charCache struct {
	row     uint64
	ordinal int
	runes   []rune
}

// New wraps vendor. The Reader takes ownership and releases vendor on Close.
func New(vendor port.VendorCursor, opts ...Option) *Reader {
	r := &Reader{vendor: vendor}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Next advances to the next row. Once it has returned false for a result set
// it keeps returning false; check Err to tell exhaustion from failure.
func (r *Reader) Next() bool {
	if r.exhausted || r.closed {
		return false
	}
	r.row++
	r.chars = nil
	if !r.vendor.Next() {
		r.exhausted = true
		return false
	}
	return true
}

// NextResultSet advances to the next result set of a batch, resetting column
// metadata and row position.
func (r *Reader) NextResultSet() bool {
	if r.closed {
		return false
	}
	r.row++
	r.chars = nil
	if !r.vendor.NextResultSet() {
		return false
	}
	r.exhausted = false
	return true
}

// Err returns the error, if any, that ended iteration.
func (r *Reader) Err() error {
	return r.vendor.Err()
}

// Close releases the vendor cursor. Only the first call reaches the driver;
// later calls return nil.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.chars = nil
	return r.vendor.Close()
}

// IsClosed is valid at any time.
func (r *Reader) IsClosed() bool {
	return r.closed || r.vendor.IsClosed()
}

// FieldCount is valid at any time.
func (r *Reader) FieldCount() int {
	return r.vendor.FieldCount()
}

// RowsAffected is the count reported for a non-query statement, -1 otherwise.
func (r *Reader) RowsAffected() int64 {
	return r.vendor.RowsAffected()
}

// Depth is the nesting level: 0 for a top-level cursor, parent+1 for Data.
func (r *Reader) Depth() int {
	return r.depth
}

// Unwrap returns the owned vendor cursor for callers that need
// driver-specific features. The Reader still owns it.
func (r *Reader) Unwrap() port.VendorCursor {
	return r.vendor
}

// Records iterates the remaining rows of the current result set. The yielded
// record is the Reader itself, positioned on the row. Check Err afterwards.
func (r *Reader) Records() iter.Seq[port.Record] {
	return func(yield func(port.Record) bool) {
		for r.Next() {
			if !yield(r) {
				return
			}
		}
	}
}

func (r *Reader) column(ordinal int) (port.Column, error) {
	cols, err := r.vendor.Columns()
	if err != nil {
		return port.Column{}, err
	}
	if err := domain.CheckOrdinal(ordinal, len(cols)); err != nil {
		return port.Column{}, err
	}
	return cols[ordinal], nil
}

// Name returns the column name at ordinal.
func (r *Reader) Name(ordinal int) (string, error) {
	c, err := r.column(ordinal)
	return c.Name, err
}

// DataTypeName returns the provider's declared type name, e.g. "int4".
func (r *Reader) DataTypeName(ordinal int) (string, error) {
	c, err := r.column(ordinal)
	return c.DataTypeName, err
}

// ProviderType returns the provider's native type id (a PostgreSQL OID).
func (r *Reader) ProviderType(ordinal int) (uint32, error) {
	c, err := r.column(ordinal)
	return c.ProviderType, err
}

// FieldType returns the Go type category of the column's values.
func (r *Reader) FieldType(ordinal int) (reflect.Type, error) {
	c, err := r.column(ordinal)
	return c.FieldType, err
}

// Ordinal returns the ordinal of the named column. How names compare is set
// with WithNameMatching.
func (r *Reader) Ordinal(name string) (int, error) {
	cols, err := r.vendor.Columns()
	if err != nil {
		return -1, err
	}
	i := r.matching.Find(port.SchemaTable(cols).Names(), name)
	if i < 0 {
		return -1, fmt.Errorf("%w: %q", domain.ErrColumnNotFound, name)
	}
	return i, nil
}

// SchemaTable returns a copy of the current result set's column metadata.
func (r *Reader) SchemaTable() (port.SchemaTable, error) {
	cols, err := r.vendor.Columns()
	if err != nil {
		return nil, err
	}
	out := make(port.SchemaTable, len(cols))
	copy(out, cols)
	return out, nil
}

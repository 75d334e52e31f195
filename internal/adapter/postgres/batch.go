package postgres

import (
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/guillermoBallester/pgreader/internal/core/domain"
	"github.com/guillermoBallester/pgreader/internal/core/port"
)

var _ port.VendorCursor = (*BatchCursor)(nil)

// BatchCursor is a port.VendorCursor over the result sets of a
// multi-statement simple-protocol query. It starts positioned on the first
// result set.
type BatchCursor struct {
	mrr     *pgconn.MultiResultReader
	typeMap *pgtype.Map
	release func() error

	rr       *pgconn.ResultReader
	columns  []port.Column
	onRow    bool
	complete bool // current result set fully read
	tag      pgconn.CommandTag
	done     bool // no further result sets
	closed   bool
	err      error
}

// NewBatchCursor wraps mrr and advances to its first result set. release,
// when non-nil, runs once on Close.
func NewBatchCursor(mrr *pgconn.MultiResultReader, typeMap *pgtype.Map, release func() error) *BatchCursor {
	if typeMap == nil {
		typeMap = pgtype.NewMap()
	}
	b := &BatchCursor{mrr: mrr, typeMap: typeMap, release: release}
	b.advance()
	return b
}

func (b *BatchCursor) advance() bool {
	if b.done {
		return false
	}
	if !b.mrr.NextResult() {
		b.finish()
		return false
	}
	b.rr = b.mrr.ResultReader()
	b.columns = describe(b.typeMap, b.rr.FieldDescriptions())
	b.onRow = false
	b.complete = false
	b.tag = pgconn.CommandTag{}
	return true
}

// finish drains the reader and records its error.
func (b *BatchCursor) finish() {
	if b.done {
		return
	}
	b.done = true
	b.rr = nil
	b.columns = nil
	if err := b.mrr.Close(); err != nil && b.err == nil {
		b.err = err
	}
}

func (b *BatchCursor) closeResult() {
	if b.rr == nil || b.complete {
		return
	}
	tag, err := b.rr.Close()
	b.complete = true
	b.onRow = false
	b.tag = tag
	if err != nil && b.err == nil {
		b.err = err
	}
}

func (b *BatchCursor) Next() bool {
	if b.closed || b.rr == nil || b.complete {
		return false
	}
	b.onRow = b.rr.NextRow()
	if !b.onRow {
		b.closeResult()
	}
	return b.onRow
}

func (b *BatchCursor) NextResultSet() bool {
	if b.closed {
		return false
	}
	b.closeResult()
	if b.err != nil {
		b.finish()
		return false
	}
	return b.advance()
}

func (b *BatchCursor) Err() error {
	return b.err
}

func (b *BatchCursor) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	b.closeResult()
	b.finish()
	if b.release != nil {
		return b.release()
	}
	return nil
}

func (b *BatchCursor) IsClosed() bool {
	return b.closed
}

func (b *BatchCursor) RowsAffected() int64 {
	return rowsAffected(b.tag, b.complete)
}

func (b *BatchCursor) FieldCount() int {
	return len(b.columns)
}

func (b *BatchCursor) Columns() ([]port.Column, error) {
	if b.closed {
		return nil, domain.ErrClosed
	}
	return b.columns, nil
}

func (b *BatchCursor) field(ordinal int) (pgconn.FieldDescription, []byte, error) {
	if b.closed {
		return pgconn.FieldDescription{}, nil, domain.ErrClosed
	}
	if err := domain.CheckOrdinal(ordinal, len(b.columns)); err != nil {
		return pgconn.FieldDescription{}, nil, err
	}
	if !b.onRow {
		return pgconn.FieldDescription{}, nil, domain.ErrNoRow
	}
	return b.rr.FieldDescriptions()[ordinal], b.rr.Values()[ordinal], nil
}

func (b *BatchCursor) Value(ordinal int) (any, error) {
	fd, raw, err := b.field(ordinal)
	if err != nil {
		return nil, err
	}
	return decodeValue(b.typeMap, fd, raw)
}

func (b *BatchCursor) ScanColumn(ordinal int, dest any) error {
	fd, raw, err := b.field(ordinal)
	if err != nil {
		return err
	}
	return scanValue(b.typeMap, fd, raw, dest)
}

func (b *BatchCursor) ReadBytes(ordinal int, fieldOffset int64, buf []byte) (int, error) {
	fd, raw, err := b.field(ordinal)
	if err != nil {
		return 0, err
	}
	data, err := fieldBytes(b.typeMap, fd, raw)
	if err != nil {
		return 0, err
	}
	return copyFrom(data, fieldOffset, buf)
}

func (b *BatchCursor) FieldLength(ordinal int) (int64, error) {
	fd, raw, err := b.field(ordinal)
	if err != nil {
		return 0, err
	}
	data, err := fieldBytes(b.typeMap, fd, raw)
	if err != nil {
		return 0, err
	}
	return int64(len(data)), nil
}

// Unwrap returns the underlying *pgconn.MultiResultReader.
func (b *BatchCursor) Unwrap() any {
	return b.mrr
}

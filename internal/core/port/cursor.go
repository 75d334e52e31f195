package port

import "reflect"

// Nullability is a column's declared nullability.
type Nullability int

const (
	NullableUnknown Nullability = iota
	NullableYes
	NullableNo
)

func (n Nullability) String() string {
	switch n {
	case NullableYes:
		return "YES"
	case NullableNo:
		return "NO"
	default:
		return "UNKNOWN"
	}
}

// Column describes one column of the current result set.
type Column struct {
	Name         string       `json:"name"`
	Ordinal      int          `json:"ordinal"`
	DataTypeName string       `json:"data_type"`
	ProviderType uint32       `json:"provider_type"` // PostgreSQL OID, 0 when the driver has none
	FieldType    reflect.Type `json:"-"`
	Nullable     Nullability  `json:"nullable"`
	Length       int64        `json:"length"`    // -1 when unknown
	Precision    int64        `json:"precision"` // -1 when unknown
	Scale        int64        `json:"scale"`     // -1 when unknown
	TableOID     uint32       `json:"table_oid,omitempty"`
	TableColumn  uint16       `json:"table_column,omitempty"`
}

// SchemaTable is an ordered snapshot of result set metadata.
type SchemaTable []Column

// Names returns the column names in ordinal order.
func (s SchemaTable) Names() []string {
	names := make([]string, len(s))
	for i, c := range s {
		names[i] = c.Name
	}
	return names
}

// VendorCursor is the driver-specific, forward-only result stream wrapped by
// reader.Reader. Implementations are not safe for concurrent use.
//
// Accessors fail with domain.ErrIndexOutOfRange for ordinals outside
// [0, FieldCount()) and with domain.ErrClosed once the cursor is closed.
type VendorCursor interface {
	Next() bool
	NextResultSet() bool
	Err() error
	Close() error
	IsClosed() bool

	// RowsAffected is -1 for row-returning statements or while unknown.
	RowsAffected() int64
	FieldCount() int
	Columns() ([]Column, error)

	// Value returns the driver's generic value; nil is database null.
	Value(ordinal int) (any, error)
	// ScanColumn decodes one column with the driver's own typed rules.
	ScanColumn(ordinal int, dest any) error
	// ReadBytes copies the raw column value from fieldOffset into buf.
	ReadBytes(ordinal int, fieldOffset int64, buf []byte) (int, error)
	// FieldLength is the length in bytes of the raw column value.
	FieldLength(ordinal int) (int64, error)

	// Unwrap returns the concrete driver value (pgx.Rows, *sql.Rows, ...).
	Unwrap() any
}

// NestedOpener is implemented by vendor cursors that can return a cursor
// stored in a column (REF CURSOR style hierarchical results).
type NestedOpener interface {
	OpenNested(ordinal int) (VendorCursor, error)
}

// Record is read access to the current row.
type Record interface {
	FieldCount() int
	Name(ordinal int) (string, error)
	Ordinal(name string) (int, error)
	Value(ordinal int) (any, error)
	ValueByName(name string) (any, error)
	IsNull(ordinal int) (bool, error)
}

package postgres

import (
	"fmt"
	"reflect"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/guillermoBallester/pgreader/internal/core/domain"
	"github.com/guillermoBallester/pgreader/internal/core/port"
)

// fieldTypes maps an OID to the Go type its values decode to.
var fieldTypes = map[uint32]reflect.Type{
	pgtype.BoolOID:        reflect.TypeFor[bool](),
	pgtype.Int2OID:        reflect.TypeFor[int16](),
	pgtype.Int4OID:        reflect.TypeFor[int32](),
	pgtype.Int8OID:        reflect.TypeFor[int64](),
	pgtype.Float4OID:      reflect.TypeFor[float32](),
	pgtype.Float8OID:      reflect.TypeFor[float64](),
	pgtype.NumericOID:     reflect.TypeFor[pgtype.Numeric](),
	pgtype.TextOID:        reflect.TypeFor[string](),
	pgtype.VarcharOID:     reflect.TypeFor[string](),
	pgtype.BPCharOID:      reflect.TypeFor[string](),
	pgtype.NameOID:        reflect.TypeFor[string](),
	pgtype.ByteaOID:       reflect.TypeFor[[]byte](),
	pgtype.DateOID:        reflect.TypeFor[time.Time](),
	pgtype.TimestampOID:   reflect.TypeFor[time.Time](),
	pgtype.TimestamptzOID: reflect.TypeFor[time.Time](),
	pgtype.UUIDOID:        reflect.TypeFor[[16]byte](),
}

var anyType = reflect.TypeFor[any]()

// describe converts wire field descriptions into column metadata.
func describe(m *pgtype.Map, fds []pgconn.FieldDescription) []port.Column {
	cols := make([]port.Column, len(fds))
	for i, fd := range fds {
		col := port.Column{
			Name:         fd.Name,
			Ordinal:      i,
			ProviderType: fd.DataTypeOID,
			FieldType:    anyType,
			Length:       int64(fd.DataTypeSize),
			Precision:    -1,
			Scale:        -1,
			TableOID:     fd.TableOID,
			TableColumn:  fd.TableAttributeNumber,
		}
		if t, ok := m.TypeForOID(fd.DataTypeOID); ok {
			col.DataTypeName = t.Name
		} else {
			col.DataTypeName = fmt.Sprintf("oid:%d", fd.DataTypeOID)
		}
		if ft, ok := fieldTypes[fd.DataTypeOID]; ok {
			col.FieldType = ft
		}

		// Type modifiers carry an extra 4-byte header.
		mod := fd.TypeModifier - 4
		switch fd.DataTypeOID {
		case pgtype.NumericOID:
			if mod >= 0 {
				col.Precision = int64((mod >> 16) & 0xffff)
				col.Scale = int64(mod & 0xffff)
			}
		case pgtype.VarcharOID, pgtype.BPCharOID:
			if mod >= 0 {
				col.Length = int64(mod)
			}
		}
		cols[i] = col
	}
	return cols
}

// decodeValue decodes one wire value with the connection's type map.
func decodeValue(m *pgtype.Map, fd pgconn.FieldDescription, raw []byte) (any, error) {
	if raw == nil {
		return nil, nil
	}
	t, ok := m.TypeForOID(fd.DataTypeOID)
	if !ok {
		if fd.Format == pgtype.TextFormatCode {
			return string(raw), nil
		}
		return append([]byte(nil), raw...), nil
	}
	v, err := t.Codec.DecodeValue(m, fd.DataTypeOID, fd.Format, raw)
	if err != nil {
		return nil, fmt.Errorf("decoding column %q: %w", fd.Name, err)
	}
	return v, nil
}

// scanValue decodes one wire value into dest using pgx's scan plans.
func scanValue(m *pgtype.Map, fd pgconn.FieldDescription, raw []byte, dest any) error {
	if err := m.Scan(fd.DataTypeOID, fd.Format, raw, dest); err != nil {
		return fmt.Errorf("scanning column %q: %w", fd.Name, err)
	}
	return nil
}

// fieldBytes returns the column value as bytes. Binary bytea is returned
// without copying.
func fieldBytes(m *pgtype.Map, fd pgconn.FieldDescription, raw []byte) ([]byte, error) {
	if raw == nil {
		return nil, fmt.Errorf("column %q: %w", fd.Name, domain.ErrNullValue)
	}
	if fd.DataTypeOID == pgtype.ByteaOID && fd.Format == pgtype.BinaryFormatCode {
		return raw, nil
	}
	var b []byte
	if err := scanValue(m, fd, raw, &b); err != nil {
		return nil, err
	}
	return b, nil
}

func copyFrom(src []byte, fieldOffset int64, buf []byte) (int, error) {
	if fieldOffset < 0 {
		return 0, fmt.Errorf("%w: negative field offset %d", domain.ErrIndexOutOfRange, fieldOffset)
	}
	if fieldOffset >= int64(len(src)) {
		return 0, nil
	}
	return copy(buf, src[fieldOffset:]), nil
}

// rowsAffected reports the command tag count for non-query statements.
func rowsAffected(tag pgconn.CommandTag, complete bool) int64 {
	if !complete || tag.Select() {
		return -1
	}
	return tag.RowsAffected()
}

package reader

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/guillermoBallester/pgreader/internal/core/domain"
	"github.com/guillermoBallester/pgreader/internal/core/port"
)

// Bool, Byte and Int16 coerce the generic value: providers commonly store
// these as plain numbers (zero is false, anything else is true). The other
// typed accessors use the provider's native decoding.
func (r *Reader) Bool(ordinal int) (bool, error) {
	v, err := r.vendor.Value(ordinal)
	if err != nil {
		return false, err
	}
	b, err := domain.ToBool(v)
	if err != nil {
		return false, fmt.Errorf("column %d: %w", ordinal, err)
	}
	return b, nil
}

func (r *Reader) Byte(ordinal int) (byte, error) {
	v, err := r.vendor.Value(ordinal)
	if err != nil {
		return 0, err
	}
	b, err := domain.ToByte(v)
	if err != nil {
		return 0, fmt.Errorf("column %d: %w", ordinal, err)
	}
	return b, nil
}

func (r *Reader) Int16(ordinal int) (int16, error) {
	v, err := r.vendor.Value(ordinal)
	if err != nil {
		return 0, err
	}
	n, err := domain.ToInt16(v)
	if err != nil {
		return 0, fmt.Errorf("column %d: %w", ordinal, err)
	}
	return n, nil
}

func scan[T any](r *Reader, ordinal int) (T, error) {
	var v T
	if err := r.vendor.ScanColumn(ordinal, &v); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

func (r *Reader) Int32(ordinal int) (int32, error) {
	return scan[int32](r, ordinal)
}

func (r *Reader) Int64(ordinal int) (int64, error) {
	return scan[int64](r, ordinal)
}

func (r *Reader) Float32(ordinal int) (float32, error) {
	return scan[float32](r, ordinal)
}

func (r *Reader) Float64(ordinal int) (float64, error) {
	return scan[float64](r, ordinal)
}

func (r *Reader) Decimal(ordinal int) (decimal.Decimal, error) {
	return scan[decimal.Decimal](r, ordinal)
}

func (r *Reader) String(ordinal int) (string, error) {
	return scan[string](r, ordinal)
}

func (r *Reader) Time(ordinal int) (time.Time, error) {
	return scan[time.Time](r, ordinal)
}

// Char returns the first character of a text column.
func (r *Reader) Char(ordinal int) (rune, error) {
	s, err := scan[string](r, ordinal)
	if err != nil {
		return 0, err
	}
	if s == "" {
		return 0, fmt.Errorf("column %d: %w: empty string has no character", ordinal, domain.ErrInvalidCast)
	}
	c, _ := utf8.DecodeRuneInString(s)
	return c, nil
}

// GUID rebuilds an identifier stored as exactly 16 raw bytes.
func (r *Reader) GUID(ordinal int) (uuid.UUID, error) {
	v, err := r.vendor.Value(ordinal)
	if err != nil {
		return uuid.Nil, err
	}

	switch x := v.(type) {
	case nil:
		return uuid.Nil, fmt.Errorf("column %d: %w", ordinal, domain.ErrNullValue)
	case []byte:
		id, err := uuid.FromBytes(x)
		if err != nil {
			return uuid.Nil, fmt.Errorf("column %d: %w: %w", ordinal, domain.ErrInvalidCast, err)
		}
		return id, nil
	case [16]byte:
		return uuid.UUID(x), nil
	case uuid.UUID:
		return x, nil
	default:
		return uuid.Nil, fmt.Errorf("column %d: %w: cannot convert %T to uuid", ordinal, domain.ErrInvalidCast, v)
	}
}

// Bytes copies up to length bytes of the column, starting at fieldOffset,
// into buf[bufOffset:]. It returns the number of bytes copied. With a nil
// buf it returns the length of the whole field.
func (r *Reader) Bytes(ordinal int, fieldOffset int64, buf []byte, bufOffset, length int) (int64, error) {
	if buf == nil {
		return r.vendor.FieldLength(ordinal)
	}
	if err := checkBuffer(len(buf), bufOffset, length); err != nil {
		return 0, err
	}
	n, err := r.vendor.ReadBytes(ordinal, fieldOffset, buf[bufOffset:bufOffset+length])
	return int64(n), err
}

// Chars is Bytes for text columns, counted in characters. The decoded text
// is kept for the current row, so chunked reads decode it once.
func (r *Reader) Chars(ordinal int, fieldOffset int64, buf []rune, bufOffset, length int) (int64, error) {
	runes, err := r.runes(ordinal)
	if err != nil {
		return 0, err
	}
	if buf == nil {
		return int64(len(runes)), nil
	}
	if err := checkBuffer(len(buf), bufOffset, length); err != nil {
		return 0, err
	}
	if fieldOffset < 0 {
		return 0, fmt.Errorf("%w: negative field offset %d", domain.ErrIndexOutOfRange, fieldOffset)
	}
	if fieldOffset >= int64(len(runes)) {
		return 0, nil
	}
	n := copy(buf[bufOffset:bufOffset+length], runes[fieldOffset:])
	return int64(n), nil
}

// runes returns the decoded text of a column on the current row.
func (r *Reader) runes(ordinal int) ([]rune, error) {
	if _, err := r.column(ordinal); err != nil {
		return nil, err
	}
	if c := r.chars; c != nil && c.row == r.row && c.ordinal == ordinal {
		return c.runes, nil
	}
	s, err := scan[string](r, ordinal)
	if err != nil {
		return nil, err
	}
	runes := []rune(s)
	r.chars = &charCache{row: r.row, ordinal: ordinal, runes: runes}
	return runes, nil
}

func checkBuffer(size, offset, length int) error {
	if offset < 0 || length < 0 || offset > size || length > size-offset {
		return fmt.Errorf("%w: buffer offset %d and length %d exceed buffer of %d",
			domain.ErrIndexOutOfRange, offset, length, size)
	}
	return nil
}

// Value returns the provider's generic value; nil is database null.
func (r *Reader) Value(ordinal int) (any, error) {
	return r.vendor.Value(ordinal)
}

// ValueByName is Value for a named column.
func (r *Reader) ValueByName(name string) (any, error) {
	i, err := r.Ordinal(name)
	if err != nil {
		return nil, err
	}
	return r.vendor.Value(i)
}

// Values copies the current row into dst and returns the number copied.
func (r *Reader) Values(dst []any) (int, error) {
	n := min(len(dst), r.vendor.FieldCount())
	for i := range n {
		v, err := r.vendor.Value(i)
		if err != nil {
			return i, err
		}
		dst[i] = v
	}
	return n, nil
}

// IsNull reports whether the column holds database null. Check it before
// the coercive accessors, which fail on null instead of returning zero.
func (r *Reader) IsNull(ordinal int) (bool, error) {
	v, err := r.vendor.Value(ordinal)
	if err != nil {
		return false, err
	}
	return v == nil, nil
}

// Data opens a cursor stored in the column. The returned Reader is owned by
// the caller and reports Depth one deeper than r.
func (r *Reader) Data(ordinal int) (*Reader, error) {
	if _, err := r.column(ordinal); err != nil {
		return nil, err
	}
	opener, ok := r.vendor.(port.NestedOpener)
	if !ok {
		return nil, fmt.Errorf("nested cursor in column %d: %w", ordinal, domain.ErrNotSupported)
	}
	nested, err := opener.OpenNested(ordinal)
	if err != nil {
		return nil, err
	}
	return &Reader{vendor: nested, matching: r.matching, depth: r.depth + 1}, nil
}

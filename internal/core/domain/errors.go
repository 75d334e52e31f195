package domain

import (
	"errors"
	"fmt"
)

// Cursor errors.
var (
	ErrIndexOutOfRange = errors.New("column ordinal out of range")
	ErrColumnNotFound  = errors.New("column not found")
	ErrClosed          = errors.New("cursor is closed")
	ErrNoRow           = errors.New("cursor is not positioned on a row")
	ErrNotSupported    = errors.New("operation not supported by provider")
)

// Conversion errors raised by the coercive accessors.
var (
	ErrNullValue   = errors.New("value is database null")
	ErrInvalidCast = errors.New("invalid cast")
	ErrOverflow    = errors.New("value out of range for target type")
)

// ErrMalformedConfig marks configuration that is present but structurally
// invalid. Absent configuration is never reported with this error.
var ErrMalformedConfig = errors.New("malformed configuration")

// CheckOrdinal returns ErrIndexOutOfRange when ordinal is outside [0, count).
func CheckOrdinal(ordinal, count int) error {
	if ordinal < 0 || ordinal >= count {
		return fmt.Errorf("%w: ordinal %d, field count %d", ErrIndexOutOfRange, ordinal, count)
	}
	return nil
}

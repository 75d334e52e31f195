package domain

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ToBool coerces a stored value to a boolean. Numbers are false when zero and
// true otherwise. Text must be a literal strconv.ParseBool accepts, so the
// Postgres forms "t" and "f" as well as "1" and "0" read as booleans.
func ToBool(v any) (bool, error) {
	v, err := resolve(v)
	if err != nil {
		return false, err
	}

	switch x := v.(type) {
	case bool:
		return x, nil
	case float32:
		return x != 0, nil
	case float64:
		return x != 0, nil
	case uint:
		return x != 0, nil
	case uint64:
		return x != 0, nil
	case decimal.Decimal:
		return !x.IsZero(), nil
	case string:
		return parseBool(x)
	case []byte:
		return parseBool(string(x))
	}

	n, ok, err := integer(v)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, castError(v, "bool")
	}
	return n != 0, nil
}

// ToByte coerces a stored value to an unsigned 8-bit integer.
func ToByte(v any) (byte, error) {
	n, err := toInteger(v, 0, math.MaxUint8, "byte")
	if err != nil {
		return 0, err
	}
	return byte(n), nil
}

// ToInt16 coerces a stored value to a signed 16-bit integer.
func ToInt16(v any) (int16, error) {
	n, err := toInteger(v, math.MinInt16, math.MaxInt16, "int16")
	if err != nil {
		return 0, err
	}
	return int16(n), nil
}

// toInteger converts v into [lo, hi]. Fractional values round half to even.
func toInteger(v any, lo, hi int64, target string) (int64, error) {
	v, err := resolve(v)
	if err != nil {
		return 0, err
	}

	switch x := v.(type) {
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case float32:
		return fromFloat(float64(x), lo, hi, target)
	case float64:
		return fromFloat(x, lo, hi, target)
	case decimal.Decimal:
		r := x.RoundBank(0)
		if r.LessThan(decimal.NewFromInt(lo)) || r.GreaterThan(decimal.NewFromInt(hi)) {
			return 0, overflowError(v, target)
		}
		return r.IntPart(), nil
	case string:
		return parseInteger(x, lo, hi, target)
	case []byte:
		return parseInteger(string(x), lo, hi, target)
	}

	n, ok, err := integer(v)
	if err != nil {
		return 0, overflowError(v, target)
	}
	if !ok {
		return 0, castError(v, target)
	}
	if n < lo || n > hi {
		return 0, overflowError(v, target)
	}
	return n, nil
}

// resolve unwraps driver values and maps database null to ErrNullValue.
// Valuer results that read as numbers are returned as decimals.
func resolve(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, ErrNullValue
	case decimal.Decimal:
		return x, nil
	case driver.Valuer:
		dv, err := x.Value()
		if err != nil {
			return nil, fmt.Errorf("%w: %T: %v", ErrInvalidCast, v, err)
		}
		if dv == nil {
			return nil, ErrNullValue
		}
		if s, ok := dv.(string); ok {
			if d, err := decimal.NewFromString(s); err == nil {
				return d, nil
			}
		}
		return dv, nil
	}
	return v, nil
}

// integer reports v as int64 when it is one of Go's integer kinds.
func integer(v any) (n int64, ok bool, err error) {
	switch x := v.(type) {
	case int:
		return int64(x), true, nil
	case int8:
		return int64(x), true, nil
	case int16:
		return int64(x), true, nil
	case int32:
		return int64(x), true, nil
	case int64:
		return x, true, nil
	case uint:
		return fromUint(uint64(x))
	case uint8:
		return int64(x), true, nil
	case uint16:
		return int64(x), true, nil
	case uint32:
		return int64(x), true, nil
	case uint64:
		return fromUint(x)
	}
	return 0, false, nil
}

func fromUint(u uint64) (int64, bool, error) {
	if u > math.MaxInt64 {
		return 0, true, ErrOverflow
	}
	return int64(u), true, nil
}

func fromFloat(f float64, lo, hi int64, target string) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, overflowError(f, target)
	}
	r := math.RoundToEven(f)
	if r < float64(lo) || r > float64(hi) {
		return 0, overflowError(f, target)
	}
	return int64(r), nil
}

func parseInteger(s string, lo, hi int64, target string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, overflowError(s, target)
		}
		return 0, fmt.Errorf("%w: %q is not an integer", ErrInvalidCast, s)
	}
	if n < lo || n > hi {
		return 0, overflowError(s, target)
	}
	return n, nil
}

func parseBool(s string) (bool, error) {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return false, fmt.Errorf("%w: %q is not a boolean", ErrInvalidCast, s)
	}
	return b, nil
}

func castError(v any, target string) error {
	return fmt.Errorf("%w: cannot convert %T to %s", ErrInvalidCast, v, target)
}

func overflowError(v any, target string) error {
	return fmt.Errorf("%w: %v does not fit in %s", ErrOverflow, v, target)
}

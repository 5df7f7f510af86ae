package ledger

import (
	"encoding/json"
	"errors"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrNotFinite is returned by ParseFinite for values that are not a finite number.
var ErrNotFinite = errors.New("value is not a finite number")

// Num coerces v to a decimal. Anything that is not a finite number
// (nil, NaN, ±Inf, malformed text, other types) yields zero.
func Num(v any) decimal.Decimal {
	d, err := ParseFinite(v)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseFinite is the strict form of Num. Empty strings and nil are rejected.
func ParseFinite(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case decimal.Decimal:
		return x, nil
	case *decimal.Decimal:
		if x == nil {
			return decimal.Zero, ErrNotFinite
		}
		return *x, nil
	case float64:
		return fromFloat(x)
	case float32:
		return fromFloat(float64(x))
	case int:
		return decimal.NewFromInt(int64(x)), nil
	case int32:
		return decimal.NewFromInt32(x), nil
	case int64:
		return decimal.NewFromInt(x), nil
	case uint32:
		return decimal.NewFromInt(int64(x)), nil
	case json.Number:
		return fromString(string(x))
	case string:
		return fromString(x)
	case []byte:
		return fromString(string(x))
	default:
		return decimal.Zero, ErrNotFinite
	}
}

func fromFloat(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, ErrNotFinite
	}
	return decimal.NewFromFloat(f), nil
}

func fromString(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return decimal.Zero, ErrNotFinite
	}
	// decimal rejects "NaN" and "Inf" spellings on its own.
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrNotFinite
	}
	return d, nil
}

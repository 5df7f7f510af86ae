package ledger

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// =============================================================================
// CANONICAL DATE - YYYY-MM-DD key (the only date form the engine compares)
// =============================================================================

// CanonicalDate is a YYYY-MM-DD key. The empty value means the date could
// not be resolved.
type CanonicalDate string

var ymdPrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)

// EpochMillisThreshold separates Unix seconds from Unix milliseconds.
// 1e11 seconds is in the year 5138; 1e11 milliseconds is March 1973.
const EpochMillisThreshold = 1e11

// fallbackLayouts are tried, in order, for strings without a YYYY-MM-DD prefix.
var fallbackLayouts = []string{
	time.RFC3339Nano,
	time.RFC1123Z,
	time.RFC1123,
	time.RFC850,
	time.ANSIC,
	"2006/01/02",
	"2006.01.02",
	"2006-1-2",
	"Jan 2, 2006",
	"2 Jan 2006",
	"January 2, 2006",
}

func (d CanonicalDate) String() string { return string(d) }

// IsZero reports whether the date failed to resolve.
func (d CanonicalDate) IsZero() bool { return !d.Valid() }

// Valid reports whether d has the YYYY-MM-DD shape.
func (d CanonicalDate) Valid() bool {
	return len(d) == 10 && ymdPrefix.MatchString(string(d))
}

// Civil returns the calendar date, or false when d is not a real date.
func (d CanonicalDate) Civil() (civil.Date, bool) {
	if !d.Valid() {
		return civil.Date{}, false
	}
	c, err := civil.ParseDate(string(d))
	if err != nil || !c.IsValid() {
		return civil.Date{}, false
	}
	return c, true
}

// Year returns the year component, or 0 for an unresolved date.
func (d CanonicalDate) Year() int {
	if c, ok := d.Civil(); ok {
		return c.Year
	}
	return d.digits(0, 4)
}

// Month returns the month component, or 0 for an unresolved date.
func (d CanonicalDate) Month() int {
	if c, ok := d.Civil(); ok {
		return int(c.Month)
	}
	return d.digits(5, 7)
}

// Day returns the day-of-month component, or 0 for an unresolved date.
func (d CanonicalDate) Day() int {
	if c, ok := d.Civil(); ok {
		return c.Day
	}
	return d.digits(8, 10)
}

// MonthKey returns YYYY-MM, or "" for an unresolved date.
func (d CanonicalDate) MonthKey() string {
	if !d.Valid() {
		return ""
	}
	return string(d[:7])
}

// Time returns midnight UTC of the date.
func (d CanonicalDate) Time() (time.Time, bool) {
	c, ok := d.Civil()
	if !ok {
		return time.Time{}, false
	}
	return c.In(time.UTC), true
}

// digits reads a component of a key that has the YYYY-MM-DD shape but is
// not a calendar date, such as 2024-13-40 carried over from text storage.
func (d CanonicalDate) digits(from, to int) int {
	if !d.Valid() {
		return 0
	}
	n, _ := strconv.Atoi(string(d[from:to]))
	return n
}

// DateOf returns the canonical date of t in UTC.
func DateOf(t time.Time) CanonicalDate {
	return CanonicalDate(civil.DateOf(t.UTC()).String())
}

// =============================================================================
// NORMALIZATION
// =============================================================================

// NormalizeDate converts any supported date representation to a CanonicalDate.
//
// A string whose first ten characters look like YYYY-MM-DD yields that prefix
// unchanged; anything after it (a time of day, an offset) is discarded.
// Otherwise the value is interpreted as an instant and its UTC date is used:
// time.Time, Unix epoch numbers (seconds, or milliseconds when large), and
// the layouts in fallbackLayouts. Anything else yields "".
//
// NormalizeDate never panics and NormalizeDate(NormalizeDate(x)) equals
// NormalizeDate(x).
func NormalizeDate(v any) (out CanonicalDate) {
	defer func() {
		if recover() != nil {
			out = ""
		}
	}()

	switch x := v.(type) {
	case nil:
		return ""
	case CanonicalDate:
		return normalizeString(string(x))
	case string:
		return normalizeString(x)
	case []byte:
		return normalizeString(string(x))
	case time.Time:
		return normalizeTime(x)
	case *time.Time:
		if x == nil {
			return ""
		}
		return normalizeTime(*x)
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return normalizeEpoch(float64(n))
		}
		if f, err := x.Float64(); err == nil {
			return normalizeEpoch(f)
		}
		return ""
	case int:
		return normalizeEpoch(float64(x))
	case int32:
		return normalizeEpoch(float64(x))
	case int64:
		return normalizeEpoch(float64(x))
	case uint32:
		return normalizeEpoch(float64(x))
	case uint64:
		return normalizeEpoch(float64(x))
	case float32:
		return normalizeEpoch(float64(x))
	case float64:
		return normalizeEpoch(x)
	default:
		return ""
	}
}

func normalizeString(s string) CanonicalDate {
	s = strings.TrimSpace(s)
	if len(s) >= 10 && ymdPrefix.MatchString(s[:10]) {
		return CanonicalDate(s[:10])
	}
	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return normalizeTime(t)
		}
	}
	return ""
}

func normalizeTime(t time.Time) CanonicalDate {
	if t.IsZero() {
		return ""
	}
	u := t.UTC()
	if u.Year() < 0 || u.Year() > 9999 {
		return ""
	}
	return DateOf(u)
}

func normalizeEpoch(f float64) CanonicalDate {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	if math.Abs(f) >= EpochMillisThreshold {
		return normalizeTime(time.UnixMilli(int64(f)))
	}
	return normalizeTime(time.Unix(int64(f), 0))
}

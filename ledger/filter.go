package ledger

import (
	"strings"
	"time"
)

// =============================================================================
// RANGE FILTER - Inclusive date bounds over text and native dates
// =============================================================================

// RangeFilter matches rows whose date lies in [Start, End]. Either side may be
// open. Stored rows can hold the date as YYYY-MM-DD text (possibly with a
// time suffix) or as a native instant, so every filter has a textual form and
// an instant form; a row matches if either form matches its representation.
type RangeFilter struct {
	Start CanonicalDate
	End   CanonicalDate
}

// NewRangeFilter builds a filter from raw bounds. A bound is only honoured
// when it already is a canonical YYYY-MM-DD string; anything else is treated
// as no bound at all.
func NewRangeFilter(start, end any) RangeFilter {
	return RangeFilter{Start: strictBound(start), End: strictBound(end)}
}

func strictBound(v any) CanonicalDate {
	var s string
	switch x := v.(type) {
	case string:
		s = x
	case CanonicalDate:
		s = string(x)
	default:
		return ""
	}
	d := CanonicalDate(strings.TrimSpace(s))
	if !d.Valid() {
		return ""
	}
	if _, ok := d.Time(); !ok {
		return ""
	}
	return d
}

// IsZero reports whether the filter matches everything.
func (f RangeFilter) IsZero() bool {
	return f.Start == "" && f.End == ""
}

// TextBounds returns the inclusive textual bounds. Compare them against the
// first ten characters of a stored text date.
func (f RangeFilter) TextBounds() (lo, hi string, hasLo, hasHi bool) {
	return string(f.Start), string(f.End), f.Start != "", f.End != ""
}

// NativeBounds returns the instant bounds as a half-open interval
// [from, until): from is midnight UTC of Start and until is midnight UTC
// of the day after End.
func (f RangeFilter) NativeBounds() (from, until time.Time, hasFrom, hasUntil bool) {
	if t, ok := f.Start.Time(); ok {
		from, hasFrom = t, true
	}
	if t, ok := f.End.Time(); ok {
		until, hasUntil = t.AddDate(0, 0, 1), true
	}
	return from, until, hasFrom, hasUntil
}

// Match reports whether a raw stored date value falls within the filter.
// Text values are compared on their first ten characters; instants are
// compared against NativeBounds. Values that resolve to no date only match
// the empty filter.
func (f RangeFilter) Match(raw any) bool {
	if f.IsZero() {
		return true
	}
	switch x := raw.(type) {
	case string:
		return f.matchText(x)
	case CanonicalDate:
		return f.matchText(string(x))
	case []byte:
		return f.matchText(string(x))
	case time.Time:
		return f.matchInstant(x)
	case *time.Time:
		return x != nil && f.matchInstant(*x)
	}
	d := NormalizeDate(raw)
	if d.IsZero() {
		return false
	}
	return f.matchText(string(d))
}

func (f RangeFilter) matchText(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) < 10 || !ymdPrefix.MatchString(s[:10]) {
		// Text without a date prefix is still matched if it parses as an instant.
		d := NormalizeDate(s)
		if d.IsZero() {
			return false
		}
		s = string(d)
	}
	key := s[:10]
	lo, hi, hasLo, hasHi := f.TextBounds()
	if hasLo && key < lo {
		return false
	}
	if hasHi && key > hi {
		return false
	}
	return true
}

func (f RangeFilter) matchInstant(t time.Time) bool {
	if t.IsZero() {
		return false
	}
	from, until, hasFrom, hasUntil := f.NativeBounds()
	if hasFrom && t.Before(from) {
		return false
	}
	if hasUntil && !t.Before(until) {
		return false
	}
	return true
}

// =============================================================================
// DESCRIPTION SEARCH
// =============================================================================

// LikeEscape is the escape character used by EscapeLike.
const LikeEscape = `\`

// EscapeLike escapes LIKE metacharacters so q matches literally.
// Use with `LIKE ? ESCAPE '\'`.
func EscapeLike(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(q)
}

// ContainsFold reports whether description contains q, ignoring case.
// An empty q matches everything.
func ContainsFold(description, q string) bool {
	q = strings.TrimSpace(q)
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(description), strings.ToLower(q))
}

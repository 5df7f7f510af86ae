package ledger_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/warp/fund-ledger/ledger"
)

func TestRangeFilter_MatchesTextAndNativeDates(t *testing.T) {
	// GIVEN: A January 2024 filter
	f := ledger.NewRangeFilter("2024-01-01", "2024-01-31")

	// WHEN/THEN: Text and native representations are both honoured
	inside := []any{
		"2024-01-01",
		"2024-01-31",
		"2024-01-31T23:59:59+09:00",
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC),
		int64(1704067200000), // 2024-01-01T00:00:00Z in ms
	}
	outside := []any{
		"2023-12-31",
		"2024-02-01",
		time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC),
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		"",
		nil,
		"garbage",
	}

	for _, v := range inside {
		assert.True(t, f.Match(v), "expected %#v to match", v)
	}
	for _, v := range outside {
		assert.False(t, f.Match(v), "expected %#v not to match", v)
	}
}

func TestRangeFilter_InvalidBoundsAreIgnored(t *testing.T) {
	f := ledger.NewRangeFilter("yesterday", "2024-13-45")
	assert.True(t, f.IsZero())
	assert.True(t, f.Match(nil))
	assert.True(t, f.Match("whatever"))

	// Only canonical text is accepted as a bound, even if it would normalize.
	f = ledger.NewRangeFilter("2024-01-01T10:00:00Z", 1704067200)
	assert.True(t, f.IsZero())
}

func TestRangeFilter_OpenSides(t *testing.T) {
	from := ledger.NewRangeFilter("2024-01-01", "")
	assert.True(t, from.Match("2099-01-01"))
	assert.False(t, from.Match("2023-12-31"))

	until := ledger.NewRangeFilter(nil, "2024-01-31")
	assert.True(t, until.Match("1999-01-01"))
	assert.False(t, until.Match(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)))
}

func TestRangeFilter_NativeBoundsAreHalfOpen(t *testing.T) {
	f := ledger.NewRangeFilter("2024-01-01", "2024-01-31")

	from, until, hasFrom, hasUntil := f.NativeBounds()

	assert.True(t, hasFrom)
	assert.True(t, hasUntil)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), until)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\%`, ledger.EscapeLike("100%"))
	assert.Equal(t, `a\_b`, ledger.EscapeLike("a_b"))
	assert.Equal(t, `c:\\temp`, ledger.EscapeLike(`c:\temp`))
	assert.Equal(t, `(.*)`, ledger.EscapeLike("(.*)"))
}

func TestContainsFold(t *testing.T) {
	assert.True(t, ledger.ContainsFold("Office Supplies", "supp"))
	assert.True(t, ledger.ContainsFold("anything", "  "))
	assert.True(t, ledger.ContainsFold("price (.*)", "(.*)"))
	assert.False(t, ledger.ContainsFold("price", "(.*)"))
}

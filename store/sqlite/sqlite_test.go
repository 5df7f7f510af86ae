package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/fund-ledger/ledger"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

var stamp = time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

func insert(t *testing.T, s *Store, id, date, desc string, income, expense int64) {
	t.Helper()
	require.NoError(t, s.Insert(context.Background(), ledger.Transaction{
		ID:          id,
		Date:        ledger.CanonicalDate(date),
		Description: desc,
		Income:      decimal.NewFromInt(income),
		Expense:     decimal.NewFromInt(expense),
		CreatedAt:   stamp,
		UpdatedAt:   stamp,
	}))
}

// insertLegacy writes a row the way the previous system did: native epoch
// milliseconds for the date and plain numbers for the amounts.
func insertLegacy(t *testing.T, s *Store, id string, date any, income, expense any) {
	t.Helper()
	_, err := s.db.Exec(`
		INSERT INTO transactions (id, date, description, income, expense, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, date, "legacy "+id, income, expense, formatTime(stamp), formatTime(stamp))
	require.NoError(t, err)
}

func listIDs(t *testing.T, s *Store, q ledger.Query) []string {
	t.Helper()
	rows, err := s.List(context.Background(), q)
	require.NoError(t, err)
	ledger.SortRows(rows, ledger.OrderAsc)
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func ms(y int, m time.Month, d, h int) int64 {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC).UnixMilli()
}

// =============================================================================
// SCHEMA
// =============================================================================

func TestNew_AppliesMigrations(t *testing.T) {
	s := newTestStore(t)
	assert.Equal(t, uint(1), s.SchemaVersion())
	assert.NoError(t, s.Ping(context.Background()))
}

// =============================================================================
// DUAL DATE REPRESENTATION
// =============================================================================

func TestList_RangeMatchesTextAndNativeDates(t *testing.T) {
	// GIVEN: January rows stored as text and as epoch millis, plus neighbours
	s := newTestStore(t)
	insert(t, s, "t-in", "2024-01-15", "text inside", 10, 0)
	insert(t, s, "t-before", "2023-12-31", "text before", 10, 0)
	insert(t, s, "t-after", "2024-02-01", "text after", 10, 0)
	insertLegacy(t, s, "n-first", ms(2024, 1, 1, 0), 5, 0)
	insertLegacy(t, s, "n-last", ms(2024, 1, 31, 23), 5, 0)
	insertLegacy(t, s, "n-after", ms(2024, 2, 1, 0), 5, 0)
	insertLegacy(t, s, "x-suffix", "2024-01-20T10:00:00+09:00", 1, 0)
	insertLegacy(t, s, "x-rfc", "Sat, 20 Jan 2024 10:00:00 GMT", 1, 0)
	insertLegacy(t, s, "x-junk", "someday", 1, 0)

	// WHEN: Filtering on January 2024
	got := listIDs(t, s, ledger.Query{Start: "2024-01-01", End: "2024-01-31"})

	// THEN: Only January rows come back, whatever their representation
	assert.ElementsMatch(t, []string{"t-in", "n-first", "n-last", "x-suffix", "x-rfc"}, got)
}

func TestList_RangeMatchesEpochSecondDates(t *testing.T) {
	// GIVEN: Legacy rows holding Unix seconds as integer and real values
	s := newTestStore(t)
	mid := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC).Unix()
	insertLegacy(t, s, "sec", mid, 10, 0)
	insertLegacy(t, s, "sec-real", float64(mid)+0.5, 10, 0)
	insertLegacy(t, s, "sec-feb", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC).Unix(), 10, 0)

	got, err := s.Get(context.Background(), "sec")
	require.NoError(t, err)
	assert.Equal(t, ledger.CanonicalDate("2024-01-15"), got.Date)

	// WHEN/THEN: Closed and open ranges treat them like every other date
	assert.ElementsMatch(t, []string{"sec", "sec-real"}, listIDs(t, s, ledger.Query{Start: "2024-01-01", End: "2024-01-31"}))
	assert.ElementsMatch(t, []string{"sec", "sec-real", "sec-feb"}, listIDs(t, s, ledger.Query{Start: "2024-01-01"}))
	assert.ElementsMatch(t, []string{"sec-feb"}, listIDs(t, s, ledger.Query{Start: "2024-02-01"}))
}

func TestList_OpenAndInvalidBounds(t *testing.T) {
	s := newTestStore(t)
	insert(t, s, "a", "2024-01-15", "a", 0, 0)
	insertLegacy(t, s, "b", ms(2024, 3, 1, 0), 0, 0)
	insertLegacy(t, s, "c", nil, 0, 0)

	assert.ElementsMatch(t, []string{"a", "b", "c"}, listIDs(t, s, ledger.Query{Start: "soon", End: "2024-99-99"}))
	assert.ElementsMatch(t, []string{"b"}, listIDs(t, s, ledger.Query{Start: "2024-02-01"}))
	assert.ElementsMatch(t, []string{"a"}, listIDs(t, s, ledger.Query{End: "2024-02-01"}))
}

func TestList_LegacyValuesAreNormalized(t *testing.T) {
	s := newTestStore(t)
	insertLegacy(t, s, "n", ms(2024, 1, 5, 12), 1000.5, "n/a")

	got, err := s.Get(context.Background(), "n")

	require.NoError(t, err)
	assert.Equal(t, ledger.CanonicalDate("2024-01-05"), got.Date)
	assert.Equal(t, "1000.5", got.Income.String())
	assert.True(t, got.Expense.IsZero())
}

// =============================================================================
// DESCRIPTION SEARCH
// =============================================================================

func TestList_SearchIsLiteralAndCaseInsensitive(t *testing.T) {
	s := newTestStore(t)
	insert(t, s, "a", "2024-01-01", "Office SUPPLIES", 0, 0)
	insert(t, s, "b", "2024-01-02", "100% refund", 0, 0)
	insert(t, s, "c", "2024-01-03", "1000 refund", 0, 0)
	insert(t, s, "d", "2024-01-04", "snake_case", 0, 0)
	insert(t, s, "e", "2024-01-05", "snakeXcase", 0, 0)

	assert.Equal(t, []string{"a"}, listIDs(t, s, ledger.Query{Q: "supplies"}))
	assert.Equal(t, []string{"b"}, listIDs(t, s, ledger.Query{Q: "100%"}))
	assert.Equal(t, []string{"d"}, listIDs(t, s, ledger.Query{Q: "e_c"}))
	assert.Empty(t, listIDs(t, s, ledger.Query{Q: "(.*)"}))
}

// =============================================================================
// WRITES
// =============================================================================

func TestUpdate_PatchesOnlySuppliedFields(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insert(t, s, "a", "2024-01-01", "before", 10, 0)

	desc := "after"
	exp := decimal.NewFromInt(3)
	later := stamp.Add(time.Hour)
	got, err := s.Update(ctx, "a", ledger.Patch{Description: &desc, Expense: &exp}, later)

	require.NoError(t, err)
	assert.Equal(t, "after", got.Description)
	assert.Equal(t, "10", got.Income.String())
	assert.Equal(t, "3", got.Expense.String())
	assert.Equal(t, ledger.CanonicalDate("2024-01-01"), got.Date)
	assert.True(t, later.Equal(got.UpdatedAt))
	assert.True(t, stamp.Equal(got.CreatedAt))
}

func TestUpdate_KeepsLegacyDateUnlessPatched(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insertLegacy(t, s, "n", ms(2024, 1, 5, 0), 1, 0)

	tag := "old"
	_, err := s.Update(ctx, "n", ledger.Patch{Tag: &tag}, stamp)
	require.NoError(t, err)

	var kind string
	require.NoError(t, s.db.QueryRow(`SELECT typeof(date) FROM transactions WHERE id = 'n'`).Scan(&kind))
	assert.Equal(t, "integer", kind)
}

func TestUpdateDelete_UnknownIDIsNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	tag := "x"

	_, err := s.Update(ctx, "missing", ledger.Patch{Tag: &tag}, stamp)
	assert.True(t, ledger.IsNotFound(err))

	assert.True(t, ledger.IsNotFound(s.Delete(ctx, "missing")))

	_, err = s.Get(ctx, "missing")
	assert.True(t, ledger.IsNotFound(err))
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	insert(t, s, "a", "2024-01-01", "a", 0, 0)

	require.NoError(t, s.Delete(context.Background(), "a"))
	assert.Empty(t, listIDs(t, s, ledger.Query{}))
}

// =============================================================================
// CARRY
// =============================================================================

func TestCarry_Upsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, ok, err := s.Carry(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SaveCarry(ctx, ledger.CarrySetting{PrevYear: 2022, PrevCarry: decimal.NewFromInt(10), UpdatedAt: stamp}))
	require.NoError(t, s.SaveCarry(ctx, ledger.CarrySetting{PrevYear: 2023, PrevCarry: decimal.RequireFromString("-12.75"), UpdatedAt: stamp}))

	c, ok, err := s.Carry(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2023, c.PrevYear)
	assert.Equal(t, "-12.75", c.PrevCarry.String())
}

/*
Package ledger provides the fund ledger engine.

PURPOSE:
  This package contains the storage-agnostic types and algorithms for a
  single-fund cash ledger: dated income/expense transactions, a carry-forward
  balance inherited from the previous year, and the derived summary and
  row grouping used to lay the ledger out as a spreadsheet.

KEY CONCEPTS IN THIS FILE (types.go):
  - Transaction: One dated money-in / money-out entry
  - CarrySetting: Balance inherited from the year before the ledger began
  - Summary: Totals derived on every request, never persisted
  - CanonicalDate: The YYYY-MM-DD key every date comparison uses (date.go)

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal, never float64, for amounts
  2. Purity: Aggregate, Segment and SortRows have no side effects
  3. Tolerance: Bad dates and bad numbers degrade to safe defaults

USAGE:
  rows, _ := store.List(ctx, ledger.Query{Start: "2024-01-01"})
  ledger.SortRows(rows, ledger.OrderAsc)
  summary := ledger.Aggregate(rows, carry)
  segs := ledger.SegmentRows(rows)

SEE ALSO:
  - aggregate.go: Summary calculation
  - segment.go: Month/day run detection
  - service.go: Validation and persistence orchestration
*/
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// TRANSACTION - One dated ledger entry
// =============================================================================

// Transaction is a single income and/or expense entry.
// Income and Expense are never negative; a row with both zero is valid.
type Transaction struct {
	ID          string
	Date        CanonicalDate
	Description string
	Income      decimal.Decimal
	Expense     decimal.Decimal
	Tag         string
	Note        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Net returns income minus expense for the row.
func (t Transaction) Net() decimal.Decimal {
	return t.Income.Sub(t.Expense)
}

// =============================================================================
// CARRY SETTING - Prior-period balance (singleton)
// =============================================================================

// CarrySetting is the balance inherited from PrevYear.
// The ledger's target year is always PrevYear+1.
type CarrySetting struct {
	PrevYear  int
	PrevCarry decimal.Decimal
	UpdatedAt time.Time
}

// DefaultCarry is the value used when no carry setting has been saved.
func DefaultCarry(now time.Time) CarrySetting {
	return CarrySetting{PrevYear: now.UTC().Year() - 1, PrevCarry: decimal.Zero}
}

// TargetYear is the year the carry seeds.
func (c CarrySetting) TargetYear() int { return c.PrevYear + 1 }

// =============================================================================
// SUMMARY - Derived totals
// =============================================================================

// Summary holds totals over a row set plus the target-year breakdown.
type Summary struct {
	Income  decimal.Decimal
	Expense decimal.Decimal
	Balance decimal.Decimal
	Detail  SummaryDetail
}

// SummaryDetail restricts the totals to rows dated in TargetYear.
type SummaryDetail struct {
	PrevYear          int
	TargetYear        int
	PrevCarry         decimal.Decimal
	TargetYearIncome  decimal.Decimal
	TargetYearExpense decimal.Decimal
	TargetYearBalance decimal.Decimal
}

// =============================================================================
// QUERY - List filter accepted from callers
// =============================================================================

// Order is the sort direction for listed rows.
type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// ParseOrder maps anything other than "desc" to ascending.
func ParseOrder(s string) Order {
	if s == string(OrderDesc) {
		return OrderDesc
	}
	return OrderAsc
}

// Query is the list filter. Start and End are raw caller input; bounds that
// are not canonical dates are ignored rather than rejected.
type Query struct {
	Start string
	End   string
	Q     string
	Order Order
}

// Range returns the date filter described by the query.
func (q Query) Range() RangeFilter {
	return NewRangeFilter(q.Start, q.End)
}

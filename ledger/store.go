/*
store.go - Persistence interface for transactions and the carry setting

PURPOSE:
  Defines the interface between the ledger service and the database.
  The store is the sole owner of transaction records; the engine only
  reads and derives from the copies it returns.

DATE REPRESENTATION:
  Rows written through Insert/Update always carry a canonical YYYY-MM-DD
  text date. Older rows may hold a native instant instead, so List must
  apply Query.Range() to both representations (see RangeFilter).

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - ledger/memstore/memory.go: In-memory for tests

SEE ALSO:
  - service.go: Validation in front of the store
*/
package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// STORE - Interface for transaction persistence
// =============================================================================

// Store persists transactions and the carry setting.
type Store interface {
	// List returns rows matching q's date range and description search.
	// The result order is unspecified; callers sort with SortRows.
	List(ctx context.Context, q Query) ([]Transaction, error)

	// Get returns one row or an error wrapping ErrNotFound.
	Get(ctx context.Context, id string) (Transaction, error)

	// Insert persists a new row. The caller assigns ID and timestamps.
	Insert(ctx context.Context, tx Transaction) error

	// Update applies p to the row and sets UpdatedAt to at.
	// Returns an error wrapping ErrNotFound for unknown IDs.
	Update(ctx context.Context, id string, p Patch, at time.Time) (Transaction, error)

	// Delete removes the row or returns an error wrapping ErrNotFound.
	Delete(ctx context.Context, id string) error

	// Carry returns the saved carry setting; ok is false if none was saved.
	Carry(ctx context.Context) (c CarrySetting, ok bool, err error)

	// SaveCarry upserts the carry setting.
	SaveCarry(ctx context.Context, c CarrySetting) error
}

// =============================================================================
// PATCH - Validated partial update
// =============================================================================

// Patch lists the fields an update changes. Nil fields are left untouched.
type Patch struct {
	Date        *CanonicalDate
	Description *string
	Income      *decimal.Decimal
	Expense     *decimal.Decimal
	Tag         *string
	Note        *string
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Date == nil && p.Description == nil && p.Income == nil &&
		p.Expense == nil && p.Tag == nil && p.Note == nil
}

// Apply returns tx with the patch applied and UpdatedAt set to at.
func (p Patch) Apply(tx Transaction, at time.Time) Transaction {
	if p.Date != nil {
		tx.Date = *p.Date
	}
	if p.Description != nil {
		tx.Description = *p.Description
	}
	if p.Income != nil {
		tx.Income = *p.Income
	}
	if p.Expense != nil {
		tx.Expense = *p.Expense
	}
	if p.Tag != nil {
		tx.Tag = *p.Tag
	}
	if p.Note != nil {
		tx.Note = *p.Note
	}
	tx.UpdatedAt = at
	return tx
}

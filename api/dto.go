/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, keeping the ledger
  types free of wire concerns.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

LOOSE INPUT:
  date, income, expense, prev_year and prev_carry are decoded as `any`
  (with json.Decoder.UseNumber) so the ledger package decides what is
  acceptable: "2024-03-01", "2024-03-01T10:00:00Z", epoch numbers,
  "1,000", 1000.5 and so on.

MONEY:
  Amounts are emitted as decimal strings ("1200.5") so no precision is
  lost in JavaScript clients.

SEE ALSO:
  - handlers.go: Uses these types
  - ledger/service.go: Draft, Changes
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/fund-ledger/ledger"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// TransactionDTO represents a ledger row in API responses.
type TransactionDTO struct {
	ID          string          `json:"id"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Income      decimal.Decimal `json:"income"`
	Expense     decimal.Decimal `json:"expense"`
	Tag         string          `json:"tag,omitempty"`
	Note        string          `json:"note,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// LedgerRowDTO is a TransactionDTO with its running balance.
type LedgerRowDTO struct {
	TransactionDTO
	Balance decimal.Decimal `json:"balance"`
}

// CreateTransactionRequest is the request body for creating a row.
type CreateTransactionRequest struct {
	Date        any    `json:"date"`
	Description string `json:"description"`
	Income      any    `json:"income"`
	Expense     any    `json:"expense"`
	Tag         string `json:"tag"`
	Note        string `json:"note"`
}

// UpdateTransactionRequest is the request body for a partial update.
// Absent (or null) fields stay unchanged.
type UpdateTransactionRequest struct {
	Date        any     `json:"date"`
	Description *string `json:"description"`
	Income      any     `json:"income"`
	Expense     any     `json:"expense"`
	Tag         *string `json:"tag"`
	Note        *string `json:"note"`
}

// FilterDTO echoes the filter that was actually applied.
type FilterDTO struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Q     string `json:"q"`
	Order string `json:"order"`
}

// SummaryDTO mirrors ledger.Summary.
type SummaryDTO struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Balance decimal.Decimal `json:"balance"`
	Detail  DetailDTO       `json:"detail"`
}

// DetailDTO mirrors ledger.SummaryDetail.
type DetailDTO struct {
	PrevYear          int             `json:"prev_year"`
	TargetYear        int             `json:"target_year"`
	PrevCarry         decimal.Decimal `json:"prev_carry"`
	TargetYearIncome  decimal.Decimal `json:"target_year_income"`
	TargetYearExpense decimal.Decimal `json:"target_year_expense"`
	TargetYearBalance decimal.Decimal `json:"target_year_balance"`
}

// ListResponse is the response of GET /api/entries.
type ListResponse struct {
	Filter  FilterDTO      `json:"filter"`
	Rows    []LedgerRowDTO `json:"rows"`
	Summary SummaryDTO     `json:"summary"`
	Carry   CarryDTO       `json:"carry"`
}

// CarryDTO represents the carry setting.
type CarryDTO struct {
	PrevYear   int             `json:"prev_year"`
	PrevCarry  decimal.Decimal `json:"prev_carry"`
	TargetYear int             `json:"target_year"`
	UpdatedAt  *time.Time      `json:"updated_at,omitempty"`
}

// CarryRequest is the request body for PUT /api/settings/carry.
type CarryRequest struct {
	PrevYear  any `json:"prev_year"`
	PrevCarry any `json:"prev_carry"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Reason  string `json:"reason,omitempty"`
	Field   string `json:"field,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toTransactionDTO(tx ledger.Transaction) TransactionDTO {
	return TransactionDTO{
		ID:          tx.ID,
		Date:        string(tx.Date),
		Description: tx.Description,
		Income:      tx.Income,
		Expense:     tx.Expense,
		Tag:         tx.Tag,
		Note:        tx.Note,
		CreatedAt:   tx.CreatedAt,
		UpdatedAt:   tx.UpdatedAt,
	}
}

func toLedgerRows(rows []ledger.Transaction, seed decimal.Decimal) []LedgerRowDTO {
	balances := ledger.RunningBalances(rows, seed)
	out := make([]LedgerRowDTO, len(rows))
	for i, tx := range rows {
		out[i] = LedgerRowDTO{TransactionDTO: toTransactionDTO(tx), Balance: balances[i]}
	}
	return out
}

func toSummaryDTO(s ledger.Summary) SummaryDTO {
	return SummaryDTO{
		Income:  s.Income,
		Expense: s.Expense,
		Balance: s.Balance,
		Detail: DetailDTO{
			PrevYear:          s.Detail.PrevYear,
			TargetYear:        s.Detail.TargetYear,
			PrevCarry:         s.Detail.PrevCarry,
			TargetYearIncome:  s.Detail.TargetYearIncome,
			TargetYearExpense: s.Detail.TargetYearExpense,
			TargetYearBalance: s.Detail.TargetYearBalance,
		},
	}
}

func toCarryDTO(c ledger.CarrySetting) CarryDTO {
	dto := CarryDTO{
		PrevYear:   c.PrevYear,
		PrevCarry:  c.PrevCarry,
		TargetYear: c.TargetYear(),
	}
	if !c.UpdatedAt.IsZero() {
		at := c.UpdatedAt
		dto.UpdatedAt = &at
	}
	return dto
}

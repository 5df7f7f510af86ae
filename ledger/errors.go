/*
errors.go - Centralized error types for the ledger

PURPOSE:
  All error types in one place for consistency and discoverability.
  The API layer maps them to HTTP status codes; everything else is
  reported as an internal failure with the cause attached.

ERROR CATEGORIES:
  1. Validation errors - Missing or invalid input, carry a machine reason
  2. Not found errors - Unknown transaction ID
  3. Store errors - Database-level failures, wrapped with %w

  Unresolvable dates and non-numeric amounts are NOT errors. They degrade
  to an empty CanonicalDate and to zero respectively.

USAGE:
  if ledger.IsValidation(err) {
      var verr *ledger.ValidationError
      errors.As(err, &verr) // verr.Reason == "empty_description"
  }

SEE ALSO:
  - service.go: Produces these errors
  - api/handlers.go: Maps them to responses
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is returned when input breaks a business rule.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a transaction ID matches no stored row.
	ErrNotFound = errors.New("transaction not found")
)

// Machine-readable validation reasons.
const (
	ReasonInvalidDate      = "invalid_date"
	ReasonEmptyDescription = "empty_description"
	ReasonNegativeAmount   = "negative_amount"
	ReasonInvalidAmount    = "invalid_amount"
	ReasonEmptyUpdate      = "empty_update"
	ReasonInvalidCarry     = "invalid_carry"
	ReasonInvalidID        = "invalid_id"
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError describes which field failed and why.
type ValidationError struct {
	Field   string
	Reason  string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Reason, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Reason, e.Message, e.Field)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, reason, message string) error {
	return &ValidationError{Field: field, Reason: reason, Message: message}
}

// NotFoundError names the missing transaction.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("transaction %q not found", e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsValidation returns true if the error is due to invalid client input.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsNotFound returns true if the error indicates a missing transaction.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// ReasonOf returns the validation reason carried by err, or "".
func ReasonOf(err error) string {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Reason
	}
	return ""
}

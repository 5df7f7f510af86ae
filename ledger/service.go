/*
service.go - Ledger use cases in front of the Store

PURPOSE:
  Validates caller input, assigns IDs and timestamps, persists through the
  Store and announces every successful mutation to an optional Notifier.
  Read paths (Report, Carry) sort rows and compute the summary.

VALIDATION RULES:
  Create:  date must resolve, description must be non-empty after trimming,
           amounts must be finite and non-negative (missing = 0)
  Update:  same rules per supplied field; a blank date counts as not
           supplied; no supplied field = empty_update
  Carry:   prev_year and prev_carry must both be finite numbers, and
           prev_year a whole year

  Nothing is written when validation fails.

NOTIFICATIONS:
  The Notifier runs after the store write has succeeded. A failed
  notification is logged and never turns a successful write into an error.

SEE ALSO:
  - errors.go: ValidationError reasons
  - events/client.go: AMQP Notifier
*/
package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// =============================================================================
// CHANGE NOTIFICATION
// =============================================================================

// ChangeKind names the mutation that happened.
type ChangeKind string

const (
	ChangeCreated ChangeKind = "created"
	ChangeUpdated ChangeKind = "updated"
	ChangeDeleted ChangeKind = "deleted"
	ChangeCarry   ChangeKind = "carry"
)

// Change describes one committed mutation.
type Change struct {
	Kind ChangeKind
	ID   string
	Date CanonicalDate
	At   time.Time
}

// Notifier receives committed changes.
type Notifier interface {
	Notify(ctx context.Context, c Change) error
}

// =============================================================================
// INPUT TYPES
// =============================================================================

// Draft is the raw input for a new transaction. Date, Income and Expense
// accept any representation NormalizeDate and ParseFinite understand.
type Draft struct {
	Date        any
	Description string
	Income      any
	Expense     any
	Tag         string
	Note        string
}

// Changes is the raw input for a partial update. A nil field is not
// supplied and stays unchanged.
type Changes struct {
	Date        any
	Description *string
	Income      any
	Expense     any
	Tag         *string
	Note        *string
}

// Report is the result of a list request.
type Report struct {
	Query   Query
	Rows    []Transaction
	Carry   CarrySetting
	Summary Summary
}

// =============================================================================
// SERVICE
// =============================================================================

// Service implements the ledger use cases.
type Service struct {
	store    Store
	notifier Notifier
	log      logrus.FieldLogger

	// Now and NewID are replaceable in tests.
	Now   func() time.Time
	NewID func() (string, error)
}

// NewService creates a service. notifier may be nil.
func NewService(store Store, notifier Notifier, log logrus.FieldLogger) *Service {
	return &Service{
		store:    store,
		notifier: notifier,
		log:      log,
		Now:      func() time.Time { return time.Now().UTC() },
		NewID:    newUUIDv7,
	}
}

func newUUIDv7() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Report lists rows for q, sorted by q.Order, with the summary over them.
func (s *Service) Report(ctx context.Context, q Query) (Report, error) {
	q = Effective(q)

	rows, err := s.store.List(ctx, q)
	if err != nil {
		return Report{}, fmt.Errorf("failed to list transactions: %w", err)
	}
	SortRows(rows, q.Order)

	carry, err := s.Carry(ctx)
	if err != nil {
		return Report{}, err
	}

	return Report{
		Query:   q,
		Rows:    rows,
		Carry:   carry,
		Summary: Aggregate(rows, carry),
	}, nil
}

// Effective drops non-canonical bounds, trims the search text and
// normalizes the order.
func Effective(q Query) Query {
	r := q.Range()
	return Query{
		Start: string(r.Start),
		End:   string(r.End),
		Q:     strings.TrimSpace(q.Q),
		Order: ParseOrder(string(q.Order)),
	}
}

// Get returns one transaction.
func (s *Service) Get(ctx context.Context, id string) (Transaction, error) {
	if err := checkID(id); err != nil {
		return Transaction{}, err
	}
	return s.store.Get(ctx, strings.TrimSpace(id))
}

// Create validates d and persists it as a new transaction.
func (s *Service) Create(ctx context.Context, d Draft) (Transaction, error) {
	date, err := resolveDate(d.Date)
	if err != nil {
		return Transaction{}, err
	}
	desc := strings.TrimSpace(d.Description)
	if desc == "" {
		return Transaction{}, invalid("description", ReasonEmptyDescription, "description is required")
	}
	income, err := amount("income", d.Income)
	if err != nil {
		return Transaction{}, err
	}
	expense, err := amount("expense", d.Expense)
	if err != nil {
		return Transaction{}, err
	}

	id, err := s.NewID()
	if err != nil {
		return Transaction{}, fmt.Errorf("failed to generate id: %w", err)
	}
	now := s.Now()
	tx := Transaction{
		ID:          id,
		Date:        date,
		Description: desc,
		Income:      income,
		Expense:     expense,
		Tag:         strings.TrimSpace(d.Tag),
		Note:        strings.TrimSpace(d.Note),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Insert(ctx, tx); err != nil {
		return Transaction{}, fmt.Errorf("failed to insert transaction: %w", err)
	}

	s.log.WithFields(logrus.Fields{"id": tx.ID, "date": tx.Date}).Info("transaction created")
	s.notify(ctx, Change{Kind: ChangeCreated, ID: tx.ID, Date: tx.Date, At: now})
	return tx, nil
}

// Update validates c and applies the supplied fields to the transaction.
func (s *Service) Update(ctx context.Context, id string, c Changes) (Transaction, error) {
	if err := checkID(id); err != nil {
		return Transaction{}, err
	}
	p, err := c.patch()
	if err != nil {
		return Transaction{}, err
	}
	if p.IsEmpty() {
		return Transaction{}, invalid("", ReasonEmptyUpdate, "no fields to update")
	}

	now := s.Now()
	tx, err := s.store.Update(ctx, strings.TrimSpace(id), p, now)
	if err != nil {
		if IsNotFound(err) {
			return Transaction{}, err
		}
		return Transaction{}, fmt.Errorf("failed to update transaction: %w", err)
	}

	s.log.WithField("id", tx.ID).Info("transaction updated")
	s.notify(ctx, Change{Kind: ChangeUpdated, ID: tx.ID, Date: tx.Date, At: now})
	return tx, nil
}

// Delete removes the transaction.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	if err := s.store.Delete(ctx, id); err != nil {
		if IsNotFound(err) {
			return err
		}
		return fmt.Errorf("failed to delete transaction: %w", err)
	}

	s.log.WithField("id", id).Info("transaction deleted")
	s.notify(ctx, Change{Kind: ChangeDeleted, ID: id, At: s.Now()})
	return nil
}

// Carry returns the saved carry setting or the default for the current year.
func (s *Service) Carry(ctx context.Context) (CarrySetting, error) {
	c, ok, err := s.store.Carry(ctx)
	if err != nil {
		return CarrySetting{}, fmt.Errorf("failed to load carry setting: %w", err)
	}
	if !ok {
		return DefaultCarry(s.Now()), nil
	}
	return c, nil
}

// UpdateCarry validates and upserts the carry setting.
func (s *Service) UpdateCarry(ctx context.Context, prevYear, prevCarry any) (CarrySetting, error) {
	year, err := ParseFinite(prevYear)
	if err != nil || !year.IsInteger() || year.LessThan(decimal.NewFromInt(1)) || year.GreaterThan(decimal.NewFromInt(9998)) {
		return CarrySetting{}, invalid("prev_year", ReasonInvalidCarry, "prev_year must be a whole year")
	}
	carry, err := ParseFinite(prevCarry)
	if err != nil {
		return CarrySetting{}, invalid("prev_carry", ReasonInvalidCarry, "prev_carry must be a finite number")
	}

	c := CarrySetting{PrevYear: int(year.IntPart()), PrevCarry: carry, UpdatedAt: s.Now()}
	if err := s.store.SaveCarry(ctx, c); err != nil {
		return CarrySetting{}, fmt.Errorf("failed to save carry setting: %w", err)
	}

	s.log.WithFields(logrus.Fields{"prev_year": c.PrevYear, "prev_carry": c.PrevCarry.String()}).Info("carry updated")
	s.notify(ctx, Change{Kind: ChangeCarry, At: c.UpdatedAt})
	return c, nil
}

func (s *Service) notify(ctx context.Context, c Change) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, c); err != nil {
		s.log.WithError(err).WithField("kind", c.Kind).Warn("change notification failed")
	}
}

// =============================================================================
// FIELD VALIDATION
// =============================================================================

func (c Changes) patch() (Patch, error) {
	var p Patch
	if c.Date != nil && !blank(c.Date) {
		d, err := resolveDate(c.Date)
		if err != nil {
			return Patch{}, err
		}
		p.Date = &d
	}
	if c.Description != nil {
		desc := strings.TrimSpace(*c.Description)
		if desc == "" {
			return Patch{}, invalid("description", ReasonEmptyDescription, "description must not be empty")
		}
		p.Description = &desc
	}
	if c.Income != nil {
		v, err := amount("income", c.Income)
		if err != nil {
			return Patch{}, err
		}
		p.Income = &v
	}
	if c.Expense != nil {
		v, err := amount("expense", c.Expense)
		if err != nil {
			return Patch{}, err
		}
		p.Expense = &v
	}
	if c.Tag != nil {
		tag := strings.TrimSpace(*c.Tag)
		p.Tag = &tag
	}
	if c.Note != nil {
		note := strings.TrimSpace(*c.Note)
		p.Note = &note
	}
	return p, nil
}

func resolveDate(v any) (CanonicalDate, error) {
	d := NormalizeDate(v)
	if _, ok := d.Time(); !ok {
		return "", invalid("date", ReasonInvalidDate, "date must be a valid calendar date")
	}
	return d, nil
}

func blank(v any) bool {
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

// amount accepts a missing or blank value as zero.
func amount(field string, v any) (decimal.Decimal, error) {
	if v == nil || blank(v) {
		return decimal.Zero, nil
	}
	d, err := ParseFinite(v)
	if err != nil {
		return decimal.Zero, invalid(field, ReasonInvalidAmount, field+" must be a number")
	}
	if d.IsNegative() {
		return decimal.Zero, invalid(field, ReasonNegativeAmount, field+" must not be negative")
	}
	return d, nil
}

func checkID(id string) error {
	if strings.TrimSpace(id) == "" {
		return invalid("id", ReasonInvalidID, "id is required")
	}
	return nil
}

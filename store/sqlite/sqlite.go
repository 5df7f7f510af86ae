/*
Package sqlite provides a SQLite-backed implementation of ledger.Store.

PURPOSE:
  Persists transactions and the carry setting. The schema is versioned
  with golang-migrate; migrations are embedded and applied on New().

KEY TABLES:
  transactions: One row per ledger entry
  settings:     Singleton carry setting (key = 'carry')

DUAL DATE REPRESENTATION:
  transactions.date has no declared type, so SQLite keeps whatever was
  stored. Rows written here always hold YYYY-MM-DD text. Rows imported from
  the previous system may hold Unix epoch milliseconds (INTEGER or REAL).
  List filters both in one statement:

    (typeof(date) = 'text'    AND substr(date, 1, 10) BETWEEN :start AND :end)
    OR
    (typeof(date) IN ('integer', 'real') AND date >= :startMs AND date < :dayAfterEndMs)

  Text that does not start with a YYYY-MM-DD prefix is fetched too and
  decided in Go with ledger.RangeFilter.Match, so both paths agree.

AMOUNTS:
  Stored as decimal strings. Legacy numeric values are read through
  ledger.Num, so anything non-finite becomes zero.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety and a single connection, which also
  keeps ":memory:" databases alive across calls.

USAGE:
  store, err := sqlite.New("./data/fundledger.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - ledger/store.go: Interface definition
  - ledger/filter.go: RangeFilter bounds used here
  - migrations/: Schema
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/fund-ledger/ledger"
)

const carryKey = "carry"

// ymdGlob matches a YYYY-MM-DD prefix in SQLite GLOB syntax.
const ymdGlob = "[0-9][0-9][0-9][0-9]-[0-9][0-9]-[0-9][0-9]"

// nativeMillis reads a numeric date as epoch milliseconds, scaling values
// below ledger.EpochMillisThreshold up from seconds like NormalizeDate does.
var nativeMillis = fmt.Sprintf("(CASE WHEN abs(date) < %d THEN date * 1000 ELSE date END)",
	int64(ledger.EpochMillisThreshold))

// Store implements ledger.Store using SQLite.
type Store struct {
	db      *sql.DB
	mu      sync.RWMutex
	version uint
}

var _ ledger.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	version, err := runMigrations(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{db: db, version: version}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SchemaVersion returns the migration version applied by New.
func (s *Store) SchemaVersion() uint {
	return s.version
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

const selectColumns = `
	SELECT id, date, description, income, expense, tag, note, created_at, updated_at
	FROM transactions`

// List returns rows matching q's date range and description search.
func (s *Store) List(ctx context.Context, q ledger.Query) ([]ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	filter := q.Range()
	where, args := rangeClause(filter)
	if search := strings.TrimSpace(q.Q); search != "" {
		where = append(where, "description LIKE ? ESCAPE '"+ledger.LikeEscape+"'")
		args = append(args, "%"+ledger.EscapeLike(search)+"%")
	}

	query := selectColumns
	if len(where) > 0 {
		query += "\n\tWHERE " + strings.Join(where, " AND ")
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var out []ledger.Transaction
	for rows.Next() {
		tx, raw, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		if !filter.Match(raw) {
			continue
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

// rangeClause translates filter into a WHERE fragment over both date
// representations.
func rangeClause(f ledger.RangeFilter) ([]string, []any) {
	if f.IsZero() {
		return nil, nil
	}

	text := []string{"substr(date, 1, 10) GLOB '" + ymdGlob + "'"}
	var textArgs []any
	lo, hi, hasLo, hasHi := f.TextBounds()
	if hasLo {
		text = append(text, "substr(date, 1, 10) >= ?")
		textArgs = append(textArgs, lo)
	}
	if hasHi {
		text = append(text, "substr(date, 1, 10) <= ?")
		textArgs = append(textArgs, hi)
	}

	native := []string{"typeof(date) IN ('integer', 'real')"}
	var nativeArgs []any
	from, until, hasFrom, hasUntil := f.NativeBounds()
	if hasFrom {
		native = append(native, nativeMillis+" >= ?")
		nativeArgs = append(nativeArgs, from.UnixMilli())
	}
	if hasUntil {
		native = append(native, nativeMillis+" < ?")
		nativeArgs = append(nativeArgs, until.UnixMilli())
	}

	clause := "((typeof(date) = 'text' AND ((" + strings.Join(text, " AND ") + ") OR " +
		"substr(date, 1, 10) NOT GLOB '" + ymdGlob + "')) OR (" + strings.Join(native, " AND ") + "))"

	args := append(textArgs, nativeArgs...)
	return []string{clause}, args
}

// Get returns a transaction by ID.
func (s *Store) Get(ctx context.Context, id string) (ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.get(ctx, s.db, id)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) get(ctx context.Context, db queryer, id string) (ledger.Transaction, error) {
	row := db.QueryRowContext(ctx, selectColumns+"\n\tWHERE id = ?", id)
	tx, _, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Transaction{}, &ledger.NotFoundError{ID: id}
	}
	return tx, err
}

// Insert persists a new transaction with a canonical text date.
func (s *Store) Insert(ctx context.Context, tx ledger.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO transactions
		(id, date, description, income, expense, tag, note, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		tx.ID,
		string(tx.Date),
		tx.Description,
		tx.Income.String(),
		tx.Expense.String(),
		tx.Tag,
		tx.Note,
		formatTime(tx.CreatedAt),
		formatTime(tx.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// Update applies p. Columns not named in p, including a legacy native
// date, are left as stored.
func (s *Store) Update(ctx context.Context, id string, p ledger.Patch, at time.Time) (ledger.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sets := []string{"updated_at = ?"}
	args := []any{formatTime(at)}
	if p.Date != nil {
		sets = append(sets, "date = ?")
		args = append(args, string(*p.Date))
	}
	if p.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *p.Description)
	}
	if p.Income != nil {
		sets = append(sets, "income = ?")
		args = append(args, p.Income.String())
	}
	if p.Expense != nil {
		sets = append(sets, "expense = ?")
		args = append(args, p.Expense.String())
	}
	if p.Tag != nil {
		sets = append(sets, "tag = ?")
		args = append(args, *p.Tag)
	}
	if p.Note != nil {
		sets = append(sets, "note = ?")
		args = append(args, *p.Note)
	}
	args = append(args, id)

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ledger.Transaction{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	res, err := sqlTx.ExecContext(ctx, "UPDATE transactions SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return ledger.Transaction{}, fmt.Errorf("failed to update transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.Transaction{}, &ledger.NotFoundError{ID: id}
	}

	tx, err := s.get(ctx, sqlTx, id)
	if err != nil {
		return ledger.Transaction{}, err
	}
	if err := sqlTx.Commit(); err != nil {
		return ledger.Transaction{}, fmt.Errorf("failed to commit update: %w", err)
	}
	return tx, nil
}

// Delete removes a transaction.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &ledger.NotFoundError{ID: id}
	}
	return nil
}

// =============================================================================
// CARRY SETTING
// =============================================================================

// Carry returns the saved carry setting.
func (s *Store) Carry(ctx context.Context) (ledger.CarrySetting, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		c         ledger.CarrySetting
		prevCarry any
		updatedAt sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT prev_year, prev_carry, updated_at FROM settings WHERE key = ?", carryKey,
	).Scan(&c.PrevYear, &prevCarry, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.CarrySetting{}, false, nil
	}
	if err != nil {
		return ledger.CarrySetting{}, false, fmt.Errorf("failed to load carry setting: %w", err)
	}
	c.PrevCarry = ledger.Num(prevCarry)
	c.UpdatedAt = parseTime(updatedAt.String)
	return c, true, nil
}

// SaveCarry upserts the carry setting.
func (s *Store) SaveCarry(ctx context.Context, c ledger.CarrySetting) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO settings (key, prev_year, prev_carry, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			prev_year = excluded.prev_year,
			prev_carry = excluded.prev_carry,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query, carryKey, c.PrevYear, c.PrevCarry.String(), formatTime(c.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to save carry setting: %w", err)
	}
	return nil
}

// =============================================================================
// SCANNING
// =============================================================================

type scanner interface {
	Scan(dest ...any) error
}

// scanTransaction returns the row and its raw stored date value.
func scanTransaction(row scanner) (ledger.Transaction, any, error) {
	var (
		tx          ledger.Transaction
		rawDate     any
		description sql.NullString
		income      any
		expense     any
		tag         sql.NullString
		note        sql.NullString
		createdAt   sql.NullString
		updatedAt   sql.NullString
	)

	err := row.Scan(&tx.ID, &rawDate, &description, &income, &expense, &tag, &note, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return tx, nil, err
	}
	if err != nil {
		return tx, nil, fmt.Errorf("failed to scan transaction: %w", err)
	}

	tx.Date = ledger.NormalizeDate(rawDate)
	tx.Description = description.String
	tx.Income = ledger.Num(income)
	tx.Expense = ledger.Num(expense)
	tx.Tag = tag.String
	tx.Note = note.String
	tx.CreatedAt = parseTime(createdAt.String)
	tx.UpdatedAt = parseTime(updatedAt.String)
	return tx, rawDate, nil
}

// Helper functions

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

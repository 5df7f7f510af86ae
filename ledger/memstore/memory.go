// Package memstore provides an in-memory ledger.Store.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/warp/fund-ledger/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory keeps rows in insertion order. Each row remembers the raw date
// value it was stored with so legacy native dates can be simulated.
type Memory struct {
	mu    sync.RWMutex
	rows  []record
	carry *ledger.CarrySetting
}

type record struct {
	tx  ledger.Transaction
	raw any
}

var _ ledger.Store = (*Memory)(nil)

func New() *Memory {
	return &Memory{}
}

// Seed stores tx with raw as its physical date value, bypassing validation.
// tx.Date is derived from raw.
func (m *Memory) Seed(tx ledger.Transaction, raw any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx.Date = ledger.NormalizeDate(raw)
	m.rows = append(m.rows, record{tx: tx, raw: raw})
}

func (m *Memory) List(_ context.Context, q ledger.Query) ([]ledger.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	filter := q.Range()
	out := make([]ledger.Transaction, 0, len(m.rows))
	for _, r := range m.rows {
		if !filter.Match(r.raw) || !ledger.ContainsFold(r.tx.Description, q.Q) {
			continue
		}
		out = append(out, r.tx)
	}
	return out, nil
}

func (m *Memory) Get(_ context.Context, id string) (ledger.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := m.indexLocked(id)
	if i < 0 {
		return ledger.Transaction{}, &ledger.NotFoundError{ID: id}
	}
	return m.rows[i].tx, nil
}

func (m *Memory) Insert(_ context.Context, tx ledger.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, record{tx: tx, raw: string(tx.Date)})
	return nil
}

func (m *Memory) Update(_ context.Context, id string, p ledger.Patch, at time.Time) (ledger.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexLocked(id)
	if i < 0 {
		return ledger.Transaction{}, &ledger.NotFoundError{ID: id}
	}
	tx := p.Apply(m.rows[i].tx, at)
	raw := m.rows[i].raw
	if p.Date != nil {
		raw = string(*p.Date)
	}
	m.rows[i] = record{tx: tx, raw: raw}
	return tx, nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexLocked(id)
	if i < 0 {
		return &ledger.NotFoundError{ID: id}
	}
	m.rows = append(m.rows[:i], m.rows[i+1:]...)
	return nil
}

func (m *Memory) Carry(_ context.Context) (ledger.CarrySetting, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.carry == nil {
		return ledger.CarrySetting{}, false, nil
	}
	return *m.carry, true, nil
}

func (m *Memory) SaveCarry(_ context.Context, c ledger.CarrySetting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carry = &c
	return nil
}

func (m *Memory) indexLocked(id string) int {
	for i, r := range m.rows {
		if r.tx.ID == id {
			return i
		}
	}
	return -1
}

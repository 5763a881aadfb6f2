// Package ledger holds the non-SQL idempotency ledger backends.
package ledger

import (
	"context"
	"sync"

	"padel_notifier/internal/domain/reminder"
)

// Memory is a process-local ledger for tests and dry runs.
type Memory struct {
	mu      sync.Mutex
	records map[string]reminder.Record
}

func NewMemory() *Memory {
	return &Memory{records: map[string]reminder.Record{}}
}

func (m *Memory) HasFired(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.records[key]
	return ok, nil
}

// RecordFired keeps the first record written for a key.
func (m *Memory) RecordFired(_ context.Context, rec reminder.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[rec.Key]; !ok {
		m.records[rec.Key] = rec
	}
	return nil
}

// Get returns the stored record for key.
func (m *Memory) Get(key string) (reminder.Record, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[key]
	return rec, ok
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

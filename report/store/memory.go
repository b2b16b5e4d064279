// Package store provides report.Store implementations.
package store

import (
	"context"
	"sync"

	"github.com/warp/opsreport/report"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory keeps the encoded list in memory, so every read decodes a fresh
// copy exactly like the durable store does.
type Memory struct {
	mu    sync.RWMutex
	data  []byte
	limit int

	// WriteErr, when set, fails every write. Used to simulate storage faults.
	WriteErr error
}

func NewMemory() *Memory {
	return &Memory{limit: report.MaxRecords}
}

func (m *Memory) List(_ context.Context) []report.Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listLocked()
}

func (m *Memory) listLocked() []report.Record {
	records, err := report.DecodeList(m.data)
	if err != nil {
		return []report.Record{}
	}
	return records
}

// Upsert replaces or inserts rec and persists the truncated list.
func (m *Memory) Upsert(_ context.Context, rec report.Record) ([]report.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	records := report.Upsert(m.listLocked(), rec, m.limit)
	if err := m.writeLocked(records); err != nil {
		return nil, err
	}
	return records, nil
}

func (m *Memory) Remove(_ context.Context, date string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	records, removed := report.Remove(m.listLocked(), date)
	if !removed {
		return nil
	}
	return m.writeLocked(records)
}

// SetRaw replaces the stored bytes, bypassing encoding.
func (m *Memory) SetRaw(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), data...)
}

func (m *Memory) writeLocked(records []report.Record) error {
	if m.WriteErr != nil {
		return m.WriteErr
	}
	data, err := report.EncodeList(records)
	if err != nil {
		return err
	}
	m.data = data
	return nil
}

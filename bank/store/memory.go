// Package store provides Journal implementations.
package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/warp/payments-engine/bank"
)

// =============================================================================
// MEMORY JOURNAL - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	entries  []bank.Entry
	byClient map[bank.ClientID][]int
}

func NewMemory() *Memory {
	return &Memory{
		byClient: make(map[bank.ClientID][]int),
	}
}

// Append adds a single entry. Append-only; Seq must increase.
func (m *Memory) Append(_ context.Context, e bank.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if n := len(m.entries); n > 0 && e.Seq <= m.entries[n-1].Seq {
		return fmt.Errorf("journal entry %d out of order (last %d)", e.Seq, m.entries[n-1].Seq)
	}
	m.byClient[e.Record.Client] = append(m.byClient[e.Record.Client], len(m.entries))
	m.entries = append(m.entries, e)
	return nil
}

func (m *Memory) Entries(_ context.Context, client *bank.ClientID, limit int) ([]bank.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if client == nil {
		n := len(m.entries)
		if limit > 0 && limit < n {
			n = limit
		}
		result := make([]bank.Entry, n)
		copy(result, m.entries[:n])
		return result, nil
	}

	idx := m.byClient[*client]
	if limit > 0 && limit < len(idx) {
		idx = idx[:limit]
	}
	result := make([]bank.Entry, len(idx))
	for i, j := range idx {
		result[i] = m.entries[j]
	}
	return result, nil
}

// LastSeq returns the Seq of the newest entry, 0 when empty.
func (m *Memory) LastSeq(_ context.Context) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if n := len(m.entries); n > 0 {
		return m.entries[n-1].Seq, nil
	}
	return 0, nil
}

// Reset drops every entry.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = nil
	m.byClient = make(map[bank.ClientID][]int)
	return nil
}

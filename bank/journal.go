/*
journal.go - Append-only audit trail of routed records

PURPOSE:
  A Journal records every record the ledger routed, in order, together with
  the outcome (applied or the rejection reason). It explains how each
  balance was reached. It is NOT a source of truth: the ledger keeps its
  state in memory and never reloads from a journal.

APPEND-ONLY CONTRACT:
  - Append(): single entry write, Seq assigned by the ledger
  - NO Update() or Delete()
  - Reset() exists for dev/demo only
  - LastSeq() lets a new ledger continue numbering over an existing trail

IMPLEMENTATIONS:
  - bank/store/memory.go: In-memory (tests, CLI default)
  - store/sqlite/sqlite.go: SQLite (file or ":memory:")

SEE ALSO:
  - ledger.go: Writes entries from Process and Submit
*/
package bank

import (
	"context"
	"time"
)

// Entry is one journal line.
type Entry struct {
	Seq        uint64
	Record     Record
	Applied    bool
	Reason     string // Reason() code, empty when applied
	RecordedAt time.Time
}

// Journal stores entries. Implementations must keep entries in Seq order.
type Journal interface {
	// Append persists one entry. This is the ONLY write operation.
	Append(ctx context.Context, e Entry) error

	// Entries returns entries in Seq order. A nil client returns all
	// clients; limit <= 0 means no limit.
	Entries(ctx context.Context, client *ClientID, limit int) ([]Entry, error)
}

// ResettableJournal is implemented by journals that can be cleared.
type ResettableJournal interface {
	Journal
	Reset(ctx context.Context) error
}

// SequencedJournal is implemented by journals that outlive a ledger (a
// SQLite file). A ledger numbers its entries after LastSeq.
type SequencedJournal interface {
	Journal
	LastSeq(ctx context.Context) (uint64, error)
}

// NewEntry builds the journal entry for rec and its routing outcome.
func NewEntry(seq uint64, rec Record, outcome error, at time.Time) Entry {
	return Entry{
		Seq:        seq,
		Record:     rec,
		Applied:    outcome == nil,
		Reason:     Reason(outcome),
		RecordedAt: at.UTC(),
	}
}

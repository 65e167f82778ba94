/*
ledger.go - Routes records to client accounts

PURPOSE:
  The Ledger owns the mapping from client id to Account. It routes each
  record to exactly one account, opens accounts on a first deposit, and
  renders the final snapshot.

CRITICAL INVARIANTS:
  1. An account exists only once a deposit for its client was accepted
  2. No record ever touches more than one account
  3. Records are applied strictly in the order they are submitted

JOURNAL NUMBERING:
  Entries are numbered from 1, or after the journal's LastSeq when it
  already holds entries from an earlier run. Balances are never reloaded.

ACCOUNT OPENING:
  A deposit for an unknown client is tried on a fresh account. The account
  is kept only if the deposit is accepted; a rejected opening deposit (zero
  amount) leaves the client unknown. Any other kind for an unknown client
  is discarded with ErrNoAccount.

CONCURRENCY:
  A Ledger is single-owner. Nothing here locks. Callers that share a ledger
  across goroutines (the HTTP adapter) must serialise every call.

STREAM PROCESSING:
  Process drains a Source in order. Semantic rejections are counted, never
  returned. Only Source failures, journal failures and context cancellation
  abort a run.

SEE ALSO:
  - account.go: Per-account state machine
  - journal.go: Optional audit trail
  - csvio/reader.go: CSV Source
*/
package bank

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"
)

// =============================================================================
// LEDGER
// =============================================================================

type Ledger struct {
	// Journal receives every record routed through Submit or Process.
	// May be nil.
	Journal Journal

	accounts map[ClientID]*Account
	seq      uint64
	resumed  bool
	now      func() time.Time
}

func NewLedger() *Ledger {
	return &Ledger{
		accounts: make(map[ClientID]*Account),
		now:      time.Now,
	}
}

// NewJournaledLedger creates a ledger that writes every routed record to j.
func NewJournaledLedger(j Journal) *Ledger {
	l := NewLedger()
	l.Journal = j
	return l
}

// Route applies rec to its client's account and discards the outcome.
func (l *Ledger) Route(rec Record) {
	_ = l.TryRoute(rec)
}

// TryRoute applies rec to its client's account. It returns nil when the
// record was applied and a *RejectionError when it was discarded.
func (l *Ledger) TryRoute(rec Record) error {
	acct, ok := l.accounts[rec.Client]
	if ok {
		return acct.TryApply(rec)
	}
	if rec.Kind != Deposit {
		return reject(rec, ErrNoAccount)
	}

	acct = NewAccount(rec.Client)
	if err := acct.TryApply(rec); err != nil {
		return err
	}
	l.accounts[rec.Client] = acct
	return nil
}

// Submit routes rec and writes it to the journal. The returned entry carries
// the outcome. If the journal position cannot be read, nothing is applied.
// A failed journal write is returned after the record has been applied (or
// rejected).
func (l *Ledger) Submit(ctx context.Context, rec Record) (Entry, error) {
	if err := l.resume(ctx); err != nil {
		return Entry{}, err
	}
	outcome := l.TryRoute(rec)
	l.seq++
	entry := NewEntry(l.seq, rec, outcome, l.now())
	if l.Journal == nil {
		return entry, nil
	}
	if err := l.Journal.Append(ctx, entry); err != nil {
		return entry, fmt.Errorf("failed to journal record %d: %w", entry.Seq, err)
	}
	return entry, nil
}

// resume starts numbering after the last entry of a journal that already
// holds entries from an earlier run.
func (l *Ledger) resume(ctx context.Context) error {
	if l.resumed {
		return nil
	}
	if sj, ok := l.Journal.(SequencedJournal); ok {
		last, err := sj.LastSeq(ctx)
		if err != nil {
			return fmt.Errorf("failed to read journal position: %w", err)
		}
		if last > l.seq {
			l.seq = last
		}
	}
	l.resumed = true
	return nil
}

// =============================================================================
// STREAM PROCESSING
// =============================================================================

// Source yields records in input order. Next returns io.EOF when the stream
// is exhausted; any other error is fatal.
type Source interface {
	Next() (Record, error)
}

// SliceSource is a Source over an in-memory slice.
type SliceSource struct {
	Records []Record
	pos     int
}

func (s *SliceSource) Next() (Record, error) {
	if s.pos >= len(s.Records) {
		return Record{}, io.EOF
	}
	rec := s.Records[s.pos]
	s.pos++
	return rec, nil
}

// Stats summarises a Process run.
type Stats struct {
	Records  int            `json:"records"`
	Applied  int            `json:"applied"`
	Rejected map[string]int `json:"rejected"`
}

// RejectedTotal is the number of discarded records.
func (s Stats) RejectedTotal() int {
	return s.Records - s.Applied
}

func (s *Stats) add(e Entry) {
	s.Records++
	if e.Applied {
		s.Applied++
		return
	}
	if s.Rejected == nil {
		s.Rejected = make(map[string]int)
	}
	s.Rejected[e.Reason]++
}

// Process routes every record from src in order until io.EOF. The returned
// Stats cover every record routed before a failure.
func (l *Ledger) Process(ctx context.Context, src Source) (Stats, error) {
	var stats Stats
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			return stats, nil
		}
		if err != nil {
			return stats, fmt.Errorf("failed to read record %d: %w", stats.Records+1, err)
		}
		entry, err := l.Submit(ctx, rec)
		stats.add(entry)
		if err != nil {
			return stats, err
		}
	}
}

// =============================================================================
// QUERIES
// =============================================================================

// Len returns the number of open accounts.
func (l *Ledger) Len() int {
	return len(l.accounts)
}

// Lookup returns the balance of one client.
func (l *Ledger) Lookup(client ClientID) (Balance, bool) {
	acct, ok := l.accounts[client]
	if !ok {
		return Balance{}, false
	}
	return acct.Balance(), true
}

// Snapshot returns one balance per known client, ordered by client id.
func (l *Ledger) Snapshot() []Balance {
	out := make([]Balance, 0, len(l.accounts))
	for _, acct := range l.accounts {
		out = append(out, acct.Balance())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Client < out[j].Client })
	return out
}

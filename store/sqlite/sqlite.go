/*
Package sqlite provides a SQLite-backed journal for the client ledger.

PURPOSE:
  Implements bank.Journal using SQLite so a run can leave an auditable
  trail: every routed record with its outcome, plus the final snapshot.
  The ledger never reads its state back from here; each run starts empty.

INTERFACES IMPLEMENTED:
  bank.Journal:           Append-only record trail
  bank.ResettableJournal: Reset for dev/demo
  bank.SequencedJournal:  LastSeq, so a reopened file keeps its numbering

APPEND-ONLY ENFORCEMENT:
  - No UPDATE statements on the journal table
  - No DELETE statements except Reset()
  - seq is the primary key; a replayed seq is rejected

KEY TABLES:
  journal:   One row per routed record, ordered by seq
  snapshots: Final balances per client, replaced on each SaveSnapshot

AMOUNTS:
  Stored as decimal TEXT, never REAL, so values round-trip exactly.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety, same as the in-memory journal.

USAGE:
  store, err := sqlite.New("./audit.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  ledger := bank.NewJournaledLedger(store)

SEE ALSO:
  - bank/journal.go: Interface definitions
  - bank/store/memory.go: In-memory implementation
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
	"github.com/shopspring/decimal"
	"github.com/warp/payments-engine/bank"
)

// ErrDuplicateSeq is returned when a journal entry reuses a sequence number.
var ErrDuplicateSeq = errors.New("duplicate journal sequence")

// Store implements bank.Journal using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Each connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	-- Journal (append-only)
	CREATE TABLE IF NOT EXISTS journal (
		seq INTEGER PRIMARY KEY,
		client_id INTEGER NOT NULL,
		tx_id INTEGER NOT NULL,
		kind TEXT NOT NULL,
		amount TEXT NOT NULL,
		applied BOOLEAN NOT NULL,
		reason TEXT,
		recorded_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_journal_client
		ON journal(client_id, seq);
	CREATE INDEX IF NOT EXISTS idx_journal_tx
		ON journal(client_id, tx_id);

	-- Snapshots (final balances of the last run)
	CREATE TABLE IF NOT EXISTS snapshots (
		client_id INTEGER PRIMARY KEY,
		available TEXT NOT NULL,
		held TEXT NOT NULL,
		total TEXT NOT NULL,
		locked BOOLEAN NOT NULL,
		taken_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// JOURNAL (bank.Journal interface)
// =============================================================================

// Append adds an entry to the journal.
func (s *Store) Append(ctx context.Context, e bank.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO journal
		(seq, client_id, tx_id, kind, amount, applied, reason, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		e.Seq,
		e.Record.Client,
		e.Record.Tx,
		e.Record.Kind.String(),
		e.Record.Amount.String(),
		e.Applied,
		nullString(e.Reason),
		e.RecordedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrDuplicateSeq
		}
		return fmt.Errorf("failed to append journal entry: %w", err)
	}
	return nil
}

// LastSeq returns the highest seq in the journal, 0 when it is empty.
func (s *Store) LastSeq(ctx context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var last uint64
	err := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(seq), 0) FROM journal").Scan(&last)
	if err != nil {
		return 0, fmt.Errorf("failed to read last journal seq: %w", err)
	}
	return last, nil
}

// Entries returns journal entries in seq order.
func (s *Store) Entries(ctx context.Context, client *bank.ClientID, limit int) ([]bank.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT seq, client_id, tx_id, kind, amount, applied, reason, recorded_at
		FROM journal
	`
	var args []any
	if client != nil {
		query += " WHERE client_id = ?"
		args = append(args, *client)
	}
	query += " ORDER BY seq ASC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()

	var entries []bank.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanEntry(rows *sql.Rows) (bank.Entry, error) {
	var (
		e          bank.Entry
		client     uint16
		tx         uint32
		kind       string
		amount     string
		reason     sql.NullString
		recordedAt string
	)

	err := rows.Scan(&e.Seq, &client, &tx, &kind, &amount, &e.Applied, &reason, &recordedAt)
	if err != nil {
		return e, fmt.Errorf("failed to scan journal entry: %w", err)
	}

	k, err := bank.ParseKind(kind)
	if err != nil {
		return e, fmt.Errorf("journal entry %d: %w", e.Seq, err)
	}
	e.Record = bank.Record{
		Kind:   k,
		Client: bank.ClientID(client),
		Tx:     bank.TxID(tx),
		Amount: parseDecimal(amount),
	}
	e.Reason = reason.String
	e.RecordedAt, _ = time.Parse(time.RFC3339Nano, recordedAt)
	return e, nil
}

// =============================================================================
// SNAPSHOTS
// =============================================================================

// SaveSnapshot replaces the stored snapshot with balances, atomically.
func (s *Store) SaveSnapshot(ctx context.Context, balances []bank.Balance, takenAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if _, err := sqlTx.ExecContext(ctx, "DELETE FROM snapshots"); err != nil {
		return fmt.Errorf("failed to clear snapshots: %w", err)
	}

	query := `
		INSERT INTO snapshots (client_id, available, held, total, locked, taken_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	at := takenAt.UTC().Format(time.RFC3339Nano)
	for _, b := range balances {
		_, err := sqlTx.ExecContext(ctx, query,
			b.Client,
			b.Available.String(),
			b.Held.String(),
			b.Total.String(),
			b.Locked,
			at,
		)
		if err != nil {
			return fmt.Errorf("failed to save snapshot for client %d: %w", b.Client, err)
		}
	}

	return sqlTx.Commit()
}

// LoadSnapshot returns the stored snapshot ordered by client id.
func (s *Store) LoadSnapshot(ctx context.Context) ([]bank.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT client_id, available, held, total, locked
		FROM snapshots
		ORDER BY client_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var balances []bank.Balance
	for rows.Next() {
		var (
			b                      bank.Balance
			client                 uint16
			available, held, total string
		)
		if err := rows.Scan(&client, &available, &held, &total, &b.Locked); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		b.Client = bank.ClientID(client)
		b.Available = parseDecimal(available)
		b.Held = parseDecimal(held)
		b.Total = parseDecimal(total)
		balances = append(balances, b)
	}
	return balances, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"journal", "snapshots"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "PRIMARY KEY"))
}

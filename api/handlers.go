/*
handlers.go - HTTP API handlers for the client ledger

PURPOSE:
  Exposes the ledger over HTTP. Handles request/response and JSON, and
  delegates every decision to the bank package.

ENDPOINTS:
  Transactions:
    POST   /api/transactions          Submit one record or an array
    POST   /api/transactions/import   Submit a CSV body

  Accounts:
    GET    /api/accounts              Snapshot (JSON, or CSV with ?format=csv)
    GET    /api/accounts/{client}     One client

  Journal:
    GET    /api/journal               Audit trail (?client=N&limit=M)

  Scenarios:
    GET    /api/scenarios             List demo scenarios
    GET    /api/scenarios/current     Currently loaded scenario
    POST   /api/scenarios/load        Reset and load one (scenarios.go)

  Admin:
    POST   /api/reset                 Fresh ledger, journal cleared (dev only)

CONCURRENCY:
  The ledger is single-owner. Every handler that touches it holds h.mu for
  the whole call, so records from concurrent requests are applied one at a
  time and a batch is never interleaved with another request.

ERROR HANDLING:
  - 400: Malformed JSON/CSV, unknown type, bad amount
  - 404: Unknown client
  - 500: Journal failures
  A record the ledger discards is NOT an error: it comes back with
  applied=false and a reason code.

SECURITY NOTE:
  No authentication. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/warp/payments-engine/bank"
	"github.com/warp/payments-engine/csvio"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	mu      sync.Mutex
	ledger  *bank.Ledger
	journal bank.Journal
	version uint64 // bumped on every change, read by SnapshotScheduler

	// Track currently loaded scenario
	scenario string

	// MaxImportBytes caps CSV import bodies. Zero means no cap.
	MaxImportBytes int64
}

// NewHandler creates a handler over a fresh ledger writing to journal.
func NewHandler(journal bank.Journal) *Handler {
	return &Handler{
		ledger:  bank.NewJournaledLedger(journal),
		journal: journal,
	}
}

// Snapshot returns the current balances.
func (h *Handler) Snapshot() []bank.Balance {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ledger.Snapshot()
}

func (h *Handler) snapshotAt() ([]bank.Balance, uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ledger.Snapshot(), h.version
}

// =============================================================================
// TRANSACTION HANDLERS
// =============================================================================

// SubmitTransactions applies one record or an array of records in order.
// The whole body is validated before anything is applied.
func (h *Handler) SubmitTransactions(w http.ResponseWriter, r *http.Request) {
	reqs, err := decodeTransactions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	records := make([]bank.Record, len(reqs))
	for i, req := range reqs {
		rec, err := req.toRecord()
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid transaction", &indexedError{Index: i, Err: err})
			return
		}
		records[i] = rec
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	outcomes := make([]OutcomeDTO, 0, len(records))
	for _, rec := range records {
		h.version++
		entry, err := h.ledger.Submit(r.Context(), rec)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to journal transaction", err)
			return
		}
		outcomes = append(outcomes, toOutcomeDTO(entry))
	}

	writeJSON(w, http.StatusOK, outcomes)
}

func decodeTransactions(r *http.Request) ([]TransactionRequest, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var reqs []TransactionRequest
		if err := json.Unmarshal(raw, &reqs); err != nil {
			return nil, err
		}
		return reqs, nil
	}
	var req TransactionRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, err
	}
	return []TransactionRequest{req}, nil
}

// ImportCSV applies a CSV body. Rows before a malformed row stay applied;
// the response carries the stats up to that point.
func (h *Handler) ImportCSV(w http.ResponseWriter, r *http.Request) {
	body := r.Body
	if h.MaxImportBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, h.MaxImportBytes)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	stats, err := h.ledger.Process(r.Context(), csvio.NewReader(body))
	if stats.Records > 0 {
		h.version++
	}
	if err != nil {
		status := http.StatusInternalServerError
		var parseErr *csvio.ParseError
		var maxErr *http.MaxBytesError
		if errors.As(err, &parseErr) {
			status = http.StatusBadRequest
		} else if errors.As(err, &maxErr) {
			status = http.StatusRequestEntityTooLarge
		}
		writeJSON(w, status, ImportResponse{Stats: stats, Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, ImportResponse{Stats: stats})
}

// =============================================================================
// ACCOUNT HANDLERS
// =============================================================================

// ListAccounts returns the snapshot of every known client.
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	balances := h.Snapshot()

	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		w.WriteHeader(http.StatusOK)
		if err := csvio.WriteSnapshot(w, balances); err != nil {
			log.Printf("[Accounts] Failed to write CSV snapshot: %v", err)
		}
		return
	}

	dtos := make([]AccountDTO, len(balances))
	for i, b := range balances {
		dtos[i] = toAccountDTO(b)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetAccount returns a single client.
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	client, err := strconv.ParseUint(chi.URLParam(r, "client"), 10, 16)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid client id", err)
		return
	}

	h.mu.Lock()
	b, ok := h.ledger.Lookup(bank.ClientID(client))
	h.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "Account not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toAccountDTO(b))
}

// =============================================================================
// JOURNAL HANDLERS
// =============================================================================

// ListJournal returns audit entries, optionally for one client.
func (h *Handler) ListJournal(w http.ResponseWriter, r *http.Request) {
	var client *bank.ClientID
	if s := r.URL.Query().Get("client"); s != "" {
		id, err := strconv.ParseUint(s, 10, 16)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid client id", err)
			return
		}
		c := bank.ClientID(id)
		client = &c
	}

	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = n
	}

	entries, err := h.journal.Entries(r.Context(), client, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read journal", err)
		return
	}

	dtos := make([]JournalEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toJournalEntryDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// Reset replaces the ledger with an empty one and clears the journal.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.resetJournal(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset journal", err)
		return
	}
	h.resetLocked()

	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (h *Handler) resetJournal(ctx context.Context) error {
	if rj, ok := h.journal.(bank.ResettableJournal); ok {
		return rj.Reset(ctx)
	}
	return nil
}

// resetLocked installs an empty ledger. h.mu must be held.
func (h *Handler) resetLocked() {
	h.ledger = bank.NewJournaledLedger(h.journal)
	h.version++
	h.scenario = ""
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

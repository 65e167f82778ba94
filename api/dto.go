/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupled from the
  bank package types. Amounts travel as strings so no precision is lost
  to float64 on either side.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

VALIDATION:
  Structural validation (type tag, amount syntax) happens in toRecord.
  Semantic validation is the ledger's job and never produces an HTTP error.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/warp/payments-engine/bank"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// TransactionRequest is one input record. Amount accepts a JSON number or a
// numeric string and may be omitted for dispute/resolve/chargeback.
type TransactionRequest struct {
	Type   string      `json:"type"`
	Client uint16      `json:"client"`
	Tx     uint32      `json:"tx"`
	Amount json.Number `json:"amount,omitempty"`
}

func (t TransactionRequest) toRecord() (bank.Record, error) {
	kind, err := bank.ParseKind(t.Type)
	if err != nil {
		return bank.Record{}, err
	}
	amount, err := bank.ParseAmount(t.Amount.String())
	if err != nil {
		return bank.Record{}, err
	}
	return bank.Record{
		Kind:   kind,
		Client: bank.ClientID(t.Client),
		Tx:     bank.TxID(t.Tx),
		Amount: amount,
	}, nil
}

// OutcomeDTO reports what the ledger did with one submitted record.
type OutcomeDTO struct {
	Seq     uint64 `json:"seq"`
	Type    string `json:"type"`
	Client  uint16 `json:"client"`
	Tx      uint32 `json:"tx"`
	Applied bool   `json:"applied"`
	Reason  string `json:"reason,omitempty"`
}

func toOutcomeDTO(e bank.Entry) OutcomeDTO {
	return OutcomeDTO{
		Seq:     e.Seq,
		Type:    e.Record.Kind.String(),
		Client:  uint16(e.Record.Client),
		Tx:      uint32(e.Record.Tx),
		Applied: e.Applied,
		Reason:  e.Reason,
	}
}

// AccountDTO is one snapshot row. Decimals are rendered with 4 digits.
type AccountDTO struct {
	Client    uint16 `json:"client"`
	Available string `json:"available"`
	Held      string `json:"held"`
	Total     string `json:"total"`
	Locked    bool   `json:"locked"`
}

func toAccountDTO(b bank.Balance) AccountDTO {
	return AccountDTO{
		Client:    uint16(b.Client),
		Available: bank.FormatAmount(b.Available),
		Held:      bank.FormatAmount(b.Held),
		Total:     bank.FormatAmount(b.Total),
		Locked:    b.Locked,
	}
}

// JournalEntryDTO is one audit trail line.
type JournalEntryDTO struct {
	OutcomeDTO
	Amount     string `json:"amount,omitempty"`
	RecordedAt string `json:"recorded_at"`
}

func toJournalEntryDTO(e bank.Entry) JournalEntryDTO {
	dto := JournalEntryDTO{
		OutcomeDTO: toOutcomeDTO(e),
		RecordedAt: e.RecordedAt.Format(time.RFC3339Nano),
	}
	if e.Record.Kind.UsesAmount() {
		dto.Amount = bank.FormatAmount(e.Record.Amount)
	}
	return dto
}

// ImportResponse summarises a CSV import.
type ImportResponse struct {
	Stats bank.Stats `json:"stats"`
	Error string     `json:"error,omitempty"`
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects a scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// LoadScenarioResponse reports a loaded scenario and how its records fared.
type LoadScenarioResponse struct {
	Status   string     `json:"status"`
	Scenario string     `json:"scenario"`
	Stats    bank.Stats `json:"stats"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// indexedError ties a structural error to its position in a batch.
type indexedError struct {
	Index int
	Err   error
}

func (e *indexedError) Error() string {
	return fmt.Sprintf("transaction %d: %v", e.Index, e.Err)
}

func (e *indexedError) Unwrap() error {
	return e.Err
}

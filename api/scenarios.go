/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides canned record streams that show how the ledger treats the
	interesting cases: disputes that resolve, disputes that freeze an
	account, and the records it silently discards.

AVAILABLE SCENARIOS:

	round-trip:        Deposit, dispute, resolve; balances come back
	chargeback-freeze: Dispute then chargeback; account frozen for good
	duplicate-tx:      Second deposit with the same tx id is dropped
	withdrawal-first:  A client whose first record is a withdrawal never appears
	double-dispute:    Disputing an open dispute moves the funds twice
	mixed-feed:        Several clients, every record kind, some discards

HOW SCENARIOS WORK:
 1. Reset the ledger and the journal
 2. Feed the scenario's CSV through csvio into Ledger.Process
 3. Remember which scenario is loaded

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "chargeback-freeze"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description and CSV body
 2. Nothing else; LoadScenario looks it up by ID

NOTE:

	Scenarios reset the ledger. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Reset
  - csvio/reader.go: Input format
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/warp/payments-engine/bank"
	"github.com/warp/payments-engine/csvio"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

type scenario struct {
	ScenarioDTO
	csv string
}

var scenarios = []scenario{
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "round-trip",
			Name:        "Dispute Round Trip",
			Description: "Deposit, dispute and resolve leave the balances where they started",
		},
		csv: `type, client, tx, amount
deposit, 1, 1, 10.0
dispute, 1, 1,
resolve, 1, 1,
`,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "chargeback-freeze",
			Name:        "Chargeback Freeze",
			Description: "A chargeback removes the held funds and locks the account; later records are ignored",
		},
		csv: `type, client, tx, amount
deposit, 1, 1, 10.0
dispute, 1, 1,
chargeback, 1, 1,
deposit, 1, 2, 5.0
`,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "duplicate-tx",
			Name:        "Duplicate Transaction",
			Description: "A repeated tx id is discarded; only the first deposit counts",
		},
		csv: `type, client, tx, amount
deposit, 1, 1, 10.0
deposit, 1, 1, 25.0
`,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "withdrawal-first",
			Name:        "Withdrawal First",
			Description: "A client whose first record is not a deposit never gets an account",
		},
		csv: `type, client, tx, amount
withdrawal, 2, 1, 3.0
deposit, 1, 2, 1.0
dispute, 1, 2,
resolve, 1, 2,
resolve, 1, 2,
`,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "double-dispute",
			Name:        "Double Dispute",
			Description: "Disputing a transaction that is already disputed moves its amount to held again",
		},
		csv: `type, client, tx, amount
deposit, 1, 1, 10.0
dispute, 1, 1,
dispute, 1, 1,
`,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "mixed-feed",
			Name:        "Mixed Feed",
			Description: "Three clients, every record kind, a few discarded rows",
		},
		csv: `type, client, tx, amount
deposit, 1, 1, 1.0
deposit, 2, 2, 2.0
deposit, 1, 3, 2.0
withdrawal, 1, 4, 1.5
withdrawal, 2, 5, 3.0
deposit, 3, 6, 100.1234
dispute, 3, 6,
withdrawal, 3, 7, 0
dispute, 2, 5,
chargeback, 3, 6,
deposit, 3, 8, 1.0
`,
	},
}

func findScenario(id string) (scenario, bool) {
	for _, s := range scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return scenario{}, false
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	dtos := make([]ScenarioDTO, len(scenarios))
	for i, s := range scenarios {
		dtos[i] = s.ScenarioDTO
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.scenario
	h.mu.Unlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	s, _ := findScenario(current)
	writeJSON(w, http.StatusOK, s.ScenarioDTO)
}

// LoadScenario resets the ledger and feeds it a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	s, ok := findScenario(req.ScenarioID)
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	stats, err := h.loadScenario(r.Context(), s)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	writeJSON(w, http.StatusOK, LoadScenarioResponse{Status: "loaded", Scenario: s.ID, Stats: stats})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// loadScenario replaces the ledger with the result of s. h.mu must be held.
func (h *Handler) loadScenario(ctx context.Context, s scenario) (bank.Stats, error) {
	if err := h.resetJournal(ctx); err != nil {
		return bank.Stats{}, err
	}
	h.resetLocked()

	stats, err := h.ledger.Process(ctx, csvio.NewReader(strings.NewReader(s.csv)))
	if err != nil {
		return stats, err
	}
	h.scenario = s.ID
	return stats, nil
}

/*
scenarios_test.go - Unit tests for demo scenarios

PURPOSE:
	Tests that each scenario leaves the ledger in the state its description
	promises, and that loading one replaces whatever was there before.
*/
package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payments-engine/bank"
	"github.com/warp/payments-engine/bank/store"
)

func setupTestHandler(t *testing.T) *Handler {
	t.Helper()
	return NewHandler(store.NewMemory())
}

func loadByID(t *testing.T, h *Handler, id string) bank.Stats {
	t.Helper()
	s, ok := findScenario(id)
	require.True(t, ok, id)

	h.mu.Lock()
	defer h.mu.Unlock()
	stats, err := h.loadScenario(context.Background(), s)
	require.NoError(t, err)
	return stats
}

func balanceOf(t *testing.T, h *Handler, client bank.ClientID) AccountDTO {
	t.Helper()
	h.mu.Lock()
	defer h.mu.Unlock()
	b, ok := h.ledger.Lookup(client)
	require.True(t, ok, "client %d", client)
	return toAccountDTO(b)
}

func TestScenario_RoundTrip(t *testing.T) {
	// GIVEN: Deposit, dispute, resolve on one client
	// WHEN: Loading the scenario
	// THEN: Funds are available again and nothing is held

	h := setupTestHandler(t)
	stats := loadByID(t, h, "round-trip")

	assert.Equal(t, 3, stats.Applied)
	assert.Equal(t, AccountDTO{Client: 1, Available: "10.0000", Held: "0.0000", Total: "10.0000"}, balanceOf(t, h, 1))
}

func TestScenario_ChargebackFreeze(t *testing.T) {
	h := setupTestHandler(t)
	stats := loadByID(t, h, "chargeback-freeze")

	assert.Equal(t, 3, stats.Applied)
	assert.Equal(t, map[string]int{"account_locked": 1}, stats.Rejected)
	assert.Equal(t, AccountDTO{Client: 1, Available: "0.0000", Held: "0.0000", Total: "0.0000", Locked: true}, balanceOf(t, h, 1))
}

func TestScenario_DuplicateTx(t *testing.T) {
	h := setupTestHandler(t)
	stats := loadByID(t, h, "duplicate-tx")

	assert.Equal(t, map[string]int{"duplicate_transaction": 1}, stats.Rejected)
	assert.Equal(t, "10.0000", balanceOf(t, h, 1).Available)
}

func TestScenario_WithdrawalFirst(t *testing.T) {
	// GIVEN: Client 2 starts with a withdrawal, client 1 resolves twice
	// WHEN: Loading the scenario
	// THEN: Client 2 has no row; the second resolve is discarded

	h := setupTestHandler(t)
	stats := loadByID(t, h, "withdrawal-first")

	assert.Equal(t, map[string]int{"no_account": 1, "no_active_dispute": 1}, stats.Rejected)

	balances := h.Snapshot()
	require.Len(t, balances, 1)
	assert.Equal(t, bank.ClientID(1), balances[0].Client)
	assert.Equal(t, "1.0000", balanceOf(t, h, 1).Available)
}

func TestScenario_DoubleDispute(t *testing.T) {
	h := setupTestHandler(t)
	loadByID(t, h, "double-dispute")

	acct := balanceOf(t, h, 1)
	assert.Equal(t, "-10.0000", acct.Available)
	assert.Equal(t, "20.0000", acct.Held)
	assert.Equal(t, "10.0000", acct.Total)
}

func TestScenario_MixedFeed(t *testing.T) {
	h := setupTestHandler(t)
	stats := loadByID(t, h, "mixed-feed")

	assert.Equal(t, 11, stats.Records)
	assert.Equal(t, 8, stats.Applied)
	assert.Equal(t, map[string]int{"zero_amount": 1, "not_disputable": 1, "account_locked": 1}, stats.Rejected)

	assert.Equal(t, AccountDTO{Client: 1, Available: "1.5000", Held: "0.0000", Total: "1.5000"}, balanceOf(t, h, 1))
	assert.Equal(t, AccountDTO{Client: 2, Available: "-1.0000", Held: "0.0000", Total: "-1.0000"}, balanceOf(t, h, 2))
	assert.Equal(t, AccountDTO{Client: 3, Available: "0.0000", Held: "0.0000", Total: "0.0000", Locked: true}, balanceOf(t, h, 3))
}

func TestScenarios_AllLoad(t *testing.T) {
	h := setupTestHandler(t)
	for _, s := range scenarios {
		stats := loadByID(t, h, s.ID)
		assert.Positive(t, stats.Records, s.ID)
		assert.Equal(t, s.ID, h.scenario)
	}
}

func TestLoadScenario_HTTP(t *testing.T) {
	// GIVEN: A ledger with unrelated state
	// WHEN: A scenario is loaded over HTTP
	// THEN: The old state is gone and the scenario is reported as current

	h := setupTestHandler(t)
	srv := NewRouter(h, nil)
	do(t, srv, http.MethodPost, "/api/transactions", "application/json", `{"type":"deposit","client":9,"tx":1,"amount":1}`)

	assert.Equal(t, "null\n", do(t, srv, http.MethodGet, "/api/scenarios/current", "", "").Body.String())

	rec := do(t, srv, http.MethodPost, "/api/scenarios/load", "application/json", `{"scenario_id":"duplicate-tx"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[LoadScenarioResponse](t, rec)
	assert.Equal(t, "duplicate-tx", resp.Scenario)
	assert.Equal(t, 1, resp.Stats.Applied)

	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/api/accounts/9", "", "").Code)

	current := decode[ScenarioDTO](t, do(t, srv, http.MethodGet, "/api/scenarios/current", "", ""))
	assert.Equal(t, "duplicate-tx", current.ID)

	list := decode[[]ScenarioDTO](t, do(t, srv, http.MethodGet, "/api/scenarios", "", ""))
	assert.Len(t, list, len(scenarios))

	// A reset forgets the scenario.
	do(t, srv, http.MethodPost, "/api/reset", "", "")
	assert.Equal(t, "null\n", do(t, srv, http.MethodGet, "/api/scenarios/current", "", "").Body.String())
}

func TestLoadScenario_Unknown(t *testing.T) {
	srv := NewRouter(setupTestHandler(t), nil)

	assert.Equal(t, http.StatusBadRequest,
		do(t, srv, http.MethodPost, "/api/scenarios/load", "application/json", `{"scenario_id":"nope"}`).Code)
	assert.Equal(t, http.StatusBadRequest,
		do(t, srv, http.MethodPost, "/api/scenarios/load", "application/json", `nope`).Code)
}

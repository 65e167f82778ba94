package bank_test

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payments-engine/bank"
)

func TestParseKind(t *testing.T) {
	for _, k := range bank.Kinds() {
		parsed, err := bank.ParseKind(" " + k.String() + " ")
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}

	for _, bad := range []string{"", "Deposit", "DEPOSIT", "transfer", "kind(1)"} {
		_, err := bank.ParseKind(bad)
		assert.ErrorIs(t, err, bank.ErrUnknownKind, bad)
	}
}

func TestKind_UsesAmount(t *testing.T) {
	assert.True(t, bank.Deposit.UsesAmount())
	assert.True(t, bank.Withdrawal.UsesAmount())
	assert.False(t, bank.Dispute.UsesAmount())
	assert.False(t, bank.Resolve.UsesAmount())
	assert.False(t, bank.Chargeback.UsesAmount())
}

func TestKind_JSONText(t *testing.T) {
	b, err := json.Marshal(struct {
		Kind bank.Kind `json:"kind"`
	}{bank.Chargeback})
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"chargeback"}`, string(b))

	var out struct {
		Kind bank.Kind `json:"kind"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"kind":"resolve"}`), &out))
	assert.Equal(t, bank.Resolve, out.Kind)

	_, err = json.Marshal(bank.Kind(0))
	assert.Error(t, err)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "", want: "0"},
		{in: "  ", want: "0"},
		{in: "1.5", want: "1.5"},
		{in: " 2.0001 ", want: "2.0001"},
		{in: "0", want: "0"},
		{in: "-1", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "1,5", wantErr: true},
	}

	for _, tt := range tests {
		got, err := bank.ParseAmount(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "%q: got %s", tt.in, got)
	}
}

func TestBalance_Row(t *testing.T) {
	b := bank.Balance{
		Client:    42,
		Available: bank.MustAmount("1.5"),
		Held:      decimal.RequireFromString("-0.25"),
		Total:     bank.MustAmount("1.25"),
		Locked:    true,
	}

	assert.Equal(t, []string{"client", "available", "held", "total", "locked"}, bank.Header())
	assert.Equal(t, []string{"42", "1.5000", "-0.2500", "1.2500", "true"}, b.Row())
}

func TestRecord_String(t *testing.T) {
	assert.Equal(t, "deposit client=1 tx=2 amount=1.5", bank.Record{Kind: bank.Deposit, Client: 1, Tx: 2, Amount: bank.MustAmount("1.5")}.String())
	assert.Equal(t, "dispute client=1 tx=2", bank.Record{Kind: bank.Dispute, Client: 1, Tx: 2}.String())
}

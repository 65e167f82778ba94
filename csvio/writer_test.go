package csvio_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payments-engine/bank"
	"github.com/warp/payments-engine/csvio"
)

func TestWriteSnapshot(t *testing.T) {
	l := bank.NewLedger()
	l.Route(bank.Record{Kind: bank.Deposit, Client: 2, Tx: 1, Amount: bank.MustAmount("2")})
	l.Route(bank.Record{Kind: bank.Deposit, Client: 1, Tx: 2, Amount: bank.MustAmount("1.23449")})
	l.Route(bank.Record{Kind: bank.Dispute, Client: 2, Tx: 1})

	var buf bytes.Buffer
	require.NoError(t, csvio.WriteSnapshot(&buf, l.Snapshot()))

	assert.Equal(t, "client,available,held,total,locked\n"+
		"1,1.2345,0.0000,1.2345,false\n"+
		"2,0.0000,2.0000,2.0000,false\n", buf.String())
}

func TestWriteSnapshot_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, csvio.WriteSnapshot(&buf, nil))
	assert.Equal(t, "client,available,held,total,locked\n", buf.String())
}

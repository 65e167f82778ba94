package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payments-engine/bank"
	"github.com/warp/payments-engine/bank/store"
)

func entry(seq uint64, client bank.ClientID) bank.Entry {
	rec := bank.Record{Kind: bank.Deposit, Client: client, Tx: bank.TxID(seq), Amount: bank.MustAmount("1")}
	return bank.NewEntry(seq, rec, nil, time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC))
}

func TestMemory_EntriesInOrder_FilteredByClient(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	for i, c := range []bank.ClientID{1, 2, 1, 3, 1} {
		require.NoError(t, m.Append(ctx, entry(uint64(i+1), c)))
	}

	all, err := m.Entries(ctx, nil, 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	one := bank.ClientID(1)
	mine, err := m.Entries(ctx, &one, 0)
	require.NoError(t, err)
	require.Len(t, mine, 3)
	assert.Equal(t, []uint64{1, 3, 5}, []uint64{mine[0].Seq, mine[1].Seq, mine[2].Seq})

	limited, err := m.Entries(ctx, &one, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	head, err := m.Entries(ctx, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), head[0].Seq)
}

func TestMemory_OutOfOrderAppend_Rejected(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	require.NoError(t, m.Append(ctx, entry(2, 1)))

	assert.Error(t, m.Append(ctx, entry(2, 1)))
	assert.Error(t, m.Append(ctx, entry(1, 1)))
}

func TestMemory_Reset(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	require.NoError(t, m.Append(ctx, entry(1, 1)))

	require.NoError(t, m.Reset(ctx))

	all, err := m.Entries(ctx, nil, 0)
	require.NoError(t, err)
	assert.Empty(t, all)
	require.NoError(t, m.Append(ctx, entry(1, 1)), "sequence restarts after reset")
}

func TestMemory_LastSeq(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	last, err := m.LastSeq(ctx)
	require.NoError(t, err)
	assert.Zero(t, last)

	require.NoError(t, m.Append(ctx, entry(4, 1)))
	last, err = m.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), last)
}

func TestMemory_ImplementsResettableJournal(t *testing.T) {
	var _ bank.ResettableJournal = store.NewMemory()
	var _ bank.SequencedJournal = store.NewMemory()
}

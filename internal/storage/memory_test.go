package storage

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	trackedAddr = "0x742d35cc6634c0532925a3b844bc454e4438f44e"
	otherAddr   = "0x1234567890123456789012345678901234567890"
)

func testTx(address, hash string, ts time.Time, value, gas int64) Transaction {
	return Transaction{
		Address:     address,
		Hash:        hash,
		From:        address,
		To:          otherAddr,
		Value:       decimal.NewFromInt(value),
		Timestamp:   ts,
		BlockNumber: 21809821,
		GasUsed:     decimal.NewFromInt(gas),
		Status:      StatusSuccess,
		LastUpdated: time.Now().UTC(),
	}
}

func TestMemoryStoreUpsertReplacesByKey(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	ts := time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC)

	require.NoError(t, store.UpsertTransaction(ctx, testTx(trackedAddr, "0xaa", ts, 1, 21000)))

	updated := testTx(trackedAddr, "0xaa", ts, 5, 30000)
	updated.Status = StatusFailed
	require.NoError(t, store.UpsertTransaction(ctx, updated))

	txs, err := store.ListTransactions(ctx, TransactionFilter{Address: trackedAddr})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, StatusFailed, txs[0].Status)
	assert.True(t, decimal.NewFromInt(5).Equal(txs[0].Value))
}

func TestMemoryStoreSameHashTwoAddresses(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	ts := time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC)

	require.NoError(t, store.UpsertTransaction(ctx, testTx(trackedAddr, "0xaa", ts, 1, 21000)))
	require.NoError(t, store.UpsertTransaction(ctx, testTx(otherAddr, "0xaa", ts, 1, 21000)))

	for _, addr := range []string{trackedAddr, otherAddr} {
		txs, err := store.ListTransactions(ctx, TransactionFilter{Address: addr})
		require.NoError(t, err)
		require.Len(t, txs, 1)
		assert.Equal(t, addr, txs[0].Address)
	}
}

func TestMemoryStoreListRangeAndOrder(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	t1 := time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(90 * time.Minute)
	t3 := t2.Add(75 * time.Minute)

	require.NoError(t, store.UpsertTransaction(ctx, testTx(trackedAddr, "0x01", t1, 1, 21000)))
	require.NoError(t, store.UpsertTransaction(ctx, testTx(trackedAddr, "0x02", t2, 1, 21000)))
	require.NoError(t, store.UpsertTransaction(ctx, testTx(trackedAddr, "0x03", t3, 1, 21000)))
	require.NoError(t, store.UpsertTransaction(ctx, testTx(otherAddr, "0x04", t3, 1, 21000)))

	tests := []struct {
		name   string
		filter TransactionFilter
		want   []string
	}{
		{
			name:   "no bounds",
			filter: TransactionFilter{Address: trackedAddr},
			want:   []string{"0x03", "0x02", "0x01"},
		},
		{
			name:   "start bound is inclusive",
			filter: TransactionFilter{Address: trackedAddr, Start: &t2},
			want:   []string{"0x03", "0x02"},
		},
		{
			name:   "end bound is inclusive",
			filter: TransactionFilter{Address: trackedAddr, End: &t2},
			want:   []string{"0x02", "0x01"},
		},
		{
			name:   "both bounds",
			filter: TransactionFilter{Address: trackedAddr, Start: &t2, End: &t2},
			want:   []string{"0x02"},
		},
		{
			name:   "limit",
			filter: TransactionFilter{Address: trackedAddr, Limit: 1},
			want:   []string{"0x03"},
		},
		{
			name:   "unknown address",
			filter: TransactionFilter{Address: "0xdead"},
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txs, err := store.ListTransactions(ctx, tt.filter)
			require.NoError(t, err)
			hashes := make([]string, 0, len(txs))
			for _, tx := range txs {
				hashes = append(hashes, tx.Hash)
			}
			assert.Equal(t, tt.want, hashes)
		})
	}
}

func TestMemoryStoreListCapsAtMax(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range MaxListLimit + 20 {
		tx := testTx(trackedAddr, fmt.Sprintf("0x%03d", i), base.Add(time.Duration(i)*time.Minute), 1, 1)
		require.NoError(t, store.UpsertTransaction(ctx, tx))
	}

	txs, err := store.ListTransactions(ctx, TransactionFilter{Address: trackedAddr, Limit: 1000})
	require.NoError(t, err)
	assert.Len(t, txs, MaxListLimit)
	assert.Equal(t, fmt.Sprintf("0x%03d", MaxListLimit+19), txs[0].Hash)
}

func TestMemoryStoreStats(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	t.Run("no transactions", func(t *testing.T) {
		stats, err := store.TransactionStats(ctx, trackedAddr)
		require.NoError(t, err)
		assert.Equal(t, int64(0), stats.TotalTransactions)
		assert.True(t, stats.TotalValue.IsZero())
		assert.True(t, stats.AvgGasUsed.IsZero())
	})

	t.Run("sums wei values exactly", func(t *testing.T) {
		ts := time.Now().UTC()
		big1, _ := decimal.NewFromString("1000000000000000000")
		big2, _ := decimal.NewFromString("500000000000000000")

		tx1 := testTx(trackedAddr, "0x01", ts, 0, 21000)
		tx1.Value = big1
		tx2 := testTx(trackedAddr, "0x02", ts, 0, 42000)
		tx2.Value = big2
		require.NoError(t, store.UpsertTransaction(ctx, tx1))
		require.NoError(t, store.UpsertTransaction(ctx, tx2))
		require.NoError(t, store.UpsertTransaction(ctx, testTx(otherAddr, "0x03", ts, 99, 99)))

		stats, err := store.TransactionStats(ctx, trackedAddr)
		require.NoError(t, err)
		assert.Equal(t, int64(2), stats.TotalTransactions)
		assert.Equal(t, "1500000000000000000", stats.TotalValue.String())
		assert.Equal(t, "31500", stats.AvgGasUsed.String())
	})
}

func TestMemoryStoreConcurrentUpserts(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	ts := time.Now().UTC()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.UpsertTransaction(ctx, testTx(trackedAddr, "0xsame", ts, int64(i), 21000))
		}()
	}
	wg.Wait()

	stats, err := store.TransactionStats(ctx, trackedAddr)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalTransactions)
}

func TestMemoryStoreHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := NewMemoryStore()
	assert.Error(t, store.UpsertTransaction(ctx, testTx(trackedAddr, "0x01", time.Now(), 1, 1)))
	assert.Error(t, store.Ping(ctx))
}

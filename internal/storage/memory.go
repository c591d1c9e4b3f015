package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
)

type txKey struct {
	address string
	hash    string
}

// MemoryStore keeps transactions in process memory. Used when no database is
// configured; contents are lost on restart.
type MemoryStore struct {
	mu  sync.RWMutex
	txs map[txKey]Transaction
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{txs: make(map[txKey]Transaction)}
}

func (m *MemoryStore) UpsertTransaction(ctx context.Context, tx Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txs[txKey{address: tx.Address, hash: tx.Hash}] = tx
	return nil
}

func (m *MemoryStore) ListTransactions(ctx context.Context, filter TransactionFilter) ([]Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	txs := make([]Transaction, 0)
	for key, tx := range m.txs {
		if key.address != filter.Address {
			continue
		}
		if filter.Start != nil && tx.Timestamp.Before(*filter.Start) {
			continue
		}
		if filter.End != nil && tx.Timestamp.After(*filter.End) {
			continue
		}
		txs = append(txs, tx)
	}
	m.mu.RUnlock()

	sort.Slice(txs, func(i, j int) bool {
		if !txs[i].Timestamp.Equal(txs[j].Timestamp) {
			return txs[i].Timestamp.After(txs[j].Timestamp)
		}
		return txs[i].Hash < txs[j].Hash
	})

	if limit := filter.limit(); len(txs) > limit {
		txs = txs[:limit]
	}
	return txs, nil
}

func (m *MemoryStore) TransactionStats(ctx context.Context, address string) (Stats, error) {
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := Stats{TotalValue: decimal.Zero, AvgGasUsed: decimal.Zero}
	gasSum := decimal.Zero
	for key, tx := range m.txs {
		if key.address != address {
			continue
		}
		stats.TotalTransactions++
		stats.TotalValue = stats.TotalValue.Add(tx.Value)
		gasSum = gasSum.Add(tx.GasUsed)
	}
	if stats.TotalTransactions > 0 {
		stats.AvgGasUsed = gasSum.Div(decimal.NewFromInt(stats.TotalTransactions))
	}
	return stats, nil
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *MemoryStore) Close() {}

var _ TransactionStore = (*MemoryStore)(nil)

package service

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/matrixise/tokenscan/internal/explorer"
	"github.com/matrixise/tokenscan/internal/storage"
)

var errBoom = errors.New("boom")

type fakeChain struct {
	symbol   string
	name     string
	decimals uint8
	balance  *big.Int
	block    uint64

	fail map[string]error

	mu    sync.Mutex
	calls map[string]int
	seen  []common.Address
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		symbol:   "DAI",
		name:     "Dai Stablecoin",
		decimals: 18,
		balance:  big.NewInt(1500000000000000000),
		block:    19000000,
		fail:     map[string]error{},
		calls:    map[string]int{},
	}
}

func (f *fakeChain) record(op string, addrs ...common.Address) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	f.seen = append(f.seen, addrs...)
	return f.fail[op]
}

func (f *fakeChain) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeChain) TokenSymbol(_ context.Context, token common.Address) (string, error) {
	if err := f.record("symbol", token); err != nil {
		return "", err
	}
	return f.symbol, nil
}

func (f *fakeChain) TokenName(_ context.Context, token common.Address) (string, error) {
	if err := f.record("name", token); err != nil {
		return "", err
	}
	return f.name, nil
}

func (f *fakeChain) TokenDecimals(_ context.Context, token common.Address) (uint8, error) {
	if err := f.record("decimals", token); err != nil {
		return 0, err
	}
	return f.decimals, nil
}

func (f *fakeChain) BalanceOf(_ context.Context, token, wallet common.Address) (*big.Int, error) {
	if err := f.record("balanceOf", token, wallet); err != nil {
		return nil, err
	}
	return new(big.Int).Set(f.balance), nil
}

func (f *fakeChain) BlockNumber(context.Context) (uint64, error) {
	if err := f.record("blockNumber"); err != nil {
		return 0, err
	}
	return f.block, nil
}

type fakeExplorer struct {
	txs []explorer.Transaction
	err error

	mu        sync.Mutex
	addresses []string
}

func (f *fakeExplorer) FetchTransactions(_ context.Context, address string) ([]explorer.Transaction, error) {
	f.mu.Lock()
	f.addresses = append(f.addresses, address)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.txs, nil
}

// failingStore rejects upserts of one hash and delegates everything else
type failingStore struct {
	*storage.MemoryStore
	failHash string
	failAll  bool
}

func (s *failingStore) UpsertTransaction(ctx context.Context, tx storage.Transaction) error {
	if s.failAll || tx.Hash == s.failHash {
		return errBoom
	}
	return s.MemoryStore.UpsertTransaction(ctx, tx)
}

func (s *failingStore) ListTransactions(ctx context.Context, f storage.TransactionFilter) ([]storage.Transaction, error) {
	if s.failAll {
		return nil, errBoom
	}
	return s.MemoryStore.ListTransactions(ctx, f)
}

func (s *failingStore) TransactionStats(ctx context.Context, address string) (storage.Stats, error) {
	if s.failAll {
		return storage.Stats{}, errBoom
	}
	return s.MemoryStore.TransactionStats(ctx, address)
}

type memCache struct {
	mu      sync.Mutex
	entries map[string]TokenInfo
	getErr  error
	setErr  error
	sets    int
}

func newMemCache() *memCache {
	return &memCache{entries: map[string]TokenInfo{}}
}

func (c *memCache) Get(_ context.Context, address string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return false, c.getErr
	}
	info, ok := c.entries[address]
	if !ok {
		return false, nil
	}
	*dst.(*TokenInfo) = info
	return true, nil
}

func (c *memCache) Set(_ context.Context, address string, v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	if c.setErr != nil {
		return c.setErr
	}
	c.entries[address] = v.(TokenInfo)
	return nil
}

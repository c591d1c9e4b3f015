package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// MaxListLimit caps the number of transactions returned by one query
const MaxListLimit = 100

// TxStatus is the execution outcome of a transaction
type TxStatus string

const (
	StatusSuccess TxStatus = "success"
	StatusFailed  TxStatus = "failed"
)

// Transaction is a normalized transaction stored for a tracked address.
// Address and Hash together identify the record.
type Transaction struct {
	Address     string          `json:"address"`
	Hash        string          `json:"hash"`
	From        string          `json:"from"`
	To          string          `json:"to"`
	Value       decimal.Decimal `json:"value"`
	Timestamp   time.Time       `json:"timestamp"`
	BlockNumber uint64          `json:"blockNumber"`
	GasUsed     decimal.Decimal `json:"gasUsed"`
	Status      TxStatus        `json:"status"`
	LastUpdated time.Time       `json:"lastUpdated"`
}

// TransactionFilter selects stored transactions of one address.
// Start and End are inclusive and optional.
type TransactionFilter struct {
	Address string
	Start   *time.Time
	End     *time.Time
	Limit   int
}

func (f TransactionFilter) limit() int {
	if f.Limit <= 0 || f.Limit > MaxListLimit {
		return MaxListLimit
	}
	return f.Limit
}

// Stats aggregates the stored transactions of one address
type Stats struct {
	TotalTransactions int64
	TotalValue        decimal.Decimal
	AvgGasUsed        decimal.Decimal
}

// MarshalJSON renders the decimal aggregates as JSON numbers without float rounding
func (s Stats) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		TotalTransactions int64       `json:"totalTransactions"`
		TotalValue        json.Number `json:"totalValue"`
		AvgGasUsed        json.Number `json:"avgGasUsed"`
	}{
		TotalTransactions: s.TotalTransactions,
		TotalValue:        json.Number(s.TotalValue.String()),
		AvgGasUsed:        json.Number(s.AvgGasUsed.String()),
	})
}

// TransactionStore persists transactions keyed by (address, hash)
type TransactionStore interface {
	// UpsertTransaction inserts tx or atomically replaces the record with the same key
	UpsertTransaction(ctx context.Context, tx Transaction) error
	// ListTransactions returns matching records, newest first
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]Transaction, error)
	TransactionStats(ctx context.Context, address string) (Stats, error)
	Ping(ctx context.Context) error
	Close()
}

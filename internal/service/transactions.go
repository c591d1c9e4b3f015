package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/matrixise/tokenscan/internal/explorer"
	"github.com/matrixise/tokenscan/internal/join"
	"github.com/matrixise/tokenscan/internal/storage"
	"github.com/matrixise/tokenscan/internal/validation"
)

// TransactionFetcher lists recent transactions of an address
type TransactionFetcher interface {
	FetchTransactions(ctx context.Context, address string) ([]explorer.Transaction, error)
}

type fetchRequest struct {
	Address string `json:"address" validate:"eth_address" msg:"Invalid Ethereum address"`
}

// a nil bound was not supplied; a supplied one must parse, even when empty
type queryRequest struct {
	StartDate *string `json:"startDate" validate:"omitnil,iso8601" msg:"Invalid start date format"`
	EndDate   *string `json:"endDate" validate:"omitnil,iso8601" msg:"Invalid end date format"`
}

// TransactionService fetches transaction history from the explorer and
// serves it back from the store
type TransactionService struct {
	explorer TransactionFetcher
	store    storage.TransactionStore
	validate *validation.Validator
	now      func() time.Time
}

func NewTransactionService(fetcher TransactionFetcher, store storage.TransactionStore, validate *validation.Validator) *TransactionService {
	return &TransactionService{
		explorer: fetcher,
		store:    store,
		validate: validate,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Fetch pulls the latest transactions of address from the explorer and
// upserts them. Nothing is stored unless every record normalizes; any
// failed upsert fails the whole batch.
func (s *TransactionService) Fetch(ctx context.Context, address string) ([]storage.Transaction, error) {
	if fields := s.validate.Check(fetchRequest{Address: address}, "body"); len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}
	address = strings.ToLower(address)

	raw, err := s.explorer.FetchTransactions(ctx, address)
	if err != nil {
		var apiErr *explorer.APIError
		if errors.As(err, &apiErr) {
			return nil, &UpstreamError{Message: apiErr.Message, Err: err}
		}
		return nil, &UpstreamError{Message: err.Error(), Err: err}
	}

	now := s.now()
	txs := make([]storage.Transaction, len(raw))
	for i, r := range raw {
		tx, err := normalizeTransaction(address, r, now)
		if err != nil {
			return nil, &UpstreamError{Message: err.Error(), Err: err}
		}
		txs[i] = tx
	}

	tasks := make([]join.Task, len(txs))
	for i, tx := range txs {
		tasks[i] = func(ctx context.Context) error {
			return s.store.UpsertTransaction(ctx, tx)
		}
	}
	if err := join.All(ctx, tasks...); err != nil {
		return nil, &PersistenceError{Op: "upsert", Err: err}
	}

	slog.Info("Stored transactions", "address", address, "count", len(txs))
	return txs, nil
}

// normalizeTransaction maps an explorer record onto the stored shape
func normalizeTransaction(address string, r explorer.Transaction, now time.Time) (storage.Transaction, error) {
	ts, err := strconv.ParseInt(strings.TrimSpace(r.TimeStamp), 10, 64)
	if err != nil {
		return storage.Transaction{}, fmt.Errorf("transaction %s: invalid timestamp %q", r.Hash, r.TimeStamp)
	}
	block, err := strconv.ParseUint(strings.TrimSpace(r.BlockNumber), 10, 64)
	if err != nil {
		return storage.Transaction{}, fmt.Errorf("transaction %s: invalid block number %q", r.Hash, r.BlockNumber)
	}
	value, err := decimal.NewFromString(strings.TrimSpace(r.Value))
	if err != nil {
		return storage.Transaction{}, fmt.Errorf("transaction %s: invalid value %q", r.Hash, r.Value)
	}
	gasUsed, err := decimal.NewFromString(strings.TrimSpace(r.GasUsed))
	if err != nil {
		return storage.Transaction{}, fmt.Errorf("transaction %s: invalid gas used %q", r.Hash, r.GasUsed)
	}

	status := storage.StatusFailed
	if r.IsError == "0" {
		status = storage.StatusSuccess
	}

	return storage.Transaction{
		Address:     address,
		Hash:        strings.ToLower(r.Hash),
		From:        strings.ToLower(r.From),
		To:          strings.ToLower(r.To),
		Value:       value,
		Timestamp:   time.Unix(ts, 0).UTC(),
		BlockNumber: block,
		GasUsed:     gasUsed,
		Status:      status,
		LastUpdated: now,
	}, nil
}

// Query returns up to storage.MaxListLimit stored transactions of address,
// newest first. startDate and endDate are optional inclusive ISO-8601 bounds;
// pass nil to leave a side open.
func (s *TransactionService) Query(ctx context.Context, address string, startDate, endDate *string) ([]storage.Transaction, error) {
	if fields := s.validate.Check(queryRequest{StartDate: startDate, EndDate: endDate}, "query"); len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	filter := storage.TransactionFilter{
		Address: strings.ToLower(address),
		Limit:   storage.MaxListLimit,
	}
	if startDate != nil {
		start, _ := validation.ParseTimestamp(*startDate)
		filter.Start = &start
	}
	if endDate != nil {
		end, _ := validation.ParseTimestamp(*endDate)
		filter.End = &end
	}

	txs, err := s.store.ListTransactions(ctx, filter)
	if err != nil {
		return nil, &PersistenceError{Op: "list", Err: err}
	}
	return txs, nil
}

// Stats aggregates every stored transaction of address
func (s *TransactionService) Stats(ctx context.Context, address string) (storage.Stats, error) {
	stats, err := s.store.TransactionStats(ctx, strings.ToLower(address))
	if err != nil {
		return storage.Stats{}, &PersistenceError{Op: "stats", Err: err}
	}
	return stats, nil
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotConfigured indicates the storage pool was not initialised
var ErrNotConfigured = errors.New("storage: pool not configured")

const (
	upsertTransactionSQL = `
		INSERT INTO transactions
		(address, hash, from_address, to_address, value, block_time, block_number, gas_used, status, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (address, hash) DO UPDATE
		SET
			from_address = EXCLUDED.from_address,
			to_address   = EXCLUDED.to_address,
			value        = EXCLUDED.value,
			block_time   = EXCLUDED.block_time,
			block_number = EXCLUDED.block_number,
			gas_used     = EXCLUDED.gas_used,
			status       = EXCLUDED.status,
			last_updated = EXCLUDED.last_updated`

	listTransactionsSQL = `
		SELECT address, hash, from_address, to_address, value, block_time, block_number, gas_used, status, last_updated
		FROM transactions
		WHERE address = $1
			AND ($2::timestamptz IS NULL OR block_time >= $2)
			AND ($3::timestamptz IS NULL OR block_time <= $3)
		ORDER BY block_time DESC, hash
		LIMIT $4`

	transactionStatsSQL = `
		SELECT COUNT(*), COALESCE(SUM(value), 0), COALESCE(AVG(gas_used), 0)
		FROM transactions
		WHERE address = $1`
)

// Store manages PostgreSQL operations
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new PostgreSQL store with connection pooling
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 1 * time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	// NUMERIC columns scan into decimal.Decimal
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close closes the connection pool
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Ping verifies the connection is alive
func (s *Store) Ping(ctx context.Context) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	return pool.Ping(ctx)
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// UpsertTransaction inserts tx or updates the stored record with the same
// (address, hash) in one statement
func (s *Store) UpsertTransaction(ctx context.Context, tx Transaction) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx, upsertTransactionSQL,
		tx.Address,
		tx.Hash,
		tx.From,
		tx.To,
		tx.Value,
		tx.Timestamp,
		int64(tx.BlockNumber),
		tx.GasUsed,
		string(tx.Status),
		tx.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("upsert transaction %s: %w", tx.Hash, err)
	}
	return nil
}

// ListTransactions returns up to MaxListLimit transactions of an address, newest first
func (s *Store) ListTransactions(ctx context.Context, filter TransactionFilter) ([]Transaction, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, err := pool.Query(ctx, listTransactionsSQL, filter.Address, filter.Start, filter.End, filter.limit())
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	txs := make([]Transaction, 0)
	for rows.Next() {
		var (
			tx          Transaction
			blockNumber int64
			status      string
		)
		if err := rows.Scan(
			&tx.Address,
			&tx.Hash,
			&tx.From,
			&tx.To,
			&tx.Value,
			&tx.Timestamp,
			&blockNumber,
			&tx.GasUsed,
			&status,
			&tx.LastUpdated,
		); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.BlockNumber = uint64(blockNumber)
		tx.Status = TxStatus(status)
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// TransactionStats aggregates count, value sum and mean gas of an address
func (s *Store) TransactionStats(ctx context.Context, address string) (Stats, error) {
	pool, err := s.getPool()
	if err != nil {
		return Stats{}, err
	}

	var stats Stats
	if err := pool.QueryRow(ctx, transactionStatsSQL, address).Scan(
		&stats.TotalTransactions,
		&stats.TotalValue,
		&stats.AvgGasUsed,
	); err != nil {
		return Stats{}, fmt.Errorf("transaction stats: %w", err)
	}
	return stats, nil
}

var _ TransactionStore = (*Store)(nil)

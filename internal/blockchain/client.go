package blockchain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/shopspring/decimal"
)

const (
	defaultRPCTimeout    = 10 * time.Second
	defaultMaxRetries    = 3
	defaultRetryInterval = 500 * time.Millisecond
)

// Options configures a Client
type Options struct {
	RPCURLs       []string
	Timeout       time.Duration // per call, retries included
	MaxRetries    int
	RetryInterval time.Duration
}

// Client wraps Ethereum RPC client functionality with failover support
type Client struct {
	failoverClient *FailoverClient
	parsedABI      abi.ABI
	timeout        time.Duration
	maxRetries     int
	retryInterval  time.Duration
}

// NewClient creates a new blockchain client with failover support
func NewClient(opts Options) (*Client, error) {
	failoverClient, err := NewFailoverClient(opts.RPCURLs)
	if err != nil {
		return nil, err
	}

	parsedABI, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		failoverClient.Close()
		return nil, fmt.Errorf("failed to parse ABI: %w", err)
	}

	c := &Client{
		failoverClient: failoverClient,
		parsedABI:      parsedABI,
		timeout:        opts.Timeout,
		maxRetries:     opts.MaxRetries,
		retryInterval:  opts.RetryInterval,
	}
	if c.timeout <= 0 {
		c.timeout = defaultRPCTimeout
	}
	if c.maxRetries <= 0 {
		c.maxRetries = defaultMaxRetries
	}
	if c.retryInterval <= 0 {
		c.retryInterval = defaultRetryInterval
	}
	return c, nil
}

// Close closes all RPC client connections
func (c *Client) Close() {
	c.failoverClient.Close()
}

// HealthyEndpoint returns the endpoint requests are currently routed to
func (c *Client) HealthyEndpoint() (*ethclient.Client, string, error) {
	return c.failoverClient.GetClient()
}

// EndpointsHealth reports the health flag of every configured endpoint
func (c *Client) EndpointsHealth() map[string]bool {
	return c.failoverClient.Health()
}

// BlockNumber returns the height of the latest block
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	rpcCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var height uint64
	err := c.retryWithBackoff(rpcCtx, func(ec *ethclient.Client) error {
		n, err := ec.BlockNumber(rpcCtx)
		if err != nil {
			return err
		}
		height = n
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("blockNumber: %w", err)
	}
	return height, nil
}

// retryWithBackoff executes fn with exponential backoff and automatic failover.
// A fresh endpoint is picked for every attempt.
func (c *Client) retryWithBackoff(ctx context.Context, fn func(*ethclient.Client) error) error {
	var lastErr error

	for attempt := range c.maxRetries {
		if attempt > 0 {
			backoff := c.retryInterval * time.Duration(1<<uint(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		ethClient, currentURL, err := c.failoverClient.GetClient()
		if err != nil {
			lastErr = err
			continue
		}

		if err := fn(ethClient); err != nil {
			lastErr = err
			if !isRetryable(ctx, err) {
				return err
			}
			c.failoverClient.MarkUnhealthy(currentURL, err)
			continue
		}
		return nil
	}

	return fmt.Errorf("failed after %d attempts: %w", c.maxRetries, lastErr)
}

// isRetryable reports whether err is a transport failure. A JSON-RPC error
// response means the node answered, so another attempt would get the same answer.
func isRetryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var rpcErr rpc.Error
	return !errors.As(err, &rpcErr)
}

// IsValidAddress reports whether s is a 0x-prefixed 20-byte hex address.
// Checksums are not enforced.
func IsValidAddress(s string) bool {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return false
	}
	return common.IsHexAddress(s)
}

// FormatUnits scales a base-unit amount by 10^decimals
func FormatUnits(rawBalance *big.Int, decimals uint8) decimal.Decimal {
	if rawBalance == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(rawBalance, -int32(decimals))
}

// HumanBalance converts raw balance to human-readable decimal string
func HumanBalance(rawBalance *big.Int, decimals uint8) string {
	return FormatUnits(rawBalance, decimals).String()
}

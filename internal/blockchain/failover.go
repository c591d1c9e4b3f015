package blockchain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
)

const (
	unhealthyDuration = 5 * time.Minute // cooldown before a failed endpoint is redialed
	dialTimeout       = 5 * time.Second
)

var errNoHealthyEndpoint = errors.New("no healthy RPC endpoints available")

type endpoint struct {
	url string

	mu       sync.RWMutex
	client   *ethclient.Client
	failedAt time.Time
}

func (ep *endpoint) snapshot() (*ethclient.Client, time.Time) {
	ep.mu.RLock()
	defer ep.mu.RUnlock()
	return ep.client, ep.failedAt
}

// swap installs client, closing the previous connection. A nil client marks
// the endpoint down as of now.
func (ep *endpoint) swap(client *ethclient.Client) {
	ep.mu.Lock()
	defer ep.mu.Unlock()
	if ep.client != nil && ep.client != client {
		ep.client.Close()
	}
	ep.client = client
	if client == nil {
		ep.failedAt = time.Now()
	}
}

// FailoverClient rotates over a set of JSON-RPC endpoints, sidelining the
// ones that fail until their cooldown has passed
type FailoverClient struct {
	endpoints []*endpoint

	mu      sync.Mutex
	current int
}

// dialEndpoint connects to url and confirms it answers eth_chainId
func dialEndpoint(url string) (*ethclient.Client, error) {
	client, err := ethclient.Dial(url)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	if _, err := client.ChainID(ctx); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

// NewFailoverClient dials every URL up front and fails only when none answers
func NewFailoverClient(urls []string) (*FailoverClient, error) {
	if len(urls) == 0 {
		return nil, fmt.Errorf("at least one RPC URL is required")
	}

	fc := &FailoverClient{endpoints: make([]*endpoint, 0, len(urls))}
	up := 0
	for _, url := range urls {
		ep := &endpoint{url: url}
		client, err := dialEndpoint(url)
		ep.swap(client)
		fc.endpoints = append(fc.endpoints, ep)

		if err != nil {
			slog.Warn("RPC endpoint unreachable, will retry after cooldown", "url", url, "error", err)
			continue
		}
		up++
		slog.Info("Connected to RPC endpoint", "url", url)
	}

	if up == 0 {
		return nil, errNoHealthyEndpoint
	}
	return fc, nil
}

// GetClient returns the next usable endpoint starting from the last one
// served. Endpoints past their cooldown are redialed on the way.
func (fc *FailoverClient) GetClient() (*ethclient.Client, string, error) {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	for i := range fc.endpoints {
		idx := (fc.current + i) % len(fc.endpoints)
		ep := fc.endpoints[idx]

		client, failedAt := ep.snapshot()
		if client == nil {
			if time.Since(failedAt) <= unhealthyDuration {
				continue
			}
			var err error
			if client, err = dialEndpoint(ep.url); err != nil {
				ep.swap(nil)
				continue
			}
			ep.swap(client)
			slog.Info("Reconnected to RPC endpoint", "url", ep.url)
		}

		fc.current = idx
		return client, ep.url, nil
	}
	return nil, "", errNoHealthyEndpoint
}

// MarkUnhealthy takes url out of rotation for the cooldown period. With a
// single endpoint there is nothing to fail over to, so it stays in use.
func (fc *FailoverClient) MarkUnhealthy(url string, err error) {
	if len(fc.endpoints) == 1 {
		slog.Warn("RPC call failed on sole endpoint", "url", url, "error", err)
		return
	}

	for _, ep := range fc.endpoints {
		if ep.url != url {
			continue
		}
		ep.swap(nil)
		slog.Warn("Marked RPC endpoint as unhealthy",
			"url", url,
			"error", err,
			"retry_after", unhealthyDuration)
		return
	}
}

// Health reports whether each endpoint is currently in rotation, keyed by URL
func (fc *FailoverClient) Health() map[string]bool {
	health := make(map[string]bool, len(fc.endpoints))
	for _, ep := range fc.endpoints {
		client, _ := ep.snapshot()
		health[ep.url] = client != nil
	}
	return health
}

// Close drops every endpoint connection
func (fc *FailoverClient) Close() {
	for _, ep := range fc.endpoints {
		ep.mu.Lock()
		if ep.client != nil {
			ep.client.Close()
			ep.client = nil
		}
		ep.mu.Unlock()
	}
}

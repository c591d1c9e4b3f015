// Package cache stores token metadata in redis so repeated lookups of the
// same contract skip the chain round-trips.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis"
)

const (
	tokenPrefix = "tokeninfo"
	DefaultTTL  = time.Hour
)

// Options configures a TokenCache
type Options struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// TokenCache keeps JSON-encoded token metadata keyed by contract address
type TokenCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a cache client and checks the server answers
func New(ctx context.Context, opts Options) (*TokenCache, error) {
	if opts.Addr == "" {
		return nil, errors.New("redis address is required")
	}
	c := &TokenCache{
		client: redis.NewClient(&redis.Options{
			Addr:        opts.Addr,
			Password:    opts.Password,
			DB:          opts.DB,
			DialTimeout: 5 * time.Second,
			ReadTimeout: 3 * time.Second,
		}),
		ttl: opts.TTL,
	}
	if c.ttl <= 0 {
		c.ttl = DefaultTTL
	}
	if err := c.Ping(ctx); err != nil {
		c.client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return c, nil
}

func tokenKey(address string) string {
	return fmt.Sprintf("%s:%s", tokenPrefix, strings.ToLower(address))
}

// Get decodes the cached entry of address into dst. found is false on a miss.
func (c *TokenCache) Get(ctx context.Context, address string, dst any) (bool, error) {
	data, err := c.client.WithContext(ctx).Get(tokenKey(address)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %s: %w", tokenKey(address), err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("decode cached token %s: %w", address, err)
	}
	return true, nil
}

// Set stores v for address with the configured TTL
func (c *TokenCache) Set(ctx context.Context, address string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode token %s: %w", address, err)
	}
	if err := c.client.WithContext(ctx).Set(tokenKey(address), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", tokenKey(address), err)
	}
	return nil
}

// Ping verifies the redis connection
func (c *TokenCache) Ping(ctx context.Context) error {
	return c.client.WithContext(ctx).Ping().Err()
}

// Close releases the connection pool
func (c *TokenCache) Close() {
	_ = c.client.Close()
}

package health

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
)

// Pinger is a dependency that can report whether it is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// RPCReporter exposes the state of the RPC endpoint pool
type RPCReporter interface {
	HealthyEndpoint() (*ethclient.Client, string, error)
	EndpointsHealth() map[string]bool
}

// Checker performs health checks on application dependencies
type Checker struct {
	store Pinger
	rpc   RPCReporter
	cache Pinger
}

// NewChecker creates a new health checker
func NewChecker(store Pinger, rpc RPCReporter) *Checker {
	return &Checker{
		store: store,
		rpc:   rpc,
	}
}

// WithCache adds the metadata cache to the checks. A failing cache only
// degrades the report.
func (c *Checker) WithCache(cache Pinger) *Checker {
	c.cache = cache
	return c
}

// CheckStatus represents the health status of a component
type CheckStatus string

const (
	StatusOK       CheckStatus = "ok"
	StatusDegraded CheckStatus = "degraded"
	StatusError    CheckStatus = "error"
)

// HealthResponse is the JSON response structure
type HealthResponse struct {
	Status    CheckStatus            `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckDetail `json:"checks"`
	Uptime    string                 `json:"uptime,omitempty"`
}

// CheckDetail contains details about a specific health check
type CheckDetail struct {
	Status  CheckStatus `json:"status"`
	Message string      `json:"message,omitempty"`
}

var startTime = time.Now()

// Check performs all health checks and returns the aggregated status
func (c *Checker) Check(ctx context.Context) HealthResponse {
	checks := make(map[string]CheckDetail)
	overallStatus := StatusOK

	dbCheck := c.checkDatabase(ctx)
	checks["database"] = dbCheck
	if dbCheck.Status != StatusOK {
		overallStatus = StatusError
	}

	rpcCheck := c.checkRPC(ctx)
	checks["rpc_endpoints"] = rpcCheck
	overallStatus = worst(overallStatus, rpcCheck.Status)

	if c.cache != nil {
		cacheCheck := c.checkCache(ctx)
		checks["cache"] = cacheCheck
		if cacheCheck.Status != StatusOK {
			overallStatus = worst(overallStatus, StatusDegraded)
		}
	}

	return HealthResponse{
		Status:    overallStatus,
		Timestamp: time.Now(),
		Checks:    checks,
		Uptime:    time.Since(startTime).Round(time.Second).String(),
	}
}

func worst(a, b CheckStatus) CheckStatus {
	rank := map[CheckStatus]int{StatusOK: 0, StatusDegraded: 1, StatusError: 2}
	if rank[b] > rank[a] {
		return b
	}
	return a
}

// checkDatabase verifies the transaction store is reachable
func (c *Checker) checkDatabase(ctx context.Context) CheckDetail {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := c.store.Ping(ctx); err != nil {
		slog.Error("Health check: database ping failed", "error", err)
		return CheckDetail{
			Status:  StatusError,
			Message: "database unreachable: " + err.Error(),
		}
	}

	return CheckDetail{
		Status:  StatusOK,
		Message: "database connection healthy",
	}
}

// checkRPC verifies that at least one RPC endpoint is available
func (c *Checker) checkRPC(ctx context.Context) CheckDetail {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	client, url, err := c.rpc.HealthyEndpoint()
	if err != nil {
		slog.Error("Health check: no healthy RPC endpoints", "error", err)
		return CheckDetail{
			Status:  StatusError,
			Message: "no healthy RPC endpoints available",
		}
	}

	if _, err := client.ChainID(ctx); err != nil {
		slog.Error("Health check: RPC endpoint failed", "url", url, "error", err)
		return CheckDetail{
			Status:  StatusError,
			Message: "RPC endpoint not responding: " + err.Error(),
		}
	}

	healthStatus := c.rpc.EndpointsHealth()
	healthyCount := 0
	totalCount := len(healthStatus)

	for _, healthy := range healthStatus {
		if healthy {
			healthyCount++
		}
	}

	if healthyCount == totalCount {
		return CheckDetail{
			Status:  StatusOK,
			Message: "all RPC endpoints healthy",
		}
	}

	return CheckDetail{
		Status:  StatusDegraded,
		Message: fmt.Sprintf("%d/%d RPC endpoints healthy", healthyCount, totalCount),
	}
}

func (c *Checker) checkCache(ctx context.Context) CheckDetail {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	if err := c.cache.Ping(ctx); err != nil {
		slog.Warn("Health check: cache ping failed", "error", err)
		return CheckDetail{
			Status:  StatusDegraded,
			Message: "cache unreachable: " + err.Error(),
		}
	}
	return CheckDetail{Status: StatusOK, Message: "cache connection healthy"}
}

// Handler returns an http.HandlerFunc for the health endpoint
func (c *Checker) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		status := c.Check(r.Context())

		statusCode := http.StatusOK
		if status.Status == StatusError {
			statusCode = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)

		if err := json.NewEncoder(w).Encode(status); err != nil {
			slog.Error("Failed to encode health response", "error", err)
		}
	}
}

// Package api exposes the balance and transaction pipelines over HTTP.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/matrixise/tokenscan/internal/service"
	"github.com/matrixise/tokenscan/internal/storage"
)

// BalanceReader serves token balances and metadata
type BalanceReader interface {
	GetTokenBalance(ctx context.Context, token, wallet string) (service.TokenBalance, error)
	GetTokenInfo(ctx context.Context, token string) (service.TokenInfo, error)
}

// TransactionReader fetches, queries and aggregates transaction history
type TransactionReader interface {
	Fetch(ctx context.Context, address string) ([]storage.Transaction, error)
	Query(ctx context.Context, address string, startDate, endDate *string) ([]storage.Transaction, error)
	Stats(ctx context.Context, address string) (storage.Stats, error)
}

// Options wires the router
type Options struct {
	Balances       BalanceReader
	Transactions   TransactionReader
	Health         http.Handler
	AllowedOrigins []string
	CORSDebug      bool
}

// NewRouter builds the HTTP handler serving /api, /health and /home
func NewRouter(opts Options) http.Handler {
	h := &handlers{balances: opts.Balances, transactions: opts.Transactions}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found", "")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed", "")
	})

	r.Get("/home", h.home)
	if opts.Health != nil {
		r.Method(http.MethodGet, "/health", opts.Health)
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/token-balance", h.tokenBalance)
		r.Get("/token-info/{tokenAddress}", h.tokenInfo)

		r.Route("/transactions", func(r chi.Router) {
			r.Post("/fetch", h.fetchTransactions)
			r.Get("/{address}", h.queryTransactions)
			r.Get("/{address}/stats", h.transactionStats)
		})
	})

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-Id"},
		Debug:          opts.CORSDebug,
	})
	return c.Handler(r)
}

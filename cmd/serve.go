package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/matrixise/tokenscan/internal/api"
	"github.com/matrixise/tokenscan/internal/blockchain"
	"github.com/matrixise/tokenscan/internal/cache"
	"github.com/matrixise/tokenscan/internal/config"
	"github.com/matrixise/tokenscan/internal/explorer"
	"github.com/matrixise/tokenscan/internal/health"
	"github.com/matrixise/tokenscan/internal/logger"
	"github.com/matrixise/tokenscan/internal/service"
	"github.com/matrixise/tokenscan/internal/storage"
	"github.com/matrixise/tokenscan/internal/validation"
)

var port int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long:  `Serve the token balance and transaction history endpoints under /api.`,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVar(&port, "port", 0, "HTTP port (overrides http_port)")
}

func runServe(cmd *cobra.Command, args []string) error {
	// Setup logger (log-level from global flag)
	logger.Setup(logLevel)

	// Context with graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		slog.Info("Signal received, graceful shutdown", "signal", sig)
		cancel()
	}()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		slog.Error("Configuration error", "error", err)
		return err
	}

	// Config wins unless the flag was given explicitly
	if cfg.LogLevel != "" && !cmd.Flags().Changed("log-level") {
		logger.Setup(cfg.LogLevel)
	}

	httpPort := cfg.HTTPPort
	if port > 0 {
		httpPort = port
	}

	slog.Info("Configuration loaded",
		"config_path", cfgFile,
		"rpc_endpoints", len(cfg.RPCUrls),
		"explorer", cfg.Explorer.APIURL,
		"persistence", cfg.PersistenceEnabled(),
		"cache", cfg.CacheEnabled(),
	)

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	client, err := blockchain.NewClient(blockchain.Options{
		RPCURLs:    cfg.RPCUrls,
		Timeout:    cfg.RPCTimeout,
		MaxRetries: cfg.RPCRetries,
	})
	if err != nil {
		slog.Error("Failed to connect to RPC", "error", err)
		return err
	}
	defer client.Close()

	if len(cfg.RPCUrls) == 1 {
		slog.Info("RPC connection established", "endpoint", cfg.RPCUrls[0])
	} else {
		slog.Info("RPC connection established with failover",
			"endpoints", len(cfg.RPCUrls),
			"primary", cfg.RPCUrls[0])
	}

	validate := validation.New()
	balances := service.NewBalanceService(client, validate)
	checker := health.NewChecker(store, client)

	if cfg.CacheEnabled() {
		tokenCache, err := cache.New(ctx, cache.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL,
		})
		if err != nil {
			slog.Warn("Token cache unavailable, continuing without it", "addr", cfg.Redis.Addr, "error", err)
		} else {
			defer tokenCache.Close()
			balances.WithCache(tokenCache)
			checker.WithCache(tokenCache)
			slog.Info("Token cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.TTL)
		}
	}

	if cfg.Explorer.APIKey == "" {
		slog.Warn("No explorer API key configured, requests may be rate limited")
	}
	explorerClient := explorer.NewClient(explorer.Options{
		BaseURL:  cfg.Explorer.APIURL,
		APIKey:   cfg.Explorer.APIKey,
		ChainID:  cfg.Explorer.ChainID,
		PageSize: cfg.Explorer.PageSize,
		Timeout:  cfg.Explorer.Timeout,
	})
	transactions := service.NewTransactionService(explorerClient, store, validate)

	httpServer := &http.Server{
		Addr: fmt.Sprintf(":%d", httpPort),
		Handler: api.NewRouter(api.Options{
			Balances:       balances,
			Transactions:   transactions,
			Health:         checker.Handler(),
			AllowedOrigins: cfg.CORSAllowedOrigins,
			CORSDebug:      cfg.LogLevel == "debug",
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("HTTP server starting", "port", httpPort, "home", fmt.Sprintf("http://localhost:%d/home", httpPort))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutdown requested, stopping HTTP server")
	case err := <-serverErr:
		slog.Error("HTTP server error", "error", err)
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
		return err
	}
	return nil
}

// openStore connects to PostgreSQL, or falls back to process memory when no
// database is configured
func openStore(ctx context.Context, cfg *config.Config) (storage.TransactionStore, error) {
	if !cfg.PersistenceEnabled() {
		slog.Warn("DATABASE_URL not set, transactions are kept in memory only")
		return storage.NewMemoryStore(), nil
	}

	if cfg.AutoMigrate {
		if err := storage.RunMigrations(ctx, cfg.DatabaseURL); err != nil {
			slog.Error("Migration failed", "error", err)
			return nil, err
		}
		slog.Info("Migrations applied")
	}

	store, err := storage.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to PostgreSQL", "error", err)
		return nil, err
	}
	slog.Info("PostgreSQL connection established")
	return store, nil
}

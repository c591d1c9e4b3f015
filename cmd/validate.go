package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/matrixise/tokenscan/internal/config"
	"github.com/matrixise/tokenscan/internal/logger"
)

var validateCmd = &cobra.Command{
	Use:   "validate-config",
	Short: "Validate configuration file",
	Long:  `Validate the configuration file syntax and values without running the application.`,
	RunE:  validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateConfig(cmd *cobra.Command, args []string) error {
	logger.Setup(logLevel)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		slog.Error("Configuration validation failed", "error", err)
		return err
	}

	slog.Info("✓ Configuration valid",
		"rpc_urls", len(cfg.RPCUrls),
		"http_port", cfg.HTTPPort,
		"log_level", cfg.LogLevel,
		"explorer", cfg.Explorer.APIURL,
		"explorer_api_key_set", cfg.Explorer.APIKey != "",
		"database_url_set", cfg.PersistenceEnabled(),
		"cache_enabled", cfg.CacheEnabled(),
	)

	return nil
}

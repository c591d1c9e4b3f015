package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "tokenscan",
	Short: "ERC-20 balance and transaction history API",
	Long: `tokenscan serves ERC-20 token balances read from an Ethereum JSON-RPC node
and wallet transaction history fetched from an Etherscan-compatible explorer.
Fetched transactions are persisted to PostgreSQL so they can be queried by
date range and aggregated.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
}

package config

import (
	"errors"
	"strings"
	"time"

	"github.com/matrixise/tokenscan/internal/validation"
)

// Config represents the application configuration
type Config struct {
	RPCUrl             string         `mapstructure:"rpc_url" validate:"omitempty,url"`
	RPCUrls            []string       `mapstructure:"rpc_urls" validate:"required,min=1,dive,url"`
	RPCTimeout         time.Duration  `mapstructure:"rpc_timeout" validate:"min=0"`
	RPCRetries         int            `mapstructure:"rpc_retries" validate:"min=1,max=10"`
	HTTPPort           int            `mapstructure:"http_port" validate:"min=1,max=65535"`
	LogLevel           string         `mapstructure:"log_level" validate:"omitempty,oneof=debug info warn warning error"`
	CORSAllowedOrigins []string       `mapstructure:"cors_allowed_origins" validate:"dive,required"`
	DatabaseURL        string         `mapstructure:"database_url"`
	AutoMigrate        bool           `mapstructure:"auto_migrate"`
	Explorer           ExplorerConfig `mapstructure:"explorer"`
	Redis              RedisConfig    `mapstructure:"redis"`
}

// ExplorerConfig points at an Etherscan-compatible API
type ExplorerConfig struct {
	APIURL   string        `mapstructure:"api_url" validate:"required,url"`
	APIKey   string        `mapstructure:"api_key"`
	ChainID  int64         `mapstructure:"chain_id" validate:"min=0"`
	PageSize int           `mapstructure:"page_size" validate:"min=1,max=10000"`
	Timeout  time.Duration `mapstructure:"timeout" validate:"min=0"`
}

// RedisConfig enables the token metadata cache when Addr is set
type RedisConfig struct {
	Addr     string        `mapstructure:"addr" validate:"omitempty,hostname_port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db" validate:"min=0,max=15"`
	TTL      time.Duration `mapstructure:"ttl" validate:"min=0"`
}

// Normalize folds rpc_url into rpc_urls and cleans list entries.
// rpc_urls wins when both are set.
func (c *Config) Normalize() error {
	c.RPCUrls = trimAll(c.RPCUrls)
	if len(c.RPCUrls) == 0 {
		if strings.TrimSpace(c.RPCUrl) == "" {
			return errors.New("either rpc_url or rpc_urls must be set")
		}
		c.RPCUrls = []string{strings.TrimSpace(c.RPCUrl)}
	}
	c.RPCUrl = ""

	c.CORSAllowedOrigins = trimAll(c.CORSAllowedOrigins)
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.DatabaseURL = strings.TrimSpace(c.DatabaseURL)
	return nil
}

// Validate checks field constraints
func (c *Config) Validate() error {
	return validation.New().Struct(c)
}

// PersistenceEnabled reports whether a database is configured
func (c *Config) PersistenceEnabled() bool {
	return c.DatabaseURL != ""
}

// CacheEnabled reports whether a redis cache is configured
func (c *Config) CacheEnabled() bool {
	return c.Redis.Addr != ""
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

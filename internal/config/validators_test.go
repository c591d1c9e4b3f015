package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		RPCUrls:            []string{"https://rpc.example.com"},
		RPCTimeout:         10 * time.Second,
		RPCRetries:         3,
		HTTPPort:           8080,
		LogLevel:           "info",
		CORSAllowedOrigins: []string{"*"},
		Explorer: ExplorerConfig{
			APIURL:   "https://api.etherscan.io/api",
			PageSize: 5,
			Timeout:  10 * time.Second,
		},
		Redis: RedisConfig{TTL: time.Hour},
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantError bool
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:   "redis host and port",
			mutate: func(c *Config) { c.Redis.Addr = "localhost:6379" },
		},
		{
			name:   "warning is accepted as log level",
			mutate: func(c *Config) { c.LogLevel = "warning" },
		},
		{
			name:      "no rpc urls",
			mutate:    func(c *Config) { c.RPCUrls = nil },
			wantError: true,
		},
		{
			name:      "rpc url not a url",
			mutate:    func(c *Config) { c.RPCUrls = []string{"not a url"} },
			wantError: true,
		},
		{
			name:      "unknown log level",
			mutate:    func(c *Config) { c.LogLevel = "verbose" },
			wantError: true,
		},
		{
			name:      "port out of range",
			mutate:    func(c *Config) { c.HTTPPort = 70000 },
			wantError: true,
		},
		{
			name:      "zero retries",
			mutate:    func(c *Config) { c.RPCRetries = 0 },
			wantError: true,
		},
		{
			name:      "explorer url missing",
			mutate:    func(c *Config) { c.Explorer.APIURL = "" },
			wantError: true,
		},
		{
			name:      "explorer page size zero",
			mutate:    func(c *Config) { c.Explorer.PageSize = 0 },
			wantError: true,
		},
		{
			name:      "redis addr without port",
			mutate:    func(c *Config) { c.Redis.Addr = "localhost" },
			wantError: true,
		},
		{
			name:      "empty cors origin",
			mutate:    func(c *Config) { c.CORSAllowedOrigins = []string{""} },
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

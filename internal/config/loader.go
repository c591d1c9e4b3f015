package config

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/matrixise/tokenscan/internal/explorer"
)

// Load reads configuration from defaults, an optional TOML file and the
// environment, in increasing order of precedence
func Load(configPath string) (*Config, error) {
	v, err := newViper(configPath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Normalize(); err != nil {
		return nil, fmt.Errorf("config normalization failed: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadDatabaseURL resolves only the database URL, for commands that do not
// talk to the chain
func LoadDatabaseURL(configPath string) (string, error) {
	v, err := newViper(configPath)
	if err != nil {
		return "", err
	}
	dsn := strings.TrimSpace(v.GetString("database_url"))
	if dsn == "" {
		return "", fmt.Errorf("DATABASE_URL is required")
	}
	return dsn, nil
}

func newViper(configPath string) (*viper.Viper, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
	}

	// TOKENSCAN_EXPLORER_API_KEY -> explorer.api_key
	v.SetEnvPrefix("TOKENSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindLegacyEnv(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	return v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("rpc_url", "")
	v.SetDefault("rpc_urls", []string{})
	v.SetDefault("rpc_timeout", "10s")
	v.SetDefault("rpc_retries", 3)
	v.SetDefault("http_port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("cors_allowed_origins", []string{"*"})
	v.SetDefault("database_url", "")
	v.SetDefault("auto_migrate", false)

	v.SetDefault("explorer.api_url", explorer.DefaultBaseURL)
	v.SetDefault("explorer.api_key", "")
	v.SetDefault("explorer.chain_id", 0)
	v.SetDefault("explorer.page_size", explorer.DefaultPageSize)
	v.SetDefault("explorer.timeout", "10s")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", "1h")
}

// bindLegacyEnv maps the unprefixed variable names used by existing
// deployments. Prefixed variables take precedence.
func bindLegacyEnv(v *viper.Viper) {
	_ = v.BindEnv("rpc_url", "ETH_RPC_URL", "RPC_URL")
	_ = v.BindEnv("rpc_urls", "RPC_URLS")
	_ = v.BindEnv("http_port", "PORT", "HTTP_PORT")
	_ = v.BindEnv("log_level", "LOG_LEVEL")
	_ = v.BindEnv("database_url", "DATABASE_URL")
	_ = v.BindEnv("explorer.api_key", "ETHERSCAN_API_KEY")
	_ = v.BindEnv("redis.addr", "REDIS_ADDR")
	_ = v.BindEnv("redis.password", "REDIS_PASSWORD")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

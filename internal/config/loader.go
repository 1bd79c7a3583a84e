package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. WEALTH_OPS_APP_NAME
const EnvPrefix = "WEALTH_OPS"

// Load reads and parses the configuration from file and environment variables.
// ${VAR} placeholders in the YAML file are expanded before parsing.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v := newViper()
	if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

// LoadWithDefaults loads configuration with default values for optional fields.
// A missing file is not an error; defaults and environment variables still apply.
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	v := newViper()
	setDefaults(v)

	if data, err := os.ReadFile(configPath); err == nil {
		if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

// ReloadFromEnv reloads the whole configuration when WEALTH_OPS_CONFIG_PATH is set
func ReloadFromEnv(cfg *Config) error {
	if envPath := os.Getenv(EnvPrefix + "_CONFIG_PATH"); envPath != "" {
		newCfg, err := Load(envPath)
		if err != nil {
			return err
		}
		*cfg = *newCfg
	}
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "wealth-ops")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "wealth_ops")
	v.SetDefault("database.user", "wealth_ops")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.max_idle_connections", 2)

	v.SetDefault("backtest.initial_capital", 10000.0)
	v.SetDefault("backtest.start_date", "2015-01-01")
	v.SetDefault("backtest.end_date", "2024-12-31")
	v.SetDefault("backtest.output_path", "output")
	v.SetDefault("backtest.risk_free_rate", 0.0)
	v.SetDefault("backtest.monte_carlo_iterations", 1000)
	v.SetDefault("backtest.workers", 4)

	v.SetDefault("walk_forward.train_years", 3)
	v.SetDefault("walk_forward.test_months", 6)
	v.SetDefault("walk_forward.roll_months", 6)
	v.SetDefault("walk_forward.min_train_rows", 0)

	v.SetDefault("data.primary_provider", "csv")
	v.SetDefault("data.csv_dir", "data")
	v.SetDefault("data.tiingo_base_url", "https://api.tiingo.com/tiingo/daily")
	v.SetDefault("data.timeout_seconds", 30)
	v.SetDefault("data.retry_attempts", 3)
	v.SetDefault("data.requests_per_second", 1.0)
	v.SetDefault("data.burst", 1)
	v.SetDefault("data.max_history_years", 10)

	v.SetDefault("regime.index_ticker", "SPY")
	v.SetDefault("regime.ma_period", 200)

	v.SetDefault("schedule.daily_ingest", "0 22 * * 1-5")
	v.SetDefault("schedule.regime_check", "30 22 * * 1-5")

	v.SetDefault("cache.ttl_seconds", 86400)
	v.SetDefault("cache.cleanup_interval_seconds", 600)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")
}

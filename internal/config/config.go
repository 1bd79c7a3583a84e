// Package config provides configuration management for the Wealth-Ops backtest services.
package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/yourusername/wealth-ops/internal/models"
)

// Config represents the complete application configuration
type Config struct {
	App         AppConfig         `mapstructure:"app" validate:"required"`
	Database    DatabaseConfig    `mapstructure:"database" validate:"required"`
	Backtest    BacktestConfig    `mapstructure:"backtest" validate:"required"`
	WalkForward WalkForwardConfig `mapstructure:"walk_forward" validate:"required"`
	Data        DataConfig        `mapstructure:"data" validate:"required"`
	Regime      RegimeConfig      `mapstructure:"regime" validate:"required"`
	Schedule    ScheduleConfig    `mapstructure:"schedule"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Metrics     MetricsConfig     `mapstructure:"metrics" validate:"required"`
	Assets      map[string]string `mapstructure:"assets" validate:"dive,keys,required,endkeys,profile"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host               string `mapstructure:"host" validate:"required"`
	Port               int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Name               string `mapstructure:"name" validate:"required"`
	User               string `mapstructure:"user" validate:"required"`
	Password           string `mapstructure:"password"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"required,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"required,gt=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"required,gt=0"`
}

// BacktestConfig represents backtesting configuration
type BacktestConfig struct {
	InitialCapital       float64 `mapstructure:"initial_capital" validate:"required,gt=0"`
	StartDate            string  `mapstructure:"start_date" validate:"required,datetime"`
	EndDate              string  `mapstructure:"end_date" validate:"required,datetime"`
	OutputPath           string  `mapstructure:"output_path" validate:"required"`
	RiskFreeRate         float64 `mapstructure:"risk_free_rate" validate:"gte=0,lte=1"`
	MonteCarloIterations int     `mapstructure:"monte_carlo_iterations" validate:"required,gt=0"`
	MonteCarloSeed       int64   `mapstructure:"monte_carlo_seed"`
	Workers              int     `mapstructure:"workers" validate:"gte=0"`
}

// WalkForwardConfig represents walk-forward window configuration
type WalkForwardConfig struct {
	TrainYears         int `mapstructure:"train_years" validate:"required,gt=0"`
	TestMonths         int `mapstructure:"test_months" validate:"required,gt=0"`
	RollMonths         int `mapstructure:"roll_months" validate:"required,gt=0"`
	MinTrainRows       int `mapstructure:"min_train_rows" validate:"gte=0"`
	MinTradesPerWindow int `mapstructure:"min_trades_per_window" validate:"gte=0"`
}

// DataConfig represents market-data provider configuration
type DataConfig struct {
	PrimaryProvider   string  `mapstructure:"primary_provider" validate:"required,oneof=tiingo csv postgres"`
	FallbackProvider  string  `mapstructure:"fallback_provider" validate:"omitempty,oneof=tiingo csv postgres"`
	TiingoAPIKey      string  `mapstructure:"tiingo_api_key"`
	TiingoBaseURL     string  `mapstructure:"tiingo_base_url" validate:"omitempty,url"`
	CSVDir            string  `mapstructure:"csv_dir"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	RetryAttempts     int     `mapstructure:"retry_attempts" validate:"gte=0"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"required,gt=0"`
	Burst             int     `mapstructure:"burst" validate:"required,gt=0"`
	MaxHistoryYears   int     `mapstructure:"max_history_years" validate:"required,gt=0"`
}

// RegimeConfig represents the market regime filter configuration
type RegimeConfig struct {
	IndexTicker string `mapstructure:"index_ticker" validate:"required"`
	MAPeriod    int    `mapstructure:"ma_period" validate:"required,gt=0"`
}

// ScheduleConfig represents cron schedules for the ingestion daemon
type ScheduleConfig struct {
	DailyIngest     string `mapstructure:"daily_ingest"`
	RegimeCheck     string `mapstructure:"regime_check"`
	NightlyBacktest string `mapstructure:"nightly_backtest"`
}

// CacheConfig represents the in-memory state store configuration
type CacheConfig struct {
	TTLSeconds             int `mapstructure:"ttl_seconds" validate:"gte=0"`
	CleanupIntervalSeconds int `mapstructure:"cleanup_interval_seconds" validate:"gte=0"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// Tickers returns the configured asset tickers in sorted order
func (c *Config) Tickers() []string {
	tickers := make([]string, 0, len(c.Assets))
	for ticker := range c.Assets {
		tickers = append(tickers, strings.ToUpper(ticker))
	}
	sort.Strings(tickers)
	return tickers
}

// ProfileName returns the profile template configured for ticker, or EQUITY
func (c *Config) ProfileName(ticker string) string {
	for t, profile := range c.Assets {
		if strings.EqualFold(t, ticker) {
			return profile
		}
	}
	return "EQUITY"
}

// Profile resolves the ticker's profile template, falling back to EQUITY
// for unknown names
func (c *Config) Profile(ticker string) models.AssetProfile {
	profile, err := models.ProfileByName(c.ProfileName(ticker))
	if err != nil {
		return models.EquityProfile
	}
	return profile
}

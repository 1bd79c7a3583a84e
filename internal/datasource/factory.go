package datasource

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/wealth-ops/internal/config"
	"github.com/yourusername/wealth-ops/internal/models"
	"github.com/yourusername/wealth-ops/internal/repository"
)

// SourceType names a provider implementation
type SourceType string

const (
	// TiingoSourceType is the Tiingo HTTP API
	TiingoSourceType SourceType = "tiingo"
	// CSVSourceType reads local CSV files
	CSVSourceType SourceType = "csv"
	// PostgresSourceType reads ingested price_bars
	PostgresSourceType SourceType = "postgres"
)

// Factory creates Provider implementations from configuration
type Factory struct {
	cfg        config.DataConfig
	httpClient *RateLimitedHTTPClient
	bars       repository.PriceBarRepository
	profiles   func(ticker string) models.AssetProfile
	logger     logrus.FieldLogger
}

// NewFactory creates a provider factory. bars may be nil when postgres is not used.
func NewFactory(cfg config.DataConfig, bars repository.PriceBarRepository, logger logrus.FieldLogger) *Factory {
	return &Factory{
		cfg:        cfg,
		httpClient: NewRateLimitedHTTPClient(HTTPClientConfigFrom(cfg), logger),
		bars:       bars,
		logger:     logger,
	}
}

// WithProfiles sets the ticker profile resolver used for file-based layouts
func (f *Factory) WithProfiles(resolve func(ticker string) models.AssetProfile) *Factory {
	f.profiles = resolve
	return f
}

// Create builds the provider for sourceType
func (f *Factory) Create(sourceType SourceType) (Provider, error) {
	switch sourceType {
	case TiingoSourceType:
		if f.cfg.TiingoAPIKey == "" {
			return nil, fmt.Errorf("tiingo API key is required")
		}
		return NewTiingoProvider(f.httpClient, f.cfg.TiingoAPIKey, f.cfg.TiingoBaseURL, f.logger), nil
	case CSVSourceType:
		if f.cfg.CSVDir == "" {
			return nil, fmt.Errorf("csv_dir is required for the csv provider")
		}
		return NewCSVProvider(f.cfg.CSVDir).WithProfiles(f.profiles), nil
	case PostgresSourceType:
		if f.bars == nil {
			return nil, fmt.Errorf("postgres provider requires a database connection")
		}
		return NewPostgresProvider(f.bars), nil
	default:
		return nil, fmt.Errorf("unknown data source type: %s", sourceType)
	}
}

// Providers returns the configured primary and (possibly nil) fallback providers
func (f *Factory) Providers() (Provider, Provider, error) {
	primary, err := f.Create(SourceType(f.cfg.PrimaryProvider))
	if err != nil {
		return nil, nil, fmt.Errorf("primary provider: %w", err)
	}
	if f.cfg.FallbackProvider == "" {
		return primary, nil, nil
	}
	fallback, err := f.Create(SourceType(f.cfg.FallbackProvider))
	if err != nil {
		return nil, nil, fmt.Errorf("fallback provider: %w", err)
	}
	return primary, fallback, nil
}

// HTTPClient exposes the shared rate-limited client
func (f *Factory) HTTPClient() *RateLimitedHTTPClient {
	return f.httpClient
}

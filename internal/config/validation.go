package config

import (
	"fmt"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"

	"github.com/yourusername/wealth-ops/internal/models"
)

const dateLayout = "2006-01-02"

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	v.RegisterValidation("environment", validateEnvironment)
	v.RegisterValidation("loglevel", validateLogLevel)
	v.RegisterValidation("profile", validateProfile)
	v.RegisterValidation("datetime", validateDateTime)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	return NewValidator().Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	if err := cv.validator.Struct(cfg); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	return validateCrossField(cfg)
}

func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// validateProfile accepts any asset profile template name
func validateProfile(fl validator.FieldLevel) bool {
	_, err := models.ProfileByName(fl.Field().String())
	return err == nil
}

func validateDateTime(fl validator.FieldLevel) bool {
	_, err := time.Parse(dateLayout, fl.Field().String())
	return err == nil
}

func validateCrossField(cfg *Config) error {
	startDate, err := time.Parse(dateLayout, cfg.Backtest.StartDate)
	if err != nil {
		return fmt.Errorf("invalid backtest start_date format: %w", err)
	}
	endDate, err := time.Parse(dateLayout, cfg.Backtest.EndDate)
	if err != nil {
		return fmt.Errorf("invalid backtest end_date format: %w", err)
	}
	if !startDate.Before(endDate) {
		return fmt.Errorf("backtest start_date must be before end_date")
	}

	if cfg.IsProduction() && cfg.Database.SSLMode == "disable" {
		return fmt.Errorf("production environment requires SSL mode to be 'require' or 'verify-full'")
	}

	if cfg.Database.MaxIdleConnections > cfg.Database.MaxConnections {
		return fmt.Errorf("max_idle_connections cannot exceed max_connections")
	}

	if cfg.Data.FallbackProvider != "" && cfg.Data.FallbackProvider == cfg.Data.PrimaryProvider {
		return fmt.Errorf("fallback_provider must differ from primary_provider")
	}
	for _, provider := range []string{cfg.Data.PrimaryProvider, cfg.Data.FallbackProvider} {
		switch provider {
		case "tiingo":
			if cfg.Data.TiingoAPIKey == "" {
				return fmt.Errorf("tiingo provider requires data.tiingo_api_key")
			}
		case "csv":
			if cfg.Data.CSVDir == "" {
				return fmt.Errorf("csv provider requires data.csv_dir")
			}
		}
	}

	for name, spec := range map[string]string{
		"daily_ingest":     cfg.Schedule.DailyIngest,
		"regime_check":     cfg.Schedule.RegimeCheck,
		"nightly_backtest": cfg.Schedule.NightlyBacktest,
	} {
		if spec == "" {
			continue
		}
		if _, err := cron.ParseStandard(spec); err != nil {
			return fmt.Errorf("invalid schedule.%s %q: %w", name, spec, err)
		}
	}

	return nil
}

// formatValidationErrors formats validation errors into a readable string
func formatValidationErrors(validationErrors validator.ValidationErrors) error {
	var errMsg string
	for _, fieldError := range validationErrors {
		field := fieldError.StructField()
		tag := fieldError.Tag()
		value := fieldError.Value()

		switch tag {
		case "required":
			errMsg += fmt.Sprintf("- Field '%s' is required\n", field)
		case "url":
			errMsg += fmt.Sprintf("- Field '%s' must be a valid URL, got '%v'\n", field, value)
		case "min", "max":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: %s constraint violated\n", field, tag)
		case "gt", "gte", "lt", "lte":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: numeric constraint %s violated\n", field, tag)
		case "environment":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: development, staging, production\n", field)
		case "loglevel":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: debug, info, warn, error\n", field)
		case "profile":
			errMsg += fmt.Sprintf("- Field '%s' has unknown profile '%v'\n", field, value)
		case "datetime":
			errMsg += fmt.Sprintf("- Field '%s' must be a YYYY-MM-DD date, got '%v'\n", field, value)
		case "oneof":
			errMsg += fmt.Sprintf("- Field '%s' has invalid value '%v'\n", field, value)
		default:
			errMsg += fmt.Sprintf("- Field '%s' failed validation: %s\n", field, tag)
		}
	}
	return fmt.Errorf("configuration validation failed:\n%s", errMsg)
}

// ValidateEnvironment validates environment-specific requirements
func ValidateEnvironment(cfg *Config) error {
	if cfg.IsProduction() {
		if cfg.Database.SSLMode == "disable" {
			return fmt.Errorf("production environment requires database SSL mode to be 'require' or 'verify-full'")
		}
		if isTestCredential(cfg.Data.TiingoAPIKey) {
			return fmt.Errorf("production environment should not use a placeholder Tiingo API key")
		}
	}
	return nil
}

var testCredentialPattern = regexp.MustCompile(`(?i)test|demo|example|placeholder|YOUR_`)

func isTestCredential(credential string) bool {
	return credential != "" && testCredentialPattern.MatchString(credential)
}

package models

import (
	"fmt"
	"strconv"
	"strings"
)

// AssetClass is the instrument category that drives execution costs
type AssetClass string

// Asset classes
const (
	AssetClassEquity    AssetClass = "EQUITY"
	AssetClassCommodity AssetClass = "COMMODITY"
	AssetClassIndex     AssetClass = "INDEX"
)

// Valid reports whether the asset class is one of the known constants
func (c AssetClass) Valid() bool {
	switch c {
	case AssetClassEquity, AssetClassCommodity, AssetClassIndex:
		return true
	}
	return false
}

// RegimeDirection is the market regime under which an asset may be bought
type RegimeDirection string

// Regime directions
const (
	RegimeBull RegimeDirection = "BULL"
	RegimeBear RegimeDirection = "BEAR"
	RegimeAny  RegimeDirection = "ANY"
)

// Broker identifies the execution venue
type Broker string

// Brokers
const (
	BrokerIBKR  Broker = "IBKR"
	BrokerIG    Broker = "IG"
	BrokerPaper Broker = "PAPER"
)

// AssetProfile configures the pipeline for one ticker
type AssetProfile struct {
	AssetClass         AssetClass      `json:"asset_class" mapstructure:"asset_class" validate:"required,oneof=EQUITY COMMODITY INDEX"`
	RegimeIndex        string          `json:"regime_index" mapstructure:"regime_index"`
	RegimeDirection    RegimeDirection `json:"regime_direction" mapstructure:"regime_direction" validate:"omitempty,oneof=BULL BEAR ANY"`
	VIXGuard           bool            `json:"vix_guard" mapstructure:"vix_guard"`
	EventGuard         bool            `json:"event_guard" mapstructure:"event_guard"`
	MacroEventGuard    bool            `json:"macro_event_guard" mapstructure:"macro_event_guard"`
	VolumeFeatures     bool            `json:"volume_features" mapstructure:"volume_features"`
	BenchmarkIndex     string          `json:"benchmark_index" mapstructure:"benchmark_index"`
	ConcentrationGroup string          `json:"concentration_group" mapstructure:"concentration_group"`
	Broker             Broker          `json:"broker" mapstructure:"broker" validate:"omitempty,oneof=IBKR IG PAPER"`
	TaxRate            float64         `json:"tax_rate" mapstructure:"tax_rate" validate:"gte=0,lte=1"`
	DataSource         string          `json:"data_source" mapstructure:"data_source"`
}

// Pre-built profile templates
var (
	EquityProfile = AssetProfile{
		AssetClass:      AssetClassEquity,
		RegimeIndex:     "SPY",
		RegimeDirection: RegimeBull,
		VIXGuard:        true,
		EventGuard:      true,
		VolumeFeatures:  true,
		BenchmarkIndex:  "SPY",
		Broker:          BrokerIBKR,
		TaxRate:         0.33,
		DataSource:      "TIINGO",
	}

	CommodityHavenProfile = AssetProfile{
		AssetClass:         AssetClassCommodity,
		RegimeIndex:        "UUP",
		RegimeDirection:    RegimeBear,
		MacroEventGuard:    true,
		BenchmarkIndex:     "UUP",
		ConcentrationGroup: "PRECIOUS_METALS",
		Broker:             BrokerIG,
		DataSource:         "TIINGO_FOREX",
	}

	CommodityCyclicalProfile = AssetProfile{
		AssetClass:         AssetClassCommodity,
		RegimeIndex:        "SPY",
		RegimeDirection:    RegimeBull,
		VIXGuard:           true,
		MacroEventGuard:    true,
		VolumeFeatures:     true,
		BenchmarkIndex:     "UUP",
		ConcentrationGroup: "CYCLICAL",
		Broker:             BrokerIG,
		DataSource:         "TIINGO",
	}

	IndexProfile = AssetProfile{
		AssetClass:      AssetClassIndex,
		RegimeDirection: RegimeAny,
		VolumeFeatures:  true,
		Broker:          BrokerPaper,
		DataSource:      "TIINGO",
	}
)

var profileTemplates = map[string]AssetProfile{
	"EQUITY":             EquityProfile,
	"COMMODITY_HAVEN":    CommodityHavenProfile,
	"COMMODITY_CYCLICAL": CommodityCyclicalProfile,
	"INDEX":              IndexProfile,
}

// ProfileTemplateNames lists the names accepted by ProfileByName
func ProfileTemplateNames() []string {
	return []string{"EQUITY", "COMMODITY_HAVEN", "COMMODITY_CYCLICAL", "INDEX"}
}

// ProfileByName returns a template profile by case-insensitive name
func ProfileByName(name string) (AssetProfile, error) {
	p, ok := profileTemplates[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return AssetProfile{}, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
	}
	return p, nil
}

// ProfileFromMap parses a loosely typed attribute map. Absent or mistyped
// fields fall back to EQUITY defaults, except broker which defaults to PAPER
// and concentration group which defaults to empty.
func ProfileFromMap(item map[string]any) AssetProfile {
	return AssetProfile{
		AssetClass:         AssetClass(getString(item, "asset_class", string(AssetClassEquity))),
		RegimeIndex:        getString(item, "regime_index", "SPY"),
		RegimeDirection:    RegimeDirection(getString(item, "regime_direction", string(RegimeBull))),
		VIXGuard:           getBool(item, "vix_guard", true),
		EventGuard:         getBool(item, "event_guard", true),
		MacroEventGuard:    getBool(item, "macro_event_guard", false),
		VolumeFeatures:     getBool(item, "volume_features", true),
		BenchmarkIndex:     getString(item, "benchmark_index", "SPY"),
		ConcentrationGroup: getString(item, "concentration_group", ""),
		Broker:             Broker(getString(item, "broker", string(BrokerPaper))),
		TaxRate:            getNumber(item, "tax_rate", 0.33),
		DataSource:         getString(item, "data_source", "TIINGO"),
	}
}

// ToMap is the inverse of ProfileFromMap
func (p AssetProfile) ToMap() map[string]any {
	return map[string]any{
		"asset_class":         string(p.AssetClass),
		"regime_index":        p.RegimeIndex,
		"regime_direction":    string(p.RegimeDirection),
		"vix_guard":           p.VIXGuard,
		"event_guard":         p.EventGuard,
		"macro_event_guard":   p.MacroEventGuard,
		"volume_features":     p.VolumeFeatures,
		"benchmark_index":     p.BenchmarkIndex,
		"concentration_group": p.ConcentrationGroup,
		"broker":              string(p.Broker),
		"tax_rate":            p.TaxRate,
		"data_source":         p.DataSource,
	}
}

// StoragePrefix returns the object-store key prefix for the asset class
func (p AssetProfile) StoragePrefix() string {
	switch p.AssetClass {
	case AssetClassCommodity:
		return "ohlcv/forex"
	case AssetClassIndex:
		return "ohlcv/indices"
	default:
		return "ohlcv/stocks"
	}
}

func getString(item map[string]any, key, def string) string {
	if v, ok := item[key].(string); ok {
		return v
	}
	return def
}

func getBool(item map[string]any, key string, def bool) bool {
	switch v := item[key].(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getNumber(item map[string]any, key string, def float64) float64 {
	switch v := item[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

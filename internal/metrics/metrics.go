// Package metrics provides the centralized Prometheus metrics registry for Wealth-Ops.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name
const Namespace = "wealth_ops"

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Regime gauge values
const (
	RegimeBear    = -1.0
	RegimeUnknown = 0.0
	RegimeBull    = 1.0
)

// MarketRegime is the last evaluated regime per index: 1 bull, -1 bear, 0 unknown
var MarketRegime = prometheus.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: Namespace,
	Name:      "market_regime",
	Help:      "Market regime per index (1 bull, -1 bear, 0 unknown)",
}, []string{"index"})

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(BacktestRunsTotal)
		registry.MustRegister(BacktestDuration)
		registry.MustRegister(BacktestTradesTotal)
		registry.MustRegister(BacktestFinalEquity)
		registry.MustRegister(BacktestCompositeScore)
		registry.MustRegister(WalkForwardWindowsTotal)
		registry.MustRegister(CompositeSignalsTotal)

		registry.MustRegister(ProviderRequestsTotal)
		registry.MustRegister(ProviderRequestDuration)
		registry.MustRegister(IngestedBarsTotal)
		registry.MustRegister(MarketRegime)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	return InitRegistry()
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// UpdateMarketRegime records the regime of an index.
func UpdateMarketRegime(index string, regime string) {
	value := RegimeUnknown
	switch regime {
	case "BULL":
		value = RegimeBull
	case "BEAR":
		value = RegimeBear
	}
	MarketRegime.WithLabelValues(index).Set(value)
}

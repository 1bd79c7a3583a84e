package metrics

import "github.com/prometheus/client_golang/prometheus"

// Backtest counter vectors
var (
	BacktestRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "backtest_runs_total",
		Help:      "Total number of backtest runs by mode and status",
	}, []string{"mode", "status"})
	BacktestTradesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "backtest_trades_total",
		Help:      "Closed simulated trades by ticker and exit reason",
	}, []string{"ticker", "exit_reason"})
	WalkForwardWindowsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "walk_forward_windows_total",
		Help:      "Total number of evaluated walk-forward windows",
	})
	CompositeSignalsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "composite_signals_total",
		Help:      "Latest-bar composite classifications emitted",
	}, []string{"classification"})
)

// Backtest gauges and histograms
var (
	BacktestFinalEquity = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "backtest_final_equity",
		Help:      "Final equity of the most recent run per ticker",
	}, []string{"ticker"})
	BacktestCompositeScore = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "backtest_composite_score",
		Help:      "Aggregated composite score per ticker",
	}, []string{"ticker"})
	BacktestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "backtest_duration_seconds",
		Help:      "Duration of backtest runs in seconds",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
	})
)

// RecordBacktestRun records a backtest run event.
// mode is "historical" or "walk_forward"; status is "success" or "failure".
func RecordBacktestRun(mode, status string, durationSeconds float64) {
	BacktestRunsTotal.WithLabelValues(mode, status).Inc()
	BacktestDuration.Observe(durationSeconds)
}

// RecordTrade records one closed simulated trade.
func RecordTrade(ticker, exitReason string) {
	BacktestTradesTotal.WithLabelValues(ticker, exitReason).Inc()
}

// UpdateFinalEquity sets the final equity gauge for a ticker.
func UpdateFinalEquity(ticker string, equity float64) {
	BacktestFinalEquity.WithLabelValues(ticker).Set(equity)
}

// UpdateCompositeScore sets the aggregated score gauge for a ticker.
func UpdateCompositeScore(ticker string, score float64) {
	BacktestCompositeScore.WithLabelValues(ticker).Set(score)
}

// RecordWalkForwardWindows adds evaluated windows.
func RecordWalkForwardWindows(n int) {
	WalkForwardWindowsTotal.Add(float64(n))
}

// RecordSignal counts a composite classification.
func RecordSignal(classification string) {
	CompositeSignalsTotal.WithLabelValues(classification).Inc()
}

package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistry(t *testing.T) {
	registry := GetRegistry()
	assert.NotNil(t, registry)
	assert.IsType(t, &prometheus.Registry{}, registry)
	assert.Same(t, registry, InitRegistry())
}

func TestRecordBacktestRun(t *testing.T) {
	InitRegistry()
	before := testutil.ToFloat64(BacktestRunsTotal.WithLabelValues("historical", "success"))

	RecordBacktestRun("historical", "success", 0.2)
	assert.Equal(t, before+1, testutil.ToFloat64(BacktestRunsTotal.WithLabelValues("historical", "success")))
}

func TestRecordTradeAndEquity(t *testing.T) {
	InitRegistry()

	RecordTrade("AAPL", "TIME_STOP")
	RecordTrade("AAPL", "TIME_STOP")
	assert.GreaterOrEqual(t, testutil.ToFloat64(BacktestTradesTotal.WithLabelValues("AAPL", "TIME_STOP")), 2.0)

	UpdateFinalEquity("AAPL", 10500)
	assert.Equal(t, 10500.0, testutil.ToFloat64(BacktestFinalEquity.WithLabelValues("AAPL")))

	UpdateCompositeScore("AAPL", 0.72)
	assert.Equal(t, 0.72, testutil.ToFloat64(BacktestCompositeScore.WithLabelValues("AAPL")))
}

func TestSignalsAndWindows(t *testing.T) {
	InitRegistry()
	before := testutil.ToFloat64(WalkForwardWindowsTotal)

	RecordWalkForwardWindows(4)
	assert.Equal(t, before+4, testutil.ToFloat64(WalkForwardWindowsTotal))

	assert.NotPanics(t, func() { RecordSignal("STRONG_BUY") })
}

func TestMarketRegime(t *testing.T) {
	tests := []struct {
		regime string
		want   float64
	}{
		{"BULL", RegimeBull},
		{"BEAR", RegimeBear},
		{"UNKNOWN", RegimeUnknown},
		{"garbage", RegimeUnknown},
	}
	for _, tt := range tests {
		UpdateMarketRegime("SPY", tt.regime)
		assert.Equal(t, tt.want, testutil.ToFloat64(MarketRegime.WithLabelValues("SPY")), tt.regime)
	}
}

func TestProviderMetrics(t *testing.T) {
	InitRegistry()
	RecordProviderRequest("tiingo", "success", 0.3)
	RecordIngestedBars("SPY", 250)
	assert.GreaterOrEqual(t, testutil.ToFloat64(IngestedBarsTotal.WithLabelValues("SPY")), 250.0)
}

func TestHandler(t *testing.T) {
	RecordBacktestRun("walk_forward", "failure", 1)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "wealth_ops_backtest_runs_total"))
	assert.Contains(t, body, `mode="walk_forward"`)
}

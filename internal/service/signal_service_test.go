package service

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/wealth-ops/internal/models"
	"github.com/yourusername/wealth-ops/internal/regime"
)

func TestRegimeAllows(t *testing.T) {
	tests := []struct {
		direction models.RegimeDirection
		status    regime.MarketStatus
		want      bool
	}{
		{models.RegimeBull, regime.Bull, true},
		{models.RegimeBull, regime.Bear, false},
		{models.RegimeBull, regime.Unknown, true},
		{models.RegimeBear, regime.Bull, false},
		{models.RegimeBear, regime.Bear, true},
		{models.RegimeAny, regime.Bear, true},
		{"", regime.Bull, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.direction)+"/"+string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, RegimeAllows(tt.direction, tt.status))
		})
	}
}

func newTestSignalService(missing ...string) (*SignalService, *syntheticProvider) {
	provider := newSyntheticProvider(missing...)
	svc := NewSignalService(provider, nil)
	svc.now = func() time.Time { return time.Date(2024, 6, 28, 18, 0, 0, 0, time.UTC) }
	return svc, provider
}

func TestSignalEvaluate(t *testing.T) {
	svc, provider := newTestSignalService()

	report, err := svc.Evaluate(context.Background(), "aapl", models.EquityProfile)
	require.NoError(t, err)

	assert.Equal(t, "AAPL", report.Ticker)
	assert.Equal(t, time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC), report.Date)
	assert.False(t, math.IsNaN(report.Score))
	assert.Equal(t, "SPY", report.RegimeIndex)
	assert.Contains(t, []regime.MarketStatus{regime.Bull, regime.Bear}, report.Regime)
	assert.NotEmpty(t, report.Counts)

	if !report.Classification.IsBuy() {
		assert.False(t, report.BuyAllowed)
	} else {
		assert.Equal(t, RegimeAllows(models.RegimeBull, report.Regime), report.BuyAllowed)
	}

	// regime index equals the benchmark, so it is loaded once
	assert.Equal(t, 1, provider.requested("SPY"))
}

func TestSignalEvaluateRegimeIsTicker(t *testing.T) {
	svc, provider := newTestSignalService()

	profile := models.IndexProfile
	profile.RegimeIndex = "spy"
	report, err := svc.Evaluate(context.Background(), "SPY", profile)
	require.NoError(t, err)
	assert.Equal(t, "SPY", report.Ticker)
	assert.Equal(t, "SPY", report.RegimeIndex)
	assert.NotEqual(t, regime.Unknown, report.Regime)
	assert.Equal(t, 1, provider.requested("SPY"))
}

func TestSignalEvaluateRegimeUnavailable(t *testing.T) {
	svc, _ := newTestSignalService("SPY")

	report, err := svc.Evaluate(context.Background(), "AAPL", models.EquityProfile)
	require.NoError(t, err)
	assert.Equal(t, regime.Unknown, report.Regime)
	assert.Equal(t, report.Classification.IsBuy(), report.BuyAllowed)
}

func TestSignalEvaluateNoRegimeIndex(t *testing.T) {
	svc, _ := newTestSignalService()

	report, err := svc.Evaluate(context.Background(), "QQQ", models.IndexProfile)
	require.NoError(t, err)
	assert.Empty(t, report.RegimeIndex)
	assert.Equal(t, regime.Unknown, report.Regime)
}

func TestSignalEvaluateMissingTicker(t *testing.T) {
	svc, _ := newTestSignalService("GONE")
	_, err := svc.Evaluate(context.Background(), "GONE", models.IndexProfile)
	require.Error(t, err)
}

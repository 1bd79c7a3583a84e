package backtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func closedTrades(pnls ...float64) []Trade {
	trades := make([]Trade, len(pnls))
	for i, pnl := range pnls {
		trades[i] = Trade{Status: TradeClosed, PnL: pnl}
	}
	return trades
}

func TestRunMonteCarloDeterministic(t *testing.T) {
	trades := closedTrades(120, -80, 45, -30, 200, -150)
	cfg := MonteCarloConfig{Iterations: 500, Seed: 42, InitialCapital: 10000}

	first, err := RunMonteCarlo(context.Background(), trades, cfg)
	require.NoError(t, err)
	second, err := RunMonteCarlo(context.Background(), trades, cfg)
	require.NoError(t, err)

	assert.Equal(t, first.Distribution, second.Distribution)
	assert.Equal(t, 500, first.Iterations)
	assert.Equal(t, 6, first.TradesPerPath)
	assert.LessOrEqual(t, first.VaR99, first.VaR95)
	assert.LessOrEqual(t, first.VaR95, first.MedianReturn)
	assert.Contains(t, first.ConfidenceIntervals, "95%")
}

func TestRunMonteCarloAllWinners(t *testing.T) {
	result, err := RunMonteCarlo(context.Background(), closedTrades(10, 20, 30), MonteCarloConfig{Iterations: 200, Seed: 1, InitialCapital: 1000})
	require.NoError(t, err)
	assert.Equal(t, 1.0, result.ProbabilityOfProfit)
	assert.Equal(t, 0.0, result.ProbabilityOfRuin)
	assert.GreaterOrEqual(t, result.MeanReturn, 0.03)
	assert.LessOrEqual(t, result.MeanReturn, 0.09)
}

func TestRunMonteCarloRuin(t *testing.T) {
	result, err := RunMonteCarlo(context.Background(), closedTrades(-600, -700), MonteCarloConfig{Iterations: 100, Seed: 3, InitialCapital: 1000})
	require.NoError(t, err)
	assert.Equal(t, 1.0, result.ProbabilityOfRuin)
	assert.Equal(t, 0.0, result.ProbabilityOfProfit)
	for _, r := range result.Distribution {
		assert.GreaterOrEqual(t, r, -1.0)
	}
}

func TestRunMonteCarloIgnoresOpenTrades(t *testing.T) {
	trades := append(closedTrades(50), Trade{Status: TradeOpen, PnL: -1e6})
	result, err := RunMonteCarlo(context.Background(), trades, MonteCarloConfig{Iterations: 10, Seed: 9, InitialCapital: 1000})
	require.NoError(t, err)
	assert.Equal(t, 1, result.TradesPerPath)
	assert.InDelta(t, 0.05, result.MeanReturn, 1e-12)
}

func TestRunMonteCarloNoTrades(t *testing.T) {
	result, err := RunMonteCarlo(context.Background(), nil, MonteCarloConfig{InitialCapital: 1000})
	require.NoError(t, err)
	assert.Equal(t, 1000, result.Iterations)
	assert.Zero(t, result.TradesPerPath)
	assert.Empty(t, result.Distribution)
}

func TestRunMonteCarloErrors(t *testing.T) {
	_, err := RunMonteCarlo(context.Background(), closedTrades(1), MonteCarloConfig{})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = RunMonteCarlo(ctx, closedTrades(1, 2), MonteCarloConfig{Iterations: 10, InitialCapital: 100})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPercentileAndIntervals(t *testing.T) {
	values := []float64{5, 1, 4, 2, 3}
	assert.Equal(t, 1.0, percentile(values, 0))
	assert.Equal(t, 3.0, percentile(values, 0.5))
	assert.Equal(t, 5.0, percentile(values, 1))
	assert.Equal(t, []float64{5, 1, 4, 2, 3}, values, "input must not be reordered")

	intervals := CalculateConfidenceIntervals(values, []float64{0.9})
	assert.Equal(t, 3.0, intervals["90%"])
}

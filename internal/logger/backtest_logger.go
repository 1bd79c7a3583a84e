package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// BacktestLogger provides dedicated logging for backtest runs.
type BacktestLogger struct {
	*logrus.Entry
}

// NewBacktestLogger creates a new backtest logger.
func NewBacktestLogger(baseLogger *logrus.Logger) *BacktestLogger {
	return &BacktestLogger{
		Entry: baseLogger.WithField("component", "backtest"),
	}
}

// LogRunStarted logs the start of a ticker run.
func (bl *BacktestLogger) LogRunStarted(runID, ticker, mode, profile string, bars int) {
	bl.WithFields(logrus.Fields{
		"run_id":  runID,
		"ticker":  ticker,
		"mode":    mode,
		"profile": profile,
		"bars":    bars,
	}).Info("Backtest run started")
}

// LogRunCompleted logs a finished ticker run.
func (bl *BacktestLogger) LogRunCompleted(runID, ticker string, trades int, finalEquity, totalReturn, maxDrawdown float64, duration time.Duration) {
	bl.WithFields(logrus.Fields{
		"run_id":       runID,
		"ticker":       ticker,
		"total_trades": trades,
		"final_equity": finalEquity,
		"total_return": totalReturn,
		"max_drawdown": maxDrawdown,
		"duration_ms":  duration.Milliseconds(),
	}).Info("Backtest run completed")
}

// LogRunFailed logs a run that returned an error.
func (bl *BacktestLogger) LogRunFailed(ticker string, err error) {
	bl.WithFields(logrus.Fields{
		"ticker": ticker,
		"error":  err.Error(),
	}).Error("Backtest run failed")
}

// LogWalkForwardWindow logs one evaluated walk-forward window.
func (bl *BacktestLogger) LogWalkForwardWindow(ticker string, windowID int, testStart, testEnd time.Time, trades int, testReturn float64) {
	bl.WithFields(logrus.Fields{
		"ticker":      ticker,
		"window_id":   windowID,
		"test_start":  testStart.Format("2006-01-02"),
		"test_end":    testEnd.Format("2006-01-02"),
		"trades":      trades,
		"test_return": testReturn,
	}).Info("Walk-forward window evaluated")
}

// LogSignal logs the latest composite classification for a ticker.
func (bl *BacktestLogger) LogSignal(ticker string, date time.Time, score float64, classification string) {
	bl.WithFields(logrus.Fields{
		"ticker":         ticker,
		"date":           date.Format("2006-01-02"),
		"score":          score,
		"classification": classification,
	}).Info("Composite signal computed")
}

package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// DataLogger provides dedicated logging for market-data ingestion.
type DataLogger struct {
	*logrus.Entry
}

// NewDataLogger creates a new data logger.
func NewDataLogger(baseLogger *logrus.Logger) *DataLogger {
	return &DataLogger{
		Entry: baseLogger.WithField("component", "data"),
	}
}

// LogFetch logs a provider request.
func (dl *DataLogger) LogFetch(provider, ticker string, start, end time.Time, bars int, duration time.Duration) {
	dl.WithFields(logrus.Fields{
		"provider":    provider,
		"ticker":      ticker,
		"start":       start.Format("2006-01-02"),
		"end":         end.Format("2006-01-02"),
		"bars":        bars,
		"duration_ms": duration.Milliseconds(),
	}).Debug("Fetched daily candles")
}

// LogFailover logs a switch from the primary to the fallback provider.
func (dl *DataLogger) LogFailover(ticker, from, to string, err error) {
	dl.WithFields(logrus.Fields{
		"ticker": ticker,
		"from":   from,
		"to":     to,
		"error":  err.Error(),
	}).Warn("Provider failed, switching to fallback")
}

// LogIngestion logs the outcome of one ticker ingestion.
func (dl *DataLogger) LogIngestion(ticker, mode, provider string, bars int, lastUpdated time.Time) {
	dl.WithFields(logrus.Fields{
		"ticker":       ticker,
		"mode":         mode,
		"provider":     provider,
		"bars":         bars,
		"last_updated": lastUpdated.Format("2006-01-02"),
	}).Info("Ingestion completed")
}

package logger

import (
	"github.com/sirupsen/logrus"
)

// AuditLogger provides dedicated audit trail logging.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogRegimeChange logs a market regime transition.
func (al *AuditLogger) LogRegimeChange(index, oldRegime, newRegime string, close, sma float64) {
	al.WithFields(logrus.Fields{
		"index":      index,
		"old_regime": oldRegime,
		"new_regime": newRegime,
		"close":      close,
		"sma":        sma,
	}).Warn("Market regime changed")
}

// LogResultPersisted logs a stored backtest run.
func (al *AuditLogger) LogResultPersisted(runID, ticker, mode, recommendation string, trades int) {
	al.WithFields(logrus.Fields{
		"run_id":         runID,
		"ticker":         ticker,
		"mode":           mode,
		"recommendation": recommendation,
		"trades":         trades,
	}).Info("Backtest result persisted")
}

// LogStateChange logs a write to the shared key-value state.
func (al *AuditLogger) LogStateChange(key, oldValue, newValue string) {
	al.WithFields(logrus.Fields{
		"key":       key,
		"old_value": oldValue,
		"new_value": newValue,
	}).Info("System state updated")
}

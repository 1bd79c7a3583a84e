package service

import (
	"fmt"
	"sync"
	"time"
)

// IngestionMetrics tracks statistics about one ingestion pass
type IngestionMetrics struct {
	mu                sync.RWMutex
	StartTime         time.Time
	Duration          time.Duration
	TotalTickers      int
	SuccessfulTickers int
	Bars              int
	Rejected          int64
	Errors            int
	ModeCounts        map[string]int
	Regime            string
}

// NewIngestionMetrics creates a new metrics tracker
func NewIngestionMetrics() *IngestionMetrics {
	return &IngestionMetrics{
		StartTime:  time.Now(),
		ModeCounts: make(map[string]int),
	}
}

// RecordTicker records a successful ticker ingestion
func (m *IngestionMetrics) RecordTicker(mode string, bars int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SuccessfulTickers++
	m.Bars += bars
	m.ModeCounts[mode]++
}

// RecordError increments error count
func (m *IngestionMetrics) RecordError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors++
}

// Finish stamps the duration
func (m *IngestionMetrics) Finish() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Duration = time.Since(m.StartTime)
}

// SuccessRate is the share of tickers ingested without error, in percent
func (m *IngestionMetrics) SuccessRate() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.TotalTickers == 0 {
		return 0
	}
	return float64(m.SuccessfulTickers) / float64(m.TotalTickers) * 100
}

// String returns a formatted string representation of metrics
func (m *IngestionMetrics) String() string {
	rate := m.SuccessRate()

	m.mu.RLock()
	defer m.mu.RUnlock()
	return fmt.Sprintf(
		"IngestionMetrics{Tickers=%d, Successful=%d (%.1f%%), Bars=%d, Rejected=%d, Errors=%d, Regime=%s, Duration=%v}",
		m.TotalTickers,
		m.SuccessfulTickers,
		rate,
		m.Bars,
		m.Rejected,
		m.Errors,
		m.Regime,
		m.Duration,
	)
}

package metrics

import "github.com/prometheus/client_golang/prometheus"

// Market-data metrics
var (
	ProviderRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "provider_requests_total",
		Help:      "Market-data provider requests by provider and status",
	}, []string{"provider", "status"})
	ProviderRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "provider_request_duration_seconds",
		Help:      "Market-data provider request latency",
		Buckets:   prometheus.DefBuckets,
	}, []string{"provider"})
	IngestedBarsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "ingested_bars_total",
		Help:      "Price bars persisted by ticker",
	}, []string{"ticker"})
)

// RecordProviderRequest records one provider call.
func RecordProviderRequest(provider, status string, durationSeconds float64) {
	ProviderRequestsTotal.WithLabelValues(provider, status).Inc()
	ProviderRequestDuration.WithLabelValues(provider).Observe(durationSeconds)
}

// RecordIngestedBars adds persisted bars for a ticker.
func RecordIngestedBars(ticker string, n int) {
	IngestedBarsTotal.WithLabelValues(ticker).Add(float64(n))
}

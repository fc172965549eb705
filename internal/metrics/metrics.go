package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the currency subsystem.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	RefreshCyclesTotal      prometheus.Counter
	ProviderFailuresTotal   prometheus.Counter
	SnapshotsPersistedTotal prometheus.Counter

	RateQueriesTotal        prometheus.Counter
	ConversionRequestsTotal prometheus.Counter
	HistoryRequestsTotal    prometheus.Counter
}

// NewMetrics registers the subsystem collectors on reg. Tests pass a fresh
// registry so repeated construction never collides.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"path", "method", "status_code"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path", "method"},
		),

		RefreshCyclesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "rate_refresh_cycles_total",
				Help: "Total number of completed rate refresh cycles",
			},
		),

		ProviderFailuresTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "rate_provider_failures_total",
				Help: "Total number of failed rate provider fetches",
			},
		),

		SnapshotsPersistedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "rate_snapshots_persisted_total",
				Help: "Total number of persisted rate snapshots",
			},
		),

		RateQueriesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "rate_queries_total",
				Help: "Total number of latest/specific rate queries",
			},
		),

		ConversionRequestsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "conversion_requests_total",
				Help: "Total number of currency conversion requests",
			},
		),

		HistoryRequestsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "historical_requests_total",
				Help: "Total number of historical rate requests",
			},
		),
	}
}

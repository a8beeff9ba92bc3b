package router

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for dispatch.
type Metrics struct {
	dispatchTotal       *prometheus.CounterVec
	candidateRejections *prometheus.CounterVec
	handlerDuration     *prometheus.HistogramVec
	cacheReplays        *prometheus.CounterVec
	bruteForceDelays    *prometheus.CounterVec
}

var (
	routerMetricsInstance *Metrics
	routerMetricsOnce     sync.Once
)

// GetMetrics returns the singleton router metrics instance.
func GetMetrics() *Metrics {
	routerMetricsOnce.Do(func() {
		routerMetricsInstance = newMetrics()
	})
	return routerMetricsInstance
}

func newMetrics() *Metrics {
	return &Metrics{
		dispatchTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "actions",
				Subsystem: "router",
				Name:      "dispatch_total",
				Help:      "Total number of dispatches by terminal status",
			},
			[]string{"status"},
		),
		candidateRejections: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "actions",
				Subsystem: "router",
				Name:      "candidate_rejections_total",
				Help:      "Total number of candidates rejected by route and stage",
			},
			[]string{"route", "stage"},
		),
		handlerDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "actions",
				Subsystem: "router",
				Name:      "handler_duration_seconds",
				Help:      "Handler execution time by route and outcome",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route", "outcome"},
		),
		cacheReplays: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "actions",
				Subsystem: "router",
				Name:      "cache_replays_total",
				Help:      "Total number of responses replayed from cache",
			},
			[]string{"route"},
		),
		bruteForceDelays: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "actions",
				Subsystem: "router",
				Name:      "bruteforce_delays_total",
				Help:      "Total number of throttled NotProductive outcomes",
			},
			[]string{"route"},
		),
	}
}

// MustRegister registers all router collectors with registry.
func (m *Metrics) MustRegister(registry *prometheus.Registry) {
	registry.MustRegister(
		m.dispatchTotal,
		m.candidateRejections,
		m.handlerDuration,
		m.cacheReplays,
		m.bruteForceDelays,
	)
}

// Init pre-initializes the status series.
func (m *Metrics) Init() {
	m.dispatchTotal.WithLabelValues(Resolved.String())
	m.dispatchTotal.WithLabelValues(NotFound.String())
}

package security

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	kindValue  = "value"
	kindFile   = "file"
	kindCSRF   = "csrf"
)

var (
	defaultSecurityMetrics     *Metrics
	defaultSecurityMetricsOnce sync.Once
)

// GetSecurityMetrics returns the singleton security metrics instance.
func GetSecurityMetrics() *Metrics {
	defaultSecurityMetricsOnce.Do(func() {
		defaultSecurityMetrics = NewMetrics("actions")
	})
	return defaultSecurityMetrics
}

// Metrics contains security metrics.
type Metrics struct {
	// checksTotal counts checks by kind and result.
	checksTotal *prometheus.CounterVec

	// violationsTotal counts failed rules by name.
	violationsTotal *prometheus.CounterVec
}

// NewMetrics creates new security metrics.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		checksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "security",
				Name:      "checks_total",
				Help:      "Total number of security checks by kind and result",
			},
			[]string{"kind", "result"},
		),
		violationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "security",
				Name:      "violations_total",
				Help:      "Total number of failed security rules",
			},
			[]string{"rule"},
		),
	}
}

// MustRegister registers all security collectors with registry.
func (m *Metrics) MustRegister(registry *prometheus.Registry) {
	registry.MustRegister(
		m.checksTotal,
		m.violationsTotal,
	)
}

// Init pre-initializes common label combinations with zero values.
func (m *Metrics) Init() {
	for _, kind := range []string{kindValue, kindFile, kindCSRF} {
		m.checksTotal.WithLabelValues(kind, "pass")
		m.checksTotal.WithLabelValues(kind, "fail")
	}
	for _, rule := range []string{RuleSQLi, RuleXSS, "csrf", "file"} {
		m.violationsTotal.WithLabelValues(rule)
	}
}

// RecordCheck records one check of the given kind.
func (m *Metrics) RecordCheck(kind string, ok bool) {
	result := "pass"
	if !ok {
		result = "fail"
	}
	m.checksTotal.WithLabelValues(kind, result).Inc()
}

// RecordViolation records one failed rule.
func (m *Metrics) RecordViolation(rule string) {
	m.violationsTotal.WithLabelValues(rule).Inc()
}

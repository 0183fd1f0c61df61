package limits

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains Prometheus collectors for the limits package.
// A nil *Metrics is valid and records nothing, so the limiter can run
// without a registry in tests.
type Metrics struct {
	checks        *prometheus.CounterVec
	denials       *prometheus.CounterVec
	storeErrors   *prometheus.CounterVec
	checkDuration *prometheus.HistogramVec
}

// NewMetrics creates limits collectors registered on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		checks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vigil_limits_checks_total",
				Help: "Total number of rate limit checks performed",
			},
			[]string{"scope", "result"},
		),

		denials: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vigil_limits_denials_total",
				Help: "Total number of rate limit denials by violated tier",
			},
			[]string{"scope", "window"},
		),

		storeErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vigil_limits_store_errors_total",
				Help: "Total number of counter store failures",
			},
			[]string{"scope"},
		),

		checkDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vigil_limits_check_duration_seconds",
				Help:    "Duration of rate limit checks",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"scope"},
		),
	}
}

func (m *Metrics) observeCheck(scope string, allowed bool, d time.Duration) {
	if m == nil {
		return
	}
	result := "allowed"
	if !allowed {
		result = "denied"
	}
	m.checks.WithLabelValues(scope, result).Inc()
	m.checkDuration.WithLabelValues(scope).Observe(d.Seconds())
}

func (m *Metrics) observeDenial(scope string, window time.Duration) {
	if m == nil {
		return
	}
	m.denials.WithLabelValues(scope, window.String()).Inc()
}

func (m *Metrics) observeStoreError(scope string) {
	if m == nil {
		return
	}
	m.storeErrors.WithLabelValues(scope).Inc()
}

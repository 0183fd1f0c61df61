package monitor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"atelier-hq/vigil/pkg/monitor/sampler"
)

// Metrics contains Prometheus collectors for the monitoring pipeline.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	ticks        prometheus.Counter
	tickDuration prometheus.Histogram
	alerts       *prometheus.CounterVec
	unavailable  prometheus.Counter
	sampleValues *prometheus.GaugeVec
}

// NewMetrics creates monitoring collectors registered on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ticks: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "vigil_monitor_ticks_total",
				Help: "Total number of completed monitoring passes",
			},
		),

		tickDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "vigil_monitor_tick_duration_seconds",
				Help:    "Duration of monitoring passes",
				Buckets: prometheus.DefBuckets,
			},
		),

		alerts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vigil_monitor_alerts_total",
				Help: "Total number of alert events by pipeline outcome",
			},
			[]string{"outcome"},
		),

		unavailable: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "vigil_monitor_samples_unavailable_total",
				Help: "Total number of failed or timed-out probe samples",
			},
		),

		sampleValues: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "vigil_monitor_sample_value",
				Help: "Most recent measured value per component",
			},
			[]string{"monitored_component"},
		),
	}
}

// RecordTick records one completed pass and its probe failure count.
func (m *Metrics) RecordTick(d time.Duration, unavailable int) {
	if m == nil {
		return
	}
	m.ticks.Inc()
	m.tickDuration.Observe(d.Seconds())
	m.unavailable.Add(float64(unavailable))
}

// RecordSample exports the latest value for a component; failed samples
// do not overwrite the gauge.
func (m *Metrics) RecordSample(s sampler.Sample) {
	if m == nil || !s.OK {
		return
	}
	m.sampleValues.WithLabelValues(s.Component).Set(s.Value)
}

// RecordAlert counts an alert by outcome ("suppressed" or a delivery
// outcome).
func (m *Metrics) RecordAlert(outcome string) {
	if m == nil {
		return
	}
	m.alerts.WithLabelValues(outcome).Inc()
}

package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"atelier-hq/vigil/pkg/clock"
	"atelier-hq/vigil/pkg/monitor/alert"
	"atelier-hq/vigil/pkg/monitor/history"
	"atelier-hq/vigil/pkg/monitor/notify"
	"atelier-hq/vigil/pkg/monitor/sampler"
	"atelier-hq/vigil/pkg/monitor/threshold"
)

// Admitter decides whether an alert passes the cool-down gate.
type Admitter interface {
	Admit(ev alert.Event) bool
}

// Dispatcher delivers an admitted alert to its channels.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev alert.Event) []notify.ChannelResult
}

// Monitor runs one monitoring pass at a time: sample, evaluate,
// throttle, dispatch, record. It also caches the samples of the latest
// pass for status reporting.
type Monitor struct {
	sampler    *sampler.Sampler
	evaluator  *threshold.Evaluator
	throttle   Admitter
	dispatcher Dispatcher
	history    history.Store
	metrics    *Metrics
	clock      clock.Clock
	logger     *slog.Logger

	mu          sync.RWMutex
	thresholds  []threshold.Threshold
	lastSamples []sampler.Sample
	lastTick    time.Time
}

// Config configures a Monitor.
type Config struct {
	Sampler    *sampler.Sampler
	Evaluator  *threshold.Evaluator
	Throttle   Admitter
	Dispatcher Dispatcher

	// History is optional; without it dispatched alerts are not
	// recorded.
	History history.Store

	// Metrics is optional.
	Metrics *Metrics

	// Clock supplies time; defaults to the system clock.
	Clock clock.Clock

	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// New creates a Monitor.
func New(cfg Config) *Monitor {
	if cfg.Clock == nil {
		cfg.Clock = clock.NewReal()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Monitor{
		sampler:    cfg.Sampler,
		evaluator:  cfg.Evaluator,
		throttle:   cfg.Throttle,
		dispatcher: cfg.Dispatcher,
		history:    cfg.History,
		metrics:    cfg.Metrics,
		clock:      cfg.Clock,
		logger:     cfg.Logger.With("component", "monitor"),
	}
}

// RunTick executes one full monitoring pass. Probe failures and
// delivery failures are absorbed into samples and outcomes; the tick
// itself only fails if recording history does.
func (m *Monitor) RunTick(ctx context.Context) error {
	start := m.clock.Now()

	samples := m.sampler.Sample(ctx)

	m.mu.Lock()
	m.lastSamples = samples
	m.lastTick = start
	m.mu.Unlock()

	unavailable := 0
	for _, s := range samples {
		m.metrics.RecordSample(s)
		if !s.OK {
			unavailable++
		}
	}

	m.mu.RLock()
	thresholds := m.thresholds
	m.mu.RUnlock()

	events := m.evaluator.Evaluate(samples, thresholds)

	var firstErr error
	for _, ev := range events {
		if !m.throttle.Admit(ev) {
			m.metrics.RecordAlert("suppressed")
			m.logger.Debug("alert suppressed",
				"alert_component", ev.Component,
				"severity", ev.Severity,
			)
			continue
		}

		results := m.dispatcher.Dispatch(ctx, ev)
		outcome := notify.Summarize(results)
		m.metrics.RecordAlert(string(outcome))

		m.logger.Info("alert dispatched",
			"alert_id", ev.ID,
			"alert_component", ev.Component,
			"severity", ev.Severity,
			"outcome", outcome,
		)

		if m.history != nil {
			if err := m.history.Append(ctx, history.Entry{Event: ev, Outcome: outcome}); err != nil {
				m.logger.Error("failed to record alert history",
					"alert_id", ev.ID,
					"error", err,
				)
				if firstErr == nil {
					firstErr = err
				}
			}
		}
	}

	m.metrics.RecordTick(m.clock.Since(start), unavailable)

	m.logger.Debug("monitoring tick completed",
		"samples", len(samples),
		"unavailable", unavailable,
		"events", len(events),
		"duration", m.clock.Since(start),
	)

	return firstErr
}

// SetThresholds replaces the threshold table used by subsequent ticks,
// for configuration hot reload. A nil table falls back to the
// evaluator's construction-time thresholds.
func (m *Monitor) SetThresholds(thresholds []threshold.Threshold) {
	m.mu.Lock()
	m.thresholds = thresholds
	m.mu.Unlock()
}

// LastSamples returns the samples of the most recent tick and when it
// ran. Before the first tick both are zero.
func (m *Monitor) LastSamples() ([]sampler.Sample, time.Time) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]sampler.Sample, len(m.lastSamples))
	copy(out, m.lastSamples)
	return out, m.lastTick
}

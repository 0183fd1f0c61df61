package sampler

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// DefaultProbeTimeout bounds a single probe when no timeout is configured.
const DefaultProbeTimeout = 500 * time.Millisecond

// Sampler takes point-in-time measurements from a set of probes. Probes
// run concurrently and each is independently time-boxed, so one slow
// probe never blocks the others from reporting and a partial outage does
// not stop monitoring of healthy components.
type Sampler struct {
	mu     sync.RWMutex
	probes map[string]registeredProbe

	timeout time.Duration
	logger  *slog.Logger
}

type registeredProbe struct {
	probe   Probe
	timeout time.Duration
}

// Config configures a Sampler.
type Config struct {
	// ProbeTimeout bounds each probe. Default: DefaultProbeTimeout.
	ProbeTimeout time.Duration

	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// New creates a Sampler with no probes registered.
func New(cfg Config) *Sampler {
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = DefaultProbeTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Sampler{
		probes:  make(map[string]registeredProbe),
		timeout: cfg.ProbeTimeout,
		logger:  cfg.Logger.With("component", "sampler"),
	}
}

// Register adds a probe under its component name, replacing any existing
// probe for the same component.
func (s *Sampler) Register(p Probe) {
	s.RegisterWithTimeout(p, 0)
}

// RegisterWithTimeout adds a probe with its own timeout override.
// A zero timeout uses the sampler default.
func (s *Sampler) RegisterWithTimeout(p Probe, timeout time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.probes[p.Component()] = registeredProbe{probe: p, timeout: timeout}
}

// Unregister removes the probe for a component.
func (s *Sampler) Unregister(component string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.probes, component)
}

// Components returns the registered component names, sorted.
func (s *Sampler) Components() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.probes))
	for name := range s.probes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Sample measures every registered probe concurrently and returns one
// sample per probe, sorted by component. A failed or timed-out probe
// contributes a sample with OK=false and the Unavailable sentinel value
// rather than an error; Sample itself never fails.
func (s *Sampler) Sample(ctx context.Context) []Sample {
	s.mu.RLock()
	probes := make([]registeredProbe, 0, len(s.probes))
	for _, rp := range s.probes {
		probes = append(probes, rp)
	}
	s.mu.RUnlock()

	samples := make([]Sample, len(probes))
	var wg sync.WaitGroup

	for i, rp := range probes {
		wg.Add(1)
		go func(i int, rp registeredProbe) {
			defer wg.Done()
			samples[i] = s.runProbe(ctx, rp)
		}(i, rp)
	}
	wg.Wait()

	sort.Slice(samples, func(i, j int) bool {
		return samples[i].Component < samples[j].Component
	})
	return samples
}

// runProbe executes one probe under its timeout. The probe runs in its
// own goroutine so a probe that ignores cancellation still cannot hold
// up the sample; its eventual result is discarded.
func (s *Sampler) runProbe(ctx context.Context, rp registeredProbe) Sample {
	timeout := rp.timeout
	if timeout <= 0 {
		timeout = s.timeout
	}

	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		value float64
		err   error
	}

	resCh := make(chan result, 1)
	go func() {
		value, err := rp.probe.Probe(probeCtx)
		resCh <- result{value, err}
	}()

	now := time.Now()
	sample := Sample{
		Component:  rp.probe.Component(),
		Unit:       rp.probe.Unit(),
		CapturedAt: now,
	}

	select {
	case res := <-resCh:
		if res.err != nil {
			s.logger.Warn("probe failed",
				"probe", sample.Component,
				"error", res.err,
			)
			sample.Value = Unavailable
			sample.Error = res.err.Error()
			return sample
		}
		sample.Value = res.value
		sample.OK = true
		return sample

	case <-probeCtx.Done():
		s.logger.Warn("probe timed out",
			"probe", sample.Component,
			"timeout", timeout,
		)
		sample.Value = Unavailable
		sample.Error = "probe timeout"
		return sample
	}
}

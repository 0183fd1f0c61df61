package sampler

import (
	"context"
	"runtime"
	"time"
)

// Probe measures one component. Implementations must respect ctx
// cancellation: the sampler time-boxes every probe independently and a
// probe that ignores its deadline delays nothing but its own result.
type Probe interface {
	// Component names the measured component.
	Component() string

	// Unit is the measurement unit.
	Unit() string

	// Probe takes the measurement.
	Probe(ctx context.Context) (float64, error)
}

// ProbeFunc adapts a function into a Probe, for external collaborators
// (queue clients, filesystem stats) that expose a single measurement.
type ProbeFunc struct {
	Name string
	Um   string
	Fn   func(ctx context.Context) (float64, error)
}

func (p ProbeFunc) Component() string { return p.Name }
func (p ProbeFunc) Unit() string      { return p.Um }

func (p ProbeFunc) Probe(ctx context.Context) (float64, error) {
	return p.Fn(ctx)
}

// Pinger is the capability a latency probe wraps: anything with a
// round-trip health operation (database ping, cache ping).
type Pinger func(ctx context.Context) error

// LatencyProbe measures the round-trip time of a Pinger in milliseconds.
type LatencyProbe struct {
	name string
	ping Pinger
}

// NewLatencyProbe creates a latency probe for the named component.
func NewLatencyProbe(component string, ping Pinger) *LatencyProbe {
	return &LatencyProbe{name: component, ping: ping}
}

func (p *LatencyProbe) Component() string { return p.name }
func (p *LatencyProbe) Unit() string      { return "ms" }

func (p *LatencyProbe) Probe(ctx context.Context) (float64, error) {
	start := time.Now()
	if err := p.ping(ctx); err != nil {
		return 0, err
	}
	return float64(time.Since(start).Microseconds()) / 1000.0, nil
}

// MemoryProbe reports the process heap in megabytes.
type MemoryProbe struct{}

func (MemoryProbe) Component() string { return "memory" }
func (MemoryProbe) Unit() string      { return "mb" }

func (MemoryProbe) Probe(_ context.Context) (float64, error) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return float64(ms.HeapAlloc) / (1024 * 1024), nil
}

// GoroutineProbe reports the number of live goroutines, a cheap stand-in
// for queue depth and leak detection in the serving process.
type GoroutineProbe struct{}

func (GoroutineProbe) Component() string { return "goroutines" }
func (GoroutineProbe) Unit() string      { return "count" }

func (GoroutineProbe) Probe(_ context.Context) (float64, error) {
	return float64(runtime.NumGoroutine()), nil
}

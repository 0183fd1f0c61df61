package store

import (
	"context"
	"sync"
	"time"

	"atelier-hq/vigil/pkg/clock"
)

// evictionGrace is how many multiples of a counter's window a stale entry
// may outlive its window before the cleanup pass removes it.
const evictionGrace = 2

// Memory implements Store using an in-process map. This is the default
// backend: fast, no persistence, all counters lost on process exit.
//
// Memory is safe for concurrent use. Counter reads and writes go through
// a single mutex; windows are short-lived integers so contention stays low
// even under request-path load.
type Memory struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry

	clock           clock.Clock
	cleanupInterval time.Duration
	done            chan struct{}
	closeOnce       sync.Once
}

type memoryEntry struct {
	count       int64
	windowStart time.Time
	window      time.Duration
}

// MemoryConfig configures the in-memory store.
type MemoryConfig struct {
	// CleanupInterval is how often stale windows are evicted.
	// Default: 1 minute.
	CleanupInterval time.Duration

	// Clock supplies time; defaults to the system clock.
	Clock clock.Clock
}

// NewMemory creates an in-memory counter store with default settings.
func NewMemory() *Memory {
	return NewMemoryWithConfig(MemoryConfig{})
}

// NewMemoryWithConfig creates an in-memory counter store with custom
// configuration.
func NewMemoryWithConfig(cfg MemoryConfig) *Memory {
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Minute
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.NewReal()
	}

	m := &Memory{
		entries:         make(map[string]*memoryEntry),
		clock:           cfg.Clock,
		cleanupInterval: cfg.CleanupInterval,
		done:            make(chan struct{}),
	}

	go m.cleanupLoop()

	return m
}

// Incr increments the counter for key, resetting the window first if it
// has expired. The reset and increment happen under one lock acquisition,
// so concurrent increments never lose updates.
func (m *Memory) Incr(_ context.Context, key string, window time.Duration) (int64, time.Time, error) {
	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok || now.Sub(e.windowStart) >= window {
		e = &memoryEntry{windowStart: now, window: window}
		m.entries[key] = e
	}

	e.count++
	return e.count, e.windowStart, nil
}

// Peek returns the live count for key without mutating. An expired or
// absent window reports zero with the current time as the window start.
func (m *Memory) Peek(_ context.Context, key string, window time.Duration) (int64, time.Time, error) {
	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok || now.Sub(e.windowStart) >= window {
		return 0, now, nil
	}
	return e.count, e.windowStart, nil
}

// Len reports the number of live entries. Used by tests and the eviction
// metrics.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Close stops the background cleanup goroutine.
func (m *Memory) Close() error {
	m.closeOnce.Do(func() {
		close(m.done)
	})
	return nil
}

// cleanupLoop periodically evicts windows that expired more than
// evictionGrace window-lengths ago, bounding memory for identifier churn.
func (m *Memory) cleanupLoop() {
	ticker := time.NewTicker(m.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.evictStale()
		case <-m.done:
			return
		}
	}
}

func (m *Memory) evictStale() {
	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	for key, e := range m.entries {
		if now.Sub(e.windowStart) > e.window*evictionGrace {
			delete(m.entries, key)
		}
	}
}

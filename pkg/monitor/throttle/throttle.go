package throttle

import (
	"log/slog"
	"sync"
	"time"

	"atelier-hq/vigil/pkg/clock"
	"atelier-hq/vigil/pkg/monitor/alert"
)

// staleMultiple is how many cool-down lengths an idle entry survives
// before garbage collection removes it.
const staleMultiple = 10

// Throttle deduplicates repeated alerts. The first event for a dedupe
// key is admitted; further events for the same key are suppressed until
// the key's cool-down has elapsed. This bounds notification volume
// during a sustained outage to one message per cool-down window per
// distinct problem.
//
// Throttle is safe for concurrent use, though in practice only the
// monitor tick calls it.
type Throttle struct {
	mu      sync.Mutex
	entries map[string]entry

	cooldowns       map[string]time.Duration
	defaultCooldown time.Duration
	clock           clock.Clock
	logger          *slog.Logger
}

type entry struct {
	lastSentAt time.Time
	coolDown   time.Duration
}

// Config configures a Throttle.
type Config struct {
	// Cooldowns maps alert type to its cool-down. Types not listed use
	// DefaultCooldown.
	Cooldowns map[string]time.Duration

	// DefaultCooldown applies to unknown alert types. Default: 15m.
	DefaultCooldown time.Duration

	// Clock supplies time; defaults to the system clock.
	Clock clock.Clock

	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// New creates a Throttle.
func New(cfg Config) *Throttle {
	if cfg.DefaultCooldown <= 0 {
		cfg.DefaultCooldown = 15 * time.Minute
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.NewReal()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Throttle{
		entries:         make(map[string]entry),
		cooldowns:       cfg.Cooldowns,
		defaultCooldown: cfg.DefaultCooldown,
		clock:           cfg.Clock,
		logger:          cfg.Logger.With("component", "throttle"),
	}
}

// Admit decides whether ev should be dispatched. It admits when the
// dedupe key is unseen or its cool-down has elapsed, updating the entry's
// last-sent time; otherwise it suppresses. Stale entries are collected
// opportunistically on each call.
func (t *Throttle) Admit(ev alert.Event) bool {
	now := t.clock.Now()
	key := ev.DedupeKey()

	t.mu.Lock()
	defer t.mu.Unlock()

	coolDown := t.cooldownForLocked(ev.Type)
	t.collectStaleLocked(now)

	if e, ok := t.entries[key]; ok && now.Sub(e.lastSentAt) < e.coolDown {
		t.logger.Debug("alert suppressed by cool-down",
			"dedupe_key", key,
			"cool_down", e.coolDown,
			"since_last", now.Sub(e.lastSentAt),
		)
		return false
	}

	t.entries[key] = entry{lastSentAt: now, coolDown: coolDown}
	return true
}

// Len reports the number of live throttle entries.
func (t *Throttle) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// SetCooldowns replaces the cool-down table, for configuration hot
// reload. Live entries keep the cool-down they were admitted with until
// their next admission.
func (t *Throttle) SetCooldowns(cooldowns map[string]time.Duration, defaultCooldown time.Duration) {
	if defaultCooldown <= 0 {
		defaultCooldown = 15 * time.Minute
	}

	t.mu.Lock()
	t.cooldowns = cooldowns
	t.defaultCooldown = defaultCooldown
	t.mu.Unlock()
}

// cooldownForLocked resolves the cool-down for an alert type. Caller
// must hold the lock.
func (t *Throttle) cooldownForLocked(alertType string) time.Duration {
	if cd, ok := t.cooldowns[alertType]; ok {
		return cd
	}
	return t.defaultCooldown
}

// collectStaleLocked evicts entries idle for more than staleMultiple
// cool-downs. Alert cardinality is small (components × severities), so a
// full scan per admit is cheap. Caller must hold the lock.
func (t *Throttle) collectStaleLocked(now time.Time) {
	for key, e := range t.entries {
		if now.Sub(e.lastSentAt) > e.coolDown*staleMultiple {
			delete(t.entries, key)
		}
	}
}

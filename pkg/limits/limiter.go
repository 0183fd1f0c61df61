package limits

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"atelier-hq/vigil/pkg/clock"
	"atelier-hq/vigil/pkg/limits/counter"
	"atelier-hq/vigil/pkg/limits/store"
)

// Limiter evaluates multi-tier rate limits per scope.
//
// Every check increments every tier's counter, including tiers looser than
// one that already denies. This keeps audit counts consistent: a burst
// that trips the minute tier still shows up in the hour and day counts.
type Limiter struct {
	counter *counter.Counter
	rules   map[string]Rule
	metrics *Metrics
	logger  *slog.Logger
}

// Config configures a Limiter.
type Config struct {
	// Rules maps scope name to its rule. Every scope checked at runtime
	// must have a rule here; unknown scopes are allowed and logged.
	Rules map[string]Rule

	// Store backs the window counters. Defaults to an in-memory store.
	Store store.Store

	// Clock supplies time; defaults to the system clock.
	Clock clock.Clock

	// Metrics receives check/denial counters. Optional.
	Metrics *Metrics

	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// NewLimiter creates a Limiter from the given configuration.
// Rules with no tiers are a configuration error: a scope that exists but
// limits nothing is almost always a typo in the tier table.
func NewLimiter(cfg Config) (*Limiter, error) {
	if cfg.Store == nil {
		cfg.Store = store.NewMemory()
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.NewReal()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	rules := make(map[string]Rule, len(cfg.Rules))
	for scope, rule := range cfg.Rules {
		if len(rule.Tiers) == 0 {
			return nil, fmt.Errorf("rate-limit scope %q has no tiers", scope)
		}
		for _, tier := range rule.Tiers {
			if tier.Window <= 0 || tier.Max <= 0 {
				return nil, fmt.Errorf("rate-limit scope %q has invalid tier (window=%v, max=%d)", scope, tier.Window, tier.Max)
			}
		}
		if rule.Policy == "" {
			rule.Policy = FailOpen
		}

		// Smallest window first so the tightest violated tier is found
		// first when computing RetryAfter.
		tiers := make([]Tier, len(rule.Tiers))
		copy(tiers, rule.Tiers)
		sort.Slice(tiers, func(i, j int) bool { return tiers[i].Window < tiers[j].Window })
		rule.Tiers = tiers
		rule.Scope = scope

		rules[scope] = rule
	}

	return &Limiter{
		counter: counter.New(cfg.Store, cfg.Clock),
		rules:   rules,
		metrics: cfg.Metrics,
		logger:  cfg.Logger.With("component", "limits"),
	}, nil
}

// Check increments every tier counter for (scope, identifier) and returns
// the combined decision. When multiple tiers are violated, RetryAfter is
// the remaining window of the tightest (smallest-window) violated tier.
//
// A store failure never reaches the caller as an error; it is resolved
// into an allow or deny according to the scope's failure policy. A denial
// already recorded by a tighter tier stands regardless of policy.
func (l *Limiter) Check(ctx context.Context, scope, identifier string) Decision {
	start := time.Now()

	rule, ok := l.rules[scope]
	if !ok {
		l.logger.Debug("no rate-limit rule for scope, allowing", "scope", scope)
		return Decision{Allowed: true, Scope: scope}
	}

	decision := Decision{Allowed: true, Scope: scope}

	for _, tier := range rule.Tiers {
		count, remaining, err := l.counter.Increment(ctx, scope, identifier, tier.Window)
		if err != nil {
			l.metrics.observeStoreError(scope)
			if !decision.Allowed {
				// A tighter tier already denied from a healthy read.
				// The failure policy only decides cases that are
				// otherwise undecided.
				l.logger.Warn("counter store unavailable on a looser tier, keeping denial",
					"scope", scope,
					"window", tier.Window,
					"error", err,
				)
				l.metrics.observeCheck(scope, false, time.Since(start))
				return decision
			}
			return l.resolveStoreFailure(rule, err, start)
		}

		if count > tier.Max && decision.Allowed {
			decision = Decision{
				Allowed:    false,
				Scope:      scope,
				Reason:     fmt.Sprintf("limit of %d per %s exceeded", tier.Max, tier.Window),
				Limit:      tier.Max,
				RetryAfter: remaining,
			}
			l.metrics.observeDenial(scope, tier.Window)
		}
	}

	l.metrics.observeCheck(scope, decision.Allowed, time.Since(start))
	return decision
}

// Usage reports the current count for every tier of a scope without
// incrementing, for the operational read endpoints.
func (l *Limiter) Usage(ctx context.Context, scope, identifier string) (map[time.Duration]int64, error) {
	rule, ok := l.rules[scope]
	if !ok {
		return nil, fmt.Errorf("unknown rate-limit scope %q", scope)
	}

	usage := make(map[time.Duration]int64, len(rule.Tiers))
	for _, tier := range rule.Tiers {
		count, err := l.counter.Peek(ctx, scope, identifier, tier.Window)
		if err != nil {
			return nil, err
		}
		usage[tier.Window] = count
	}
	return usage, nil
}

// Scopes returns the configured scope names.
func (l *Limiter) Scopes() []string {
	scopes := make([]string, 0, len(l.rules))
	for scope := range l.rules {
		scopes = append(scopes, scope)
	}
	sort.Strings(scopes)
	return scopes
}

func (l *Limiter) resolveStoreFailure(rule Rule, err error, start time.Time) Decision {
	if rule.Policy == FailClosed {
		l.logger.Error("counter store unavailable, failing closed",
			"scope", rule.Scope,
			"error", err,
		)
		decision := Decision{
			Allowed: false,
			Scope:   rule.Scope,
			Reason:  "rate limiter unavailable",
			// Conservative hint: the tightest tier's full window.
			RetryAfter: rule.Tiers[0].Window,
		}
		l.metrics.observeCheck(rule.Scope, false, time.Since(start))
		return decision
	}

	l.logger.Warn("counter store unavailable, failing open",
		"scope", rule.Scope,
		"error", err,
	)
	l.metrics.observeCheck(rule.Scope, true, time.Since(start))
	return Decision{Allowed: true, Scope: rule.Scope}
}

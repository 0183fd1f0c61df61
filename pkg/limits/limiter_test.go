package limits

import (
	"context"
	"sync"
	"testing"
	"time"

	"atelier-hq/vigil/pkg/clock"
	"atelier-hq/vigil/pkg/limits/store"
)

func newTestLimiter(t *testing.T, rules map[string]Rule) (*Limiter, *clock.Fake) {
	t.Helper()

	fake := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	backend := store.NewMemoryWithConfig(store.MemoryConfig{Clock: fake})
	t.Cleanup(func() { _ = backend.Close() })

	limiter, err := NewLimiter(Config{
		Rules: rules,
		Store: backend,
		Clock: fake,
	})
	if err != nil {
		t.Fatalf("NewLimiter failed: %v", err)
	}

	return limiter, fake
}

func TestLimiter_AllowsUpToTierMax(t *testing.T) {
	limiter, _ := newTestLimiter(t, map[string]Rule{
		"admin-auth": {Tiers: []Tier{{Window: time.Minute, Max: 5}}},
	})
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		d := limiter.Check(ctx, "admin-auth", "1.2.3.4")
		if !d.Allowed {
			t.Fatalf("call %d: expected Allowed, got denial: %s", i, d.Reason)
		}
	}

	d := limiter.Check(ctx, "admin-auth", "1.2.3.4")
	if d.Allowed {
		t.Fatal("6th call: expected Denied")
	}
	if d.RetryAfter <= 0 || d.RetryAfter > time.Minute {
		t.Errorf("expected 0 < RetryAfter <= 1m, got %v", d.RetryAfter)
	}
	if d.Limit != 5 {
		t.Errorf("expected violated limit 5, got %d", d.Limit)
	}
}

func TestLimiter_AllowsAgainAfterWindowReset(t *testing.T) {
	limiter, fake := newTestLimiter(t, map[string]Rule{
		"api": {Tiers: []Tier{{Window: time.Minute, Max: 2}}},
	})
	ctx := context.Background()

	limiter.Check(ctx, "api", "u1")
	limiter.Check(ctx, "api", "u1")
	if d := limiter.Check(ctx, "api", "u1"); d.Allowed {
		t.Fatal("expected denial at limit")
	}

	fake.Advance(time.Minute)

	if d := limiter.Check(ctx, "api", "u1"); !d.Allowed {
		t.Errorf("expected Allowed after window reset, got: %s", d.Reason)
	}
}

func TestLimiter_RepeatedDenialsShrinkRetryAfter(t *testing.T) {
	limiter, fake := newTestLimiter(t, map[string]Rule{
		"api": {Tiers: []Tier{{Window: time.Minute, Max: 1}}},
	})
	ctx := context.Background()

	limiter.Check(ctx, "api", "u1")

	first := limiter.Check(ctx, "api", "u1")
	if first.Allowed {
		t.Fatal("expected denial")
	}

	fake.Advance(20 * time.Second)

	second := limiter.Check(ctx, "api", "u1")
	if second.Allowed {
		t.Fatal("expected continued denial inside window")
	}
	if second.RetryAfter >= first.RetryAfter {
		t.Errorf("expected shrinking RetryAfter, got %v then %v", first.RetryAfter, second.RetryAfter)
	}
}

func TestLimiter_AllTiersIncrementedOnDenial(t *testing.T) {
	limiter, _ := newTestLimiter(t, map[string]Rule{
		"admin-auth": {Tiers: []Tier{
			{Window: time.Minute, Max: 2},
			{Window: time.Hour, Max: 100},
		}},
	})
	ctx := context.Background()

	// 5 checks: 3 of them denied by the minute tier.
	for i := 0; i < 5; i++ {
		limiter.Check(ctx, "admin-auth", "u1")
	}

	usage, err := limiter.Usage(ctx, "admin-auth", "u1")
	if err != nil {
		t.Fatalf("Usage failed: %v", err)
	}
	if usage[time.Hour] != 5 {
		t.Errorf("expected hour tier count 5 (denied checks still counted), got %d", usage[time.Hour])
	}
}

func TestLimiter_RetryAfterUsesTightestViolatedTier(t *testing.T) {
	limiter, fake := newTestLimiter(t, map[string]Rule{
		"api": {Tiers: []Tier{
			{Window: time.Minute, Max: 1},
			{Window: time.Hour, Max: 1},
		}},
	})
	ctx := context.Background()

	limiter.Check(ctx, "api", "u1")

	fake.Advance(10 * time.Second)
	d := limiter.Check(ctx, "api", "u1")
	if d.Allowed {
		t.Fatal("expected denial")
	}

	// Both tiers are violated; the minute tier is tighter, 50s left.
	if d.RetryAfter != 50*time.Second {
		t.Errorf("expected RetryAfter 50s from minute tier, got %v", d.RetryAfter)
	}
}

func TestLimiter_IdentifiersAreIsolated(t *testing.T) {
	limiter, _ := newTestLimiter(t, map[string]Rule{
		"api": {Tiers: []Tier{{Window: time.Minute, Max: 1}}},
	})
	ctx := context.Background()

	limiter.Check(ctx, "api", "user:42")
	if d := limiter.Check(ctx, "api", "user:42"); d.Allowed {
		t.Fatal("expected denial for exhausted identifier")
	}

	if d := limiter.Check(ctx, "api", "10.0.0.7"); !d.Allowed {
		t.Error("anonymous identifier should not share the user's counter")
	}
}

func TestLimiter_UnknownScopeAllows(t *testing.T) {
	limiter, _ := newTestLimiter(t, map[string]Rule{
		"api": {Tiers: []Tier{{Window: time.Minute, Max: 1}}},
	})

	d := limiter.Check(context.Background(), "unconfigured", "u1")
	if !d.Allowed {
		t.Error("expected unknown scope to allow")
	}
}

func TestLimiter_ConcurrentChecksNeverExceedLimit(t *testing.T) {
	limiter, _ := newTestLimiter(t, map[string]Rule{
		"api": {Tiers: []Tier{{Window: time.Hour, Max: 50}}},
	})
	ctx := context.Background()

	const n = 200
	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if limiter.Check(ctx, "api", "shared").Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != 50 {
		t.Errorf("expected exactly 50 allowed, got %d", allowed)
	}
}

// brokenStore fails every operation, for failure-policy tests.
type brokenStore struct{}

func (brokenStore) Incr(context.Context, string, time.Duration) (int64, time.Time, error) {
	return 0, time.Time{}, store.ErrUnavailable
}

func (brokenStore) Peek(context.Context, string, time.Duration) (int64, time.Time, error) {
	return 0, time.Time{}, store.ErrUnavailable
}

func (brokenStore) Close() error { return nil }

func TestLimiter_StoreFailurePolicies(t *testing.T) {
	tests := []struct {
		name        string
		policy      FailurePolicy
		wantAllowed bool
	}{
		{"fail-open allows", FailOpen, true},
		{"fail-closed denies", FailClosed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiter, err := NewLimiter(Config{
				Rules: map[string]Rule{
					"s": {Policy: tt.policy, Tiers: []Tier{{Window: time.Minute, Max: 5}}},
				},
				Store: brokenStore{},
			})
			if err != nil {
				t.Fatalf("NewLimiter failed: %v", err)
			}

			d := limiter.Check(context.Background(), "s", "u1")
			if d.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v", d.Allowed, tt.wantAllowed)
			}
			if !tt.wantAllowed && d.RetryAfter <= 0 {
				t.Error("fail-closed denial should carry a retry hint")
			}
		})
	}
}

// flakyTierStore fails Incr for one window size and delegates the rest.
type flakyTierStore struct {
	store.Store
	failWindow time.Duration
}

func (s flakyTierStore) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Time, error) {
	if window == s.failWindow {
		return 0, time.Time{}, store.ErrUnavailable
	}
	return s.Store.Incr(ctx, key, window)
}

func TestLimiter_DenialSurvivesLooserTierStoreFailure(t *testing.T) {
	backend := store.NewMemory()
	t.Cleanup(func() { _ = backend.Close() })

	limiter, err := NewLimiter(Config{
		Rules: map[string]Rule{
			"api": {
				Policy: FailOpen,
				Tiers: []Tier{
					{Window: time.Minute, Max: 1},
					{Window: time.Hour, Max: 100},
				},
			},
		},
		Store: flakyTierStore{Store: backend, failWindow: time.Hour},
	})
	if err != nil {
		t.Fatalf("NewLimiter failed: %v", err)
	}
	ctx := context.Background()

	if d := limiter.Check(ctx, "api", "u1"); !d.Allowed {
		t.Fatal("first check should be allowed")
	}

	d := limiter.Check(ctx, "api", "u1")
	if d.Allowed {
		t.Fatal("minute tier is exhausted; an hour-tier store failure must not erase the denial")
	}
	if d.RetryAfter <= 0 || d.RetryAfter > time.Minute {
		t.Errorf("expected RetryAfter in (0, 1m], got %v", d.RetryAfter)
	}
}

func TestNewLimiter_RejectsInvalidRules(t *testing.T) {
	tests := []struct {
		name  string
		rules map[string]Rule
	}{
		{"empty tiers", map[string]Rule{"s": {}}},
		{"zero window", map[string]Rule{"s": {Tiers: []Tier{{Window: 0, Max: 5}}}}},
		{"zero max", map[string]Rule{"s": {Tiers: []Tier{{Window: time.Minute, Max: 0}}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewLimiter(Config{Rules: tt.rules}); err == nil {
				t.Error("expected constructor to reject invalid rule")
			}
		})
	}
}

func TestLimiter_EndToEndAdminAuthScenario(t *testing.T) {
	limiter, _ := newTestLimiter(t, map[string]Rule{
		"admin-auth": {
			Policy: FailClosed,
			Tiers: []Tier{
				{Window: time.Minute, Max: 5},
				{Window: time.Hour, Max: 20},
			},
		},
	})
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		if d := limiter.Check(ctx, "admin-auth", "203.0.113.9"); !d.Allowed {
			t.Fatalf("login attempt %d should be allowed", i)
		}
	}

	d := limiter.Check(ctx, "admin-auth", "203.0.113.9")
	if d.Allowed {
		t.Fatal("6th login attempt should be denied")
	}
	if d.RetryAfter <= 0 || d.RetryAfter > 60*time.Second {
		t.Errorf("expected RetryAfter in (0, 60s], got %v", d.RetryAfter)
	}

	usage, _ := limiter.Usage(ctx, "admin-auth", "203.0.113.9")
	if usage[time.Minute] != 6 || usage[time.Hour] != 6 {
		t.Errorf("expected both tiers to count all 6 attempts, got %v", usage)
	}
}

package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"atelier-hq/vigil/pkg/config"
	"atelier-hq/vigil/pkg/limits"
	"atelier-hq/vigil/pkg/monitor/alert"
	"atelier-hq/vigil/pkg/monitor/history"
	"atelier-hq/vigil/pkg/monitor/notify"
	"atelier-hq/vigil/pkg/monitor/sampler"
)

type staticSamples struct {
	samples []sampler.Sample
	at      time.Time
}

func (s staticSamples) LastSamples() ([]sampler.Sample, time.Time) {
	return s.samples, s.at
}

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.NewRegistry()
	}
	return New(opts)
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t, Options{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q", body["status"])
	}
}

func TestHandleReady(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		srv := newTestServer(t, Options{
			Ready: func(context.Context) error { return nil },
		})

		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("not ready", func(t *testing.T) {
		srv := newTestServer(t, Options{
			Ready: func(context.Context) error { return errors.New("store unreachable") },
		})

		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", rec.Code)
		}

		var body errorResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("invalid body: %v", err)
		}
		if body.Success {
			t.Error("error body should have success=false")
		}
	})
}

func TestHandleSamples(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	srv := newTestServer(t, Options{
		Samples: staticSamples{
			samples: []sampler.Sample{
				{Component: "memory", Value: 512, Unit: "mb", CapturedAt: at, OK: true},
			},
			at: at,
		},
	})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status/samples", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body samplesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if len(body.Samples) != 1 || body.Samples[0].Component != "memory" {
		t.Errorf("samples = %+v", body.Samples)
	}
}

func TestHandleAlerts(t *testing.T) {
	hist := history.NewMemoryStore(10)
	for i := 0; i < 5; i++ {
		hist.Append(context.Background(), history.Entry{
			Event:   alert.New("performance", "memory", alert.SeverityWarning, "high", 700, 600, time.Now()),
			Outcome: notify.OutcomeDelivered,
		})
	}

	srv := newTestServer(t, Options{History: hist})

	t.Run("limited", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status/alerts?limit=2", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var body alertsResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("invalid body: %v", err)
		}
		if len(body.Alerts) != 2 {
			t.Errorf("got %d alerts, want 2", len(body.Alerts))
		}
	})

	t.Run("invalid limit", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status/alerts?limit=nope", nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestHandleMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "vigil_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Inc()

	srv := newTestServer(t, Options{Gatherer: reg})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "vigil_test_total 1") {
		t.Errorf("metrics body missing counter: %q", rec.Body.String())
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter, err := limits.NewLimiter(limits.Config{
		Rules: map[string]limits.Rule{
			ScopeStatus: {Tiers: []limits.Tier{{Window: time.Minute, Max: 3}}},
		},
	})
	if err != nil {
		t.Fatalf("NewLimiter() error = %v", err)
	}

	srv := newTestServer(t, Options{
		Limiter: limiter,
		History: history.NewMemoryStore(10),
	})
	handler := srv.Handler()

	get := func(path, userID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if userID != "" {
			req.Header.Set("X-User-ID", userID)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 3; i++ {
		if rec := get("/status/alerts", "alice"); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, rec.Code)
		}
	}

	rec := get("/status/alerts", "alice")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("4th request: status = %d, want 429", rec.Code)
	}

	retryAfter, err := strconv.Atoi(rec.Header().Get("Retry-After"))
	if err != nil || retryAfter <= 0 || retryAfter > 60 {
		t.Errorf("Retry-After = %q, want 1..60 seconds", rec.Header().Get("Retry-After"))
	}

	var body errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if body.Success || body.Message == "" {
		t.Errorf("denial body = %+v", body)
	}

	// Other identifiers and unmatched paths stay unaffected.
	if rec := get("/status/alerts", "bob"); rec.Code != http.StatusOK {
		t.Errorf("bob: status = %d, want 200", rec.Code)
	}
	if rec := get("/health", "alice"); rec.Code != http.StatusOK {
		t.Errorf("health: status = %d, want 200", rec.Code)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	panicking := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	Recovery(panicking).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}

	var body errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if body.Success {
		t.Error("panic body should have success=false")
	}
}

func TestServerStartShutdown(t *testing.T) {
	cfg := config.ServerConfig{
		ListenAddress:   "127.0.0.1:0",
		ShutdownTimeout: config.Duration(time.Second),
	}
	srv := newTestServer(t, Options{Config: cfg})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	deadline := time.After(2 * time.Second)
	for !srv.IsRunning() {
		select {
		case <-deadline:
			t.Fatal("server never started")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down")
	}
}

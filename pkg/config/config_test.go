package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleYAML = `
server:
  listen_address: "0.0.0.0:9090"
  read_timeout: 10s

logging:
  level: debug
  format: text

store:
  backend: memory

limits:
  admin-auth:
    policy: fail-closed
    tiers:
      - window: 1m
        max_count: 5
      - window: 1h
        max_count: 20
  contact-form:
    tiers:
      - window: 1h
        max_count: 3

monitor:
  interval: 15s
  probe_timeout: 250ms
  disk_path: /var

thresholds:
  - component: memory
    operator: ">="
    limit: 500
    severity: warning
    type: performance
  - component: memory
    operator: ">="
    limit: 600
    severity: critical
    type: performance

alerting:
  default_cooldown: 15m
  cooldowns:
    system-error: 1m
  routing:
    warning: [slack]
    critical: [slack, email]
  channels:
    slack:
      enabled: true
      webhook_url: https://hooks.slack.com/services/T0/B0/x
    email:
      enabled: true
      smtp_host: smtp.example.com
      from: vigil@example.com
      to: [ops@example.com]
`

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoad_ParsesFullConfig(t *testing.T) {
	cfg, err := Load(writeConfigFile(t, sampleYAML))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:9090" {
		t.Errorf("listen address = %q", cfg.Server.ListenAddress)
	}
	if cfg.Server.ReadTimeout.Std() != 10*time.Second {
		t.Errorf("read timeout = %v", cfg.Server.ReadTimeout)
	}

	auth := cfg.Limits["admin-auth"]
	if auth.Policy != "fail-closed" {
		t.Errorf("policy = %q", auth.Policy)
	}
	if len(auth.Tiers) != 2 {
		t.Fatalf("expected 2 tiers, got %d", len(auth.Tiers))
	}
	if auth.Tiers[0].Window.Std() != time.Minute || auth.Tiers[0].MaxCount != 5 {
		t.Errorf("unexpected first tier: %+v", auth.Tiers[0])
	}

	if cfg.Monitor.Interval.Std() != 15*time.Second {
		t.Errorf("monitor interval = %v", cfg.Monitor.Interval)
	}

	if len(cfg.Thresholds) != 2 {
		t.Fatalf("expected 2 thresholds, got %d", len(cfg.Thresholds))
	}
	if cfg.Thresholds[0].Operator != ">=" || cfg.Thresholds[0].Limit != 500 {
		t.Errorf("unexpected threshold: %+v", cfg.Thresholds[0])
	}

	if cfg.Alerting.Cooldowns["system-error"].Std() != time.Minute {
		t.Errorf("cooldown = %v", cfg.Alerting.Cooldowns["system-error"])
	}
}

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`{}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Server.ListenAddress != DefaultListenAddress {
		t.Errorf("expected default listen address, got %q", cfg.Server.ListenAddress)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("expected default logging, got %+v", cfg.Logging)
	}
	if cfg.Store.Backend != "memory" {
		t.Errorf("expected memory store default, got %q", cfg.Store.Backend)
	}
	if cfg.Monitor.Interval.Std() != DefaultMonitorInterval {
		t.Errorf("expected default interval, got %v", cfg.Monitor.Interval)
	}
	if cfg.Alerting.DefaultCooldown.Std() != DefaultCooldown {
		t.Errorf("expected default cooldown, got %v", cfg.Alerting.DefaultCooldown)
	}
	if !cfg.MonitorEnabled() {
		t.Error("monitoring should default to enabled")
	}
}

func TestLoad_DefaultsDoNotOverrideScopePolicy(t *testing.T) {
	cfg, err := Parse([]byte(`
limits:
  api:
    tiers:
      - window: 1m
        max_count: 10
`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.Limits["api"].Policy != "fail-open" {
		t.Errorf("expected fail-open default, got %q", cfg.Limits["api"].Policy)
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	_, err := Parse([]byte(`
limits:
  broken: {}

thresholds:
  - component: memory
    operator: "=="
    limit: 1
    severity: fatal
`))
	if err == nil {
		t.Fatal("expected validation failure")
	}

	verr, ok := err.(ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}

	// No tiers, bad operator, bad severity.
	if len(verr.Errors) < 3 {
		t.Errorf("expected at least 3 collected errors, got %d: %v", len(verr.Errors), verr)
	}
}

func TestValidate_RejectsInvalidInputs(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty tier table", "limits:\n  s:\n    tiers: []\n"},
		{"zero tier window", "limits:\n  s:\n    tiers:\n      - window: 0s\n        max_count: 5\n"},
		{"zero tier max", "limits:\n  s:\n    tiers:\n      - window: 1m\n        max_count: 0\n"},
		{"bad policy", "limits:\n  s:\n    policy: maybe\n    tiers:\n      - window: 1m\n        max_count: 5\n"},
		{"bad cron", "monitor:\n  schedule: 'not a cron'\n"},
		{"unknown threshold operator", "thresholds:\n  - component: memory\n    operator: '=='\n    limit: 500\n    severity: warning\n"},
		{"bad routing channel", "alerting:\n  routing:\n    critical: [pager]\n"},
		{"enabled slack without url", "alerting:\n  channels:\n    slack:\n      enabled: true\n"},
		{"redis without addr", "store:\n  backend: redis\n"},
		{"negative cooldown", "alerting:\n  cooldowns:\n    performance: -1m\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.yaml)); err == nil {
				t.Error("expected validation to fail")
			}
		})
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("VIGIL_SERVER_LISTEN_ADDRESS", "127.0.0.1:7070")
	t.Setenv("VIGIL_STORE_REDIS_PASSWORD", "hunter2")
	t.Setenv("VIGIL_MONITOR_INTERVAL", "1m")

	cfg, err := LoadWithEnvOverrides(writeConfigFile(t, sampleYAML))
	if err != nil {
		t.Fatalf("LoadWithEnvOverrides failed: %v", err)
	}

	if cfg.Server.ListenAddress != "127.0.0.1:7070" {
		t.Errorf("env override not applied: %q", cfg.Server.ListenAddress)
	}
	if cfg.Store.Redis.Password != "hunter2" {
		t.Error("redis password override not applied")
	}
	if cfg.Monitor.Interval.Std() != time.Minute {
		t.Errorf("interval override not applied: %v", cfg.Monitor.Interval)
	}
}

func TestDuration_UnmarshalStringForm(t *testing.T) {
	cfg, err := Parse([]byte("monitor:\n  interval: 90s\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.Monitor.Interval.Std() != 90*time.Second {
		t.Errorf("string duration = %v", cfg.Monitor.Interval)
	}
}

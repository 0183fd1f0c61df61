package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads configuration from a YAML file, applies defaults, and
// validates the result. Environment variables are not consulted; use
// LoadWithEnvOverrides for that.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	return cfg, nil
}

// Parse decodes YAML bytes into a validated Config with defaults applied.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Variables follow the convention
// VIGIL_SECTION_FIELD (e.g., VIGIL_SERVER_LISTEN_ADDRESS) and always take
// precedence over file values.
//
// The loading sequence is:
//  1. Load YAML from file and apply defaults
//  2. Apply environment variable overrides
//  3. Re-validate the final configuration
func LoadWithEnvOverrides(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies VIGIL_* environment variables. Secrets
// (Redis password, SMTP password, webhook URLs) are the usual reason to
// prefer the environment over the file.
func applyEnvOverrides(cfg *Config) {
	setString(&cfg.Server.ListenAddress, "VIGIL_SERVER_LISTEN_ADDRESS")

	setString(&cfg.Logging.Level, "VIGIL_LOGGING_LEVEL")
	setString(&cfg.Logging.Format, "VIGIL_LOGGING_FORMAT")

	setString(&cfg.Store.Backend, "VIGIL_STORE_BACKEND")
	setString(&cfg.Store.Redis.Addr, "VIGIL_STORE_REDIS_ADDR")
	setString(&cfg.Store.Redis.Password, "VIGIL_STORE_REDIS_PASSWORD")
	setInt(&cfg.Store.Redis.DB, "VIGIL_STORE_REDIS_DB")

	setDuration(&cfg.Monitor.Interval, "VIGIL_MONITOR_INTERVAL")
	setString(&cfg.Monitor.Schedule, "VIGIL_MONITOR_SCHEDULE")
	setDuration(&cfg.Monitor.ProbeTimeout, "VIGIL_MONITOR_PROBE_TIMEOUT")

	setString(&cfg.Alerting.Channels.Slack.WebhookURL, "VIGIL_ALERTING_SLACK_WEBHOOK_URL")
	setString(&cfg.Alerting.Channels.Discord.WebhookURL, "VIGIL_ALERTING_DISCORD_WEBHOOK_URL")
	setString(&cfg.Alerting.Channels.Webhook.URL, "VIGIL_ALERTING_WEBHOOK_URL")
	setString(&cfg.Alerting.Channels.Webhook.AuthToken, "VIGIL_ALERTING_WEBHOOK_AUTH_TOKEN")
	setString(&cfg.Alerting.Channels.Email.SMTPHost, "VIGIL_ALERTING_EMAIL_SMTP_HOST")
	setInt(&cfg.Alerting.Channels.Email.SMTPPort, "VIGIL_ALERTING_EMAIL_SMTP_PORT")
	setString(&cfg.Alerting.Channels.Email.Username, "VIGIL_ALERTING_EMAIL_USERNAME")
	setString(&cfg.Alerting.Channels.Email.Password, "VIGIL_ALERTING_EMAIL_PASSWORD")
}

func setString(dst *string, key string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

func setInt(dst *int, key string) {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*dst = n
		}
	}
}

func setDuration(dst *Duration, key string) {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = Duration(d)
		}
	}
}

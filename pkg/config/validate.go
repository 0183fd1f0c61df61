package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration
// field.
type FieldError struct {
	// Field is the dotted path to the field (e.g., "limits.admin-auth").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError collects every validation failure found in a
// configuration so the operator sees the complete list at once.
type ValidationError struct {
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

var (
	validOperators  = map[string]bool{">": true, ">=": true, "<": true, "<=": true}
	validSeverities = map[string]bool{"warning": true, "critical": true}
	validPolicies   = map[string]bool{"fail-open": true, "fail-closed": true}
	channelNames    = map[string]bool{"slack": true, "discord": true, "webhook": true, "email": true}
)

// Validate checks the entire configuration and returns a ValidationError
// listing every problem, or nil when the configuration is valid. An
// incomplete rate-limit or threshold table is fatal: the process must not
// start with rules it cannot enforce.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateLogging(&cfg.Logging)...)
	errs = append(errs, validateStore(&cfg.Store)...)
	errs = append(errs, validateLimits(cfg.Limits)...)
	errs = append(errs, validateMonitor(&cfg.Monitor)...)
	errs = append(errs, validateThresholds(cfg.Thresholds)...)
	errs = append(errs, validateAlerting(&cfg.Alerting)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{"server.listen_address", "must not be empty"})
	}
	if cfg.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{"server.shutdown_timeout", "must not be negative"})
	}

	return errs
}

func validateLogging(cfg *LoggingConfig) []FieldError {
	var errs []FieldError

	switch cfg.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{"logging.level", fmt.Sprintf("invalid level %q (expected debug, info, warn, or error)", cfg.Level)})
	}

	switch cfg.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{"logging.format", fmt.Sprintf("invalid format %q (expected json or text)", cfg.Format)})
	}

	return errs
}

func validateStore(cfg *StoreConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "memory":
	case "redis":
		if cfg.Redis.Addr == "" {
			errs = append(errs, FieldError{"store.redis.addr", "required when backend is redis"})
		}
	default:
		errs = append(errs, FieldError{"store.backend", fmt.Sprintf("unknown backend %q (expected memory or redis)", cfg.Backend)})
	}

	return errs
}

func validateLimits(scopes map[string]ScopeConfig) []FieldError {
	var errs []FieldError

	for scope, sc := range scopes {
		field := "limits." + scope

		if len(sc.Tiers) == 0 {
			errs = append(errs, FieldError{field, "must define at least one tier"})
		}
		if !validPolicies[sc.Policy] {
			errs = append(errs, FieldError{field + ".policy", fmt.Sprintf("invalid policy %q (expected fail-open or fail-closed)", sc.Policy)})
		}

		for i, tier := range sc.Tiers {
			tierField := fmt.Sprintf("%s.tiers[%d]", field, i)
			if tier.Window <= 0 {
				errs = append(errs, FieldError{tierField + ".window", "must be positive"})
			}
			if tier.MaxCount <= 0 {
				errs = append(errs, FieldError{tierField + ".max_count", "must be positive"})
			}
		}
	}

	return errs
}

func validateMonitor(cfg *MonitorConfig) []FieldError {
	var errs []FieldError

	if cfg.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
			errs = append(errs, FieldError{"monitor.schedule", fmt.Sprintf("invalid cron expression: %v", err)})
		}
	} else if cfg.Interval <= 0 {
		errs = append(errs, FieldError{"monitor.interval", "must be positive"})
	}

	if cfg.ProbeTimeout <= 0 {
		errs = append(errs, FieldError{"monitor.probe_timeout", "must be positive"})
	}
	if cfg.Duration < 0 {
		errs = append(errs, FieldError{"monitor.duration", "must not be negative"})
	}

	return errs
}

func validateThresholds(thresholds []ThresholdConfig) []FieldError {
	var errs []FieldError

	for i, th := range thresholds {
		field := fmt.Sprintf("thresholds[%d]", i)

		if th.Component == "" {
			errs = append(errs, FieldError{field + ".component", "must not be empty"})
		}
		if !validOperators[th.Operator] {
			errs = append(errs, FieldError{field + ".operator", fmt.Sprintf("invalid operator %q (expected >, >=, <, or <=)", th.Operator)})
		}
		if !validSeverities[th.Severity] {
			errs = append(errs, FieldError{field + ".severity", fmt.Sprintf("invalid severity %q (expected warning or critical)", th.Severity)})
		}
	}

	return errs
}

func validateAlerting(cfg *AlertingConfig) []FieldError {
	var errs []FieldError

	for alertType, cooldown := range cfg.Cooldowns {
		if cooldown <= 0 {
			errs = append(errs, FieldError{"alerting.cooldowns." + alertType, "must be positive"})
		}
	}

	for severity, channels := range cfg.Routing {
		if !validSeverities[severity] {
			errs = append(errs, FieldError{"alerting.routing." + severity, fmt.Sprintf("unknown severity %q", severity)})
		}
		for _, name := range channels {
			if !channelNames[name] {
				errs = append(errs, FieldError{"alerting.routing." + severity, fmt.Sprintf("unknown channel %q", name)})
			}
		}
	}

	switch cfg.History.Backend {
	case "memory":
		if cfg.History.Size <= 0 {
			errs = append(errs, FieldError{"alerting.history.size", "must be positive"})
		}
	case "sqlite":
		if cfg.History.SQLitePath == "" {
			errs = append(errs, FieldError{"alerting.history.sqlite_path", "required when backend is sqlite"})
		}
	default:
		errs = append(errs, FieldError{"alerting.history.backend", fmt.Sprintf("unknown backend %q (expected memory or sqlite)", cfg.History.Backend)})
	}

	ch := cfg.Channels
	if ch.Slack.Enabled && ch.Slack.WebhookURL == "" {
		errs = append(errs, FieldError{"alerting.channels.slack.webhook_url", "required when slack is enabled"})
	}
	if ch.Discord.Enabled && ch.Discord.WebhookURL == "" {
		errs = append(errs, FieldError{"alerting.channels.discord.webhook_url", "required when discord is enabled"})
	}
	if ch.Webhook.Enabled && ch.Webhook.URL == "" {
		errs = append(errs, FieldError{"alerting.channels.webhook.url", "required when webhook is enabled"})
	}
	if ch.Email.Enabled {
		if ch.Email.SMTPHost == "" {
			errs = append(errs, FieldError{"alerting.channels.email.smtp_host", "required when email is enabled"})
		}
		if ch.Email.From == "" {
			errs = append(errs, FieldError{"alerting.channels.email.from", "required when email is enabled"})
		}
		if len(ch.Email.To) == 0 {
			errs = append(errs, FieldError{"alerting.channels.email.to", "at least one recipient is required"})
		}
	}

	return errs
}

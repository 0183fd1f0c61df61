package config

// Config is the root configuration structure for Vigil. It holds the
// rate-limit rule table, the monitoring pipeline settings, the alerting
// thresholds and channels, and the operational HTTP server settings.
// Configuration is loaded once at startup and treated as immutable; the
// watcher replaces the whole snapshot atomically on reload.
type Config struct {
	// Server contains the operational HTTP server settings.
	Server ServerConfig `yaml:"server"`

	// Logging contains structured logging settings.
	Logging LoggingConfig `yaml:"logging"`

	// Store selects and configures the counter store backend.
	Store StoreConfig `yaml:"store"`

	// Limits maps scope name to its rate-limit rule. The table must be
	// complete: every scope checked at runtime needs an entry, and an
	// entry with no tiers fails validation.
	Limits map[string]ScopeConfig `yaml:"limits"`

	// Monitor contains the periodic monitoring pipeline settings.
	Monitor MonitorConfig `yaml:"monitor"`

	// Thresholds are the per-component alerting thresholds.
	Thresholds []ThresholdConfig `yaml:"thresholds"`

	// Alerting contains cool-downs, severity routing, channel settings,
	// and the alert history store.
	Alerting AlertingConfig `yaml:"alerting"`
}

// ServerConfig contains the HTTP server settings.
type ServerConfig struct {
	// ListenAddress is host:port for the operational endpoints.
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout bounds reading an entire request. Default: 30s.
	ReadTimeout Duration `yaml:"read_timeout"`

	// WriteTimeout bounds writing a response. Default: 30s.
	WriteTimeout Duration `yaml:"write_timeout"`

	// IdleTimeout bounds keep-alive idling. Default: 120s.
	IdleTimeout Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown. Default: 15s.
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// LoggingConfig contains structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is "json" or "text". Default: "json".
	Format string `yaml:"format"`
}

// StoreConfig selects the counter store backend.
type StoreConfig struct {
	// Backend is "memory" or "redis". Default: "memory".
	Backend string `yaml:"backend"`

	// Memory configures the in-process backend.
	Memory MemoryStoreConfig `yaml:"memory"`

	// Redis configures the shared Redis backend.
	Redis RedisStoreConfig `yaml:"redis"`
}

// MemoryStoreConfig configures the in-process counter store.
type MemoryStoreConfig struct {
	// CleanupInterval is how often stale windows are evicted.
	// Default: 1m.
	CleanupInterval Duration `yaml:"cleanup_interval"`
}

// RedisStoreConfig configures the Redis counter store.
type RedisStoreConfig struct {
	// Addr is host:port of the Redis server.
	Addr string `yaml:"addr"`

	// Password is the optional AUTH password.
	Password string `yaml:"password"`

	// DB is the Redis database number.
	DB int `yaml:"db"`
}

// ScopeConfig is the rate-limit rule for one scope.
type ScopeConfig struct {
	// Policy is "fail-open" or "fail-closed" and decides the behavior
	// when the counter store is unavailable. Default: "fail-open".
	Policy string `yaml:"policy"`

	// Tiers are the (window, max count) pairs enforced together.
	Tiers []TierConfig `yaml:"tiers"`
}

// TierConfig is one window/max pair within a scope.
type TierConfig struct {
	// Window is the fixed-window size (e.g., "1m", "1h", "24h").
	Window Duration `yaml:"window"`

	// MaxCount is the number of requests allowed per window.
	MaxCount int64 `yaml:"max_count"`
}

// MonitorConfig contains the periodic monitoring pipeline settings.
type MonitorConfig struct {
	// Enabled turns the monitoring loop on. Default: true.
	Enabled *bool `yaml:"enabled"`

	// Interval between ticks. Ignored when Schedule is set.
	// Default: 30s.
	Interval Duration `yaml:"interval"`

	// Schedule is an optional cron expression (standard five-field
	// syntax) that replaces the fixed interval, e.g. "*/5 * * * *".
	Schedule string `yaml:"schedule"`

	// Duration optionally bounds the whole monitoring run; once elapsed
	// no new ticks are spawned and any in-flight tick is cancelled.
	// Zero means run until shutdown.
	Duration Duration `yaml:"duration"`

	// ProbeTimeout bounds each individual probe. Default: 500ms.
	ProbeTimeout Duration `yaml:"probe_timeout"`

	// DiskPath is the mount point measured by the disk probe.
	// Default: "/".
	DiskPath string `yaml:"disk_path"`
}

// ThresholdConfig is one alerting threshold.
type ThresholdConfig struct {
	// Component is the sample component this threshold applies to
	// (e.g., "memory", "disk", "db-latency").
	Component string `yaml:"component"`

	// Operator is one of ">", ">=", "<", "<=".
	Operator string `yaml:"operator"`

	// Limit is the threshold value in the component's unit.
	Limit float64 `yaml:"limit"`

	// Severity is "warning" or "critical".
	Severity string `yaml:"severity"`

	// Type classifies the resulting alert for cool-down selection
	// (e.g., "performance", "system-error"). Default: "threshold".
	Type string `yaml:"type"`
}

// AlertingConfig contains alert throttling, routing, history, and
// channel settings.
type AlertingConfig struct {
	// DefaultCooldown applies to alert types without an explicit entry
	// in Cooldowns. Default: 15m.
	DefaultCooldown Duration `yaml:"default_cooldown"`

	// Cooldowns maps alert type to its minimum re-notification interval.
	Cooldowns map[string]Duration `yaml:"cooldowns"`

	// Routing maps severity ("warning", "critical") to the channel
	// names it is delivered to. An absent severity goes to all enabled
	// channels.
	Routing map[string][]string `yaml:"routing"`

	// ChannelTimeout bounds each delivery attempt. Default: 10s.
	ChannelTimeout Duration `yaml:"channel_timeout"`

	// History configures the alert history store backing the
	// /status/alerts endpoint.
	History HistoryConfig `yaml:"history"`

	// Channels configures the notification channels.
	Channels ChannelsConfig `yaml:"channels"`
}

// HistoryConfig configures the alert history store.
type HistoryConfig struct {
	// Backend is "memory" or "sqlite". Default: "memory".
	Backend string `yaml:"backend"`

	// Size is how many events the memory backend retains. Default: 100.
	Size int `yaml:"size"`

	// SQLitePath is the database file for the sqlite backend.
	SQLitePath string `yaml:"sqlite_path"`
}

// ChannelsConfig holds the per-channel settings.
type ChannelsConfig struct {
	Slack   SlackConfig   `yaml:"slack"`
	Discord DiscordConfig `yaml:"discord"`
	Webhook WebhookConfig `yaml:"webhook"`
	Email   EmailConfig   `yaml:"email"`
}

// SlackConfig configures the Slack incoming-webhook channel.
type SlackConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// DiscordConfig configures the Discord webhook channel.
type DiscordConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// WebhookConfig configures the generic JSON webhook channel.
type WebhookConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`

	// AuthToken, when set, is sent as a bearer token.
	AuthToken string `yaml:"auth_token"`
}

// EmailConfig configures the SMTP channel.
type EmailConfig struct {
	Enabled  bool     `yaml:"enabled"`
	SMTPHost string   `yaml:"smtp_host"`
	SMTPPort int      `yaml:"smtp_port"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	From     string   `yaml:"from"`
	To       []string `yaml:"to"`
}

// MonitorEnabled reports whether the monitoring loop should run,
// defaulting to true when unset.
func (c *Config) MonitorEnabled() bool {
	return c.Monitor.Enabled == nil || *c.Monitor.Enabled
}

package config

import "time"

// Default values applied to unset configuration fields.
const (
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 15 * time.Second

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultStoreBackend    = "memory"
	DefaultCleanupInterval = time.Minute

	DefaultMonitorInterval = 30 * time.Second
	DefaultProbeTimeout    = 500 * time.Millisecond
	DefaultDiskPath        = "/"

	DefaultCooldown       = 15 * time.Minute
	DefaultChannelTimeout = 10 * time.Second

	DefaultHistoryBackend = "memory"
	DefaultHistorySize    = 100
)

// ApplyDefaults fills unset fields with their default values. It never
// overwrites a value the user provided.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = Duration(DefaultReadTimeout)
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = Duration(DefaultWriteTimeout)
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = Duration(DefaultIdleTimeout)
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(DefaultShutdownTimeout)
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLogFormat
	}

	if cfg.Store.Backend == "" {
		cfg.Store.Backend = DefaultStoreBackend
	}
	if cfg.Store.Memory.CleanupInterval == 0 {
		cfg.Store.Memory.CleanupInterval = Duration(DefaultCleanupInterval)
	}

	for scope, sc := range cfg.Limits {
		if sc.Policy == "" {
			sc.Policy = "fail-open"
			cfg.Limits[scope] = sc
		}
	}

	if cfg.Monitor.Interval == 0 {
		cfg.Monitor.Interval = Duration(DefaultMonitorInterval)
	}
	if cfg.Monitor.ProbeTimeout == 0 {
		cfg.Monitor.ProbeTimeout = Duration(DefaultProbeTimeout)
	}
	if cfg.Monitor.DiskPath == "" {
		cfg.Monitor.DiskPath = DefaultDiskPath
	}

	for i, th := range cfg.Thresholds {
		if th.Type == "" {
			cfg.Thresholds[i].Type = "threshold"
		}
	}

	if cfg.Alerting.DefaultCooldown == 0 {
		cfg.Alerting.DefaultCooldown = Duration(DefaultCooldown)
	}
	if cfg.Alerting.ChannelTimeout == 0 {
		cfg.Alerting.ChannelTimeout = Duration(DefaultChannelTimeout)
	}
	if cfg.Alerting.History.Backend == "" {
		cfg.Alerting.History.Backend = DefaultHistoryBackend
	}
	if cfg.Alerting.History.Size == 0 {
		cfg.Alerting.History.Size = DefaultHistorySize
	}
	if cfg.Alerting.Channels.Email.SMTPPort == 0 {
		cfg.Alerting.Channels.Email.SMTPPort = 587
	}
}

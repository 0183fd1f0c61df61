package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"atelier-hq/vigil/pkg/cli"
	"atelier-hq/vigil/pkg/config"
	"atelier-hq/vigil/pkg/limits"
	"atelier-hq/vigil/pkg/limits/store"
	"atelier-hq/vigil/pkg/monitor"
	"atelier-hq/vigil/pkg/monitor/alert"
	"atelier-hq/vigil/pkg/monitor/history"
	"atelier-hq/vigil/pkg/monitor/notify"
	"atelier-hq/vigil/pkg/monitor/sampler"
	"atelier-hq/vigil/pkg/monitor/threshold"
	"atelier-hq/vigil/pkg/monitor/throttle"
	"atelier-hq/vigil/pkg/server"
	"atelier-hq/vigil/pkg/telemetry/logging"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Vigil daemon",
	Long: `Start the Vigil daemon with the specified configuration.

The daemon serves the operational HTTP endpoints, enforces rate limits
on the status endpoints, and runs the monitoring loop until shutdown.

Examples:
  # Start with default config
  vigil run

  # Start with custom config
  vigil run --config /etc/vigil/config.yaml

  # Override listen address
  vigil run --listen 0.0.0.0:8080

  # Validate config without starting
  vigil run --dry-run`,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the daemon")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}

	logger, err := logging.Setup(cfg.Logging, nil)
	if err != nil {
		return cli.NewConfigError("logging", err.Error())
	}

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	ctx := cli.SetupSignalHandler()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Counter store
	var (
		counterStore store.Store
		redisClient  *redis.Client
	)
	switch cfg.Store.Backend {
	case "redis":
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Store.Redis.Addr,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to redis at %s: %w", cfg.Store.Redis.Addr, err)
		}
		counterStore = store.NewRedisFromClient(redisClient)
		defer redisClient.Close()
		logger.Info("using redis counter store", "addr", cfg.Store.Redis.Addr)
	default:
		mem := store.NewMemoryWithConfig(store.MemoryConfig{
			CleanupInterval: cfg.Store.Memory.CleanupInterval.Std(),
		})
		counterStore = mem
		defer mem.Close()
		logger.Info("using in-memory counter store")
	}

	// Rate limiter
	limiter, err := limits.NewLimiter(limits.Config{
		Rules:   buildRules(cfg.Limits),
		Store:   counterStore,
		Metrics: limits.NewMetrics(registry),
		Logger:  logger,
	})
	if err != nil {
		return cli.NewConfigError("limits", err.Error())
	}
	fmt.Printf("✓ Rate limiter initialized (%d scopes)\n", len(limiter.Scopes()))

	// Monitoring pipeline
	var (
		mon   *monitor.Monitor
		sched *monitor.Scheduler
		hist  history.Store
		thr   *throttle.Throttle
	)
	if cfg.MonitorEnabled() {
		hist, err = buildHistory(cfg.Alerting.History)
		if err != nil {
			return fmt.Errorf("failed to create history store: %w", err)
		}
		defer hist.Close()

		thr = buildThrottle(cfg.Alerting, logger)
		mon = monitor.New(monitor.Config{
			Sampler:    buildSampler(cfg, logger, redisClient),
			Evaluator:  threshold.New(buildThresholds(cfg.Thresholds), logger),
			Throttle:   thr,
			Dispatcher: buildDispatcher(cfg.Alerting, logger),
			History:    hist,
			Metrics:    monitor.NewMetrics(registry),
			Logger:     logger,
		})

		sched, err = monitor.NewScheduler(monitor.SchedulerConfig{
			Monitor:  mon,
			Interval: cfg.Monitor.Interval.Std(),
			Schedule: cfg.Monitor.Schedule,
			MaxRun:   cfg.Monitor.Duration.Std(),
			Logger:   logger,
		})
		if err != nil {
			return cli.NewConfigError("monitor.schedule", err.Error())
		}

		fmt.Printf("✓ Monitoring pipeline initialized (%d thresholds)\n", len(cfg.Thresholds))
	} else {
		logger.Info("monitoring disabled")
	}

	// Operational HTTP server
	opts := server.Options{
		Config:   cfg.Server,
		Limiter:  limiter,
		History:  hist,
		Gatherer: registry,
		Ready: func(ctx context.Context) error {
			if redisClient != nil {
				return redisClient.Ping(ctx).Err()
			}
			return nil
		},
		Logger: logger,
	}
	if mon != nil {
		opts.Samples = mon
	}
	srv := server.New(opts)

	// Configuration hot reload. Thresholds and alert cool-downs apply
	// on the next monitoring tick; scope, channel, and server changes
	// need a restart because their wiring is built once.
	snapshot := config.NewSnapshot(cfg)
	watcher, err := config.NewWatcher(config.WatcherConfig{
		Path:     cfgFile,
		Snapshot: snapshot,
		Logger:   logger,
		OnReload: func(next *config.Config) {
			if mon != nil {
				mon.SetThresholds(buildThresholds(next.Thresholds))
				thr.SetCooldowns(buildCooldowns(next.Alerting), next.Alerting.DefaultCooldown.Std())
				logger.Info("configuration reloaded",
					"thresholds", len(next.Thresholds),
					"cooldowns", len(next.Alerting.Cooldowns),
				)
			}
			logger.Warn("scope, channel, and server changes require a restart")
		},
	})
	if err != nil {
		return cli.NewConfigError("", err.Error())
	}

	errChan := make(chan error, 2)
	go func() {
		if err := srv.Start(ctx); err != nil {
			errChan <- err
		}
	}()
	if sched != nil {
		go func() {
			if err := sched.Run(ctx); err != nil {
				errChan <- err
			}
		}()
	}
	go func() {
		if err := watcher.Watch(ctx); err != nil {
			logger.Error("config watcher stopped", "error", err)
		}
	}()

	fmt.Println()
	fmt.Printf("✓ Server listening on %s\n", cfg.Server.ListenAddress)
	fmt.Printf("✓ Health endpoint: http://%s/health\n", cfg.Server.ListenAddress)
	fmt.Printf("✓ Metrics endpoint: http://%s/metrics\n", cfg.Server.ListenAddress)
	fmt.Println("\nPress Ctrl+C to stop")

	select {
	case err := <-errChan:
		return cli.NewCommandError("run", err)
	case <-ctx.Done():
		fmt.Println("\nShutting down gracefully...")
		if err := srv.Shutdown(context.Background()); err != nil {
			return cli.NewCommandError("run", err)
		}
		fmt.Println("✓ Server stopped")
		return nil
	}
}

// buildRules converts the scope table into limiter rules.
func buildRules(scopes map[string]config.ScopeConfig) map[string]limits.Rule {
	rules := make(map[string]limits.Rule, len(scopes))
	for name, sc := range scopes {
		tiers := make([]limits.Tier, 0, len(sc.Tiers))
		for _, t := range sc.Tiers {
			tiers = append(tiers, limits.Tier{
				Window: t.Window.Std(),
				Max:    t.MaxCount,
			})
		}
		rules[name] = limits.Rule{
			Scope:  name,
			Tiers:  tiers,
			Policy: limits.FailurePolicy(sc.Policy),
		}
	}
	return rules
}

// buildSampler registers the built-in probes plus a Redis latency probe
// when the shared counter store is in use.
func buildSampler(cfg *config.Config, logger *slog.Logger, redisClient *redis.Client) *sampler.Sampler {
	s := sampler.New(sampler.Config{
		ProbeTimeout: cfg.Monitor.ProbeTimeout.Std(),
		Logger:       logger,
	})

	s.Register(sampler.MemoryProbe{})
	s.Register(sampler.GoroutineProbe{})
	s.Register(sampler.NewDiskProbe(cfg.Monitor.DiskPath))

	if redisClient != nil {
		s.Register(sampler.NewLatencyProbe("redis-latency", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}))
	}

	return s
}

// buildThresholds converts validated threshold configs. Operators were
// checked at load time; an unparsable one here is a programming error.
func buildThresholds(configs []config.ThresholdConfig) []threshold.Threshold {
	thresholds := make([]threshold.Threshold, 0, len(configs))
	for _, tc := range configs {
		op, err := threshold.ParseOperator(tc.Operator)
		if err != nil {
			continue
		}
		thresholds = append(thresholds, threshold.Threshold{
			Component: tc.Component,
			Operator:  op,
			Limit:     tc.Limit,
			Severity:  alert.Severity(tc.Severity),
			Type:      tc.Type,
		})
	}
	return thresholds
}

// buildThrottle converts the alerting cool-down table.
func buildThrottle(cfg config.AlertingConfig, logger *slog.Logger) *throttle.Throttle {
	return throttle.New(throttle.Config{
		Cooldowns:       buildCooldowns(cfg),
		DefaultCooldown: cfg.DefaultCooldown.Std(),
		Logger:          logger,
	})
}

func buildCooldowns(cfg config.AlertingConfig) map[string]time.Duration {
	cooldowns := make(map[string]time.Duration, len(cfg.Cooldowns))
	for alertType, d := range cfg.Cooldowns {
		cooldowns[alertType] = d.Std()
	}
	return cooldowns
}

// buildDispatcher creates the enabled channels and severity routing.
func buildDispatcher(cfg config.AlertingConfig, logger *slog.Logger) *notify.Dispatcher {
	var channels []notify.Channel
	if cfg.Channels.Slack.Enabled {
		channels = append(channels, notify.NewSlackChannel(cfg.Channels.Slack.WebhookURL, nil))
	}
	if cfg.Channels.Discord.Enabled {
		channels = append(channels, notify.NewDiscordChannel(cfg.Channels.Discord.WebhookURL, nil))
	}
	if cfg.Channels.Webhook.Enabled {
		channels = append(channels, notify.NewWebhookChannel(cfg.Channels.Webhook.URL, cfg.Channels.Webhook.AuthToken, nil))
	}
	if cfg.Channels.Email.Enabled {
		channels = append(channels, notify.NewEmailChannel(notify.EmailConfig{
			Host:     cfg.Channels.Email.SMTPHost,
			Port:     cfg.Channels.Email.SMTPPort,
			Username: cfg.Channels.Email.Username,
			Password: cfg.Channels.Email.Password,
			From:     cfg.Channels.Email.From,
			To:       cfg.Channels.Email.To,
		}))
	}

	routing := make(map[alert.Severity][]string, len(cfg.Routing))
	for severity, names := range cfg.Routing {
		routing[alert.Severity(severity)] = names
	}

	return notify.New(notify.Config{
		Channels:       channels,
		Routing:        routing,
		ChannelTimeout: cfg.ChannelTimeout.Std(),
		Logger:         logger,
	})
}

// buildHistory picks the alert history backend.
func buildHistory(cfg config.HistoryConfig) (history.Store, error) {
	if cfg.Backend == "sqlite" {
		return history.NewSQLiteStore(history.SQLiteConfig{
			Path:       cfg.SQLitePath,
			MaxEntries: cfg.Size,
		})
	}
	return history.NewMemoryStore(cfg.Size), nil
}

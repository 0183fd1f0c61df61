package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"atelier-hq/vigil/pkg/clock"
)

// DefaultInterval is the tick interval when unconfigured.
const DefaultInterval = 30 * time.Second

// Scheduler drives the monitor. By default it ticks on a fixed
// interval, starting with an immediate pass; a cron expression replaces
// the interval when configured. An optional maximum run duration stops
// the scheduler and cancels any in-flight tick, which keeps bounded
// monitoring runs (one-shot checks, CI probes) from outliving their
// allotted time.
type Scheduler struct {
	monitor  *Monitor
	interval time.Duration
	schedule string
	maxRun   time.Duration
	clock    clock.Clock
	logger   *slog.Logger
}

// SchedulerConfig configures a Scheduler.
type SchedulerConfig struct {
	Monitor *Monitor

	// Interval between ticks. Default: DefaultInterval.
	Interval time.Duration

	// Schedule is an optional cron expression. When set it replaces the
	// interval ticker.
	Schedule string

	// MaxRun bounds the total run. Zero means run until the context is
	// cancelled.
	MaxRun time.Duration

	// Clock supplies time; defaults to the system clock.
	Clock clock.Clock

	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// NewScheduler creates a Scheduler. An invalid cron expression is
// rejected here rather than at Run time.
func NewScheduler(cfg SchedulerConfig) (*Scheduler, error) {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.NewReal()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	if cfg.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
			return nil, fmt.Errorf("invalid cron schedule %q: %w", cfg.Schedule, err)
		}
	}

	return &Scheduler{
		monitor:  cfg.Monitor,
		interval: cfg.Interval,
		schedule: cfg.Schedule,
		maxRun:   cfg.MaxRun,
		clock:    cfg.Clock,
		logger:   cfg.Logger.With("component", "monitor.scheduler"),
	}, nil
}

// Run blocks, ticking the monitor until ctx is cancelled or the maximum
// run duration elapses. The deadline cancels an in-flight tick rather
// than waiting it out.
func (s *Scheduler) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if s.maxRun > 0 {
		go func() {
			select {
			case <-s.clock.After(s.maxRun):
				s.logger.Info("maximum run duration reached", "max_run", s.maxRun)
				cancel()
			case <-runCtx.Done():
			}
		}()
	}

	if s.schedule != "" {
		return s.runCron(runCtx)
	}
	return s.runInterval(runCtx)
}

func (s *Scheduler) runInterval(ctx context.Context) error {
	s.logger.Info("monitor scheduler started", "interval", s.interval)

	for {
		s.tick(ctx)

		select {
		case <-ctx.Done():
			s.logger.Info("monitor scheduler stopped")
			return nil
		case <-s.clock.After(s.interval):
		}
	}
}

func (s *Scheduler) runCron(ctx context.Context) error {
	c := cron.New()

	if _, err := c.AddFunc(s.schedule, func() { s.tick(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule monitoring: %w", err)
	}

	c.Start()
	s.logger.Info("monitor scheduler started", "schedule", s.schedule)

	<-ctx.Done()

	// Wait for a running tick to observe its cancelled context.
	<-c.Stop().Done()
	s.logger.Info("monitor scheduler stopped")
	return nil
}

func (s *Scheduler) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := s.monitor.RunTick(ctx); err != nil {
		s.logger.Error("monitoring tick failed", "error", err)
	}
}

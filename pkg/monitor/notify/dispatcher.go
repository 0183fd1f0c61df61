package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"atelier-hq/vigil/pkg/monitor/alert"
)

// DefaultChannelTimeout bounds one delivery attempt when unconfigured.
const DefaultChannelTimeout = 10 * time.Second

// maxAttempts is the initial send plus one retry.
const maxAttempts = 2

// Dispatcher fans an admitted alert out to its routed channels.
//
// Channels are independent: each send runs in its own goroutine under
// its own timeout, failures are recorded per channel and never block
// the others, and the dispatch returns once every channel has reached a
// terminal state. Total duration is bounded by the slowest channel's
// attempts, not by the sum over channels.
type Dispatcher struct {
	channels []Channel
	routing  map[alert.Severity][]string
	timeout  time.Duration
	logger   *slog.Logger
}

// Config configures a Dispatcher.
type Config struct {
	// Channels are the enabled channels.
	Channels []Channel

	// Routing maps severity to the channel names that receive it.
	// A severity with no entry goes to every channel.
	Routing map[alert.Severity][]string

	// ChannelTimeout bounds each delivery attempt.
	// Default: DefaultChannelTimeout.
	ChannelTimeout time.Duration

	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// New creates a Dispatcher.
func New(cfg Config) *Dispatcher {
	if cfg.ChannelTimeout <= 0 {
		cfg.ChannelTimeout = DefaultChannelTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Dispatcher{
		channels: cfg.Channels,
		routing:  cfg.Routing,
		timeout:  cfg.ChannelTimeout,
		logger:   cfg.Logger.With("component", "notify"),
	}
}

// Dispatch sends ev to every channel routed for its severity,
// concurrently, and returns one result per channel. It never returns an
// error: per-channel failures are recorded in the results. Cancelling
// ctx abandons in-flight sends; they are reported as failed, never left
// as unobserved work.
func (d *Dispatcher) Dispatch(ctx context.Context, ev alert.Event) []ChannelResult {
	selected := d.selectChannels(ev.Severity)
	if len(selected) == 0 {
		d.logger.Warn("no channels routed for severity",
			"severity", ev.Severity,
			"alert_component", ev.Component,
		)
		return nil
	}

	results := make([]ChannelResult, len(selected))
	var wg sync.WaitGroup

	for i, ch := range selected {
		wg.Add(1)
		go func(i int, ch Channel) {
			defer wg.Done()
			results[i] = d.sendWithRetry(ctx, ch, ev)
		}(i, ch)
	}
	wg.Wait()

	for _, r := range results {
		if r.Status == StatusFailed {
			d.logger.Error("alert delivery failed",
				"channel", r.Channel,
				"attempts", r.Attempts,
				"error", r.Error,
				"alert_id", ev.ID,
			)
		} else {
			d.logger.Info("alert delivered",
				"channel", r.Channel,
				"attempts", r.Attempts,
				"alert_id", ev.ID,
			)
		}
	}

	return results
}

// sendWithRetry performs the initial attempt and at most one retry with
// exponential backoff. Each attempt runs under its own timeout.
func (d *Dispatcher) sendWithRetry(ctx context.Context, ch Channel, ev alert.Event) ChannelResult {
	start := time.Now()
	attempts := 0

	operation := func() (struct{}, error) {
		attempts++

		attemptCtx, cancel := context.WithTimeout(ctx, d.timeout)
		defer cancel()

		return struct{}{}, ch.Send(attemptCtx, ev)
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = 500 * time.Millisecond

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(expo),
		backoff.WithMaxTries(maxAttempts),
	)

	result := ChannelResult{
		Channel:  ch.Name(),
		Attempts: attempts,
		Duration: time.Since(start),
	}
	if err != nil {
		result.Status = StatusFailed
		result.Error = (&ChannelError{Channel: ch.Name(), Err: err}).Error()
	} else {
		result.Status = StatusDelivered
	}
	return result
}

// selectChannels applies severity routing. Channels are matched by name;
// a severity without a routing entry selects all channels.
func (d *Dispatcher) selectChannels(severity alert.Severity) []Channel {
	names, routed := d.routing[severity]
	if !routed {
		return d.channels
	}

	allowed := make(map[string]bool, len(names))
	for _, name := range names {
		allowed[name] = true
	}

	var selected []Channel
	for _, ch := range d.channels {
		if allowed[ch.Name()] {
			selected = append(selected, ch)
		}
	}
	return selected
}

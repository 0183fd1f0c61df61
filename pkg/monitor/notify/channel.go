package notify

import (
	"context"
	"fmt"

	"atelier-hq/vigil/pkg/monitor/alert"
)

// Channel delivers an alert to one destination. Implementations own
// their wire format (Slack/Discord webhook JSON, SMTP message); the
// dispatcher owns timeouts, retries, and failure isolation.
type Channel interface {
	// Name identifies the channel for routing and result reporting.
	Name() string

	// Send delivers the alert, honoring ctx cancellation.
	Send(ctx context.Context, ev alert.Event) error
}

// ChannelError wraps a delivery failure with its channel name.
type ChannelError struct {
	Channel string
	Err     error
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("channel %s: %v", e.Channel, e.Err)
}

func (e *ChannelError) Unwrap() error {
	return e.Err
}

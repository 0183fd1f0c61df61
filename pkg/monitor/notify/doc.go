// Package notify fans admitted alerts out to notification channels.
//
// Channels (Slack, Discord, generic webhook, SMTP email) own their wire
// formats; the Dispatcher owns everything operational: concurrent
// fan-out, per-attempt timeouts, one retry with exponential backoff,
// severity-based channel routing, and failure isolation so one broken
// channel never blocks delivery to the others.
//
// An alert's terminal state is delivered, partially-delivered, or failed
// (or suppressed upstream by the throttle). Delivery failures are
// operator-visible through logs and metrics only.
package notify

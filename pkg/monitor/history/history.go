package history

import (
	"context"

	"atelier-hq/vigil/pkg/monitor/alert"
	"atelier-hq/vigil/pkg/monitor/notify"
)

// DefaultSize is how many entries a store keeps when unconfigured.
const DefaultSize = 100

// Entry is one dispatched alert together with its delivery outcome.
type Entry struct {
	Event   alert.Event    `json:"event"`
	Outcome notify.Outcome `json:"outcome"`
}

// Store keeps a bounded record of dispatched alerts, newest first.
type Store interface {
	// Append records an entry, evicting the oldest once the store is
	// at capacity.
	Append(ctx context.Context, e Entry) error

	// Recent returns up to limit entries, newest first. limit <= 0
	// means all retained entries.
	Recent(ctx context.Context, limit int) ([]Entry, error)

	// Close releases store resources.
	Close() error
}

package audit

import "context"

// Store persists audit entries.
type Store interface {
	// Append writes one immutable entry.
	Append(ctx context.Context, entry Entry) error

	// ListRecentByUser returns up to limit entries, most recent first.
	ListRecentByUser(ctx context.Context, userID string, limit int) ([]Entry, error)
}

// Sink receives entries for out-of-band fan-out (e.g. Kafka). Delivery is
// best-effort; a sink must never block the caller.
type Sink interface {
	Publish(entry Entry)
}

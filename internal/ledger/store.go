package ledger

import (
	"context"
	"time"
)

// Store is the append-only transaction ledger.
type Store interface {
	// Append writes one immutable transaction.
	Append(ctx context.Context, tx Transaction) error

	// CountByTypeSince counts a user's transactions of the given type with
	// created_at >= since.
	CountByTypeSince(ctx context.Context, userID string, typ TransactionType, since time.Time) (int, error)

	// ListRecentByUser returns up to limit transactions, most recent first.
	ListRecentByUser(ctx context.Context, userID string, limit int) ([]Transaction, error)
}

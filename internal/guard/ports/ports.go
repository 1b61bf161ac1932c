// Package ports defines the narrow collaborator interfaces the guard
// depends on. Stores implement them directly; tests substitute mocks.
package ports

import (
	"context"
	"time"

	"nadawallet/internal/audit"
)

//go:generate mockgen -source=ports.go -destination=../mocks/mocks.go -package=mocks

// ExchangeCounter answers "how many exchanges has this user made since T".
// Backed by the ledger in the default wiring, or by the Redis velocity
// index when configured.
type ExchangeCounter interface {
	CountExchangesSince(ctx context.Context, userID string, since time.Time) (int, error)
}

// AccountDirectory resolves account creation timestamps for the
// new-account fraud signal.
type AccountDirectory interface {
	AccountCreatedAt(ctx context.Context, userID string) (time.Time, error)
}

// AuditTrail records guard decisions and serves the IP-diversity signal.
// Record is best-effort by contract: implementations never surface errors.
type AuditTrail interface {
	Record(ctx context.Context, entry audit.Entry)
	RecentByUser(ctx context.Context, userID string, limit int) ([]audit.Entry, error)
}

package account

import (
	"context"
	"time"

	dErrors "nadawallet/pkg/domain-errors"
)

// ErrInsufficientPoints is returned by Debit when the balance cannot cover
// the amount. It is the storage layer's last-line defence: limit checks are
// advisory and racy, the conditional debit is not.
var ErrInsufficientPoints = dErrors.New(dErrors.CodeConflict, "insufficient points")

// ErrNotFound is returned when no account exists for a user.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "account not found")

// Store manages wallet accounts.
type Store interface {
	// Get returns the account for a user, or ErrNotFound.
	Get(ctx context.Context, userID string) (*Account, error)

	// Create inserts a new account.
	Create(ctx context.Context, acct Account) error

	// Debit atomically subtracts points if the balance covers them,
	// returning the new balance or ErrInsufficientPoints.
	Debit(ctx context.Context, userID string, points int64) (int64, error)

	// Credit atomically adds points, returning the new balance.
	Credit(ctx context.Context, userID string, points int64) (int64, error)

	// AccountCreatedAt returns the account creation timestamp, or
	// ErrNotFound. Satisfies the guard's AccountDirectory port.
	AccountCreatedAt(ctx context.Context, userID string) (time.Time, error)
}

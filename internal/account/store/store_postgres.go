package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"nadawallet/internal/account"
)

// PostgresStore persists wallet accounts in PostgreSQL.
//
// Schema:
//
//	CREATE TABLE wallet_accounts (
//	    user_id        TEXT PRIMARY KEY,
//	    points_balance BIGINT NOT NULL DEFAULT 0 CHECK (points_balance >= 0),
//	    created_at     TIMESTAMPTZ NOT NULL,
//	    updated_at     TIMESTAMPTZ NOT NULL
//	);
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, userID string) (*account.Account, error) {
	query := `
		SELECT user_id, points_balance, created_at, updated_at
		FROM wallet_accounts
		WHERE user_id = $1
	`
	var acct account.Account
	err := s.db.QueryRowContext(ctx, query, userID).
		Scan(&acct.UserID, &acct.PointsBalance, &acct.CreatedAt, &acct.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, account.ErrNotFound
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return &acct, nil
}

func (s *PostgresStore) Create(ctx context.Context, acct account.Account) error {
	if acct.UpdatedAt.IsZero() {
		acct.UpdatedAt = acct.CreatedAt
	}
	query := `
		INSERT INTO wallet_accounts (user_id, points_balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := s.db.ExecContext(ctx, query, acct.UserID, acct.PointsBalance, acct.CreatedAt, acct.UpdatedAt); err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

// Debit is a single conditional statement so concurrent exchanges can never
// drive a balance negative, whatever the advisory checks concluded.
func (s *PostgresStore) Debit(ctx context.Context, userID string, points int64) (int64, error) {
	query := `
		UPDATE wallet_accounts
		SET points_balance = points_balance - $2, updated_at = NOW()
		WHERE user_id = $1 AND points_balance >= $2
		RETURNING points_balance
	`
	var balance int64
	err := s.db.QueryRowContext(ctx, query, userID, points).Scan(&balance)
	if err != nil {
		if err == sql.ErrNoRows {
			return s.debitFailureReason(ctx, userID)
		}
		return 0, fmt.Errorf("debit account: %w", err)
	}
	return balance, nil
}

// debitFailureReason distinguishes a missing account from an uncovered debit.
func (s *PostgresStore) debitFailureReason(ctx context.Context, userID string) (int64, error) {
	if _, err := s.Get(ctx, userID); err != nil {
		return 0, err
	}
	return 0, account.ErrInsufficientPoints
}

func (s *PostgresStore) Credit(ctx context.Context, userID string, points int64) (int64, error) {
	query := `
		UPDATE wallet_accounts
		SET points_balance = points_balance + $2, updated_at = NOW()
		WHERE user_id = $1
		RETURNING points_balance
	`
	var balance int64
	err := s.db.QueryRowContext(ctx, query, userID, points).Scan(&balance)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, account.ErrNotFound
		}
		return 0, fmt.Errorf("credit account: %w", err)
	}
	return balance, nil
}

func (s *PostgresStore) AccountCreatedAt(ctx context.Context, userID string) (time.Time, error) {
	query := `SELECT created_at FROM wallet_accounts WHERE user_id = $1`
	var createdAt time.Time
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return time.Time{}, account.ErrNotFound
		}
		return time.Time{}, fmt.Errorf("account created_at: %w", err)
	}
	return createdAt, nil
}

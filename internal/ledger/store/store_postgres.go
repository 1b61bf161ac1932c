package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"nadawallet/internal/ledger"
)

// PostgresStore persists the transaction ledger in PostgreSQL.
// This store is pure I/O; window math and limit policy belong to the guard.
//
// Schema:
//
//	CREATE TABLE wallet_transactions (
//	    id               UUID PRIMARY KEY,
//	    user_id          TEXT NOT NULL,
//	    transaction_type TEXT NOT NULL,
//	    points           BIGINT NOT NULL,
//	    created_at       TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX wallet_transactions_user_type_created_idx
//	    ON wallet_transactions (user_id, transaction_type, created_at DESC);
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, tx ledger.Transaction) error {
	query := `
		INSERT INTO wallet_transactions (id, user_id, transaction_type, points, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := s.db.ExecContext(ctx, query, tx.ID, tx.UserID, string(tx.Type), tx.Points, tx.CreatedAt); err != nil {
		return fmt.Errorf("append transaction: %w", err)
	}
	return nil
}

func (s *PostgresStore) CountByTypeSince(ctx context.Context, userID string, typ ledger.TransactionType, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM wallet_transactions
		WHERE user_id = $1 AND transaction_type = $2 AND created_at >= $3
	`
	var count int
	if err := s.db.QueryRowContext(ctx, query, userID, string(typ), since).Scan(&count); err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) ListRecentByUser(ctx context.Context, userID string, limit int) ([]ledger.Transaction, error) {
	query := `
		SELECT id, user_id, transaction_type, points, created_at
		FROM wallet_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []ledger.Transaction
	for rows.Next() {
		var tx ledger.Transaction
		var typ string
		if err := rows.Scan(&tx.ID, &tx.UserID, &typ, &tx.Points, &tx.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Type = ledger.TransactionType(typ)
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return txs, nil
}

// CountExchangesSince satisfies the guard's ExchangeCounter port.
func (s *PostgresStore) CountExchangesSince(ctx context.Context, userID string, since time.Time) (int, error) {
	return s.CountByTypeSince(ctx, userID, ledger.TypeExchange, since)
}

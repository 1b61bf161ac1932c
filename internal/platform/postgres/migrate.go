package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// Migrate applies the wallet schema. Statements are idempotent so startup
// can run them unconditionally.
func Migrate(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS wallet_accounts (
			user_id        TEXT PRIMARY KEY,
			points_balance BIGINT NOT NULL DEFAULT 0 CHECK (points_balance >= 0),
			created_at     TIMESTAMPTZ NOT NULL,
			updated_at     TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS wallet_transactions (
			id               UUID PRIMARY KEY,
			user_id          TEXT NOT NULL,
			transaction_type TEXT NOT NULL,
			points           BIGINT NOT NULL,
			created_at       TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS wallet_transactions_user_type_created_idx
			ON wallet_transactions (user_id, transaction_type, created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS wallet_audit_log (
			id         UUID PRIMARY KEY,
			user_id    TEXT NOT NULL,
			action     TEXT NOT NULL,
			details    JSONB,
			ip_address TEXT,
			user_agent TEXT,
			success    BOOLEAN NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS wallet_audit_log_user_created_idx
			ON wallet_audit_log (user_id, created_at DESC)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"nadawallet/internal/audit"
)

// PostgresStore persists audit entries in PostgreSQL.
//
// Schema:
//
//	CREATE TABLE wallet_audit_log (
//	    id         UUID PRIMARY KEY,
//	    user_id    TEXT NOT NULL,
//	    action     TEXT NOT NULL,
//	    details    JSONB,
//	    ip_address TEXT,
//	    user_agent TEXT,
//	    success    BOOLEAN NOT NULL,
//	    created_at TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX wallet_audit_log_user_created_idx
//	    ON wallet_audit_log (user_id, created_at DESC);
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, entry audit.Entry) error {
	var details []byte
	if entry.Details != nil {
		var err error
		details, err = json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("marshal audit details: %w", err)
		}
	}

	query := `
		INSERT INTO wallet_audit_log (id, user_id, action, details, ip_address, user_agent, success, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		entry.UserID,
		entry.Action,
		nullBytes(details),
		nullString(entry.IPAddress),
		nullString(entry.UserAgent),
		entry.Success,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListRecentByUser(ctx context.Context, userID string, limit int) ([]audit.Entry, error) {
	query := `
		SELECT id, user_id, action, details, ip_address, user_agent, success, created_at
		FROM wallet_audit_log
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []audit.Entry
	for rows.Next() {
		var entry audit.Entry
		var details []byte
		var ip, ua sql.NullString
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Action, &details, &ip, &ua, &entry.Success, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &entry.Details); err != nil {
				return nil, fmt.Errorf("unmarshal audit details: %w", err)
			}
		}
		entry.IPAddress = ip.String
		entry.UserAgent = ua.String
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}

// Package audit is the append-only record of wallet guard decisions.
// One store serves both writers and the guard's IP-diversity signal, so
// readers always see what was written.
package audit

import "time"

// Actions recorded by the wallet service.
const (
	ActionExchangeAttempt = "exchange_attempt"
	ActionExchangeCommit  = "exchange_commit"
)

// Entry is one immutable audit record. Entries are written once per guard
// invocation, whatever the outcome, and never mutated or deleted.
type Entry struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Action    string         `json:"action"`
	Details   map[string]any `json:"details,omitempty"`
	IPAddress string         `json:"ip_address,omitempty"`
	UserAgent string         `json:"user_agent,omitempty"`
	Success   bool           `json:"success"`
	CreatedAt time.Time      `json:"created_at"`
}

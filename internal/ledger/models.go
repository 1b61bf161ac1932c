package ledger

import "time"

// TransactionType tags ledger entries. The wallet guard only inspects
// exchanges; earns exist so the ledger can carry the full points economy.
type TransactionType string

const (
	TypeExchange TransactionType = "exchange"
	TypeEarn     TransactionType = "earn"
)

// IsValid checks if the transaction type is one of the supported values.
func (t TransactionType) IsValid() bool {
	return t == TypeExchange || t == TypeEarn
}

// Transaction is an immutable ledger entry. The ledger is append-only:
// nothing updates or deletes a row once written.
type Transaction struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Type      TransactionType `json:"transaction_type"`
	Points    int64           `json:"points"`
	CreatedAt time.Time       `json:"created_at"`
}

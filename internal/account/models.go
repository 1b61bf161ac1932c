package account

import "time"

// Account is the wallet-facing view of a user: current NADA balance and the
// creation timestamp the guard's new-account signal reads.
type Account struct {
	UserID        string    `json:"user_id"`
	PointsBalance int64     `json:"points_balance"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

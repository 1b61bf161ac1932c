package handler

import (
	"nadawallet/internal/account"
	"nadawallet/internal/exchange"
	dErrors "nadawallet/pkg/domain-errors"
)

// ExchangeRequest is the POST /wallet/exchange payload.
type ExchangeRequest struct {
	Points int64 `json:"points"`
}

func (r ExchangeRequest) Validate() error {
	if r.Points <= 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "points must be positive")
	}
	return nil
}

// ExchangeResponse mirrors exchange.Result on the wire.
type ExchangeResponse struct {
	Allowed        bool     `json:"allowed"`
	Reason         string   `json:"reason,omitempty"`
	RetryAfter     int      `json:"retry_after,omitempty"`
	RemainingToday int64    `json:"remaining_today"`
	NewBalance     int64    `json:"new_balance"`
	TransactionID  string   `json:"transaction_id,omitempty"`
	Flagged        bool     `json:"flagged"`
	RiskScore      int      `json:"risk_score"`
	RiskReasons    []string `json:"risk_reasons,omitempty"`
}

func fromResult(res *exchange.Result) ExchangeResponse {
	return ExchangeResponse{
		Allowed:        res.Allowed,
		Reason:         res.Reason,
		RetryAfter:     res.RetryAfter,
		RemainingToday: res.RemainingToday,
		NewBalance:     res.NewBalance,
		TransactionID:  res.TransactionID,
		Flagged:        res.Flagged,
		RiskScore:      res.RiskScore,
		RiskReasons:    res.RiskReasons,
	}
}

// BalanceResponse is the GET /wallet/balance payload.
type BalanceResponse struct {
	UserID        string `json:"user_id"`
	PointsBalance int64  `json:"points_balance"`
}

func fromAccount(acct *account.Account) BalanceResponse {
	return BalanceResponse{
		UserID:        acct.UserID,
		PointsBalance: acct.PointsBalance,
	}
}

// LimitsResponse is the GET /wallet/limits payload.
type LimitsResponse struct {
	DailyLimit     int   `json:"daily_limit"`
	DailyRemaining int64 `json:"daily_remaining"`
	RateLimited    bool  `json:"rate_limited"`
	RetryAfter     int   `json:"retry_after,omitempty"`
	MaxPerExchange int64 `json:"max_per_exchange"`
}

func fromLimits(status *exchange.LimitsStatus) LimitsResponse {
	return LimitsResponse{
		DailyLimit:     status.DailyLimit,
		DailyRemaining: status.DailyRemaining,
		RateLimited:    status.RateLimited,
		RetryAfter:     status.RetryAfter,
		MaxPerExchange: status.MaxPerExchange,
	}
}

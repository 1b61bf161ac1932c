package guard

// Denial reasons surfaced to callers and recorded in audit details.
const (
	ReasonRateLimited        = "rate limit exceeded"
	ReasonDailyLimitReached  = "daily exchange limit reached"
	ReasonAmountCapExceeded  = "exchange amount exceeds per-transaction cap"
	ReasonInsufficientPoints = "insufficient points"
)

// Fraud signal reasons in their fixed evaluation order.
const (
	SignalHighValue   = "high value exchange"
	SignalRapid       = "rapid successive exchanges"
	SignalNewAccount  = "new account"
	SignalIPDiversity = "multiple IP addresses detected"
)

// Check names used for metrics and audit details.
const (
	checkRateLimit = "rate_limit"
	checkDaily     = "daily_limit"
	checkAmount    = "amount_cap"
	checkBalance   = "min_balance"
)

// CheckResult is the outcome of a single policy check.
type CheckResult struct {
	Allowed bool `json:"allowed"`
	// Reason explains a denial; empty on allow.
	Reason string `json:"reason,omitempty"`
	// RetryAfter is a suggested delay in seconds, set on rate-limit denials.
	RetryAfter int `json:"retry_after,omitempty"`
	// Remaining is the leftover quota (daily check) or leftover balance
	// (minimum-balance check) for caller visibility.
	Remaining int64 `json:"remaining"`
}

// RiskAssessment is the additive, explainable fraud score for one request.
// It flags; it does not block. Denial-on-suspicion is the caller's policy.
type RiskAssessment struct {
	RiskScore  int      `json:"risk_score"`
	Reasons    []string `json:"reasons,omitempty"`
	Suspicious bool     `json:"suspicious"`
}

// Request carries everything the guard needs to evaluate one exchange.
// CurrentPoints is caller-supplied; the guard does not re-fetch balances.
type Request struct {
	UserID        string
	Points        int64
	CurrentPoints int64
	IPAddress     string
	UserAgent     string
}

// Decision is the guard's overall verdict. Risk is nil when an earlier hard
// deny short-circuited before scoring ran.
type Decision struct {
	Allowed        bool            `json:"allowed"`
	Reason         string          `json:"reason,omitempty"`
	RetryAfter     int             `json:"retry_after,omitempty"`
	DailyRemaining int64           `json:"daily_remaining"`
	BalanceAfter   int64           `json:"balance_after"`
	Risk           *RiskAssessment `json:"risk,omitempty"`
}

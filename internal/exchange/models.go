package exchange

// Result is the outcome of one exchange attempt. A denied attempt is a
// normal result, not an error; errors are reserved for infrastructure
// failures and unknown accounts.
type Result struct {
	Allowed        bool
	Reason         string
	RetryAfter     int
	RemainingToday int64
	NewBalance     int64
	TransactionID  string
	Flagged        bool
	RiskScore      int
	RiskReasons    []string
}

// LimitsStatus reports the caller's current standing against the exchange
// limits without attempting an exchange.
type LimitsStatus struct {
	DailyLimit     int
	DailyRemaining int64
	RateLimited    bool
	RetryAfter     int
	MaxPerExchange int64
}

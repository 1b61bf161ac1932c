package guard

import "time"

// Config holds the guard's policy knobs. Defaults mirror production policy;
// tests and deployments override through WithConfig.
type Config struct {
	// Rate limiting: trailing-window exchange count.
	RateLimitWindow     time.Duration
	RateLimitMax        int
	RateLimitRetryAfter int // seconds

	// Daily quota: exchanges since local midnight.
	DailyLimitMax int

	// Per-transaction cap.
	MaxExchangePoints int64

	// Fraud signal weights and thresholds.
	HighValuePoints     int64
	HighValueScore      int
	RapidWindow         time.Duration
	RapidCount          int
	RapidScore          int
	NewAccountAge       time.Duration
	NewAccountScore     int
	RecentAuditEntries  int
	DistinctIPThreshold int
	IPDiversityScore    int
	SuspicionThreshold  int
}

// DefaultConfig returns production policy values.
func DefaultConfig() *Config {
	return &Config{
		RateLimitWindow:     5 * time.Minute,
		RateLimitMax:        5,
		RateLimitRetryAfter: 300,

		DailyLimitMax: 10,

		MaxExchangePoints: 5000,

		HighValuePoints:     2000,
		HighValueScore:      20,
		RapidWindow:         time.Minute,
		RapidCount:          2,
		RapidScore:          30,
		NewAccountAge:       24 * time.Hour,
		NewAccountScore:     25,
		RecentAuditEntries:  5,
		DistinctIPThreshold: 3,
		IPDiversityScore:    15,
		SuspicionThreshold:  50,
	}
}

// Package guard implements the wallet transaction guard: the pre-commit
// gate every NADA exchange passes before the caller debits a balance.
// It combines rate limiting, a daily quota, a per-transaction cap,
// minimum-balance validation, and explainable fraud scoring, and audits
// every decision. The guard never mutates balances.
package guard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"nadawallet/internal/audit"
	"nadawallet/internal/guard/metrics"
	"nadawallet/internal/guard/ports"
	"nadawallet/pkg/requestcontext"
)

type Service struct {
	counter  ports.ExchangeCounter
	accounts ports.AccountDirectory
	trail    ports.AuditTrail
	logger   *slog.Logger
	metrics  *metrics.Metrics
	config   *Config
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithConfig(cfg *Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

func New(counter ports.ExchangeCounter, accounts ports.AccountDirectory, trail ports.AuditTrail, opts ...Option) (*Service, error) {
	if counter == nil {
		return nil, fmt.Errorf("exchange counter is required")
	}
	if accounts == nil {
		return nil, fmt.Errorf("account directory is required")
	}
	if trail == nil {
		return nil, fmt.Errorf("audit trail is required")
	}

	svc := &Service{
		counter:  counter,
		accounts: accounts,
		trail:    trail,
		config:   DefaultConfig(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// CheckRateLimit counts exchanges in the trailing window. A failing counter
// fails open: exchange availability outranks strict enforcement while the
// ledger is degraded, and the degradation is logged for operators.
func (s *Service) CheckRateLimit(ctx context.Context, userID string) CheckResult {
	now := requestcontext.Now(ctx)

	count, err := s.counter.CountExchangesSince(ctx, userID, now.Add(-s.config.RateLimitWindow))
	if err != nil {
		s.failOpen(ctx, checkRateLimit, userID, err)
		return CheckResult{Allowed: true}
	}

	allowed := count < s.config.RateLimitMax
	if s.metrics != nil {
		s.metrics.RecordCheck(checkRateLimit, allowed)
	}
	if !allowed {
		return CheckResult{
			Allowed:    false,
			Reason:     ReasonRateLimited,
			RetryAfter: s.config.RateLimitRetryAfter,
		}
	}
	return CheckResult{Allowed: true}
}

// CheckDailyLimit counts exchanges since local midnight and reports the
// remaining quota. Fails open with a full quota on counter errors.
func (s *Service) CheckDailyLimit(ctx context.Context, userID string) CheckResult {
	now := requestcontext.Now(ctx)
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	count, err := s.counter.CountExchangesSince(ctx, userID, midnight)
	if err != nil {
		s.failOpen(ctx, checkDaily, userID, err)
		return CheckResult{Allowed: true, Remaining: int64(s.config.DailyLimitMax)}
	}

	allowed := count < s.config.DailyLimitMax
	if s.metrics != nil {
		s.metrics.RecordCheck(checkDaily, allowed)
	}
	if !allowed {
		return CheckResult{Allowed: false, Reason: ReasonDailyLimitReached, Remaining: 0}
	}
	return CheckResult{Allowed: true, Remaining: int64(s.config.DailyLimitMax - count)}
}

// CheckExchangeAmount enforces the per-transaction cap. Pure; positivity of
// points is the caller's precondition.
func (s *Service) CheckExchangeAmount(points int64) CheckResult {
	allowed := points <= s.config.MaxExchangePoints
	if s.metrics != nil {
		s.metrics.RecordCheck(checkAmount, allowed)
	}
	if !allowed {
		return CheckResult{Allowed: false, Reason: ReasonAmountCapExceeded}
	}
	return CheckResult{Allowed: true}
}

// ValidateMinimumBalance checks the caller-supplied balance covers the
// exchange. Pure integer arithmetic; Remaining is the balance after debit.
func (s *Service) ValidateMinimumBalance(currentPoints, points int64) CheckResult {
	remaining := currentPoints - points
	allowed := remaining >= 0
	if s.metrics != nil {
		s.metrics.RecordCheck(checkBalance, allowed)
	}
	if !allowed {
		return CheckResult{Allowed: false, Reason: ReasonInsufficientPoints}
	}
	return CheckResult{Allowed: true, Remaining: remaining}
}

// AssessRisk computes the additive fraud score. The three I/O-backed
// signals are gathered concurrently; any signal whose query fails degrades
// to not-triggered, so scoring as a whole never fails. Reasons keep the
// fixed signal order regardless of gather timing.
func (s *Service) AssessRisk(ctx context.Context, req Request) *RiskAssessment {
	now := requestcontext.Now(ctx)

	highValue := req.Points >= s.config.HighValuePoints

	var rapid, newAccount, ipDiverse bool
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		count, err := s.counter.CountExchangesSince(gctx, req.UserID, now.Add(-s.config.RapidWindow))
		if err != nil {
			s.signalDegraded(ctx, SignalRapid, req.UserID, err)
			return nil
		}
		rapid = count >= s.config.RapidCount
		return nil
	})

	g.Go(func() error {
		createdAt, err := s.accounts.AccountCreatedAt(gctx, req.UserID)
		if err != nil {
			s.signalDegraded(ctx, SignalNewAccount, req.UserID, err)
			return nil
		}
		newAccount = now.Sub(createdAt) < s.config.NewAccountAge
		return nil
	})

	if req.IPAddress != "" {
		g.Go(func() error {
			entries, err := s.trail.RecentByUser(gctx, req.UserID, s.config.RecentAuditEntries)
			if err != nil {
				s.signalDegraded(ctx, SignalIPDiversity, req.UserID, err)
				return nil
			}
			distinct := make(map[string]struct{}, len(entries))
			for _, entry := range entries {
				if entry.IPAddress != "" {
					distinct[entry.IPAddress] = struct{}{}
				}
			}
			ipDiverse = len(distinct) > s.config.DistinctIPThreshold
			return nil
		})
	}

	// Goroutines never return errors; Wait only synchronizes.
	_ = g.Wait()

	assessment := &RiskAssessment{}
	if highValue {
		assessment.RiskScore += s.config.HighValueScore
		assessment.Reasons = append(assessment.Reasons, SignalHighValue)
	}
	if rapid {
		assessment.RiskScore += s.config.RapidScore
		assessment.Reasons = append(assessment.Reasons, SignalRapid)
	}
	if newAccount {
		assessment.RiskScore += s.config.NewAccountScore
		assessment.Reasons = append(assessment.Reasons, SignalNewAccount)
	}
	if ipDiverse {
		assessment.RiskScore += s.config.IPDiversityScore
		assessment.Reasons = append(assessment.Reasons, SignalIPDiversity)
	}
	assessment.Suspicious = assessment.RiskScore >= s.config.SuspicionThreshold

	if s.metrics != nil {
		s.metrics.ObserveRiskScore(assessment.RiskScore, assessment.Suspicious)
	}
	return assessment
}

// Evaluate runs the full check sequence for one exchange request: cheap
// pure checks first, then the I/O-backed limits, then advisory fraud
// scoring, short-circuiting on the first hard deny. The outcome is audited
// unconditionally; suspicion alone never denies here.
func (s *Service) Evaluate(ctx context.Context, req Request) Decision {
	details := map[string]any{
		"points":         req.Points,
		"current_points": req.CurrentPoints,
	}

	decision := s.runChecks(ctx, req, details)

	if s.metrics != nil {
		s.metrics.RecordDecision(decision.Allowed, decision.Reason)
	}
	s.audit(ctx, req, decision, details)
	return decision
}

func (s *Service) runChecks(ctx context.Context, req Request, details map[string]any) Decision {
	if res := s.CheckExchangeAmount(req.Points); !res.Allowed {
		details["denied_check"] = checkAmount
		return Decision{Reason: res.Reason}
	}

	if res := s.CheckRateLimit(ctx, req.UserID); !res.Allowed {
		details["denied_check"] = checkRateLimit
		return Decision{Reason: res.Reason, RetryAfter: res.RetryAfter}
	}

	daily := s.CheckDailyLimit(ctx, req.UserID)
	details["daily_remaining"] = daily.Remaining
	if !daily.Allowed {
		details["denied_check"] = checkDaily
		return Decision{Reason: daily.Reason}
	}

	balance := s.ValidateMinimumBalance(req.CurrentPoints, req.Points)
	if !balance.Allowed {
		details["denied_check"] = checkBalance
		return Decision{Reason: balance.Reason, DailyRemaining: daily.Remaining}
	}
	details["balance_after"] = balance.Remaining

	risk := s.AssessRisk(ctx, req)
	details["risk_score"] = risk.RiskScore
	details["suspicious"] = risk.Suspicious
	if len(risk.Reasons) > 0 {
		details["risk_reasons"] = risk.Reasons
	}

	return Decision{
		Allowed:        true,
		DailyRemaining: daily.Remaining,
		BalanceAfter:   balance.Remaining,
		Risk:           risk,
	}
}

func (s *Service) audit(ctx context.Context, req Request, decision Decision, details map[string]any) {
	if !decision.Allowed {
		details["reason"] = decision.Reason
	}
	s.trail.Record(ctx, audit.Entry{
		UserID:    req.UserID,
		Action:    audit.ActionExchangeAttempt,
		Details:   details,
		IPAddress: req.IPAddress,
		UserAgent: req.UserAgent,
		Success:   decision.Allowed,
	})
}

func (s *Service) failOpen(ctx context.Context, check, userID string, err error) {
	if s.logger != nil {
		s.logger.WarnContext(ctx, "guard check degraded, failing open",
			"check", check,
			"user_id", userID,
			"error", err,
		)
	}
	if s.metrics != nil {
		s.metrics.RecordFailOpen(check)
	}
}

func (s *Service) signalDegraded(ctx context.Context, signal, userID string, err error) {
	// Missing accounts are data, not infrastructure; still degrade quietly.
	if s.logger != nil && !errors.Is(err, context.Canceled) {
		s.logger.DebugContext(ctx, "fraud signal degraded",
			"signal", signal,
			"user_id", userID,
			"error", err,
		)
	}
	if s.metrics != nil {
		s.metrics.RecordSignalDegraded(signal)
	}
}

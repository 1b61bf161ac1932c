// Package exchange implements NADA point exchanges: the one operation that
// debits a wallet. Every attempt runs through the transaction guard first;
// the conditional debit in storage is the final defence against races the
// guard's advisory checks cannot close.
package exchange

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"nadawallet/internal/account"
	"nadawallet/internal/audit"
	"nadawallet/internal/guard"
	"nadawallet/internal/ledger"
	dErrors "nadawallet/pkg/domain-errors"
	"nadawallet/pkg/requestcontext"
)

// ReasonFlagged denies an exchange when suspicion-based denial is enabled.
const ReasonFlagged = "exchange flagged for review"

// Guard is the pre-commit decision surface the exchange service consumes.
type Guard interface {
	Evaluate(ctx context.Context, req guard.Request) guard.Decision
	CheckRateLimit(ctx context.Context, userID string) guard.CheckResult
	CheckDailyLimit(ctx context.Context, userID string) guard.CheckResult
}

// Auditor records committed exchanges. Recording never fails.
type Auditor interface {
	Record(ctx context.Context, entry audit.Entry)
}

// VelocityRecorder mirrors committed exchanges into the fast counter index.
type VelocityRecorder interface {
	RecordExchange(ctx context.Context, userID string, at time.Time) error
}

type Service struct {
	accounts       account.Store
	ledger         Ledger
	guard          Guard
	auditor        Auditor
	velocity       VelocityRecorder
	logger         *slog.Logger
	tracer         trace.Tracer
	policy         *guard.Config
	denySuspicious bool
}

// Ledger is the append surface the exchange service needs from the
// transaction ledger.
type Ledger interface {
	Append(ctx context.Context, tx ledger.Transaction) error
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithVelocityRecorder mirrors commits into a fast counter, typically the
// Redis velocity index. Recording is best effort.
func WithVelocityRecorder(v VelocityRecorder) Option {
	return func(s *Service) {
		s.velocity = v
	}
}

// WithPolicy overrides the limit values reported by Limits. It must match
// the config the guard itself runs with.
func WithPolicy(cfg *guard.Config) Option {
	return func(s *Service) {
		s.policy = cfg
	}
}

// WithDenySuspicious turns the fraud score from advisory into enforcing:
// suspicious exchanges are denied instead of flagged.
func WithDenySuspicious(deny bool) Option {
	return func(s *Service) {
		s.denySuspicious = deny
	}
}

func New(accounts account.Store, led Ledger, g Guard, auditor Auditor, opts ...Option) (*Service, error) {
	if accounts == nil {
		return nil, fmt.Errorf("account store is required")
	}
	if led == nil {
		return nil, fmt.Errorf("ledger is required")
	}
	if g == nil {
		return nil, fmt.Errorf("guard is required")
	}
	if auditor == nil {
		return nil, fmt.Errorf("auditor is required")
	}

	svc := &Service{
		accounts: accounts,
		ledger:   led,
		guard:    g,
		auditor:  auditor,
		tracer:   otel.Tracer("nadawallet/internal/exchange"),
		policy:   guard.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Exchange attempts to convert points for the user. It loads the balance,
// asks the guard for a decision, and only then debits, appends the ledger
// transaction, and audits the commit. Guard denials come back as a Result,
// not an error.
func (s *Service) Exchange(ctx context.Context, userID string, points int64) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "exchange.Exchange",
		trace.WithAttributes(
			attribute.String("user_id", userID),
			attribute.Int64("points", points),
		))
	defer span.End()

	if points <= 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "points must be positive")
	}

	acct, err := s.accounts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	decision := s.guard.Evaluate(ctx, guard.Request{
		UserID:        userID,
		Points:        points,
		CurrentPoints: acct.PointsBalance,
		IPAddress:     requestcontext.ClientIP(ctx),
		UserAgent:     requestcontext.UserAgent(ctx),
	})

	if !decision.Allowed {
		return deniedResult(decision), nil
	}

	result := &Result{
		Allowed:        true,
		RemainingToday: decision.DailyRemaining - 1,
	}
	if decision.Risk != nil {
		result.Flagged = decision.Risk.Suspicious
		result.RiskScore = decision.Risk.RiskScore
		result.RiskReasons = decision.Risk.Reasons
	}

	if result.Flagged && s.denySuspicious {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "suspicious exchange denied",
				"user_id", userID,
				"points", points,
				"risk_score", result.RiskScore,
			)
		}
		// The guard audited the attempt as allowed before the enforcement
		// policy kicked in; record the actual outcome too.
		s.auditor.Record(ctx, audit.Entry{
			UserID: userID,
			Action: audit.ActionExchangeAttempt,
			Details: map[string]any{
				"points":       points,
				"reason":       ReasonFlagged,
				"risk_score":   result.RiskScore,
				"risk_reasons": result.RiskReasons,
			},
			IPAddress: requestcontext.ClientIP(ctx),
			UserAgent: requestcontext.UserAgent(ctx),
			Success:   false,
		})
		return &Result{
			Reason:      ReasonFlagged,
			Flagged:     true,
			RiskScore:   result.RiskScore,
			RiskReasons: result.RiskReasons,
		}, nil
	}

	newBalance, err := s.accounts.Debit(ctx, userID, points)
	if err != nil {
		// Lost the race between the guard's balance check and the debit.
		if errors.Is(err, account.ErrInsufficientPoints) {
			return &Result{
				Reason:         guard.ReasonInsufficientPoints,
				RemainingToday: decision.DailyRemaining,
			}, nil
		}
		return nil, err
	}
	result.NewBalance = newBalance

	now := requestcontext.Now(ctx)
	tx := ledger.Transaction{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      ledger.TypeExchange,
		Points:    points,
		CreatedAt: now,
	}
	if err := s.ledger.Append(ctx, tx); err != nil {
		// The debit already happened; surface the failure, operators
		// reconcile from the audit trail.
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "ledger append failed after debit",
				"user_id", userID,
				"transaction_id", tx.ID,
				"error", err,
			)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "record exchange")
	}
	result.TransactionID = tx.ID

	if s.velocity != nil {
		if err := s.velocity.RecordExchange(ctx, userID, now); err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "velocity index update failed",
				"user_id", userID,
				"error", err,
			)
		}
	}

	s.auditor.Record(ctx, audit.Entry{
		UserID: userID,
		Action: audit.ActionExchangeCommit,
		Details: map[string]any{
			"points":         points,
			"new_balance":    newBalance,
			"transaction_id": tx.ID,
			"risk_score":     result.RiskScore,
			"flagged":        result.Flagged,
		},
		IPAddress: requestcontext.ClientIP(ctx),
		UserAgent: requestcontext.UserAgent(ctx),
		Success:   true,
	})

	if s.logger != nil {
		s.logger.InfoContext(ctx, "exchange committed",
			"user_id", userID,
			"points", points,
			"new_balance", newBalance,
			"transaction_id", tx.ID,
			"flagged", result.Flagged,
		)
	}
	return result, nil
}

// Balance returns the user's current account.
func (s *Service) Balance(ctx context.Context, userID string) (*account.Account, error) {
	return s.accounts.Get(ctx, userID)
}

// Limits reports the user's standing against the exchange limits. Both
// checks fail open, so a degraded counter reports full availability here
// just as it would on a real attempt.
func (s *Service) Limits(ctx context.Context, userID string) (*LimitsStatus, error) {
	if _, err := s.accounts.Get(ctx, userID); err != nil {
		return nil, err
	}

	daily := s.guard.CheckDailyLimit(ctx, userID)
	rate := s.guard.CheckRateLimit(ctx, userID)

	return &LimitsStatus{
		DailyLimit:     s.policy.DailyLimitMax,
		DailyRemaining: daily.Remaining,
		RateLimited:    !rate.Allowed,
		RetryAfter:     rate.RetryAfter,
		MaxPerExchange: s.policy.MaxExchangePoints,
	}, nil
}

func deniedResult(decision guard.Decision) *Result {
	res := &Result{
		Reason:         decision.Reason,
		RetryAfter:     decision.RetryAfter,
		RemainingToday: decision.DailyRemaining,
	}
	if decision.Risk != nil {
		res.Flagged = decision.Risk.Suspicious
		res.RiskScore = decision.Risk.RiskScore
		res.RiskReasons = decision.Risk.Reasons
	}
	return res
}

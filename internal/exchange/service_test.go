package exchange

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"nadawallet/internal/account"
	accountstore "nadawallet/internal/account/store"
	"nadawallet/internal/audit"
	auditstore "nadawallet/internal/audit/store"
	"nadawallet/internal/guard"
	"nadawallet/internal/ledger"
	ledgerstore "nadawallet/internal/ledger/store"
	"nadawallet/pkg/requestcontext"
)

// =============================================================================
// Exchange Service Test Suite
// =============================================================================
// Justification for unit tests: The exchange service is the only writer of
// balances and the ledger. Tests run it against the real in-memory stores
// and a real guard so the full decision-then-commit path is exercised,
// including the conditional debit and the commit audit entry.

type ExchangeServiceSuite struct {
	suite.Suite
	accounts   *accountstore.MemoryStore
	ledger     *ledgerstore.MemoryStore
	auditStore *auditstore.MemoryStore
	service    *Service

	now time.Time
	ctx context.Context
}

func TestExchangeServiceSuite(t *testing.T) {
	suite.Run(t, new(ExchangeServiceSuite))
}

func (s *ExchangeServiceSuite) SetupTest() {
	s.accounts = accountstore.NewMemoryStore()
	s.ledger = ledgerstore.NewMemoryStore()
	s.auditStore = auditstore.NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	trail := audit.NewLogger(s.auditStore, audit.WithLogger(logger))
	g, err := guard.New(s.ledger, s.accounts, trail, guard.WithLogger(logger))
	s.Require().NoError(err)

	s.service, err = New(s.accounts, s.ledger, g, trail, WithLogger(logger))
	s.Require().NoError(err)

	s.now = time.Date(2026, 3, 14, 15, 30, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.ctx = requestcontext.WithClientMetadata(s.ctx, "10.0.0.1", "nada-app/2.1")
}

func (s *ExchangeServiceSuite) seedAccount(userID string, balance int64, createdAt time.Time) {
	s.Require().NoError(s.accounts.Create(context.Background(), account.Account{
		UserID:        userID,
		PointsBalance: balance,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}))
}

func (s *ExchangeServiceSuite) seedExchanges(userID string, times ...time.Time) {
	for i, at := range times {
		s.Require().NoError(s.ledger.Append(context.Background(), ledger.Transaction{
			ID:        userID + "-seed-" + string(rune('a'+i)),
			UserID:    userID,
			Type:      ledger.TypeExchange,
			Points:    10,
			CreatedAt: at,
		}))
	}
}

func (s *ExchangeServiceSuite) TestExchange() {
	s.Run("successful exchange debits and records", func() {
		s.seedAccount("user-1", 3000, s.now.AddDate(0, 0, -10))

		result, err := s.service.Exchange(s.ctx, "user-1", 2000)
		s.Require().NoError(err)

		s.True(result.Allowed)
		s.Equal(int64(1000), result.NewBalance)
		s.Equal(int64(9), result.RemainingToday)
		s.NotEmpty(result.TransactionID)
		s.False(result.Flagged)
		s.Equal(20, result.RiskScore)

		acct, err := s.accounts.Get(s.ctx, "user-1")
		s.Require().NoError(err)
		s.Equal(int64(1000), acct.PointsBalance)

		txs, err := s.ledger.ListRecentByUser(s.ctx, "user-1", 10)
		s.Require().NoError(err)
		s.Require().Len(txs, 1)
		s.Equal(ledger.TypeExchange, txs[0].Type)
		s.Equal(int64(2000), txs[0].Points)

		entries := s.auditStore.All("user-1")
		s.Require().Len(entries, 2)
		s.Equal(audit.ActionExchangeAttempt, entries[0].Action)
		s.Equal(audit.ActionExchangeCommit, entries[1].Action)
		s.True(entries[1].Success)
		s.Equal("10.0.0.1", entries[1].IPAddress)
	})

	s.Run("unknown account returns not found", func() {
		_, err := s.service.Exchange(s.ctx, "ghost", 100)
		s.Require().ErrorIs(err, account.ErrNotFound)
	})

	s.Run("non positive points rejected", func() {
		s.seedAccount("user-2", 500, s.now.AddDate(0, 0, -10))
		_, err := s.service.Exchange(s.ctx, "user-2", 0)
		s.Error(err)
	})

	s.Run("insufficient balance denies without debit", func() {
		s.seedAccount("user-3", 100, s.now.AddDate(0, 0, -10))

		result, err := s.service.Exchange(s.ctx, "user-3", 200)
		s.Require().NoError(err)

		s.False(result.Allowed)
		s.Equal(guard.ReasonInsufficientPoints, result.Reason)

		acct, _ := s.accounts.Get(s.ctx, "user-3")
		s.Equal(int64(100), acct.PointsBalance)

		txs, err := s.ledger.ListRecentByUser(s.ctx, "user-3", 10)
		s.Require().NoError(err)
		s.Empty(txs)
	})

	s.Run("rate limited denial leaves balance untouched", func() {
		s.seedAccount("user-4", 5000, s.now.AddDate(0, 0, -10))
		s.seedExchanges("user-4",
			s.now.Add(-4*time.Minute),
			s.now.Add(-3*time.Minute),
			s.now.Add(-2*time.Minute),
			s.now.Add(-90*time.Second),
			s.now.Add(-time.Minute),
		)

		result, err := s.service.Exchange(s.ctx, "user-4", 100)
		s.Require().NoError(err)

		s.False(result.Allowed)
		s.Equal(guard.ReasonRateLimited, result.Reason)
		s.Equal(300, result.RetryAfter)

		acct, _ := s.accounts.Get(s.ctx, "user-4")
		s.Equal(int64(5000), acct.PointsBalance)
	})

	s.Run("daily limit denial after ten exchanges today", func() {
		s.seedAccount("user-5", 5000, s.now.AddDate(0, 0, -10))
		times := make([]time.Time, 10)
		for i := range times {
			times[i] = s.now.Add(-time.Duration(i+1) * time.Hour)
		}
		s.seedExchanges("user-5", times...)

		result, err := s.service.Exchange(s.ctx, "user-5", 100)
		s.Require().NoError(err)

		s.False(result.Allowed)
		s.Equal(guard.ReasonDailyLimitReached, result.Reason)
		s.Equal(int64(0), result.RemainingToday)
	})

	s.Run("suspicious exchange is flagged but committed by default", func() {
		s.seedAccount("user-6", 5000, s.now.Add(-time.Hour))
		s.seedExchanges("user-6",
			s.now.Add(-30*time.Second),
			s.now.Add(-15*time.Second),
		)

		result, err := s.service.Exchange(s.ctx, "user-6", 2500)
		s.Require().NoError(err)

		s.True(result.Allowed)
		s.True(result.Flagged)
		s.Equal(75, result.RiskScore)
		s.Equal(int64(2500), result.NewBalance)
	})

	s.Run("deny suspicious mode denies flagged exchanges", func() {
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		trail := audit.NewLogger(s.auditStore, audit.WithLogger(logger))
		g, err := guard.New(s.ledger, s.accounts, trail, guard.WithLogger(logger))
		s.Require().NoError(err)
		strict, err := New(s.accounts, s.ledger, g, trail,
			WithLogger(logger),
			WithDenySuspicious(true),
		)
		s.Require().NoError(err)

		s.seedAccount("user-7", 5000, s.now.Add(-time.Hour))
		s.seedExchanges("user-7",
			s.now.Add(-30*time.Second),
			s.now.Add(-15*time.Second),
		)

		result, err := strict.Exchange(s.ctx, "user-7", 2500)
		s.Require().NoError(err)

		s.False(result.Allowed)
		s.Equal(ReasonFlagged, result.Reason)
		s.True(result.Flagged)

		acct, _ := s.accounts.Get(s.ctx, "user-7")
		s.Equal(int64(5000), acct.PointsBalance)

		// The guard's attempt entry records the checks as passed; the
		// enforcement denial must leave its own failed entry behind it.
		entries := s.auditStore.All("user-7")
		s.Require().NotEmpty(entries)
		denial := entries[len(entries)-1]
		s.Equal(audit.ActionExchangeAttempt, denial.Action)
		s.False(denial.Success)
		s.Equal(ReasonFlagged, denial.Details["reason"])
	})
}

func (s *ExchangeServiceSuite) TestBalance() {
	s.seedAccount("user-1", 750, s.now.AddDate(0, 0, -10))

	acct, err := s.service.Balance(s.ctx, "user-1")
	s.Require().NoError(err)
	s.Equal(int64(750), acct.PointsBalance)

	_, err = s.service.Balance(s.ctx, "ghost")
	s.Require().ErrorIs(err, account.ErrNotFound)
}

func (s *ExchangeServiceSuite) TestLimits() {
	s.Run("fresh account reports full quota", func() {
		s.seedAccount("user-1", 1000, s.now.AddDate(0, 0, -10))

		status, err := s.service.Limits(s.ctx, "user-1")
		s.Require().NoError(err)

		s.Equal(10, status.DailyLimit)
		s.Equal(int64(10), status.DailyRemaining)
		s.False(status.RateLimited)
		s.Equal(int64(5000), status.MaxPerExchange)
	})

	s.Run("quota reflects exchanges made today", func() {
		s.seedAccount("user-2", 1000, s.now.AddDate(0, 0, -10))
		s.seedExchanges("user-2", s.now.Add(-2*time.Hour), s.now.Add(-time.Hour))

		status, err := s.service.Limits(s.ctx, "user-2")
		s.Require().NoError(err)
		s.Equal(int64(8), status.DailyRemaining)
	})

	s.Run("unknown account returns not found", func() {
		_, err := s.service.Limits(s.ctx, "ghost")
		s.Require().ErrorIs(err, account.ErrNotFound)
	})
}

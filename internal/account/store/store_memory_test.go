package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"nadawallet/internal/account"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *MemoryStore
	ctx   context.Context
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewMemoryStore()
	s.ctx = context.Background()
}

func (s *MemoryStoreSuite) seed(userID string, balance int64, createdAt time.Time) {
	err := s.store.Create(s.ctx, account.Account{
		UserID:        userID,
		PointsBalance: balance,
		CreatedAt:     createdAt,
	})
	s.Require().NoError(err)
}

func (s *MemoryStoreSuite) TestGet() {
	s.Run("missing account returns not found", func() {
		_, err := s.store.Get(s.ctx, "nobody")
		s.ErrorIs(err, account.ErrNotFound)
	})

	s.Run("returns a copy of the stored account", func() {
		s.seed("user-a", 500, time.Now())

		acct, err := s.store.Get(s.ctx, "user-a")
		s.Require().NoError(err)
		acct.PointsBalance = 0

		again, err := s.store.Get(s.ctx, "user-a")
		s.Require().NoError(err)
		s.Equal(int64(500), again.PointsBalance)
	})
}

func (s *MemoryStoreSuite) TestDebit() {
	s.seed("user-b", 100, time.Now())

	s.Run("debit within balance succeeds", func() {
		balance, err := s.store.Debit(s.ctx, "user-b", 60)
		s.Require().NoError(err)
		s.Equal(int64(40), balance)
	})

	s.Run("debit beyond balance is rejected", func() {
		_, err := s.store.Debit(s.ctx, "user-b", 41)
		s.ErrorIs(err, account.ErrInsufficientPoints)
	})

	s.Run("debit to exactly zero succeeds", func() {
		balance, err := s.store.Debit(s.ctx, "user-b", 40)
		s.Require().NoError(err)
		s.Zero(balance)
	})

	s.Run("missing account returns not found", func() {
		_, err := s.store.Debit(s.ctx, "nobody", 1)
		s.ErrorIs(err, account.ErrNotFound)
	})
}

func (s *MemoryStoreSuite) TestCredit() {
	s.seed("user-c", 10, time.Now())

	balance, err := s.store.Credit(s.ctx, "user-c", 15)
	s.Require().NoError(err)
	s.Equal(int64(25), balance)
}

func (s *MemoryStoreSuite) TestAccountCreatedAt() {
	createdAt := time.Now().Add(-240 * time.Hour)
	s.seed("user-d", 0, createdAt)

	got, err := s.store.AccountCreatedAt(s.ctx, "user-d")
	s.Require().NoError(err)
	s.True(got.Equal(createdAt))

	_, err = s.store.AccountCreatedAt(s.ctx, "nobody")
	s.ErrorIs(err, account.ErrNotFound)
}

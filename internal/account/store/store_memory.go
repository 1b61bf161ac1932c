package store

import (
	"context"
	"sync"
	"time"

	"nadawallet/internal/account"
)

// MemoryStore is an in-memory account store for tests and local development.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[string]*account.Account
	clock    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[string]*account.Account),
		clock:    time.Now,
	}
}

// WithClock overrides the store clock for deterministic tests.
func (s *MemoryStore) WithClock(clock func() time.Time) *MemoryStore {
	s.clock = clock
	return s
}

func (s *MemoryStore) Get(_ context.Context, userID string) (*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acct, ok := s.accounts[userID]
	if !ok {
		return nil, account.ErrNotFound
	}
	copied := *acct
	return &copied, nil
}

func (s *MemoryStore) Create(_ context.Context, acct account.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if acct.UpdatedAt.IsZero() {
		acct.UpdatedAt = acct.CreatedAt
	}
	s.accounts[acct.UserID] = &acct
	return nil
}

func (s *MemoryStore) Debit(_ context.Context, userID string, points int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[userID]
	if !ok {
		return 0, account.ErrNotFound
	}
	if acct.PointsBalance < points {
		return 0, account.ErrInsufficientPoints
	}
	acct.PointsBalance -= points
	acct.UpdatedAt = s.clock()
	return acct.PointsBalance, nil
}

func (s *MemoryStore) Credit(_ context.Context, userID string, points int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[userID]
	if !ok {
		return 0, account.ErrNotFound
	}
	acct.PointsBalance += points
	acct.UpdatedAt = s.clock()
	return acct.PointsBalance, nil
}

func (s *MemoryStore) AccountCreatedAt(ctx context.Context, userID string) (time.Time, error) {
	acct, err := s.Get(ctx, userID)
	if err != nil {
		return time.Time{}, err
	}
	return acct.CreatedAt, nil
}

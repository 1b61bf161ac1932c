package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"nadawallet/internal/ledger"
)

// MemoryStore is an in-memory ledger for tests and local development.
type MemoryStore struct {
	mu           sync.RWMutex
	transactions map[string][]ledger.Transaction
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{transactions: make(map[string][]ledger.Transaction)}
}

func (s *MemoryStore) Append(_ context.Context, tx ledger.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions[tx.UserID] = append(s.transactions[tx.UserID], tx)
	return nil
}

func (s *MemoryStore) CountByTypeSince(_ context.Context, userID string, typ ledger.TransactionType, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, tx := range s.transactions[userID] {
		if tx.Type == typ && !tx.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) ListRecentByUser(_ context.Context, userID string, limit int) ([]ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	txs := append([]ledger.Transaction{}, s.transactions[userID]...)
	sort.Slice(txs, func(i, j int) bool { return txs[i].CreatedAt.After(txs[j].CreatedAt) })
	if limit > 0 && len(txs) > limit {
		txs = txs[:limit]
	}
	return txs, nil
}

// CountExchangesSince satisfies the guard's ExchangeCounter port.
func (s *MemoryStore) CountExchangesSince(ctx context.Context, userID string, since time.Time) (int, error) {
	return s.CountByTypeSince(ctx, userID, ledger.TypeExchange, since)
}

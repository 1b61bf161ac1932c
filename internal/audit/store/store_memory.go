package store

import (
	"context"
	"sort"
	"sync"

	"nadawallet/internal/audit"
)

// MemoryStore is an in-memory audit store for tests and local development.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]audit.Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]audit.Entry)}
}

func (s *MemoryStore) Append(_ context.Context, entry audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.UserID] = append(s.entries[entry.UserID], entry)
	return nil
}

func (s *MemoryStore) ListRecentByUser(_ context.Context, userID string, limit int) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := append([]audit.Entry{}, s.entries[userID]...)
	sort.Slice(entries, func(i, j int) bool { return entries[i].CreatedAt.After(entries[j].CreatedAt) })
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// All returns every entry for a user in insertion order. Test helper.
func (s *MemoryStore) All(userID string) []audit.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Entry{}, s.entries[userID]...)
}

//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"nadawallet/internal/audit"
	"nadawallet/internal/audit/store"
	"nadawallet/pkg/testutil/containers"
)

type PostgresAuditSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresAuditSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresAuditSuite))
}

func (s *PostgresAuditSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = store.NewPostgresStore(s.postgres.DB)
}

func (s *PostgresAuditSuite) SetupTest() {
	s.Require().NoError(s.postgres.Truncate(context.Background()))
}

func (s *PostgresAuditSuite) TestAppendAndList() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	entry := audit.Entry{
		ID:     uuid.NewString(),
		UserID: "user-1",
		Action: audit.ActionExchangeAttempt,
		Details: map[string]any{
			"points":     float64(2000),
			"risk_score": float64(20),
		},
		IPAddress: "10.0.0.1",
		UserAgent: "nada-app/2.1",
		Success:   true,
		CreatedAt: now,
	}
	s.Require().NoError(s.store.Append(ctx, entry))

	entries, err := s.store.ListRecentByUser(ctx, "user-1", 5)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)

	got := entries[0]
	s.Equal(entry.ID, got.ID)
	s.Equal(audit.ActionExchangeAttempt, got.Action)
	s.Equal(entry.Details, got.Details)
	s.Equal("10.0.0.1", got.IPAddress)
	s.True(got.Success)
}

func (s *PostgresAuditSuite) TestListOrderAndLimit() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	for i := 0; i < 7; i++ {
		s.Require().NoError(s.store.Append(ctx, audit.Entry{
			ID:        uuid.NewString(),
			UserID:    "user-1",
			Action:    audit.ActionExchangeAttempt,
			IPAddress: "10.0.0.1",
			Success:   true,
			CreatedAt: now.Add(-time.Duration(i) * time.Minute),
		}))
	}

	entries, err := s.store.ListRecentByUser(ctx, "user-1", 5)
	s.Require().NoError(err)
	s.Require().Len(entries, 5)
	s.True(entries[0].CreatedAt.After(entries[1].CreatedAt))
}

func (s *PostgresAuditSuite) TestNullableFields() {
	ctx := context.Background()

	s.Require().NoError(s.store.Append(ctx, audit.Entry{
		ID:        uuid.NewString(),
		UserID:    "user-1",
		Action:    audit.ActionExchangeCommit,
		Success:   false,
		CreatedAt: time.Now().UTC(),
	}))

	entries, err := s.store.ListRecentByUser(ctx, "user-1", 1)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Empty(entries[0].IPAddress)
	s.Nil(entries[0].Details)
}

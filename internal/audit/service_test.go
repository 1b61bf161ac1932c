package audit_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"nadawallet/internal/audit"
	auditStore "nadawallet/internal/audit/store"
)

type failingStore struct {
	appendErr error
	listErr   error
}

func (s *failingStore) Append(context.Context, audit.Entry) error { return s.appendErr }
func (s *failingStore) ListRecentByUser(context.Context, string, int) ([]audit.Entry, error) {
	return nil, s.listErr
}

// ctxStore models a store whose writes honor context cancellation, the way
// the postgres store's ExecContext does.
type ctxStore struct {
	entries []audit.Entry
}

func (s *ctxStore) Append(ctx context.Context, entry audit.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.entries = append(s.entries, entry)
	return nil
}

func (s *ctxStore) ListRecentByUser(context.Context, string, int) ([]audit.Entry, error) {
	return nil, nil
}

type recordingSink struct {
	entries []audit.Entry
}

func (s *recordingSink) Publish(entry audit.Entry) { s.entries = append(s.entries, entry) }

type LoggerSuite struct {
	suite.Suite
	store *auditStore.MemoryStore
	ctx   context.Context
	now   time.Time
}

func TestLoggerSuite(t *testing.T) {
	suite.Run(t, new(LoggerSuite))
}

func (s *LoggerSuite) SetupTest() {
	s.store = auditStore.NewMemoryStore()
	s.ctx = context.Background()
	s.now = time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)
}

func (s *LoggerSuite) newLogger(opts ...audit.Option) *audit.Logger {
	opts = append(opts,
		audit.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		audit.WithClock(func() time.Time { return s.now }),
	)
	return audit.NewLogger(s.store, opts...)
}

func (s *LoggerSuite) TestLog() {
	s.Run("fills id and timestamp", func() {
		logger := s.newLogger()
		logger.Record(s.ctx, audit.Entry{
			UserID:  "user-a",
			Action:  audit.ActionExchangeAttempt,
			Success: true,
		})

		entries := s.store.All("user-a")
		s.Require().Len(entries, 1)
		s.NotEmpty(entries[0].ID)
		s.True(entries[0].CreatedAt.Equal(s.now))
	})

	s.Run("store failure is swallowed", func() {
		logger := audit.NewLogger(
			&failingStore{appendErr: errors.New("store down")},
			audit.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		)
		s.NotPanics(func() {
			logger.Record(s.ctx, audit.Entry{UserID: "user-b", Action: audit.ActionExchangeAttempt})
		})
	})

	s.Run("append survives a cancelled request context", func() {
		store := &ctxStore{}
		logger := audit.NewLogger(store,
			audit.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		)

		ctx, cancel := context.WithCancel(s.ctx)
		cancel()
		logger.Record(ctx, audit.Entry{
			UserID:  "user-h",
			Action:  audit.ActionExchangeAttempt,
			Success: false,
		})

		s.Require().Len(store.entries, 1)
		s.Equal("user-h", store.entries[0].UserID)
	})

	s.Run("fans out to sink after store append", func() {
		sink := &recordingSink{}
		logger := s.newLogger(audit.WithSink(sink))
		logger.Record(s.ctx, audit.Entry{UserID: "user-c", Action: audit.ActionExchangeCommit, Success: true})

		s.Require().Len(sink.entries, 1)
		s.Equal(audit.ActionExchangeCommit, sink.entries[0].Action)
		s.NotEmpty(sink.entries[0].ID)
	})

	s.Run("sink still receives entry when store fails", func() {
		sink := &recordingSink{}
		logger := audit.NewLogger(
			&failingStore{appendErr: errors.New("store down")},
			audit.WithSink(sink),
		)
		logger.Record(s.ctx, audit.Entry{UserID: "user-d", Action: audit.ActionExchangeAttempt})
		s.Len(sink.entries, 1)
	})
}

func (s *LoggerSuite) TestUserAgentEnrichment() {
	const chromeUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	logger := s.newLogger()
	logger.Record(s.ctx, audit.Entry{
		UserID:    "user-e",
		Action:    audit.ActionExchangeAttempt,
		UserAgent: chromeUA,
		Success:   true,
	})

	entries := s.store.All("user-e")
	s.Require().Len(entries, 1)
	s.Equal("Chrome", entries[0].Details["ua_browser"])
	s.NotEmpty(entries[0].Details["ua_os"])

	s.Run("empty user agent adds nothing", func() {
		logger.Record(s.ctx, audit.Entry{UserID: "user-f", Action: audit.ActionExchangeAttempt})
		entries := s.store.All("user-f")
		s.Require().Len(entries, 1)
		s.Nil(entries[0].Details)
	})
}

func (s *LoggerSuite) TestRecentByUser() {
	logger := s.newLogger()
	for i := 0; i < 7; i++ {
		s.now = s.now.Add(time.Minute)
		logger.Record(s.ctx, audit.Entry{
			UserID:    "user-g",
			Action:    audit.ActionExchangeAttempt,
			IPAddress: "10.0.0.1",
			Success:   true,
		})
	}

	entries, err := logger.RecentByUser(s.ctx, "user-g", 5)
	s.Require().NoError(err)
	s.Require().Len(entries, 5)
	for i := 1; i < len(entries); i++ {
		s.False(entries[i].CreatedAt.After(entries[i-1].CreatedAt))
	}
}

package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mssola/useragent"
)

// Logger appends audit entries. Log never returns an error: audit is
// telemetry for the money-adjacent flow, and a failing audit store must not
// block or alter an exchange decision. Failures surface only through the
// local diagnostic log.
type Logger struct {
	store  Store
	sink   Sink
	logger *slog.Logger
	clock  func() time.Time
}

type Option func(*Logger)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Logger) {
		l.logger = logger
	}
}

func WithSink(sink Sink) Option {
	return func(l *Logger) {
		l.sink = sink
	}
}

func WithClock(clock func() time.Time) Option {
	return func(l *Logger) {
		l.clock = clock
	}
}

func NewLogger(store Store, opts ...Option) *Logger {
	l := &Logger{
		store: store,
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Record appends one entry, filling ID and timestamp, and fans out to the sink
// when one is configured. Store failures are swallowed by contract. The append
// runs detached from the caller's cancellation: once a decision has been made
// the audit entry must land even if the client has already hung up.
func (l *Logger) Record(ctx context.Context, entry Entry) {
	ctx = context.WithoutCancel(ctx)
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = l.clock()
	}
	l.enrichUserAgent(&entry)

	if err := l.store.Append(ctx, entry); err != nil && l.logger != nil {
		l.logger.WarnContext(ctx, "audit append failed",
			"action", entry.Action,
			"user_id", entry.UserID,
			"error", err,
		)
	}

	if l.sink != nil {
		l.sink.Publish(entry)
	}
}

// RecentByUser exposes the most recent entries for the guard's IP-diversity
// signal and for dispute review.
func (l *Logger) RecentByUser(ctx context.Context, userID string, limit int) ([]Entry, error) {
	return l.store.ListRecentByUser(ctx, userID, limit)
}

// enrichUserAgent parses the raw User-Agent into browser/OS fields so audit
// reviewers don't have to eyeball UA strings.
func (l *Logger) enrichUserAgent(entry *Entry) {
	if entry.UserAgent == "" {
		return
	}
	ua := useragent.New(entry.UserAgent)
	if entry.Details == nil {
		entry.Details = make(map[string]any)
	}
	name, version := ua.Browser()
	if name != "" {
		entry.Details["ua_browser"] = name
		entry.Details["ua_browser_version"] = version
	}
	if os := ua.OS(); os != "" {
		entry.Details["ua_os"] = os
	}
	if ua.Bot() {
		entry.Details["ua_bot"] = true
	}
}

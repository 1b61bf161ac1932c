package testutil

import (
	"net/http"
	"time"

	"nadawallet/pkg/requestcontext"
)

// WithUser adds an authenticated user to the request context, simulating
// what the auth middleware does for valid tokens.
func WithUser(req *http.Request, userID string) *http.Request {
	ctx := requestcontext.WithUserID(req.Context(), userID)
	return req.WithContext(ctx)
}

// WithClientMetadata attaches client IP and user agent to the request
// context, simulating the metadata middleware.
func WithClientMetadata(req *http.Request, clientIP, userAgent string) *http.Request {
	ctx := requestcontext.WithClientMetadata(req.Context(), clientIP, userAgent)
	return req.WithContext(ctx)
}

// WithRequestTime pins the request-scoped clock for deterministic tests.
func WithRequestTime(req *http.Request, t time.Time) *http.Request {
	ctx := requestcontext.WithTime(req.Context(), t)
	return req.WithContext(ctx)
}

package middleware

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nadawallet/pkg/requestcontext"
	"nadawallet/pkg/testutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRequestID(t *testing.T) {
	t.Run("generates an id when none supplied", func(t *testing.T) {
		var seen string
		h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = requestcontext.RequestID(r.Context())
		}))

		rr := testutil.DoRequest(h, testutil.NewRequest(t, http.MethodGet, "/"))

		require.NotEmpty(t, seen)
		assert.Equal(t, seen, rr.Header().Get("X-Request-ID"))
	})

	t.Run("honors inbound header", func(t *testing.T) {
		var seen string
		h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = requestcontext.RequestID(r.Context())
		}))

		req := testutil.NewRequest(t, http.MethodGet, "/")
		req.Header.Set("X-Request-ID", "req-123")
		testutil.DoRequest(h, req)

		assert.Equal(t, "req-123", seen)
	})
}

func TestClientMetadata(t *testing.T) {
	capture := func(ip, ua *string) http.Handler {
		return ClientMetadata(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			*ip = requestcontext.ClientIP(r.Context())
			*ua = requestcontext.UserAgent(r.Context())
		}))
	}

	t.Run("prefers first forwarded-for entry", func(t *testing.T) {
		var ip, ua string
		req := testutil.NewRequest(t, http.MethodGet, "/")
		req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
		req.Header.Set("User-Agent", "nada-app/2.1")
		testutil.DoRequest(capture(&ip, &ua), req)

		assert.Equal(t, "203.0.113.7", ip)
		assert.Equal(t, "nada-app/2.1", ua)
	})

	t.Run("falls back to real-ip then remote addr", func(t *testing.T) {
		var ip, ua string
		req := testutil.NewRequest(t, http.MethodGet, "/")
		req.Header.Set("X-Real-IP", "198.51.100.4")
		testutil.DoRequest(capture(&ip, &ua), req)
		assert.Equal(t, "198.51.100.4", ip)

		req = testutil.NewRequest(t, http.MethodGet, "/")
		req.RemoteAddr = "192.0.2.9:51234"
		testutil.DoRequest(capture(&ip, &ua), req)
		assert.Equal(t, "192.0.2.9", ip)
	})

	t.Run("handles ipv6 remote addrs", func(t *testing.T) {
		var ip, ua string
		req := testutil.NewRequest(t, http.MethodGet, "/")
		req.RemoteAddr = "[2001:db8::1]:51234"
		testutil.DoRequest(capture(&ip, &ua), req)
		assert.Equal(t, "2001:db8::1", ip)

		req = testutil.NewRequest(t, http.MethodGet, "/")
		req.RemoteAddr = "2001:db8::1"
		testutil.DoRequest(capture(&ip, &ua), req)
		assert.Equal(t, "2001:db8::1", ip)
	})
}

func TestRecovery(t *testing.T) {
	h := Recovery(discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := testutil.DoRequest(h, testutil.NewRequest(t, http.MethodGet, "/"))
	testutil.AssertStatus(t, rr, http.StatusInternalServerError)
}

type stubValidator struct {
	claims *JWTClaims
	err    error
}

func (v stubValidator) ValidateToken(string) (*JWTClaims, error) {
	return v.claims, v.err
}

func TestRequireAuth(t *testing.T) {
	next := func(userID *string) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			*userID = requestcontext.UserID(r.Context())
		})
	}

	t.Run("missing header rejected", func(t *testing.T) {
		var userID string
		h := RequireAuth(stubValidator{}, discardLogger())(next(&userID))

		rr := testutil.DoRequest(h, testutil.NewRequest(t, http.MethodPost, "/wallet/exchange"))

		testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
		assert.Empty(t, userID)
	})

	t.Run("invalid token rejected", func(t *testing.T) {
		var userID string
		h := RequireAuth(stubValidator{err: errors.New("expired")}, discardLogger())(next(&userID))

		req := testutil.NewRequest(t, http.MethodPost, "/wallet/exchange")
		req.Header.Set("Authorization", "Bearer bad-token")
		rr := testutil.DoRequest(h, req)

		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})

	t.Run("valid token injects user", func(t *testing.T) {
		var userID string
		h := RequireAuth(stubValidator{claims: &JWTClaims{UserID: "user-1"}}, discardLogger())(next(&userID))

		req := testutil.NewRequest(t, http.MethodPost, "/wallet/exchange")
		req.Header.Set("Authorization", "Bearer good-token")
		rr := testutil.DoRequest(h, req)

		testutil.AssertStatusOK(t, rr)
		assert.Equal(t, "user-1", userID)
	})
}

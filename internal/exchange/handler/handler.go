// Package handler exposes the wallet exchange endpoints over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"nadawallet/internal/account"
	"nadawallet/internal/exchange"
	"nadawallet/internal/guard"
	dErrors "nadawallet/pkg/domain-errors"
	"nadawallet/pkg/platform/httputil"
	"nadawallet/pkg/requestcontext"
)

// Service is the exchange surface the handler calls into.
type Service interface {
	Exchange(ctx context.Context, userID string, points int64) (*exchange.Result, error)
	Balance(ctx context.Context, userID string) (*account.Account, error)
	Limits(ctx context.Context, userID string) (*exchange.LimitsStatus, error)
}

// Handler wires wallet endpoints to the exchange service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a wallet handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts wallet endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/wallet/exchange", h.HandleExchange)
	r.Get("/wallet/balance", h.HandleBalance)
	r.Get("/wallet/limits", h.HandleLimits)
}

// HandleExchange handles POST /wallet/exchange requests.
func (h *Handler) HandleExchange(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	userID := requestcontext.UserID(ctx)
	if userID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.Decode[ExchangeRequest](w, r, h.logger)
	if !ok {
		return
	}

	result, err := h.service.Exchange(ctx, userID, req.Points)
	if err != nil {
		h.logger.ErrorContext(ctx, "exchange failed",
			"request_id", requestcontext.RequestID(ctx),
			"user_id", userID,
			"points", req.Points,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "exchange handled",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", userID,
		"points", req.Points,
		"allowed", result.Allowed,
		"reason", result.Reason,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if result.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
	}
	httputil.WriteJSON(w, exchangeStatus(result), fromResult(result))
}

// HandleBalance handles GET /wallet/balance requests.
func (h *Handler) HandleBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := requestcontext.UserID(ctx)
	if userID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	acct, err := h.service.Balance(ctx, userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromAccount(acct))
}

// HandleLimits handles GET /wallet/limits requests.
func (h *Handler) HandleLimits(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := requestcontext.UserID(ctx)
	if userID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	status, err := h.service.Limits(ctx, userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromLimits(status))
}

// exchangeStatus maps a denial reason to its HTTP status. Denials are
// normal responses carrying the full result body, not error envelopes.
func exchangeStatus(result *exchange.Result) int {
	if result.Allowed {
		return http.StatusOK
	}
	switch result.Reason {
	case guard.ReasonRateLimited, guard.ReasonDailyLimitReached:
		return http.StatusTooManyRequests
	case exchange.ReasonFlagged:
		return http.StatusForbidden
	default:
		return http.StatusBadRequest
	}
}

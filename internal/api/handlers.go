/**
 * @description
 * This file contains the HTTP handlers for the savings scheduling endpoints.
 * Handlers are responsible for parsing incoming requests, calling the
 * appropriate methods on the application service, and writing the HTTP
 * response. The error-to-status mapping is shared by every handler so a
 * given failure always surfaces the same way.
 *
 * @dependencies
 * - encoding/json, errors, net/http: Standard Go libraries.
 * - github.com/go-chi/chi/v5: URL parameter extraction.
 * - internal/app, internal/domain, internal/store: For service logic, models, and custom errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/DanSamedov/api-smart-savings-sub000/internal/app"
	"github.com/DanSamedov/api-smart-savings-sub000/internal/domain"
	"github.com/DanSamedov/api-smart-savings-sub000/internal/store"
)

// Handlers holds the application service that handlers will use.
type Handlers struct {
	service *app.Service
	logger  *slog.Logger
}

// NewHandlers creates a new instance of Handlers.
func NewHandlers(service *app.Service, logger *slog.Logger) *Handlers {
	return &Handlers{service: service, logger: logger}
}

// InterpretHandler turns a natural language prompt into a draft transaction.
func (h *Handlers) InterpretHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		http.Error(w, "Could not get user ID from context", http.StatusInternalServerError)
		return
	}

	var req domain.InterpretRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	draft, err := h.service.Interpret(r.Context(), userID, req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, draft)
}

// ConfirmHandler activates a confirmed draft as a scheduled transaction.
func (h *Handlers) ConfirmHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		http.Error(w, "Could not get user ID from context", http.StatusInternalServerError)
		return
	}

	var req domain.ConfirmScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	scheduled, err := h.service.Confirm(r.Context(), userID, req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, scheduled)
}

// ListScheduledHandler lists the caller's scheduled transactions, optionally
// filtered with ?status=.
func (h *Handlers) ListScheduledHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		http.Error(w, "Could not get user ID from context", http.StatusInternalServerError)
		return
	}

	scheduled, err := h.service.ListScheduled(r.Context(), userID, r.URL.Query().Get("status"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, scheduled)
}

// CancelScheduledHandler finishes one of the caller's schedules.
func (h *Handlers) CancelScheduledHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		http.Error(w, "Could not get user ID from context", http.StatusInternalServerError)
		return
	}

	scheduleID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid schedule ID")
		return
	}

	if err := h.service.CancelScheduled(r.Context(), userID, scheduleID); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleServiceError maps service and store errors to HTTP statuses.
func (h *Handlers) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var rateLimitErr *app.RateLimitError
	if errors.As(err, &rateLimitErr) {
		w.Header().Set("Retry-After", strconv.Itoa(rateLimitErr.RetryAfterSeconds))
		h.writeError(w, http.StatusTooManyRequests, "Too many requests. Please slow down.")
		return
	}

	switch {
	case errors.Is(err, app.ErrPromptRequired),
		errors.Is(err, app.ErrInvalidAmount),
		errors.Is(err, app.ErrInvalidCurrency),
		errors.Is(err, app.ErrInvalidFrequency),
		errors.Is(err, app.ErrInvalidStartDate),
		errors.Is(err, app.ErrInvalidEndDate),
		errors.Is(err, app.ErrInvalidDayOfWeek),
		errors.Is(err, app.ErrInvalidDestination),
		errors.Is(err, app.ErrDestinationNameRequired),
		errors.Is(err, app.ErrEmptyProjection),
		errors.Is(err, app.ErrInvalidStatusFilter),
		errors.Is(err, app.ErrPoolNameRequired),
		errors.Is(err, store.ErrWithdrawalExceedsContribution):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrInsufficientFunds):
		h.writeError(w, http.StatusPaymentRequired, "Insufficient available balance")
	case errors.Is(err, app.ErrNotScheduleOwner),
		errors.Is(err, store.ErrMembershipNotFound):
		h.writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, store.ErrScheduleNotFound),
		errors.Is(err, store.ErrPoolNotFound),
		errors.Is(err, store.ErrGoalNotFound),
		errors.Is(err, store.ErrWalletNotFound),
		errors.Is(err, store.ErrUserNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, app.ErrScheduleTerminal):
		h.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, app.ErrInterpreterUnavailable):
		h.writeError(w, http.StatusBadGateway, err.Error())
	default:
		h.logger.Error("request failed", "path", r.URL.Path, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// writeJSON is a helper for writing JSON responses.
func (h *Handlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError is a helper for writing JSON error responses.
func (h *Handlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

/**
 * @description
 * HTTP handlers for the savings pool endpoints: creation, listing,
 * interactive contributions and withdrawals, and the activity feed.
 */

package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/DanSamedov/api-smart-savings-sub000/internal/domain"
)

// poolMutationResponse reports a pool's state after a contribution or a
// withdrawal.
type poolMutationResponse struct {
	PoolID      uuid.UUID `json:"pool_id"`
	Amount      int64     `json:"amount"`
	PoolBalance int64     `json:"pool_balance"`
}

// CreatePoolHandler creates a shared pool or a personal goal.
func (h *Handlers) CreatePoolHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		http.Error(w, "Could not get user ID from context", http.StatusInternalServerError)
		return
	}

	var req domain.CreatePoolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	pool, err := h.service.CreatePool(r.Context(), userID, req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, pool)
}

// ListPoolsHandler lists the caller's pools and personal goals.
func (h *Handlers) ListPoolsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		http.Error(w, "Could not get user ID from context", http.StatusInternalServerError)
		return
	}

	pools, err := h.service.ListPools(r.Context(), userID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, pools)
}

// ContributeHandler moves money from the caller's wallet into a pool.
func (h *Handlers) ContributeHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		http.Error(w, "Could not get user ID from context", http.StatusInternalServerError)
		return
	}

	poolID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid pool ID")
		return
	}

	var req domain.PoolMutationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	balance, err := h.service.ContributeToPool(r.Context(), userID, poolID, req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, poolMutationResponse{
		PoolID:      poolID,
		Amount:      req.Amount,
		PoolBalance: balance,
	})
}

// WithdrawPoolHandler moves money from a pool back into the caller's wallet.
func (h *Handlers) WithdrawPoolHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		http.Error(w, "Could not get user ID from context", http.StatusInternalServerError)
		return
	}

	poolID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid pool ID")
		return
	}

	var req domain.PoolMutationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	balance, err := h.service.WithdrawFromPool(r.Context(), userID, poolID, req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, poolMutationResponse{
		PoolID:      poolID,
		Amount:      req.Amount,
		PoolBalance: balance,
	})
}

// ListPoolActivityHandler lists a pool's recent activity for its members,
// with an optional ?limit=.
func (h *Handlers) ListPoolActivityHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		http.Error(w, "Could not get user ID from context", http.StatusInternalServerError)
		return
	}

	poolID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid pool ID")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	activity, err := h.service.ListPoolActivity(r.Context(), userID, poolID, limit)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, activity)
}

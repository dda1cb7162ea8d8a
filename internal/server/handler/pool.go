package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/copydesk/copydesk/internal/domain"
	"github.com/copydesk/copydesk/internal/service"
)

// PoolManager defines the methods the pool handler requires from the
// service layer.
type PoolManager interface {
	Create(ctx context.Context, managerID string, req service.PoolRequest) (domain.Pool, error)
	Get(ctx context.Context, id string) (domain.Pool, error)
	ListActive(ctx context.Context, filter domain.PoolFilter, opts domain.ListOpts) ([]domain.Pool, error)
	ListMine(ctx context.Context, managerID string) ([]domain.Pool, error)
	Follow(ctx context.Context, poolID, followerID string, req service.FollowRequest) (domain.PoolFollower, error)
	Unfollow(ctx context.Context, poolID, followerID string) error
}

// PoolHandler serves trading-pool HTTP endpoints.
type PoolHandler struct {
	pools  PoolManager
	logger *slog.Logger
}

// NewPoolHandler creates a PoolHandler with the given service and logger.
func NewPoolHandler(pools PoolManager, logger *slog.Logger) *PoolHandler {
	return &PoolHandler{
		pools:  pools,
		logger: logger,
	}
}

// listPoolsResponse wraps the list pools response.
type listPoolsResponse struct {
	Pools []domain.Pool `json:"pools"`
}

// CreatePool registers a new trading pool managed by the caller.
// POST /api/pools
func (h *PoolHandler) CreatePool(w http.ResponseWriter, r *http.Request) {
	managerID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req service.PoolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	pool, err := h.pools.Create(r.Context(), managerID, req)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to create pool")
		return
	}

	writeJSON(w, http.StatusCreated, pool)
}

// GetPool returns a single pool by ID.
// GET /api/pools/{id}
func (h *PoolHandler) GetPool(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing pool id")
		return
	}

	pool, err := h.pools.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to get pool")
		return
	}

	writeJSON(w, http.StatusOK, pool)
}

// ListPools returns active pools, optionally filtered by strategy, minimum
// AUM, and maximum risk score.
// GET /api/pools?strategy=...&min_aum=...&max_risk=...&limit=50&offset=0
func (h *PoolHandler) ListPools(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := domain.PoolFilter{
		Strategy: q.Get("strategy"),
	}
	if v := q.Get("min_aum"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			filter.MinAUM = f
		}
	}
	if v := q.Get("max_risk"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filter.MaxRisk = n
		}
	}

	pools, err := h.pools.ListActive(r.Context(), filter, parseListOpts(r))
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to list pools")
		return
	}

	if pools == nil {
		pools = []domain.Pool{}
	}

	writeJSON(w, http.StatusOK, listPoolsResponse{Pools: pools})
}

// ListMyPools returns pools managed by the caller.
// GET /api/pools/mine
func (h *PoolHandler) ListMyPools(w http.ResponseWriter, r *http.Request) {
	managerID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	pools, err := h.pools.ListMine(r.Context(), managerID)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to list pools")
		return
	}

	if pools == nil {
		pools = []domain.Pool{}
	}

	writeJSON(w, http.StatusOK, listPoolsResponse{Pools: pools})
}

// FollowPool subscribes the caller to a pool with an investment amount.
// POST /api/pools/{id}/follow
func (h *PoolHandler) FollowPool(w http.ResponseWriter, r *http.Request) {
	followerID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing pool id")
		return
	}

	var req service.FollowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	follower, err := h.pools.Follow(r.Context(), id, followerID, req)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to follow pool")
		return
	}

	writeJSON(w, http.StatusCreated, follower)
}

// UnfollowPool removes the caller's follow relationship with a pool.
// DELETE /api/pools/{id}/follow
func (h *PoolHandler) UnfollowPool(w http.ResponseWriter, r *http.Request) {
	followerID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing pool id")
		return
	}

	if err := h.pools.Unfollow(r.Context(), id, followerID); err != nil {
		writeServiceError(w, r, h.logger, err, "failed to unfollow pool")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

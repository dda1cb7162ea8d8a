package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/copydesk/copydesk/internal/service"
)

// LeaderboardViewer defines the methods the leaderboard handler requires
// from the service layer.
type LeaderboardViewer interface {
	View(ctx context.Context, userID, category string, limit int) (service.LeaderboardView, error)
}

// LeaderboardHandler serves the pool leaderboard endpoint.
type LeaderboardHandler struct {
	leaderboard LeaderboardViewer
	logger      *slog.Logger
}

// NewLeaderboardHandler creates a LeaderboardHandler with the given service
// and logger.
func NewLeaderboardHandler(leaderboard LeaderboardViewer, logger *slog.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{
		leaderboard: leaderboard,
		logger:      logger,
	}
}

// GetLeaderboard returns ranked pools for a category plus the caller's own
// pool rankings. The X-User-ID header is optional here; anonymous requests
// get the ranked list without user rankings.
// GET /api/analytics/leaderboard?category=return&limit=20
func (h *LeaderboardHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := 0
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	view, err := h.leaderboard.View(r.Context(), userID(r), q.Get("category"), limit)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to build leaderboard")
		return
	}

	writeJSON(w, http.StatusOK, view)
}

package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/copydesk/copydesk/internal/service"
)

// PerformanceViewer defines the methods the performance handler requires
// from the service layer.
type PerformanceViewer interface {
	View(ctx context.Context, userID, timeframe, poolID string) (service.PerformanceView, error)
}

// PerformanceHandler serves trading-performance analytics endpoints.
type PerformanceHandler struct {
	performance PerformanceViewer
	logger      *slog.Logger
}

// NewPerformanceHandler creates a PerformanceHandler with the given service
// and logger.
func NewPerformanceHandler(performance PerformanceViewer, logger *slog.Logger) *PerformanceHandler {
	return &PerformanceHandler{
		performance: performance,
		logger:      logger,
	}
}

// GetPerformance returns the caller's performance summary, chart buckets, and
// top-performing pools for a timeframe. With pool_id it scopes the metrics to
// that pool's trades.
// GET /api/analytics/performance?timeframe=30d&pool_id=...
func (h *PerformanceHandler) GetPerformance(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUserID(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	view, err := h.performance.View(r.Context(), uid, q.Get("timeframe"), q.Get("pool_id"))
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to build performance view")
		return
	}

	writeJSON(w, http.StatusOK, view)
}

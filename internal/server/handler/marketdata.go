package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/copydesk/copydesk/internal/service"
)

// MarketViewer defines the methods the market-data handler requires from
// the service layer.
type MarketViewer interface {
	Overview(ctx context.Context, timeframe string) (service.MarketView, error)
}

// MarketDataHandler serves platform-wide market activity endpoints.
type MarketDataHandler struct {
	market MarketViewer
	logger *slog.Logger
}

// NewMarketDataHandler creates a MarketDataHandler with the given service
// and logger.
func NewMarketDataHandler(market MarketViewer, logger *slog.Logger) *MarketDataHandler {
	return &MarketDataHandler{
		market: market,
		logger: logger,
	}
}

// GetMarketData returns per-symbol activity, trending pools, and network
// stats across the whole platform for a timeframe. No user identity needed.
// GET /api/analytics/market-data?timeframe=30d
func (h *MarketDataHandler) GetMarketData(w http.ResponseWriter, r *http.Request) {
	view, err := h.market.Overview(r.Context(), r.URL.Query().Get("timeframe"))
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to build market overview")
		return
	}

	writeJSON(w, http.StatusOK, view)
}

package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/copydesk/copydesk/internal/domain"
	"github.com/copydesk/copydesk/internal/service"
)

// PortfolioViewer defines the methods the portfolio handler requires from
// the service layer.
type PortfolioViewer interface {
	View(ctx context.Context, userID string, opts domain.ListOpts) (service.PortfolioView, error)
	Positions(ctx context.Context, userID string) ([]domain.Position, error)
}

// PortfolioHandler serves portfolio analytics endpoints.
type PortfolioHandler struct {
	portfolio PortfolioViewer
	logger    *slog.Logger
}

// NewPortfolioHandler creates a PortfolioHandler with the given service and
// logger.
func NewPortfolioHandler(portfolio PortfolioViewer, logger *slog.Logger) *PortfolioHandler {
	return &PortfolioHandler{
		portfolio: portfolio,
		logger:    logger,
	}
}

// listPositionsResponse wraps the list positions response.
type listPositionsResponse struct {
	Positions []domain.Position `json:"positions"`
}

// GetPortfolio returns the caller's aggregated portfolio view: positions
// marked to current prices, allocation, history, and risk metrics.
// GET /api/analytics/portfolio
func (h *PortfolioHandler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUserID(w, r)
	if !ok {
		return
	}

	view, err := h.portfolio.View(r.Context(), uid, parseListOpts(r))
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to build portfolio view")
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// ListPositions returns the caller's open positions.
// GET /api/positions
func (h *PortfolioHandler) ListPositions(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUserID(w, r)
	if !ok {
		return
	}

	positions, err := h.portfolio.Positions(r.Context(), uid)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to list positions")
		return
	}

	if positions == nil {
		positions = []domain.Position{}
	}

	writeJSON(w, http.StatusOK, listPositionsResponse{Positions: positions})
}

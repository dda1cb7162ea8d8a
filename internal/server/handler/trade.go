package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/copydesk/copydesk/internal/domain"
	"github.com/copydesk/copydesk/internal/service"
)

// TradeExecutor defines the methods the trade handler requires from the
// service layer.
type TradeExecutor interface {
	Execute(ctx context.Context, traderID string, req service.TradeRequest) (domain.Trade, error)
	List(ctx context.Context, traderID string, filter domain.TradeFilter, opts domain.ListOpts) ([]domain.Trade, error)
}

// TradeHandler serves trade-related HTTP endpoints.
type TradeHandler struct {
	trades TradeExecutor
	logger *slog.Logger
}

// NewTradeHandler creates a TradeHandler with the given service and logger.
func NewTradeHandler(trades TradeExecutor, logger *slog.Logger) *TradeHandler {
	return &TradeHandler{
		trades: trades,
		logger: logger,
	}
}

// listTradesResponse wraps the list trades response.
type listTradesResponse struct {
	Trades []domain.Trade `json:"trades"`
}

// ExecuteTrade records a new executed trade from a JSON body and applies it
// to the caller's position ledger.
// POST /api/trades
func (h *TradeHandler) ExecuteTrade(w http.ResponseWriter, r *http.Request) {
	traderID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req service.TradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	trade, err := h.trades.Execute(r.Context(), traderID, req)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to execute trade")
		return
	}

	writeJSON(w, http.StatusCreated, trade)
}

// ListTrades returns the caller's trade history, newest first.
// GET /api/trades?network=...&status=...&pool_id=...&limit=50&offset=0
func (h *TradeHandler) ListTrades(w http.ResponseWriter, r *http.Request) {
	traderID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := domain.TradeFilter{
		Network: q.Get("network"),
		Status:  domain.TradeStatus(q.Get("status")),
		PoolID:  q.Get("pool_id"),
	}

	trades, err := h.trades.List(r.Context(), traderID, filter, parseListOpts(r))
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to list trades")
		return
	}

	if trades == nil {
		trades = []domain.Trade{}
	}

	writeJSON(w, http.StatusOK, listTradesResponse{Trades: trades})
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/copydesk/copydesk/internal/domain"
	"github.com/copydesk/copydesk/internal/ledger"
)

// TradeRequest carries the caller-supplied fields for recording an executed
// trade. TotalValue is preserved verbatim rather than re-derived from
// Quantity*Price; upstream reporting depends on the supplied figure.
type TradeRequest struct {
	PoolID     *string          `json:"pool_id"`
	Symbol     string           `json:"symbol"`
	Side       domain.TradeSide `json:"side"`
	Quantity   float64          `json:"quantity"`
	Price      float64          `json:"price"`
	TotalValue float64          `json:"total_value"`
	Fee        float64          `json:"fee"`
	Network    string           `json:"network"`
	TxHash     string           `json:"tx_hash"`
	GasUsed    *float64         `json:"gas_used"`
	GasPrice   *float64         `json:"gas_price"`
}

// TradeService records executed trades, feeds personal trades through the
// position ledger, and fans out trade events.
type TradeService struct {
	trades domain.TradeStore
	ledger *ledger.Service
	prices domain.PriceCache
	bus    domain.SignalBus
	audit  domain.AuditStore
	logger *slog.Logger
}

// NewTradeService creates a TradeService with all required dependencies.
func NewTradeService(
	trades domain.TradeStore,
	ledgerSvc *ledger.Service,
	prices domain.PriceCache,
	bus domain.SignalBus,
	audit domain.AuditStore,
	logger *slog.Logger,
) *TradeService {
	return &TradeService{
		trades: trades,
		ledger: ledgerSvc,
		prices: prices,
		bus:    bus,
		audit:  audit,
		logger: logger,
	}
}

// Execute validates and records an executed trade for traderID. Personal
// trades (nil PoolID) are additionally applied to the trader's position;
// pool trades only update the trade log, since pool accounting is owned by
// the pool manager's flow.
func (s *TradeService) Execute(ctx context.Context, traderID string, req TradeRequest) (domain.Trade, error) {
	if err := validateTradeRequest(traderID, req); err != nil {
		return domain.Trade{}, err
	}

	now := time.Now().UTC()
	trade := domain.Trade{
		ID:            uuid.New().String(),
		PoolID:        req.PoolID,
		TraderID:      traderID,
		Symbol:        req.Symbol,
		Side:          req.Side,
		Quantity:      req.Quantity,
		Price:         req.Price,
		TotalValue:    req.TotalValue,
		Fee:           req.Fee,
		Status:        domain.TradeStatusExecuted,
		Network:       req.Network,
		TxHash:        req.TxHash,
		GasUsed:       req.GasUsed,
		GasPrice:      req.GasPrice,
		ExecutionTime: &now,
		CreatedAt:     now,
	}
	if trade.TotalValue == 0 {
		trade.TotalValue = req.Quantity * req.Price
	}
	if trade.Network == "" {
		trade.Network = "ethereum"
	}

	if err := s.trades.Insert(ctx, trade); err != nil {
		return domain.Trade{}, fmt.Errorf("trade_service: insert trade: %w", err)
	}

	// Each executed fill is the freshest mark price for its symbol; portfolio
	// reads pick it up when revaluing open positions.
	if err := s.prices.SetPrice(ctx, trade.Symbol, trade.Price, now); err != nil {
		s.logger.WarnContext(ctx, "trade_service: mark price update failed",
			slog.String("symbol", trade.Symbol),
			slog.String("error", err.Error()),
		)
	}

	if trade.PoolID == nil {
		if _, _, err := s.ledger.ApplyTrade(ctx, traderID, trade.Symbol, trade.Side, trade.Quantity, trade.Price); err != nil {
			// Trade row is already durable; surface the position failure.
			return domain.Trade{}, fmt.Errorf("trade_service: apply trade %s to position: %w", trade.ID, err)
		}
	}

	evt, _ := json.Marshal(map[string]any{
		"event":       "trade_executed",
		"trade_id":    trade.ID,
		"trader_id":   trade.TraderID,
		"symbol":      trade.Symbol,
		"side":        string(trade.Side),
		"quantity":    trade.Quantity,
		"price":       trade.Price,
		"total_value": trade.TotalValue,
		"timestamp":   now.Format(time.RFC3339),
	})
	if pubErr := s.bus.Publish(ctx, "trades", evt); pubErr != nil {
		s.logger.WarnContext(ctx, "trade_service: publish event failed",
			slog.String("trade_id", trade.ID),
			slog.String("error", pubErr.Error()),
		)
	}

	if auditErr := s.audit.Log(ctx, "trade_executed", map[string]any{
		"trade_id":    trade.ID,
		"trader_id":   trade.TraderID,
		"symbol":      trade.Symbol,
		"side":        string(trade.Side),
		"total_value": trade.TotalValue,
	}); auditErr != nil {
		s.logger.WarnContext(ctx, "trade_service: audit log failed",
			slog.String("trade_id", trade.ID),
			slog.String("error", auditErr.Error()),
		)
	}

	s.logger.InfoContext(ctx, "trade_service: trade recorded",
		slog.String("trade_id", trade.ID),
		slog.String("symbol", trade.Symbol),
		slog.String("side", string(trade.Side)),
		slog.Float64("total_value", trade.TotalValue),
	)

	return trade, nil
}

// List returns the trader's trades, newest first, with optional network and
// status filters.
func (s *TradeService) List(ctx context.Context, traderID string, filter domain.TradeFilter, opts domain.ListOpts) ([]domain.Trade, error) {
	trades, err := s.trades.ListByTrader(ctx, traderID, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("trade_service: list for trader %q: %w", traderID, err)
	}
	return trades, nil
}

func validateTradeRequest(traderID string, req TradeRequest) error {
	if traderID == "" {
		return fmt.Errorf("trade_service: trader id required: %w", domain.ErrValidation)
	}
	if req.Symbol == "" {
		return fmt.Errorf("trade_service: symbol required: %w", domain.ErrValidation)
	}
	if !req.Side.Valid() {
		return fmt.Errorf("trade_service: unknown side %q: %w", req.Side, domain.ErrValidation)
	}
	if !(req.Quantity > 0) {
		return fmt.Errorf("trade_service: quantity must be positive: %w", domain.ErrValidation)
	}
	if !(req.Price > 0) {
		return fmt.Errorf("trade_service: price must be positive: %w", domain.ErrValidation)
	}
	if req.Fee < 0 {
		return fmt.Errorf("trade_service: fee must not be negative: %w", domain.ErrValidation)
	}
	return nil
}

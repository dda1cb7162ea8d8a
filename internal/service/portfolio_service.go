package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/copydesk/copydesk/internal/analytics"
	"github.com/copydesk/copydesk/internal/domain"
	"github.com/copydesk/copydesk/internal/ledger"
)

// AllocationSlice is one symbol's share of the portfolio.
type AllocationSlice struct {
	Symbol     string  `json:"symbol"`
	Value      float64 `json:"value"`
	Percentage float64 `json:"percentage"`
}

// RiskMetrics summarizes the portfolio's risk profile.
type RiskMetrics struct {
	ConcentrationRisk    float64 `json:"concentration_risk"`
	Volatility           float64 `json:"volatility"`
	RiskScore            int     `json:"risk_score"`
	DiversificationScore float64 `json:"diversification_score"`
}

// Investment is one followed pool with the follower's committed amount.
type Investment struct {
	PoolID           string  `json:"pool_id"`
	PoolName         string  `json:"pool_name"`
	Strategy         string  `json:"strategy"`
	TotalReturn      float64 `json:"total_return"`
	InvestmentAmount float64 `json:"investment_amount"`
	AutoCopy         bool    `json:"auto_copy"`
}

// PortfolioSummary aggregates the headline numbers for a user's holdings.
type PortfolioSummary struct {
	TotalValue    float64 `json:"total_value"`
	UnrealizedPnL float64 `json:"unrealized_pnl"`
	RealizedPnL   float64 `json:"realized_pnl"`
	ProfitLoss    float64 `json:"profit_loss"`
	WinRate       float64 `json:"win_rate"`
	PositionCount int     `json:"position_count"`
}

// PortfolioView is the full portfolio analytics response.
type PortfolioView struct {
	Summary      PortfolioSummary            `json:"summary"`
	Positions    []domain.Position           `json:"positions"`
	Allocation   []AllocationSlice           `json:"allocation"`
	History      []analytics.PortfolioBucket `json:"history"`
	RiskMetrics  RiskMetrics                 `json:"risk_metrics"`
	Investments  []Investment                `json:"investments"`
	RecentTrades []domain.Trade              `json:"recent_trades"`
}

// PortfolioService assembles per-user portfolio analytics from positions,
// trades, and pool investments.
type PortfolioService struct {
	positions domain.PositionStore
	trades    domain.TradeStore
	followers domain.FollowerStore
	pools     domain.PoolStore
	prices    domain.PriceCache
	logger    *slog.Logger
}

// NewPortfolioService creates a PortfolioService with all required
// dependencies.
func NewPortfolioService(
	positions domain.PositionStore,
	trades domain.TradeStore,
	followers domain.FollowerStore,
	pools domain.PoolStore,
	prices domain.PriceCache,
	logger *slog.Logger,
) *PortfolioService {
	return &PortfolioService{
		positions: positions,
		trades:    trades,
		followers: followers,
		pools:     pools,
		prices:    prices,
		logger:    logger,
	}
}

// View builds the complete portfolio view for userID. Prices are refreshed
// from the cache best-effort; a stale or missing quote leaves the persisted
// mark in place.
func (s *PortfolioService) View(ctx context.Context, userID string, opts domain.ListOpts) (PortfolioView, error) {
	positions, err := s.positions.ListByUser(ctx, userID)
	if err != nil {
		return PortfolioView{}, fmt.Errorf("portfolio_service: list positions for %q: %w", userID, err)
	}
	positions = s.refreshMarks(ctx, positions)

	trades, err := s.trades.ListByTrader(ctx, userID, domain.TradeFilter{}, opts)
	if err != nil {
		return PortfolioView{}, fmt.Errorf("portfolio_service: list trades for %q: %w", userID, err)
	}

	view := PortfolioView{
		Positions:   positions,
		Allocation:  allocation(positions),
		History:     analytics.PortfolioHistory(trades),
		RiskMetrics: riskMetrics(positions, trades),
	}

	var totalValue, unrealized, realized float64
	for i := range positions {
		totalValue += positions[i].Value()
		unrealized += positions[i].UnrealizedPnL
		realized += positions[i].RealizedPnL
	}
	view.Summary = PortfolioSummary{
		TotalValue:    totalValue,
		UnrealizedPnL: unrealized,
		RealizedPnL:   realized,
		ProfitLoss:    analytics.ProfitLoss(trades),
		WinRate:       analytics.WinRate(trades),
		PositionCount: len(positions),
	}

	view.Investments, err = s.investments(ctx, userID)
	if err != nil {
		return PortfolioView{}, err
	}

	if len(trades) > 10 {
		trades = trades[:10]
	}
	view.RecentTrades = trades

	return view, nil
}

// Positions returns the user's positions with refreshed marks and allocation
// percentages filled in.
func (s *PortfolioService) Positions(ctx context.Context, userID string) ([]domain.Position, error) {
	positions, err := s.positions.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("portfolio_service: list positions for %q: %w", userID, err)
	}
	return s.refreshMarks(ctx, positions), nil
}

// refreshMarks re-marks positions to the latest cached prices and recomputes
// allocation percentages over the refreshed values.
func (s *PortfolioService) refreshMarks(ctx context.Context, positions []domain.Position) []domain.Position {
	if len(positions) == 0 {
		return positions
	}

	symbols := make([]string, len(positions))
	for i, p := range positions {
		symbols[i] = p.Symbol
	}
	quotes, err := s.prices.GetPrices(ctx, symbols)
	if err != nil {
		s.logger.WarnContext(ctx, "portfolio_service: price refresh failed",
			slog.Int("symbols", len(symbols)),
			slog.String("error", err.Error()),
		)
		quotes = nil
	}

	var total float64
	for i := range positions {
		if price, ok := quotes[positions[i].Symbol]; ok && price > 0 {
			positions[i] = ledger.Mark(positions[i], price)
		}
		total += positions[i].Value()
	}
	for i := range positions {
		if total > 0 {
			positions[i].AllocationPercentage = positions[i].Value() / total * 100
		} else {
			positions[i].AllocationPercentage = 0
		}
	}
	return positions
}

func (s *PortfolioService) investments(ctx context.Context, userID string) ([]Investment, error) {
	follows, err := s.followers.ListByFollower(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("portfolio_service: list follows for %q: %w", userID, err)
	}

	out := make([]Investment, 0, len(follows))
	for _, f := range follows {
		inv := Investment{
			PoolID:           f.PoolID,
			InvestmentAmount: f.InvestmentAmount,
			AutoCopy:         f.AutoCopy,
		}
		pool, poolErr := s.pools.GetByID(ctx, f.PoolID)
		if poolErr != nil {
			s.logger.WarnContext(ctx, "portfolio_service: pool lookup failed for investment",
				slog.String("pool_id", f.PoolID),
				slog.String("error", poolErr.Error()),
			)
		} else {
			inv.PoolName = pool.Name
			inv.Strategy = pool.Strategy
			inv.TotalReturn = pool.TotalReturn
		}
		out = append(out, inv)
	}
	return out, nil
}

func allocation(positions []domain.Position) []AllocationSlice {
	var total float64
	for _, p := range positions {
		total += p.Value()
	}

	out := make([]AllocationSlice, 0, len(positions))
	for _, p := range positions {
		slice := AllocationSlice{Symbol: p.Symbol, Value: p.Value()}
		if total > 0 {
			slice.Percentage = p.Value() / total * 100
		}
		out = append(out, slice)
	}
	return out
}

func riskMetrics(positions []domain.Position, trades []domain.Trade) RiskMetrics {
	concentration := analytics.ConcentrationRisk(positions)
	volatility := analytics.Volatility(trades)
	return RiskMetrics{
		ConcentrationRisk:    concentration,
		Volatility:           volatility,
		RiskScore:            analytics.RiskScore(concentration, volatility),
		DiversificationScore: analytics.DiversificationScore(positions),
	}
}

package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/copydesk/copydesk/internal/analytics"
	"github.com/copydesk/copydesk/internal/domain"
)

// Timeframe values accepted by the analytics endpoints.
const (
	Timeframe7d  = "7d"
	Timeframe30d = "30d"
	Timeframe90d = "90d"
	Timeframe1y  = "1y"
)

// TimeframeDuration maps a timeframe token to its duration. Unknown tokens
// fall back to 30 days.
func TimeframeDuration(timeframe string) time.Duration {
	switch timeframe {
	case Timeframe7d:
		return 7 * 24 * time.Hour
	case Timeframe90d:
		return 90 * 24 * time.Hour
	case Timeframe1y:
		return 365 * 24 * time.Hour
	default:
		return 30 * 24 * time.Hour
	}
}

// PerformanceSummary aggregates headline trading numbers over a timeframe.
type PerformanceSummary struct {
	TotalTrades  int     `json:"total_trades"`
	TotalVolume  float64 `json:"total_volume"`
	ProfitLoss   float64 `json:"profit_loss"`
	WinRate      float64 `json:"win_rate"`
	AvgTradeSize float64 `json:"avg_trade_size"`
}

// PerformanceView is the full trading-performance response.
type PerformanceView struct {
	Timeframe     string                  `json:"timeframe"`
	Summary       PerformanceSummary      `json:"summary"`
	Chart         []analytics.ChartBucket `json:"chart"`
	TopPerformers []analytics.RankedPool  `json:"top_performers"`
	RecentTrades  []domain.Trade          `json:"recent_trades"`
}

// PerformanceService assembles trading-performance analytics over a
// caller-selected timeframe, for either a single trader or a pool.
type PerformanceService struct {
	trades domain.TradeStore
	pools  domain.PoolStore
	logger *slog.Logger
}

// NewPerformanceService creates a PerformanceService with all required
// dependencies.
func NewPerformanceService(trades domain.TradeStore, pools domain.PoolStore, logger *slog.Logger) *PerformanceService {
	return &PerformanceService{trades: trades, pools: pools, logger: logger}
}

// View builds performance analytics for userID over the timeframe. When
// poolID is non-empty the trade set is the pool's trades instead of the
// user's personal ones.
func (s *PerformanceService) View(ctx context.Context, userID, timeframe, poolID string) (PerformanceView, error) {
	since := time.Now().UTC().Add(-TimeframeDuration(timeframe))
	opts := domain.ListOpts{Since: &since}

	var (
		trades []domain.Trade
		err    error
	)
	if poolID != "" {
		trades, err = s.trades.ListByPool(ctx, poolID, opts)
	} else {
		trades, err = s.trades.ListByTrader(ctx, userID, domain.TradeFilter{}, opts)
	}
	if err != nil {
		return PerformanceView{}, fmt.Errorf("performance_service: list trades: %w", err)
	}

	view := PerformanceView{
		Timeframe: timeframe,
		Summary: PerformanceSummary{
			TotalTrades:  len(trades),
			TotalVolume:  analytics.TotalVolume(trades),
			ProfitLoss:   analytics.ProfitLoss(trades),
			WinRate:      analytics.WinRate(trades),
			AvgTradeSize: analytics.AvgTradeSize(trades),
		},
		Chart: analytics.PerformanceChart(trades),
	}

	top, err := s.pools.ListTop(ctx, "total_return", 5)
	if err != nil {
		s.logger.WarnContext(ctx, "performance_service: top performers lookup failed",
			slog.String("error", err.Error()),
		)
	} else {
		view.TopPerformers = analytics.LeaderboardRank(top, analytics.CategoryReturn, 5)
	}

	if len(trades) > 10 {
		trades = trades[:10]
	}
	view.RecentTrades = trades

	return view, nil
}

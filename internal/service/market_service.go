package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/copydesk/copydesk/internal/analytics"
	"github.com/copydesk/copydesk/internal/domain"
)

// NetworkStats summarizes wallet connections on one network.
type NetworkStats struct {
	Network      string  `json:"network"`
	Wallets      int     `json:"wallets"`
	TotalBalance float64 `json:"total_balance"`
}

// MarketView is the full market-data response.
type MarketView struct {
	Timeframe     string                     `json:"timeframe"`
	Symbols       []analytics.SymbolActivity `json:"symbols"`
	TrendingPools []analytics.RankedPool     `json:"trending_pools"`
	Networks      []NetworkStats             `json:"networks"`
}

// MarketService assembles platform-wide market activity from executed
// trades, pool standings, and wallet connections.
type MarketService struct {
	trades  domain.TradeStore
	pools   domain.PoolStore
	wallets domain.WalletStore
	logger  *slog.Logger
}

// NewMarketService creates a MarketService with all required dependencies.
func NewMarketService(
	trades domain.TradeStore,
	pools domain.PoolStore,
	wallets domain.WalletStore,
	logger *slog.Logger,
) *MarketService {
	return &MarketService{trades: trades, pools: pools, wallets: wallets, logger: logger}
}

// Overview builds the market view over the timeframe.
func (s *MarketService) Overview(ctx context.Context, timeframe string) (MarketView, error) {
	since := time.Now().UTC().Add(-TimeframeDuration(timeframe))

	trades, err := s.trades.ListExecuted(ctx, domain.ListOpts{Since: &since})
	if err != nil {
		return MarketView{}, fmt.Errorf("market_service: list executed trades: %w", err)
	}

	view := MarketView{
		Timeframe: timeframe,
		Symbols:   analytics.MarketOverview(trades),
	}

	trending, err := s.pools.ListTop(ctx, "total_return", 5)
	if err != nil {
		s.logger.WarnContext(ctx, "market_service: trending pools lookup failed",
			slog.String("error", err.Error()),
		)
	} else {
		view.TrendingPools = analytics.LeaderboardRank(trending, analytics.CategoryReturn, 5)
	}

	wallets, err := s.wallets.ListConnected(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "market_service: wallet stats lookup failed",
			slog.String("error", err.Error()),
		)
	} else {
		view.Networks = networkStats(wallets)
	}

	return view, nil
}

func networkStats(wallets []domain.WalletConnection) []NetworkStats {
	byNetwork := make(map[string]*NetworkStats)
	order := make([]string, 0, 4)
	for _, w := range wallets {
		st, ok := byNetwork[w.Network]
		if !ok {
			st = &NetworkStats{Network: w.Network}
			byNetwork[w.Network] = st
			order = append(order, w.Network)
		}
		st.Wallets++
		st.TotalBalance += w.Balance
	}

	out := make([]NetworkStats, 0, len(order))
	for _, n := range order {
		out = append(out, *byNetwork[n])
	}
	return out
}

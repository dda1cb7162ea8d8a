package service

import (
	"context"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/copydesk/copydesk/internal/domain"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestPortfolioView(t *testing.T) {
	positions := newMemPositionStore()
	trades := &memTradeStore{}
	followers := newMemFollowerStore()
	pools := newMemPoolStore()
	prices := newMemPriceCache()
	svc := NewPortfolioService(positions, trades, followers, pools, prices, slog.New(slog.DiscardHandler))
	ctx := context.Background()

	now := time.Now().UTC()
	_ = positions.Upsert(ctx, domain.Position{
		UserID: "user-1", Symbol: "ETH", Quantity: 2, AveragePrice: 10, CurrentPrice: 10,
	})
	_ = positions.Upsert(ctx, domain.Position{
		UserID: "user-1", Symbol: "BTC", Quantity: 1, AveragePrice: 50, CurrentPrice: 50,
	})
	// Fresh quote for ETH only; BTC keeps its persisted mark.
	_ = prices.SetPrice(ctx, "ETH", 25, now)

	_ = trades.Insert(ctx, domain.Trade{
		ID: "t1", TraderID: "user-1", Symbol: "ETH", Side: domain.TradeSideBuy,
		Quantity: 2, Price: 10, TotalValue: 20, Status: domain.TradeStatusExecuted, CreatedAt: now,
	})

	_ = pools.Create(ctx, domain.Pool{ID: "p1", Name: "Alpha", Strategy: "momentum", TotalReturn: 0.2, IsActive: true})
	_ = followers.Create(ctx, domain.PoolFollower{ID: "f1", PoolID: "p1", FollowerID: "user-1", InvestmentAmount: 500})

	view, err := svc.View(ctx, "user-1", domain.ListOpts{})
	if err != nil {
		t.Fatalf("View: %v", err)
	}

	// ETH re-marked to 25 (value 50), BTC marked at 50 (value 50).
	if !almostEqual(view.Summary.TotalValue, 100) {
		t.Fatalf("total value = %v, want 100", view.Summary.TotalValue)
	}
	if view.Summary.PositionCount != 2 {
		t.Fatalf("position count = %d, want 2", view.Summary.PositionCount)
	}
	if !almostEqual(view.Summary.ProfitLoss, -20) {
		t.Fatalf("profit loss = %v, want -20 (one buy)", view.Summary.ProfitLoss)
	}

	if len(view.Allocation) != 2 {
		t.Fatalf("allocation has %d slices, want 2", len(view.Allocation))
	}
	var pctSum float64
	for _, a := range view.Allocation {
		pctSum += a.Percentage
	}
	if !almostEqual(pctSum, 100) {
		t.Fatalf("allocation percentages sum to %v, want 100", pctSum)
	}

	if len(view.History) != 1 {
		t.Fatalf("history has %d buckets, want 1", len(view.History))
	}
	if view.RiskMetrics.RiskScore < 1 || view.RiskMetrics.RiskScore > 10 {
		t.Fatalf("risk score = %d, want within [1,10]", view.RiskMetrics.RiskScore)
	}
	if view.RiskMetrics.DiversificationScore != 20 {
		t.Fatalf("diversification = %v, want 20 for 2 positions", view.RiskMetrics.DiversificationScore)
	}

	if len(view.Investments) != 1 || view.Investments[0].PoolName != "Alpha" {
		t.Fatalf("investments = %+v, want Alpha pool", view.Investments)
	}
	if len(view.RecentTrades) != 1 {
		t.Fatalf("recent trades = %d, want 1", len(view.RecentTrades))
	}
}

func TestPortfolioViewEmpty(t *testing.T) {
	svc := NewPortfolioService(
		newMemPositionStore(), &memTradeStore{}, newMemFollowerStore(),
		newMemPoolStore(), newMemPriceCache(), slog.New(slog.DiscardHandler),
	)

	view, err := svc.View(context.Background(), "nobody", domain.ListOpts{})
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if view.Summary.TotalValue != 0 || view.Summary.WinRate != 0 || view.RiskMetrics.ConcentrationRisk != 0 {
		t.Fatalf("empty portfolio produced nonzero metrics: %+v", view.Summary)
	}
}

func TestPositionsRefreshMarks(t *testing.T) {
	positions := newMemPositionStore()
	prices := newMemPriceCache()
	svc := NewPortfolioService(positions, &memTradeStore{}, newMemFollowerStore(), newMemPoolStore(), prices, slog.New(slog.DiscardHandler))
	ctx := context.Background()

	_ = positions.Upsert(ctx, domain.Position{UserID: "u", Symbol: "ETH", Quantity: 4, AveragePrice: 10, CurrentPrice: 10})
	_ = prices.SetPrice(ctx, "ETH", 15, time.Now())

	got, err := svc.Positions(ctx, "u")
	if err != nil {
		t.Fatalf("Positions: %v", err)
	}
	if got[0].CurrentPrice != 15 {
		t.Fatalf("current price = %v, want refreshed 15", got[0].CurrentPrice)
	}
	if !almostEqual(got[0].UnrealizedPnL, 20) {
		t.Fatalf("unrealized = %v, want (15-10)*4 = 20", got[0].UnrealizedPnL)
	}
	if !almostEqual(got[0].AllocationPercentage, 100) {
		t.Fatalf("allocation = %v, want 100 for single position", got[0].AllocationPercentage)
	}
}

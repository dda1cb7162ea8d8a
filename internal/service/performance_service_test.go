package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/copydesk/copydesk/internal/domain"
)

func seedPerformanceTrades(t *testing.T, store *memTradeStore, traderID string) {
	t.Helper()
	now := time.Now().UTC()
	poolID := "p-1"
	trades := []domain.Trade{
		{
			ID: "t-old", TraderID: traderID, Symbol: "ETH", Side: domain.TradeSideBuy,
			Quantity: 1, Price: 100, TotalValue: 100,
			Status: domain.TradeStatusExecuted, CreatedAt: now.Add(-80 * 24 * time.Hour),
		},
		{
			ID: "t-buy", TraderID: traderID, Symbol: "ETH", Side: domain.TradeSideBuy,
			Quantity: 2, Price: 100, TotalValue: 200, Fee: 1,
			Status: domain.TradeStatusExecuted, CreatedAt: now.Add(-48 * time.Hour),
		},
		{
			ID: "t-sell", TraderID: traderID, Symbol: "ETH", Side: domain.TradeSideSell,
			Quantity: 1, Price: 150, TotalValue: 150, Fee: 1,
			Status: domain.TradeStatusExecuted, CreatedAt: now.Add(-24 * time.Hour),
		},
		{
			ID: "t-pool", TraderID: "someone-else", PoolID: &poolID, Symbol: "BTC",
			Side: domain.TradeSideBuy, Quantity: 1, Price: 50, TotalValue: 50,
			Status: domain.TradeStatusExecuted, CreatedAt: now.Add(-12 * time.Hour),
		},
	}
	for _, tr := range trades {
		if err := store.Insert(context.Background(), tr); err != nil {
			t.Fatal(err)
		}
	}
}

func TestPerformanceViewHonorsTimeframe(t *testing.T) {
	trades := &memTradeStore{}
	pools := newMemPoolStore()
	seedPerformanceTrades(t, trades, "alice")

	svc := NewPerformanceService(trades, pools, slog.New(slog.DiscardHandler))

	view, err := svc.View(context.Background(), "alice", "30d", "")
	if err != nil {
		t.Fatalf("View: %v", err)
	}

	// The 80-day-old trade and the pool trade by another trader are excluded.
	if view.Summary.TotalTrades != 2 {
		t.Fatalf("total trades = %d, want 2", view.Summary.TotalTrades)
	}
	if view.Summary.TotalVolume != 350 {
		t.Errorf("total volume = %v, want 350", view.Summary.TotalVolume)
	}
	// sell: 150 - 1 fee; buy: -200 - 1 fee.
	if view.Summary.ProfitLoss != -52 {
		t.Errorf("profit loss = %v, want -52", view.Summary.ProfitLoss)
	}
	if len(view.Chart) != 2 {
		t.Errorf("chart buckets = %d, want 2 (one per day)", len(view.Chart))
	}
}

func TestPerformanceViewScopedToPool(t *testing.T) {
	trades := &memTradeStore{}
	pools := newMemPoolStore()
	seedPerformanceTrades(t, trades, "alice")

	svc := NewPerformanceService(trades, pools, slog.New(slog.DiscardHandler))

	view, err := svc.View(context.Background(), "alice", "30d", "p-1")
	if err != nil {
		t.Fatalf("View: %v", err)
	}

	if view.Summary.TotalTrades != 1 {
		t.Fatalf("total trades = %d, want 1 (only the pool trade)", view.Summary.TotalTrades)
	}
	if view.Summary.TotalVolume != 50 {
		t.Errorf("total volume = %v, want 50", view.Summary.TotalVolume)
	}
}

func TestPerformanceViewIncludesTopPerformers(t *testing.T) {
	trades := &memTradeStore{}
	pools := newMemPoolStore()
	pools.Create(context.Background(), domain.Pool{ID: "p-a", Name: "A", IsActive: true, TotalReturn: 0.4})
	pools.Create(context.Background(), domain.Pool{ID: "p-b", Name: "B", IsActive: true, TotalReturn: 0.1})

	svc := NewPerformanceService(trades, pools, slog.New(slog.DiscardHandler))

	view, err := svc.View(context.Background(), "alice", "7d", "")
	if err != nil {
		t.Fatalf("View: %v", err)
	}

	if len(view.TopPerformers) != 2 {
		t.Fatalf("top performers = %d, want 2", len(view.TopPerformers))
	}
	if view.TopPerformers[0].Pool.ID != "p-a" || view.TopPerformers[0].Rank != 1 {
		t.Errorf("first performer = %s rank %d, want p-a rank 1",
			view.TopPerformers[0].Pool.ID, view.TopPerformers[0].Rank)
	}
}

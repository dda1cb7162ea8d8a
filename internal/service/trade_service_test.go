package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/copydesk/copydesk/internal/domain"
	"github.com/copydesk/copydesk/internal/ledger"
)

type tradeServiceEnv struct {
	svc       *TradeService
	trades    *memTradeStore
	positions *memPositionStore
	prices    *memPriceCache
	bus       *memBus
	audit     *memAuditStore
}

func newTradeServiceEnv() tradeServiceEnv {
	logger := slog.New(slog.DiscardHandler)
	trades := &memTradeStore{}
	positions := newMemPositionStore()
	prices := newMemPriceCache()
	bus := newMemBus()
	audit := &memAuditStore{}
	ledgerSvc := ledger.NewService(positions, memLockManager{}, bus, logger)
	return tradeServiceEnv{
		svc:       NewTradeService(trades, ledgerSvc, prices, bus, audit, logger),
		trades:    trades,
		positions: positions,
		prices:    prices,
		bus:       bus,
		audit:     audit,
	}
}

func TestExecutePersonalTradeAppliesLedger(t *testing.T) {
	env := newTradeServiceEnv()
	ctx := context.Background()

	trade, err := env.svc.Execute(ctx, "user-1", TradeRequest{
		Symbol:   "ETH",
		Side:     domain.TradeSideBuy,
		Quantity: 2,
		Price:    10,
		Fee:      0.5,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if trade.ID == "" || trade.Status != domain.TradeStatusExecuted {
		t.Fatalf("trade = %+v, want executed with generated id", trade)
	}
	if trade.TotalValue != 20 {
		t.Fatalf("total value = %v, want derived 20 when not supplied", trade.TotalValue)
	}

	pos, err := env.positions.Get(ctx, "user-1", "ETH")
	if err != nil {
		t.Fatalf("position not created: %v", err)
	}
	if pos.Quantity != 2 || pos.AveragePrice != 10 {
		t.Fatalf("position = %+v, want qty 2 avg 10", pos)
	}

	if got := len(env.bus.messages["trades"]); got != 1 {
		t.Fatalf("published %d trade events, want 1", got)
	}
	if events := env.audit.events(); len(events) != 1 || events[0] != "trade_executed" {
		t.Fatalf("audit events = %v, want [trade_executed]", events)
	}
}

func TestExecutePoolTradeSkipsLedger(t *testing.T) {
	env := newTradeServiceEnv()
	ctx := context.Background()

	poolID := "pool-1"
	if _, err := env.svc.Execute(ctx, "manager-1", TradeRequest{
		PoolID:   &poolID,
		Symbol:   "BTC",
		Side:     domain.TradeSideBuy,
		Quantity: 1,
		Price:    100,
	}); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if _, err := env.positions.Get(ctx, "manager-1", "BTC"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("pool trade created a personal position: err = %v", err)
	}
}

func TestExecutePreservesSuppliedTotalValue(t *testing.T) {
	env := newTradeServiceEnv()

	trade, err := env.svc.Execute(context.Background(), "user-1", TradeRequest{
		Symbol:     "ETH",
		Side:       domain.TradeSideBuy,
		Quantity:   2,
		Price:      10,
		TotalValue: 19.5, // caller figure, deliberately not qty*price
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if trade.TotalValue != 19.5 {
		t.Fatalf("total value = %v, want supplied 19.5 preserved", trade.TotalValue)
	}
}

func TestExecuteValidation(t *testing.T) {
	env := newTradeServiceEnv()
	ctx := context.Background()

	cases := []struct {
		name     string
		traderID string
		req      TradeRequest
	}{
		{"missing trader", "", TradeRequest{Symbol: "ETH", Side: domain.TradeSideBuy, Quantity: 1, Price: 1}},
		{"missing symbol", "u", TradeRequest{Side: domain.TradeSideBuy, Quantity: 1, Price: 1}},
		{"bad side", "u", TradeRequest{Symbol: "ETH", Side: "short", Quantity: 1, Price: 1}},
		{"zero quantity", "u", TradeRequest{Symbol: "ETH", Side: domain.TradeSideBuy, Price: 1}},
		{"zero price", "u", TradeRequest{Symbol: "ETH", Side: domain.TradeSideBuy, Quantity: 1}},
		{"negative fee", "u", TradeRequest{Symbol: "ETH", Side: domain.TradeSideBuy, Quantity: 1, Price: 1, Fee: -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := env.svc.Execute(ctx, tc.traderID, tc.req); !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
		})
	}

	if len(env.trades.trades) != 0 {
		t.Fatalf("%d trades stored despite validation failures", len(env.trades.trades))
	}
}

func TestListFiltersByNetwork(t *testing.T) {
	env := newTradeServiceEnv()
	ctx := context.Background()

	if _, err := env.svc.Execute(ctx, "user-1", TradeRequest{
		Symbol: "ETH", Side: domain.TradeSideBuy, Quantity: 1, Price: 10, Network: "polygon",
	}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if _, err := env.svc.Execute(ctx, "user-1", TradeRequest{
		Symbol: "ETH", Side: domain.TradeSideBuy, Quantity: 1, Price: 10, Network: "ethereum",
	}); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	got, err := env.svc.List(ctx, "user-1", domain.TradeFilter{Network: "polygon"}, domain.ListOpts{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].Network != "polygon" {
		t.Fatalf("got %d trades, want exactly the polygon one", len(got))
	}
}

func TestExecuteRefreshesMarkPriceForPortfolio(t *testing.T) {
	env := newTradeServiceEnv()
	ctx := context.Background()

	if _, err := env.svc.Execute(ctx, "user-1", TradeRequest{
		Symbol: "ETH", Side: domain.TradeSideBuy, Quantity: 2, Price: 10,
	}); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	// A later fill at a higher price becomes the mark for everyone holding
	// the symbol.
	if _, err := env.svc.Execute(ctx, "user-2", TradeRequest{
		Symbol: "ETH", Side: domain.TradeSideBuy, Quantity: 1, Price: 25,
	}); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	price, _, err := env.prices.GetPrice(ctx, "ETH")
	if err != nil {
		t.Fatalf("mark price not cached: %v", err)
	}
	if price != 25 {
		t.Fatalf("cached mark = %v, want last fill 25", price)
	}

	portfolio := NewPortfolioService(
		env.positions, env.trades, newMemFollowerStore(), newMemPoolStore(),
		env.prices, slog.New(slog.DiscardHandler),
	)
	view, err := portfolio.View(ctx, "user-1", domain.ListOpts{})
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if len(view.Positions) != 1 {
		t.Fatalf("got %d positions, want 1", len(view.Positions))
	}
	pos := view.Positions[0]
	if pos.CurrentPrice != 25 {
		t.Errorf("current price = %v, want marked at 25", pos.CurrentPrice)
	}
	if pos.UnrealizedPnL != 30 {
		t.Errorf("unrealized = %v, want (25-10)*2 = 30", pos.UnrealizedPnL)
	}
}

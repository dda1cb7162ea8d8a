package analytics

import (
	"testing"
	"time"

	"github.com/copydesk/copydesk/internal/domain"
)

func TestPerformanceChartBucketsByUTCDay(t *testing.T) {
	day1 := time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC)
	day2 := time.Date(2026, 3, 2, 0, 15, 0, 0, time.UTC)
	day3 := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)

	trades := []domain.Trade{
		trade(domain.TradeSideBuy, 2, 10, 1, day1),  // value 20
		trade(domain.TradeSideSell, 1, 30, 1, day2), // value 30
		trade(domain.TradeSideBuy, 1, 5, 0, day2),   // value 5
		trade(domain.TradeSideSell, 4, 10, 0, day3), // value 40
	}

	buckets := PerformanceChart(trades)
	if len(buckets) != 3 {
		t.Fatalf("got %d buckets, want 3", len(buckets))
	}
	for i := 1; i < len(buckets); i++ {
		if buckets[i-1].Date >= buckets[i].Date {
			t.Fatalf("buckets not ascending: %s then %s", buckets[i-1].Date, buckets[i].Date)
		}
	}

	var bucketVolume, tradeVolume float64
	for _, b := range buckets {
		bucketVolume += b.Volume
	}
	for _, tr := range trades {
		tradeVolume += tr.TotalValue
	}
	if !almostEqual(bucketVolume, tradeVolume) {
		t.Fatalf("bucket volume sum %v != trade value sum %v", bucketVolume, tradeVolume)
	}

	mid := buckets[1]
	if mid.Date != "2026-03-02" || mid.Trades != 2 || !almostEqual(mid.Volume, 35) {
		t.Fatalf("middle bucket = %+v, want 2026-03-02 with 2 trades, volume 35", mid)
	}
	// sell 30 - fee 1, buy -5 - fee 0.
	if !almostEqual(mid.PnL, 24) {
		t.Fatalf("middle bucket pnl = %v, want 24", mid.PnL)
	}
}

func TestPerformanceChartEmpty(t *testing.T) {
	if got := PerformanceChart(nil); len(got) != 0 {
		t.Fatalf("PerformanceChart(nil) = %v, want empty", got)
	}
}

func TestPortfolioHistoryCumulative(t *testing.T) {
	day1 := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)

	trades := []domain.Trade{
		trade(domain.TradeSideBuy, 1, 10, 0, day1),  // -10
		trade(domain.TradeSideSell, 1, 25, 0, day2), // +25
	}

	history := PortfolioHistory(trades)
	if len(history) != 2 {
		t.Fatalf("got %d buckets, want 2", len(history))
	}
	if !almostEqual(history[0].CumulativePnL, -10) {
		t.Fatalf("day1 cumulative = %v, want -10", history[0].CumulativePnL)
	}
	if !almostEqual(history[1].CumulativePnL, 15) {
		t.Fatalf("day2 cumulative = %v, want 15", history[1].CumulativePnL)
	}
}

package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/copydesk/copydesk/internal/domain"
)

func position(symbol string, qty, price float64) domain.Position {
	return domain.Position{Symbol: symbol, Quantity: qty, CurrentPrice: price}
}

func TestConcentrationRisk(t *testing.T) {
	positions := []domain.Position{
		position("ETH", 1, 600),  // 600
		position("BTC", 1, 300),  // 300
		position("SOL", 10, 10),  // 100
	}
	if got := ConcentrationRisk(positions); !almostEqual(got, 60) {
		t.Fatalf("ConcentrationRisk = %v, want 60", got)
	}
}

func TestConcentrationRiskEmpty(t *testing.T) {
	if got := ConcentrationRisk(nil); got != 0 {
		t.Fatalf("ConcentrationRisk(nil) = %v, want 0", got)
	}
	zero := []domain.Position{position("ETH", 0, 0)}
	if got := ConcentrationRisk(zero); got != 0 {
		t.Fatalf("ConcentrationRisk(zero-value) = %v, want 0", got)
	}
}

func TestVolatility(t *testing.T) {
	now := time.Now()
	trades := []domain.Trade{
		trade(domain.TradeSideSell, 1, 100, 0, now),               // +100
		trade(domain.TradeSideBuy, 1, 100, 0, now.Add(time.Hour)), // -100
	}
	// mean 0, deviations ±100, stddev 100.
	if got := Volatility(trades); !almostEqual(got, 100) {
		t.Fatalf("Volatility = %v, want 100", got)
	}
}

func TestVolatilityEmpty(t *testing.T) {
	if got := Volatility(nil); got != 0 {
		t.Fatalf("Volatility(nil) = %v, want 0", got)
	}
}

func TestVolatilitySingleTrade(t *testing.T) {
	trades := []domain.Trade{trade(domain.TradeSideBuy, 1, 50, 0, time.Now())}
	if got := Volatility(trades); got != 0 {
		t.Fatalf("Volatility(single) = %v, want 0", got)
	}
}

func TestVolatilityUsesMostRecentWindow(t *testing.T) {
	base := time.Now()
	// One huge old trade outside the window, then 30 identical recent ones.
	trades := []domain.Trade{trade(domain.TradeSideSell, 1, 1e9, 0, base)}
	for i := 1; i <= volatilityWindow; i++ {
		trades = append(trades, trade(domain.TradeSideSell, 1, 100, 0, base.Add(time.Duration(i)*time.Minute)))
	}
	if got := Volatility(trades); got != 0 {
		t.Fatalf("Volatility = %v, want 0 (identical trades inside window)", got)
	}
}

func TestRiskScoreClamps(t *testing.T) {
	if got := RiskScore(0, 0); got != 1 {
		t.Fatalf("RiskScore(0,0) = %d, want 1", got)
	}
	if got := RiskScore(1000, 1e9); got != 10 {
		t.Fatalf("RiskScore(high) = %d, want 10", got)
	}
	// (50 + 5000/1000)/10 = 5.5 rounds to 6.
	if got := RiskScore(50, 5000); got != 6 {
		t.Fatalf("RiskScore(50,5000) = %d, want 6", got)
	}
	if got := RiskScore(math.NaN(), math.Inf(1)); got != 1 {
		t.Fatalf("RiskScore(NaN,Inf) = %d, want 1", got)
	}
}

func TestDiversificationScore(t *testing.T) {
	if got := DiversificationScore(nil); got != 0 {
		t.Fatalf("DiversificationScore(nil) = %v, want 0", got)
	}
	three := []domain.Position{position("A", 1, 1), position("B", 1, 1), position("C", 1, 1)}
	if got := DiversificationScore(three); got != 30 {
		t.Fatalf("DiversificationScore(3) = %v, want 30", got)
	}
	many := make([]domain.Position, 15)
	if got := DiversificationScore(many); got != 100 {
		t.Fatalf("DiversificationScore(15) = %v, want 100", got)
	}
}

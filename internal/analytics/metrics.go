// Package analytics computes derived, read-only metrics over collections of
// trades, pools, and positions. Every function in this package is a pure
// transform: no storage access, no clock access beyond the timestamps carried
// by its inputs.
//
// Failure semantics are availability-first: missing or malformed numeric
// fields count as zero and every division is guarded, so a dashboard metric
// degrades to 0 instead of propagating NaN or Inf.
package analytics

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/copydesk/copydesk/internal/domain"
)

// Performance score component weights.
const (
	returnWeight    = 0.4
	sharpeWeight    = 0.3
	aumWeight       = 0.2
	followersWeight = 0.1
)

// PerformanceScore computes a weighted composite score in [0, 100] for a
// pool, blending normalized return, Sharpe ratio, AUM, and follower count.
// Degenerate inputs (negative, zero, NaN) clamp to the floor rather than
// producing a non-finite score.
func PerformanceScore(pool domain.Pool) int {
	normReturn := clamp(0, 100, pool.TotalReturn*100+50)
	normSharpe := clamp(0, 100, pool.SharpeRatio*20+50)

	aum := pool.AUM
	if aum < 1 {
		aum = 1
	}
	normAUM := clamp(0, 100, math.Log10(aum/1000)*10)

	normFollowers := clamp(0, 100, math.Log10(float64(pool.FollowersCount)+1)*25)

	score := returnWeight*normReturn +
		sharpeWeight*normSharpe +
		aumWeight*normAUM +
		followersWeight*normFollowers
	return int(math.Round(score))
}

// WinRate returns the percentage of trades counted as wins, rounded to two
// decimals. A trade counts as a win when it is a sell at a positive price.
// This is a deliberate simplification carried over from the dashboard it
// feeds; true win rate would require entry/exit pairing.
func WinRate(trades []domain.Trade) float64 {
	if len(trades) == 0 {
		return 0
	}
	wins := 0
	for _, t := range trades {
		if t.Side == domain.TradeSideSell && t.Price > 0 {
			wins++
		}
	}
	return round2(float64(wins) / float64(len(trades)) * 100)
}

// TradePnL is the signed cash impact of one trade: sells contribute their
// value net of fee, buys cost their value plus fee.
func TradePnL(t domain.Trade) float64 {
	if t.Side == domain.TradeSideSell {
		return safe(t.TotalValue) - safe(t.Fee)
	}
	return -safe(t.TotalValue) - safe(t.Fee)
}

// ProfitLoss sums TradePnL over all trades.
func ProfitLoss(trades []domain.Trade) float64 {
	var sum float64
	for _, t := range trades {
		sum += TradePnL(t)
	}
	return sum
}

// TotalVolume sums trade values.
func TotalVolume(trades []domain.Trade) float64 {
	var sum float64
	for _, t := range trades {
		sum += safe(t.TotalValue)
	}
	return sum
}

// AvgTradeSize is the mean trade value, 0 for an empty slice.
func AvgTradeSize(trades []domain.Trade) float64 {
	if len(trades) == 0 {
		return 0
	}
	return TotalVolume(trades) / float64(len(trades))
}

// clamp bounds v to [lo, hi]. NaN clamps to lo.
func clamp(lo, hi, v float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// safe maps NaN and Inf to 0 so malformed inputs cannot poison an aggregate.
func safe(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// round2 rounds to two decimal places using exact decimal arithmetic, the
// precision all money-denominated metrics are reported at.
func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

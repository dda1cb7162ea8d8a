package analytics

import (
	"math"
	"sort"

	"github.com/copydesk/copydesk/internal/domain"
)

// volatilityWindow caps how many recent trades feed the volatility estimate.
const volatilityWindow = 30

// ConcentrationRisk returns the largest single position's share of total
// portfolio value, as a percentage. 0 for an empty or zero-value portfolio.
func ConcentrationRisk(positions []domain.Position) float64 {
	var total float64
	for _, p := range positions {
		total += safe(p.Value())
	}
	if total == 0 {
		return 0
	}
	var maxShare float64
	for _, p := range positions {
		if share := safe(p.Value()) / total * 100; share > maxShare {
			maxShare = share
		}
	}
	return maxShare
}

// Volatility is the standard deviation of signed trade values (sell positive,
// buy negative) over the most recent volatilityWindow trades by created_at.
// 0 if there are no trades.
func Volatility(trades []domain.Trade) float64 {
	if len(trades) == 0 {
		return 0
	}

	recent := make([]domain.Trade, len(trades))
	copy(recent, trades)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].CreatedAt.After(recent[j].CreatedAt)
	})
	if len(recent) > volatilityWindow {
		recent = recent[:volatilityWindow]
	}

	values := make([]float64, len(recent))
	var mean float64
	for i, t := range recent {
		v := safe(t.TotalValue)
		if t.Side == domain.TradeSideBuy {
			v = -v
		}
		values[i] = v
		mean += v
	}
	mean /= float64(len(values))

	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))
	return math.Sqrt(variance)
}

// RiskScore folds concentration and volatility into a 1..10 rating.
func RiskScore(concentration, volatility float64) int {
	score := math.Round((safe(concentration) + safe(volatility)/1000) / 10)
	return int(clamp(1, 10, score))
}

// DiversificationScore grows 10 points per distinct held position, capped at
// 100.
func DiversificationScore(positions []domain.Position) float64 {
	return math.Min(100, float64(len(positions))*10)
}

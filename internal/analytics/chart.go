package analytics

import (
	"sort"
	"time"

	"github.com/copydesk/copydesk/internal/domain"
)

// ChartBucket is one calendar-day slice of trading activity.
type ChartBucket struct {
	Date   string  `json:"date"` // YYYY-MM-DD, UTC
	Volume float64 `json:"volume"`
	Trades int     `json:"trades"`
	PnL    float64 `json:"pnl"`
}

// PortfolioBucket extends ChartBucket with a running P&L total across the
// ascending date sequence.
type PortfolioBucket struct {
	ChartBucket
	CumulativePnL float64 `json:"cumulative_pnl"`
}

// PerformanceChart groups trades by UTC calendar day, accumulating volume,
// trade count, and signed P&L per bucket. Buckets are ordered by ascending
// date.
func PerformanceChart(trades []domain.Trade) []ChartBucket {
	byDay := make(map[string]*ChartBucket)
	for _, t := range trades {
		day := t.CreatedAt.UTC().Format(time.DateOnly)
		b, ok := byDay[day]
		if !ok {
			b = &ChartBucket{Date: day}
			byDay[day] = b
		}
		b.Volume += safe(t.TotalValue)
		b.Trades++
		b.PnL += TradePnL(t)
	}

	out := make([]ChartBucket, 0, len(byDay))
	for _, b := range byDay {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// PortfolioHistory is the cumulative variant of PerformanceChart: each bucket
// additionally carries the sum of P&L over itself and all earlier buckets.
func PortfolioHistory(trades []domain.Trade) []PortfolioBucket {
	daily := PerformanceChart(trades)
	out := make([]PortfolioBucket, len(daily))
	var running float64
	for i, b := range daily {
		running += b.PnL
		out[i] = PortfolioBucket{ChartBucket: b, CumulativePnL: running}
	}
	return out
}

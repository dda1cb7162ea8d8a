package analytics

import (
	"sort"

	"github.com/copydesk/copydesk/internal/domain"
)

// Leaderboard sort categories.
const (
	CategoryReturn    = "return"
	CategoryAUM       = "aum"
	CategorySharpe    = "sharpe"
	CategoryFollowers = "followers"
)

// RankedPool is a pool annotated with its leaderboard position and composite
// score.
type RankedPool struct {
	domain.Pool
	Rank             int `json:"rank"`
	PerformanceScore int `json:"performance_score"`
}

// LeaderboardRank sorts pools descending by the category field, truncates to
// limit, and assigns 1-based ranks. Unknown categories fall back to return.
// Ties keep their input order.
func LeaderboardRank(pools []domain.Pool, category string, limit int) []RankedPool {
	key := categoryKey(category)

	sorted := make([]domain.Pool, len(pools))
	copy(sorted, pools)
	sort.SliceStable(sorted, func(i, j int) bool {
		return key(sorted[i]) > key(sorted[j])
	})

	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}

	out := make([]RankedPool, len(sorted))
	for i, p := range sorted {
		out[i] = RankedPool{
			Pool:             p,
			Rank:             i + 1,
			PerformanceScore: PerformanceScore(p),
		}
	}
	return out
}

func categoryKey(category string) func(domain.Pool) float64 {
	switch category {
	case CategoryAUM:
		return func(p domain.Pool) float64 { return safe(p.AUM) }
	case CategorySharpe:
		return func(p domain.Pool) float64 { return safe(p.SharpeRatio) }
	case CategoryFollowers:
		return func(p domain.Pool) float64 { return float64(p.FollowersCount) }
	default:
		return func(p domain.Pool) float64 { return safe(p.TotalReturn) }
	}
}

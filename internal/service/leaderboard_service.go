package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/copydesk/copydesk/internal/analytics"
	"github.com/copydesk/copydesk/internal/domain"
)

const (
	defaultLeaderboardLimit = 20
	maxLeaderboardLimit     = 100

	// recentVolumeWindow is the lookback for the per-pool trading volume
	// shown alongside leaderboard entries.
	recentVolumeWindow = 30 * 24 * time.Hour
)

// LeaderboardEntry is a ranked pool enriched with its recent trading volume.
type LeaderboardEntry struct {
	analytics.RankedPool
	RecentVolume float64 `json:"recent_volume"`
}

// UserRanking is where one of the requesting user's pools sits on the
// leaderboard.
type UserRanking struct {
	PoolID   string `json:"pool_id"`
	PoolName string `json:"pool_name"`
	Rank     int    `json:"rank"`
}

// LeaderboardView is the full leaderboard response.
type LeaderboardView struct {
	Category     string             `json:"category"`
	Entries      []LeaderboardEntry `json:"entries"`
	UserRankings []UserRanking      `json:"user_rankings"`
}

// LeaderboardService ranks active pools and locates the requesting user's
// own pools within the ranking.
type LeaderboardService struct {
	pools  domain.PoolStore
	trades domain.TradeStore
	logger *slog.Logger
}

// NewLeaderboardService creates a LeaderboardService with all required
// dependencies.
func NewLeaderboardService(pools domain.PoolStore, trades domain.TradeStore, logger *slog.Logger) *LeaderboardService {
	return &LeaderboardService{pools: pools, trades: trades, logger: logger}
}

// View ranks all active pools by category and truncates to limit. The
// ranking always runs over the full active set so the requesting user's
// pools get their true positions even when they fall outside the page.
func (s *LeaderboardService) View(ctx context.Context, userID, category string, limit int) (LeaderboardView, error) {
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}

	pools, err := s.pools.ListActive(ctx, domain.PoolFilter{}, domain.ListOpts{})
	if err != nil {
		return LeaderboardView{}, fmt.Errorf("leaderboard_service: list active pools: %w", err)
	}

	ranked := analytics.LeaderboardRank(pools, category, 0)

	view := LeaderboardView{Category: category}
	if view.Category == "" {
		view.Category = analytics.CategoryReturn
	}

	top := ranked
	if len(top) > limit {
		top = top[:limit]
	}
	view.Entries = s.enrich(ctx, top)

	for _, rp := range ranked {
		if rp.ManagerID == userID {
			view.UserRankings = append(view.UserRankings, UserRanking{
				PoolID:   rp.ID,
				PoolName: rp.Name,
				Rank:     rp.Rank,
			})
		}
	}

	return view, nil
}

// enrich attaches each pool's trailing 30-day volume. A failed lookup leaves
// the volume at zero rather than failing the whole leaderboard.
func (s *LeaderboardService) enrich(ctx context.Context, ranked []analytics.RankedPool) []LeaderboardEntry {
	since := time.Now().UTC().Add(-recentVolumeWindow)

	entries := make([]LeaderboardEntry, len(ranked))
	for i, rp := range ranked {
		entries[i] = LeaderboardEntry{RankedPool: rp}
		trades, err := s.trades.ListByPool(ctx, rp.ID, domain.ListOpts{Since: &since})
		if err != nil {
			s.logger.WarnContext(ctx, "leaderboard_service: pool volume lookup failed",
				slog.String("pool_id", rp.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		entries[i].RecentVolume = analytics.TotalVolume(trades)
	}
	return entries
}

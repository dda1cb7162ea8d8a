package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/copydesk/copydesk/internal/domain"
)

// PoolRequest carries the caller-supplied fields for creating a trading pool.
type PoolRequest struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Strategy       string   `json:"strategy"`
	PerformanceFee float64  `json:"performance_fee"`
	ManagementFee  float64  `json:"management_fee"`
	MinInvestment  float64  `json:"min_investment"`
	MaxInvestment  *float64 `json:"max_investment"`
}

// FollowRequest carries the caller-supplied fields for following a pool.
type FollowRequest struct {
	InvestmentAmount float64 `json:"investment_amount"`
	AutoCopy         bool    `json:"auto_copy"`
}

// PoolService manages trading pools and follow relationships.
type PoolService struct {
	pools     domain.PoolStore
	followers domain.FollowerStore
	bus       domain.SignalBus
	audit     domain.AuditStore
	logger    *slog.Logger
}

// NewPoolService creates a PoolService with all required dependencies.
func NewPoolService(
	pools domain.PoolStore,
	followers domain.FollowerStore,
	bus domain.SignalBus,
	audit domain.AuditStore,
	logger *slog.Logger,
) *PoolService {
	return &PoolService{
		pools:     pools,
		followers: followers,
		bus:       bus,
		audit:     audit,
		logger:    logger,
	}
}

// Create registers a new active pool managed by managerID.
func (s *PoolService) Create(ctx context.Context, managerID string, req PoolRequest) (domain.Pool, error) {
	if managerID == "" {
		return domain.Pool{}, fmt.Errorf("pool_service: manager id required: %w", domain.ErrValidation)
	}
	if req.Name == "" {
		return domain.Pool{}, fmt.Errorf("pool_service: name required: %w", domain.ErrValidation)
	}
	if req.MinInvestment < 0 {
		return domain.Pool{}, fmt.Errorf("pool_service: min investment must not be negative: %w", domain.ErrValidation)
	}
	if req.MaxInvestment != nil && *req.MaxInvestment < req.MinInvestment {
		return domain.Pool{}, fmt.Errorf("pool_service: max investment below min: %w", domain.ErrValidation)
	}

	pool := domain.Pool{
		ID:             uuid.New().String(),
		Name:           req.Name,
		Description:    req.Description,
		ManagerID:      managerID,
		Strategy:       req.Strategy,
		PerformanceFee: req.PerformanceFee,
		ManagementFee:  req.ManagementFee,
		MinInvestment:  req.MinInvestment,
		MaxInvestment:  req.MaxInvestment,
		IsActive:       true,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.pools.Create(ctx, pool); err != nil {
		return domain.Pool{}, fmt.Errorf("pool_service: create pool: %w", err)
	}

	if auditErr := s.audit.Log(ctx, "pool_created", map[string]any{
		"pool_id":    pool.ID,
		"manager_id": pool.ManagerID,
		"name":       pool.Name,
		"strategy":   pool.Strategy,
	}); auditErr != nil {
		s.logger.WarnContext(ctx, "pool_service: audit log failed",
			slog.String("pool_id", pool.ID),
			slog.String("error", auditErr.Error()),
		)
	}

	s.publishPoolEvent(ctx, "pool_created", pool, map[string]any{
		"manager_id": pool.ManagerID,
		"strategy":   pool.Strategy,
	})

	s.logger.InfoContext(ctx, "pool_service: pool created",
		slog.String("pool_id", pool.ID),
		slog.String("manager_id", pool.ManagerID),
		slog.String("name", pool.Name),
	)

	return pool, nil
}

// Get returns one pool by id.
func (s *PoolService) Get(ctx context.Context, id string) (domain.Pool, error) {
	pool, err := s.pools.GetByID(ctx, id)
	if err != nil {
		return domain.Pool{}, fmt.Errorf("pool_service: get pool %q: %w", id, err)
	}
	return pool, nil
}

// ListActive returns active pools matching the filter.
func (s *PoolService) ListActive(ctx context.Context, filter domain.PoolFilter, opts domain.ListOpts) ([]domain.Pool, error) {
	pools, err := s.pools.ListActive(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("pool_service: list active: %w", err)
	}
	return pools, nil
}

// ListMine returns the pools managed by managerID.
func (s *PoolService) ListMine(ctx context.Context, managerID string) ([]domain.Pool, error) {
	pools, err := s.pools.ListByManager(ctx, managerID)
	if err != nil {
		return nil, fmt.Errorf("pool_service: list for manager %q: %w", managerID, err)
	}
	return pools, nil
}

// Follow subscribes followerID to the pool with an investment amount. The
// pool must be active, the amount must sit inside the pool's investment
// bounds, and a user can follow a pool at most once.
func (s *PoolService) Follow(ctx context.Context, poolID, followerID string, req FollowRequest) (domain.PoolFollower, error) {
	pool, err := s.pools.GetByID(ctx, poolID)
	if err != nil {
		return domain.PoolFollower{}, fmt.Errorf("pool_service: get pool %q: %w", poolID, err)
	}
	if !pool.IsActive {
		return domain.PoolFollower{}, fmt.Errorf("pool_service: follow pool %q: %w", poolID, domain.ErrPoolInactive)
	}
	if req.InvestmentAmount < pool.MinInvestment {
		return domain.PoolFollower{}, fmt.Errorf("pool_service: investment %.2f below pool minimum %.2f: %w",
			req.InvestmentAmount, pool.MinInvestment, domain.ErrValidation)
	}
	if pool.MaxInvestment != nil && req.InvestmentAmount > *pool.MaxInvestment {
		return domain.PoolFollower{}, fmt.Errorf("pool_service: investment %.2f above pool maximum %.2f: %w",
			req.InvestmentAmount, *pool.MaxInvestment, domain.ErrValidation)
	}

	if _, err := s.followers.Get(ctx, poolID, followerID); err == nil {
		return domain.PoolFollower{}, fmt.Errorf("pool_service: follow pool %q: %w", poolID, domain.ErrAlreadyFollowing)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.PoolFollower{}, fmt.Errorf("pool_service: check existing follow: %w", err)
	}

	follower := domain.PoolFollower{
		ID:               uuid.New().String(),
		PoolID:           poolID,
		FollowerID:       followerID,
		InvestmentAmount: req.InvestmentAmount,
		AutoCopy:         req.AutoCopy,
		JoinedAt:         time.Now().UTC(),
	}

	if err := s.followers.Create(ctx, follower); err != nil {
		return domain.PoolFollower{}, fmt.Errorf("pool_service: create follow: %w", err)
	}
	if err := s.pools.AdjustFollowers(ctx, poolID, 1); err != nil {
		s.logger.WarnContext(ctx, "pool_service: follower count adjust failed",
			slog.String("pool_id", poolID),
			slog.String("error", err.Error()),
		)
	}

	s.publishPoolEvent(ctx, "pool_followed", pool, map[string]any{
		"follower_id":       followerID,
		"investment_amount": req.InvestmentAmount,
	})

	if auditErr := s.audit.Log(ctx, "pool_followed", map[string]any{
		"pool_id":           poolID,
		"follower_id":       followerID,
		"investment_amount": req.InvestmentAmount,
		"auto_copy":         req.AutoCopy,
	}); auditErr != nil {
		s.logger.WarnContext(ctx, "pool_service: audit log failed",
			slog.String("pool_id", poolID),
			slog.String("error", auditErr.Error()),
		)
	}

	s.logger.InfoContext(ctx, "pool_service: pool followed",
		slog.String("pool_id", poolID),
		slog.String("follower_id", followerID),
		slog.Float64("investment_amount", req.InvestmentAmount),
	)

	return follower, nil
}

// Unfollow removes followerID's subscription to the pool.
func (s *PoolService) Unfollow(ctx context.Context, poolID, followerID string) error {
	if _, err := s.followers.Get(ctx, poolID, followerID); err != nil {
		return fmt.Errorf("pool_service: get follow %s/%s: %w", poolID, followerID, err)
	}

	if err := s.followers.Delete(ctx, poolID, followerID); err != nil {
		return fmt.Errorf("pool_service: delete follow: %w", err)
	}
	if err := s.pools.AdjustFollowers(ctx, poolID, -1); err != nil {
		s.logger.WarnContext(ctx, "pool_service: follower count adjust failed",
			slog.String("pool_id", poolID),
			slog.String("error", err.Error()),
		)
	}

	if auditErr := s.audit.Log(ctx, "pool_unfollowed", map[string]any{
		"pool_id":     poolID,
		"follower_id": followerID,
	}); auditErr != nil {
		s.logger.WarnContext(ctx, "pool_service: audit log failed",
			slog.String("pool_id", poolID),
			slog.String("error", auditErr.Error()),
		)
	}

	s.publishPoolEvent(ctx, "pool_unfollowed", domain.Pool{ID: poolID}, map[string]any{
		"follower_id": followerID,
	})

	s.logger.InfoContext(ctx, "pool_service: pool unfollowed",
		slog.String("pool_id", poolID),
		slog.String("follower_id", followerID),
	)

	return nil
}

func (s *PoolService) publishPoolEvent(ctx context.Context, event string, pool domain.Pool, extra map[string]any) {
	payload := map[string]any{
		"event":     event,
		"pool_id":   pool.ID,
		"pool_name": pool.Name,
	}
	for k, v := range extra {
		payload[k] = v
	}
	evt, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if pubErr := s.bus.Publish(ctx, "pools", evt); pubErr != nil {
		s.logger.WarnContext(ctx, "pool_service: publish event failed",
			slog.String("pool_id", pool.ID),
			slog.String("error", pubErr.Error()),
		)
	}
}

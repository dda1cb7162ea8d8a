package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/copydesk/copydesk/internal/domain"
)

// FollowerStore implements domain.FollowerStore using PostgreSQL.
type FollowerStore struct {
	pool *pgxpool.Pool
}

// NewFollowerStore creates a new FollowerStore backed by the given connection
// pool.
func NewFollowerStore(pool *pgxpool.Pool) *FollowerStore {
	return &FollowerStore{pool: pool}
}

const followerSelectCols = `id, pool_id, follower_id, investment_amount,
	allocation_percentage, auto_copy, joined_at`

func scanFollowerRows(rows pgx.Rows) ([]domain.PoolFollower, error) {
	var followers []domain.PoolFollower
	for rows.Next() {
		var f domain.PoolFollower
		if err := rows.Scan(
			&f.ID, &f.PoolID, &f.FollowerID, &f.InvestmentAmount,
			&f.AllocationPercentage, &f.AutoCopy, &f.JoinedAt,
		); err != nil {
			return nil, err
		}
		followers = append(followers, f)
	}
	return followers, rows.Err()
}

// Create inserts a new follow relationship.
func (s *FollowerStore) Create(ctx context.Context, f domain.PoolFollower) error {
	const query = `
		INSERT INTO pool_followers (
			id, pool_id, follower_id, investment_amount,
			allocation_percentage, auto_copy, joined_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := s.pool.Exec(ctx, query,
		f.ID, f.PoolID, f.FollowerID, f.InvestmentAmount,
		f.AllocationPercentage, f.AutoCopy, f.JoinedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: create follow %s/%s: %w", f.PoolID, f.FollowerID, err)
	}
	return nil
}

// Delete removes a follow relationship.
func (s *FollowerStore) Delete(ctx context.Context, poolID, followerID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM pool_followers WHERE pool_id = $1 AND follower_id = $2`,
		poolID, followerID,
	)
	if err != nil {
		return fmt.Errorf("postgres: delete follow %s/%s: %w", poolID, followerID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Get returns the follow relationship for (poolID, followerID), or
// domain.ErrNotFound.
func (s *FollowerStore) Get(ctx context.Context, poolID, followerID string) (domain.PoolFollower, error) {
	query := `SELECT ` + followerSelectCols + ` FROM pool_followers WHERE pool_id = $1 AND follower_id = $2`

	var f domain.PoolFollower
	err := s.pool.QueryRow(ctx, query, poolID, followerID).Scan(
		&f.ID, &f.PoolID, &f.FollowerID, &f.InvestmentAmount,
		&f.AllocationPercentage, &f.AutoCopy, &f.JoinedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.PoolFollower{}, domain.ErrNotFound
		}
		return domain.PoolFollower{}, fmt.Errorf("postgres: get follow %s/%s: %w", poolID, followerID, err)
	}
	return f, nil
}

// ListByFollower returns all pools the user follows.
func (s *FollowerStore) ListByFollower(ctx context.Context, followerID string) ([]domain.PoolFollower, error) {
	query := `SELECT ` + followerSelectCols + ` FROM pool_followers WHERE follower_id = $1 ORDER BY joined_at DESC`

	rows, err := s.pool.Query(ctx, query, followerID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list follows for %s: %w", followerID, err)
	}
	defer rows.Close()

	followers, err := scanFollowerRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan follows for %s: %w", followerID, err)
	}
	return followers, nil
}

// ListByPool returns all followers of a pool.
func (s *FollowerStore) ListByPool(ctx context.Context, poolID string) ([]domain.PoolFollower, error) {
	query := `SELECT ` + followerSelectCols + ` FROM pool_followers WHERE pool_id = $1 ORDER BY joined_at DESC`

	rows, err := s.pool.Query(ctx, query, poolID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list followers of %s: %w", poolID, err)
	}
	defer rows.Close()

	followers, err := scanFollowerRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan followers of %s: %w", poolID, err)
	}
	return followers, nil
}

var _ domain.FollowerStore = (*FollowerStore)(nil)

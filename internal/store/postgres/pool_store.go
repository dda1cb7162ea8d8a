package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/copydesk/copydesk/internal/domain"
)

// PoolStore implements domain.PoolStore using PostgreSQL.
type PoolStore struct {
	pool *pgxpool.Pool
}

// NewPoolStore creates a new PoolStore backed by the given connection pool.
func NewPoolStore(pool *pgxpool.Pool) *PoolStore {
	return &PoolStore{pool: pool}
}

const poolSelectCols = `id, name, description, manager_id, strategy, aum,
	total_return, sharpe_ratio, max_drawdown, risk_score, followers_count,
	performance_fee, management_fee, min_investment, max_investment,
	is_active, created_at`

func scanPool(row pgx.Row) (domain.Pool, error) {
	var p domain.Pool
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.ManagerID, &p.Strategy, &p.AUM,
		&p.TotalReturn, &p.SharpeRatio, &p.MaxDrawdown, &p.RiskScore,
		&p.FollowersCount, &p.PerformanceFee, &p.ManagementFee,
		&p.MinInvestment, &p.MaxInvestment, &p.IsActive, &p.CreatedAt,
	)
	return p, err
}

func scanPoolRows(rows pgx.Rows) ([]domain.Pool, error) {
	var pools []domain.Pool
	for rows.Next() {
		p, err := scanPool(rows)
		if err != nil {
			return nil, err
		}
		pools = append(pools, p)
	}
	return pools, rows.Err()
}

// Create inserts a new pool.
func (s *PoolStore) Create(ctx context.Context, p domain.Pool) error {
	const query = `
		INSERT INTO trading_pools (
			id, name, description, manager_id, strategy, aum,
			total_return, sharpe_ratio, max_drawdown, risk_score,
			followers_count, performance_fee, management_fee,
			min_investment, max_investment, is_active, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10,
			$11, $12, $13,
			$14, $15, $16, $17
		)`
	_, err := s.pool.Exec(ctx, query,
		p.ID, p.Name, p.Description, p.ManagerID, p.Strategy, p.AUM,
		p.TotalReturn, p.SharpeRatio, p.MaxDrawdown, p.RiskScore,
		p.FollowersCount, p.PerformanceFee, p.ManagementFee,
		p.MinInvestment, p.MaxInvestment, p.IsActive, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: create pool %s: %w", p.ID, err)
	}
	return nil
}

// GetByID returns a single pool by id.
func (s *PoolStore) GetByID(ctx context.Context, id string) (domain.Pool, error) {
	query := `SELECT ` + poolSelectCols + ` FROM trading_pools WHERE id = $1`

	p, err := scanPool(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Pool{}, domain.ErrNotFound
		}
		return domain.Pool{}, fmt.Errorf("postgres: get pool %s: %w", id, err)
	}
	return p, nil
}

// Update replaces a pool's mutable fields.
func (s *PoolStore) Update(ctx context.Context, p domain.Pool) error {
	const query = `
		UPDATE trading_pools SET
			name = $2, description = $3, strategy = $4, aum = $5,
			total_return = $6, sharpe_ratio = $7, max_drawdown = $8,
			risk_score = $9, performance_fee = $10, management_fee = $11,
			min_investment = $12, max_investment = $13, is_active = $14
		WHERE id = $1`
	tag, err := s.pool.Exec(ctx, query,
		p.ID, p.Name, p.Description, p.Strategy, p.AUM,
		p.TotalReturn, p.SharpeRatio, p.MaxDrawdown,
		p.RiskScore, p.PerformanceFee, p.ManagementFee,
		p.MinInvestment, p.MaxInvestment, p.IsActive,
	)
	if err != nil {
		return fmt.Errorf("postgres: update pool %s: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListActive returns active pools matching the filter, highest return first.
func (s *PoolStore) ListActive(ctx context.Context, filter domain.PoolFilter, opts domain.ListOpts) ([]domain.Pool, error) {
	query := `SELECT ` + poolSelectCols + ` FROM trading_pools WHERE is_active`
	args := []any{}
	argIdx := 1

	if filter.Strategy != "" {
		query += fmt.Sprintf(" AND strategy = $%d", argIdx)
		args = append(args, filter.Strategy)
		argIdx++
	}
	if filter.MinAUM > 0 {
		query += fmt.Sprintf(" AND aum >= $%d", argIdx)
		args = append(args, filter.MinAUM)
		argIdx++
	}
	if filter.MaxRisk > 0 {
		query += fmt.Sprintf(" AND risk_score <= $%d", argIdx)
		args = append(args, filter.MaxRisk)
		argIdx++
	}

	query += " ORDER BY total_return DESC"

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list active pools: %w", err)
	}
	defer rows.Close()

	pools, err := scanPoolRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan active pools: %w", err)
	}
	return pools, nil
}

// ListByManager returns all pools managed by managerID, newest first.
func (s *PoolStore) ListByManager(ctx context.Context, managerID string) ([]domain.Pool, error) {
	query := `SELECT ` + poolSelectCols + ` FROM trading_pools WHERE manager_id = $1 ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, managerID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list pools by manager: %w", err)
	}
	defer rows.Close()

	pools, err := scanPoolRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan pools by manager: %w", err)
	}
	return pools, nil
}

// ListTop returns the top active pools by the given column. Only known
// columns are accepted; anything else orders by total_return.
func (s *PoolStore) ListTop(ctx context.Context, orderBy string, limit int) ([]domain.Pool, error) {
	col := "total_return"
	switch orderBy {
	case "aum", "sharpe_ratio", "followers_count", "total_return":
		col = orderBy
	}

	query := `SELECT ` + poolSelectCols + ` FROM trading_pools WHERE is_active ORDER BY ` + col + ` DESC LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list top pools by %s: %w", col, err)
	}
	defer rows.Close()

	pools, err := scanPoolRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan top pools: %w", err)
	}
	return pools, nil
}

// AdjustFollowers atomically bumps a pool's follower count by delta, flooring
// at zero.
func (s *PoolStore) AdjustFollowers(ctx context.Context, id string, delta int) error {
	const query = `
		UPDATE trading_pools
		SET followers_count = GREATEST(0, followers_count + $2)
		WHERE id = $1`
	tag, err := s.pool.Exec(ctx, query, id, delta)
	if err != nil {
		return fmt.Errorf("postgres: adjust followers for pool %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

var _ domain.PoolStore = (*PoolStore)(nil)

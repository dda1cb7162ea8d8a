package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/copydesk/copydesk/internal/domain"
)

// PositionStore implements domain.PositionStore using PostgreSQL.
type PositionStore struct {
	pool *pgxpool.Pool
}

// NewPositionStore creates a new PositionStore backed by the given connection
// pool.
func NewPositionStore(pool *pgxpool.Pool) *PositionStore {
	return &PositionStore{pool: pool}
}

const positionSelectCols = `id, user_id, symbol, quantity, average_price,
	current_price, unrealized_pnl, realized_pnl, created_at, last_updated`

// Get returns the position for (userID, symbol), or domain.ErrNotFound.
func (s *PositionStore) Get(ctx context.Context, userID, symbol string) (domain.Position, error) {
	query := `SELECT ` + positionSelectCols + ` FROM positions WHERE user_id = $1 AND symbol = $2`

	var p domain.Position
	err := s.pool.QueryRow(ctx, query, userID, symbol).Scan(
		&p.ID, &p.UserID, &p.Symbol, &p.Quantity, &p.AveragePrice,
		&p.CurrentPrice, &p.UnrealizedPnL, &p.RealizedPnL,
		&p.CreatedAt, &p.LastUpdated,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Position{}, domain.ErrNotFound
		}
		return domain.Position{}, fmt.Errorf("postgres: get position %s/%s: %w", userID, symbol, err)
	}
	return p, nil
}

// Upsert writes the position, inserting on first write and replacing the
// accounting fields on conflict. (user_id, symbol) is unique.
func (s *PositionStore) Upsert(ctx context.Context, p domain.Position) error {
	const query = `
		INSERT INTO positions (
			user_id, symbol, quantity, average_price, current_price,
			unrealized_pnl, realized_pnl, created_at, last_updated
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id, symbol) DO UPDATE SET
			quantity       = EXCLUDED.quantity,
			average_price  = EXCLUDED.average_price,
			current_price  = EXCLUDED.current_price,
			unrealized_pnl = EXCLUDED.unrealized_pnl,
			realized_pnl   = EXCLUDED.realized_pnl,
			last_updated   = EXCLUDED.last_updated`
	_, err := s.pool.Exec(ctx, query,
		p.UserID, p.Symbol, p.Quantity, p.AveragePrice, p.CurrentPrice,
		p.UnrealizedPnL, p.RealizedPnL, p.CreatedAt, p.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert position %s/%s: %w", p.UserID, p.Symbol, err)
	}
	return nil
}

// ListByUser returns all of a user's positions, including closed ones with
// zero quantity.
func (s *PositionStore) ListByUser(ctx context.Context, userID string) ([]domain.Position, error) {
	query := `SELECT ` + positionSelectCols + ` FROM positions WHERE user_id = $1 ORDER BY symbol`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list positions for %s: %w", userID, err)
	}
	defer rows.Close()

	var positions []domain.Position
	for rows.Next() {
		var p domain.Position
		if err := rows.Scan(
			&p.ID, &p.UserID, &p.Symbol, &p.Quantity, &p.AveragePrice,
			&p.CurrentPrice, &p.UnrealizedPnL, &p.RealizedPnL,
			&p.CreatedAt, &p.LastUpdated,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan position: %w", err)
		}
		positions = append(positions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list positions for %s: %w", userID, err)
	}
	return positions, nil
}

var _ domain.PositionStore = (*PositionStore)(nil)

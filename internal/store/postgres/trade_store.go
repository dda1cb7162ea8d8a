package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/copydesk/copydesk/internal/domain"
)

// TradeStore implements domain.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *pgxpool.Pool
}

// NewTradeStore creates a new TradeStore backed by the given connection pool.
func NewTradeStore(pool *pgxpool.Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

const tradeSelectCols = `id, pool_id, trader_id, symbol, side, quantity, price,
	total_value, fee, status, network, tx_hash, gas_used, gas_price,
	execution_time, created_at`

func scanTradeRows(rows pgx.Rows) ([]domain.Trade, error) {
	var trades []domain.Trade
	for rows.Next() {
		var t domain.Trade
		if err := rows.Scan(
			&t.ID, &t.PoolID, &t.TraderID, &t.Symbol, &t.Side,
			&t.Quantity, &t.Price, &t.TotalValue, &t.Fee, &t.Status,
			&t.Network, &t.TxHash, &t.GasUsed, &t.GasPrice,
			&t.ExecutionTime, &t.CreatedAt,
		); err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// Insert appends one executed trade. Trades are append-only; there is no
// update path.
func (s *TradeStore) Insert(ctx context.Context, t domain.Trade) error {
	const query = `
		INSERT INTO trades (
			id, pool_id, trader_id, symbol, side, quantity, price,
			total_value, fee, status, network, tx_hash,
			gas_used, gas_price, execution_time, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12,
			$13, $14, $15, $16
		)`
	_, err := s.pool.Exec(ctx, query,
		t.ID, t.PoolID, t.TraderID, t.Symbol, t.Side, t.Quantity, t.Price,
		t.TotalValue, t.Fee, t.Status, t.Network, t.TxHash,
		t.GasUsed, t.GasPrice, t.ExecutionTime, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert trade %s: %w", t.ID, err)
	}
	return nil
}

// GetByID returns a single trade by id.
func (s *TradeStore) GetByID(ctx context.Context, id string) (domain.Trade, error) {
	query := `SELECT ` + tradeSelectCols + ` FROM trades WHERE id = $1`

	var t domain.Trade
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.PoolID, &t.TraderID, &t.Symbol, &t.Side,
		&t.Quantity, &t.Price, &t.TotalValue, &t.Fee, &t.Status,
		&t.Network, &t.TxHash, &t.GasUsed, &t.GasPrice,
		&t.ExecutionTime, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Trade{}, domain.ErrNotFound
		}
		return domain.Trade{}, fmt.Errorf("postgres: get trade %s: %w", id, err)
	}
	return t, nil
}

// ListByTrader returns a trader's trades, newest first, with optional
// network/status filters and pagination.
func (s *TradeStore) ListByTrader(ctx context.Context, traderID string, filter domain.TradeFilter, opts domain.ListOpts) ([]domain.Trade, error) {
	query := `SELECT ` + tradeSelectCols + ` FROM trades WHERE trader_id = $1`
	args := []any{traderID}
	argIdx := 2

	if filter.Network != "" {
		query += fmt.Sprintf(" AND network = $%d", argIdx)
		args = append(args, filter.Network)
		argIdx++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, filter.Status)
		argIdx++
	}
	if filter.PoolID != "" {
		query += fmt.Sprintf(" AND pool_id = $%d", argIdx)
		args = append(args, filter.PoolID)
		argIdx++
	}

	query, args = appendListOpts(query, args, argIdx, opts)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list trades by trader: %w", err)
	}
	defer rows.Close()

	trades, err := scanTradeRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan trades by trader: %w", err)
	}
	return trades, nil
}

// ListByPool returns a pool's trades, newest first.
func (s *TradeStore) ListByPool(ctx context.Context, poolID string, opts domain.ListOpts) ([]domain.Trade, error) {
	query := `SELECT ` + tradeSelectCols + ` FROM trades WHERE pool_id = $1`
	args := []any{poolID}

	query, args = appendListOpts(query, args, 2, opts)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list trades by pool: %w", err)
	}
	defer rows.Close()

	trades, err := scanTradeRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan trades by pool: %w", err)
	}
	return trades, nil
}

// ListByPools returns trades across a set of pools, newest first.
func (s *TradeStore) ListByPools(ctx context.Context, poolIDs []string, opts domain.ListOpts) ([]domain.Trade, error) {
	if len(poolIDs) == 0 {
		return nil, nil
	}

	query := `SELECT ` + tradeSelectCols + ` FROM trades WHERE pool_id = ANY($1)`
	args := []any{poolIDs}

	query, args = appendListOpts(query, args, 2, opts)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list trades by pools: %w", err)
	}
	defer rows.Close()

	trades, err := scanTradeRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan trades by pools: %w", err)
	}
	return trades, nil
}

// ListExecuted returns executed trades platform-wide, newest first.
func (s *TradeStore) ListExecuted(ctx context.Context, opts domain.ListOpts) ([]domain.Trade, error) {
	query := `SELECT ` + tradeSelectCols + ` FROM trades WHERE status = 'executed'`
	args := []any{}

	query, args = appendListOpts(query, args, 1, opts)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list executed trades: %w", err)
	}
	defer rows.Close()

	trades, err := scanTradeRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan executed trades: %w", err)
	}
	return trades, nil
}

// ListBefore returns all trades created strictly before the cutoff, oldest
// first, for archival.
func (s *TradeStore) ListBefore(ctx context.Context, before time.Time) ([]domain.Trade, error) {
	query := `SELECT ` + tradeSelectCols + ` FROM trades WHERE created_at < $1 ORDER BY created_at ASC`

	rows, err := s.pool.Query(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("postgres: list trades before %s: %w", before.Format(time.RFC3339), err)
	}
	defer rows.Close()

	trades, err := scanTradeRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan trades before cutoff: %w", err)
	}
	return trades, nil
}

// DeleteBefore removes trades created strictly before the cutoff and returns
// the number of rows removed.
func (s *TradeStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM trades WHERE created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete trades before %s: %w", before.Format(time.RFC3339), err)
	}
	return tag.RowsAffected(), nil
}

// appendListOpts adds time filtering, ordering, and pagination shared by the
// trade list queries.
func appendListOpts(query string, args []any, argIdx int, opts domain.ListOpts) (string, []any) {
	if opts.Since != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", argIdx)
		args = append(args, *opts.Since)
		argIdx++
	}
	if opts.Until != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", argIdx)
		args = append(args, *opts.Until)
		argIdx++
	}

	query += " ORDER BY created_at DESC"

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}
	return query, args
}

var _ domain.TradeStore = (*TradeStore)(nil)

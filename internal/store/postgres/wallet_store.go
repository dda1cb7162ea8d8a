package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/copydesk/copydesk/internal/domain"
)

// WalletStore implements domain.WalletStore using PostgreSQL.
type WalletStore struct {
	pool *pgxpool.Pool
}

// NewWalletStore creates a new WalletStore backed by the given connection
// pool.
func NewWalletStore(pool *pgxpool.Pool) *WalletStore {
	return &WalletStore{pool: pool}
}

const walletSelectCols = `id, user_id, address, network, balance, is_connected, connected_at`

func scanWalletRows(rows pgx.Rows) ([]domain.WalletConnection, error) {
	var wallets []domain.WalletConnection
	for rows.Next() {
		var w domain.WalletConnection
		if err := rows.Scan(
			&w.ID, &w.UserID, &w.Address, &w.Network,
			&w.Balance, &w.IsConnected, &w.ConnectedAt,
		); err != nil {
			return nil, err
		}
		wallets = append(wallets, w)
	}
	return wallets, rows.Err()
}

// Upsert writes the wallet connection; re-connecting an existing
// (user, address) pair refreshes its network, balance, and status.
func (s *WalletStore) Upsert(ctx context.Context, w domain.WalletConnection) error {
	const query = `
		INSERT INTO wallet_connections (
			id, user_id, address, network, balance, is_connected, connected_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, address) DO UPDATE SET
			network      = EXCLUDED.network,
			balance      = EXCLUDED.balance,
			is_connected = EXCLUDED.is_connected,
			connected_at = EXCLUDED.connected_at`
	_, err := s.pool.Exec(ctx, query,
		w.ID, w.UserID, w.Address, w.Network, w.Balance, w.IsConnected, w.ConnectedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert wallet %s/%s: %w", w.UserID, w.Address, err)
	}
	return nil
}

// ListByUser returns all of a user's linked wallets.
func (s *WalletStore) ListByUser(ctx context.Context, userID string) ([]domain.WalletConnection, error) {
	query := `SELECT ` + walletSelectCols + ` FROM wallet_connections WHERE user_id = $1 ORDER BY connected_at DESC`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list wallets for %s: %w", userID, err)
	}
	defer rows.Close()

	wallets, err := scanWalletRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan wallets for %s: %w", userID, err)
	}
	return wallets, nil
}

// ListConnected returns every connected wallet platform-wide.
func (s *WalletStore) ListConnected(ctx context.Context) ([]domain.WalletConnection, error) {
	query := `SELECT ` + walletSelectCols + ` FROM wallet_connections WHERE is_connected ORDER BY connected_at DESC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: list connected wallets: %w", err)
	}
	defer rows.Close()

	wallets, err := scanWalletRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan connected wallets: %w", err)
	}
	return wallets, nil
}

var _ domain.WalletStore = (*WalletStore)(nil)

package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination and time filtering for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
}

// TradeStore persists executed trades. Trades are append-only; there is no
// update path.
type TradeStore interface {
	Insert(ctx context.Context, trade Trade) error
	GetByID(ctx context.Context, id string) (Trade, error)
	ListByTrader(ctx context.Context, traderID string, filter TradeFilter, opts ListOpts) ([]Trade, error)
	ListByPool(ctx context.Context, poolID string, opts ListOpts) ([]Trade, error)
	ListByPools(ctx context.Context, poolIDs []string, opts ListOpts) ([]Trade, error)
	ListExecuted(ctx context.Context, opts ListOpts) ([]Trade, error)
	ListBefore(ctx context.Context, before time.Time) ([]Trade, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// PositionStore persists portfolio positions, one row per (user, symbol).
type PositionStore interface {
	Get(ctx context.Context, userID, symbol string) (Position, error)
	Upsert(ctx context.Context, pos Position) error
	ListByUser(ctx context.Context, userID string) ([]Position, error)
}

// PoolStore persists trading pools.
type PoolStore interface {
	Create(ctx context.Context, pool Pool) error
	GetByID(ctx context.Context, id string) (Pool, error)
	Update(ctx context.Context, pool Pool) error
	ListActive(ctx context.Context, filter PoolFilter, opts ListOpts) ([]Pool, error)
	ListByManager(ctx context.Context, managerID string) ([]Pool, error)
	ListTop(ctx context.Context, orderBy string, limit int) ([]Pool, error)
	AdjustFollowers(ctx context.Context, id string, delta int) error
}

// FollowerStore persists pool follow relationships.
type FollowerStore interface {
	Create(ctx context.Context, f PoolFollower) error
	Delete(ctx context.Context, poolID, followerID string) error
	Get(ctx context.Context, poolID, followerID string) (PoolFollower, error)
	ListByFollower(ctx context.Context, followerID string) ([]PoolFollower, error)
	ListByPool(ctx context.Context, poolID string) ([]PoolFollower, error)
}

// WalletStore persists wallet connections.
type WalletStore interface {
	Upsert(ctx context.Context, w WalletConnection) error
	ListByUser(ctx context.Context, userID string) ([]WalletConnection, error)
	ListConnected(ctx context.Context) ([]WalletConnection, error)
}

// AuditEntry is a single audit log row.
type AuditEntry struct {
	ID        int64
	Event     string
	Detail    map[string]any
	CreatedAt time.Time
}

// AuditStore persists an append-only audit log.
type AuditStore interface {
	Log(ctx context.Context, event string, detail map[string]any) error
	List(ctx context.Context, opts ListOpts) ([]AuditEntry, error)
	ListBefore(ctx context.Context, before time.Time) ([]AuditEntry, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/copydesk/copydesk/internal/domain"
)

// In-memory store implementations shared by the service tests.

type memTradeStore struct {
	mu     sync.Mutex
	trades []domain.Trade
}

func (s *memTradeStore) Insert(_ context.Context, trade domain.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trades = append(s.trades, trade)
	return nil
}

func (s *memTradeStore) GetByID(_ context.Context, id string) (domain.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.trades {
		if t.ID == id {
			return t, nil
		}
	}
	return domain.Trade{}, domain.ErrNotFound
}

func (s *memTradeStore) list(match func(domain.Trade) bool, opts domain.ListOpts) []domain.Trade {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Trade
	for _, t := range s.trades {
		if !match(t) {
			continue
		}
		if opts.Since != nil && t.CreatedAt.Before(*opts.Since) {
			continue
		}
		if opts.Until != nil && t.CreatedAt.After(*opts.Until) {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out
}

func (s *memTradeStore) ListByTrader(_ context.Context, traderID string, filter domain.TradeFilter, opts domain.ListOpts) ([]domain.Trade, error) {
	return s.list(func(t domain.Trade) bool {
		if t.TraderID != traderID {
			return false
		}
		if filter.Network != "" && t.Network != filter.Network {
			return false
		}
		if filter.Status != "" && t.Status != filter.Status {
			return false
		}
		return true
	}, opts), nil
}

func (s *memTradeStore) ListByPool(_ context.Context, poolID string, opts domain.ListOpts) ([]domain.Trade, error) {
	return s.list(func(t domain.Trade) bool { return t.PoolID != nil && *t.PoolID == poolID }, opts), nil
}

func (s *memTradeStore) ListByPools(_ context.Context, poolIDs []string, opts domain.ListOpts) ([]domain.Trade, error) {
	ids := make(map[string]bool, len(poolIDs))
	for _, id := range poolIDs {
		ids[id] = true
	}
	return s.list(func(t domain.Trade) bool { return t.PoolID != nil && ids[*t.PoolID] }, opts), nil
}

func (s *memTradeStore) ListExecuted(_ context.Context, opts domain.ListOpts) ([]domain.Trade, error) {
	return s.list(func(t domain.Trade) bool { return t.Status == domain.TradeStatusExecuted }, opts), nil
}

func (s *memTradeStore) ListBefore(_ context.Context, before time.Time) ([]domain.Trade, error) {
	return s.list(func(t domain.Trade) bool { return t.CreatedAt.Before(before) }, domain.ListOpts{}), nil
}

func (s *memTradeStore) DeleteBefore(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var kept []domain.Trade
	var removed int64
	for _, t := range s.trades {
		if t.CreatedAt.Before(before) {
			removed++
			continue
		}
		kept = append(kept, t)
	}
	s.trades = kept
	return removed, nil
}

type memPositionStore struct {
	mu        sync.Mutex
	positions map[string]domain.Position
}

func newMemPositionStore() *memPositionStore {
	return &memPositionStore{positions: make(map[string]domain.Position)}
}

func (s *memPositionStore) Get(_ context.Context, userID, symbol string) (domain.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pos, ok := s.positions[userID+"/"+symbol]
	if !ok {
		return domain.Position{}, domain.ErrNotFound
	}
	return pos, nil
}

func (s *memPositionStore) Upsert(_ context.Context, pos domain.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions[pos.UserID+"/"+pos.Symbol] = pos
	return nil
}

func (s *memPositionStore) ListByUser(_ context.Context, userID string) ([]domain.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Position
	for _, p := range s.positions {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

type memPoolStore struct {
	mu    sync.Mutex
	pools map[string]domain.Pool
}

func newMemPoolStore() *memPoolStore {
	return &memPoolStore{pools: make(map[string]domain.Pool)}
}

func (s *memPoolStore) Create(_ context.Context, pool domain.Pool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pools[pool.ID] = pool
	return nil
}

func (s *memPoolStore) GetByID(_ context.Context, id string) (domain.Pool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pool, ok := s.pools[id]
	if !ok {
		return domain.Pool{}, domain.ErrNotFound
	}
	return pool, nil
}

func (s *memPoolStore) Update(_ context.Context, pool domain.Pool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pools[pool.ID]; !ok {
		return domain.ErrNotFound
	}
	s.pools[pool.ID] = pool
	return nil
}

func (s *memPoolStore) ListActive(_ context.Context, filter domain.PoolFilter, opts domain.ListOpts) ([]domain.Pool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Pool
	for _, p := range s.pools {
		if !p.IsActive {
			continue
		}
		if filter.Strategy != "" && p.Strategy != filter.Strategy {
			continue
		}
		if filter.MinAUM > 0 && p.AUM < filter.MinAUM {
			continue
		}
		if filter.MaxRisk > 0 && p.RiskScore > filter.MaxRisk {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (s *memPoolStore) ListByManager(_ context.Context, managerID string) ([]domain.Pool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Pool
	for _, p := range s.pools {
		if p.ManagerID == managerID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memPoolStore) ListTop(_ context.Context, orderBy string, limit int) ([]domain.Pool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Pool, 0, len(s.pools))
	for _, p := range s.pools {
		if p.IsActive {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		switch orderBy {
		case "aum":
			return out[i].AUM > out[j].AUM
		default:
			return out[i].TotalReturn > out[j].TotalReturn
		}
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memPoolStore) AdjustFollowers(_ context.Context, id string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	pool, ok := s.pools[id]
	if !ok {
		return domain.ErrNotFound
	}
	pool.FollowersCount += delta
	s.pools[id] = pool
	return nil
}

type memFollowerStore struct {
	mu        sync.Mutex
	followers map[string]domain.PoolFollower
}

func newMemFollowerStore() *memFollowerStore {
	return &memFollowerStore{followers: make(map[string]domain.PoolFollower)}
}

func (s *memFollowerStore) Create(_ context.Context, f domain.PoolFollower) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.followers[f.PoolID+"/"+f.FollowerID] = f
	return nil
}

func (s *memFollowerStore) Delete(_ context.Context, poolID, followerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := poolID + "/" + followerID
	if _, ok := s.followers[key]; !ok {
		return domain.ErrNotFound
	}
	delete(s.followers, key)
	return nil
}

func (s *memFollowerStore) Get(_ context.Context, poolID, followerID string) (domain.PoolFollower, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.followers[poolID+"/"+followerID]
	if !ok {
		return domain.PoolFollower{}, domain.ErrNotFound
	}
	return f, nil
}

func (s *memFollowerStore) ListByFollower(_ context.Context, followerID string) ([]domain.PoolFollower, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.PoolFollower
	for _, f := range s.followers {
		if f.FollowerID == followerID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (s *memFollowerStore) ListByPool(_ context.Context, poolID string) ([]domain.PoolFollower, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.PoolFollower
	for _, f := range s.followers {
		if f.PoolID == poolID {
			out = append(out, f)
		}
	}
	return out, nil
}

type memWalletStore struct {
	mu      sync.Mutex
	wallets map[string]domain.WalletConnection
}

func newMemWalletStore() *memWalletStore {
	return &memWalletStore{wallets: make(map[string]domain.WalletConnection)}
}

func (s *memWalletStore) Upsert(_ context.Context, w domain.WalletConnection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wallets[w.UserID+"/"+w.Address] = w
	return nil
}

func (s *memWalletStore) ListByUser(_ context.Context, userID string) ([]domain.WalletConnection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.WalletConnection
	for _, w := range s.wallets {
		if w.UserID == userID {
			out = append(out, w)
		}
	}
	return out, nil
}

func (s *memWalletStore) ListConnected(_ context.Context) ([]domain.WalletConnection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.WalletConnection
	for _, w := range s.wallets {
		if w.IsConnected {
			out = append(out, w)
		}
	}
	return out, nil
}

type memAuditStore struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
}

func (s *memAuditStore) Log(_ context.Context, event string, detail map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, domain.AuditEntry{
		ID:        int64(len(s.entries) + 1),
		Event:     event,
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
	})
	return nil
}

func (s *memAuditStore) List(_ context.Context, opts domain.ListOpts) ([]domain.AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]domain.AuditEntry(nil), s.entries...)
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (s *memAuditStore) ListBefore(_ context.Context, before time.Time) ([]domain.AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.AuditEntry
	for _, e := range s.entries {
		if e.CreatedAt.Before(before) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *memAuditStore) DeleteBefore(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var kept []domain.AuditEntry
	var removed int64
	for _, e := range s.entries {
		if e.CreatedAt.Before(before) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	s.entries = kept
	return removed, nil
}

func (s *memAuditStore) events() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Event
	}
	return out
}

type memPriceCache struct {
	mu     sync.Mutex
	prices map[string]float64
}

func newMemPriceCache() *memPriceCache {
	return &memPriceCache{prices: make(map[string]float64)}
}

func (c *memPriceCache) SetPrice(_ context.Context, symbol string, price float64, _ time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prices[symbol] = price
	return nil
}

func (c *memPriceCache) GetPrice(_ context.Context, symbol string) (float64, time.Time, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	price, ok := c.prices[symbol]
	if !ok {
		return 0, time.Time{}, domain.ErrNotFound
	}
	return price, time.Now().UTC(), nil
}

func (c *memPriceCache) GetPrices(_ context.Context, symbols []string) (map[string]float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]float64, len(symbols))
	for _, s := range symbols {
		if price, ok := c.prices[s]; ok {
			out[s] = price
		}
	}
	return out, nil
}

type memBus struct {
	mu       sync.Mutex
	messages map[string][][]byte
}

func newMemBus() *memBus {
	return &memBus{messages: make(map[string][][]byte)}
}

func (b *memBus) Publish(_ context.Context, channel string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages[channel] = append(b.messages[channel], payload)
	return nil
}

func (b *memBus) Subscribe(context.Context, string) (<-chan []byte, error) {
	ch := make(chan []byte)
	close(ch)
	return ch, nil
}

type memLockManager struct{}

func (memLockManager) Acquire(context.Context, string, time.Duration) (func(), error) {
	return func() {}, nil
}

var (
	_ domain.TradeStore    = (*memTradeStore)(nil)
	_ domain.PositionStore = (*memPositionStore)(nil)
	_ domain.PoolStore     = (*memPoolStore)(nil)
	_ domain.FollowerStore = (*memFollowerStore)(nil)
	_ domain.WalletStore   = (*memWalletStore)(nil)
	_ domain.AuditStore    = (*memAuditStore)(nil)
	_ domain.PriceCache    = (*memPriceCache)(nil)
	_ domain.SignalBus     = (*memBus)(nil)
	_ domain.LockManager   = memLockManager{}
)

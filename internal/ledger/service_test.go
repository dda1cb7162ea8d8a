package ledger

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/copydesk/copydesk/internal/domain"
)

type fakePositionStore struct {
	mu        sync.Mutex
	positions map[string]domain.Position
	upsertErr error
}

func newFakePositionStore() *fakePositionStore {
	return &fakePositionStore{positions: make(map[string]domain.Position)}
}

func (s *fakePositionStore) key(userID, symbol string) string { return userID + "/" + symbol }

func (s *fakePositionStore) Get(_ context.Context, userID, symbol string) (domain.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pos, ok := s.positions[s.key(userID, symbol)]
	if !ok {
		return domain.Position{}, domain.ErrNotFound
	}
	return pos, nil
}

func (s *fakePositionStore) Upsert(_ context.Context, pos domain.Position) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions[s.key(pos.UserID, pos.Symbol)] = pos
	return nil
}

func (s *fakePositionStore) ListByUser(_ context.Context, userID string) ([]domain.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Position
	for _, p := range s.positions {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

// fakeLockManager grants every acquisition unless holding is set.
type fakeLockManager struct {
	mu       sync.Mutex
	holding  map[string]bool
	acquired []string
}

func newFakeLockManager() *fakeLockManager {
	return &fakeLockManager{holding: make(map[string]bool)}
}

func (l *fakeLockManager) Acquire(_ context.Context, key string, _ time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.holding[key] {
		return nil, domain.ErrLockHeld
	}
	l.holding[key] = true
	l.acquired = append(l.acquired, key)
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.holding[key] = false
	}, nil
}

type fakeBus struct {
	mu       sync.Mutex
	messages map[string][][]byte
	err      error
}

func newFakeBus() *fakeBus {
	return &fakeBus{messages: make(map[string][][]byte)}
}

func (b *fakeBus) Publish(_ context.Context, channel string, payload []byte) error {
	if b.err != nil {
		return b.err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages[channel] = append(b.messages[channel], payload)
	return nil
}

func (b *fakeBus) Subscribe(context.Context, string) (<-chan []byte, error) {
	ch := make(chan []byte)
	close(ch)
	return ch, nil
}

var _ domain.PositionStore = (*fakePositionStore)(nil)
var _ domain.LockManager = (*fakeLockManager)(nil)
var _ domain.SignalBus = (*fakeBus)(nil)

func newTestService(store *fakePositionStore, locks *fakeLockManager, bus *fakeBus) *Service {
	return NewService(store, locks, bus, slog.New(slog.DiscardHandler))
}

func TestApplyTradeOpensPositionOnFirstBuy(t *testing.T) {
	store := newFakePositionStore()
	locks := newFakeLockManager()
	bus := newFakeBus()
	svc := newTestService(store, locks, bus)

	pos, written, err := svc.ApplyTrade(context.Background(), "user-1", "ETH", domain.TradeSideBuy, 2, 10)
	if err != nil {
		t.Fatalf("ApplyTrade: %v", err)
	}
	if !written {
		t.Fatal("written = false, want true")
	}
	if pos.Quantity != 2 || pos.AveragePrice != 10 {
		t.Fatalf("position = %+v, want qty 2 avg 10", pos)
	}

	stored, err := store.Get(context.Background(), "user-1", "ETH")
	if err != nil {
		t.Fatalf("Get after upsert: %v", err)
	}
	if stored.Quantity != 2 {
		t.Fatalf("stored quantity = %v, want 2", stored.Quantity)
	}
	if len(bus.messages["positions"]) != 1 {
		t.Fatalf("published %d events, want 1", len(bus.messages["positions"]))
	}
	if len(locks.acquired) != 1 || locks.acquired[0] != "position:user-1:ETH" {
		t.Fatalf("acquired locks = %v, want [position:user-1:ETH]", locks.acquired)
	}
}

func TestApplyTradeSellWithoutPositionIsNoOp(t *testing.T) {
	store := newFakePositionStore()
	bus := newFakeBus()
	svc := newTestService(store, newFakeLockManager(), bus)

	pos, written, err := svc.ApplyTrade(context.Background(), "user-1", "ETH", domain.TradeSideSell, 1, 10)
	if err != nil {
		t.Fatalf("ApplyTrade: %v", err)
	}
	if written {
		t.Fatal("written = true, want false for sell without position")
	}
	if pos != (domain.Position{}) {
		t.Fatalf("position = %+v, want zero value", pos)
	}
	if len(store.positions) != 0 {
		t.Fatalf("store has %d positions, want 0", len(store.positions))
	}
	if len(bus.messages["positions"]) != 0 {
		t.Fatal("no event should be published for a no-op")
	}
}

func TestApplyTradeUpdatesExistingPosition(t *testing.T) {
	store := newFakePositionStore()
	svc := newTestService(store, newFakeLockManager(), newFakeBus())
	ctx := context.Background()

	if _, _, err := svc.ApplyTrade(ctx, "user-1", "ETH", domain.TradeSideBuy, 2, 10); err != nil {
		t.Fatalf("first buy: %v", err)
	}
	if _, _, err := svc.ApplyTrade(ctx, "user-1", "ETH", domain.TradeSideBuy, 3, 20); err != nil {
		t.Fatalf("second buy: %v", err)
	}
	pos, _, err := svc.ApplyTrade(ctx, "user-1", "ETH", domain.TradeSideSell, 4, 25)
	if err != nil {
		t.Fatalf("sell: %v", err)
	}

	if pos.Quantity != 1 || !almostEqual(pos.AveragePrice, 16) || !almostEqual(pos.RealizedPnL, 36) {
		t.Fatalf("position = %+v, want qty 1, avg 16, realized 36", pos)
	}
}

func TestApplyTradeValidation(t *testing.T) {
	svc := newTestService(newFakePositionStore(), newFakeLockManager(), newFakeBus())

	_, _, err := svc.ApplyTrade(context.Background(), "user-1", "ETH", domain.TradeSideBuy, -1, 10)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestApplyTradeSurfacesUpsertError(t *testing.T) {
	store := newFakePositionStore()
	store.upsertErr = errors.New("connection reset")
	bus := newFakeBus()
	svc := newTestService(store, newFakeLockManager(), bus)

	_, _, err := svc.ApplyTrade(context.Background(), "user-1", "ETH", domain.TradeSideBuy, 1, 10)
	if err == nil {
		t.Fatal("err = nil, want upsert failure")
	}
	if len(bus.messages["positions"]) != 0 {
		t.Fatal("event published despite failed upsert")
	}
}

func TestApplyTradeRetriesHeldLock(t *testing.T) {
	store := newFakePositionStore()
	locks := newFakeLockManager()
	bus := newFakeBus()
	svc := newTestService(store, locks, bus)

	key := "position:user-1:ETH"
	locks.holding[key] = true
	go func() {
		time.Sleep(50 * time.Millisecond)
		locks.mu.Lock()
		locks.holding[key] = false
		locks.mu.Unlock()
	}()

	_, written, err := svc.ApplyTrade(context.Background(), "user-1", "ETH", domain.TradeSideBuy, 1, 10)
	if err != nil {
		t.Fatalf("ApplyTrade: %v", err)
	}
	if !written {
		t.Fatal("written = false, want true after lock release")
	}
}

func TestApplyTradePublishFailureDoesNotFailTrade(t *testing.T) {
	store := newFakePositionStore()
	bus := newFakeBus()
	bus.err = errors.New("redis down")
	svc := newTestService(store, newFakeLockManager(), bus)

	_, written, err := svc.ApplyTrade(context.Background(), "user-1", "ETH", domain.TradeSideBuy, 1, 10)
	if err != nil {
		t.Fatalf("ApplyTrade: %v", err)
	}
	if !written {
		t.Fatal("written = false, want true")
	}
}

package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/copydesk/copydesk/internal/domain"
)

const (
	// lockTTL bounds how long a crashed holder can block a position key.
	lockTTL = 5 * time.Second

	// lockRetryInterval is the pause between acquisition attempts when
	// another trade for the same (user, symbol) holds the lock.
	lockRetryInterval = 25 * time.Millisecond

	// lockAcquireTimeout bounds the total time spent waiting for the lock.
	lockAcquireTimeout = 3 * time.Second
)

// Service applies executed trades to persisted positions. Updates for a given
// (user, symbol) pair are serialized through a distributed lock so concurrent
// executions cannot interleave their read-modify-write cycles.
type Service struct {
	positions domain.PositionStore
	locks     domain.LockManager
	bus       domain.SignalBus
	logger    *slog.Logger
}

// NewService creates a ledger Service with all required dependencies.
func NewService(
	positions domain.PositionStore,
	locks domain.LockManager,
	bus domain.SignalBus,
	logger *slog.Logger,
) *Service {
	return &Service{
		positions: positions,
		locks:     locks,
		bus:       bus,
		logger:    logger,
	}
}

func positionLockKey(userID, symbol string) string {
	return "position:" + userID + ":" + symbol
}

// ApplyTrade folds a single executed trade into the (userID, symbol)
// position and persists the result. The returned bool reports whether a
// position was written: selling with no existing position is a defined no-op,
// not an error.
//
// The update is all-or-nothing; on any storage error the position is left as
// it was.
func (s *Service) ApplyTrade(ctx context.Context, userID, symbol string, side domain.TradeSide, quantity, price float64) (domain.Position, bool, error) {
	if err := validate(side, quantity, price); err != nil {
		return domain.Position{}, false, err
	}

	unlock, err := s.acquire(ctx, positionLockKey(userID, symbol))
	if err != nil {
		return domain.Position{}, false, err
	}
	defer unlock()

	pos, err := s.positions.Get(ctx, userID, symbol)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		if side == domain.TradeSideSell {
			// Cannot open a position by selling.
			s.logger.DebugContext(ctx, "ledger: sell against missing position ignored",
				slog.String("user_id", userID),
				slog.String("symbol", symbol),
			)
			return domain.Position{}, false, nil
		}
		pos, err = Open(userID, symbol, quantity, price, time.Now().UTC())
		if err != nil {
			return domain.Position{}, false, err
		}
	case err != nil:
		return domain.Position{}, false, fmt.Errorf("ledger: get position %s/%s: %w", userID, symbol, err)
	default:
		pos, err = Apply(pos, side, quantity, price)
		if err != nil {
			return domain.Position{}, false, err
		}
		pos.LastUpdated = time.Now().UTC()
	}

	if err := s.positions.Upsert(ctx, pos); err != nil {
		return domain.Position{}, false, fmt.Errorf("ledger: upsert position %s/%s: %w", userID, symbol, err)
	}

	s.publishUpdate(ctx, pos, side)

	return pos, true, nil
}

// acquire obtains the position lock, retrying while another holder has it.
func (s *Service) acquire(ctx context.Context, key string) (func(), error) {
	deadline := time.Now().Add(lockAcquireTimeout)
	for {
		unlock, err := s.locks.Acquire(ctx, key, lockTTL)
		if err == nil {
			return unlock, nil
		}
		if !errors.Is(err, domain.ErrLockHeld) {
			return nil, fmt.Errorf("ledger: acquire lock %s: %w", key, err)
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("ledger: lock %s not acquired within %s: %w", key, lockAcquireTimeout, domain.ErrLockHeld)
		}

		timer := time.NewTimer(lockRetryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("ledger: acquire lock %s: %w", key, ctx.Err())
		case <-timer.C:
		}
	}
}

// publishUpdate pushes a position snapshot onto the signal bus. Failures are
// logged but never surfaced: event fan-out must not fail the trade.
func (s *Service) publishUpdate(ctx context.Context, pos domain.Position, side domain.TradeSide) {
	evt, err := json.Marshal(map[string]any{
		"event":          "position_updated",
		"user_id":        pos.UserID,
		"symbol":         pos.Symbol,
		"side":           string(side),
		"quantity":       pos.Quantity,
		"average_price":  pos.AveragePrice,
		"current_price":  pos.CurrentPrice,
		"realized_pnl":   pos.RealizedPnL,
		"unrealized_pnl": pos.UnrealizedPnL,
	})
	if err != nil {
		return
	}
	if pubErr := s.bus.Publish(ctx, "positions", evt); pubErr != nil {
		s.logger.WarnContext(ctx, "ledger: publish position event failed",
			slog.String("user_id", pos.UserID),
			slog.String("symbol", pos.Symbol),
			slog.String("error", pubErr.Error()),
		)
	}
}

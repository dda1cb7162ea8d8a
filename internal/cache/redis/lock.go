package redis

import (
	"context"
	_ "embed"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/copydesk/copydesk/internal/domain"
)

//go:embed scripts/unlock.lua
var unlockLua string

// lockPrefix namespaces lock keys away from the cache's other key families.
const lockPrefix = "lock:"

// unlockTimeout bounds the release call; unlock runs on a background
// context so a cancelled caller can still give the lock back.
const unlockTimeout = 5 * time.Second

// LockManager implements domain.LockManager with SETNX-style locks. Each
// acquisition stores a random token and release is a token-checked Lua
// delete, so a lock that expired and was re-acquired elsewhere cannot be
// released by its previous holder.
type LockManager struct {
	rdb    *redis.Client
	unlock *redis.Script
}

var _ domain.LockManager = (*LockManager)(nil)

// NewLockManager creates a LockManager backed by the given Client.
func NewLockManager(c *Client) *LockManager {
	return &LockManager{
		rdb:    c.Underlying(),
		unlock: redis.NewScript(unlockLua),
	}
}

// Acquire takes the lock for key with the given TTL and returns its release
// function. Calling release more than once is harmless. Returns
// domain.ErrLockHeld when another holder has the lock.
func (lm *LockManager) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	token := uuid.New().String()
	lk := lockPrefix + key

	ok, err := lm.rdb.SetNX(ctx, lk, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, domain.ErrLockHeld
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			unlockCtx, cancel := context.WithTimeout(context.Background(), unlockTimeout)
			defer cancel()
			_ = lm.unlock.Run(unlockCtx, lm.rdb, []string{lk}, token).Err()
		})
	}
	return release, nil
}

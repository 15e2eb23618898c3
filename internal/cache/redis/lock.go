package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/oddslens/engine/internal/domain"
)

const cycleLockKey = "oddslens:lock:cycle"

// unlockLua deletes the lock key only if its value matches the caller's
// unique token, so one holder cannot release another holder's lock.
const unlockLua = `
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('DEL', KEYS[1])
end
return 0
`

// CycleLock implements domain.CycleLock using Redis SETNX with a TTL and a
// Lua-based conditional unlock. It is the single-flight guard that keeps
// replicas from running overlapping aggregation cycles.
type CycleLock struct {
	rdb      *redis.Client
	unlockSc *redis.Script
}

// NewCycleLock creates a CycleLock backed by the given Client.
func NewCycleLock(c *Client) *CycleLock {
	return &CycleLock{
		rdb:      c.Underlying(),
		unlockSc: redis.NewScript(unlockLua),
	}
}

// Acquire attempts to obtain the cycle lock with the specified TTL. On
// success it returns an unlock function that must be called to release the
// lock; the function is safe to call more than once. It returns
// domain.ErrLockHeld when another replica holds the lock.
func (cl *CycleLock) Acquire(ctx context.Context, ttl time.Duration) (func(), error) {
	token := uuid.New().String()

	ok, err := cl.rdb.SetNX(ctx, cycleLockKey, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: acquire cycle lock: %w", err)
	}
	if !ok {
		return nil, domain.ErrLockHeld
	}

	released := false
	unlock := func() {
		if released {
			return
		}
		released = true

		// Background context so unlock succeeds even if the caller's
		// context is already cancelled.
		unlockCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = cl.unlockSc.Run(unlockCtx, cl.rdb, []string{cycleLockKey}, token).Err()
	}

	return unlock, nil
}

// Compile-time interface check.
var _ domain.CycleLock = (*CycleLock)(nil)

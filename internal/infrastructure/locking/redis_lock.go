package locking

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	appreconciliation "github.com/satguard/backend/internal/application/reconciliation"
	"github.com/satguard/backend/internal/domain/shared"
)

// RedisLockManager serializes per-tenant reconciliations through
// short-lived Redis locks.
type RedisLockManager struct {
	locker *redislock.Client
}

// NewRedisLockManager creates a lock manager over a Redis client
func NewRedisLockManager(client *redis.Client) *RedisLockManager {
	return &RedisLockManager{locker: redislock.New(client)}
}

// Acquire obtains the named lock. A lock already held elsewhere maps
// to the domain concurrency conflict.
func (m *RedisLockManager) Acquire(ctx context.Context, key string, ttl time.Duration) (appreconciliation.Lock, error) {
	lock, err := m.locker.Obtain(ctx, "satguard:lock:"+key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, shared.ErrConcurrencyConflict
	}
	if err != nil {
		return nil, err
	}
	return &redisLock{lock: lock}, nil
}

type redisLock struct {
	lock *redislock.Lock
}

// Release frees the lock. Losing the lock before release is not an
// error worth surfacing to the caller.
func (l *redisLock) Release(ctx context.Context) error {
	err := l.lock.Release(ctx)
	if errors.Is(err, redislock.ErrLockNotHeld) {
		return nil
	}
	return err
}

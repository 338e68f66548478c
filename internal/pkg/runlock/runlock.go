// Package runlock provides the single-flight guard callers take around
// assignment runs.
package runlock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"github.com/yigit/internhub/internal/pkg/apperrors"
	"github.com/yigit/internhub/internal/pkg/logger"
)

// AssignmentRunKey guards assignment runs.
const AssignmentRunKey = "internhub:assignment-run"

// DefaultTTL is used when no TTL is configured.
const DefaultTTL = 5 * time.Minute

// Locker runs fn while holding the named lock. A held lock yields
// apperrors.ErrRunInProgress without calling fn.
type Locker interface {
	Do(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// RedisLocker holds locks in redis so separate processes exclude each other.
// The lock is refreshed at half its TTL while fn runs.
type RedisLocker struct {
	client *redislock.Client
	ttl    time.Duration
}

// NewRedisLocker creates a RedisLocker on rdb.
func NewRedisLocker(rdb redis.UniversalClient, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisLocker{client: redislock.New(rdb), ttl: ttl}
}

func (l *RedisLocker) Do(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	lock, err := l.client.Obtain(ctx, key, l.ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return fmt.Errorf("%w: %s is held", apperrors.ErrRunInProgress, key)
	}
	if err != nil {
		return fmt.Errorf("obtain %s: %w", key, err)
	}
	defer func() {
		// release on a fresh context so a cancelled run still frees the key
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := lock.Release(releaseCtx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			logger.Warn().Err(err).Str("key", key).Msg("Failed to release run lock")
		}
	}()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go l.keepAlive(runCtx, lock, key)

	return fn(runCtx)
}

func (l *RedisLocker) keepAlive(ctx context.Context, lock *redislock.Lock, key string) {
	ticker := time.NewTicker(l.ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := lock.Refresh(ctx, l.ttl, nil); err != nil && ctx.Err() == nil {
				logger.Warn().Err(err).Str("key", key).Msg("Failed to refresh run lock")
			}
		}
	}
}

// LocalLocker excludes runs within one process. It is used when redis is disabled.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

// NewLocalLocker creates a LocalLocker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]bool)}
}

func (l *LocalLocker) Do(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	if l.held[key] {
		l.mu.Unlock()
		return fmt.Errorf("%w: %s is held", apperrors.ErrRunInProgress, key)
	}
	l.held[key] = true
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		delete(l.held, key)
		l.mu.Unlock()
	}()
	return fn(ctx)
}

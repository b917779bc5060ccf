package cache

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockNotAcquired indicates the lock stayed held past the wait budget.
var ErrLockNotAcquired = errors.New("platform/cache: lock not acquired")

// RedisLock serializes critical sections across replicas with SET NX keys.
type RedisLock struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
	retry  time.Duration
}

// NewRedisLock constructs a RedisLock. Zero durations fall back to defaults
// sized for short read-modify-write sections.
func NewRedisLock(client *redis.Client, ttl, wait time.Duration) *RedisLock {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	if wait <= 0 {
		wait = 5 * time.Second
	}
	return &RedisLock{client: client, ttl: ttl, wait: wait, retry: 25 * time.Millisecond}
}

// Lock acquires the key, polling until the wait budget or context expires.
// The returned func releases the lock only if this holder still owns it.
func (l *RedisLock) Lock(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, ErrLockNotAcquired
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}
	unlock := func() {
		const release = `if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) else return 0 end`
		_ = l.client.Eval(context.Background(), release, []string{key}, token).Err()
	}
	return unlock, nil
}

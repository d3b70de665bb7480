package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLockNotAcquired = errors.New("resource lock not acquired")
)

// Locker guards the check-then-persist critical section of the scheduler.
// Locks are taken per bookable resource so concurrent requests for the same
// resource serialize, while requests for different resources proceed freely.
type Locker interface {
	WithResourceLock(ctx context.Context, resourceID uuid.UUID, fn func(ctx context.Context) error) error
}

type redisResourceLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisResourceLocker creates a locker that uses a per resource Redis key
func NewRedisResourceLocker(client *redis.Client, ttl time.Duration) Locker {
	return &redisResourceLocker{
		client: client,
		ttl:    ttl,
	}
}

func (l *redisResourceLocker) WithResourceLock(ctx context.Context, resourceID uuid.UUID, fn func(ctx context.Context) error) error {
	key := fmt.Sprintf("lock:resource:%s", resourceID.String())
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire resource lock: %w", err)
	}
	if !ok {
		return ErrLockNotAcquired
	}

	defer func() {
		_ = l.release(ctx, key, token)
	}()

	ctxWithTimeout, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(ctxWithTimeout)
}

var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *redisResourceLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release resource lock: %w", err)
	}
	return nil
}

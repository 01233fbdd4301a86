package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RunLock implements usecase.Locker using Redis SETNX. It guards batch runs
// such as scheduled accrual processing against concurrent execution.
type RunLock struct {
	client *redis.Client
	prefix string
}

// NewRunLock creates a new RunLock.
func NewRunLock(client *redis.Client) *RunLock {
	return &RunLock{
		client: client,
		prefix: "runlock:",
	}
}

// Acquire takes the lock for key. It returns false when another holder owns
// the key. The lock expires after ttl in case the holder dies mid-run.
func (l *RunLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	set, err := l.client.SetNX(ctx, l.prefix+key, "held", ttl).Result()
	if err != nil {
		return false, err
	}

	return set, nil
}

// Release frees the lock for key. Releasing an unheld lock is a no-op.
func (l *RunLock) Release(ctx context.Context, key string) error {
	return l.client.Del(ctx, l.prefix+key).Err()
}

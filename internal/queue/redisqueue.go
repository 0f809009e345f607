package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DistributedLock extends the process-local single-flight marker set in
// internal/cache across multiple worker processes sharing one Redis
// instance: SET NX with a TTL per key. The queue consumer keys it by source
// path so two workers never extract the same file concurrently.
type DistributedLock struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDistributedLock connects to redisURL. ttl bounds how long a lock is
// held before it expires on its own, guarding against a worker crashing
// mid-extraction and leaving a key marked in-flight forever.
func NewDistributedLock(redisURL string, ttl time.Duration) (*DistributedLock, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &DistributedLock{client: client, ttl: ttl}, nil
}

// TryAcquire attempts to mark key as in-flight, returning true if this caller
// won the race. A losing caller should defer its work instead of redoing the
// extraction itself.
func (l *DistributedLock) TryAcquire(ctx context.Context, key string) (bool, error) {
	ok, err := l.client.SetNX(ctx, lockKey(key), "1", l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire distributed lock: %w", err)
	}
	return ok, nil
}

// Release clears the in-flight marker once the extraction that won
// TryAcquire has written its cache entry.
func (l *DistributedLock) Release(ctx context.Context, key string) error {
	return l.client.Del(ctx, lockKey(key)).Err()
}

// Close releases the underlying Redis connection.
func (l *DistributedLock) Close() error { return l.client.Close() }

func lockKey(key string) string {
	return "kreuzberg:inflight:" + key
}

package window

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"cardforge/internal/ratelimit/models"
)

// RedisWindowStore implements the admission window store on a Redis sorted
// set per key, scored by admission time in milliseconds. Multiple replicas
// sharing one Redis see a single consistent window per identity.
type RedisWindowStore struct {
	client *redis.Client
	now    func() time.Time
}

// RedisOption configures a RedisWindowStore.
type RedisOption func(*RedisWindowStore)

// WithRedisClock overrides the time source, for deterministic tests.
func WithRedisClock(now func() time.Time) RedisOption {
	return func(s *RedisWindowStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewRedis creates a Redis-backed window store.
func NewRedis(client *redis.Client, opts ...RedisOption) *RedisWindowStore {
	store := &RedisWindowStore{
		client: client,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Take evaluates and conditionally records an admission marker.
//
// The read phase pipelines eviction, window count, burst count, and the
// oldest marker in one round trip. The write phase adds the marker and
// refreshes the key TTL only when the request is admitted. Between the two
// phases a concurrent request may also be admitted, so the window can
// briefly overshoot by the number of in-flight requests; the overshoot is
// bounded and self-corrects on the next read.
func (s *RedisWindowStore) Take(ctx context.Context, key string, limit, burst int, window, burstWindow time.Duration) (*models.WindowUsage, error) {
	now := s.now()
	windowCutoff := now.Add(-window).UnixMilli()
	burstCutoff := now.Add(-burstWindow).UnixMilli()

	pipe := s.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowCutoff, 10))
	countCmd := pipe.ZCard(ctx, key)
	burstCmd := pipe.ZCount(ctx, key, "("+strconv.FormatInt(burstCutoff, 10), "+inf")
	oldestCmd := pipe.ZRangeWithScores(ctx, key, 0, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("window read for %s: %w", key, err)
	}

	count := int(countCmd.Val())
	burstCount := int(burstCmd.Val())

	admitted := count < limit && (burst <= 0 || burstCount < burst)
	if admitted {
		write := s.client.TxPipeline()
		write.ZAdd(ctx, key, redis.Z{
			Score:  float64(now.UnixMilli()),
			Member: uuid.NewString(),
		})
		write.Expire(ctx, key, window+time.Minute)
		if _, err := write.Exec(ctx); err != nil {
			return nil, fmt.Errorf("window record for %s: %w", key, err)
		}
		count++
		burstCount++
	}

	resetAt := now.Add(window)
	if oldest := oldestCmd.Val(); len(oldest) > 0 {
		resetAt = time.UnixMilli(int64(oldest[0].Score)).Add(window)
	}

	return &models.WindowUsage{
		Admitted:   admitted,
		Count:      count,
		BurstCount: burstCount,
		ResetAt:    resetAt,
	}, nil
}

// Count returns the number of live markers for a key without recording.
func (s *RedisWindowStore) Count(ctx context.Context, key string) (int, error) {
	n, err := s.client.ZCard(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("window count for %s: %w", key, err)
	}
	return int(n), nil
}

// Reset clears the window for a key.
func (s *RedisWindowStore) Reset(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("window reset for %s: %w", key, err)
	}
	return nil
}

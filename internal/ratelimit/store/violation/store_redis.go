package violation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisViolationStore tracks violation counters in Redis so the penalty
// multiplier follows an identity across replicas.
type RedisViolationStore struct {
	client *redis.Client
}

// NewRedis creates a Redis-backed violation store.
func NewRedis(client *redis.Client) *RedisViolationStore {
	return &RedisViolationStore{client: client}
}

// Increment bumps the counter and refreshes its TTL in one transaction.
func (s *RedisViolationStore) Increment(ctx context.Context, key string, ttl time.Duration) (int, error) {
	pipe := s.client.TxPipeline()
	incrCmd := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("violation increment for %s: %w", key, err)
	}
	return int(incrCmd.Val()), nil
}

// Count returns the current violation count for a key, zero if absent.
func (s *RedisViolationStore) Count(ctx context.Context, key string) (int, error) {
	n, err := s.client.Get(ctx, key).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("violation count for %s: %w", key, err)
	}
	return n, nil
}

// Reset clears the violation counter for a key.
func (s *RedisViolationStore) Reset(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("violation reset for %s: %w", key, err)
	}
	return nil
}

package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore shares buckets across instances using an atomic
// increment-and-expire counter per (category, identifier).
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

var _ Store = (*RedisStore)(nil)

func (s *RedisStore) counterKey(key string) string { return "ratelimit:" + key }
func (s *RedisStore) blockKey(key string) string   { return "ratelimit:block:" + key }

func (s *RedisStore) Take(ctx context.Context, key string, points int, cfg CategoryConfig) (Result, error) {
	blockTTL, err := s.rdb.TTL(ctx, s.blockKey(key)).Result()
	if err != nil {
		return Result{}, fmt.Errorf("rate limit block lookup: %w", err)
	}
	if blockTTL > 0 {
		return Result{Allowed: false, Remaining: 0, ResetAt: time.Now().Add(blockTTL)}, nil
	}

	counter := s.counterKey(key)
	count, err := s.rdb.IncrBy(ctx, counter, int64(points)).Result()
	if err != nil {
		return Result{}, fmt.Errorf("rate limit increment: %w", err)
	}
	if count == int64(points) {
		// First consumption in this window starts the clock.
		if err := s.rdb.Expire(ctx, counter, cfg.Duration).Err(); err != nil {
			return Result{}, fmt.Errorf("rate limit expire: %w", err)
		}
	}

	ttl, err := s.rdb.TTL(ctx, counter).Result()
	if err != nil || ttl < 0 {
		ttl = cfg.Duration
	}
	resetAt := time.Now().Add(ttl)

	if count > int64(cfg.Points) {
		if cfg.BlockDuration > 0 {
			if err := s.rdb.Set(ctx, s.blockKey(key), 1, cfg.BlockDuration).Err(); err != nil {
				return Result{}, fmt.Errorf("rate limit block set: %w", err)
			}
			resetAt = time.Now().Add(cfg.BlockDuration)
		}
		return Result{Allowed: false, Remaining: 0, ResetAt: resetAt}, nil
	}

	return Result{Allowed: true, Remaining: cfg.Points - int(count), ResetAt: resetAt}, nil
}

func (s *RedisStore) Adjust(ctx context.Context, key string, delta int, cfg CategoryConfig) error {
	// The counter tracks consumption, so rewarding points means
	// decrementing it.
	count, err := s.rdb.IncrBy(ctx, s.counterKey(key), int64(-delta)).Result()
	if err != nil {
		return fmt.Errorf("rate limit adjust: %w", err)
	}
	if count < 0 {
		if err := s.rdb.Set(ctx, s.counterKey(key), 0, redis.KeepTTL).Err(); err != nil {
			return fmt.Errorf("rate limit adjust clamp: %w", err)
		}
	}
	return nil
}

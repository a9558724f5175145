package ratelimit

import (
	"context"
	"sync"
	"time"
)

type bucket struct {
	remaining    int
	resetAt      time.Time
	blockedUntil time.Time
}

// MemoryStore keeps buckets in process memory. Buckets are created
// lazily on first use and limits are per-instance, not global.
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string]*bucket
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{buckets: make(map[string]*bucket)}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Take(_ context.Context, key string, points int, cfg CategoryConfig) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	b := s.bucket(key, now, cfg)

	if b.blockedUntil.After(now) {
		return Result{Allowed: false, Remaining: 0, ResetAt: b.blockedUntil}, nil
	}

	if b.remaining >= points {
		b.remaining -= points
		return Result{Allowed: true, Remaining: b.remaining, ResetAt: b.resetAt}, nil
	}

	b.remaining = 0
	resetAt := b.resetAt
	if cfg.BlockDuration > 0 {
		b.blockedUntil = now.Add(cfg.BlockDuration)
		resetAt = b.blockedUntil
	}
	return Result{Allowed: false, Remaining: 0, ResetAt: resetAt}, nil
}

func (s *MemoryStore) Adjust(_ context.Context, key string, delta int, cfg CategoryConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.bucket(key, time.Now(), cfg)
	b.remaining += delta
	if b.remaining < 0 {
		b.remaining = 0
	}
	if b.remaining > cfg.Points {
		b.remaining = cfg.Points
	}
	return nil
}

// bucket returns the live bucket for key, resetting it when its window
// has elapsed. Caller must hold the mutex.
func (s *MemoryStore) bucket(key string, now time.Time, cfg CategoryConfig) *bucket {
	b, ok := s.buckets[key]
	if !ok || now.After(b.resetAt) {
		blockedUntil := time.Time{}
		if ok {
			blockedUntil = b.blockedUntil
		}
		b = &bucket{
			remaining:    cfg.Points,
			resetAt:      now.Add(cfg.Duration),
			blockedUntil: blockedUntil,
		}
		s.buckets[key] = b
	}
	return b
}

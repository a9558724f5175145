package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ozlabs/forge/common"
	"github.com/ozlabs/forge/internal/platform/logger"
)

func newTestLimiter() *Limiter {
	return New(NewMemoryStore(), logger.NewNop())
}

func TestCheckAllowsUpToLimit(t *testing.T) {
	l := newTestLimiter()
	ctx := context.Background()

	cfg := Categories[CategoryAIImage]
	for i := 0; i < cfg.Points; i++ {
		res := l.Check(ctx, CategoryAIImage, "user-1", 1)
		assert.True(t, res.Allowed, "consumption %d should be allowed", i+1)
		assert.Equal(t, cfg.Points-i-1, res.Remaining)
	}

	res := l.Check(ctx, CategoryAIImage, "user-1", 1)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
}

func TestCheckIsolatesIdentifiers(t *testing.T) {
	l := newTestLimiter()
	ctx := context.Background()

	cfg := Categories[CategoryAIImage]
	for i := 0; i < cfg.Points; i++ {
		l.Check(ctx, CategoryAIImage, "user-1", 1)
	}

	res := l.Check(ctx, CategoryAIImage, "user-2", 1)
	assert.True(t, res.Allowed)
}

func TestUnknownCategoryFallsBackToAPI(t *testing.T) {
	l := newTestLimiter()
	res := l.Check(context.Background(), "does-not-exist", "user-1", 1)

	assert.True(t, res.Allowed)
	assert.Equal(t, Categories[CategoryAPI].Points-1, res.Remaining)
}

func TestEnforceReturnsRateLimitError(t *testing.T) {
	l := newTestLimiter()
	ctx := context.Background()

	cfg := Categories[CategoryAIChat]
	require.NoError(t, l.Enforce(ctx, CategoryAIChat, "user-1", cfg.Points))

	err := l.Enforce(ctx, CategoryAIChat, "user-1", 1)
	require.Error(t, err)

	var appErr *common.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, common.CodeRateLimit, appErr.Code)
	assert.GreaterOrEqual(t, appErr.RetryAfter, 1)
}

func TestBlockDurationExtendsLockout(t *testing.T) {
	store := NewMemoryStore()
	l := New(store, logger.NewNop())
	ctx := context.Background()

	cfg := Categories[CategoryAuth]
	for i := 0; i < cfg.Points; i++ {
		res := l.Check(ctx, CategoryAuth, "10.0.0.1", 1)
		require.True(t, res.Allowed)
	}

	res := l.Check(ctx, CategoryAuth, "10.0.0.1", 1)
	assert.False(t, res.Allowed)
	// The reset moves out to the block window, not the normal window.
	assert.Greater(t, time.Until(res.ResetAt), cfg.BlockDuration-time.Minute)
}

func TestPenalizeConsumesPoints(t *testing.T) {
	l := newTestLimiter()
	ctx := context.Background()

	l.Check(ctx, CategoryAuth, "10.0.0.2", 1)
	l.Penalize(ctx, CategoryAuth, "10.0.0.2", 5)

	res := l.Check(ctx, CategoryAuth, "10.0.0.2", 1)
	assert.True(t, res.Allowed)
	assert.Equal(t, Categories[CategoryAuth].Points-7, res.Remaining)
}

func TestRewardRestoresPointsUpToCap(t *testing.T) {
	l := newTestLimiter()
	ctx := context.Background()

	l.Check(ctx, CategoryAIChat, "user-9", 3)
	l.Reward(ctx, CategoryAIChat, "user-9", 100)

	res := l.Check(ctx, CategoryAIChat, "user-9", 1)
	assert.True(t, res.Allowed)
	assert.Equal(t, Categories[CategoryAIChat].Points-1, res.Remaining)
}

type failingStore struct{}

func (failingStore) Take(context.Context, string, int, CategoryConfig) (Result, error) {
	return Result{}, errors.New("store down")
}

func (failingStore) Adjust(context.Context, string, int, CategoryConfig) error {
	return errors.New("store down")
}

func TestStoreFailureFailsOpen(t *testing.T) {
	l := New(failingStore{}, logger.NewNop())

	res := l.Check(context.Background(), CategoryAPI, "user-1", 1)
	assert.True(t, res.Allowed)

	assert.NoError(t, l.Enforce(context.Background(), CategoryAPI, "user-1", 1))

	// Penalize/Reward must swallow store failures.
	l.Penalize(context.Background(), CategoryAPI, "user-1", 1)
	l.Reward(context.Background(), CategoryAPI, "user-1", 1)
}

package ratelimit

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/ozlabs/forge/common"
	"github.com/ozlabs/forge/internal/metrics"
	"github.com/ozlabs/forge/internal/platform/logger"
)

// CategoryConfig bounds consumption for one traffic category.
// BlockDuration, when set, extends the lockout after exhaustion beyond
// the normal window.
type CategoryConfig struct {
	Points        int
	Duration      time.Duration
	BlockDuration time.Duration
}

// Categories is the static per-category configuration table. Unknown
// categories fall back to CategoryAPI.
var Categories = map[string]CategoryConfig{
	CategoryAPI:      {Points: 100, Duration: time.Minute},
	CategoryAuth:     {Points: 10, Duration: time.Hour, BlockDuration: 15 * time.Minute},
	CategoryAIChat:   {Points: 20, Duration: time.Minute},
	CategoryAIImage:  {Points: 10, Duration: time.Minute},
	CategoryAISpeech: {Points: 10, Duration: time.Minute},
}

const (
	CategoryAPI      = "api"
	CategoryAuth     = "auth"
	CategoryAIChat   = "ai_chat"
	CategoryAIImage  = "ai_image"
	CategoryAISpeech = "ai_speech"
)

// Result reports the outcome of a consumption attempt.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Store holds bucket state. The memory implementation is correct for a
// single node; the redis implementation shares buckets across
// instances.
type Store interface {
	Take(ctx context.Context, key string, points int, cfg CategoryConfig) (Result, error)
	Adjust(ctx context.Context, key string, delta int, cfg CategoryConfig) error
}

type Limiter struct {
	store Store
	log   *logger.Logger
}

func New(store Store, log *logger.Logger) *Limiter {
	return &Limiter{store: store, log: log}
}

func resolve(category string) CategoryConfig {
	if cfg, ok := Categories[category]; ok {
		return cfg
	}
	return Categories[CategoryAPI]
}

func bucketKey(category, identifier string) string {
	return fmt.Sprintf("%s:%s", category, identifier)
}

// Check attempts to consume points from the bucket for
// (category, identifier). It never returns an error: a failing store
// is logged and the request is allowed through, so limiter outages
// never break the primary path.
func (l *Limiter) Check(ctx context.Context, category, identifier string, points int) Result {
	cfg := resolve(category)
	res, err := l.store.Take(ctx, bucketKey(category, identifier), points, cfg)
	if err != nil {
		l.log.Error("rate limit store failure, allowing request",
			"category", category,
			"identifier", identifier,
			"error", err.Error(),
		)
		return Result{Allowed: true, Remaining: cfg.Points, ResetAt: time.Now().Add(cfg.Duration)}
	}
	return res
}

// Enforce consumes points and returns a RateLimitError carrying a
// retry-after hint when the bucket is exhausted.
func (l *Limiter) Enforce(ctx context.Context, category, identifier string, points int) error {
	res := l.Check(ctx, category, identifier, points)
	if res.Allowed {
		return nil
	}

	metrics.RateLimited.WithLabelValues(category).Inc()
	retryAfter := int(math.Ceil(time.Until(res.ResetAt).Seconds()))
	if retryAfter < 1 {
		retryAfter = 1
	}

	l.log.Warn("rate limit exceeded",
		"category", category,
		"identifier", identifier,
		"retry_after", retryAfter,
	)
	return common.NewRateLimitError(retryAfter)
}

// Penalize debits extra points beyond normal consumption, e.g. after a
// failed login. Failures are swallowed so limiter bookkeeping never
// breaks the caller.
func (l *Limiter) Penalize(ctx context.Context, category, identifier string, points int) {
	cfg := resolve(category)
	if err := l.store.Adjust(ctx, bucketKey(category, identifier), -points, cfg); err != nil {
		l.log.Warn("rate limit penalize failed",
			"category", category,
			"identifier", identifier,
			"error", err.Error(),
		)
	}
}

// Reward credits points back, e.g. after a successful low-risk action.
func (l *Limiter) Reward(ctx context.Context, category, identifier string, points int) {
	cfg := resolve(category)
	if err := l.store.Adjust(ctx, bucketKey(category, identifier), points, cfg); err != nil {
		l.log.Warn("rate limit reward failed",
			"category", category,
			"identifier", identifier,
			"error", err.Error(),
		)
	}
}

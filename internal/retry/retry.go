package retry

import (
	"context"
	"errors"
	"strings"
	"time"

	backoff "github.com/sethvargo/go-retry"

	"github.com/ozlabs/forge/internal/metrics"
	"github.com/ozlabs/forge/internal/platform/logger"
)

// Config defines retry behavior for a single operation.
type Config struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// DefaultConfig provides sensible defaults for general operations.
var DefaultConfig = Config{
	MaxRetries:   3,
	InitialDelay: 1 * time.Second,
	MaxDelay:     30 * time.Second,
}

// AIConfig is the fixed budget for upstream AI calls.
var AIConfig = Config{
	MaxRetries:   3,
	InitialDelay: 2 * time.Second,
	MaxDelay:     30 * time.Second,
}

// retryableStatuses are upstream HTTP statuses worth retrying.
var retryableStatuses = map[int]bool{
	429: true,
	500: true,
	502: true,
	503: true,
	504: true,
}

// retryableMarkers are substrings that identify transient transport
// failures when no HTTP status is available.
var retryableMarkers = []string{
	"timeout",
	"timed out",
	"connection reset",
	"econnreset",
	"etimedout",
	"host not found",
	"no such host",
	"enotfound",
	"network",
	"fetch failed",
}

// IsRetryable reports whether an error looks transient: a 429/5xx
// upstream status, or a transport-level failure. Everything else is
// treated as permanent and propagates without consuming the retry
// budget.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var sc interface{ HTTPStatus() int }
	if errors.As(err, &sc) && retryableStatuses[sc.HTTPStatus()] {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range retryableMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// Do executes op, retrying up to cfg.MaxRetries additional times with
// exponential backoff and jitter, but only for errors IsRetryable
// classifies as transient. A permanent error returns immediately with
// no backoff delay.
func Do[T any](ctx context.Context, log *logger.Logger, cfg Config, name string, op func(ctx context.Context) (T, error)) (T, error) {
	var result T
	attempt := 0

	b := backoff.NewExponential(cfg.InitialDelay)
	b = backoff.WithJitterPercent(20, b)
	b = backoff.WithCappedDuration(cfg.MaxDelay, b)
	b = backoff.WithMaxRetries(uint64(cfg.MaxRetries), b)

	err := backoff.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		v, err := op(ctx)
		if err == nil {
			result = v
			return nil
		}

		if !IsRetryable(err) {
			log.Debug("operation failed with permanent error",
				"operation", name,
				"attempt", attempt,
				"error", err.Error(),
			)
			return err
		}

		log.Warn("operation failed, will retry",
			"operation", name,
			"attempt", attempt,
			"max_attempts", cfg.MaxRetries+1,
			"error", err.Error(),
		)
		return backoff.RetryableError(err)
	})

	return result, err
}

// AICall retries an upstream AI operation with the fixed AI budget and
// logs a warning per retry carrying the service name.
func AICall[T any](ctx context.Context, log *logger.Logger, service string, op func(ctx context.Context) (T, error)) (T, error) {
	first := true
	return Do(ctx, log, AIConfig, service, func(ctx context.Context) (T, error) {
		if !first {
			metrics.AIRetries.WithLabelValues(service).Inc()
		}
		first = false
		return op(ctx)
	})
}

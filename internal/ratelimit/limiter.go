package ratelimit

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/jira-gateway/internal/config"
)

// CounterStore is the shared atomic counter capability backing the limiter.
// Increment must be atomic across concurrent callers for the same key; key
// expiry resets a window, the limiter never zeroes counters itself.
type CounterStore interface {
	Increment(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

// Limiter is a fixed-window request limiter keyed by client identity.
type Limiter struct {
	store    CounterStore
	window   time.Duration
	limit    int64
	failOpen bool
	logger   *zap.Logger
}

// NewLimiter constructs a Limiter from configuration.
func NewLimiter(store CounterStore, cfg config.RateLimitConfig, logger *zap.Logger) *Limiter {
	return &Limiter{
		store:    store,
		window:   cfg.Window(),
		limit:    cfg.Limit,
		failOpen: cfg.FailOpen,
		logger:   logger,
	}
}

// Allow records one request for the key and reports whether it is admitted.
// The first request of a window sets the key's expiry. Store outages either
// admit (fail open) or return the store error (fail closed), per config.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	count, err := l.store.Increment(ctx, l.storageKey(key))
	if err != nil {
		if l.failOpen {
			l.logger.Warn("rate limit store unreachable, admitting request",
				zap.String("key", key), zap.Error(err))
			return true, nil
		}
		return false, fmt.Errorf("rate limit store: %w", err)
	}

	if count == 1 {
		if err := l.store.Expire(ctx, l.storageKey(key), l.window); err != nil {
			// The counter exists without a TTL now; the next window's first
			// request will retry the expire. Worth logging, not failing.
			l.logger.Warn("rate limit expiry not set", zap.String("key", key), zap.Error(err))
		}
	}

	return count <= l.limit, nil
}

func (l *Limiter) storageKey(key string) string {
	return "ratelimit:" + key
}

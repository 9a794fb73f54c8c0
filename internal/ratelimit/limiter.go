package ratelimit

import (
	"context"
	"time"

	"github.com/linkgate/linkgate/internal/keys"
)

// Limiter decides whether a request from an identity should be allowed.
// Cost weights the request against the window.
type Limiter interface {
	Allow(ctx context.Context, identity string, cost int64) (allowed bool, err error)
}

// Store is the backing storage for local sliding-window counters.
type Store interface {
	// Record counts a request of the given cost against key and returns
	// the total in the current window, pruning expired entries.
	Record(ctx context.Context, key string, window time.Duration, cost int64) (count int64, err error)
}

// SlidingWindowLimiter applies a local sliding-window limit. It backs dev
// mode, where no external limiter is configured.
type SlidingWindowLimiter struct {
	store  Store
	limit  int64
	window time.Duration
}

// NewSlidingWindowLimiter creates a new sliding window rate limiter.
func NewSlidingWindowLimiter(store Store, limit int64, window time.Duration) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		store:  store,
		limit:  limit,
		window: window,
	}
}

func (l *SlidingWindowLimiter) Allow(ctx context.Context, identity string, cost int64) (bool, error) {
	count, err := l.store.Record(ctx, identity, l.window, cost)
	if err != nil {
		return false, err
	}

	return count <= l.limit, nil
}

// ProviderLimiter delegates rate limiting to the external key provider's
// namespace limiter.
type ProviderLimiter struct {
	provider keys.Provider
}

// NewProviderLimiter creates a limiter backed by the key provider.
func NewProviderLimiter(provider keys.Provider) *ProviderLimiter {
	return &ProviderLimiter{provider: provider}
}

func (l *ProviderLimiter) Allow(ctx context.Context, identity string, cost int64) (bool, error) {
	result, err := l.provider.Limit(ctx, identity, cost)
	if err != nil {
		return false, err
	}

	return result.Allowed, nil
}

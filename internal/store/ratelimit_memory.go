package store

import (
	"context"
	"sync"
	"time"
)

// RateLimitMemoryStore is an in-memory implementation of ratelimit.Store.
type RateLimitMemoryStore struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	now      func() time.Time
}

// NewRateLimitMemoryStore creates a new in-memory rate limit store.
func NewRateLimitMemoryStore() *RateLimitMemoryStore {
	return &RateLimitMemoryStore{
		requests: make(map[string][]time.Time),
		now:      time.Now,
	}
}

func (s *RateLimitMemoryStore) Record(_ context.Context, key string, window time.Duration, cost int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	cutoff := now.Add(-window)

	// Prune timestamps outside the window, then record the request at its
	// cost (one timestamp per unit of cost).
	timestamps := s.requests[key]
	valid := make([]time.Time, 0, len(timestamps)+int(cost))

	for _, ts := range timestamps {
		if ts.After(cutoff) {
			valid = append(valid, ts)
		}
	}

	for range cost {
		valid = append(valid, now)
	}

	s.requests[key] = valid

	return int64(len(valid)), nil
}

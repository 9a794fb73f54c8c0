package health_test

import (
	"context"
	"errors"
	"testing"

	"github.com/linkgate/linkgate/internal/health"
	"github.com/linkgate/linkgate/internal/keys"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockChecker struct {
	err error
}

func (m *mockChecker) Ping(_ context.Context) error {
	return m.err
}

func TestHandlerCheck(t *testing.T) {
	tests := []struct {
		name            string
		redisErr        error
		providerErr     error
		wantStatus      string
		wantRedis       string
		wantKeyProvider string
	}{
		{
			name:            "all dependencies healthy",
			wantStatus:      "ok",
			wantRedis:       "healthy",
			wantKeyProvider: "healthy",
		},
		{
			name:            "redis down",
			redisErr:        errors.New("connection refused"),
			wantStatus:      "degraded",
			wantRedis:       "unhealthy",
			wantKeyProvider: "healthy",
		},
		{
			name:            "key provider down",
			providerErr:     errors.New("upstream timeout"),
			wantStatus:      "degraded",
			wantRedis:       "healthy",
			wantKeyProvider: "unhealthy",
		},
		{
			name:            "everything down",
			redisErr:        errors.New("connection refused"),
			providerErr:     errors.New("upstream timeout"),
			wantStatus:      "degraded",
			wantRedis:       "unhealthy",
			wantKeyProvider: "unhealthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := health.NewHandler(
				&mockChecker{err: tt.redisErr},
				&mockChecker{err: tt.providerErr},
			)

			resp, err := handler.Check(context.Background(), nil)
			require.NoError(t, err)

			assert.Equal(t, tt.wantStatus, resp.Body.Status)
			assert.Equal(t, tt.wantRedis, resp.Body.Redis)
			assert.Equal(t, tt.wantKeyProvider, resp.Body.KeyProvider)
		})
	}
}

func TestProviderChecker(t *testing.T) {
	t.Run("healthy provider", func(t *testing.T) {
		provider := keys.NewMemoryProvider()
		checker := health.NewProviderChecker(provider)

		assert.NoError(t, checker.Ping(context.Background()))
	})

	t.Run("probe does not consume the rate limit window", func(t *testing.T) {
		provider := keys.NewMemoryProvider()
		checker := health.NewProviderChecker(provider)

		for range 20 {
			require.NoError(t, checker.Ping(context.Background()))
		}

		result, err := provider.Limit(context.Background(), "healthcheck", 1)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	})
}

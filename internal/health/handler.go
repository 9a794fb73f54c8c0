package health

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/linkgate/linkgate/internal/keys"
	"github.com/redis/go-redis/v9"
)

// Checker defines the interface for checking a dependency's health.
type Checker interface {
	Ping(ctx context.Context) error
}

// RedisChecker adapts redis.Client to Checker.
type RedisChecker struct {
	client *redis.Client
}

// NewRedisChecker creates a new Redis health checker.
func NewRedisChecker(client *redis.Client) *RedisChecker {
	return &RedisChecker{client: client}
}

// Ping checks Redis connectivity.
func (r *RedisChecker) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// ProviderChecker probes the key provider with a zero-cost limit check.
type ProviderChecker struct {
	provider keys.Provider
}

// NewProviderChecker creates a key provider health checker.
func NewProviderChecker(provider keys.Provider) *ProviderChecker {
	return &ProviderChecker{provider: provider}
}

// Ping checks provider reachability. Cost zero never consumes the window.
func (p *ProviderChecker) Ping(ctx context.Context) error {
	_, err := p.provider.Limit(ctx, "healthcheck", 0)

	return err
}

// Handler handles health check operations.
type Handler struct {
	redis       Checker
	keyProvider Checker
}

// NewHandler creates a new health handler.
func NewHandler(redis, keyProvider Checker) *Handler {
	return &Handler{
		redis:       redis,
		keyProvider: keyProvider,
	}
}

// Response is the response for the health check endpoint.
type Response struct {
	Body struct {
		Status      string `json:"status"`
		Redis       string `json:"redis"`
		KeyProvider string `json:"keyProvider"`
	}
}

// Check reports the health of the service and its two dependencies.
func (h *Handler) Check(ctx context.Context, _ *struct{}) (*Response, error) {
	resp := &Response{}
	resp.Body.Status = "ok"

	if err := h.redis.Ping(ctx); err != nil {
		resp.Body.Redis = "unhealthy"
		resp.Body.Status = "degraded"
	} else {
		resp.Body.Redis = "healthy"
	}

	if err := h.keyProvider.Ping(ctx); err != nil {
		resp.Body.KeyProvider = "unhealthy"
		resp.Body.Status = "degraded"
	} else {
		resp.Body.KeyProvider = "healthy"
	}

	return resp, nil
}

// RegisterRoutes registers health check routes.
func RegisterRoutes(api huma.API, h *Handler) {
	huma.Get(api, "/health", h.Check)
}

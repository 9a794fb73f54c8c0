package middleware

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/linkgate/linkgate/internal/ratelimit"
	"go.uber.org/zap"
)

// rateLimitMessage is the client-facing body for an exceeded limit.
const rateLimitMessage = "Rate limit exceeded. Please try again later."

// RateLimiter returns a Huma middleware that checks the limiter for
// endpoints carrying a rate-limit config in their operation metadata.
// The limit is keyed on the client identity, with the cost the endpoint
// declares.
func RateLimiter(
	api huma.API,
	limiter ratelimit.Limiter,
	logger *zap.Logger,
) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		cfg := ratelimit.GetEndpointConfig(ctx)
		if cfg == nil || cfg.Disabled {
			next(ctx)

			return
		}

		cost := cfg.Cost
		if cost <= 0 {
			cost = 1
		}

		identity := ClientIP(ctx)

		allowed, err := limiter.Allow(ctx.Context(), identity, cost)
		if err != nil {
			logger.Error("rate limit check failed",
				zap.String("path", operationPath(ctx)),
				zap.Error(err),
			)
			_ = huma.WriteErr(api, ctx, http.StatusInternalServerError, "internal server error", err)

			return
		}

		if !allowed {
			logger.Warn("rate limit exceeded",
				zap.String("path", operationPath(ctx)),
				zap.String("identity", identity),
				zap.Int64("cost", cost),
			)
			_ = huma.WriteErr(api, ctx, http.StatusTooManyRequests, rateLimitMessage)

			return
		}

		next(ctx)
	}
}

func operationPath(ctx huma.Context) string {
	if op := ctx.Operation(); op != nil {
		return op.Path
	}

	return ""
}

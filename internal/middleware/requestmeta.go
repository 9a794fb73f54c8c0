package middleware

import (
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/linkgate/linkgate/internal/handlers"
)

// anonymousIdentity is used when no client address can be determined.
const anonymousIdentity = "anonymous"

// RequestMeta is a middleware that adds the client identity and user-agent
// to the request context for the handlers and the analytics events.
func RequestMeta(_ huma.API) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		meta := handlers.RequestMeta{
			ClientIP:  ClientIP(ctx),
			UserAgent: ctx.Header("User-Agent"),
		}

		newCtx := handlers.ContextWithRequestMeta(ctx.Context(), meta)
		ctx = huma.WithContext(ctx, newCtx)

		next(ctx)
	}
}

// ClientIP extracts the client identity from the request, considering
// proxies. IPv6-mapped IPv4 addresses are reduced to their IPv4 form, and
// an undeterminable address falls back to "anonymous".
func ClientIP(ctx huma.Context) string {
	ip := rawClientIP(ctx)

	// x-forwarded-for on dual-stack proxies often carries ::ffff:a.b.c.d.
	ip = strings.TrimPrefix(ip, "::ffff:")

	if ip == "" {
		return anonymousIdentity
	}

	return ip
}

func rawClientIP(ctx huma.Context) string {
	// Check X-Forwarded-For first (may contain multiple IPs)
	if xff := ctx.Header("X-Forwarded-For"); xff != "" {
		// Take the first IP (original client)
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}

		return strings.TrimSpace(xff)
	}

	// Check X-Real-IP
	if xri := ctx.Header("X-Real-IP"); xri != "" {
		return xri
	}

	// Fall back to remote addr
	host := ctx.Host()
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		return host[:idx]
	}

	return host
}

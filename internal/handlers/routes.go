package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/linkgate/linkgate/internal/ratelimit"
)

// RegisterRoutes registers the shorten and resolve operations with their
// rate limit configuration.
func RegisterRoutes(api huma.API, linkHandler *LinkHandler) {
	// POST /shorten - create a short URL and issue a fresh access key.
	// Writes count double against the namespace limiter.
	huma.Register(api, huma.Operation{
		OperationID: "shorten-url",
		Method:      http.MethodPost,
		Path:        "/shorten",
		Summary:     "Create short URL",
		Description: "Shortens a URL for the given service tier and issues a short-lived access key for resolving it.",
		Tags:        []string{"Links"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{
				Cost: 2,
			},
		},
	}, linkHandler.Shorten)

	// GET /api/{code} - resolve a short code to its original URL.
	// The per-key rate limit enforced during key verification already
	// limits this endpoint, so the namespace limiter is skipped.
	huma.Register(api, huma.Operation{
		OperationID: "resolve-url",
		Method:      http.MethodGet,
		Path:        "/api/{code}",
		Summary:     "Redirect to original URL",
		Description: "Validates the caller's access key and redirects to the original URL with caching disabled.",
		Tags:        []string{"Links"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{
				Disabled: true,
			},
		},
	}, linkHandler.Resolve)
}

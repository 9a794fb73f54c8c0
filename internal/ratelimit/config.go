package ratelimit

import "github.com/danielgtaylor/huma/v2"

// MetadataKey is the key used to store rate limit config in operation metadata.
const MetadataKey = "rateLimit"

// EndpointConfig defines per-endpoint rate limit behavior. It can be
// attached to Huma operations via the Metadata field.
type EndpointConfig struct {
	// Cost weights requests to this endpoint against the limiter's
	// window. Zero means the default cost of 1.
	Cost int64

	// Disabled skips the limiter entirely for this endpoint. Used where
	// another mechanism already limits the caller, such as the per-key
	// rate limit enforced during key verification.
	Disabled bool
}

// GetEndpointConfig extracts the EndpointConfig from operation metadata, if present.
func GetEndpointConfig(ctx huma.Context) *EndpointConfig {
	op := ctx.Operation()
	if op == nil || op.Metadata == nil {
		return nil
	}

	cfg, ok := op.Metadata[MetadataKey].(EndpointConfig)
	if !ok {
		return nil
	}

	return &cfg
}

// Package keys talks to the external key-management and rate-limiting
// provider. Keys are short-lived credentials: issued per shorten request,
// rotated on the next one, and required to resolve a short code.
package keys

import "context"

// Verification result codes reported by the provider.
const (
	CodeExpired     = "EXPIRED"
	CodeRateLimited = "RATE_LIMITED"
)

// Key is an issued access key. The client holds Value as its credential;
// ID addresses the key at the provider.
type Key struct {
	ID    string
	Value string
}

// CreateKeyParams scopes a new key to its owner. Expiry, prefix, byte
// length and the embedded per-key rate limit are fixed policy, not inputs.
type CreateKeyParams struct {
	OwnerID string
	GuestID string
}

// Verification is the provider's answer to a verify call.
type Verification struct {
	Valid bool
	Code  string
}

// LimitResult is the provider's answer to a namespace rate-limit check.
type LimitResult struct {
	Allowed bool
}

// Provider is the external key-management service.
type Provider interface {
	CreateKey(ctx context.Context, params CreateKeyParams) (*Key, error)

	// DeleteKey revokes a key. Callers pass the credential the client
	// presented; implementations accept either the key ID or its value.
	DeleteKey(ctx context.Context, keyID string) error

	VerifyKey(ctx context.Context, key string) (*Verification, error)

	// Limit checks the shared namespace limiter for an identity at the
	// given cost. Cost zero is a read-only probe.
	Limit(ctx context.Context, identity string, cost int64) (*LimitResult, error)
}

// ProviderError is an error the provider itself reported, as opposed to a
// transport or decoding failure reaching it.
type ProviderError struct {
	Message string
}

func (e *ProviderError) Error() string {
	return e.Message
}

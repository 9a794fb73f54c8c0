package keys

import (
	"context"
	"errors"
)

// Status classifies a key verification. The set is exhaustive; callers
// switch on every case.
type Status int

const (
	StatusValid Status = iota
	StatusInvalid
	StatusExpired
	StatusRateLimited
	StatusProviderError
	StatusUnknownError
)

func (s Status) String() string {
	switch s {
	case StatusValid:
		return "VALID"
	case StatusInvalid:
		return "INVALID"
	case StatusExpired:
		return "EXPIRED"
	case StatusRateLimited:
		return "RATE_LIMITED"
	case StatusProviderError:
		return "PROVIDER_ERROR"
	case StatusUnknownError:
		return "UNKNOWN_ERROR"
	default:
		return "UNKNOWN_ERROR"
	}
}

// Outcome is the classified result of validating an access key. Detail is
// only set for the two error statuses and is for server-side logs, never
// for clients.
type Outcome struct {
	Status Status
	Detail string
}

// Validate verifies a key at the provider and classifies the result.
//
// A failure the provider itself reports maps to StatusProviderError; any
// other failure reaching it (transport, decoding) to StatusUnknownError.
// Otherwise the result code wins over the validity flag: EXPIRED and
// RATE_LIMITED are terminal regardless of Valid.
func Validate(ctx context.Context, provider Provider, key string) Outcome {
	verification, err := provider.VerifyKey(ctx, key)
	if err != nil {
		var providerErr *ProviderError
		if errors.As(err, &providerErr) {
			return Outcome{Status: StatusProviderError, Detail: providerErr.Message}
		}

		return Outcome{Status: StatusUnknownError, Detail: err.Error()}
	}

	switch verification.Code {
	case CodeExpired:
		return Outcome{Status: StatusExpired}
	case CodeRateLimited:
		return Outcome{Status: StatusRateLimited}
	}

	if verification.Valid {
		return Outcome{Status: StatusValid}
	}

	return Outcome{Status: StatusInvalid}
}

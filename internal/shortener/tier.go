package shortener

import "fmt"

// Tier is the service level a client requests when shortening a URL.
type Tier string

const (
	// TierBasic gets longer codes.
	TierBasic Tier = "basic"
	// TierPremium gets shorter codes. Smaller code space is a deliberate
	// business trade-off, not a security property.
	TierPremium Tier = "premium"
)

const (
	basicCodeLength   = 8
	premiumCodeLength = 5
)

// ErrInvalidTier is returned for any tier other than basic or premium.
var ErrInvalidTier = fmt.Errorf("invalid tier: only %q and %q are accepted", TierPremium, TierBasic)

// ParseTier validates a raw tier string and returns the code length it maps to.
func ParseTier(raw string) (Tier, int, error) {
	switch Tier(raw) {
	case TierPremium:
		return TierPremium, premiumCodeLength, nil
	case TierBasic:
		return TierBasic, basicCodeLength, nil
	default:
		return "", 0, ErrInvalidTier
	}
}

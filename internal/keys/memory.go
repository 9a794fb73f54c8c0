package keys

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

type memoryKey struct {
	id        string
	value     string
	ownerID   string
	guestID   string
	expiresAt time.Time
	uses      []time.Time
}

// MemoryProvider is an in-process Provider used in tests and dev mode. It
// models the real provider's behavior: key expiry, the per-key rate limit,
// and the sliding-window namespace limiter.
type MemoryProvider struct {
	mu       sync.Mutex
	byID     map[string]*memoryKey
	byValue  map[string]*memoryKey
	windows  map[string][]time.Time
	created  int
	deleted  int
	now      func() time.Time
	createFn func() error
}

// NewMemoryProvider creates an in-memory key provider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		byID:    make(map[string]*memoryKey),
		byValue: make(map[string]*memoryKey),
		windows: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// SetClock replaces the provider's clock, for tests that need to expire keys.
func (m *MemoryProvider) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.now = now
}

// FailCreateWith makes every CreateKey call return err.
func (m *MemoryProvider) FailCreateWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.createFn = func() error { return err }
}

func (m *MemoryProvider) CreateKey(_ context.Context, params CreateKeyParams) (*Key, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createFn != nil {
		if err := m.createFn(); err != nil {
			return nil, err
		}
	}

	k := &memoryKey{
		id:        "key_" + randomHex(8),
		value:     fmt.Sprintf("%s_%s", keyPrefix, randomHex(keyByteLength)),
		ownerID:   params.OwnerID,
		guestID:   params.GuestID,
		expiresAt: m.now().Add(keyExpiry),
	}

	m.byID[k.id] = k
	m.byValue[k.value] = k
	m.created++

	return &Key{ID: k.id, Value: k.value}, nil
}

func (m *MemoryProvider) DeleteKey(_ context.Context, keyID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k, ok := m.byID[keyID]
	if !ok {
		k, ok = m.byValue[keyID]
	}

	if !ok {
		return &ProviderError{Message: "key not found"}
	}

	delete(m.byID, k.id)
	delete(m.byValue, k.value)
	m.deleted++

	return nil
}

func (m *MemoryProvider) VerifyKey(_ context.Context, key string) (*Verification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k, ok := m.byValue[key]
	if !ok {
		return &Verification{Valid: false}, nil
	}

	now := m.now()

	if now.After(k.expiresAt) {
		return &Verification{Valid: false, Code: CodeExpired}, nil
	}

	cutoff := now.Add(-keyRateLimitDuration)
	recent := 0

	for _, ts := range k.uses {
		if ts.After(cutoff) {
			recent++
		}
	}

	if recent >= keyRateLimit {
		return &Verification{Valid: false, Code: CodeRateLimited}, nil
	}

	k.uses = append(k.uses, now)

	return &Verification{Valid: true}, nil
}

func (m *MemoryProvider) Limit(_ context.Context, identity string, cost int64) (*LimitResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	cutoff := now.Add(-namespaceDuration)

	timestamps := m.windows[identity]
	valid := make([]time.Time, 0, len(timestamps)+int(cost))

	for _, ts := range timestamps {
		if ts.After(cutoff) {
			valid = append(valid, ts)
		}
	}

	for range cost {
		valid = append(valid, now)
	}

	m.windows[identity] = valid

	return &LimitResult{Allowed: int64(len(valid)) <= namespaceLimit}, nil
}

// CreatedCount reports how many keys were issued.
func (m *MemoryProvider) CreatedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.created
}

// DeletedCount reports how many keys were revoked.
func (m *MemoryProvider) DeletedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.deleted
}

func randomHex(n int) string {
	buf := make([]byte, n)
	_, _ = rand.Read(buf)

	return hex.EncodeToString(buf)
}

// Compile-time check.
var _ Provider = (*MemoryProvider)(nil)

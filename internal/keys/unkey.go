package keys

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Key issuance policy, fixed by the service.
const (
	keyPrefix     = "url"
	keyByteLength = 16
	keyExpiry     = 2 * time.Minute

	// Each issued key may be used once per 3 seconds.
	keyRateLimit         = 1
	keyRateLimitDuration = 3 * time.Second
)

// Namespace limiter policy for the shorten endpoint.
const (
	namespaceLimit    = 5
	namespaceDuration = 10 * time.Second
)

const defaultBaseURL = "https://api.unkey.dev"

// UnkeyProvider implements Provider over the Unkey REST API.
type UnkeyProvider struct {
	rootKey   string
	apiID     string
	namespace string
	baseURL   string
	client    *http.Client
}

// UnkeyOption customizes an UnkeyProvider.
type UnkeyOption func(*UnkeyProvider)

// WithBaseURL overrides the API endpoint, mainly for tests.
func WithBaseURL(baseURL string) UnkeyOption {
	return func(p *UnkeyProvider) {
		p.baseURL = baseURL
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) UnkeyOption {
	return func(p *UnkeyProvider) {
		p.client = client
	}
}

// NewUnkeyProvider creates a provider client authenticated with the root key.
func NewUnkeyProvider(rootKey, apiID, namespace string, opts ...UnkeyOption) *UnkeyProvider {
	p := &UnkeyProvider{
		rootKey:   rootKey,
		apiID:     apiID,
		namespace: namespace,
		baseURL:   defaultBaseURL,
		client:    &http.Client{Timeout: 10 * time.Second},
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

type unkeyRateLimit struct {
	Limit    int64 `json:"limit"`
	Duration int64 `json:"duration"`
}

type createKeyRequest struct {
	APIID      string            `json:"apiId"`
	Prefix     string            `json:"prefix"`
	ByteLength int               `json:"byteLength"`
	OwnerID    string            `json:"ownerId"`
	Meta       map[string]string `json:"meta"`
	Expires    int64             `json:"expires"`
	RateLimit  unkeyRateLimit    `json:"ratelimit"`
	Enabled    bool              `json:"enabled"`
}

type createKeyResponse struct {
	KeyID string `json:"keyId"`
	Key   string `json:"key"`
}

func (p *UnkeyProvider) CreateKey(ctx context.Context, params CreateKeyParams) (*Key, error) {
	req := createKeyRequest{
		APIID:      p.apiID,
		Prefix:     keyPrefix,
		ByteLength: keyByteLength,
		OwnerID:    params.OwnerID,
		Meta:       map[string]string{"guestId": params.GuestID},
		Expires:    time.Now().Add(keyExpiry).UnixMilli(),
		RateLimit: unkeyRateLimit{
			Limit:    keyRateLimit,
			Duration: keyRateLimitDuration.Milliseconds(),
		},
		Enabled: true,
	}

	var resp createKeyResponse
	if err := p.post(ctx, "/v1/keys.createKey", req, &resp); err != nil {
		return nil, err
	}

	return &Key{ID: resp.KeyID, Value: resp.Key}, nil
}

func (p *UnkeyProvider) DeleteKey(ctx context.Context, keyID string) error {
	req := struct {
		KeyID string `json:"keyId"`
	}{KeyID: keyID}

	return p.post(ctx, "/v1/keys.deleteKey", req, &struct{}{})
}

func (p *UnkeyProvider) VerifyKey(ctx context.Context, key string) (*Verification, error) {
	req := struct {
		APIID string `json:"apiId"`
		Key   string `json:"key"`
	}{APIID: p.apiID, Key: key}

	var resp struct {
		Valid bool   `json:"valid"`
		Code  string `json:"code"`
	}

	if err := p.post(ctx, "/v1/keys.verifyKey", req, &resp); err != nil {
		return nil, err
	}

	return &Verification{Valid: resp.Valid, Code: resp.Code}, nil
}

func (p *UnkeyProvider) Limit(ctx context.Context, identity string, cost int64) (*LimitResult, error) {
	req := struct {
		Namespace  string `json:"namespace"`
		Identifier string `json:"identifier"`
		Limit      int64  `json:"limit"`
		Duration   int64  `json:"duration"`
		Cost       int64  `json:"cost"`
		Async      bool   `json:"async"`
	}{
		Namespace:  p.namespace,
		Identifier: identity,
		Limit:      namespaceLimit,
		Duration:   namespaceDuration.Milliseconds(),
		Cost:       cost,
		Async:      true,
	}

	var resp struct {
		Success bool `json:"success"`
	}

	if err := p.post(ctx, "/v1/ratelimits.limit", req, &resp); err != nil {
		return nil, err
	}

	return &LimitResult{Allowed: resp.Success}, nil
}

// post sends a JSON request to the API and decodes the response into out.
// API-reported failures come back as *ProviderError; transport and decode
// failures as plain errors.
func (p *UnkeyProvider) post(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}

	req.Header.Set("Authorization", "Bearer "+p.rootKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}

		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
			return &ProviderError{Message: apiErr.Error.Message}
		}

		return &ProviderError{Message: fmt.Sprintf("key provider returned status %d", resp.StatusCode)}
	}

	return json.Unmarshal(body, out)
}

// Compile-time check.
var _ Provider = (*UnkeyProvider)(nil)

package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/linkgate/linkgate/internal/handlers"
	"github.com/linkgate/linkgate/internal/keys"
	"github.com/linkgate/linkgate/internal/shortener"
	"github.com/linkgate/linkgate/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// trackingStore wraps a repository and records whether it was touched.
type trackingStore struct {
	shortener.Repository

	gets    int
	deletes int
}

func (s *trackingStore) GetOriginalURL(ctx context.Context, code string) (string, error) {
	s.gets++

	return s.Repository.GetOriginalURL(ctx, code)
}

func (s *trackingStore) DeleteLink(ctx context.Context, code string) error {
	s.deletes++

	return s.Repository.DeleteLink(ctx, code)
}

// verifyErrProvider fails key verification with a fixed error.
type verifyErrProvider struct {
	keys.Provider

	err error
}

func (p *verifyErrProvider) VerifyKey(_ context.Context, _ string) (*keys.Verification, error) {
	return nil, p.err
}

// shortenFor creates a link plus key and returns the code and key value.
func shortenFor(t *testing.T, handler *handlers.LinkHandler) (code, key string) {
	t.Helper()

	resp, err := handler.Shorten(context.Background(), shortenRequest(testURL, "basic"))
	require.NoError(t, err)

	return codeFromShortURL(t, resp.Body.ShortURL), resp.Body.Key
}

func resolveRequest(code, key string) *handlers.ResolveRequest {
	return &handlers.ResolveRequest{Code: code, Key: key}
}

func TestResolve(t *testing.T) {
	t.Run("redirects to the original url with caching disabled", func(t *testing.T) {
		memStore := store.NewMemoryStore(shortener.NewGenerator())
		provider := keys.NewMemoryProvider()
		handler := newTestHandler(memStore, provider)

		code, key := shortenFor(t, handler)

		resp, err := handler.Resolve(context.Background(), resolveRequest(code, key))

		require.NoError(t, err)
		assert.Equal(t, http.StatusMovedPermanently, resp.Status)
		assert.Equal(t, testURL, resp.Headers.Location)
		assert.Equal(t, "no-cache, no-store, must-revalidate", resp.Headers.CacheControl)
		assert.Empty(t, resp.Body.Message)
	})

	t.Run("missing key is rejected before validation", func(t *testing.T) {
		handler := newTestHandler(store.NewMemoryStore(shortener.NewGenerator()), keys.NewMemoryProvider())

		resp, err := handler.Resolve(context.Background(), resolveRequest("abc12345", ""))

		assert.Nil(t, resp)
		assertStatus(t, err, http.StatusBadRequest)
		assert.Contains(t, err.Error(), "API key is required")
	})

	t.Run("missing code is rejected", func(t *testing.T) {
		handler := newTestHandler(store.NewMemoryStore(shortener.NewGenerator()), keys.NewMemoryProvider())

		resp, err := handler.Resolve(context.Background(), resolveRequest("", "url_whatever"))

		assert.Nil(t, resp)
		assertStatus(t, err, http.StatusBadRequest)
	})

	t.Run("invalid key yields 401", func(t *testing.T) {
		handler := newTestHandler(store.NewMemoryStore(shortener.NewGenerator()), keys.NewMemoryProvider())

		resp, err := handler.Resolve(context.Background(), resolveRequest("abc12345", "url_never_issued"))

		assert.Nil(t, resp)
		assertStatus(t, err, http.StatusUnauthorized)
	})

	t.Run("rate limited key yields 429 and never touches the store", func(t *testing.T) {
		memStore := store.NewMemoryStore(shortener.NewGenerator())
		provider := keys.NewMemoryProvider()
		handler := newTestHandler(memStore, provider)

		code, key := shortenFor(t, handler)

		// First resolve consumes the per-key allowance.
		_, err := handler.Resolve(context.Background(), resolveRequest(code, key))
		require.NoError(t, err)

		tracking := &trackingStore{Repository: memStore}
		limited := newTestHandler(tracking, provider)

		resp, err := limited.Resolve(context.Background(), resolveRequest(code, key))

		assert.Nil(t, resp)
		assertStatus(t, err, http.StatusTooManyRequests)
		assert.Zero(t, tracking.gets)
		assert.Zero(t, tracking.deletes)

		// The mapping survives.
		url, err := memStore.GetOriginalURL(context.Background(), code)
		require.NoError(t, err)
		assert.Equal(t, testURL, url)
	})

	t.Run("expired key deletes the mapping and clears the credential", func(t *testing.T) {
		memStore := store.NewMemoryStore(shortener.NewGenerator())
		provider := keys.NewMemoryProvider()
		handler := newTestHandler(memStore, provider)

		code, key := shortenFor(t, handler)

		now := time.Now()
		provider.SetClock(func() time.Time { return now.Add(3 * time.Minute) })

		resp, err := handler.Resolve(context.Background(), resolveRequest(code, key))

		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, resp.Status)
		assert.Equal(t, "The link has expired", resp.Body.Message)

		require.Len(t, resp.Headers.SetCookie, 1)
		cookie := resp.Headers.SetCookie[0]
		assert.Equal(t, "key", cookie.Name)
		assert.Equal(t, -1, cookie.MaxAge)

		_, err = memStore.GetOriginalURL(context.Background(), code)
		assert.ErrorIs(t, err, shortener.ErrNotFound)
	})

	t.Run("expired key cleans up even when the mapping is already gone", func(t *testing.T) {
		memStore := store.NewMemoryStore(shortener.NewGenerator())
		provider := keys.NewMemoryProvider()
		handler := newTestHandler(memStore, provider)

		code, key := shortenFor(t, handler)

		require.NoError(t, memStore.DeleteLink(context.Background(), code))

		now := time.Now()
		provider.SetClock(func() time.Time { return now.Add(3 * time.Minute) })

		resp, err := handler.Resolve(context.Background(), resolveRequest(code, key))

		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, resp.Status)
	})

	t.Run("valid key with unknown code yields 404", func(t *testing.T) {
		memStore := store.NewMemoryStore(shortener.NewGenerator())
		provider := keys.NewMemoryProvider()
		handler := newTestHandler(memStore, provider)

		_, key := shortenFor(t, handler)

		// Wait out the per-key limit so the second verify passes.
		now := time.Now()
		provider.SetClock(func() time.Time { return now.Add(4 * time.Second) })

		resp, err := handler.Resolve(context.Background(), resolveRequest("nevermade", key))

		assert.Nil(t, resp)
		assertStatus(t, err, http.StatusNotFound)
	})

	t.Run("provider error during validation yields 500", func(t *testing.T) {
		memStore := store.NewMemoryStore(shortener.NewGenerator())
		provider := &verifyErrProvider{
			Provider: keys.NewMemoryProvider(),
			err:      &keys.ProviderError{Message: "root key revoked"},
		}
		handler := newTestHandler(memStore, provider)

		resp, err := handler.Resolve(context.Background(), resolveRequest("abc12345", "url_whatever"))

		assert.Nil(t, resp)
		assertStatus(t, err, http.StatusInternalServerError)
		// Detail stays server-side.
		assert.NotContains(t, err.Error(), "root key revoked")
	})

	t.Run("unknown error during validation yields 500", func(t *testing.T) {
		memStore := store.NewMemoryStore(shortener.NewGenerator())
		provider := &verifyErrProvider{
			Provider: keys.NewMemoryProvider(),
			err:      errors.New("connection reset"),
		}
		handler := newTestHandler(memStore, provider)

		resp, err := handler.Resolve(context.Background(), resolveRequest("abc12345", "url_whatever"))

		assert.Nil(t, resp)
		assertStatus(t, err, http.StatusInternalServerError)
	})

	t.Run("shorten then resolve end to end", func(t *testing.T) {
		memStore := store.NewMemoryStore(shortener.NewGenerator())
		provider := keys.NewMemoryProvider()
		handler := newTestHandler(memStore, provider)

		shortenResp, err := handler.Shorten(context.Background(), shortenRequest("https://example.com", "basic"))
		require.NoError(t, err)

		code := codeFromShortURL(t, shortenResp.Body.ShortURL)
		require.Len(t, code, 8)

		resolveResp, err := handler.Resolve(context.Background(), resolveRequest(code, shortenResp.Body.Key))

		require.NoError(t, err)
		assert.Equal(t, http.StatusMovedPermanently, resolveResp.Status)
		assert.Equal(t, "https://example.com", resolveResp.Headers.Location)
	})
}

package store

import (
	"context"
	"sync"

	"github.com/linkgate/linkgate/internal/shortener"
)

// maxCodeAttempts bounds code regeneration when a generated code collides
// with an existing entry.
const maxCodeAttempts = 5

// MemoryStore is an in-memory implementation of shortener.Repository,
// used in tests and dev mode.
type MemoryStore struct {
	mu        sync.Mutex
	links     map[string]string // code -> original url
	generator *shortener.Generator
}

// NewMemoryStore creates a new in-memory link store.
func NewMemoryStore(generator *shortener.Generator) *MemoryStore {
	return &MemoryStore{
		links:     make(map[string]string),
		generator: generator,
	}
}

func (m *MemoryStore) CreateLink(_ context.Context, originalURL string, length int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for range maxCodeAttempts {
		code, err := m.generator.Generate(length)
		if err != nil {
			return "", err
		}

		if _, exists := m.links[code]; exists {
			continue
		}

		m.links[code] = originalURL

		return code, nil
	}

	return "", shortener.ErrCodeSpaceExhausted
}

func (m *MemoryStore) GetOriginalURL(_ context.Context, code string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	url, ok := m.links[code]
	if !ok {
		return "", shortener.ErrNotFound
	}

	return url, nil
}

func (m *MemoryStore) DeleteLink(_ context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.links, code)

	return nil
}

// Len reports the number of stored links.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.links)
}

// Compile-time check.
var _ shortener.Repository = (*MemoryStore)(nil)

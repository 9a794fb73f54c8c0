package shortener

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a short code has no mapping.
var ErrNotFound = errors.New("short url not found")

// ErrCodeSpaceExhausted is returned when code generation keeps colliding
// with existing entries.
var ErrCodeSpaceExhausted = errors.New("could not generate a unique short code")

// Repository is the contract for the short-link table.
//
// Implementations persist the whole table as a single JSON object
// ({code: originalUrl}) under one storage key; every mutation is a full
// read-modify-write of that object.
type Repository interface {
	// CreateLink generates a code of the given length, inserts
	// code -> originalURL and persists the table.
	CreateLink(ctx context.Context, originalURL string, length int) (string, error)

	// GetOriginalURL returns the URL mapped to code, or ErrNotFound.
	GetOriginalURL(ctx context.Context, code string) (string, error)

	// DeleteLink removes the entry for code. Deleting a code that was
	// never created, or deleting from an empty table, is a no-op.
	DeleteLink(ctx context.Context, code string) error
}

package analytics

import "context"

// Store defines the interface for persisting analytics events.
type Store interface {
	SaveLinkCreated(ctx context.Context, event *LinkCreatedEvent) error
	SaveLinkResolved(ctx context.Context, event *LinkResolvedEvent) error
}

// NoopStore discards events. Used when no analytics database is configured.
type NoopStore struct{}

// NewNoopStore creates a store that drops everything.
func NewNoopStore() *NoopStore {
	return &NoopStore{}
}

func (s *NoopStore) SaveLinkCreated(_ context.Context, _ *LinkCreatedEvent) error {
	return nil
}

func (s *NoopStore) SaveLinkResolved(_ context.Context, _ *LinkResolvedEvent) error {
	return nil
}

// Compile-time check.
var _ Store = (*NoopStore)(nil)

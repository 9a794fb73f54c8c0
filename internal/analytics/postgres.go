package analytics

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists analytics events to PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed analytics store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (p *PostgresStore) SaveLinkCreated(ctx context.Context, event *LinkCreatedEvent) error {
	query := `
		INSERT INTO link_created_events (id, code, original_url, tier, owner_id, guest_id, client_ip, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := p.pool.Exec(ctx, query,
		event.ID,
		event.Code,
		event.OriginalURL,
		event.Tier,
		event.OwnerID,
		event.GuestID,
		event.ClientIP,
		event.UserAgent,
		event.CreatedAt,
	)

	return err
}

func (p *PostgresStore) SaveLinkResolved(ctx context.Context, event *LinkResolvedEvent) error {
	query := `
		INSERT INTO link_resolved_events (id, code, client_ip, user_agent, resolved_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := p.pool.Exec(ctx, query,
		event.ID,
		event.Code,
		event.ClientIP,
		event.UserAgent,
		event.ResolvedAt,
	)

	return err
}

// Compile-time check.
var _ Store = (*PostgresStore)(nil)

package directory

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/jira-gateway/internal/domain"
)

// PostgresDirectory backs the identity lookup with a database, for
// deployments where API keys are provisioned outside the process.
type PostgresDirectory struct {
	pool *pgxpool.Pool
}

// NewPostgresDirectory returns a Postgres-backed implementation.
func NewPostgresDirectory(pool *pgxpool.Pool) *PostgresDirectory {
	return &PostgresDirectory{pool: pool}
}

// Lookup resolves the API key or fails with ErrUnknownKey.
func (d *PostgresDirectory) Lookup(ctx context.Context, apiKey string) (*domain.Identity, error) {
	const query = `
        SELECT u.name, u.webhook_url
        FROM api_keys k
        JOIN api_users u ON u.id = k.user_id
        WHERE k.api_key = $1`

	var identity domain.Identity
	if err := d.pool.QueryRow(ctx, query, apiKey).Scan(&identity.Name, &identity.WebhookURL); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUnknownKey
		}
		return nil, err
	}
	return &identity, nil
}

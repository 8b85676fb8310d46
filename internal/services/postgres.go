package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// undefinedTable is the Postgres error code for a missing relation
const undefinedTable = "42P01"

// ErrMigrationsPending is reported when the schema has not been migrated
var ErrMigrationsPending = errors.New("database migrations not applied")

// PostgresProvider checks that the interview database is reachable and
// migrated
type PostgresProvider struct {
	BaseProvider
	db *sql.DB
}

// NewPostgresProvider opens a dedicated health-check connection
func NewPostgresProvider(dsn string) (*PostgresProvider, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return &PostgresProvider{
		BaseProvider: BaseProvider{serviceType: "postgres"},
		db:           db,
	}, nil
}

// HealthCheck pings the database and verifies migrations were applied
func (p *PostgresProvider) HealthCheck(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}

	var applied int
	err := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&applied)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == undefinedTable {
			return ErrMigrationsPending
		}
		return fmt.Errorf("failed to read migrations: %w", err)
	}
	if applied == 0 {
		return ErrMigrationsPending
	}

	return nil
}

// Close closes the health-check connection
func (p *PostgresProvider) Close() error {
	return p.db.Close()
}

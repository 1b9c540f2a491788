// Package db mirrors pipeline outputs into PostgreSQL for external dashboards.
//
// The JSON artifact store remains the source of truth; this mirror is
// best-effort and the pipeline continues without it when unavailable.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// EnsureSchema creates the mirror tables if they do not exist.
// Safe to call on every run.
func (db *DB) EnsureSchema(ctx context.Context) error {
	_, err := db.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS projects (
			project_id      INTEGER PRIMARY KEY,
			name            TEXT NOT NULL,
			location        TEXT NOT NULL DEFAULT '',
			latitude        DOUBLE PRECISION,
			longitude       DOUBLE PRECISION,
			technology      TEXT NOT NULL DEFAULT '',
			capacity_dc     TEXT NOT NULL DEFAULT '',
			capacity_ac     TEXT NOT NULL DEFAULT '',
			capacity_mw     DOUBLE PRECISION NOT NULL DEFAULT 0,
			agency          TEXT NOT NULL DEFAULT '',
			status          TEXT NOT NULL DEFAULT '',
			completion_date TEXT NOT NULL DEFAULT '',
			details         JSONB,
			updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("failed to create projects table: %w", err)
	}

	_, err = db.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS opposition_summaries (
			project_id         INTEGER PRIMARY KEY,
			opposition_present BOOLEAN NOT NULL,
			confidence         DOUBLE PRECISION NOT NULL,
			rationale          TEXT NOT NULL,
			opposition_types   TEXT[] NOT NULL DEFAULT '{}',
			supporting_sources JSONB NOT NULL DEFAULT '[]',
			generated_at       TIMESTAMPTZ NOT NULL,
			updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("failed to create opposition_summaries table: %w", err)
	}

	return nil
}

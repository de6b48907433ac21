package db

import (
	"context"
	"fmt"

	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5/pgxpool"
)

type NewDBPoolParams struct {
	DBHost         string
	DBPort         string
	DBName         string
	TracingEnabled bool
}

func NewDBPool(ctx context.Context, params NewDBPoolParams) (*pgxpool.Pool, error) {
	connString := fmt.Sprintf(
		"postgres://postgres@%s:%s/%s",
		params.DBHost, params.DBPort, params.DBName,
	)
	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}

	if params.TracingEnabled {
		poolConfig.ConnConfig.Tracer = otelpgx.NewTracer()
	}

	db, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	return db, nil
}

const repetitionsSchema = `
	CREATE TABLE IF NOT EXISTS pushup_repetition (
		id              SERIAL PRIMARY KEY,
		session_id      TEXT NOT NULL,
		count           INTEGER NOT NULL,
		calories        NUMERIC(10, 2) NOT NULL,
		elapsed_seconds INTEGER NOT NULL,
		timestamp       TIMESTAMPTZ NOT NULL,
		UNIQUE (session_id, count)
	);
	CREATE INDEX IF NOT EXISTS pushup_repetition_session_idx ON pushup_repetition (session_id);
`

// Migrate creates the tables the service writes to, if missing.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, repetitionsSchema); err != nil {
		return fmt.Errorf("create repetitions schema: %w", err)
	}
	return nil
}

package db

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPool connects to the ledger database. The configured connection string
// wins; an empty one falls back to DATABASE_URL so operators can keep
// credentials out of the config file.
func NewPool(ctx context.Context, connStr string) (*pgxpool.Pool, error) {
	if connStr == "" {
		connStr = os.Getenv("DATABASE_URL")
	}
	if connStr == "" {
		return nil, fmt.Errorf("no connection string configured and DATABASE_URL not set")
	}

	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return pool, nil
}

// Bootstrap executes the schema script: tables, read views and the KPI
// catalogue seed. The script is idempotent DDL, safe to run every start.
func Bootstrap(ctx context.Context, pool *pgxpool.Pool, schemaPath string) error {
	script, err := os.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("failed to read schema script %s: %w", schemaPath, err)
	}
	if _, err := pool.Exec(ctx, string(script)); err != nil {
		return fmt.Errorf("failed to execute schema script: %w", err)
	}
	return nil
}

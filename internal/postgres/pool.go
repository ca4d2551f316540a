package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Valerolactone/analytics-todo/pkg/retry"
)

// NewPool creates a pgxpool and verifies connectivity.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return pool, nil
}

// ConnectWithRetry calls NewPool under the given retry policy. Used at
// startup, where Postgres may still be coming up.
func ConnectWithRetry(ctx context.Context, dsn string, cfg retry.Config) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	err := retry.Do(ctx, cfg, func() error {
		var err error
		pool, err = NewPool(ctx, dsn)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pool, nil
}

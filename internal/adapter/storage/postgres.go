// internal/adapter/storage/postgres.go

package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"go.uber.org/zap"
)

const schema = `
	CREATE EXTENSION IF NOT EXISTS postgis;

	CREATE TABLE IF NOT EXISTS shops (
		id SERIAL PRIMARY KEY,
		title VARCHAR NOT NULL,
		url VARCHAR,
		donation_url VARCHAR,
		descr TEXT NOT NULL DEFAULT '',
		location GEOGRAPHY(POINT, 4326) NOT NULL,
		last_edited TIMESTAMP NOT NULL DEFAULT now()
	);

	CREATE INDEX IF NOT EXISTS shops_location_idx ON shops USING GIST (location);
	CREATE INDEX IF NOT EXISTS shops_title_idx ON shops (title);
`

// Connect opens a pool and retries once per second until the database
// answers or timeout elapses
func Connect(ctx context.Context, dsn string, timeout time.Duration, logger *zap.Logger) (*pgxpool.Pool, error) {
	deadline := time.Now().Add(timeout)

	for attempt := 1; ; attempt++ {
		pool, err := pgxpool.Connect(ctx, dsn)
		if err == nil {
			err = pool.Ping(ctx)
			if err == nil {
				logger.Info("Connected to database", zap.Int("attempt", attempt))
				return pool, nil
			}
			pool.Close()
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("database not reachable after %d attempts: %w", attempt, err)
		}
		logger.Info("Waiting for database", zap.Int("attempt", attempt), zap.Error(err))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Second):
		}
	}
}

// Migrate creates the shops table and its indexes if they do not exist
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("error creating schema: %w", err)
	}
	return nil
}

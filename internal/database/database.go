// Package database provides connection management for the PostgreSQL (pgx)
// and SQLite backends, and applies the embedded schema migrations.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Shivanand-hulikatti/smartevent/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// NewPool creates and validates a pgxpool connection pool.
// It retries up to cfg.ConnectRetries times to accommodate containers starting up.
func NewPool(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}

	if cfg.MaxConnections > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConnections)
	}
	if cfg.MinConnections > 0 {
		poolCfg.MinConns = int32(cfg.MinConnections)
	}
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	attempts := cfg.ConnectRetries
	if attempts < 1 {
		attempts = 1
	}

	var pool *pgxpool.Pool
	for attempt := 1; attempt <= attempts; attempt++ {
		pool, err = pgxpool.NewWithConfig(ctx, poolCfg)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				return pool, nil
			}
			pool.Close()
		}
		logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Int("max_attempts", attempts).
			Msg("db connect attempt failed")
		if attempt < attempts {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("connect to postgres: %w", ctx.Err())
			case <-time.After(2 * time.Second):
			}
		}
	}
	return nil, fmt.Errorf("connect to postgres: %w", err)
}

// SQLiteDSN returns the modernc.org/sqlite DSN for the database file at path.
// Writers take the database lock at BEGIN so count-then-insert sequences are serialised.
func SQLiteDSN(path string) string {
	return path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate"
}

// OpenSQLite opens and pings the SQLite database at path.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", SQLiteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	return db, nil
}

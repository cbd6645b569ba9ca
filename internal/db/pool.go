package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 10 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return pool, nil
}

var schema = []string{
	`CREATE SCHEMA IF NOT EXISTS fintwin`,
	`CREATE TABLE IF NOT EXISTS fintwin.sessions (
		id         TEXT PRIMARY KEY,
		player     TEXT NOT NULL,
		career     TEXT NOT NULL,
		stage      TEXT NOT NULL,
		income     NUMERIC(14,2) NOT NULL,
		expenses   NUMERIC(14,2) NOT NULL,
		savings    NUMERIC(14,2) NOT NULL,
		debt       NUMERIC(14,2) NOT NULL,
		xp         INTEGER NOT NULL DEFAULT 0,
		level      INTEGER NOT NULL DEFAULT 1,
		turns      INTEGER NOT NULL DEFAULT 0,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`ALTER TABLE fintwin.sessions ADD COLUMN IF NOT EXISTS transcript JSONB NOT NULL DEFAULT '[]'::jsonb`,
	`CREATE INDEX IF NOT EXISTS sessions_updated_at_idx ON fintwin.sessions (updated_at)`,
	`CREATE TABLE IF NOT EXISTS fintwin.session_achievements (
		session_id  TEXT NOT NULL REFERENCES fintwin.sessions (id) ON DELETE CASCADE,
		position    INTEGER NOT NULL,
		achievement TEXT NOT NULL,
		PRIMARY KEY (session_id, achievement)
	)`,
	`CREATE TABLE IF NOT EXISTS fintwin.session_decisions (
		session_id TEXT NOT NULL REFERENCES fintwin.sessions (id) ON DELETE CASCADE,
		position   INTEGER NOT NULL,
		idem_key   TEXT NOT NULL,
		PRIMARY KEY (session_id, idem_key)
	)`,
}

// EnsureSchema creates the session tables when they do not exist yet.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func IsSerializationError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "40001"
}

package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect создаёт пул подключений к Postgres.
func Connect(dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = 5
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

// schema создаёт таблицы кэша отправки и журнала команд таймлайна.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS push_state (
		id smallint PRIMARY KEY DEFAULT 1 CHECK (id = 1),
		pushed_at timestamptz,
		settings jsonb NOT NULL DEFAULT '{}'::jsonb
	)`,
	`CREATE TABLE IF NOT EXISTS pin_commands (
		command_id text PRIMARY KEY,
		cycle_id text NOT NULL DEFAULT '',
		kind text NOT NULL,
		pin_id text NOT NULL,
		status text NOT NULL DEFAULT 'pending',
		error text NOT NULL DEFAULT '',
		created_at timestamptz NOT NULL DEFAULT now(),
		updated_at timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS pin_commands_pin_id_idx ON pin_commands (pin_id)`,
}

// Migrate применяет схему. Запросы идемпотентны.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("миграция: %w", err)
		}
	}
	return nil
}

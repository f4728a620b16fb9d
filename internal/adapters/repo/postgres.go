package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hubble-sync/internal/domain"
	"hubble-sync/internal/infra/metrics"
)

// Postgres реализует хранилища кэша отправки и журнала команд на основе pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
}

var (
	_ domain.PushCacheStore   = (*Postgres)(nil)
	_ domain.PinCommandLedger = (*Postgres)(nil)
)

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

// LoadPushState читает снимок кэша отправки. Пустая таблица — пустое состояние.
func (p *Postgres) LoadPushState(ctx context.Context) (domain.PushState, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var (
		pushedAt sql.NullTime
		raw      []byte
	)
	start := time.Now()
	err := p.pool.QueryRow(ctx, `SELECT pushed_at, settings FROM push_state WHERE id = 1`).Scan(&pushedAt, &raw)
	if errors.Is(err, pgx.ErrNoRows) {
		metrics.ObserveNetworkRequest("postgres", "push_state_load", "push_state", start, nil)
		return domain.PushState{}, nil
	}
	metrics.ObserveNetworkRequest("postgres", "push_state_load", "push_state", start, err)
	if err != nil {
		return domain.PushState{}, err
	}
	if !pushedAt.Valid {
		return domain.PushState{}, nil
	}

	var settings map[string]any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &settings); err != nil {
			return domain.PushState{}, fmt.Errorf("разбор настроек снимка: %w", err)
		}
	}
	normalized, err := domain.NormalizeSettings(settings)
	if err != nil {
		return domain.PushState{}, fmt.Errorf("настройки снимка: %w", err)
	}
	return domain.PushState{PushedAt: pushedAt.Time.UTC(), Settings: normalized}, nil
}

// SavePushState перезаписывает единственную строку снимка.
func (p *Postgres) SavePushState(ctx context.Context, state domain.PushState) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	settings := state.Settings
	if settings == nil {
		settings = domain.Settings{}
	}
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("кодирование настроек: %w", err)
	}
	var pushedAt sql.NullTime
	if !state.PushedAt.IsZero() {
		pushedAt = sql.NullTime{Time: state.PushedAt.UTC(), Valid: true}
	}

	start := time.Now()
	_, err = p.pool.Exec(ctx, `
INSERT INTO push_state (id, pushed_at, settings)
VALUES (1, $1, $2)
ON CONFLICT (id) DO UPDATE
    SET pushed_at = EXCLUDED.pushed_at,
        settings = EXCLUDED.settings
`, pushedAt, raw)
	metrics.ObserveNetworkRequest("postgres", "push_state_save", "push_state", start, err)
	return err
}

// EnsurePinCommand регистрирует команду и сообщает, выполнена ли она ранее.
func (p *Postgres) EnsurePinCommand(ctx context.Context, cmd domain.PinCommand) (bool, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var status string
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
INSERT INTO pin_commands (command_id, cycle_id, kind, pin_id, updated_at)
VALUES ($1, $2, $3, $4, now())
ON CONFLICT (command_id) DO UPDATE
    SET updated_at = now()
RETURNING status
`, cmd.ID, cmd.CycleID, string(cmd.Kind), cmd.PinID).Scan(&status)
	metrics.ObserveNetworkRequest("postgres", "pin_commands_upsert", "pin_commands", start, err)
	if err != nil {
		return false, err
	}
	return status == "done", nil
}

// MarkPinCommand фиксирует итог выполнения команды.
func (p *Postgres) MarkPinCommand(ctx context.Context, commandID, status, errText string) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
UPDATE pin_commands
SET status = $2,
    error = $3,
    updated_at = now()
WHERE command_id = $1
`, commandID, status, errText)
	metrics.ObserveNetworkRequest("postgres", "pin_commands_mark", "pin_commands", start, err)
	return err
}

// PinCommandStats возвращает число команд по статусам.
func (p *Postgres) PinCommandStats(ctx context.Context) (map[string]int, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `SELECT status, count(*) FROM pin_commands GROUP BY status`)
	metrics.ObserveNetworkRequest("postgres", "pin_commands_stats", "pin_commands", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	stats := make(map[string]int)
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

package domain

import (
	"context"
	"time"
)

// PinCommandKind описывает операцию над пином.
type PinCommandKind string

const (
	// PinUpsert создаёт или заменяет пин с тем же идентификатором.
	PinUpsert PinCommandKind = "upsert"
	// PinDelete удаляет пин.
	PinDelete PinCommandKind = "delete"
)

// PinCommand — команда для таймлайна, которую синхронизатор отдаёт в очередь.
type PinCommand struct {
	ID        string         `json:"command_id"`
	CycleID   string         `json:"cycle_id,omitempty"`
	Kind      PinCommandKind `json:"kind"`
	PinID     string         `json:"pin_id"`
	Pin       *Pin           `json:"pin,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// PinCommandQueue описывает очередь команд таймлайна.
type PinCommandQueue interface {
	Enqueue(ctx context.Context, cmd PinCommand) error
	Receive(ctx context.Context) (PinCommand, PinAckFunc, error)
}

// PinAckFunc подтверждает обработку команды.
type PinAckFunc func(success bool) error

// PinResult — итог выполнения команды, публикуемый исполнителем.
type PinResult struct {
	CommandID string
	Kind      PinCommandKind
	PinID     string
	Err       error
	Finished  time.Time
}

// PushState — состояние кэша отправки: время последней отправки и использованные настройки.
type PushState struct {
	PushedAt time.Time `json:"pushed_at"`
	Settings Settings  `json:"settings"`
}

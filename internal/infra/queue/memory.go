package queue

import (
	"context"
	"errors"

	"hubble-sync/internal/domain"
)

// ErrQueueFull возвращается, если буфер очереди в памяти заполнен.
var ErrQueueFull = errors.New("memory queue: буфер заполнен")

// MemoryPinQueue — очередь команд в пределах одного процесса.
type MemoryPinQueue struct {
	ch chan domain.PinCommand
}

var _ domain.PinCommandQueue = (*MemoryPinQueue)(nil)

// NewMemoryPinQueue создаёт очередь с буфером size.
func NewMemoryPinQueue(size int) *MemoryPinQueue {
	if size <= 0 {
		size = 1024
	}
	return &MemoryPinQueue{ch: make(chan domain.PinCommand, size)}
}

// Enqueue кладёт команду в буфер, не блокируясь.
func (q *MemoryPinQueue) Enqueue(ctx context.Context, cmd domain.PinCommand) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case q.ch <- cmd:
		return nil
	default:
		return ErrQueueFull
	}
}

// Receive ждёт следующую команду. Подтверждение ничего не делает.
func (q *MemoryPinQueue) Receive(ctx context.Context) (domain.PinCommand, domain.PinAckFunc, error) {
	select {
	case <-ctx.Done():
		return domain.PinCommand{}, nil, ctx.Err()
	case cmd := <-q.ch:
		return cmd, func(bool) error { return nil }, nil
	}
}

// Len возвращает число ожидающих команд.
func (q *MemoryPinQueue) Len() int {
	return len(q.ch)
}

package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"hubble-sync/internal/domain"
)

// RedisPinQueue реализует очередь команд таймлайна на базе Redis lists.
type RedisPinQueue struct {
	client *redis.Client
	key    string
}

var _ domain.PinCommandQueue = (*RedisPinQueue)(nil)

// NewRedisPinQueue создаёт очередь по указанному ключу.
func NewRedisPinQueue(client *redis.Client, key string) *RedisPinQueue {
	return &RedisPinQueue{client: client, key: key}
}

// Enqueue публикует команду в очередь.
func (q *RedisPinQueue) Enqueue(ctx context.Context, cmd domain.PinCommand) error {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("marshal command: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("push command: %w", err)
	}
	return nil
}

// Receive блокирующе читает команду. BRPOP уже снял её с очереди, поэтому
// подтверждение ничего не делает: воркер не возвращает команды на повтор.
func (q *RedisPinQueue) Receive(ctx context.Context) (domain.PinCommand, domain.PinAckFunc, error) {
	for {
		if err := ctx.Err(); err != nil {
			return domain.PinCommand{}, nil, err
		}

		res, err := q.client.BRPop(ctx, time.Second, q.key).Result()
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				if ctx.Err() != nil {
					return domain.PinCommand{}, nil, ctx.Err()
				}
				continue
			}
			if errors.Is(err, redis.Nil) {
				continue
			}
			return domain.PinCommand{}, nil, err
		}
		if len(res) != 2 {
			return domain.PinCommand{}, nil, errors.New("redis queue: unexpected response")
		}
		raw := res[1]
		var cmd domain.PinCommand
		if err := json.Unmarshal([]byte(raw), &cmd); err != nil {
			return domain.PinCommand{}, nil, fmt.Errorf("decode command: %w", err)
		}
		return cmd, ackRemoved, nil
	}
}

func ackRemoved(bool) error { return nil }

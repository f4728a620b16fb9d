package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"hubble-sync/internal/domain"
	"hubble-sync/internal/infra/metrics"
)

// RabbitPinQueue реализует очередь команд через AMQP.
type RabbitPinQueue struct {
	conn  *amqp.Connection
	queue string

	mu         sync.Mutex
	publishCh  *amqp.Channel
	consumeCh  *amqp.Channel
	deliveries <-chan amqp.Delivery
}

var _ domain.PinCommandQueue = (*RabbitPinQueue)(nil)

// NewRabbitPinQueue подключается к брокеру и объявляет долговечную очередь.
func NewRabbitPinQueue(amqpURL, queue string) (*RabbitPinQueue, error) {
	if amqpURL == "" {
		return nil, errors.New("amqp url is empty")
	}
	if queue == "" {
		return nil, errors.New("queue name is empty")
	}
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	return &RabbitPinQueue{conn: conn, queue: queue, publishCh: ch}, nil
}

// Enqueue публикует команду как постоянное сообщение.
func (q *RabbitPinQueue) Enqueue(ctx context.Context, cmd domain.PinCommand) error {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("marshal command: %w", err)
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	start := time.Now()
	err = q.publishCh.PublishWithContext(ctx, "", q.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    cmd.ID,
		Timestamp:    cmd.CreatedAt,
		Body:         payload,
	})
	metrics.ObserveNetworkRequest("rabbitmq", "publish", q.queue, start, err)
	if err != nil {
		return fmt.Errorf("publish command: %w", err)
	}
	return nil
}

// Receive ждёт следующую доставку. Подтверждение делает Ack или Nack с возвратом в очередь.
func (q *RabbitPinQueue) Receive(ctx context.Context) (domain.PinCommand, domain.PinAckFunc, error) {
	deliveries, err := q.consume()
	if err != nil {
		return domain.PinCommand{}, nil, err
	}
	select {
	case <-ctx.Done():
		return domain.PinCommand{}, nil, ctx.Err()
	case d, ok := <-deliveries:
		if !ok {
			q.resetConsumer()
			return domain.PinCommand{}, nil, errors.New("rabbitmq: канал доставки закрыт")
		}
		var cmd domain.PinCommand
		if err := json.Unmarshal(d.Body, &cmd); err != nil {
			_ = d.Nack(false, false)
			return domain.PinCommand{}, nil, fmt.Errorf("decode command: %w", err)
		}
		ack := func(success bool) error {
			if success {
				return d.Ack(false)
			}
			return d.Nack(false, true)
		}
		return cmd, ack, nil
	}
}

func (q *RabbitPinQueue) consume() (<-chan amqp.Delivery, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.deliveries != nil {
		return q.deliveries, nil
	}
	ch, err := q.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open consume channel: %w", err)
	}
	if err := ch.Qos(16, 0, false); err != nil {
		ch.Close()
		return nil, fmt.Errorf("set qos: %w", err)
	}
	deliveries, err := ch.Consume(q.queue, "", false, false, false, false, nil)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("consume: %w", err)
	}
	q.consumeCh, q.deliveries = ch, deliveries
	return deliveries, nil
}

func (q *RabbitPinQueue) resetConsumer() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.consumeCh != nil {
		_ = q.consumeCh.Close()
	}
	q.consumeCh, q.deliveries = nil, nil
}

// Close закрывает каналы и соединение.
func (q *RabbitPinQueue) Close() error {
	q.resetConsumer()
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.publishCh != nil {
		_ = q.publishCh.Close()
	}
	return q.conn.Close()
}

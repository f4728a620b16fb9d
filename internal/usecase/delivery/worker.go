package delivery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"hubble-sync/internal/domain"
	"hubble-sync/internal/infra/metrics"
)

// Статусы команды в журнале.
const (
	StatusDone   = "done"
	StatusFailed = "failed"
)

// receiveBackoff — пауза после ошибки чтения очереди.
const receiveBackoff = time.Second

// Worker выполняет команды таймлайна из очереди. Повторов нет:
// следующий цикл синхронизации всё равно пришлёт актуальное состояние.
type Worker struct {
	queue    domain.PinCommandQueue
	timeline domain.TimelineClient
	ledger   domain.PinCommandLedger
	results  chan<- domain.PinResult
	log      zerolog.Logger
}

// NewWorker создаёт исполнителя. ledger и results могут быть nil.
func NewWorker(queue domain.PinCommandQueue, timeline domain.TimelineClient, ledger domain.PinCommandLedger, results chan<- domain.PinResult, logger zerolog.Logger) *Worker {
	return &Worker{queue: queue, timeline: timeline, ledger: ledger, results: results, log: logger}
}

// Run читает очередь до отмены контекста.
func (w *Worker) Run(ctx context.Context) {
	for {
		cmd, ack, err := w.queue.Receive(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			w.log.Error().Err(err).Msg("delivery: ошибка чтения очереди")
			select {
			case <-ctx.Done():
				return
			case <-time.After(receiveBackoff):
			}
			continue
		}
		w.Handle(ctx, cmd, ack)
	}
}

// Handle выполняет одну команду и всегда подтверждает её.
func (w *Worker) Handle(ctx context.Context, cmd domain.PinCommand, ack domain.PinAckFunc) {
	cmdLog := w.log.With().
		Str("command_id", cmd.ID).
		Str("cycle_id", cmd.CycleID).
		Str("kind", string(cmd.Kind)).
		Str("pin_id", cmd.PinID).
		Logger()

	defer func() {
		if ack == nil {
			return
		}
		if err := ack(true); err != nil {
			cmdLog.Error().Err(err).Msg("delivery: не удалось подтвердить команду")
		}
	}()

	if cmd.ID == "" || cmd.PinID == "" {
		cmdLog.Error().Msg("delivery: команда без идентификатора, пропускаем")
		return
	}

	if w.ledger != nil {
		done, err := w.ledger.EnsurePinCommand(ctx, cmd)
		if err != nil {
			cmdLog.Warn().Err(err).Msg("delivery: журнал недоступен, выполняем без него")
		} else if done {
			cmdLog.Info().Msg("delivery: команда уже выполнена")
			return
		}
	}

	err := w.execute(ctx, cmd)
	metrics.ObservePinDelivery(string(cmd.Kind), err)
	if err != nil {
		cmdLog.Error().Err(err).Msg("delivery: команда не выполнена")
	} else {
		cmdLog.Debug().Msg("delivery: команда выполнена")
	}
	w.record(ctx, cmd, err, cmdLog)
	w.publish(domain.PinResult{CommandID: cmd.ID, Kind: cmd.Kind, PinID: cmd.PinID, Err: err, Finished: time.Now()})
}

func (w *Worker) execute(ctx context.Context, cmd domain.PinCommand) error {
	switch cmd.Kind {
	case domain.PinUpsert:
		if cmd.Pin == nil {
			return fmt.Errorf("команда %s без пина", cmd.ID)
		}
		return w.timeline.PutPin(ctx, *cmd.Pin)
	case domain.PinDelete:
		return w.timeline.DeletePin(ctx, cmd.PinID)
	default:
		return fmt.Errorf("неизвестная команда %q", cmd.Kind)
	}
}

func (w *Worker) record(ctx context.Context, cmd domain.PinCommand, execErr error, cmdLog zerolog.Logger) {
	if w.ledger == nil {
		return
	}
	status, errText := StatusDone, ""
	if execErr != nil {
		status, errText = StatusFailed, execErr.Error()
	}
	if err := w.ledger.MarkPinCommand(ctx, cmd.ID, status, errText); err != nil {
		cmdLog.Warn().Err(err).Msg("delivery: не удалось записать результат в журнал")
	}
}

// publish не блокирует исполнителя, если результат никто не читает.
func (w *Worker) publish(res domain.PinResult) {
	if w.results == nil {
		return
	}
	select {
	case w.results <- res:
	default:
	}
}

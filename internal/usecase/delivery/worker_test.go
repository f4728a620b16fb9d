package delivery

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"hubble-sync/internal/domain"
)

type fakeTimeline struct {
	puts    map[string]domain.Pin
	deletes []string
	err     error
}

func newFakeTimeline() *fakeTimeline {
	return &fakeTimeline{puts: make(map[string]domain.Pin)}
}

func (f *fakeTimeline) PutPin(ctx context.Context, pin domain.Pin) error {
	if f.err != nil {
		return f.err
	}
	f.puts[pin.ID] = pin
	return nil
}

func (f *fakeTimeline) DeletePin(ctx context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	f.deletes = append(f.deletes, id)
	return nil
}

type fakeLedger struct {
	done   map[string]bool
	status map[string]string
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{done: map[string]bool{}, status: map[string]string{}}
}

func (l *fakeLedger) EnsurePinCommand(ctx context.Context, cmd domain.PinCommand) (bool, error) {
	return l.done[cmd.ID], nil
}

func (l *fakeLedger) MarkPinCommand(ctx context.Context, id, status, errText string) error {
	l.status[id] = status
	if status == StatusDone {
		l.done[id] = true
	}
	return nil
}

type ackRecorder struct{ acks []bool }

func (a *ackRecorder) ack(success bool) error {
	a.acks = append(a.acks, success)
	return nil
}

func upsert(id, pinID string) domain.PinCommand {
	return domain.PinCommand{ID: id, Kind: domain.PinUpsert, PinID: pinID, Pin: &domain.Pin{ID: pinID}}
}

func TestHandleUpsertIsIdempotentAtTransport(t *testing.T) {
	tl := newFakeTimeline()
	w := NewWorker(nil, tl, nil, nil, zerolog.Nop())
	acks := &ackRecorder{}

	w.Handle(context.Background(), upsert("c1", "sun-rise0"), acks.ack)
	w.Handle(context.Background(), upsert("c2", "sun-rise0"), acks.ack)

	if len(tl.puts) != 1 {
		t.Fatalf("повторная отправка пина не должна создавать вторую запись, получили %d", len(tl.puts))
	}
	if len(acks.acks) != 2 || !acks.acks[0] || !acks.acks[1] {
		t.Fatalf("каждая команда подтверждается, получили %v", acks.acks)
	}
}

func TestHandleFailureIsAckedAndReported(t *testing.T) {
	tl := newFakeTimeline()
	tl.err = errors.New("503")
	ledger := newFakeLedger()
	results := make(chan domain.PinResult, 1)
	w := NewWorker(nil, tl, ledger, results, zerolog.Nop())
	acks := &ackRecorder{}

	w.Handle(context.Background(), domain.PinCommand{ID: "c1", Kind: domain.PinDelete, PinID: "eclipse"}, acks.ack)

	if len(acks.acks) != 1 || !acks.acks[0] {
		t.Fatalf("ошибка не должна возвращать команду в очередь: %v", acks.acks)
	}
	if ledger.status["c1"] != StatusFailed {
		t.Fatalf("ожидали статус failed, получили %q", ledger.status["c1"])
	}
	res := <-results
	if res.Err == nil || res.PinID != "eclipse" {
		t.Fatalf("неожиданный результат %+v", res)
	}
}

func TestHandleSkipsDoneCommands(t *testing.T) {
	tl := newFakeTimeline()
	ledger := newFakeLedger()
	w := NewWorker(nil, tl, ledger, nil, zerolog.Nop())

	cmd := domain.PinCommand{ID: "c1", Kind: domain.PinDelete, PinID: "moon-apsis"}
	w.Handle(context.Background(), cmd, nil)
	w.Handle(context.Background(), cmd, nil)

	if len(tl.deletes) != 1 {
		t.Fatalf("выполненная команда не повторяется, удалений %d", len(tl.deletes))
	}
}

func TestPublishDoesNotBlock(t *testing.T) {
	results := make(chan domain.PinResult)
	w := NewWorker(nil, newFakeTimeline(), nil, results, zerolog.Nop())
	w.Handle(context.Background(), upsert("c1", "equinox"), nil)
}

func TestHandleRejectsMalformedCommands(t *testing.T) {
	tl := newFakeTimeline()
	w := NewWorker(nil, tl, nil, nil, zerolog.Nop())
	acks := &ackRecorder{}
	w.Handle(context.Background(), domain.PinCommand{ID: "c1", Kind: domain.PinUpsert, PinID: "x"}, acks.ack)
	w.Handle(context.Background(), domain.PinCommand{Kind: domain.PinDelete}, acks.ack)
	if len(tl.puts) != 0 || len(tl.deletes) != 0 || len(acks.acks) != 2 {
		t.Fatalf("битые команды должны подтверждаться и пропускаться")
	}
}

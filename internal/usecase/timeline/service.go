package timeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"hubble-sync/internal/domain"
	"hubble-sync/internal/infra/metrics"
	"hubble-sync/internal/usecase/pins"
)

// Service синхронизирует таймлайн с включёнными категориями событий.
// Команды уходят в очередь, результат их выполнения цикл не ждёт.
type Service struct {
	events  domain.EventProvider
	builder *pins.Builder
	queue   domain.PinCommandQueue
	cache   *PushCache
	clock   domain.Clock
	log     zerolog.Logger

	mu  sync.Mutex
	loc *time.Location
}

// NewService создаёт синхронизатор. loc задаёт границы календарных дней для индексов пинов.
func NewService(events domain.EventProvider, builder *pins.Builder, queue domain.PinCommandQueue, cache *PushCache, clock domain.Clock, loc *time.Location, logger zerolog.Logger) *Service {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{events: events, builder: builder, queue: queue, cache: cache, clock: clock, loc: loc, log: logger}
}

// SetLocation меняет часовой пояс, в котором считаются дни.
func (s *Service) SetLocation(loc *time.Location) {
	if loc == nil {
		return
	}
	s.mu.Lock()
	s.loc = loc
	s.mu.Unlock()
}

func (s *Service) location() *time.Location {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loc
}

// PushCache возвращает кэш отправки, например для принудительного сброса.
func (s *Service) PushCache() *PushCache {
	return s.cache
}

// cycle — состояние одного прохода синхронизации.
type cycle struct {
	id       string
	now      time.Time
	loc      *time.Location
	seen     map[string]struct{}
	upserted int
}

// Sync выполняет цикл синхронизации и возвращает число отправленных пинов.
// Ошибка возвращается только при полном отказе, например без наблюдателя.
func (s *Service) Sync(ctx context.Context, obs domain.Observer, ref time.Time, settings domain.Settings) (int, error) {
	start := time.Now()
	if s.cache.ShouldSkip(settings) {
		s.log.Info().Msg("timeline: настройки не менялись, цикл пропущен")
		metrics.ObserveSyncCycle("skipped", start)
		return 0, nil
	}

	c := &cycle{
		id:   uuid.NewString(),
		now:  s.clock.Now(),
		loc:  s.location(),
		seen: make(map[string]struct{}),
	}
	logger := s.log.With().Str("cycle_id", c.id).Logger()

	if last, ok := s.cache.LastSettings(); ok {
		if patterns := DisabledPatterns(last, settings); len(patterns) > 0 {
			logger.Info().Strs("patterns", patterns).Msg("timeline: категории выключены, удаляем их пины")
			s.deletePins(ctx, c, pins.IDsForPatterns(patterns))
		}
	}

	set, err := s.events.Events(ctx, obs, ref, settings)
	if err != nil {
		metrics.ObserveSyncCycle("failed", start)
		return 0, fmt.Errorf("получение событий: %w", err)
	}

	for _, e := range set.RiseSet {
		s.pushRecurring(ctx, c, e, e.Time)
	}
	for _, e := range set.Twilight {
		s.pushRecurring(ctx, c, e, e.Time)
	}
	for _, e := range set.SolarNoonMidnight {
		s.pushRecurring(ctx, c, e, e.Time)
	}
	for _, e := range set.Seasonal {
		s.pushOneTime(ctx, c, e)
	}
	for _, e := range set.Transit {
		s.pushOneTime(ctx, c, e)
	}
	for _, e := range set.Eclipse {
		s.pushOneTime(ctx, c, e)
	}
	for _, e := range set.LunarApsis {
		s.pushOneTime(ctx, c, e)
	}

	s.cache.Update(ctx, settings)
	metrics.ObserveSyncCycle("pushed", start)
	logger.Info().Int("pins", c.upserted).Msg("timeline: цикл синхронизации завершён")
	return c.upserted, nil
}

// DeleteAll ставит в очередь удаление всех пинов, которые мог создать синхронизатор.
func (s *Service) DeleteAll(ctx context.Context) int {
	c := &cycle{id: uuid.NewString(), now: s.clock.Now(), loc: s.location(), seen: make(map[string]struct{})}
	return s.deletePins(ctx, c, pins.AllPossiblePinIDs())
}

// PushTestPin ставит в очередь отладочный пин.
func (s *Service) PushTestPin(ctx context.Context) (domain.Pin, error) {
	pin := s.builder.TestPin()
	cmd := s.command(uuid.NewString(), domain.PinUpsert, pin.ID, &pin)
	if err := s.queue.Enqueue(ctx, cmd); err != nil {
		return domain.Pin{}, fmt.Errorf("постановка тестового пина: %w", err)
	}
	metrics.PinsUpserted.Inc()
	return pin, nil
}

// DeleteTestPin ставит в очередь удаление отладочного пина.
func (s *Service) DeleteTestPin(ctx context.Context) error {
	cmd := s.command(uuid.NewString(), domain.PinDelete, domain.TestPinID, nil)
	if err := s.queue.Enqueue(ctx, cmd); err != nil {
		return fmt.Errorf("удаление тестового пина: %w", err)
	}
	metrics.PinsDeleted.Inc()
	return nil
}

func (s *Service) pushRecurring(ctx context.Context, c *cycle, e domain.Event, at time.Time) {
	seq, ok := sequenceIndex(c.now, at, c.loc)
	if !ok {
		return
	}
	s.upsert(ctx, c, e, seq)
}

func (s *Service) pushOneTime(ctx context.Context, c *cycle, e domain.Event) {
	if !inTimelineRange(c.now, e.At()) {
		return
	}
	s.upsert(ctx, c, e, 0)
}

func (s *Service) upsert(ctx context.Context, c *cycle, e domain.Event, seq int) {
	pin, err := s.builder.Build(e, seq)
	if err != nil {
		s.log.Warn().Err(err).Str("cycle_id", c.id).Msg("timeline: пин не собран")
		return
	}
	if _, dup := c.seen[pin.ID]; dup {
		return
	}
	c.seen[pin.ID] = struct{}{}

	if err := s.queue.Enqueue(ctx, s.command(c.id, domain.PinUpsert, pin.ID, &pin)); err != nil {
		s.log.Error().Err(err).Str("cycle_id", c.id).Str("pin_id", pin.ID).Msg("timeline: команда не поставлена в очередь")
		return
	}
	c.upserted++
	metrics.PinsUpserted.Inc()
}

func (s *Service) deletePins(ctx context.Context, c *cycle, ids []string) int {
	deleted := 0
	for _, id := range ids {
		if err := s.queue.Enqueue(ctx, s.command(c.id, domain.PinDelete, id, nil)); err != nil {
			s.log.Error().Err(err).Str("cycle_id", c.id).Str("pin_id", id).Msg("timeline: удаление не поставлено в очередь")
			continue
		}
		deleted++
		metrics.PinsDeleted.Inc()
	}
	return deleted
}

func (s *Service) command(cycleID string, kind domain.PinCommandKind, pinID string, pin *domain.Pin) domain.PinCommand {
	return domain.PinCommand{
		ID:        uuid.NewString(),
		CycleID:   cycleID,
		Kind:      kind,
		PinID:     pinID,
		Pin:       pin,
		CreatedAt: s.clock.Now(),
	}
}

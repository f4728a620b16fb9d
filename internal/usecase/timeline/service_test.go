package timeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"hubble-sync/internal/domain"
	"hubble-sync/internal/usecase/pins"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

type stubEvents struct {
	set   domain.EventSet
	err   error
	calls int
}

func (s *stubEvents) Events(ctx context.Context, obs domain.Observer, ref time.Time, settings domain.Settings) (domain.EventSet, error) {
	s.calls++
	return s.set, s.err
}

type fakeQueue struct {
	commands []domain.PinCommand
	failPin  string
}

func (q *fakeQueue) Enqueue(ctx context.Context, cmd domain.PinCommand) error {
	if cmd.PinID == q.failPin {
		return errors.New("очередь недоступна")
	}
	q.commands = append(q.commands, cmd)
	return nil
}

func (q *fakeQueue) Receive(ctx context.Context) (domain.PinCommand, domain.PinAckFunc, error) {
	return domain.PinCommand{}, nil, errors.New("не используется")
}

func (q *fakeQueue) byKind(kind domain.PinCommandKind) []string {
	var ids []string
	for _, c := range q.commands {
		if c.Kind == kind {
			ids = append(ids, c.PinID)
		}
	}
	return ids
}

type brokenStore struct{ saved []domain.PushState }

func (b *brokenStore) LoadPushState(ctx context.Context) (domain.PushState, error) {
	return domain.PushState{}, errors.New("битый снимок")
}

func (b *brokenStore) SavePushState(ctx context.Context, state domain.PushState) error {
	b.saved = append(b.saved, state)
	return nil
}

var testNow = time.Date(2025, 6, 21, 12, 0, 0, 0, time.UTC)

func newTestService(set domain.EventSet) (*Service, *fakeQueue, *fakeClock, *stubEvents) {
	clock := &fakeClock{now: testNow}
	events := &stubEvents{set: set}
	queue := &fakeQueue{}
	logger := zerolog.Nop()
	cache := NewPushCache(clock, nil, logger)
	svc := NewService(events, pins.NewBuilder(clock), queue, cache, clock, time.UTC, logger)
	return svc, queue, clock, events
}

func sampleSet() domain.EventSet {
	set := domain.NewEventSet()
	set.RiseSet = []domain.RiseSetEvent{
		{Body: "Sun", Type: domain.DirectionRise, Time: testNow.Add(-30 * time.Hour)},
		{Body: "Sun", Type: domain.DirectionRise, Time: testNow.Add(-6 * time.Hour)},
		{Body: "Sun", Type: domain.DirectionRise, Time: testNow.Add(18 * time.Hour)},
		{Body: "Sun", Type: domain.DirectionRise, Time: testNow.Add(90 * time.Hour)},
	}
	set.Eclipse = []domain.EclipseEvent{{Type: domain.EclipseLunar, EclipseKind: "total", Peak: testNow.Add(200 * 24 * time.Hour)}}
	return set
}

var observer = domain.Observer{Latitude: 40, Longitude: -74}

func TestSyncPushesVisibleEvents(t *testing.T) {
	svc, queue, _, _ := newTestService(sampleSet())
	n, err := svc.Sync(context.Background(), observer, testNow, domain.Settings{})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if n != 4 {
		t.Fatalf("ожидали 4 пина, получили %d", n)
	}
	got := queue.byKind(domain.PinUpsert)
	want := []string{"sun-rise-1", "sun-rise0", "sun-rise1", "eclipse"}
	if len(got) != len(want) {
		t.Fatalf("ожидали %v, получили %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ожидали %v, получили %v", want, got)
		}
	}
	for _, cmd := range queue.commands {
		if cmd.ID == "" || cmd.CycleID == "" || cmd.Pin == nil {
			t.Fatalf("команда без идентификаторов: %+v", cmd)
		}
	}
}

func TestSyncSkipsWithinTTL(t *testing.T) {
	svc, queue, clock, events := newTestService(sampleSet())
	ctx := context.Background()
	settings := domain.Settings{domain.CfgSunRiseSet: true}

	if _, err := svc.Sync(ctx, observer, testNow, settings); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	first := len(queue.commands)

	clock.now = clock.now.Add(10 * time.Minute)
	n, err := svc.Sync(ctx, observer, testNow, domain.Settings{domain.CfgSunRiseSet: true})
	if err != nil || n != 0 {
		t.Fatalf("ожидали пропуск, получили %d, %v", n, err)
	}
	if len(queue.commands) != first || events.calls != 1 {
		t.Fatalf("пропущенный цикл не должен ничего делать")
	}

	clock.now = clock.now.Add(25 * time.Minute)
	if n, _ := svc.Sync(ctx, observer, testNow, settings); n == 0 {
		t.Fatalf("после 30 минут цикл должен пройти")
	}
}

func TestSyncDeletesOnlyEclipseWhenDisabled(t *testing.T) {
	svc, queue, clock, _ := newTestService(domain.NewEventSet())
	ctx := context.Background()
	if _, err := svc.Sync(ctx, observer, testNow, domain.Settings{}); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	queue.commands = nil
	clock.now = clock.now.Add(time.Minute)

	if _, err := svc.Sync(ctx, observer, testNow, domain.Settings{domain.CfgSunEclipses: false}); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	deleted := queue.byKind(domain.PinDelete)
	if len(deleted) != 1 || deleted[0] != "eclipse" {
		t.Fatalf("ожидали удаление только eclipse, получили %v", deleted)
	}
}

func TestSyncDeletesPlanetPins(t *testing.T) {
	svc, queue, clock, _ := newTestService(domain.NewEventSet())
	ctx := context.Background()
	on := domain.Settings{domain.CfgPlanetEvents: []bool{false, true, false, false, false, false, false, false}}
	if _, err := svc.Sync(ctx, observer, testNow, on); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	clock.now = clock.now.Add(time.Minute)
	off := domain.Settings{domain.CfgPlanetEvents: make([]bool, 8)}
	if _, err := svc.Sync(ctx, observer, testNow, off); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	deleted := queue.byKind(domain.PinDelete)
	if len(deleted) != 10 {
		t.Fatalf("ожидали 10 удалений пинов Венеры, получили %v", deleted)
	}
	for _, id := range deleted {
		if id[:5] != "venus" {
			t.Fatalf("лишнее удаление %s", id)
		}
	}
}

func TestSyncDeduplicatesPinIDs(t *testing.T) {
	set := domain.NewEventSet()
	at := testNow.Add(2 * time.Hour)
	set.RiseSet = []domain.RiseSetEvent{
		{Body: "Moon", Type: domain.DirectionSet, Time: at},
		{Body: "Moon", Type: domain.DirectionSet, Time: at.Add(time.Hour)},
	}
	svc, queue, _, _ := newTestService(set)
	n, _ := svc.Sync(context.Background(), observer, testNow, nil)
	if n != 1 || len(queue.commands) != 1 {
		t.Fatalf("ожидали один пин, получили %d", n)
	}
}

func TestSyncIgnoresEnqueueFailures(t *testing.T) {
	svc, queue, _, _ := newTestService(sampleSet())
	queue.failPin = "sun-rise0"
	n, err := svc.Sync(context.Background(), observer, testNow, nil)
	if err != nil {
		t.Fatalf("ошибка доставки не должна прерывать цикл: %v", err)
	}
	if n != 3 {
		t.Fatalf("ожидали 3 пина, получили %d", n)
	}
}

func TestSyncFailsWithoutEvents(t *testing.T) {
	svc, _, _, events := newTestService(domain.NewEventSet())
	events.err = domain.ErrNoObserver
	if _, err := svc.Sync(context.Background(), observer, testNow, nil); !errors.Is(err, domain.ErrNoObserver) {
		t.Fatalf("ожидали ErrNoObserver, получили %v", err)
	}
	if _, ok := svc.PushCache().LastSettings(); ok {
		t.Fatalf("неудачный цикл не должен обновлять кэш")
	}
}

func TestSequenceIndexUsesLocalDays(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	now := time.Date(2025, 6, 21, 3, 0, 0, 0, time.UTC) // 20 июня 22:00 по местному
	at := time.Date(2025, 6, 21, 10, 0, 0, 0, time.UTC) // 21 июня 05:00 по местному
	if seq, ok := sequenceIndex(now, at, loc); !ok || seq != 1 {
		t.Fatalf("ожидали индекс 1, получили %d, %v", seq, ok)
	}
	if seq, _ := sequenceIndex(now, at, time.UTC); seq != 0 {
		t.Fatalf("в UTC это тот же день, получили %d", seq)
	}
	if _, ok := sequenceIndex(now, now.Add(72*time.Hour), time.UTC); ok {
		t.Fatalf("три дня вперёд вне видимого окна")
	}
}

func TestTimelineRange(t *testing.T) {
	cases := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"сутки назад", testNow.Add(-24 * time.Hour), true},
		{"трое суток назад", testNow.Add(-72 * time.Hour), false},
		{"через 366 дней", testNow.Add(366 * 24 * time.Hour), true},
		{"через 367 дней", testNow.Add(367 * 24 * time.Hour), false},
		{"пустое время", time.Time{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := inTimelineRange(testNow, tc.at); got != tc.want {
				t.Fatalf("ожидали %v, получили %v", tc.want, got)
			}
		})
	}
}

func TestPushCacheCorruptStoreIsEmpty(t *testing.T) {
	store := &brokenStore{}
	clock := &fakeClock{now: testNow}
	cache := NewPushCache(clock, store, zerolog.Nop())
	cache.Load(context.Background())
	if cache.ShouldSkip(nil) {
		t.Fatalf("пустой кэш не может пропускать цикл")
	}

	settings := domain.Settings{domain.CfgPlanetEvents: []bool{true}}
	cache.Update(context.Background(), settings)
	settings[domain.CfgPlanetEvents].([]bool)[0] = false
	last, _ := cache.LastSettings()
	if !last[domain.CfgPlanetEvents].([]bool)[0] {
		t.Fatalf("кэш должен хранить копию настроек")
	}
	if len(store.saved) != 1 {
		t.Fatalf("ожидали сохранение состояния")
	}

	cache.Reset(context.Background())
	if _, ok := cache.LastSettings(); ok {
		t.Fatalf("после сброса настроек быть не должно")
	}
}

func TestDisabledPatterns(t *testing.T) {
	got := DisabledPatterns(domain.Settings{}, domain.Settings{domain.CfgSunCivilDawnDusk: false, domain.CfgMoonRiseSet: true})
	if len(got) != 2 || got[0] != "civil-dawn" || got[1] != "civil-dusk" {
		t.Fatalf("неожиданные шаблоны %v", got)
	}
	if got := DisabledPatterns(domain.Settings{domain.CfgSunEclipses: false}, domain.Settings{domain.CfgSunEclipses: false}); len(got) != 0 {
		t.Fatalf("уже выключенная категория не удаляется повторно: %v", got)
	}
}

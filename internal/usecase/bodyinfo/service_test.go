package bodyinfo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"hubble-sync/internal/domain"
)

type stubEphemeris struct {
	domain.Ephemeris

	failHorizontal bool
	noRise         bool
	equatorial     []domain.Equatorial
	horizontal     []string
	riseSet        []riseSetCall
}

type riseSetCall struct {
	direction int
	start     time.Time
	limitDays float64
}

func (s *stubEphemeris) Horizontal(ctx context.Context, body string, obs domain.Observer, at time.Time) (domain.Horizontal, error) {
	s.horizontal = append(s.horizontal, body)
	if s.failHorizontal {
		return domain.Horizontal{}, errors.New("движок недоступен")
	}
	return domain.Horizontal{Azimuth: 120, Altitude: 30}, nil
}

func (s *stubEphemeris) HorizontalFromEquatorial(ctx context.Context, eq domain.Equatorial, obs domain.Observer, at time.Time) (domain.Horizontal, error) {
	s.equatorial = append(s.equatorial, eq)
	return domain.Horizontal{Azimuth: 200, Altitude: 10}, nil
}

func (s *stubEphemeris) SearchRiseSet(ctx context.Context, body string, obs domain.Observer, direction int, start time.Time, limitDays float64) (time.Time, error) {
	s.riseSet = append(s.riseSet, riseSetCall{direction: direction, start: start, limitDays: limitDays})
	if s.noRise && direction > 0 {
		return time.Time{}, domain.ErrEventNotFound
	}
	return start.Add(time.Hour), nil
}

func (s *stubEphemeris) Illumination(ctx context.Context, body string, at time.Time) (domain.Illumination, error) {
	return domain.Illumination{Magnitude: -4.4}, nil
}

func (s *stubEphemeris) MoonPhase(ctx context.Context, at time.Time) (float64, error) {
	return 179, nil
}

var (
	observer = &domain.Observer{Latitude: 52.37, Longitude: 4.9}
	at       = time.Date(2025, 6, 21, 12, 0, 0, 0, time.UTC)
)

func TestStateForMoon(t *testing.T) {
	svc := NewService(&stubEphemeris{}, zerolog.Nop())
	state, err := svc.State(context.Background(), domain.MoonBodyID, observer, at)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if state.Azimuth != 120 || state.Altitude != 30 || state.Magnitude != -4.4 || state.Phase != 4 {
		t.Fatalf("неожиданное состояние %+v", state)
	}
	if state.Rise == nil || state.Set == nil {
		t.Fatalf("ожидали восход и заход")
	}
}

func TestRiseAndSetSearchForwardFromNow(t *testing.T) {
	eph := &stubEphemeris{}
	svc := NewService(eph, zerolog.Nop())
	state, err := svc.State(context.Background(), domain.MoonBodyID, observer, at)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(eph.riseSet) != 2 {
		t.Fatalf("ожидали два поиска, получили %d", len(eph.riseSet))
	}
	for _, call := range eph.riseSet {
		if !call.start.Equal(at) || call.limitDays != riseSetLimitDays {
			t.Fatalf("поиск должен идти вперёд от текущего момента на %v суток: %+v", riseSetLimitDays, call)
		}
	}
	if eph.riseSet[0].direction != +1 || eph.riseSet[1].direction != -1 {
		t.Fatalf("ожидали восход, затем заход: %+v", eph.riseSet)
	}
	if !state.Rise.After(at) || !state.Set.After(at) {
		t.Fatalf("восход и заход должны быть в будущем: %v %v", state.Rise, state.Set)
	}
}

func TestStateDegradesFieldByField(t *testing.T) {
	svc := NewService(&stubEphemeris{failHorizontal: true, noRise: true}, zerolog.Nop())
	state, err := svc.State(context.Background(), 5, observer, at)
	if err != nil {
		t.Fatalf("сбой одного поля не должен прерывать расчёт: %v", err)
	}
	if state.Azimuth != 0 || state.Altitude != 0 {
		t.Fatalf("ожидали положение 0/0, получили %+v", state)
	}
	if state.Rise != nil || state.Set == nil {
		t.Fatalf("восхода нет, заход есть: %+v", state)
	}
	if state.Magnitude != -4.4 {
		t.Fatalf("яркость должна посчитаться")
	}
}

func TestStateForConstellation(t *testing.T) {
	eph := &stubEphemeris{}
	svc := NewService(eph, zerolog.Nop())
	state, err := svc.State(context.Background(), 22, observer, at)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(eph.equatorial) != 1 || eph.equatorial[0].RA != 83.7 || len(eph.horizontal) != 0 {
		t.Fatalf("созвездие считается по экваториальным координатам")
	}
	if state.Azimuth != 200 || state.Rise != nil || state.Set != nil {
		t.Fatalf("неожиданное состояние %+v", state)
	}
}

func TestStateErrors(t *testing.T) {
	svc := NewService(&stubEphemeris{}, zerolog.Nop())
	if _, err := svc.State(context.Background(), 29, observer, at); !errors.Is(err, domain.ErrUnknownBody) {
		t.Fatalf("ожидали ErrUnknownBody, получили %v", err)
	}
	if _, err := svc.State(context.Background(), 1, nil, at); !errors.Is(err, domain.ErrNoObserver) {
		t.Fatalf("ожидали ErrNoObserver, получили %v", err)
	}
}

package bodyinfo

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"hubble-sync/internal/domain"
	"hubble-sync/internal/infra/metrics"
)

// riseSetLimitDays — горизонт поиска восхода и захода для экрана деталей.
const riseSetLimitDays = 99

// Service считает текущее состояние тела для экрана деталей на часах.
type Service struct {
	eph domain.Ephemeris
	log zerolog.Logger
}

// NewService создаёт сервис.
func NewService(eph domain.Ephemeris, logger zerolog.Logger) *Service {
	return &Service{eph: eph, log: logger}
}

// State возвращает положение, восход и заход, яркость и фазу тела.
// Неизвестное тело и отсутствие наблюдателя — ошибки. Сбой отдельного
// расчёта оставляет значение по умолчанию.
func (s *Service) State(ctx context.Context, bodyID int, obs *domain.Observer, at time.Time) (domain.BodyState, error) {
	name, err := domain.BodyName(bodyID)
	if err != nil {
		return domain.BodyState{}, err
	}
	if obs == nil {
		return domain.BodyState{}, domain.ErrNoObserver
	}
	if err := obs.Validate(); err != nil {
		return domain.BodyState{}, err
	}

	state := domain.BodyState{BodyID: bodyID}
	logger := s.log.With().Str("body", name).Logger()

	if h, err := s.horizontal(ctx, bodyID, name, *obs, at); err != nil {
		s.warn(logger, "horizontal", err)
	} else {
		state.Azimuth, state.Altitude = h.Azimuth, h.Altitude
	}

	if domain.CanRiseSet(bodyID) {
		state.Rise = s.searchRiseSet(ctx, logger, name, *obs, 1, at)
		state.Set = s.searchRiseSet(ctx, logger, name, *obs, -1, at)
	}

	if _, isConstellation := domain.ConstellationCoords(bodyID); !isConstellation {
		if illum, err := s.eph.Illumination(ctx, name, at); err != nil {
			s.warn(logger, "illumination", err)
		} else {
			state.Magnitude = illum.Magnitude
		}
	}

	if bodyID == domain.MoonBodyID {
		if angle, err := s.eph.MoonPhase(ctx, at); err != nil {
			s.warn(logger, "phase", err)
		} else {
			state.Phase = domain.MoonPhaseIndex(angle)
		}
	}
	return state, nil
}

func (s *Service) horizontal(ctx context.Context, bodyID int, name string, obs domain.Observer, at time.Time) (domain.Horizontal, error) {
	if eq, ok := domain.ConstellationCoords(bodyID); ok {
		return s.eph.HorizontalFromEquatorial(ctx, eq, obs, at)
	}
	return s.eph.Horizontal(ctx, name, obs, at)
}

func (s *Service) searchRiseSet(ctx context.Context, logger zerolog.Logger, name string, obs domain.Observer, direction int, at time.Time) *time.Time {
	found, err := s.eph.SearchRiseSet(ctx, name, obs, direction, at, riseSetLimitDays)
	if err != nil {
		s.warn(logger, "riseSet", err)
		return nil
	}
	if found.IsZero() {
		return nil
	}
	return &found
}

func (s *Service) warn(logger zerolog.Logger, field string, err error) {
	metrics.EphemerisCategoryErrors.WithLabelValues("body_" + field).Inc()
	logger.Warn().Err(err).Str("field", field).Msg("bodyinfo: значение по умолчанию")
}

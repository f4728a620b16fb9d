package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"hubble-sync/internal/domain"
	"hubble-sync/internal/infra/metrics"
)

// Service собирает астрономические события по включённым категориям.
type Service struct {
	eph   domain.Ephemeris
	cache *Cache
	log   zerolog.Logger
}

var _ domain.EventProvider = (*Service)(nil)

// NewService создаёт агрегатор событий.
func NewService(eph domain.Ephemeris, cache *Cache, logger zerolog.Logger) *Service {
	return &Service{eph: eph, cache: cache, log: logger}
}

// Events возвращает события для наблюдателя, момента и настроек.
// Ошибка одной категории не прерывает сбор остальных.
func (s *Service) Events(ctx context.Context, obs domain.Observer, ref time.Time, settings domain.Settings) (domain.EventSet, error) {
	if err := obs.Validate(); err != nil {
		return domain.EventSet{}, err
	}
	key := CacheKey(obs, ref, settings)
	if s.cache != nil {
		if set, ok := s.cache.Get(key, obs); ok {
			metrics.EventCacheLookups.WithLabelValues("hit").Inc()
			return set, nil
		}
		metrics.EventCacheLookups.WithLabelValues("miss").Inc()
	}

	set := domain.NewEventSet()
	s.collectRiseSet(ctx, &set, obs, ref, settings)
	s.collectTwilight(ctx, &set, obs, ref, settings)
	if settings.Enabled(domain.CfgSunSolarNoonMidnight) {
		s.guard("solarNoonMidnight", func() error { return s.collectNoonMidnight(ctx, &set, obs, ref) })
	}
	equinoxes := settings.Enabled(domain.CfgSunEquinoxes)
	solstices := settings.Enabled(domain.CfgSunSolstices)
	if equinoxes || solstices {
		s.guard("seasonal", func() error {
			ev, ok, err := s.NextSeason(ctx, ref, equinoxes, solstices)
			if ok {
				set.Seasonal = append(set.Seasonal, ev)
			}
			return err
		})
	}
	if settings.Enabled(domain.CfgSunSolarTransits) {
		s.guard("transit", func() error {
			ev, ok, err := s.NextTransit(ctx, ref)
			if ok {
				set.Transit = append(set.Transit, ev)
			}
			return err
		})
	}
	if settings.Enabled(domain.CfgSunEclipses) {
		s.guard("eclipse", func() error {
			ev, ok, err := s.NextEclipse(ctx, ref)
			if ok {
				set.Eclipse = append(set.Eclipse, ev)
			}
			return err
		})
	}
	if settings.Enabled(domain.CfgMoonApogeePerigee) {
		s.guard("lunarApsis", func() error {
			ev, ok, err := s.NextLunarApsis(ctx, ref)
			if ok {
				set.LunarApsis = append(set.LunarApsis, ev)
			}
			return err
		})
	}

	set.Sort()
	if s.cache != nil {
		s.cache.Put(key, obs, set)
	}
	return set, nil
}

// guard логирует ошибку категории и не даёт ей прервать сбор.
func (s *Service) guard(category string, fn func() error) {
	if err := fn(); err != nil {
		metrics.EphemerisCategoryErrors.WithLabelValues(category).Inc()
		s.log.Warn().Err(err).Str("category", category).Msg("events: категория пропущена")
	}
}

// riseSetBodies возвращает тела, для которых включены восход и заход.
func riseSetBodies(settings domain.Settings) []string {
	var bodies []string
	if settings.Enabled(domain.CfgSunRiseSet) {
		bodies = append(bodies, "Sun")
	}
	if settings.Enabled(domain.CfgMoonRiseSet) {
		bodies = append(bodies, "Moon")
	}
	for i, on := range settings.Planets() {
		if on {
			bodies = append(bodies, domain.PlanetNames[i])
		}
	}
	return bodies
}

func (s *Service) collectRiseSet(ctx context.Context, set *domain.EventSet, obs domain.Observer, ref time.Time, settings domain.Settings) {
	for _, body := range riseSetBodies(settings) {
		s.guard("riseSet:"+body, func() error {
			rise, err := s.RiseSetSequence(ctx, body, obs, ref, +1)
			if err != nil {
				return fmt.Errorf("восходы %s: %w", body, err)
			}
			sets, err := s.RiseSetSequence(ctx, body, obs, ref, -1)
			if err != nil {
				return fmt.Errorf("заходы %s: %w", body, err)
			}
			for _, t := range rise {
				if t.IsZero() {
					continue
				}
				ev := domain.RiseSetEvent{Body: body, Type: domain.DirectionRise, Time: t}
				if body == "Moon" {
					ev.MoonPhase = s.moonPhaseAt(ctx, t)
				}
				set.RiseSet = append(set.RiseSet, ev)
			}
			for _, t := range sets {
				if t.IsZero() {
					continue
				}
				set.RiseSet = append(set.RiseSet, domain.RiseSetEvent{Body: body, Type: domain.DirectionSet, Time: t})
			}
			return nil
		})
	}
}

// RiseSetSequence строит пять восходов (direction=+1) или заходов (-1) вокруг ref.
func (s *Service) RiseSetSequence(ctx context.Context, body string, obs domain.Observer, ref time.Time, direction int) (Sequence, error) {
	return buildSequence(ref, func(start time.Time, backward bool) (time.Time, error) {
		limit := float64(searchLimitDays)
		if backward {
			limit = -limit
		}
		return s.eph.SearchRiseSet(ctx, body, obs, direction, start, limit)
	})
}

func (s *Service) moonPhaseAt(ctx context.Context, at time.Time) *domain.MoonPhase {
	angle, err := s.eph.MoonPhase(ctx, at)
	if err != nil {
		s.log.Debug().Err(err).Time("at", at).Msg("events: фаза Луны недоступна")
		return nil
	}
	idx := domain.MoonPhaseIndex(angle)
	return &domain.MoonPhase{Index: idx, Name: domain.MoonPhaseName(idx)}
}

var twilightSettings = []struct {
	key     string
	subtype domain.TwilightSubtype
}{
	{domain.CfgSunCivilDawnDusk, domain.TwilightCivil},
	{domain.CfgSunNauticalDawnDusk, domain.TwilightNautical},
	{domain.CfgSunAstronomicalDawnDusk, domain.TwilightAstronomical},
}

func (s *Service) collectTwilight(ctx context.Context, set *domain.EventSet, obs domain.Observer, ref time.Time, settings domain.Settings) {
	for _, tw := range twilightSettings {
		if !settings.Enabled(tw.key) {
			continue
		}
		subtype := tw.subtype
		s.guard("twilight:"+string(subtype), func() error {
			dawn, err := s.TwilightSequence(ctx, obs, ref, subtype, +1)
			if err != nil {
				return err
			}
			dusk, err := s.TwilightSequence(ctx, obs, ref, subtype, -1)
			if err != nil {
				return err
			}
			for _, t := range dawn {
				if !t.IsZero() {
					set.Twilight = append(set.Twilight, domain.TwilightEvent{Subtype: subtype, Type: domain.TwilightDawn, Time: t})
				}
			}
			for _, t := range dusk {
				if !t.IsZero() {
					set.Twilight = append(set.Twilight, domain.TwilightEvent{Subtype: subtype, Type: domain.TwilightDusk, Time: t})
				}
			}
			return nil
		})
	}
}

// TwilightSequence строит пять рассветов (direction=+1) или вечерних сумерек (-1).
func (s *Service) TwilightSequence(ctx context.Context, obs domain.Observer, ref time.Time, subtype domain.TwilightSubtype, direction int) (Sequence, error) {
	altitude, ok := subtype.Altitude()
	if !ok {
		return Sequence{}, fmt.Errorf("неизвестный тип сумерек %q", subtype)
	}
	return buildSequence(ref, func(start time.Time, backward bool) (time.Time, error) {
		limit := float64(searchLimitDays)
		if backward {
			limit = -limit
		}
		return s.eph.SearchAltitude(ctx, "Sun", obs, direction, start, limit, altitude)
	})
}

func (s *Service) collectNoonMidnight(ctx context.Context, set *domain.EventSet, obs domain.Observer, ref time.Time) error {
	noon, err := s.HourAngleSequence(ctx, obs, ref, 0)
	if err != nil {
		return err
	}
	midnight, err := s.HourAngleSequence(ctx, obs, ref, 12)
	if err != nil {
		return err
	}
	for _, t := range noon {
		if !t.IsZero() {
			set.SolarNoonMidnight = append(set.SolarNoonMidnight, domain.SolarNoonMidnightEvent{Type: domain.SolarNoon, Time: t})
		}
	}
	for _, t := range midnight {
		if !t.IsZero() {
			set.SolarNoonMidnight = append(set.SolarNoonMidnight, domain.SolarNoonMidnightEvent{Type: domain.SolarMidnight, Time: t})
		}
	}
	return nil
}

// HourAngleSequence строит пять прохождений Солнцем часового угла (0 — полдень, 12 — полночь).
func (s *Service) HourAngleSequence(ctx context.Context, obs domain.Observer, ref time.Time, hourAngle float64) (Sequence, error) {
	return buildSequence(ref, func(start time.Time, backward bool) (time.Time, error) {
		direction := +1
		if backward {
			direction = -1
		}
		return s.eph.SearchHourAngle(ctx, "Sun", obs, hourAngle, start, direction)
	})
}

// NextSeason возвращает первое включённое сезонное событие строго после ref,
// просматривая текущий и следующий год.
func (s *Service) NextSeason(ctx context.Context, ref time.Time, equinoxes, solstices bool) (domain.SeasonalEvent, bool, error) {
	year := ref.Year()
	for _, y := range []int{year, year + 1} {
		seasons, err := s.eph.Seasons(ctx, y)
		if err != nil {
			return domain.SeasonalEvent{}, false, fmt.Errorf("сезоны %d: %w", y, err)
		}
		candidates := []domain.SeasonalEvent{
			{Type: domain.MarchEquinox, Date: seasons.MarchEquinox, Year: y},
			{Type: domain.JuneSolstice, Date: seasons.JuneSolstice, Year: y},
			{Type: domain.SeptemberEquinox, Date: seasons.SeptemberEquinox, Year: y},
			{Type: domain.DecemberSolstice, Date: seasons.DecemberSolstice, Year: y},
		}
		for _, c := range candidates {
			if c.Type.IsEquinox() && !equinoxes || !c.Type.IsEquinox() && !solstices {
				continue
			}
			if c.Date.After(ref) {
				return c, true, nil
			}
		}
	}
	return domain.SeasonalEvent{}, false, nil
}

// NextTransit возвращает ближайшее прохождение Меркурия или Венеры по началу.
func (s *Service) NextTransit(ctx context.Context, ref time.Time) (domain.TransitEvent, bool, error) {
	var (
		best  domain.TransitEvent
		found bool
	)
	for _, body := range []string{"Mercury", "Venus"} {
		info, err := s.eph.SearchTransit(ctx, body, ref)
		if errors.Is(err, domain.ErrEventNotFound) {
			continue
		}
		if err != nil {
			return domain.TransitEvent{}, false, fmt.Errorf("прохождение %s: %w", body, err)
		}
		if info.Start.IsZero() {
			continue
		}
		if !found || info.Start.Before(best.Start) {
			best = domain.TransitEvent{Body: body, Start: info.Start, Peak: info.Peak, Finish: info.Finish}
			found = true
		}
	}
	return best, found, nil
}

// NextEclipse возвращает ближайшее лунное или глобальное солнечное затмение по максимуму.
func (s *Service) NextEclipse(ctx context.Context, ref time.Time) (domain.EclipseEvent, bool, error) {
	lunar, lunarErr := s.eph.SearchLunarEclipse(ctx, ref)
	if lunarErr != nil && !errors.Is(lunarErr, domain.ErrEventNotFound) {
		return domain.EclipseEvent{}, false, fmt.Errorf("лунное затмение: %w", lunarErr)
	}
	solar, solarErr := s.eph.SearchGlobalSolarEclipse(ctx, ref)
	if solarErr != nil && !errors.Is(solarErr, domain.ErrEventNotFound) {
		return domain.EclipseEvent{}, false, fmt.Errorf("солнечное затмение: %w", solarErr)
	}
	haveLunar := lunarErr == nil && !lunar.Peak.IsZero()
	haveSolar := solarErr == nil && !solar.Peak.IsZero()

	switch {
	case haveLunar && (!haveSolar || lunar.Peak.Before(solar.Peak)):
		return domain.EclipseEvent{
			Type:        domain.EclipseLunar,
			EclipseKind: lunar.Kind,
			Peak:        lunar.Peak,
			Lunar: &domain.LunarEclipseDetail{
				PartialBegin: lunar.PartialBegin,
				TotalBegin:   lunar.TotalBegin,
				TotalEnd:     lunar.TotalEnd,
				PartialEnd:   lunar.PartialEnd,
			},
		}, true, nil
	case haveSolar:
		detail := &domain.SolarEclipseDetail{Distance: solar.Distance}
		if solar.Kind == "total" || solar.Kind == "annular" {
			detail.Center = &domain.EclipseCenter{
				Latitude:    solar.Latitude,
				Longitude:   solar.Longitude,
				Obscuration: solar.Obscuration,
			}
		}
		return domain.EclipseEvent{
			Type:        domain.EclipseSolar,
			EclipseKind: solar.Kind,
			Peak:        solar.Peak,
			Solar:       detail,
		}, true, nil
	}
	return domain.EclipseEvent{}, false, nil
}

// NextLunarApsis возвращает ближайший перигей или апогей.
func (s *Service) NextLunarApsis(ctx context.Context, ref time.Time) (domain.LunarApsisEvent, bool, error) {
	info, err := s.eph.SearchLunarApsis(ctx, ref)
	if errors.Is(err, domain.ErrEventNotFound) {
		return domain.LunarApsisEvent{}, false, nil
	}
	if err != nil {
		return domain.LunarApsisEvent{}, false, fmt.Errorf("апсида: %w", err)
	}
	if info.Time.IsZero() {
		return domain.LunarApsisEvent{}, false, nil
	}
	kind := domain.Apogee
	if info.Kind == 0 {
		kind = domain.Perigee
	}
	return domain.LunarApsisEvent{Type: kind, Time: info.Time, DistanceKM: info.DistanceKM}, true, nil
}

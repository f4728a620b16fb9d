package profile

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"hubble-sync/internal/domain"
)

// ErrInvalidTimezone возвращается, если указан некорректный часовой пояс.
var ErrInvalidTimezone = errors.New("invalid timezone")

// LocationSink получает новый часовой пояс после его смены.
type LocationSink interface {
	SetLocation(loc *time.Location)
}

// Service отвечает за профиль устройства: наблюдатель, часовой пояс и настройки.
type Service struct {
	store domain.ProfileStore
	sinks []LocationSink
	log   zerolog.Logger

	mu      sync.Mutex
	current domain.Profile
	loaded  bool
}

// NewService создаёт сервис профиля. sinks уведомляются о смене часового пояса.
func NewService(store domain.ProfileStore, logger zerolog.Logger, sinks ...LocationSink) *Service {
	return &Service{store: store, sinks: sinks, log: logger}
}

// Profile возвращает копию текущего профиля.
func (s *Service) Profile() (domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(); err != nil {
		return domain.Profile{}, err
	}
	return cloneProfile(s.current), nil
}

// Location возвращает часовой пояс профиля, по умолчанию fallback.
func (s *Service) Location(fallback *time.Location) *time.Location {
	p, err := s.Profile()
	if err != nil {
		return fallback
	}
	return locationOr(p.Timezone, fallback)
}

func locationOr(timezone string, fallback *time.Location) *time.Location {
	if timezone == "" {
		return fallback
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return fallback
	}
	return loc
}

// Announce рассылает текущий часовой пояс подписчикам.
func (s *Service) Announce(fallback *time.Location) {
	s.notify(s.Location(fallback))
}

// Reload перечитывает профиль из хранилища. Файл профиля делят api и scheduler,
// поэтому каждый цикл синхронизации начинается с Reload.
// При смене часового пояса подписчики получают новый.
func (s *Service) Reload(fallback *time.Location) (domain.Profile, error) {
	s.mu.Lock()
	prevTZ, wasLoaded := s.current.Timezone, s.loaded
	s.loaded = false
	err := s.ensureLoaded()
	p := cloneProfile(s.current)
	s.mu.Unlock()
	if err != nil {
		return domain.Profile{}, err
	}
	if wasLoaded && p.Timezone != prevTZ {
		s.notify(locationOr(p.Timezone, fallback))
		s.log.Info().Str("timezone", p.Timezone).Msg("часовой пояс изменён другим процессом")
	}
	return p, nil
}

func (s *Service) notify(loc *time.Location) {
	for _, sink := range s.sinks {
		sink.SetLocation(loc)
	}
}

// UpdateSettings нормализует и сохраняет настройки. Возвращает сохранённые настройки.
func (s *Service) UpdateSettings(raw map[string]any) (domain.Settings, error) {
	settings, err := domain.NormalizeSettings(raw)
	if err != nil {
		return nil, fmt.Errorf("нормализация настроек: %w", err)
	}
	if settings == nil {
		settings = domain.Settings{}
	}
	err = s.mutate(func(p *domain.Profile) { p.Settings = settings })
	if err != nil {
		return nil, err
	}
	return settings.Clone(), nil
}

// UpdateObserver проверяет и сохраняет координаты наблюдателя.
func (s *Service) UpdateObserver(obs domain.Observer) error {
	if err := obs.Validate(); err != nil {
		return err
	}
	return s.mutate(func(p *domain.Profile) { p.Observer = &obs })
}

// UpdateTimezone сохраняет часовой пояс и уведомляет подписчиков.
func (s *Service) UpdateTimezone(timezone string) (string, error) {
	loc, err := resolveTimezone(timezone)
	if err != nil {
		return "", err
	}
	if err := s.mutate(func(p *domain.Profile) { p.Timezone = loc.String() }); err != nil {
		return "", err
	}
	s.notify(loc)
	s.log.Info().Str("timezone", loc.String()).Msg("часовой пояс обновлён")
	return loc.String(), nil
}

func (s *Service) mutate(apply func(p *domain.Profile)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = false
	if err := s.ensureLoaded(); err != nil {
		return err
	}
	next := cloneProfile(s.current)
	apply(&next)
	if err := s.store.Save(next); err != nil {
		return fmt.Errorf("сохранение профиля: %w", err)
	}
	s.current = next
	return nil
}

func (s *Service) ensureLoaded() error {
	if s.loaded {
		return nil
	}
	p, err := s.store.Load()
	if err != nil {
		return fmt.Errorf("загрузка профиля: %w", err)
	}
	s.current = p
	s.loaded = true
	return nil
}

func cloneProfile(p domain.Profile) domain.Profile {
	out := domain.Profile{Timezone: p.Timezone, Settings: p.Settings.Clone()}
	if p.Observer != nil {
		obs := *p.Observer
		out.Observer = &obs
	}
	return out
}

// resolveTimezone принимает имя пояса в любом регистре и с пробелами вместо "_".
// Если имя не найдено как есть, регистр восстанавливается по словам:
// "america/new york" превращается в "America/New_York".
func resolveTimezone(raw string) (*time.Location, error) {
	name := strings.ReplaceAll(strings.TrimSpace(raw), " ", "_")
	if name == "" {
		return nil, ErrInvalidTimezone
	}
	if loc, err := time.LoadLocation(name); err == nil {
		return loc, nil
	}
	if loc, err := time.LoadLocation(titleSegments(name)); err == nil {
		return loc, nil
	}
	return nil, ErrInvalidTimezone
}

// titleSegments делает заглавной первую букву каждого слова между "/", "_" и "-".
func titleSegments(name string) string {
	out := []byte(strings.ToLower(name))
	upper := true
	for i, c := range out {
		switch {
		case c == '/' || c == '_' || c == '-':
			upper = true
		case upper:
			if c >= 'a' && c <= 'z' {
				out[i] = c - 'a' + 'A'
			}
			upper = false
		}
	}
	return string(out)
}

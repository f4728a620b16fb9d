package domain

import (
	"context"
	"time"
)

// Ephemeris — внешний астрономический движок. Поиски, не нашедшие событие,
// возвращают ErrEventNotFound.
type Ephemeris interface {
	Horizontal(ctx context.Context, body string, obs Observer, at time.Time) (Horizontal, error)
	HorizontalFromEquatorial(ctx context.Context, eq Equatorial, obs Observer, at time.Time) (Horizontal, error)
	// SearchRiseSet ищет восход (direction=+1) или заход (-1). Отрицательный limitDays ищет назад.
	SearchRiseSet(ctx context.Context, body string, obs Observer, direction int, start time.Time, limitDays float64) (time.Time, error)
	SearchAltitude(ctx context.Context, body string, obs Observer, direction int, start time.Time, limitDays, altitude float64) (time.Time, error)
	// SearchHourAngle ищет момент часового угла; direction=-1 ищет назад.
	SearchHourAngle(ctx context.Context, body string, obs Observer, hourAngle float64, start time.Time, direction int) (time.Time, error)
	Illumination(ctx context.Context, body string, at time.Time) (Illumination, error)
	// MoonPhase возвращает фазовый угол 0..360, где 0 — новолуние, 180 — полнолуние.
	MoonPhase(ctx context.Context, at time.Time) (float64, error)
	Seasons(ctx context.Context, year int) (Seasons, error)
	SearchTransit(ctx context.Context, body string, start time.Time) (TransitInfo, error)
	SearchLunarEclipse(ctx context.Context, start time.Time) (LunarEclipseInfo, error)
	SearchGlobalSolarEclipse(ctx context.Context, start time.Time) (GlobalSolarEclipseInfo, error)
	SearchLunarApsis(ctx context.Context, start time.Time) (ApsisInfo, error)
}

// Clock отдаёт текущее время.
type Clock interface {
	Now() time.Time
}

// SystemClock использует time.Now.
type SystemClock struct{}

// Now возвращает текущее время в UTC.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// EventProvider возвращает нормализованный набор событий.
type EventProvider interface {
	Events(ctx context.Context, obs Observer, ref time.Time, settings Settings) (EventSet, error)
}

// TimelineClient отправляет пины во внешний таймлайн.
type TimelineClient interface {
	PutPin(ctx context.Context, pin Pin) error
	DeletePin(ctx context.Context, pinID string) error
}

// PushCacheStore сохраняет состояние кэша отправки между перезапусками.
type PushCacheStore interface {
	LoadPushState(ctx context.Context) (PushState, error)
	SavePushState(ctx context.Context, state PushState) error
}

// PinCommandLedger фиксирует результат выполнения команд таймлайна.
type PinCommandLedger interface {
	// EnsurePinCommand регистрирует команду и сообщает, была ли она уже выполнена.
	EnsurePinCommand(ctx context.Context, cmd PinCommand) (done bool, err error)
	MarkPinCommand(ctx context.Context, commandID string, status string, errText string) error
}

// ProfileStore хранит профиль устройства.
type ProfileStore interface {
	Load() (Profile, error)
	Save(profile Profile) error
}

// Cache используется для простых TTL-хранилищ.
type Cache interface {
	Set(key string, value []byte, ttl time.Duration) error
	Get(key string) ([]byte, error)
	Delete(key string) error
}

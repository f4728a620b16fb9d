package timeline

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"hubble-sync/internal/domain"
)

// PushTTL — сколько последняя отправка считается свежей при неизменных настройках.
const PushTTL = 30 * time.Minute

// PushCache помнит время последней отправки и настройки, с которыми она была.
// Хранилище необязательно: без него состояние живёт только в памяти процесса.
type PushCache struct {
	mu    sync.Mutex
	clock domain.Clock
	store domain.PushCacheStore
	state domain.PushState
	has   bool
	log   zerolog.Logger
}

// NewPushCache создаёт кэш отправки.
func NewPushCache(clock domain.Clock, store domain.PushCacheStore, logger zerolog.Logger) *PushCache {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &PushCache{clock: clock, store: store, log: logger}
}

// Load поднимает состояние из хранилища. Битый или отсутствующий снимок означает пустой кэш.
func (c *PushCache) Load(ctx context.Context) {
	if c.store == nil {
		return
	}
	state, err := c.store.LoadPushState(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.log.Warn().Err(err).Msg("timeline: кэш отправки не загружен, начинаем с пустого")
		c.state, c.has = domain.PushState{}, false
		return
	}
	if state.PushedAt.IsZero() {
		c.state, c.has = domain.PushState{}, false
		return
	}
	c.state, c.has = state, true
}

// ShouldSkip сообщает, можно ли пропустить цикл: настройки те же и прошло меньше PushTTL.
func (c *PushCache) ShouldSkip(settings domain.Settings) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.has {
		return false
	}
	unchanged := domain.SettingsEqual(c.state.Settings, settings)
	age := c.clock.Now().Sub(c.state.PushedAt)
	c.log.Debug().Bool("unchanged", unchanged).Dur("age", age).Msg("timeline: проверка кэша отправки")
	return unchanged && age < PushTTL
}

// LastSettings возвращает копию настроек последней отправки.
func (c *PushCache) LastSettings() (domain.Settings, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.has {
		return nil, false
	}
	return c.state.Settings.Clone(), true
}

// Update запоминает успешную отправку с глубокой копией настроек.
func (c *PushCache) Update(ctx context.Context, settings domain.Settings) {
	c.mu.Lock()
	c.state = domain.PushState{PushedAt: c.clock.Now(), Settings: settings.Clone()}
	c.has = true
	state := c.state
	c.mu.Unlock()
	c.persist(ctx, state)
}

// Reset очищает кэш, следующий цикл пройдёт полностью.
func (c *PushCache) Reset(ctx context.Context) {
	c.mu.Lock()
	c.state, c.has = domain.PushState{}, false
	c.mu.Unlock()
	c.persist(ctx, domain.PushState{})
	c.log.Info().Msg("timeline: кэш отправки сброшен")
}

func (c *PushCache) persist(ctx context.Context, state domain.PushState) {
	if c.store == nil {
		return
	}
	if err := c.store.SavePushState(ctx, state); err != nil {
		c.log.Warn().Err(err).Msg("timeline: не удалось сохранить кэш отправки")
	}
}

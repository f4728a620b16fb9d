package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"hubble-sync/internal/domain"
)

// PushStateKey — ключ снимка кэша отправки.
const PushStateKey = "timeline:push_state"

// PushStore хранит состояние кэша отправки в domain.Cache.
type PushStore struct {
	cache domain.Cache
}

var _ domain.PushCacheStore = (*PushStore)(nil)

// NewPushStore создаёт хранилище поверх кэша.
func NewPushStore(c domain.Cache) *PushStore {
	return &PushStore{cache: c}
}

// LoadPushState читает снимок. Отсутствие снимка — пустое состояние без ошибки.
func (s *PushStore) LoadPushState(ctx context.Context) (domain.PushState, error) {
	data, err := s.cache.Get(PushStateKey)
	if errors.Is(err, domain.ErrCacheMiss) {
		return domain.PushState{}, nil
	}
	if err != nil {
		return domain.PushState{}, fmt.Errorf("чтение снимка: %w", err)
	}
	var state domain.PushState
	if err := json.Unmarshal(data, &state); err != nil {
		return domain.PushState{}, fmt.Errorf("разбор снимка: %w", err)
	}
	settings, err := domain.NormalizeSettings(state.Settings)
	if err != nil {
		return domain.PushState{}, fmt.Errorf("настройки снимка: %w", err)
	}
	state.Settings = settings
	return state, nil
}

// SavePushState записывает снимок без срока жизни. Пустое состояние удаляет ключ.
func (s *PushStore) SavePushState(ctx context.Context, state domain.PushState) error {
	if state.PushedAt.IsZero() {
		return s.cache.Delete(PushStateKey)
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("кодирование снимка: %w", err)
	}
	return s.cache.Set(PushStateKey, data, 0)
}

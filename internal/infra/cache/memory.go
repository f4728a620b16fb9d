package cache

import (
	"sync"
	"time"

	"hubble-sync/internal/domain"
)

type memoryItem struct {
	value   []byte
	expires time.Time
}

// Memory — domain.Cache в памяти процесса.
type Memory struct {
	mu    sync.Mutex
	now   func() time.Time
	items map[string]memoryItem
}

var _ domain.Cache = (*Memory)(nil)

// NewMemory создаёт кэш в памяти.
func NewMemory() *Memory {
	return &Memory{now: time.Now, items: make(map[string]memoryItem)}
}

// Set задаёт значение. Нулевой ttl означает бессрочное хранение.
func (m *Memory) Set(key string, value []byte, ttl time.Duration) error {
	item := memoryItem{value: append([]byte(nil), value...)}
	if ttl > 0 {
		item.expires = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.items[key] = item
	m.mu.Unlock()
	return nil
}

// Get возвращает значение или domain.ErrCacheMiss.
func (m *Memory) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[key]
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	if !item.expires.IsZero() && !m.now().Before(item.expires) {
		delete(m.items, key)
		return nil, domain.ErrCacheMiss
	}
	return append([]byte(nil), item.value...), nil
}

// Delete удаляет ключ.
func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
	return nil
}

package events

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"hubble-sync/internal/domain"
)

const (
	// CacheTTL — срок жизни записи кэша событий.
	CacheTTL = 30 * time.Minute
	// MoveThreshold — смещение наблюдателя в градусах, после которого запись недействительна.
	MoveThreshold = 0.01

	snapshotPrefix = "events:"
)

type cacheEntry struct {
	CapturedAt time.Time       `json:"captured_at"`
	Observer   domain.Observer `json:"observer"`
	Events     domain.EventSet `json:"events"`
}

// Cache хранит наборы событий по ключу (место, день, настройки).
// Снимки дополнительно пишутся в domain.Cache, если он задан.
type Cache struct {
	mu       sync.Mutex
	clock    domain.Clock
	entries  map[string]cacheEntry
	snapshot domain.Cache
	log      zerolog.Logger
}

// NewCache создаёт кэш. snapshot может быть nil.
func NewCache(clock domain.Clock, snapshot domain.Cache, logger zerolog.Logger) *Cache {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &Cache{clock: clock, entries: make(map[string]cacheEntry), snapshot: snapshot, log: logger}
}

// CacheKey строит ключ: координаты с точностью до сотых, дата в UTC и отпечаток настроек.
func CacheKey(obs domain.Observer, ref time.Time, settings domain.Settings) string {
	lat := formatCoord(roundHalfUp(obs.Latitude*100) / 100)
	lon := formatCoord(roundHalfUp(obs.Longitude*100) / 100)
	return lat + "_" + lon + "_" + ref.UTC().Format("2006-01-02") + "_" + settings.Fingerprint()
}

func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}

func formatCoord(v float64) string {
	if v == 0 {
		// избавляемся от "-0"
		v = 0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Get возвращает набор событий, если запись свежая и наблюдатель не сместился.
func (c *Cache) Get(key string, obs domain.Observer) (domain.EventSet, bool) {
	c.mu.Lock()
	entry, ok := c.entries[key]
	c.mu.Unlock()

	if !ok && c.snapshot != nil {
		entry, ok = c.loadSnapshot(key)
	}
	if !ok || !c.valid(entry, obs) {
		return domain.EventSet{}, false
	}
	return entry.Events, true
}

// Put сохраняет набор событий и выбрасывает устаревшие записи.
func (c *Cache) Put(key string, obs domain.Observer, set domain.EventSet) {
	entry := cacheEntry{CapturedAt: c.clock.Now(), Observer: obs, Events: set}

	c.mu.Lock()
	for k, e := range c.entries {
		if c.clock.Now().Sub(e.CapturedAt) >= CacheTTL {
			delete(c.entries, k)
		}
	}
	c.entries[key] = entry
	c.mu.Unlock()

	if c.snapshot == nil {
		return
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		c.log.Warn().Err(err).Msg("events: не удалось сериализовать снимок")
		return
	}
	if err := c.snapshot.Set(snapshotPrefix+key, payload, CacheTTL); err != nil {
		c.log.Warn().Err(err).Msg("events: не удалось сохранить снимок")
	}
}

// Reset очищает кэш в памяти.
func (c *Cache) Reset() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}

func (c *Cache) valid(entry cacheEntry, obs domain.Observer) bool {
	if c.clock.Now().Sub(entry.CapturedAt) >= CacheTTL {
		return false
	}
	return math.Abs(entry.Observer.Latitude-obs.Latitude) <= MoveThreshold &&
		math.Abs(entry.Observer.Longitude-obs.Longitude) <= MoveThreshold
}

func (c *Cache) loadSnapshot(key string) (cacheEntry, bool) {
	payload, err := c.snapshot.Get(snapshotPrefix + key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			c.log.Warn().Err(err).Msg("events: не удалось прочитать снимок")
		}
		return cacheEntry{}, false
	}
	var entry cacheEntry
	if err := json.Unmarshal(payload, &entry); err != nil {
		c.log.Warn().Err(err).Msg("events: снимок повреждён, игнорируем")
		return cacheEntry{}, false
	}
	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
	return entry, true
}

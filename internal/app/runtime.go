package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"hubble-sync/internal/adapters/ephemeris"
	profileadapter "hubble-sync/internal/adapters/profile"
	"hubble-sync/internal/adapters/repo"
	timelineadapter "hubble-sync/internal/adapters/timeline"
	"hubble-sync/internal/domain"
	"hubble-sync/internal/infra/cache"
	"hubble-sync/internal/infra/config"
	"hubble-sync/internal/infra/db"
	applog "hubble-sync/internal/infra/log"
	"hubble-sync/internal/infra/queue"
	"hubble-sync/internal/usecase/bodyinfo"
	"hubble-sync/internal/usecase/delivery"
	"hubble-sync/internal/usecase/events"
	"hubble-sync/internal/usecase/pins"
	"hubble-sync/internal/usecase/profile"
	"hubble-sync/internal/usecase/timeline"
)

// Бэкенды очереди команд и кэша отправки.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendRabbitMQ = "rabbitmq"
	BackendPostgres = "postgres"

	memoryQueueSize = 1024
)

// Runtime содержит инфраструктуру и сервисы, общие для всех бинарников.
type Runtime struct {
	Config config.AppConfig
	Log    zerolog.Logger
	Clock  domain.Clock

	Pool  *pgxpool.Pool
	Redis *redis.Client
	Cache *cache.RedisCache

	Queue     domain.PinCommandQueue
	Ledger    domain.PinCommandLedger
	PushStore domain.PushCacheStore

	Builder  *pins.Builder
	Events   *events.Service
	EventTTL *events.Cache
	Timeline *timeline.Service
	Profile  *profile.Service
	Bodies   *bodyinfo.Service

	closers []func()
}

// Build поднимает подключения по конфигу и собирает сервисы.
func Build(ctx context.Context, cfg config.AppConfig, logger zerolog.Logger) (*Runtime, error) {
	rt := &Runtime{Config: cfg, Log: logger, Clock: domain.SystemClock{}}
	if err := rt.connect(ctx); err != nil {
		rt.Close()
		return nil, err
	}
	if err := rt.selectBackends(); err != nil {
		rt.Close()
		return nil, err
	}
	rt.wireServices(ctx)
	return rt, nil
}

func needs(cfg config.AppConfig, backend string) bool {
	return cfg.Queues.Backend == backend || cfg.PushCache.Backend == backend
}

func (rt *Runtime) connect(ctx context.Context) error {
	cfg := rt.Config
	if cfg.PGDSN != "" || needs(cfg, BackendPostgres) {
		if cfg.PGDSN == "" {
			return fmt.Errorf("не указан PG_DSN для бэкенда %s", BackendPostgres)
		}
		pool, err := db.Connect(cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("подключение к БД: %w", err)
		}
		rt.Pool = pool
		rt.closers = append(rt.closers, pool.Close)
		if err := db.Migrate(ctx, pool); err != nil {
			return err
		}
	}
	if cfg.RedisAddr != "" || needs(cfg, BackendRedis) {
		if cfg.RedisAddr == "" {
			return fmt.Errorf("не указан REDIS_ADDR для бэкенда %s", BackendRedis)
		}
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			_ = client.Close()
			return fmt.Errorf("подключение к Redis: %w", err)
		}
		rt.Redis = client
		rt.Cache = cache.NewRedis(client)
		rt.closers = append(rt.closers, func() { _ = client.Close() })
	}
	return nil
}

func (rt *Runtime) selectBackends() error {
	cfg := rt.Config
	switch cfg.Queues.Backend {
	case BackendMemory, "":
		rt.Queue = queue.NewMemoryPinQueue(memoryQueueSize)
	case BackendRedis:
		rt.Queue = queue.NewRedisPinQueue(rt.Redis, cfg.Queues.Pins)
	case BackendRabbitMQ:
		if cfg.AMQPURL == "" {
			return fmt.Errorf("не указан AMQP_URL для бэкенда %s", BackendRabbitMQ)
		}
		q, err := queue.NewRabbitPinQueue(cfg.AMQPURL, cfg.Queues.Pins)
		if err != nil {
			return fmt.Errorf("очередь RabbitMQ: %w", err)
		}
		rt.Queue = q
		rt.closers = append(rt.closers, func() { _ = q.Close() })
	default:
		return fmt.Errorf("неизвестный бэкенд очереди %q", cfg.Queues.Backend)
	}

	switch cfg.PushCache.Backend {
	case BackendMemory, "":
		rt.PushStore = cache.NewPushStore(cache.NewMemory())
	case BackendRedis:
		rt.PushStore = cache.NewPushStore(rt.Cache)
	case BackendPostgres:
		rt.PushStore = repo.NewPostgres(rt.Pool)
	default:
		return fmt.Errorf("неизвестный бэкенд кэша отправки %q", cfg.PushCache.Backend)
	}

	if rt.Pool != nil {
		rt.Ledger = repo.NewPostgres(rt.Pool)
	}
	return nil
}

func (rt *Runtime) wireServices(ctx context.Context) {
	cfg := rt.Config
	loc := cfg.Location()

	var snapshots domain.Cache
	if rt.Cache != nil {
		snapshots = rt.Cache
	}
	eph := ephemeris.NewClient(cfg.Ephemeris.URL, cfg.Ephemeris.Timeout)
	rt.EventTTL = events.NewCache(rt.Clock, snapshots, applog.Component(rt.Log, "event_cache"))
	rt.Events = events.NewService(eph, rt.EventTTL, applog.Component(rt.Log, "events"))
	rt.Bodies = bodyinfo.NewService(eph, applog.Component(rt.Log, "bodyinfo"))
	rt.Builder = pins.NewBuilder(rt.Clock)

	push := timeline.NewPushCache(rt.Clock, rt.PushStore, applog.Component(rt.Log, "push_cache"))
	push.Load(ctx)
	rt.Timeline = timeline.NewService(rt.Events, rt.Builder, rt.Queue, push, rt.Clock, loc, applog.Component(rt.Log, "timeline"))

	store := profileadapter.NewYAMLStore(cfg.ProfilePath)
	rt.Profile = profile.NewService(store, applog.Component(rt.Log, "profile"), rt.Timeline)
	rt.Profile.Announce(loc)
}

// InProcessDelivery сообщает, что команды нужно исполнять в этом же процессе.
func (rt *Runtime) InProcessDelivery() bool {
	_, ok := rt.Queue.(*queue.MemoryPinQueue)
	return ok
}

// NewWorker собирает исполнителя команд таймлайна.
func (rt *Runtime) NewWorker(results chan<- domain.PinResult) *delivery.Worker {
	client := timelineadapter.NewClient(rt.Config.Timeline.BaseURL, rt.Config.Timeline.UserToken, rt.Config.Timeline.RPS, rt.Config.Timeline.Timeout)
	return delivery.NewWorker(rt.Queue, client, rt.Ledger, results, applog.Component(rt.Log, "delivery"))
}

// SyncOnce перечитывает профиль и выполняет цикл синхронизации.
func (rt *Runtime) SyncOnce(ctx context.Context) (int, error) {
	p, err := rt.Profile.Reload(rt.Config.Location())
	if err != nil {
		return 0, err
	}
	if p.Observer == nil {
		return 0, domain.ErrNoObserver
	}
	return rt.Timeline.Sync(ctx, *p.Observer, rt.Clock.Now(), p.Settings)
}

// Close освобождает подключения в обратном порядке.
func (rt *Runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	rt.closers = nil
}

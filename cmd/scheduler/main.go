package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"hubble-sync/internal/app"
	"hubble-sync/internal/domain"
	"hubble-sync/internal/infra/config"
	applog "hubble-sync/internal/infra/log"
	"hubble-sync/internal/infra/metrics"
)

// syncLockTTL удерживает блокировку цикла, чтобы несколько планировщиков не синхронизировали одновременно.
const syncLockTTL = 5 * time.Minute

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.StartServer(ctx, applog.Component(logger, "metrics"), cfg.MetricsAddr)

	rt, err := app.Build(ctx, cfg, logger)
	if err != nil {
		log.Fatal().Err(err).Msg("scheduler: не удалось собрать сервисы")
	}
	defer rt.Close()

	if rt.InProcessDelivery() {
		go rt.NewWorker(nil).Run(ctx)
	}

	run := func() { runCycle(ctx, rt, logger) }

	c := cron.New(cron.WithLocation(cfg.Location()))
	if _, err := c.AddFunc(cfg.Sync.Cron, run); err != nil {
		log.Fatal().Err(err).Str("spec", cfg.Sync.Cron).Msg("scheduler: неверное расписание")
	}
	c.Start()
	logger.Info().Str("spec", cfg.Sync.Cron).Msg("scheduler: старт")

	run()

	<-ctx.Done()
	logger.Info().Msg("scheduler: остановка")
	<-c.Stop().Done()
}

func runCycle(ctx context.Context, rt *app.Runtime, logger zerolog.Logger) {
	cycle := func() error {
		n, err := rt.SyncOnce(ctx)
		if errors.Is(err, domain.ErrNoObserver) {
			logger.Warn().Msg("scheduler: наблюдатель не задан, цикл пропущен")
			return nil
		}
		if err != nil {
			return err
		}
		logger.Info().Int("pins", n).Msg("scheduler: цикл выполнен")
		return nil
	}

	var err error
	if rt.Cache != nil {
		key := "timeline:sync_lock:" + time.Now().UTC().Truncate(time.Minute).Format(time.RFC3339)
		err = rt.Cache.Once(key, syncLockTTL, cycle)
	} else {
		err = cycle()
	}
	if err != nil {
		logger.Error().Err(err).Msg("scheduler: цикл синхронизации не удался")
	}
}

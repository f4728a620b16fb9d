package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"hubble-sync/internal/app"
	"hubble-sync/internal/domain"
	"hubble-sync/internal/infra/config"
	applog "hubble-sync/internal/infra/log"
	"hubble-sync/internal/infra/metrics"
)

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.StartServer(ctx, applog.Component(logger, "metrics"), cfg.MetricsAddr)

	if cfg.Queues.Backend == app.BackendMemory {
		log.Fatal().Msg("pinworker: очередь в памяти не разделяется между процессами, укажите PIN_QUEUE_BACKEND")
	}
	if cfg.Timeline.UserToken == "" {
		log.Fatal().Msg("pinworker: не указан токен таймлайна (TIMELINE_USER_TOKEN)")
	}

	rt, err := app.Build(ctx, cfg, logger)
	if err != nil {
		log.Fatal().Err(err).Msg("pinworker: не удалось собрать сервисы")
	}
	defer rt.Close()

	results := make(chan domain.PinResult, 64)
	go func() {
		for res := range results {
			if res.Err != nil {
				logger.Warn().Err(res.Err).Str("pin_id", res.PinID).Str("kind", string(res.Kind)).Msg("pinworker: команда не выполнена")
			}
		}
	}()

	logger.Info().Str("backend", cfg.Queues.Backend).Msg("pinworker: запуск обработки очереди")
	rt.NewWorker(results).Run(ctx)
	close(results)
	logger.Info().Msg("pinworker: остановлен")
}

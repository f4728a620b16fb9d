package main

import (
	"context"
	"os/signal"
	"strconv"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"hubble-sync/internal/adapters/api"
	"hubble-sync/internal/adapters/ics"
	"hubble-sync/internal/app"
	"hubble-sync/internal/infra/config"
	httpinfra "hubble-sync/internal/infra/http"
	applog "hubble-sync/internal/infra/log"
	"hubble-sync/internal/infra/metrics"
)

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := app.Build(ctx, cfg, logger)
	if err != nil {
		log.Fatal().Err(err).Msg("api: не удалось собрать сервисы")
	}
	defer rt.Close()

	if rt.InProcessDelivery() {
		worker := rt.NewWorker(nil)
		go worker.Run(ctx)
		logger.Info().Msg("api: команды таймлайна исполняются в процессе")
	}

	handler := api.NewHandler(api.Deps{
		Profile:   rt.Profile,
		Events:    rt.Events,
		Timeline:  rt.Timeline,
		Bodies:    rt.Bodies,
		Exporter:  ics.NewExporter(rt.Builder, rt.Clock),
		EventsTTL: rt.EventTTL,
		Clock:     rt.Clock,
		Location:  cfg.Location(),
		Version:   cfg.Protocol.Version,
	}, applog.Component(logger, "api"))

	srv := httpinfra.NewServer(applog.Component(logger, "http"))
	handler.Routes(srv.Router, cfg.APIToken)

	go func() {
		if err := srv.Start(":" + strconv.Itoa(cfg.Port)); err != nil {
			logger.Error().Err(err).Msg("api: сервер остановлен")
			stop()
		}
	}()
	<-ctx.Done()
	logger.Info().Msg("api: остановка")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

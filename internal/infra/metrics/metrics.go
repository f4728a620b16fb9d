package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	SyncCycles = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_cycles_total",
		Help: "Циклы синхронизации таймлайна по результату",
	}, []string{"result"})
	SyncCycleSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sync_cycle_seconds",
		Help:    "Время одного цикла синхронизации",
		Buckets: prometheus.DefBuckets,
	})
	PinsUpserted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pins_upserted_total",
		Help: "Команды на создание или замену пинов",
	})
	PinsDeleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pins_deleted_total",
		Help: "Команды на удаление пинов",
	})
	EventCacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "event_cache_lookups_total",
		Help: "Обращения к кэшу событий",
	}, []string{"result"})
	EphemerisCategoryErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ephemeris_category_errors_total",
		Help: "Ошибки расчёта категорий событий",
	}, []string{"category"})
	BodyPackages = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "body_packages_total",
		Help: "Собранные пакеты тел по версии протокола",
	}, []string{"version"})
	PinDelivery = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pin_delivery_total",
		Help: "Выполнение команд таймлайна",
	}, []string{"op", "status"})

	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Длительность сетевых запросов",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 15, 30, 60},
	}, []string{"component", "operation", "target", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Количество сетевых запросов",
	}, []string{"component", "operation", "target", "status"})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		SyncCycles,
		SyncCycleSeconds,
		PinsUpserted,
		PinsDeleted,
		EventCacheLookups,
		EphemerisCategoryErrors,
		BodyPackages,
		PinDelivery,
		NetworkRequestDuration,
		NetworkRequestTotal,
	)
}

// StartServer запускает HTTP сервер с эндпоинтом /metrics.
func StartServer(ctx context.Context, logger zerolog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	shutdownCtx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-ctx.Done():
		case <-shutdownCtx.Done():
		}
		shutdownTimeout, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer timeoutCancel()
		if err := srv.Shutdown(shutdownTimeout); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: graceful shutdown failed")
		}
	}()

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics: server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: server stopped")
		}
		cancel()
	}()
}

// ObserveNetworkRequest записывает длительность и статус сетевого запроса.
func ObserveNetworkRequest(component, operation, target string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	if target == "" {
		target = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, target, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, target, status).Inc()
}

// ObserveSyncCycle фиксирует результат и длительность цикла синхронизации.
func ObserveSyncCycle(result string, start time.Time) {
	SyncCycles.WithLabelValues(result).Inc()
	SyncCycleSeconds.Observe(time.Since(start).Seconds())
}

// ObservePinDelivery фиксирует выполнение команды таймлайна.
func ObservePinDelivery(op string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	PinDelivery.WithLabelValues(op, status).Inc()
}

// IncBodyPackage увеличивает счётчик собранных пакетов.
func IncBodyPackage(version int) {
	BodyPackages.WithLabelValues(strconv.Itoa(version)).Inc()
}

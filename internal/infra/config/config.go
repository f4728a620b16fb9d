package config

import (
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию сервисов.
type AppConfig struct {
	AppEnv      string `envconfig:"APP_ENV" default:"dev"`
	TZ          string `envconfig:"TZ" default:"UTC"`
	Port        int    `envconfig:"PORT" default:"8080"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`
	APIToken    string `envconfig:"API_TOKEN"`

	PGDSN     string `envconfig:"PG_DSN"`
	RedisAddr string `envconfig:"REDIS_ADDR"`
	AMQPURL   string `envconfig:"AMQP_URL"`

	ProfilePath string `envconfig:"PROFILE_PATH" default:"profile.yaml"`

	Timeline struct {
		BaseURL   string        `envconfig:"TIMELINE_BASE_URL" default:"https://timeline-api.rebble.io"`
		UserToken string        `envconfig:"TIMELINE_USER_TOKEN"`
		RPS       float64       `envconfig:"TIMELINE_RPS" default:"5"`
		Timeout   time.Duration `envconfig:"TIMELINE_TIMEOUT" default:"10s"`
	} `envconfig:""`

	Ephemeris struct {
		URL     string        `envconfig:"EPHEMERIS_URL" default:"http://localhost:8090"`
		Timeout time.Duration `envconfig:"EPHEMERIS_TIMEOUT" default:"5s"`
	} `envconfig:""`

	Queues struct {
		Backend string `envconfig:"PIN_QUEUE_BACKEND" default:"memory"`
		Pins    string `envconfig:"PIN_QUEUE_KEY" default:"timeline_pin_commands"`
	} `envconfig:""`

	PushCache struct {
		Backend string `envconfig:"PUSH_CACHE_BACKEND" default:"memory"`
	} `envconfig:""`

	Sync struct {
		Cron string `envconfig:"SYNC_CRON" default:"*/30 * * * *"`
	} `envconfig:""`

	Protocol struct {
		Version int `envconfig:"PROTOCOL_VERSION" default:"2"`
	} `envconfig:""`
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}

// Location возвращает часовой пояс из TZ, при ошибке UTC.
func (c AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.TZ)
	if err != nil {
		return time.UTC
	}
	return loc
}

package config

import (
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/providers/env"
)

const envPrefix = "COMMERCE_"

type Config struct {
	Primary     Primary           `koanf:"primary"`
	Server      ServerConfig      `koanf:"server"`
	Database    DatabaseConfig    `koanf:"database"`
	Provider    ProviderConfig    `koanf:"provider"`
	Retry       RetryConfig       `koanf:"retry"`
	Logger      LoggerConfig      `koanf:"logger"`
	Worker      WorkerConfig      `koanf:"worker"`
	Idempotency IdempotencyConfig `koanf:"idempotency"`
	Intent      IntentConfig      `koanf:"intent"`
	Events      EventsConfig      `koanf:"events"`
}

type WorkerConfig struct {
	Interval  time.Duration `koanf:"interval" validate:"required"`
	BatchSize int           `koanf:"batch_size" validate:"required"`
}

type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

type ServerConfig struct {
	Port           string        `koanf:"port" validate:"required"`
	ReadTimeout    time.Duration `koanf:"read_timeout" validate:"required"`
	WriteTimeout   time.Duration `koanf:"write_timeout" validate:"required"`
	IdleTimeout    time.Duration `koanf:"idle_timeout" validate:"required"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

type DatabaseConfig struct {
	Host            string        `koanf:"host" validate:"required"`
	Port            int           `koanf:"port" validate:"required"`
	User            string        `koanf:"user" validate:"required"`
	Password        string        `koanf:"password" validate:"required"`
	Name            string        `koanf:"name" validate:"required"`
	SSLMode         string        `koanf:"ssl_mode" validate:"required"`
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"required"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"required"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime" validate:"required"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time" validate:"required"`
}

// ProviderConfig points at the external payment provider.
type ProviderConfig struct {
	BaseURL     string        `koanf:"base_url" validate:"required"`
	SecretKey   string        `koanf:"secret_key" validate:"required"`
	ConnTimeout time.Duration `koanf:"conn_timeout" validate:"required"`
}

type RetryConfig struct {
	BaseDelay  time.Duration `koanf:"base_delay"`
	MaxRetries int32         `koanf:"max_retries"`
}

type LoggerConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// IdempotencyConfig bounds how long a wrapped operation may run and how long
// concurrent callers wait for the winner. CachePath enables the bolt cache
// tier; with Store set to bolt the same file holds the records themselves.
type IdempotencyConfig struct {
	Store            string        `koanf:"store" validate:"omitempty,oneof=postgres bolt"`
	OperationTimeout time.Duration `koanf:"operation_timeout"`
	WaitTimeout      time.Duration `koanf:"wait_timeout"`
	PollInterval     time.Duration `koanf:"poll_interval"`
	CachePath        string        `koanf:"cache_path"`
	CacheTTL         time.Duration `koanf:"cache_ttl"`
}

const (
	IdempotencyStorePostgres = "postgres"
	IdempotencyStoreBolt     = "bolt"
)

type IntentConfig struct {
	TTL time.Duration `koanf:"ttl" validate:"required"`
}

const (
	EventsModeLocal  = "local"
	EventsModeOutbox = "outbox"
)

type EventsConfig struct {
	Mode string `koanf:"mode" validate:"omitempty,oneof=local outbox"`
}

func LoadConfig() (*Config, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
	k := koanf.New(".")

	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, envPrefix)),
			"__",
			".",
		)
	}), nil)
	if err != nil {
		logger.Error("failed to load environment variables", "error", err)
		return nil, err
	}

	mainConfig := &Config{}

	err = k.Unmarshal("", mainConfig)
	if err != nil {
		logger.Error("could not unmarshal main config", "error", err)
		return nil, err
	}

	mainConfig.applyDefaults()

	validate := validator.New()

	err = validate.Struct(mainConfig)
	if err != nil {
		logger.Error("config validation failed", "error", err)
		return nil, err
	}

	if mainConfig.Idempotency.Store == IdempotencyStoreBolt && mainConfig.Idempotency.CachePath == "" {
		err = errors.New("idempotency.cache_path is required when idempotency.store is bolt")
		logger.Error("config validation failed", "error", err)
		return nil, err
	}

	return mainConfig, nil
}

func (c *Config) applyDefaults() {
	if c.Idempotency.Store == "" {
		c.Idempotency.Store = IdempotencyStorePostgres
	}
	if c.Idempotency.OperationTimeout == 0 {
		c.Idempotency.OperationTimeout = 30 * time.Second
	}
	if c.Idempotency.WaitTimeout == 0 {
		c.Idempotency.WaitTimeout = 35 * time.Second
	}
	if c.Idempotency.PollInterval == 0 {
		c.Idempotency.PollInterval = 100 * time.Millisecond
	}
	if c.Idempotency.CacheTTL == 0 {
		c.Idempotency.CacheTTL = 24 * time.Hour
	}
	if c.Retry.MaxRetries == 0 {
		c.Retry.MaxRetries = 3
	}
	if c.Retry.BaseDelay == 0 {
		c.Retry.BaseDelay = time.Second
	}
	if c.Events.Mode == "" {
		c.Events.Mode = EventsModeLocal
	}
	if c.Server.RequestTimeout == 0 {
		c.Server.RequestTimeout = c.Server.ReadTimeout
	}
}

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "MILLTRACK"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	QueueBackendSQL   = "sql"
	QueueBackendRedis = "redis"

	DBDriverSQLite   = "sqlite"
	DBDriverPostgres = "postgres"
)

type Config struct {
	App     AppConfig
	Agent   AgentConfig
	DB      DBConfig
	Redis   RedisConfig
	Queue   QueueConfig
	Sync    SyncConfig
	Backend BackendConfig
	Session SessionConfig
	Net     NetConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Queue.validate(); err != nil {
		return nil, err
	}
	if err := cfg.DB.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MILLTRACK_APP_ENV" default:"dev"`
	Port         string `envconfig:"MILLTRACK_APP_PORT" default:"8090"`
	LogLevel     string `envconfig:"MILLTRACK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MILLTRACK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// AgentConfig identifies the station this agent runs on.
type AgentConfig struct {
	FactoryID string `envconfig:"MILLTRACK_FACTORY_ID" required:"true"`
	StationID string `envconfig:"MILLTRACK_STATION_ID" default:"station-0"`
}

type DBConfig struct {
	Driver string `envconfig:"MILLTRACK_DB_DRIVER" default:"sqlite"`
	// Path is the local SQLite file used by the sqlite driver.
	Path string `envconfig:"MILLTRACK_DB_PATH" default:"milltrack-queue.db"`
	// DSN is only consulted by the postgres driver.
	DSN string `envconfig:"MILLTRACK_DB_DSN"`

	MaxOpenConns    int           `envconfig:"MILLTRACK_DB_MAX_OPEN_CONNS" default:"5"`
	MaxIdleConns    int           `envconfig:"MILLTRACK_DB_MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetime time.Duration `envconfig:"MILLTRACK_DB_CONN_MAX_LIFETIME" default:"1h"`

	AutoMigrate bool `envconfig:"MILLTRACK_AUTO_MIGRATE" default:"true"`
}

func (d DBConfig) validate() error {
	switch strings.ToLower(d.Driver) {
	case DBDriverSQLite:
		if strings.TrimSpace(d.Path) == "" {
			return fmt.Errorf("sqlite driver requires MILLTRACK_DB_PATH")
		}
	case DBDriverPostgres:
		if strings.TrimSpace(d.DSN) == "" {
			return fmt.Errorf("postgres driver requires MILLTRACK_DB_DSN")
		}
	default:
		return fmt.Errorf("unknown db driver %q", d.Driver)
	}
	return nil
}

func (d DBConfig) IsSQLite() bool {
	return strings.EqualFold(d.Driver, DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"MILLTRACK_REDIS_URL"`
	Address      string        `envconfig:"MILLTRACK_REDIS_ADDR"`
	Password     string        `envconfig:"MILLTRACK_REDIS_PASSWORD"`
	DB           int           `envconfig:"MILLTRACK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MILLTRACK_REDIS_POOL_SIZE" default:"4"`
	DialTimeout  time.Duration `envconfig:"MILLTRACK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MILLTRACK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MILLTRACK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type QueueConfig struct {
	// Backend selects the durable store: "sql" (default) or "redis".
	Backend string `envconfig:"MILLTRACK_QUEUE_BACKEND" default:"sql"`
	// StorageKey is the fixed key the redis backend serializes the queue under.
	StorageKey string `envconfig:"MILLTRACK_QUEUE_STORAGE_KEY" default:"milltrack:submission_queue"`
	// MaxRetries is stamped on each submission at enqueue time.
	MaxRetries int `envconfig:"MILLTRACK_QUEUE_MAX_RETRIES" default:"5"`
}

func (q QueueConfig) validate() error {
	switch strings.ToLower(q.Backend) {
	case QueueBackendSQL, QueueBackendRedis:
		return nil
	}
	return fmt.Errorf("unknown queue backend %q", q.Backend)
}

func (q QueueConfig) IsRedis() bool {
	return strings.EqualFold(q.Backend, QueueBackendRedis)
}

type SyncConfig struct {
	// DuplicateCode is the backend error code treated as an idempotent duplicate.
	DuplicateCode  string        `envconfig:"MILLTRACK_SYNC_DUPLICATE_CODE" default:"23505"`
	RequestTimeout time.Duration `envconfig:"MILLTRACK_SYNC_REQUEST_TIMEOUT" default:"15s"`
	// BackgroundWake enables a best-effort periodic sync trigger. Zero disables it.
	BackgroundWake time.Duration `envconfig:"MILLTRACK_SYNC_BACKGROUND_WAKE" default:"0"`
}

type BackendConfig struct {
	BaseURL string `envconfig:"MILLTRACK_BACKEND_BASE_URL" required:"true"`
	APIKey  string `envconfig:"MILLTRACK_BACKEND_API_KEY"`
}

type SessionConfig struct {
	// Leeway tolerates small clock drift between station and backend when
	// checking token expiry.
	Leeway time.Duration `envconfig:"MILLTRACK_SESSION_LEEWAY" default:"30s"`
}

type NetConfig struct {
	// ProbeURL is the endpoint polled to detect connectivity. Defaults to the
	// backend health endpoint when empty.
	ProbeURL      string        `envconfig:"MILLTRACK_NET_PROBE_URL"`
	ProbeInterval time.Duration `envconfig:"MILLTRACK_NET_PROBE_INTERVAL" default:"10s"`
	ProbeTimeout  time.Duration `envconfig:"MILLTRACK_NET_PROBE_TIMEOUT" default:"5s"`
}

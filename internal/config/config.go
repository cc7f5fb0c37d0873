package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	Queue     QueueConfig
	Telemetry TelemetryConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32

	// ApplicationName is reported to the server as application_name.
	ApplicationName string
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr                 string
	Password             string
	DB                   int
	AnnouncementsChannel string
	SequenceKeyPrefix    string
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
	DefaultPassword       string
	SeedDemoUsers         bool
}

// QueueConfig selects storage backends and seed data for the ledger.
type QueueConfig struct {
	Store         string
	SequenceStore string
	SectorsFile   string
	RecentServing int
	RecentCalls   int
}

// TelemetryConfig configures OTLP tracing.
type TelemetryConfig struct {
	OTLPEndpoint string
	OTLPInsecure bool
}

// Load reads configuration from environment variables, applying defaults where possible.
// envFiles are passed to godotenv; missing files are ignored.
func Load(envFiles ...string) (*Config, error) {
	_ = godotenv.Load(envFiles...)

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "counter-queue-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:                 os.Getenv("REDIS_ADDR"),
			Password:             os.Getenv("REDIS_PASSWORD"),
			DB:                   redisDB,
			AnnouncementsChannel: getEnv("REDIS_ANNOUNCEMENTS_CHANNEL", "queue:announcements"),
			SequenceKeyPrefix:    getEnv("REDIS_SEQUENCE_PREFIX", "queue:seq:"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 720),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
			DefaultPassword:       getEnv("AUTH_DEFAULT_PASSWORD", "NovoPass01"),
			SeedDemoUsers:         getEnvAsBool("AUTH_SEED_DEMO_USERS", true),
		},
		Queue: QueueConfig{
			Store:         strings.ToLower(getEnv("QUEUE_STORE", StoreMemory)),
			SequenceStore: strings.ToLower(getEnv("QUEUE_SEQUENCE_STORE", "")),
			SectorsFile:   os.Getenv("QUEUE_SECTORS_FILE"),
			RecentServing: getEnvAsInt("QUEUE_DISPLAY_SERVING", 4),
			RecentCalls:   getEnvAsInt("QUEUE_DISPLAY_LAST_CALLS", 10),
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
			OTLPInsecure: getEnvAsBool("OTEL_EXPORTER_OTLP_INSECURE", false),
		},
	}

	cfg.Postgres.ApplicationName = cfg.App.Name
	if cfg.Queue.SequenceStore == "" {
		cfg.Queue.SequenceStore = cfg.Queue.Store
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Queue.Store {
	case StoreMemory:
	case StorePostgres:
		if c.Postgres.DSN == "" {
			return fmt.Errorf("QUEUE_STORE=postgres requires POSTGRES_DSN")
		}
	default:
		return fmt.Errorf("invalid QUEUE_STORE %q", c.Queue.Store)
	}
	switch c.Queue.SequenceStore {
	case StoreMemory, StorePostgres:
		if c.Queue.SequenceStore == StorePostgres && c.Postgres.DSN == "" {
			return fmt.Errorf("QUEUE_SEQUENCE_STORE=postgres requires POSTGRES_DSN")
		}
	case StoreRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("QUEUE_SEQUENCE_STORE=redis requires REDIS_ADDR")
		}
	default:
		return fmt.Errorf("invalid QUEUE_SEQUENCE_STORE %q", c.Queue.SequenceStore)
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// AccessTokenTTL returns the JWT lifetime.
func (a AuthConfig) AccessTokenTTL() time.Duration {
	return time.Duration(a.AccessTokenTTLMinutes) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

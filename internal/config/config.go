package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	List      ListConfig
	Fetch     FetchConfig
	Templates TemplatesConfig
	Analytics AnalyticsConfig
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
	Timezone              string
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
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Enabled  bool
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
	Disabled              bool
	BootstrapPassword     string
}

// ListConfig bounds ticket list responses.
type ListConfig struct {
	DefaultLimit int
	MaxLimit     int
}

// FetchConfig tunes calls into the relational backend.
type FetchConfig struct {
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
}

// TemplatesConfig configures the per-session template catalog.
type TemplatesConfig struct {
	Store              string
	SessionTTL         time.Duration
	AllowBuiltinDelete bool
	SeedFile           string
}

// AnalyticsConfig configures snapshot precomputation.
type AnalyticsConfig struct {
	RefreshCron string
	SnapshotTTL time.Duration
}

// TelemetryConfig configures OTLP trace export.
type TelemetryConfig struct {
	Endpoint string
	Insecure bool
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "studio-desk"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			Timezone:              getEnv("APP_TIMEZONE", "UTC"),
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
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 480),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
			Disabled:              getEnvAsBool("AUTH_DISABLED", false),
			BootstrapPassword:     os.Getenv("AUTH_BOOTSTRAP_PASSWORD"),
		},
		List: ListConfig{
			DefaultLimit: getEnvAsInt("LIST_DEFAULT_LIMIT", 100),
			MaxLimit:     getEnvAsInt("LIST_MAX_LIMIT", 200),
		},
		Fetch: FetchConfig{
			Timeout:        getEnvAsDuration("FETCH_TIMEOUT", 5*time.Second),
			MaxAttempts:    getEnvAsInt("FETCH_MAX_ATTEMPTS", 3),
			InitialBackoff: getEnvAsDuration("FETCH_INITIAL_BACKOFF", 100*time.Millisecond),
		},
		Templates: TemplatesConfig{
			Store:              strings.ToLower(getEnv("TEMPLATES_STORE", "memory")),
			SessionTTL:         getEnvAsDuration("TEMPLATES_SESSION_TTL", 12*time.Hour),
			AllowBuiltinDelete: getEnvAsBool("TEMPLATES_ALLOW_BUILTIN_DELETE", false),
			SeedFile:           os.Getenv("TEMPLATES_SEED_FILE"),
		},
		Analytics: AnalyticsConfig{
			RefreshCron: getEnv("ANALYTICS_REFRESH_CRON", "@every 5m"),
			SnapshotTTL: getEnvAsDuration("ANALYTICS_SNAPSHOT_TTL", 10*time.Minute),
		},
		Telemetry: TelemetryConfig{
			Endpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
			Insecure: getEnvAsBool("OTEL_EXPORTER_OTLP_INSECURE", false),
		},
	}

	if cfg.List.MaxLimit <= 0 {
		return nil, fmt.Errorf("invalid LIST_MAX_LIMIT: %d", cfg.List.MaxLimit)
	}
	if cfg.List.DefaultLimit <= 0 || cfg.List.DefaultLimit > cfg.List.MaxLimit {
		cfg.List.DefaultLimit = cfg.List.MaxLimit
	}
	if _, err := cfg.App.Location(); err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE: %w", err)
	}

	return cfg, nil
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

// Location resolves the timezone used for calendar-day boundaries.
func (a AppConfig) Location() (*time.Location, error) {
	if a.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(a.Timezone)
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

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(val)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}

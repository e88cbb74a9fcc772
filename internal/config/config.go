package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	PathPrefix            string
	RequestTimeoutSeconds int
	ShutdownTimeoutSecs   int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr          string
	Password      string
	DB            int
	EventsChannel string
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
}

// NotificationConfig holds SMTP delivery settings and the async queue shape.
type NotificationConfig struct {
	Enabled      bool
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	EmailFrom    string
	QueueSize    int
	Workers      int
}

var defaults = map[string]any{
	"APP_NAME":                       "helpdesk-service",
	"APP_ENV":                        "development",
	"APP_HOST":                       "0.0.0.0",
	"APP_PORT":                       "5000",
	"APP_VERSION":                    "dev",
	"APP_PATH_PREFIX":                "/api",
	"HTTP_REQUEST_TIMEOUT_SECONDS":   30,
	"HTTP_SHUTDOWN_TIMEOUT_SECONDS":  15,
	"POSTGRES_DSN":                   "",
	"POSTGRES_MAX_CONNS":             10,
	"POSTGRES_MIN_CONNS":             2,
	"POSTGRES_RUN_MIGRATIONS":        true,
	"POSTGRES_CONN_MAX_IDLE_SECONDS": 30,
	"POSTGRES_CONN_MAX_LIFE_SECONDS": 300,
	"REDIS_ADDR":                     "127.0.0.1:6379",
	"REDIS_PASSWORD":                 "",
	"REDIS_DB":                       0,
	"REDIS_EVENTS_CHANNEL":           "helpdesk:ticket-events",
	"LOG_LEVEL":                      "info",
	"AUTH_JWT_SECRET":                "dev-secret",
	"AUTH_ACCESS_TOKEN_TTL_MINUTES":  2 * 24 * 60,
	"AUTH_BCRYPT_COST":               12,
	"NOTIFY_ENABLED":                 true,
	"NOTIFY_SMTP_HOST":               "",
	"NOTIFY_SMTP_PORT":               587,
	"NOTIFY_SMTP_USERNAME":           "",
	"NOTIFY_SMTP_PASSWORD":           "",
	"NOTIFY_EMAIL_FROM":              "helpdesk@example.com",
	"NOTIFY_QUEUE_SIZE":              256,
	"NOTIFY_WORKERS":                 2,
}

// Load reads configuration from environment variables, applying defaults where possible.
// A .env file and an optional config.yml in the working directory are honored; real
// environment variables win over both.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}
	v.AutomaticEnv()

	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:                  v.GetString("APP_NAME"),
			Env:                   v.GetString("APP_ENV"),
			Host:                  v.GetString("APP_HOST"),
			Port:                  v.GetString("APP_PORT"),
			Version:               v.GetString("APP_VERSION"),
			PathPrefix:            normalizePrefix(v.GetString("APP_PATH_PREFIX")),
			RequestTimeoutSeconds: v.GetInt("HTTP_REQUEST_TIMEOUT_SECONDS"),
			ShutdownTimeoutSecs:   v.GetInt("HTTP_SHUTDOWN_TIMEOUT_SECONDS"),
		},
		Postgres: PostgresConfig{
			DSN:            v.GetString("POSTGRES_DSN"),
			MaxConns:       v.GetInt32("POSTGRES_MAX_CONNS"),
			MinConns:       v.GetInt32("POSTGRES_MIN_CONNS"),
			RunMigrations:  v.GetBool("POSTGRES_RUN_MIGRATIONS"),
			ConnMaxIdleSec: v.GetInt32("POSTGRES_CONN_MAX_IDLE_SECONDS"),
			ConnMaxLifeSec: v.GetInt32("POSTGRES_CONN_MAX_LIFE_SECONDS"),
		},
		Redis: RedisConfig{
			Addr:          v.GetString("REDIS_ADDR"),
			Password:      v.GetString("REDIS_PASSWORD"),
			DB:            v.GetInt("REDIS_DB"),
			EventsChannel: v.GetString("REDIS_EVENTS_CHANNEL"),
		},
		Logger: LoggerConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
		Auth: AuthConfig{
			JWTSecret:             v.GetString("AUTH_JWT_SECRET"),
			AccessTokenTTLMinutes: v.GetInt("AUTH_ACCESS_TOKEN_TTL_MINUTES"),
			BcryptCost:            v.GetInt("AUTH_BCRYPT_COST"),
		},
		Notification: NotificationConfig{
			Enabled:      v.GetBool("NOTIFY_ENABLED"),
			SMTPHost:     v.GetString("NOTIFY_SMTP_HOST"),
			SMTPPort:     v.GetInt("NOTIFY_SMTP_PORT"),
			SMTPUsername: v.GetString("NOTIFY_SMTP_USERNAME"),
			SMTPPassword: v.GetString("NOTIFY_SMTP_PASSWORD"),
			EmailFrom:    v.GetString("NOTIFY_EMAIL_FROM"),
			QueueSize:    v.GetInt("NOTIFY_QUEUE_SIZE"),
			Workers:      v.GetInt("NOTIFY_WORKERS"),
		},
	}

	if cfg.App.Env == "production" && cfg.Auth.JWTSecret == "dev-secret" {
		return nil, errors.New("AUTH_JWT_SECRET must be set in production")
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

// ShutdownTimeout bounds graceful shutdown of the HTTP server.
func (a AppConfig) ShutdownTimeout() time.Duration {
	if a.ShutdownTimeoutSecs <= 0 {
		return 15 * time.Second
	}
	return time.Duration(a.ShutdownTimeoutSecs) * time.Second
}

// SMTPConfigured reports whether an SMTP relay is available.
func (n NotificationConfig) SMTPConfigured() bool {
	return n.Enabled && n.SMTPHost != ""
}

func normalizePrefix(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" || prefix == "/" {
		return ""
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return strings.TrimRight(prefix, "/")
}

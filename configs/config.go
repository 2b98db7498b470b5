package configs

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"pipaura/internal/domain"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Vault    VaultConfig
	MyFxBook MyFxBookConfig
	Telegram TelegramConfig
	Log      LogConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string
	Env             string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL             string
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// AuthConfig holds bearer token and cron secret settings
type AuthConfig struct {
	JWTSecret   string
	JWTAudience string
	CronSecret  string
}

// VaultConfig holds the credential vault passphrase
type VaultConfig struct {
	Passphrase string
}

// MyFxBookConfig holds broker API settings
type MyFxBookConfig struct {
	BaseURL        string
	SessionTTL     time.Duration
	RequestTimeout time.Duration
	RateLimit      float64 // requests per second, 0 = unlimited
	SyncSchedule   string  // six-field cron expression, empty disables the in-process sweep
	SweepTimeout   time.Duration
}

// TelegramConfig holds the sweep notifier settings
type TelegramConfig struct {
	BotToken string
	ChatID   string
	Timezone string
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string
	Pretty bool
}

// Load loads configuration from environment variables
func Load() *Config {
	env := getEnv("GO_ENV", "development")

	return &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			Env:             env,
			RequestTimeout:  getEnvDuration("REQUEST_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvDuration("DB_MAX_CONN_LIFETIME", time.Hour),
			MaxConnIdleTime: getEnvDuration("DB_MAX_CONN_IDLE_TIME", 30*time.Minute),
		},
		Auth: AuthConfig{
			JWTSecret:   getEnv("SUPABASE_JWT_SECRET", ""),
			JWTAudience: getEnv("SUPABASE_JWT_AUDIENCE", "authenticated"),
			CronSecret:  getEnv("CRON_SECRET", ""),
		},
		Vault: VaultConfig{
			Passphrase: getEnv("ENC_PASSPHRASE", ""),
		},
		MyFxBook: MyFxBookConfig{
			BaseURL:        getEnv("MYFXBOOK_BASE_URL", "https://www.myfxbook.com/api"),
			SessionTTL:     getEnvDuration("MYFXBOOK_SESSION_TTL", 24*time.Hour),
			RequestTimeout: getEnvDuration("MYFXBOOK_REQUEST_TIMEOUT", 30*time.Second),
			RateLimit:      getEnvFloat("MYFXBOOK_RATE_LIMIT", 2),
			SyncSchedule:   getEnv("MYFXBOOK_SYNC_SCHEDULE", "0 0 */6 * * *"),
			SweepTimeout:   getEnvDuration("MYFXBOOK_SWEEP_TIMEOUT", 30*time.Minute),
		},
		Telegram: TelegramConfig{
			BotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
			ChatID:   getEnv("TELEGRAM_CHAT_ID", ""),
			Timezone: getEnv("TZ", "UTC"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Pretty: getEnvBool("LOG_PRETTY", env == "development"),
		},
	}
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Validate reports settings the process cannot start without
func (c *Config) Validate() error {
	var errs []error

	if c.Database.URL == "" {
		errs = append(errs, &domain.ConfigurationError{Setting: "DATABASE_URL"})
	}
	if c.Database.MaxConns < 1 {
		errs = append(errs, fmt.Errorf("DB_MAX_CONNS must be positive, got %d", c.Database.MaxConns))
	}
	if c.Database.MinConns < 0 || c.Database.MinConns > c.Database.MaxConns {
		errs = append(errs, fmt.Errorf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS, got %d", c.Database.MinConns))
	}
	if c.MyFxBook.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("MYFXBOOK_SESSION_TTL must be positive"))
	}
	if c.MyFxBook.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("MYFXBOOK_RATE_LIMIT must not be negative"))
	}

	return errors.Join(errs...)
}

// MissingSecrets lists optional secrets that are unset. The endpoints depending
// on them answer with a configuration error until they are provided.
func (c *Config) MissingSecrets() []string {
	var missing []string
	if c.Auth.JWTSecret == "" {
		missing = append(missing, "SUPABASE_JWT_SECRET")
	}
	if c.Auth.CronSecret == "" {
		missing = append(missing, "CRON_SECRET")
	}
	if c.Vault.Passphrase == "" {
		missing = append(missing, "ENC_PASSPHRASE")
	}
	return missing
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return n
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if f, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return f
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(strings.TrimSpace(getEnv(key, ""))); err == nil {
		return b
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("90s") or a bare number of seconds
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

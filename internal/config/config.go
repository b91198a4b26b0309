package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Supported storage drivers.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Database  DatabaseConfig
	SQLite    SQLiteConfig
	Logger    LoggerConfig
	Admin     AdminConfig
	Session   SessionConfig
	Telegram  TelegramConfig
	Catalog   CatalogConfig
	S3        S3Config
	RateLimit RateLimitConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host string
	Port int
}

// StoreConfig selects the persistence backend for orders and purchase history.
type StoreConfig struct {
	Driver string // "postgres" or "sqlite"
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime int // seconds
}

// SQLiteConfig holds configuration for the embedded SQLite store.
type SQLiteConfig struct {
	Path string
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string
	Format string // "json" or "console"
}

// AdminConfig holds the operator access code.
type AdminConfig struct {
	AccessCode string
}

// SessionConfig holds cookie session configuration.
type SessionConfig struct {
	Key    string
	Name   string
	MaxAge int // seconds
	Secure bool
}

// TelegramConfig holds bot credentials for operator notifications.
// When BotToken is empty notifications are only logged.
type TelegramConfig struct {
	BotToken   string
	ChannelID  string
	APIBaseURL string
	Timeout    time.Duration
	PriceLabel string
}

// CatalogConfig locates the course catalog. An empty Path selects the embedded catalog.
type CatalogConfig struct {
	Path string
}

// S3Config holds AWS S3 configuration for catalog files.
type S3Config struct {
	Enabled bool
	Bucket  string
	Region  string
	Prefix  string // Path prefix within bucket (e.g., "catalog/")
}

// RateLimitConfig holds purchase rate limiting configuration.
type RateLimitConfig struct {
	MaxPurchases  int
	Window        time.Duration
	Cooldown      time.Duration
	SweepInterval time.Duration
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Store: StoreConfig{
			Driver: getEnv("STORE_DRIVER", StoreDriverPostgres),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "coursehunter"),
			MaxConnections:  getEnvAsInt("DB_MAX_CONNECTIONS", 25),
			MinConnections:  getEnvAsInt("DB_MIN_CONNECTIONS", 5),
			MaxConnLifetime: getEnvAsInt("DB_MAX_CONN_LIFETIME", 300),
		},
		SQLite: SQLiteConfig{
			Path: getEnv("SQLITE_PATH", "data/coursehunter.db"),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Admin: AdminConfig{
			AccessCode: getEnv("ADMIN_ACCESS_CODE", ""),
		},
		Session: SessionConfig{
			Key:    getEnv("SESSION_KEY", ""),
			Name:   getEnv("SESSION_NAME", "coursehunter"),
			MaxAge: getEnvAsInt("SESSION_MAX_AGE", 86400*30),
			Secure: getEnvAsBool("SESSION_SECURE", false),
		},
		Telegram: TelegramConfig{
			BotToken:   getEnv("TELEGRAM_BOT_TOKEN", ""),
			ChannelID:  getEnv("TELEGRAM_CHANNEL_ID", ""),
			APIBaseURL: getEnv("TELEGRAM_API_BASE_URL", "https://api.telegram.org"),
			Timeout:    getEnvAsDuration("TELEGRAM_TIMEOUT", 10*time.Second),
			PriceLabel: getEnv("ORDER_PRICE_LABEL", "299 ETB"),
		},
		Catalog: CatalogConfig{
			Path: getEnv("CATALOG_PATH", ""),
		},
		S3: S3Config{
			Enabled: getEnvAsBool("S3_ENABLED", false),
			Bucket:  getEnv("S3_BUCKET", ""),
			Region:  getEnv("S3_REGION", "us-east-1"),
			Prefix:  getEnv("S3_PREFIX", "catalog/"),
		},
		RateLimit: RateLimitConfig{
			MaxPurchases:  getEnvAsInt("RATE_LIMIT_MAX_PURCHASES", 6),
			Window:        getEnvAsDuration("RATE_LIMIT_WINDOW", 10*time.Minute),
			Cooldown:      getEnvAsDuration("RATE_LIMIT_COOLDOWN", 30*time.Minute),
			SweepInterval: getEnvAsDuration("RATE_LIMIT_SWEEP_INTERVAL", time.Minute),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Store.Driver {
	case StoreDriverPostgres:
		if err := c.Database.validate(); err != nil {
			return err
		}
	case StoreDriverSQLite:
		if c.SQLite.Path == "" {
			return fmt.Errorf("sqlite path is required")
		}
	default:
		return fmt.Errorf("invalid store driver: %s (must be postgres or sqlite)", c.Store.Driver)
	}

	if c.Admin.AccessCode == "" {
		return fmt.Errorf("admin access code is required")
	}

	if len(c.Session.Key) < 32 {
		return fmt.Errorf("session key must be at least 32 bytes")
	}

	if c.Telegram.BotToken != "" && c.Telegram.ChannelID == "" {
		return fmt.Errorf("telegram channel ID is required when a bot token is set")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3 bucket is required when S3 is enabled")
		}
		if c.S3.Region == "" {
			return fmt.Errorf("S3 region is required when S3 is enabled")
		}
		if c.Catalog.Path == "" {
			return fmt.Errorf("catalog path is required when S3 is enabled")
		}
	}

	if c.RateLimit.MaxPurchases < 1 {
		return fmt.Errorf("rate limit max purchases must be at least 1")
	}

	if c.RateLimit.Window <= 0 || c.RateLimit.Cooldown <= 0 || c.RateLimit.SweepInterval <= 0 {
		return fmt.Errorf("rate limit durations must be positive")
	}

	return nil
}

func (c *DatabaseConfig) validate() error {
	if c.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Port)
	}

	if c.User == "" {
		return fmt.Errorf("database user is required")
	}

	if c.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	if c.MinConnections < 1 {
		return fmt.Errorf("database min connections must be at least 1")
	}

	if c.MinConnections > c.MaxConnections {
		return fmt.Errorf("database min connections cannot exceed max connections")
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration retrieves an environment variable as a time.Duration ("90s", "10m").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "your-secret-key-change-this-in-production"

// WebsocketConfig bounds what a single real-time connection may do.
type WebsocketConfig struct {
	AllowedOrigins    []string
	MaxMessageSize    int64
	RateLimitBurst    int
	RateLimitInterval time.Duration
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Config holds all configuration for the application.
type Config struct {
	Port     string
	Env      string
	LogLevel string

	JWTSecret      string
	AccessTokenTTL time.Duration

	DBDriver      string // sqlite, postgres or mongo
	DatabaseURL   string
	MongoURI      string
	MongoDatabase string
	RedisURL      string

	HTTPRateLimit  int
	HTTPRateWindow time.Duration

	Websocket WebsocketConfig
	SMTP      SMTPConfig

	// Warnings lists values that were ignored while loading. They are
	// reported once a logger exists.
	Warnings []string
}

// Load reads configuration from environment variables.
// In development, it loads from .env file if present.
func Load() (*Config, error) {
	env := &envReader{}
	if strings.ToLower(os.Getenv("ENV")) != "production" {
		if err := godotenv.Load(); err != nil {
			env.warn("no .env file found; continuing with environment variables")
		}
	}

	cfg := &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		JWTSecret:      getEnv("JWT_SECRET", defaultJWTSecret),
		AccessTokenTTL: env.getDuration("ACCESS_TOKEN_TTL", 24*time.Hour),

		DBDriver:      strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DatabaseURL:   getEnv("DATABASE_URL", "comictalk.db"),
		MongoURI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGODB_DATABASE", "comictalk"),
		RedisURL:      os.Getenv("REDIS_URL"),

		HTTPRateLimit:  env.getInt("HTTP_RATE_LIMIT", 60),
		HTTPRateWindow: env.getDuration("HTTP_RATE_WINDOW", time.Minute),

		Websocket: WebsocketConfig{
			AllowedOrigins:    getEnvAsList("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			MaxMessageSize:    int64(env.getInt("WS_MAX_MESSAGE_SIZE", 4096)),
			RateLimitBurst:    env.getInt("WS_RATE_LIMIT_BURST", 10),
			RateLimitInterval: env.getDuration("WS_RATE_LIMIT_INTERVAL", time.Second),
		},

		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     env.getInt("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASS"),
			From:     getEnv("MAIL_FROM", "no-reply@comictalk.local"),
		},
	}

	cfg.Warnings = env.warnings

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "sqlite", "postgres", "mongo":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}

	if c.IsProduction() && (c.JWTSecret == "" || c.JWTSecret == defaultJWTSecret) {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	if c.AccessTokenTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_TTL must be positive")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// UsingDefaultSecret reports whether the development JWT secret is in use.
func (c *Config) UsingDefaultSecret() bool {
	return c.JWTSecret == defaultJWTSecret
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

// envReader parses typed values and remembers which ones it had to ignore.
type envReader struct {
	warnings []string
}

func (e *envReader) warn(format string, args ...any) {
	e.warnings = append(e.warnings, fmt.Sprintf(format, args...))
}

func (e *envReader) getInt(key string, defaultValue int) int {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(strValue)
	if err != nil || intValue <= 0 {
		e.warn("could not parse %s as a positive integer; using default %d", key, defaultValue)
		return defaultValue
	}
	return intValue
}

// getDuration accepts Go duration strings ("90s") or a bare number of seconds.
func (e *envReader) getDuration(key string, defaultValue time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(strValue); err == nil && d > 0 {
		return d
	}
	if seconds, err := strconv.Atoi(strValue); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	e.warn("could not parse %s as a duration; using default %s", key, defaultValue)
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	var values []string
	for _, part := range strings.Split(strValue, ",") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	return values
}

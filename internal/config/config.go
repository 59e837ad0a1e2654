package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"url-shortener/internal/db"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Config holds the application configuration, read from the environment.
type Config struct {
	ServerPort      string `env:"SERVER_PORT" envDefault:":8080"`
	DatabaseDialect string `env:"DATABASE_DIALECT" envDefault:"postgres"`
	DatabaseURL     string `env:"DATABASE_URL,required"`
	// BaseURL prefixes returned short URLs.
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	JWTSecret string        `env:"JWT_SECRET,required"`
	JWTIssuer string        `env:"JWT_ISSUER" envDefault:"url-shortener"`
	JWTTTL    time.Duration `env:"JWT_TTL" envDefault:"24h"`

	RedisURL string        `env:"REDIS_URL"` // Empty disables the redirect cache
	CacheTTL time.Duration `env:"CACHE_TTL" envDefault:"1h"`

	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	LogDevelopment bool   `env:"LOG_DEVELOPMENT" envDefault:"false"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","` // Empty means allow all

	CodeMaxAttempts   int `env:"CODE_MAX_ATTEMPTS" envDefault:"100"`
	InsertMaxAttempts int `env:"INSERT_MAX_ATTEMPTS" envDefault:"3"`
}

// Load reads configuration from the environment.
// It looks for a .env file in the current directory for development convenience.
func Load() (*Config, error) {
	// Attempt to load .env file, but don't fail if it's not there (for production)
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("error parsing env variables: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET environment variable is required")
	}
	if c.DatabaseDialect != db.DialectPostgres && c.DatabaseDialect != db.DialectSQLite {
		return fmt.Errorf("DATABASE_DIALECT must be %s or %s, got %q", db.DialectPostgres, db.DialectSQLite, c.DatabaseDialect)
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("BASE_URL must be an absolute URL, got %q", c.BaseURL)
	}
	if c.CodeMaxAttempts <= 0 || c.InsertMaxAttempts <= 0 {
		return errors.New("CODE_MAX_ATTEMPTS and INSERT_MAX_ATTEMPTS must be positive")
	}
	return nil
}

// RedactedDatabaseURL hides the password part of the database URL for logging.
func (c *Config) RedactedDatabaseURL() string {
	u, err := url.Parse(c.DatabaseURL)
	if err != nil || u.User == nil {
		return c.DatabaseURL
	}
	return u.Redacted()
}

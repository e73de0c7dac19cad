package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	DriverFile  = "file"
	DriverRedis = "redis"
)

type Config struct {
	Env  string `env:"APP_ENV" envDefault:"development"`
	Port string `env:"PORT" envDefault:"3000"`

	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"file"`
	DBFile        string `env:"DB_FILE" envDefault:"db.json"`
	CardsFile     string `env:"CARDS_FILE" envDefault:"cards.json"`
	GamesFile     string `env:"GAMES_FILE" envDefault:"games.yaml"`
	PublicDir     string `env:"PUBLIC_DIR" envDefault:"public"`
	DefaultUserID string `env:"DEFAULT_USER_ID" envDefault:"default-user-id"`

	RedisURL  string `env:"REDIS_URL" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	JWTSecret string        `env:"JWT_SECRET"`
	JWTTTL    time.Duration `env:"JWT_TTL" envDefault:"24h"`

	RequestRateLimit   int           `env:"REQUEST_RATE_LIMIT" envDefault:"120"`
	RequestRateWindow  time.Duration `env:"REQUEST_RATE_WINDOW" envDefault:"1m"`
	SessionIdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"30m"`
}

// Load parses the environment. Outside production a missing JWT_SECRET is
// replaced by a random one, so guest tokens do not survive a restart.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.JWTSecret == "" && !cfg.IsProduction() {
		secret, err := randomSecret()
		if err != nil {
			return nil, err
		}
		cfg.JWTSecret = secret
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) Validate() error {
	switch c.StorageDriver {
	case DriverFile:
		if c.DBFile == "" {
			return fmt.Errorf("DB_FILE is required for the file driver")
		}
	case DriverRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis driver")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}

	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive")
	}
	if c.DefaultUserID == "" {
		return fmt.Errorf("DEFAULT_USER_ID cannot be empty")
	}
	if c.RequestRateLimit < 1 || c.RequestRateWindow <= 0 {
		return fmt.Errorf("request rate limit must be positive, got %d per %s", c.RequestRateLimit, c.RequestRateWindow)
	}
	if c.SessionIdleTimeout <= 0 {
		return fmt.Errorf("SESSION_IDLE_TIMEOUT must be positive")
	}
	return nil
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate jwt secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Package config loads the service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"marketplace_backend/internal/platform/db"
	"marketplace_backend/internal/platform/redis"
)

// Config is the typed view of every environment variable the service reads.
type Config struct {
	HTTPPort  string `env:"HTTP_PORT" envDefault:"8080"`
	AppEnv    string `env:"APP_ENV" envDefault:"development"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	// JWTSecret signs and verifies every token. Startup fails without it.
	JWTSecret string `env:"JWT_SECRET,required,notEmpty"`

	DatabaseConfig

	Redis        redis.Config
	UserCacheTTL time.Duration `env:"USER_CACHE_TTL" envDefault:"5m"`

	MetricsEnabled bool `env:"METRICS_ENABLED" envDefault:"true"`
}

// DatabaseConfig is the part of Config that offline tools such as
// createadmin need. It does not require JWT_SECRET.
type DatabaseConfig struct {
	DB               db.Config
	DBConnectTimeout time.Duration `env:"DB_CONNECT_TIMEOUT" envDefault:"60s"`
	RunMigrations    bool          `env:"RUN_MIGRATIONS" envDefault:"true"`
}

// IsProduction reports whether APP_ENV is "production".
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Load reads the given dotenv files (".env" when none are given), then
// parses the environment. Variables already set in the process environment
// win over dotenv values. Missing dotenv files are not an error.
func Load(files ...string) (*Config, error) {
	return load[Config](files)
}

// LoadDatabase is Load restricted to the database settings.
func LoadDatabase(files ...string) (*DatabaseConfig, error) {
	return load[DatabaseConfig](files)
}

func load[T any](files []string) (*T, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				slog.Info("dotenv file not found; using process environment", "file", f)
				continue
			}
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg T
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return &cfg, nil
}

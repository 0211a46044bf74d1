package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type DeployMode string

const (
	// DeployServer runs the push transport next to the stateless adapter.
	DeployServer DeployMode = "server"
	// DeployServerless runs only the stateless adapter and needs a shared store.
	DeployServerless DeployMode = "serverless"
)

type Config struct {
	HTTPAddr      string        `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel      slog.Level    `env:"LOG_LEVEL" envDefault:"INFO"`
	DeployMode    DeployMode    `env:"DEPLOY_MODE" envDefault:"server"`
	RedisURL      string        `env:"REDIS_URL"`
	DBPath        string        `env:"DB_PATH"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"2h"`
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"1m"`
	JoinURL       string        `env:"JOIN_URL" envDefault:"http://localhost:5173/join"`
	WSOrigins     []string      `env:"WS_ORIGINS" envSeparator:","`
}

// Load reads a .env file in the working directory, if any, then parses the
// environment. Variables already set take precedence over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c Config) validate() error {
	switch c.DeployMode {
	case DeployServer, DeployServerless:
	default:
		return fmt.Errorf("DEPLOY_MODE must be %q or %q, got %q", DeployServer, DeployServerless, c.DeployMode)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL must be positive, got %s", c.SweepInterval)
	}
	return nil
}

// Serverless reports whether requests may land on separate instances.
func (c Config) Serverless() bool { return c.DeployMode == DeployServerless }

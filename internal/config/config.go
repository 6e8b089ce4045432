package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config stores environment-driven settings for the server.
type Config struct {
	// ConfigPath is the path to the YAML tool configuration file.
	ConfigPath string `env:"HTTP_EXECUTOR_CONFIG" envDefault:"config.yaml"`
	// LogLevel sets the logger level.
	LogLevel string `env:"HTTP_EXECUTOR_LOG_LEVEL" envDefault:"info"`
	// ShutdownTimeout controls graceful shutdown duration.
	ShutdownTimeout time.Duration `env:"HTTP_EXECUTOR_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	// DefaultTimeout bounds tool exchanges that declare no timeout.
	DefaultTimeout time.Duration `env:"HTTP_EXECUTOR_DEFAULT_TIMEOUT" envDefault:"10s"`
	// MaxBodyBytes caps response bodies read from upstreams.
	MaxBodyBytes int64 `env:"HTTP_EXECUTOR_MAX_BODY_BYTES" envDefault:"10485760"`
	// RatePerSecond limits outgoing exchanges; zero disables limiting.
	RatePerSecond float64 `env:"HTTP_EXECUTOR_RATE_PER_SECOND" envDefault:"0"`
	// RateBurst is the limiter bucket size.
	RateBurst int `env:"HTTP_EXECUTOR_RATE_BURST" envDefault:"1"`
}

// Load parses environment variables into Config.
func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the executor cannot honor.
func (c Config) Validate() error {
	if c.DefaultTimeout < 0 {
		return fmt.Errorf("HTTP_EXECUTOR_DEFAULT_TIMEOUT must be >= 0")
	}
	if c.ShutdownTimeout < 0 {
		return fmt.Errorf("HTTP_EXECUTOR_SHUTDOWN_TIMEOUT must be >= 0")
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("HTTP_EXECUTOR_MAX_BODY_BYTES must be > 0")
	}
	if c.RatePerSecond < 0 {
		return fmt.Errorf("HTTP_EXECUTOR_RATE_PER_SECOND must be >= 0")
	}
	return nil
}

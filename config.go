package client

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
)

// Config is the environment-driven client setup. Every field maps to an
// INFLUENTER_* variable.
type Config struct {
	APIBase           string        `envconfig:"API_BASE" default:"http://localhost:8080"`
	CacheDir          string        `envconfig:"CACHE_DIR"`
	HTTPTimeout       time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`
	FetchGuardTimeout time.Duration `envconfig:"FETCH_GUARD_TIMEOUT" default:"10s"`
	PerPage           int           `envconfig:"PER_PAGE" default:"20"`
	Debug             bool          `envconfig:"DEBUG" default:"false"`
	LogLevel          string        `envconfig:"LOG_LEVEL" default:"info"`
}

// LoadConfig reads INFLUENTER_* environment variables and logs the result.
func LoadConfig(logger zerolog.Logger) (Config, error) {
	var cfg Config
	if err := envconfig.Process("INFLUENTER", &cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	logger.Info().
		Str("api_base", cfg.APIBase).
		Str("cache_dir", cfg.CacheDir).
		Dur("http_timeout", cfg.HTTPTimeout).
		Dur("fetch_guard_timeout", cfg.FetchGuardTimeout).
		Int("per_page", cfg.PerPage).
		Bool("debug", cfg.Debug).
		Str("log_level", cfg.LogLevel).
		Msg("client config loaded")
	return cfg, nil
}

// Validate checks the values envconfig cannot.
func (c Config) Validate() error {
	if c.APIBase == "" {
		return fmt.Errorf("INFLUENTER_API_BASE must be set")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("INFLUENTER_HTTP_TIMEOUT must be > 0")
	}
	if c.FetchGuardTimeout <= 0 {
		return fmt.Errorf("INFLUENTER_FETCH_GUARD_TIMEOUT must be > 0")
	}
	if c.PerPage <= 0 {
		return fmt.Errorf("INFLUENTER_PER_PAGE must be > 0")
	}
	return nil
}

// Options translates the config into constructor options.
func (c Config) Options() []Option {
	return []Option{
		WithHTTPTimeout(c.HTTPTimeout),
		WithFetchGuard(c.FetchGuardTimeout),
		WithPerPage(c.PerPage),
		WithDebugLogging(c.Debug),
	}
}

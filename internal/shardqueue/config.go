package shardqueue

import (
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
)

// Config tunes a ShardExecutor. Zero values are replaced by defaults in
// NewShardExecutor.
type Config struct {
	Shards         int           `envconfig:"SHARDS" default:"4"`
	QueueSize      int           `envconfig:"QUEUE_SIZE" default:"128"`
	EnqueueTimeout time.Duration `envconfig:"ENQUEUE_TIMEOUT" default:"100ms"`
	MaxAttempts    int           `envconfig:"MAX_ATTEMPTS" default:"8"`
	BaseBackoff    time.Duration `envconfig:"BASE_BACKOFF" default:"100ms"`
	MaxInterval    time.Duration `envconfig:"MAX_INTERVAL" default:"20s"`

	// ErrorHandler receives errors of jobs that were dropped after their
	// last attempt, failed irrecoverably, or whose context was cancelled.
	ErrorHandler func(error) `ignored:"true"`

	// Logger receives the executor's own diagnostics. Nil means the global
	// zerolog logger.
	Logger *zerolog.Logger `ignored:"true"`
}

// LoadConfig reads INFLUENTER_SYNC_* environment variables.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("INFLUENTER_SYNC", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

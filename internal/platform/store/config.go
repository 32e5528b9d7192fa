package store

import (
	"time"

	"satyanetra/internal/platform/logger"
)

// Config aggregates per backend configuration
type Config struct {
	AppName string

	PG PGConfig
	CH CHConfig
}

// PGConfig configures postgres connectivity and tracing
type PGConfig struct {
	Enabled     bool
	URL         string
	MaxConns    int32
	LogSQL      bool
	SlowQueryMs int

	ConnectRetries int           // default 20
	PingTimeout    time.Duration // default 3s
}

// CHConfig configures clickhouse connectivity for trend exports
type CHConfig struct {
	Enabled  bool
	URL      string
	Addr     []string
	Database string
	Username string
	Password string
	Role     string
}

// Option adjusts the Store before backends open
type Option func(*Store) error

// WithLogger gives the store and its tracers a logger, tagged with the store component
func WithLogger(log logger.Logger) Option {
	return func(s *Store) error {
		s.Log = log.With().Str("component", "store").Logger()
		return nil
	}
}

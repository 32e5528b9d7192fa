// Package pg opens the pgx pool behind the analysis and alert repositories
package pg

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Config configures the pool
type Config struct {
	URL      string
	MaxConns int32
	AppName  string
	// IdleTimeout closes connections idle this long; 5m when zero
	IdleTimeout time.Duration
	// Tracer sees every statement; see Tracer
	Tracer pgx.QueryTracer
}

// Open builds the pool. Connections are made lazily, so callers ping before use
func Open(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	pc, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}
	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	pc.MaxConnIdleTime = 5 * time.Minute
	if cfg.IdleTimeout > 0 {
		pc.MaxConnIdleTime = cfg.IdleTimeout
	}
	if cfg.AppName != "" {
		pc.ConnConfig.RuntimeParams["application_name"] = cfg.AppName
	}
	pc.ConnConfig.Tracer = cfg.Tracer
	return pgxpool.NewWithConfig(ctx, pc)
}

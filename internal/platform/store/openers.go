package store

import (
	"context"
	"time"

	chx "satyanetra/internal/platform/store/ch"
	"satyanetra/internal/platform/store/pg"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
)

const (
	defaultConnectRetries = 20
	defaultPingTimeout    = 3 * time.Second
)

// pingPolicy retries a failed readiness ping with capped exponential backoff.
// Cancellation of the parent ctx stops it immediately
func pingPolicy(retries int, log func(attempt int, err error)) retrypolicy.RetryPolicy[any] {
	if retries <= 0 {
		retries = defaultConnectRetries
	}
	return retrypolicy.NewBuilder[any]().
		HandleIf(func(_ any, err error) bool { return err != nil }).
		WithBackoff(150*time.Millisecond, 2*time.Second).
		WithMaxRetries(retries - 1).
		OnRetry(func(e failsafe.ExecutionEvent[any]) { log(e.Attempts(), e.LastError()) }).
		ReturnLastFailure().
		Build()
}

// openPG opens the pool and waits until it answers a ping. Slow statements are always logged;
// LogSQL logs all of them
func openPG(ctx context.Context, cfg Config, s *Store) (TxRunner, error) {
	pool, err := pg.Open(ctx, pg.Config{
		URL:      cfg.PG.URL,
		MaxConns: cfg.PG.MaxConns,
		AppName:  cfg.AppName,
		Tracer:   pg.Tracer(s.Log, time.Duration(cfg.PG.SlowQueryMs)*time.Millisecond, cfg.PG.LogSQL),
	})
	if err != nil {
		return nil, err
	}

	timeout := cfg.PG.PingTimeout
	if timeout <= 0 {
		timeout = defaultPingTimeout
	}
	policy := pingPolicy(cfg.PG.ConnectRetries, func(attempt int, err error) {
		s.Log.Debug().Err(err).Int("attempt", attempt).Msg("postgres not ready")
	})
	err = failsafe.With(policy).WithContext(ctx).Run(func() error {
		pctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return pool.Ping(pctx)
	})
	if err != nil {
		pool.Close()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	s.Log.Info().Str("app", cfg.AppName).Msg("postgres ready")
	return newPGAdapter(pool), nil
}

// openCH connects the trend export backend
func openCH(ctx context.Context, cfg Config, s *Store) (Clickhouse, error) {
	c, err := chx.Open(ctx, chx.Config{
		URL:      cfg.CH.URL,
		Addr:     cfg.CH.Addr,
		Database: cfg.CH.Database,
		Username: cfg.CH.Username,
		Password: cfg.CH.Password,
		Role:     cfg.CH.Role,
		Tag:      cfg.AppName,
	})
	if err != nil {
		return nil, err
	}
	s.Log.Info().Str("database", cfg.CH.Database).Msg("clickhouse ready")
	return newCHAdapter(c), nil
}

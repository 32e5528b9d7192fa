// @title         Satyanetra API
// @version       0.1.0
// @description   Content risk scoring and bot network detection

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"satyanetra/internal/core/version"
	"satyanetra/internal/modkit/repokit"
	"satyanetra/internal/platform/config"
	"satyanetra/internal/platform/logger"
	"satyanetra/internal/platform/metrics"
	phttp "satyanetra/internal/platform/net/http"
	"satyanetra/internal/platform/net/middleware"
	"satyanetra/internal/platform/store"
	"satyanetra/internal/platform/store/schema"

	"satyanetra/internal/services/api"

	"golang.org/x/sync/errgroup"
)

func main() {
	logger.Init(logger.FromEnv())
	l := logger.Get()
	bi := version.Info()
	l.Info().Str("version", bi.Version).Str("commit", bi.Commit).Bool("dev_build", bi.Dev()).Msg("satyanetra-api starting")

	root := config.New()
	apiCfg := root.Prefix("CORE_API_")
	authCfg := root.Prefix("CORE_AUTH_")
	pgCfg := root.Prefix("SERVICE_PGSQL_")      // pgCfg lives under SERVICE_PGSQL_*
	chCfg := root.Prefix("SERVICE_CLICKHOUSE_") // chCfg lives under SERVICE_CLICKHOUSE_*

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// both backends are optional; without postgres records live in memory and trends are not exported
	st, err := store.Open(ctx, store.Config{
		AppName: "satyanetra-api",
		PG: store.PGConfig{
			Enabled:     pgCfg.MayBool("ENABLED", false),
			URL:         pgCfg.MayString("DBURL", ""),
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 8)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", false),
		},
		CH: store.CHConfig{
			Enabled:  chCfg.MayBool("ENABLED", false),
			URL:      chCfg.MayString("DBURL", ""),
			Database: chCfg.MayString("DATABASE", "satyanetra"),
			Username: chCfg.MayString("USERNAME", ""),
			Password: chCfg.MayString("PASSWORD", ""),
		},
	}, store.WithLogger(*l))
	if err != nil {
		l.Fatal().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	repokit.MustGuard(ctx, st)

	if st.PG != nil && pgCfg.MayBool("MIGRATE", true) {
		ddl := repokit.WithBeginHooks(st.PG, repokit.StatementTimeout(pgCfg.MayDuration("MIGRATE_TIMEOUT", 30*time.Second)))
		if err := schema.ApplyPG(ctx, ddl); err != nil {
			l.Fatal().Err(err).Msg("postgres schema")
		}
	}
	if st.CH != nil && chCfg.MayBool("MIGRATE", true) {
		if err := schema.ApplyCH(ctx, st.CH); err != nil {
			l.Fatal().Err(err).Msg("clickhouse schema")
		}
	}

	opt := api.Options{
		Config:  root,
		Store:   st,
		Metrics: metrics.New(),
		CORS: middleware.CORSOptions{
			AllowedOrigins: apiCfg.MayCSV("ALLOWED_ORIGINS", []string{"*"}),
		},
		RequestTimeout: apiCfg.MayDuration("REQUEST_TIMEOUT", 30*time.Second),
		SlowRequest:    apiCfg.MayDuration("SLOW_REQUEST", time.Second),
		EnableSwagger:  apiCfg.MayBool("SWAGGER", true),
		EnableProfiler: apiCfg.MayBool("PROFILER", false),
	}
	// an empty secret leaves the API open
	if secret := authCfg.MayString("SECRET", ""); secret != "" {
		opt.Auth = &middleware.JWTAuth{
			Secret:   []byte(secret),
			Issuer:   authCfg.MayString("ISSUER", ""),
			Audience: authCfg.MayString("AUDIENCE", ""),
			Leeway:   authCfg.MayDuration("LEEWAY", 30*time.Second),
		}
	} else {
		l.Warn().Msg("CORE_AUTH_SECRET unset; API is unauthenticated")
	}

	app, err := api.New(opt)
	if err != nil {
		l.Fatal().Err(err).Msg("api.New failed")
	}

	// http server (reads CORE_API_PORT / CORE_API_ADDR)
	srv := phttp.NewServer(apiCfg)
	app.Mount(srv.Router())

	grace := apiCfg.MayDuration("SHUTDOWN_GRACE", 10*time.Second)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx, grace) })
	g.Go(func() error {
		if err := app.Run(gctx); err != nil && gctx.Err() == nil {
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		l.Error().Err(err).Msg("satyanetra-api stopped")
		os.Exit(1)
	}
	l.Info().Msg("satyanetra-api stopped")
}

// Package api assembles the modules behind the HTTP API and runs their background work
package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"satyanetra/internal/adapters/capability"
	"satyanetra/internal/adapters/inference"
	"satyanetra/internal/adapters/ocr"
	"satyanetra/internal/modkit"
	"satyanetra/internal/modkit/httpkit"
	"satyanetra/internal/modkit/module"
	"satyanetra/internal/modkit/swaggerkit"
	"satyanetra/internal/platform/config"
	"satyanetra/internal/platform/logger"
	"satyanetra/internal/platform/metrics"
	phttp "satyanetra/internal/platform/net/http"
	"satyanetra/internal/platform/net/middleware"
	"satyanetra/internal/platform/schedule"
	"satyanetra/internal/platform/store"

	alertsmod "satyanetra/internal/services/alerts/module"
	analysismod "satyanetra/internal/services/analysis/module"
	metahttp "satyanetra/internal/services/meta/http"
	metamod "satyanetra/internal/services/meta/module"
	networkmod "satyanetra/internal/services/network/module"
	streammod "satyanetra/internal/services/stream/module"
	trendsmod "satyanetra/internal/services/trends/module"
)

// Options are the API options
type Options struct {
	Config  config.Conf
	Store   *store.Store
	Metrics *metrics.Metrics
	// Auth verifies bearer tokens; nil leaves every route open
	Auth           middleware.AuthPort
	CORS           middleware.CORSOptions
	RequestTimeout time.Duration
	SlowRequest    time.Duration
	EnableSwagger  bool
	EnableProfiler bool
}

// App owns every module plus the scheduler that drives periodic jobs
type App struct {
	opt Options

	analysis *analysismod.Module
	network  *networkmod.Module
	alerts   *alertsmod.Module
	trends   *trendsmod.Module
	stream   *streammod.Module
	meta     *metamod.Module

	sched *schedule.Scheduler
}

// New builds the modules from configuration. External capabilities are wired only when their
// SERVICE_*_URL is set
func New(opt Options) (*App, error) {
	root := opt.Config
	deps := modkit.Deps{
		Log:     *logger.Get(),
		Cfg:     root,
		Metrics: opt.Metrics,
	}
	if opt.Store != nil {
		deps.PG, deps.CH = opt.Store.PG, opt.Store.CH
	}
	m := deps.MetricsOrDiscard()
	opt.Metrics = m

	ao := analysismod.FromConfig(root)
	var inferState, ocrState func() capability.State
	model, ok, err := inference.FromConfig(root.Prefix("SERVICE_INFERENCE_"), m)
	if err != nil {
		return nil, err
	}
	if ok {
		ao.Model, inferState = model, model.State
	}
	reader, ok, err := ocr.FromConfig(root.Prefix("SERVICE_OCR_"), m)
	if err != nil {
		return nil, err
	}
	if ok {
		ao.OCR, ocrState = reader, reader.State
	}
	analysis, err := analysismod.New(deps, ao)
	if err != nil {
		return nil, err
	}

	no, err := networkmod.FromConfig(root)
	if err != nil {
		return nil, err
	}
	network, err := networkmod.New(deps, no)
	if err != nil {
		return nil, err
	}

	alo := alertsmod.FromConfig(root)
	alo.AuthEnabled = opt.Auth != nil
	alerts := alertsmod.New(deps, alo)

	trends := trendsmod.New(deps, trendsmod.FromConfig(root))

	results := module.MustPortsOf[analysismod.Ports](analysis).Results
	feed := module.MustPortsOf[alertsmod.Ports](alerts).Alerts
	so := streammod.FromConfig(root)
	so.Results, so.Alerts = results, feed
	stream := streammod.New(so)

	meta := metamod.New(deps, "satyanetra-api", []metahttp.Probe{
		metamod.AnalysisProbe(analysis.Service()),
		metamod.GraphProbe(network.Service()),
		metamod.DetectorProbe(network.Service()),
		metamod.BreakerProbe(inference.Name, inferState),
		metamod.BreakerProbe(ocr.Name, ocrState),
	})

	sched, err := schedule.New()
	if err != nil {
		return nil, err
	}

	if !analysis.HasModel() {
		logger.Named("api").Warn().Msg("no inference capability configured; scoring uses lexicon signals only")
	}

	return &App{
		opt:      opt,
		analysis: analysis,
		network:  network,
		alerts:   alerts,
		trends:   trends,
		stream:   stream,
		meta:     meta,
		sched:    sched,
	}, nil
}

// Mount mounts every module under /api/v1. Meta stays open; everything else sits behind auth.
// Streams skip the request timeout and compression the JSON routes get
func (a *App) Mount(r phttp.Router) {
	swaggerkit.Mount(r, a.opt.EnableSwagger)
	phttp.MountProfiler(r, "/debug", a.opt.EnableProfiler)
	r.Handle("/metrics", a.opt.Metrics.Handler())

	timeout := a.opt.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	jsonMods := []module.Module{a.analysis, a.network, a.alerts, a.trends}

	httpkit.MountAPIV1(r, httpkit.CommonStack(a.opt.Metrics, a.opt.CORS, a.opt.SlowRequest), func(api httpkit.Router) {
		a.meta.MountRoutes(api)
		httpkit.Protected(api, a.opt.Auth, func(p httpkit.Router) {
			a.stream.MountRoutes(p)
			p.Group(func(g httpkit.Router) {
				g.Use(middleware.APIDefaults(timeout)...)
				for _, m := range jsonMods {
					m.MountRoutes(g)
				}
			})
		})
	})
}

// Handler is a convenience for tests: a fresh router with the app mounted
func (a *App) Handler() http.Handler {
	srv := phttp.NewServer(a.opt.Config.Prefix("CORE_API_"))
	a.Mount(srv.Router())
	return srv.Handler()
}

// Run starts the worker pool, the topic consumers and the scheduled jobs, and blocks until ctx
// ends. Streams are told to go away before Run returns
func (a *App) Run(ctx context.Context) error {
	log := logger.Named("api")
	results := a.analysis.Service().Topic()
	clusters := a.network.Service().Topic()

	for _, m := range []module.Module{a.analysis, a.network, a.alerts, a.trends, a.stream, a.meta} {
		if s, ok := m.(module.Scheduled); ok {
			if err := s.Schedule(ctx, a.sched); err != nil {
				return err
			}
		}
	}

	var wg sync.WaitGroup
	wg.Go(func() { a.network.Consume(ctx, results) })
	wg.Go(func() { a.alerts.Consume(ctx, results, clusters) })
	wg.Go(func() { a.trends.Consume(ctx, results, clusters) })

	a.sched.Start()
	log.Info().Int("jobs", a.sched.Jobs()).Msg("background work started")

	err := a.analysis.Run(ctx)

	a.stream.Close()
	if serr := a.sched.Shutdown(); serr != nil {
		log.Warn().Err(serr).Msg("scheduler shutdown")
	}
	// flush whatever closed during shutdown
	a.trends.Service().RunScheduled(context.WithoutCancel(ctx))
	wg.Wait()
	log.Info().Msg("background work stopped")
	return err
}

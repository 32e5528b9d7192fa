// Package module wires the trend aggregator into the API
package module

import (
	"context"
	"time"

	"satyanetra/internal/core/pubsub"
	"satyanetra/internal/core/timeseries"
	modkit "satyanetra/internal/modkit"
	"satyanetra/internal/modkit/httpkit"
	"satyanetra/internal/modkit/module"
	"satyanetra/internal/platform/config"
	"satyanetra/internal/platform/schedule"
	analysis "satyanetra/internal/services/analysis/domain"
	network "satyanetra/internal/services/network/domain"
	trendshttp "satyanetra/internal/services/trends/http"
	"satyanetra/internal/services/trends/service"
)

// Options configures the trends module
type Options struct {
	Service service.Config
	// Export turns on the ClickHouse sink when deps.CH is available
	Export bool
}

// FromConfig reads CORE_TRENDS_* keys
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("CORE_TRENDS_")
	return Options{
		Service: service.Config{
			Window:      c.MayDuration("WINDOW", timeseries.DefaultWindow),
			Capacity:    c.MayInt("CAPACITY", timeseries.DefaultCapacity),
			ThreatFloor: c.MayFloat64("THREAT_FLOOR", 50),
		},
		Export: c.MayBool("EXPORT", true),
	}
}

var _ module.Scheduled = (*Module)(nil)

// Module implements module.Module for trends
type Module struct {
	b   modkit.Built
	svc *service.Svc
}

// New builds the module
func New(deps modkit.Deps, o Options, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("trends"), modkit.WithPrefix("/trends")}, opts...)...)
	var sink service.Sink
	if o.Export && deps.CH != nil {
		sink = deps.CH
	}
	return &Module{b: b, svc: service.New(o.Service, sink, deps.MetricsOrDiscard())}
}

// MountRoutes implements module.Module
func (m *Module) MountRoutes(r httpkit.Router) {
	m.b.Mount(r, func(g httpkit.Router) { trendshttp.Register(g, m.svc) })
}

// Name implements module.Module
func (m *Module) Name() string { return m.b.Name }

// Ports implements module.Module
func (m *Module) Ports() any { return m.svc }

// Service exposes the concrete service
func (m *Module) Service() *service.Svc { return m.svc }

// Schedule registers the roll-over and export job; it runs every window, at least every minute
func (m *Module) Schedule(ctx context.Context, sc *schedule.Scheduler) error {
	return sc.Every(ctx, "trend-rollover", min(m.svc.Window(), time.Minute), m.svc.RunScheduled)
}

// Consume counts upstream events until ctx ends
func (m *Module) Consume(ctx context.Context, results *pubsub.Topic[analysis.Event], clusters *pubsub.Topic[network.ClusterEvent]) {
	m.svc.Consume(ctx, results.Subscribe(), clusters.Subscribe())
}

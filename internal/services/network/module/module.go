// Package module wires the account graph and cluster detection into the API
package module

import (
	"context"
	"time"

	"satyanetra/internal/core/pubsub"
	modkit "satyanetra/internal/modkit"
	"satyanetra/internal/modkit/httpkit"
	"satyanetra/internal/modkit/module"
	"satyanetra/internal/platform/schedule"
	analysis "satyanetra/internal/services/analysis/domain"
	"satyanetra/internal/services/network/domain"
	networkhttp "satyanetra/internal/services/network/http"
	"satyanetra/internal/services/network/service"
)

// Ports is what other modules consume
type Ports struct {
	Service  domain.ServicePort
	Clusters *pubsub.Topic[domain.ClusterEvent]
}

var _ module.Scheduled = (*Module)(nil)

// Module implements module.Module for the network service
type Module struct {
	b   modkit.Built
	opt Options
	svc *service.Svc
}

// New builds the module
func New(deps modkit.Deps, o Options, opts ...modkit.Option) (*Module, error) {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("network"), modkit.WithPrefix("/network")}, opts...)...)
	svc, err := service.New(o.Service, deps.MetricsOrDiscard())
	if err != nil {
		return nil, err
	}
	return &Module{b: b, opt: o, svc: svc}, nil
}

// MountRoutes implements module.Module
func (m *Module) MountRoutes(r httpkit.Router) {
	m.b.Mount(r, func(g httpkit.Router) {
		if m.opt.DetectPerMinute > 0 {
			networkhttp.Register(g, m.svc, httpkit.RateLimit(m.opt.DetectPerMinute, time.Minute))
			return
		}
		networkhttp.Register(g, m.svc)
	})
}

// Name implements module.Module
func (m *Module) Name() string { return m.b.Name }

// Ports implements module.Module
func (m *Module) Ports() any { return Ports{Service: m.svc, Clusters: m.svc.Topic()} }

// Service exposes the concrete service for wiring in main
func (m *Module) Service() *service.Svc { return m.svc }

// Schedule registers periodic detection on sc
func (m *Module) Schedule(ctx context.Context, sc *schedule.Scheduler) error {
	return sc.Every(ctx, "cluster-detection", m.svc.Interval(), m.svc.RunScheduled)
}

// Consume attributes analysis results to accounts until ctx ends
func (m *Module) Consume(ctx context.Context, results *pubsub.Topic[analysis.Event]) {
	m.svc.ConsumeResults(ctx, results.Subscribe())
}

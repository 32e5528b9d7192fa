// Package module wires the alert dispatcher into the API
package module

import (
	"context"

	"satyanetra/internal/core/pubsub"
	modkit "satyanetra/internal/modkit"
	"satyanetra/internal/modkit/httpkit"
	"satyanetra/internal/modkit/repokit"
	"satyanetra/internal/services/alerts/domain"
	alertshttp "satyanetra/internal/services/alerts/http"
	"satyanetra/internal/services/alerts/repo"
	"satyanetra/internal/services/alerts/service"
	analysis "satyanetra/internal/services/analysis/domain"
	network "satyanetra/internal/services/network/domain"
)

// Ports is what other modules consume
type Ports struct {
	Service domain.ServicePort
	Alerts  *pubsub.Topic[domain.Alert]
}

// Module implements module.Module for alerts
type Module struct {
	b   modkit.Built
	opt Options
	svc *service.Svc
}

// New builds the module, storing alerts in Postgres when deps.PG is set
func New(deps modkit.Deps, o Options, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("alerts"), modkit.WithPrefix("/alerts")}, opts...)...)
	var st repo.Storage
	if deps.PG != nil {
		st = repokit.MustBind(repo.NewPG(), deps.PG)
	} else {
		st = repo.NewMemory()
	}
	return &Module{b: b, opt: o, svc: service.New(o.Service, st, deps.MetricsOrDiscard())}
}

// MountRoutes implements module.Module
func (m *Module) MountRoutes(r httpkit.Router) {
	m.b.Mount(r, func(g httpkit.Router) {
		alertshttp.Register(g, m.svc, httpkit.RequireRole(AckRole, m.opt.AuthEnabled))
	})
}

// Name implements module.Module
func (m *Module) Name() string { return m.b.Name }

// Ports implements module.Module
func (m *Module) Ports() any { return Ports{Service: m.svc, Alerts: m.svc.Topic()} }

// Service exposes the concrete service
func (m *Module) Service() *service.Svc { return m.svc }

// Consume watches both upstream topics until ctx ends
func (m *Module) Consume(ctx context.Context, results *pubsub.Topic[analysis.Event], clusters *pubsub.Topic[network.ClusterEvent]) {
	rs, cs := results.Subscribe(), clusters.Subscribe()
	go m.svc.ConsumeClusters(ctx, cs)
	m.svc.ConsumeResults(ctx, rs)
}

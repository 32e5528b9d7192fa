// Package module wires meta endpoints into the API using a tiny module
package module

import (
	"time"

	modkit "satyanetra/internal/modkit"
	"satyanetra/internal/modkit/httpkit"
	str "satyanetra/internal/platform/strings"
	metahttp "satyanetra/internal/services/meta/http"
)

// Module implements module.Module
type Module struct {
	b         modkit.Built
	deps      metahttp.Deps
	startedAt time.Time
}

// New constructs a meta module; probes feed /meta/health
func New(deps modkit.Deps, service string, probes []metahttp.Probe, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("meta"),
		modkit.WithPrefix("/meta"),
	}, opts...)...)

	m := &Module{b: b, startedAt: time.Now()}
	m.deps = metahttp.Deps{
		ServiceName: str.MustString(service, "service name"),
		StartedAt:   m.startedAt,
		Probes:      probes,
		Backends:    []metahttp.Backend{{Name: "pg"}, {Name: "ch"}},
	}
	// a typed nil would read as enabled
	if deps.PG != nil {
		m.deps.Backends[0].Conn = deps.PG
	}
	if deps.CH != nil {
		m.deps.Backends[1].Conn = deps.CH
	}
	return m
}

// MountRoutes implements module.Module
func (m *Module) MountRoutes(r httpkit.Router) {
	m.b.Mount(r, func(g httpkit.Router) { metahttp.Register(g, m.deps) })
}

// Name implements module.Module
func (m *Module) Name() string { return m.b.Name }

// Ports implements module.Module
func (m *Module) Ports() any { return nil }

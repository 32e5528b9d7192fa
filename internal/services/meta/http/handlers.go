// Package http provides meta endpoints
package http

import (
	stdctx "context"
	"net/http"
	"time"

	"satyanetra/internal/core/version"
	"satyanetra/internal/modkit/httpkit"

	"golang.org/x/sync/errgroup"
)

// Pinger is satisfied by backends that can report reachability
type Pinger interface {
	Ping(stdctx.Context) error
}

// Component status values
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
	StatusDown     = "down"
	StatusDisabled = "disabled"
)

// Readiness check results
const (
	CheckOK      = "ok"
	CheckFail    = "fail"
	CheckSkipped = "skipped"
	CheckUnknown = "unknown"
)

// Component is one entry of the health report
type Component struct {
	Name   string         `json:"name"             example:"analysis"`
	Status string         `json:"status"           example:"ok"`
	Detail string         `json:"detail,omitempty" example:"4 workers"`
	Info   map[string]any `json:"info,omitempty"`
}

// Probe reports one component
type Probe func(stdctx.Context) Component

// Backend is a storage dependency checked by /meta/ready. A nil Conn is a disabled backend
type Backend struct {
	Name string
	Conn any
}

// Deps are the handler dependencies
type Deps struct {
	ServiceName string
	StartedAt   time.Time
	Backends    []Backend
	Probes      []Probe
	// CheckTimeout bounds each health and readiness call; 2s when zero
	CheckTimeout time.Duration
}

type handlers struct {
	deps Deps
}

// Register mounts the meta routes
func Register(r httpkit.Router, d Deps) {
	if d.CheckTimeout <= 0 {
		d.CheckTimeout = 2 * time.Second
	}
	h := &handlers{deps: d}

	httpkit.Get(r, "/health", h.health)
	httpkit.Get(r, "/ready", h.ready)
	httpkit.Get(r, "/version", h.version)
	httpkit.Get(r, "/service", h.service)
}

// each runs fn for every index concurrently and waits for all of them
func each(ctx stdctx.Context, n int, fn func(ctx stdctx.Context, i int)) {
	g, gctx := errgroup.WithContext(ctx)
	for i := range n {
		g.Go(func() error { fn(gctx, i); return nil })
	}
	_ = g.Wait()
}

func stamp(t time.Time) string { return t.UTC().Format(time.RFC3339) }

//
// Swagger DTOs and route docs
//

// HealthResponse is the health payload
// swagger:model
type HealthResponse struct {
	OK         bool        `json:"ok"       example:"true"`
	Status     string      `json:"status"   example:"ok"` // ok degraded down
	Service    string      `json:"service"  example:"satyanetra-api"`
	Started    string      `json:"started"  example:"2026-09-03T13:00:00Z"`
	Now        string      `json:"now"      example:"2026-09-03T13:05:00Z"`
	Components []Component `json:"components"`
}

// ReadyCheck describes a single dependency check
type ReadyCheck struct {
	Name   string `json:"name"   example:"pg"`
	Status string `json:"status" example:"ok"` // ok fail skipped unknown
	Error  string `json:"error,omitempty" example:"dial tcp 127.0.0.1:5432 connect: connection refused"`
}

// ReadyResponse summarizes readiness
type ReadyResponse struct {
	Status string       `json:"status" example:"ok"` // ok degraded fail
	Checks []ReadyCheck `json:"checks"`
	Now    string       `json:"now"    example:"2026-09-03T13:05:00Z"`
}

// ServiceResponse describes service info
type ServiceResponse struct {
	Name    string `json:"name"    example:"satyanetra-api"`
	Started string `json:"started" example:"2026-09-03T13:00:00Z"`
	Uptime  int64  `json:"uptime"  example:"300"`
}

// swagger:route GET /meta/health Meta metaHealth
// @Summary Component health: analysis workers, graph, detector and external capabilities
// @Tags Meta
// @Produce json
// @Success 200 type HealthResponse ok
// @Router /meta/health [get]
func (h *handlers) health(r *http.Request) (any, error) {
	ctx, cancel := stdctx.WithTimeout(r.Context(), h.deps.CheckTimeout)
	defer cancel()

	comps := make([]Component, len(h.deps.Probes))
	each(ctx, len(comps), func(ctx stdctx.Context, i int) { comps[i] = h.deps.Probes[i](ctx) })

	out := HealthResponse{
		OK:         true,
		Status:     StatusOK,
		Service:    h.deps.ServiceName,
		Started:    stamp(h.deps.StartedAt),
		Now:        stamp(time.Now()),
		Components: comps,
	}
	for _, c := range comps {
		if c.Status == StatusDown {
			out.OK, out.Status = false, StatusDown
		} else if c.Status == StatusDegraded && out.OK {
			out.Status = StatusDegraded
		}
	}
	return out, nil
}

// swagger:route GET /meta/ready Meta metaReady
// @Summary Readiness probe with dependency checks
// @Tags Meta
// @Produce json
// @Success 200 type ReadyResponse ok
// @Router /meta/ready [get]
func (h *handlers) ready(r *http.Request) (any, error) {
	ctx, cancel := stdctx.WithTimeout(r.Context(), h.deps.CheckTimeout)
	defer cancel()

	checks := make([]ReadyCheck, len(h.deps.Backends))
	each(ctx, len(checks), func(ctx stdctx.Context, i int) { checks[i] = check(ctx, h.deps.Backends[i]) })

	out := ReadyResponse{Status: CheckOK, Checks: checks, Now: stamp(time.Now())}
	for _, c := range checks {
		switch {
		case c.Status == CheckFail:
			out.Status = CheckFail
		case c.Status == CheckUnknown && out.Status == CheckOK:
			out.Status = StatusDegraded
		}
	}
	return out, nil
}

// check pings b. Disabled backends are skipped and count as ready
func check(ctx stdctx.Context, b Backend) ReadyCheck {
	if b.Conn == nil {
		return ReadyCheck{Name: b.Name, Status: CheckSkipped}
	}
	p, ok := b.Conn.(Pinger)
	if !ok {
		return ReadyCheck{Name: b.Name, Status: CheckUnknown}
	}
	if err := p.Ping(ctx); err != nil {
		return ReadyCheck{Name: b.Name, Status: CheckFail, Error: err.Error()}
	}
	return ReadyCheck{Name: b.Name, Status: CheckOK}
}

// swagger:route GET /meta/version Meta metaVersion
// @Summary Build and version info
// @Tags Meta
// @Produce json
// @Success 200 type version.BuildInfo ok
// @Router /meta/version [get]
func (h *handlers) version(_ *http.Request) (any, error) {
	return version.Info(), nil
}

// swagger:route GET /meta/service Meta metaService
// @Summary Service info and uptime
// @Tags Meta
// @Produce json
// @Success 200 type ServiceResponse ok
// @Router /meta/service [get]
func (h *handlers) service(_ *http.Request) (any, error) {
	uptime := time.Since(h.deps.StartedAt)
	return ServiceResponse{
		Name:    h.deps.ServiceName,
		Started: stamp(h.deps.StartedAt),
		Uptime:  int64(uptime / time.Second),
	}, nil
}

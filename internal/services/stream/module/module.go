// Package module mounts the result and alert websocket streams
package module

import (
	"satyanetra/internal/core/pubsub"
	modkit "satyanetra/internal/modkit"
	"satyanetra/internal/modkit/httpkit"
	"satyanetra/internal/platform/config"
	alerts "satyanetra/internal/services/alerts/domain"
	analysis "satyanetra/internal/services/analysis/domain"
	streamhttp "satyanetra/internal/services/stream/http"
)

// Options wires the topics to stream
type Options struct {
	Stream  streamhttp.Options
	Results *pubsub.Topic[analysis.Event]
	Alerts  *pubsub.Topic[alerts.Alert]
}

// FromConfig reads CORE_STREAM_* keys; topics are set by the caller
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("CORE_STREAM_")
	return Options{Stream: streamhttp.Options{
		WriteWait:      c.MayDuration("WRITE_WAIT", 0),
		PongWait:       c.MayDuration("PONG_WAIT", 0),
		AllowedOrigins: c.MayCSV("ALLOWED_ORIGINS", nil),
	}}
}

// Module implements module.Module for the streams
type Module struct {
	b   modkit.Built
	o   Options
	str *streamhttp.Streamer
}

// New builds the module
func New(o Options, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("stream"), modkit.WithPrefix("/stream")}, opts...)...)
	return &Module{b: b, o: o, str: streamhttp.NewStreamer(o.Stream)}
}

// MountRoutes implements module.Module
func (m *Module) MountRoutes(r httpkit.Router) {
	m.b.Mount(r, func(g httpkit.Router) {
		if m.o.Results != nil {
			g.Get("/results", streamhttp.Handler(m.str, "result", m.o.Results.Subscribe))
		}
		if m.o.Alerts != nil {
			g.Get("/alerts", streamhttp.Handler(m.str, "alert", m.o.Alerts.Subscribe))
		}
	})
}

// Name implements module.Module
func (m *Module) Name() string { return m.b.Name }

// Ports implements module.Module
func (m *Module) Ports() any { return m.str }

// Active is the number of open streams
func (m *Module) Active() int64 { return m.str.Active() }

// Close ends every open stream
func (m *Module) Close() { m.str.Close() }

package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	stdmw "github.com/go-chi/chi/v5/middleware"
)

// Handler is the handler shape every route uses
type Handler = func(http.ResponseWriter, *http.Request)

// Router is the mounting surface modules see. The API only reads and submits, so the verbs stop
// at GET and POST
type Router interface {
	Get(path string, h Handler)
	Post(path string, h Handler)
	Handle(path string, h http.Handler)
	Use(mw ...func(http.Handler) http.Handler)
	Group(fn func(Router))
	Route(pattern string, fn func(Router))
}

// chiRouter backs Router with chi; the root mux and every subrouter share it
type chiRouter struct{ r chi.Router }

// AdaptChi wraps a chi router
func AdaptChi(r chi.Router) Router { return chiRouter{r: r} }

func (c chiRouter) Get(p string, h Handler)  { c.r.Get(p, h) }
func (c chiRouter) Post(p string, h Handler) { c.r.Post(p, h) }

func (c chiRouter) Handle(p string, h http.Handler)           { c.r.Handle(p, h) }
func (c chiRouter) Use(mw ...func(http.Handler) http.Handler) { c.r.Use(mw...) }

func (c chiRouter) Group(fn func(Router)) {
	c.r.Group(func(g chi.Router) { fn(chiRouter{r: g}) })
}

func (c chiRouter) Route(pattern string, fn func(Router)) {
	c.r.Route(pattern, func(sub chi.Router) { fn(chiRouter{r: sub}) })
}

// URLParam reads a path parameter set by the chi route pattern
func URLParam(r *http.Request, key string) string { return chi.URLParam(r, key) }

// MountProfiler serves net/http/pprof under prefix, e.g. /debug/pprof/heap, when enabled
func MountProfiler(r Router, prefix string, enabled bool) {
	if !enabled {
		return
	}
	r.Handle(prefix+"/*", http.StripPrefix(prefix, stdmw.Profiler()))
}

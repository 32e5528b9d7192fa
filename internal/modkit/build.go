package modkit

import (
	"net/http"

	"satyanetra/internal/modkit/httpkit"
	str "satyanetra/internal/platform/strings"
)

// Built is how a module mounts: a name for logs, a path prefix and its own middleware
type Built struct {
	Name   string
	Prefix string
	Mw     []func(http.Handler) http.Handler
}

// Option adjusts a Built
type Option func(*Built)

// WithName names the module
func WithName(name string) Option { return func(b *Built) { b.Name = name } }

// WithPrefix mounts the module under prefix; "alerts/" becomes "/alerts"
func WithPrefix(prefix string) Option {
	return func(b *Built) { b.Prefix = str.MustPrefix(prefix) }
}

// WithMiddlewares appends module middleware, applied in order
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(b *Built) { b.Mw = append(b.Mw, mw...) }
}

// Build applies opts in order; later options win
func Build(opts ...Option) Built {
	var b Built
	for _, o := range opts {
		o(&b)
	}
	return b
}

// Mount registers routes under b's prefix with b's middleware. Without a prefix the routes
// land on r inside a group so the middleware stays local
func (b Built) Mount(r httpkit.Router, routes func(httpkit.Router)) {
	if b.Prefix != "" {
		httpkit.MountUnder(r, b.Prefix, b.Mw, routes)
		return
	}
	r.Group(func(g httpkit.Router) {
		if len(b.Mw) > 0 {
			g.Use(b.Mw...)
		}
		routes(g)
	})
}

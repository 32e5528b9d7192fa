// Package http provides the bot-network endpoints
package http

import (
	stdhttp "net/http"

	"satyanetra/internal/modkit/httpkit"
	"satyanetra/internal/services/network/domain"
)

// Register mounts the network routes. detect wraps the on-demand detection route
func Register(r httpkit.Router, s domain.ServicePort, detect ...func(stdhttp.Handler) stdhttp.Handler) {
	h := &handlers{svc: s}

	httpkit.PostJSON(r, "/interactions", h.interaction)
	httpkit.PostJSON(r, "/accounts", h.account)
	httpkit.Get(r, "/clusters", h.clusters)
	httpkit.Get(r, "/stats", h.stats)
	httpkit.Get(r, "/map", h.graphMap)

	r.Group(func(g httpkit.Router) {
		g.Use(detect...)
		httpkit.Post(g, "/clusters/detect", h.detect)
	})
}

type handlers struct{ svc domain.ServicePort }

// swagger:route POST /network/interactions Network recordInteraction
// @Summary Record an interaction between two accounts
// @Tags Network
// @Accept json
// @Produce json
// @Param payload body domain.InteractionInput true "Interaction"
// @Success 200 {object} graph.Edge "accumulated edge"
// @Router /network/interactions [post]
func (h *handlers) interaction(r *stdhttp.Request, in domain.InteractionInput) (any, error) {
	return h.svc.RecordInteraction(r.Context(), in)
}

// @Summary Create or update an account node
// @Router /network/accounts [post]
func (h *handlers) account(r *stdhttp.Request, in domain.AccountInput) (any, error) {
	return h.svc.UpsertAccount(r.Context(), in)
}

// @Summary Latest published cluster set
// @Router /network/clusters [get]
func (h *handlers) clusters(r *stdhttp.Request) (any, error) {
	return h.svc.Clusters(r.Context()), nil
}

// @Router /network/clusters/detect [post]
func (h *handlers) detect(r *stdhttp.Request) (any, error) {
	return h.svc.Detect(r.Context())
}

// @Router /network/stats [get]
func (h *handlers) stats(r *stdhttp.Request) (any, error) {
	return h.svc.Stats(r.Context()), nil
}

// @Router /network/map [get]
func (h *handlers) graphMap(r *stdhttp.Request) (any, error) {
	return h.svc.Map(r.Context()), nil
}

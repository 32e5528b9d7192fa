// Package http provides the analysis endpoints
package http

import (
	stdhttp "net/http"

	"satyanetra/internal/modkit/httpkit"
	"satyanetra/internal/services/analysis/domain"
)

// imageBody fits a 10 MiB image after base64 expansion plus the envelope
const imageBody = 14 << 20

// Register mounts the analysis routes. submit wraps the two submission routes, typically a rate limit
func Register(r httpkit.Router, s domain.ServicePort, submit ...func(stdhttp.Handler) stdhttp.Handler) {
	h := &handlers{svc: s}

	r.Group(func(g httpkit.Router) {
		g.Use(submit...)
		httpkit.PostJSON(g, "/text", h.submitText)
		httpkit.PostJSON(g, "/image", h.submitImage, httpkit.JSONOptions{MaxBytes: imageBody, DisallowUnknown: true})
	})

	httpkit.Get(r, "/{id}", h.get)
	httpkit.Post(r, "/{id}/withdraw", h.withdraw)
	httpkit.Post(r, "/{id}/reanalyze", h.reanalyze)
}

type handlers struct{ svc domain.ServicePort }

// swagger:route POST /analysis/text Analysis submitText
// @Summary Submit text for analysis
// @Tags Analysis
// @Accept json
// @Produce json
// @Param payload body domain.TextInput true "Submission"
// @Success 202 {object} domain.Submitted "queued"
// @Router /analysis/text [post]
func (h *handlers) submitText(r *stdhttp.Request, in domain.TextInput) (any, error) {
	out, err := h.svc.SubmitText(r.Context(), in)
	if err != nil {
		return nil, err
	}
	return httpkit.Accepted(out), nil
}

// swagger:route POST /analysis/image Analysis submitImage
// @Summary Submit a base64 encoded image for analysis
// @Tags Analysis
// @Accept json
// @Produce json
// @Param payload body domain.ImageInput true "Submission"
// @Success 202 {object} domain.Submitted "queued"
// @Router /analysis/image [post]
func (h *handlers) submitImage(r *stdhttp.Request, in domain.ImageInput) (any, error) {
	out, err := h.svc.SubmitImage(r.Context(), in)
	if err != nil {
		return nil, err
	}
	return httpkit.Accepted(out), nil
}

// @Summary Fetch an analysis; status is pending, completed or failed
// @Router /analysis/{id} [get]
func (h *handlers) get(r *stdhttp.Request) (any, error) {
	return h.svc.Get(r.Context(), httpkit.URLParam(r, "id"))
}

// @Router /analysis/{id}/withdraw [post]
func (h *handlers) withdraw(r *stdhttp.Request) (any, error) {
	return h.svc.Withdraw(r.Context(), httpkit.URLParam(r, "id"))
}

// @Router /analysis/{id}/reanalyze [post]
func (h *handlers) reanalyze(r *stdhttp.Request) (any, error) {
	out, err := h.svc.Reanalyze(r.Context(), httpkit.URLParam(r, "id"))
	if err != nil {
		return nil, err
	}
	return httpkit.Accepted(out), nil
}

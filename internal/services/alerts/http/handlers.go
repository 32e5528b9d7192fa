// Package http provides the alert feed endpoints
package http

import (
	stdhttp "net/http"
	"strconv"
	"strings"

	"satyanetra/internal/modkit/httpkit"
	perr "satyanetra/internal/platform/errors"
	"satyanetra/internal/services/alerts/domain"
)

// Register mounts the alert routes. ack wraps the acknowledgement route, typically a role check
func Register(r httpkit.Router, s domain.ServicePort, ack ...func(stdhttp.Handler) stdhttp.Handler) {
	h := &handlers{svc: s}
	httpkit.Get(r, "/", h.list)
	r.Group(func(g httpkit.Router) {
		g.Use(ack...)
		httpkit.Post(g, "/{id}/ack", h.ack)
	})
}

type handlers struct{ svc domain.ServicePort }

// swagger:route GET /alerts Alerts listAlerts
// @Summary List alerts, newest first
// @Tags Alerts
// @Produce json
// @Param limit query int false "max alerts (default 100)"
// @Param min_severity query string false "low|medium|high|critical"
// @Param unacknowledged query bool false "only open alerts"
// @Success 200 {array} domain.Alert
// @Router /alerts [get]
func (h *handlers) list(r *stdhttp.Request) (any, error) {
	f, err := parseFilter(r)
	if err != nil {
		return nil, err
	}
	return h.svc.List(r.Context(), f)
}

// @Summary Acknowledge an alert; requires the analyst role when auth is enabled
// @Router /alerts/{id}/ack [post]
func (h *handlers) ack(r *stdhttp.Request) (any, error) {
	return h.svc.Acknowledge(r.Context(), httpkit.URLParam(r, "id"), httpkit.Subject(r))
}

func parseFilter(r *stdhttp.Request) (domain.ListFilter, error) {
	q := r.URL.Query()
	var f domain.ListFilter
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return f, perr.WithField(perr.InvalidArgf("limit must be a positive integer"), "limit")
		}
		f.Limit = n
	}
	if v := q.Get("min_severity"); v != "" {
		f.MinSeverity = domain.Severity(strings.ToLower(v))
		if f.MinSeverity.Rank() == 0 {
			return f, perr.WithField(perr.InvalidArgf("unknown severity %q", v), "min_severity")
		}
	}
	if v := q.Get("unacknowledged"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, perr.WithField(perr.InvalidArgf("unacknowledged must be a boolean"), "unacknowledged")
		}
		f.Unacknowledged = b
	}
	return f, nil
}

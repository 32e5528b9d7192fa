// Package http provides the trends endpoint
package http

import (
	stdhttp "net/http"
	"strconv"

	"satyanetra/internal/modkit/httpkit"
	perr "satyanetra/internal/platform/errors"
	"satyanetra/internal/services/trends/domain"
)

// DefaultWindows is returned when the query omits windows
const DefaultWindows = 60

// Register mounts GET /
func Register(r httpkit.Router, s domain.ServicePort) {
	httpkit.Get(r, "/", func(req *stdhttp.Request) (any, error) {
		n := DefaultWindows
		if v := req.URL.Query().Get("windows"); v != "" {
			var err error
			if n, err = strconv.Atoi(v); err != nil {
				return nil, perr.WithField(perr.InvalidArgf("windows must be an integer"), "windows")
			}
		}
		return s.Last(req.Context(), n)
	})
}

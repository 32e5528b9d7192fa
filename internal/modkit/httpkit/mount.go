package httpkit

import "net/http"

// APIV1 is the path every module mounts under
const APIV1 = "/api/v1"

// MountUnder mounts routes on a subrouter at prefix with mw applied to them only
func MountUnder(r Router, prefix string, mw []func(http.Handler) http.Handler, routes func(Router)) {
	r.Route(prefix, func(sub Router) {
		sub.Use(mw...)
		routes(sub)
	})
}

// MountAPIV1 mounts the versioned API; mw wraps every module in it
func MountAPIV1(r Router, mw []func(http.Handler) http.Handler, routes func(Router)) {
	MountUnder(r, APIV1, mw, routes)
}

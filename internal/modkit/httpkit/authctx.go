package httpkit

import (
	"net/http"

	pnet "satyanetra/internal/platform/net"
)

// Subject returns the authenticated caller, or "anonymous" when auth is disabled
func Subject(r *http.Request) string {
	if s := pnet.Subject(r.Context()); s != "" {
		return s
	}
	return "anonymous"
}

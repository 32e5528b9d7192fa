package httpkit

import (
	"net/http"
	"time"

	"satyanetra/internal/platform/metrics"
	"satyanetra/internal/platform/net/middleware"
)

// CommonStack is the chain every route gets, websocket streams included
func CommonStack(m *metrics.Metrics, cors middleware.CORSOptions, slow time.Duration) []func(http.Handler) http.Handler {
	mws := middleware.Defaults()
	mws = append(mws,
		middleware.Metrics(m),
		middleware.AccessLogZerolog(middleware.AccessLogOptions{Slow: slow}),
	)
	if len(cors.AllowedOrigins) > 0 {
		mws = append(mws, middleware.CORS(cors))
	}
	return mws
}

// Auth wires the auth middleware to the platform JSON writer
func Auth(p middleware.AuthPort) func(http.Handler) http.Handler {
	return middleware.Auth(p, WriteJSON)
}

// RequireRole gates a route group on a principal role
func RequireRole(role string, authEnabled bool) func(http.Handler) http.Handler {
	return middleware.RequireRole(role, authEnabled, WriteJSON)
}

// RateLimit bounds submissions per caller
func RateLimit(requests int, window time.Duration) func(http.Handler) http.Handler {
	return middleware.RateLimit(middleware.RateLimitOptions{Requests: requests, Window: window}, WriteJSON)
}

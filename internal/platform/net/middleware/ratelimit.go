package middleware

import (
	"net/http"
	"time"

	perr "satyanetra/internal/platform/errors"
	pnet "satyanetra/internal/platform/net"

	"github.com/go-chi/httprate"
)

// RateLimitOptions bounds submissions per caller
type RateLimitOptions struct {
	Requests int
	Window   time.Duration
}

// RateLimit limits by authenticated subject, falling back to client IP.
// Rejections use the standard JSON error envelope with code too_many_requests
func RateLimit(o RateLimitOptions, write func(w http.ResponseWriter, status int, body any)) func(http.Handler) http.Handler {
	if o.Requests <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(o.Requests, o.Window,
		httprate.WithKeyFuncs(subjectOrIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			status, body := pnet.Error(perr.TooManyf("rate limit exceeded"), pnet.RequestID(r.Context()))
			write(w, status, body)
		}),
	)
}

func subjectOrIP(r *http.Request) (string, error) {
	if s := pnet.Subject(r.Context()); s != "" {
		return "sub:" + s, nil
	}
	return httprate.KeyByIP(r)
}

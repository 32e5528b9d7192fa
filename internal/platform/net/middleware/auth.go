package middleware

import (
	"net/http"

	perr "satyanetra/internal/platform/errors"
	"satyanetra/internal/platform/logger"
	pnet "satyanetra/internal/platform/net"
)

// AuthPort resolves the caller from a request
type AuthPort interface {
	Parse(r *http.Request) (pnet.Principal, error)
}

// Auth authenticates requests through p; a nil port lets everything through anonymously
func Auth(p AuthPort, write func(w http.ResponseWriter, status int, body any)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p == nil {
				next.ServeHTTP(w, r)
				return
			}
			pr, err := p.Parse(r)
			if err != nil {
				if _, ok := perr.As(err); !ok {
					err = perr.Wrap(err, perr.ErrorCodeUnauthorized, "unauthorized")
				}
				status, body := pnet.Error(err, pnet.RequestID(r.Context()))
				write(w, status, body)
				return
			}
			ctx := pnet.WithPrincipal(r.Context(), pr)
			ctx = logger.WithRequest(ctx, pnet.RequestID(ctx), pr.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects callers without role. Anonymous callers pass only when auth is disabled
func RequireRole(role string, authEnabled bool, write func(w http.ResponseWriter, status int, body any)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !authEnabled {
				next.ServeHTTP(w, r)
				return
			}
			pr, ok := pnet.PrincipalFrom(r.Context())
			if !ok || !pr.HasRole(role) {
				status, body := pnet.Error(perr.New(perr.ErrorCodeForbidden, "missing role "+role), pnet.RequestID(r.Context()))
				write(w, status, body)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

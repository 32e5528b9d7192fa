// Package net provides request context helpers and transport envelopes
package net

import (
	"context"
	"slices"

	chimw "github.com/go-chi/chi/v5/middleware"
)

type ctxKey string

const keyPrincipal ctxKey = "principal"

// Principal is the authenticated caller
type Principal struct {
	Subject string
	Roles   []string
}

// HasRole reports whether the principal carries role
func (p Principal) HasRole(role string) bool { return slices.Contains(p.Roles, role) }

// WithRequest stores the request id where chimw.GetReqID can find it
func WithRequest(ctx context.Context, reqID string) context.Context {
	if reqID == "" {
		return ctx
	}
	return context.WithValue(ctx, chimw.RequestIDKey, reqID)
}

// WithPrincipal stores the authenticated caller
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	if p.Subject == "" {
		return ctx
	}
	return context.WithValue(ctx, keyPrincipal, p)
}

// RequestID returns the request id on the context if present
func RequestID(ctx context.Context) string { return chimw.GetReqID(ctx) }

// PrincipalFrom returns the caller and whether one was authenticated
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(keyPrincipal).(Principal)
	return p, ok
}

// Subject returns the caller subject or ""
func Subject(ctx context.Context) string {
	p, _ := PrincipalFrom(ctx)
	return p.Subject
}

package net_test

import (
	"context"
	"testing"

	pnet "satyanetra/internal/platform/net"
)

func TestWithRequest(t *testing.T) {
	base := context.Background()
	if pnet.WithRequest(base, "") != base {
		t.Fatalf("empty id should return ctx unchanged")
	}
	if got := pnet.RequestID(pnet.WithRequest(base, "req-123")); got != "req-123" {
		t.Fatalf("RequestID = %q", got)
	}
}

func TestPrincipal(t *testing.T) {
	base := context.Background()
	if _, ok := pnet.PrincipalFrom(base); ok {
		t.Fatalf("no principal expected")
	}
	if pnet.WithPrincipal(base, pnet.Principal{}) != base {
		t.Fatalf("anonymous principal should not be stored")
	}

	ctx := pnet.WithPrincipal(base, pnet.Principal{Subject: "analyst-7", Roles: []string{"analyst"}})
	p, ok := pnet.PrincipalFrom(ctx)
	if !ok || p.Subject != "analyst-7" || pnet.Subject(ctx) != "analyst-7" {
		t.Fatalf("principal = %+v, %v", p, ok)
	}
	if !p.HasRole("analyst") || p.HasRole("admin") {
		t.Fatalf("HasRole mismatch for %v", p.Roles)
	}
}

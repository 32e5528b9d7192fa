package module_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"satyanetra/internal/adapters/capability"
	modkit "satyanetra/internal/modkit"
	"satyanetra/internal/modkit/httpkit"
	"satyanetra/internal/platform/config"
	phttp "satyanetra/internal/platform/net/http"
	metahttp "satyanetra/internal/services/meta/http"
	metamod "satyanetra/internal/services/meta/module"
	network "satyanetra/internal/services/network/domain"
)

type workers struct{ running bool }

func (w workers) Running() bool   { return w.running }
func (w workers) Workers() int    { return 4 }
func (w workers) QueueDepth() int { return 2 }

type detection struct{ lastErr string }

func (d detection) Stats(context.Context) network.Stats {
	return network.Stats{Accounts: 13, Edges: 12, Epoch: 3, TotalNetworks: 2}
}
func (d detection) LastError() string { return d.lastErr }

func health(t *testing.T, probes ...metahttp.Probe) metahttp.HealthResponse {
	t.Helper()
	m := metamod.New(modkit.Deps{}, "satyanetra-api", probes)
	srv := phttp.NewServer(config.New().Prefix("T_META_"))
	httpkit.MountAPIV1(srv.Router(), nil, m.MountRoutes)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/meta/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health = %d", rec.Code)
	}
	var env struct {
		Data metahttp.HealthResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return env.Data
}

func TestHealthRollsUpComponents(t *testing.T) {
	cases := []struct {
		name   string
		probes []metahttp.Probe
		ok     bool
		status string
	}{
		{"all ok", []metahttp.Probe{
			metamod.AnalysisProbe(workers{running: true}),
			metamod.GraphProbe(detection{}),
			metamod.DetectorProbe(detection{}),
			metamod.BreakerProbe("inference", func() capability.State { return capability.StateClosed }),
			metamod.BreakerProbe("ocr", nil),
		}, true, metahttp.StatusOK},
		{"detector failing", []metahttp.Probe{
			metamod.AnalysisProbe(workers{running: true}),
			metamod.DetectorProbe(detection{lastErr: "detection budget exceeded"}),
		}, true, metahttp.StatusDegraded},
		{"breaker open", []metahttp.Probe{
			metamod.DetectorProbe(detection{lastErr: "x"}),
			metamod.BreakerProbe("inference", func() capability.State { return capability.StateOpen }),
		}, false, metahttp.StatusDown},
		{"workers stopped", []metahttp.Probe{metamod.AnalysisProbe(workers{})}, false, metahttp.StatusDown},
	}
	for _, tc := range cases {
		got := health(t, tc.probes...)
		if got.OK != tc.ok || got.Status != tc.status || len(got.Components) != len(tc.probes) {
			t.Fatalf("%s: %+v", tc.name, got)
		}
		if got.Service != "satyanetra-api" {
			t.Fatalf("%s: service = %q", tc.name, got.Service)
		}
	}
}

func TestProbeDetails(t *testing.T) {
	ctx := context.Background()
	if c := metamod.BreakerProbe("ocr", nil)(ctx); c.Status != metahttp.StatusDisabled {
		t.Fatalf("unconfigured breaker = %+v", c)
	}
	half := metamod.BreakerProbe("inference", func() capability.State { return capability.StateHalfOpen })(ctx)
	if half.Status != metahttp.StatusDegraded || half.Detail != "circuit half-open" {
		t.Fatalf("half-open = %+v", half)
	}
	g := metamod.GraphProbe(detection{})(ctx)
	if g.Info["accounts"] != 13 || g.Info["edges"] != 12 {
		t.Fatalf("graph = %+v", g)
	}
	d := metamod.DetectorProbe(detection{lastErr: "boom"})(ctx)
	if d.Detail != "boom" || d.Info["epoch"] != int64(3) {
		t.Fatalf("detector = %+v", d)
	}
}

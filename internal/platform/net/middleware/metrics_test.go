package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"satyanetra/internal/platform/metrics"
	"satyanetra/internal/platform/net/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_LabelsByRoutePattern(t *testing.T) {
	m := metrics.Discard()
	r := chi.NewRouter()
	r.Use(middleware.Metrics(m))
	r.Get("/api/v1/analysis/{id}", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(404) })

	for _, id := range []string{"a", "b"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/analysis/"+id, nil))
	}
	got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/api/v1/analysis/{id}", "404"))
	if got != 2 {
		t.Fatalf("requests counter = %v", got)
	}
}

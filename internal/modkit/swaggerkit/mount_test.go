package swaggerkit

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"satyanetra/internal/platform/config"
	phttp "satyanetra/internal/platform/net/http"
)

func TestMount(t *testing.T) {
	srv := phttp.NewServer(config.New().Prefix("T_SW_"))
	Mount(srv.Router(), true)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/docs/doc.json", nil))
	var doc struct {
		Paths map[string]any `json:"paths"`
	}
	if rec.Code != 200 || json.Unmarshal(rec.Body.Bytes(), &doc) != nil {
		t.Fatalf("doc.json: %d %s", rec.Code, rec.Body.String())
	}
	if _, ok := doc.Paths["/api/v1/analysis/text"]; !ok {
		t.Fatalf("analysis route missing from doc")
	}

	off := phttp.NewServer(config.New().Prefix("T_SW_"))
	Mount(off.Router(), false)
	rec = httptest.NewRecorder()
	off.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/docs/doc.json", nil))
	if rec.Code != 404 {
		t.Fatalf("disabled docs should 404, got %d", rec.Code)
	}
}

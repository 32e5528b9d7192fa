package module_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	modkit "satyanetra/internal/modkit"
	"satyanetra/internal/modkit/httpkit"
	"satyanetra/internal/platform/config"
	phttp "satyanetra/internal/platform/net/http"
	"satyanetra/internal/platform/testkit"
	analysismod "satyanetra/internal/services/analysis/module"
	"satyanetra/internal/services/analysis/service"
)

type envelope struct {
	StatusCode int             `json:"status_code"`
	Data       json.RawMessage `json:"data"`
}

func do(t *testing.T, h http.Handler, method, path, body string) (int, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: decode %q: %v", method, path, rec.Body.String(), err)
	}
	return rec.Code, env
}

func TestRoutes(t *testing.T) {
	m, err := analysismod.New(modkit.Deps{}, analysismod.Options{Service: service.Config{Workers: 1}})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	srv := phttp.NewServer(config.New().Prefix("T_ANALYSIS_"))
	httpkit.MountAPIV1(srv.Router(), nil, m.MountRoutes)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = m.Run(ctx) }()

	code, env := do(t, srv.Handler(), http.MethodPost, "/api/v1/analysis/text",
		`{"text":"URGENT: they are lying to you, trust no official source!!!","source_handle":"@loud"}`)
	if code != http.StatusAccepted {
		t.Fatalf("submit = %d", code)
	}
	var ack struct {
		ID string `json:"analysis_id"`
	}
	_ = json.Unmarshal(env.Data, &ack)
	if ack.ID == "" {
		t.Fatalf("no id in %s", env.Data)
	}

	testkit.Eventually(t, 2*time.Second, func() bool {
		_, env := do(t, srv.Handler(), http.MethodGet, "/api/v1/analysis/"+ack.ID, "")
		var rec struct {
			Status string `json:"status"`
			Result struct {
				Score float64 `json:"score"`
			} `json:"result"`
		}
		_ = json.Unmarshal(env.Data, &rec)
		return rec.Status == "completed" && rec.Result.Score == 87.7
	}, "analysis never completed")

	cases := []struct {
		method, path, body string
		want               int
	}{
		{http.MethodPost, "/api/v1/analysis/text", `{"text":""}`, http.StatusBadRequest},
		{http.MethodPost, "/api/v1/analysis/text", `{"text":"ok","source_handle":"not a handle!"}`, http.StatusBadRequest},
		{http.MethodPost, "/api/v1/analysis/text", `{"text":"   "}`, http.StatusUnprocessableEntity},
		{http.MethodPost, "/api/v1/analysis/image", `{"data":"aGVsbG8="}`, http.StatusUnprocessableEntity},
		{http.MethodGet, "/api/v1/analysis/missing", "", http.StatusNotFound},
		{http.MethodPost, "/api/v1/analysis/" + ack.ID + "/withdraw", "", http.StatusConflict},
	}
	for _, tc := range cases {
		if code, _ := do(t, srv.Handler(), tc.method, tc.path, tc.body); code != tc.want {
			t.Fatalf("%s %s = %d, want %d", tc.method, tc.path, code, tc.want)
		}
	}
}

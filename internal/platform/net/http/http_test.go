package http_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"satyanetra/internal/platform/config"
	perr "satyanetra/internal/platform/errors"
	pnet "satyanetra/internal/platform/net"
	phttp "satyanetra/internal/platform/net/http"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) pnet.Wire {
	t.Helper()
	var w pnet.Wire
	if err := json.Unmarshal(rec.Body.Bytes(), &w); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return w
}

func withReqID(method, target, body, id string) *http.Request {
	r := httptest.NewRequest(method, target, strings.NewReader(body))
	return r.WithContext(pnet.WithRequest(r.Context(), id))
}

func TestHandle_StatusAndEnvelope(t *testing.T) {
	cases := []struct {
		name   string
		resp   phttp.Response
		status int
		code   perr.ErrorCode
	}{
		{"ok", phttp.OK("x"), 200, 0},
		{"zero status", phttp.Response{Body: "x"}, 200, 0},
		{"accepted", phttp.Accepted(map[string]string{"id": "c1"}), 202, 0},
		{"error", phttp.Error(perr.TooManyf("queue full")), 429, perr.ErrorCodeTooManyRequests},
		{"teapot", phttp.Response{Status: 418, Body: "x"}, 418, 0},
	}
	for _, c := range cases {
		rec := httptest.NewRecorder()
		phttp.Handle(func(*http.Request) phttp.Response { return c.resp })(rec, withReqID("GET", "/", "", "rid-1"))
		if rec.Code != c.status {
			t.Fatalf("%s: status %d want %d", c.name, rec.Code, c.status)
		}
		w := decode(t, rec)
		if w.StatusCode != c.status || w.RequestID != "rid-1" || w.Code != c.code {
			t.Fatalf("%s: envelope %+v", c.name, w)
		}
	}

	rec := httptest.NewRecorder()
	phttp.Handle(func(*http.Request) phttp.Response {
		return phttp.Response{Status: 204, Header: http.Header{"X-Trace": {"t"}}}
	})(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != 204 || rec.Body.Len() != 0 || rec.Header().Get("X-Trace") != "t" {
		t.Fatalf("no content: %d %q %v", rec.Code, rec.Body.String(), rec.Header())
	}
}

type submit struct {
	Text string `json:"text" validate:"required"`
}

func TestJSONHandler(t *testing.T) {
	h := phttp.JSONHandler(func(_ *http.Request, in submit) (any, error) {
		if in.Text == "boom" {
			return nil, perr.ModelUnavailablef("down")
		}
		return phttp.Accepted(map[string]string{"echo": in.Text}), nil
	})

	rec := httptest.NewRecorder()
	h(rec, withReqID("POST", "/", `{"text":"hi"}`, "r"))
	if rec.Code != 202 {
		t.Fatalf("accepted: %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h(rec, withReqID("POST", "/", `{"text":""}`, "r"))
	if rec.Code != 400 || decode(t, rec).Code != perr.ErrorCodeValidation {
		t.Fatalf("validation: %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h(rec, withReqID("POST", "/", `{"text":"boom"}`, "r"))
	if rec.Code != 503 {
		t.Fatalf("model error: %d", rec.Code)
	}
}

func TestRouterSeam(t *testing.T) {
	srv := phttp.NewServer(config.New().Prefix("T_API_"))
	if srv.Addr() != ":8000" {
		t.Fatalf("default addr = %q", srv.Addr())
	}
	r := srv.Router()
	var hits []string
	r.Route("/api/v1", func(v1 phttp.Router) {
		v1.Group(func(g phttp.Router) {
			g.Use(func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					hits = append(hits, "mw")
					next.ServeHTTP(w, r)
				})
			})
			phttp.GetJSON(g, "/things/{id}", func(r *http.Request) (any, error) {
				return map[string]string{"id": phttp.URLParam(r, "id")}, nil
			})
			phttp.PostNoBody(g, "/things/{id}/ack", func(r *http.Request) (any, error) {
				return nil, perr.NotFoundf("no thing %s", phttp.URLParam(r, "id"))
			})
		})
	})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/things/42", nil))
	if rec.Code != 200 || !strings.Contains(rec.Body.String(), `"id":"42"`) {
		t.Fatalf("get: %d %s", rec.Code, rec.Body.String())
	}
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("POST", "/api/v1/things/7/ack", nil))
	if rec.Code != 404 {
		t.Fatalf("ack: %d", rec.Code)
	}
	if len(hits) != 2 {
		t.Fatalf("group middleware hits = %v", hits)
	}
}

func TestServerRunStopsOnCancel(t *testing.T) {
	t.Setenv("T_RUN_PORT", "127.0.0.1:0")
	srv := phttp.NewServer(config.New().Prefix("T_RUN_"))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, time.Second) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run = %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
}

func TestProfilerMount(t *testing.T) {
	srv := phttp.NewServer(config.New().Prefix("T_PP_"))
	phttp.MountProfiler(srv.Router(), "/debug", true)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/debug/pprof/cmdline", nil))
	body, _ := io.ReadAll(rec.Body)
	if rec.Code != 200 || len(body) == 0 {
		t.Fatalf("pprof: %d", rec.Code)
	}
}

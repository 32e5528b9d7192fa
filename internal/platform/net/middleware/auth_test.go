package middleware_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	perr "satyanetra/internal/platform/errors"
	pnet "satyanetra/internal/platform/net"
	"satyanetra/internal/platform/net/middleware"
)

type fakeAuthPort struct {
	p   pnet.Principal
	err error
}

func (f fakeAuthPort) Parse(*http.Request) (pnet.Principal, error) { return f.p, f.err }

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestAuth(t *testing.T) {
	cases := []struct {
		name     string
		port     middleware.AuthPort
		wantCode int
		wantSub  string
	}{
		{"nil port passes", nil, 200, ""},
		{"foreign error maps to 401", fakeAuthPort{err: errors.New("nope")}, 401, ""},
		{"project error keeps code", fakeAuthPort{err: perr.TooManyf("slow down")}, 429, ""},
		{"principal lands on ctx", fakeAuthPort{p: pnet.Principal{Subject: "u1"}}, 200, "u1"},
	}
	for _, c := range cases {
		var seen string
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = pnet.Subject(r.Context())
			w.WriteHeader(200)
		})
		rr := serve(middleware.Auth(c.port, writeJSON)(next), httptest.NewRequest(http.MethodGet, "/", nil))
		if rr.Code != c.wantCode || seen != c.wantSub {
			t.Fatalf("%s: code %d subject %q", c.name, rr.Code, seen)
		}
	}
}

func TestRequireRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	req := func(p *pnet.Principal) *http.Request {
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		if p != nil {
			r = r.WithContext(pnet.WithPrincipal(r.Context(), *p))
		}
		return r
	}

	if rr := serve(middleware.RequireRole("analyst", false, writeJSON)(ok), req(nil)); rr.Code != 200 {
		t.Fatalf("auth disabled should pass, got %d", rr.Code)
	}
	if rr := serve(middleware.RequireRole("analyst", true, writeJSON)(ok), req(nil)); rr.Code != 403 {
		t.Fatalf("anonymous should be forbidden, got %d", rr.Code)
	}
	viewer := &pnet.Principal{Subject: "v", Roles: []string{"viewer"}}
	if rr := serve(middleware.RequireRole("analyst", true, writeJSON)(ok), req(viewer)); rr.Code != 403 {
		t.Fatalf("viewer should be forbidden, got %d", rr.Code)
	}
	analyst := &pnet.Principal{Subject: "a", Roles: []string{"analyst"}}
	if rr := serve(middleware.RequireRole("analyst", true, writeJSON)(ok), req(analyst)); rr.Code != 200 {
		t.Fatalf("analyst should pass, got %d", rr.Code)
	}
}

func TestJWTAuth(t *testing.T) {
	a := &middleware.JWTAuth{Secret: []byte("s3cret"), Issuer: "satyanetra"}
	tok, err := a.Sign("analyst-1", []string{"analyst"}, time.Minute)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+tok)
	p, err := a.Parse(r)
	if err != nil || p.Subject != "analyst-1" || !p.HasRole("analyst") {
		t.Fatalf("Parse = %+v, %v", p, err)
	}

	ws := httptest.NewRequest(http.MethodGet, "/stream?access_token="+tok, nil)
	if p, err := a.Parse(ws); err != nil || p.Subject != "analyst-1" {
		t.Fatalf("query token = %+v, %v", p, err)
	}

	expired, _ := a.Sign("analyst-1", nil, -time.Minute)
	other := &middleware.JWTAuth{Secret: []byte("other"), Issuer: "satyanetra"}
	forged, _ := other.Sign("analyst-1", nil, time.Minute)
	wrongIss, _ := (&middleware.JWTAuth{Secret: []byte("s3cret"), Issuer: "elsewhere"}).Sign("x", nil, time.Minute)

	for name, tok := range map[string]string{"missing": "", "expired": expired, "forged": forged, "issuer": wrongIss} {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if tok != "" {
			r.Header.Set("Authorization", "Bearer "+tok)
		}
		if _, err := a.Parse(r); !perr.IsCode(err, perr.ErrorCodeUnauthorized) {
			t.Fatalf("%s: err = %v, want unauthorized", name, err)
		}
	}
}

func TestRateLimit(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(202) })
	h := middleware.RateLimit(middleware.RateLimitOptions{Requests: 2, Window: time.Minute}, writeJSON)(ok)

	codes := make([]int, 0, 3)
	for range 3 {
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		r.RemoteAddr = "10.0.0.9:5555"
		codes = append(codes, serve(h, r).Code)
	}
	if codes[0] != 202 || codes[1] != 202 || codes[2] != 429 {
		t.Fatalf("codes = %v", codes)
	}

	off := middleware.RateLimit(middleware.RateLimitOptions{}, writeJSON)(ok)
	for range 5 {
		if rr := serve(off, httptest.NewRequest(http.MethodPost, "/", nil)); rr.Code != 202 {
			t.Fatalf("disabled limiter rejected a request")
		}
	}
}

func TestRecoverJSON(t *testing.T) {
	boom := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("kaboom") })
	rr := serve(middleware.RecoverJSON(boom), httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != 500 {
		t.Fatalf("status = %d", rr.Code)
	}
	var w pnet.Wire
	if err := json.Unmarshal(rr.Body.Bytes(), &w); err != nil || w.Code != perr.ErrorCodePanic {
		t.Fatalf("body = %s (%v)", rr.Body.String(), err)
	}
}

package middleware_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"satyanetra/internal/platform/net/middleware"
)

func TestAccessLogZerolog_IsTransparent(t *testing.T) {
	cases := []struct {
		name   string
		opt    middleware.AccessLogOptions
		status int
		writes []string
	}{
		{"created", middleware.AccessLogOptions{}, http.StatusCreated, []string{"ok"}},
		{"slow marked", middleware.AccessLogOptions{Slow: time.Nanosecond}, http.StatusOK, []string{"slow"}},
		{"multi write", middleware.AccessLogOptions{}, http.StatusOK, []string{"hi", "there"}},
		{"server error", middleware.AccessLogOptions{}, http.StatusServiceUnavailable, nil},
	}
	for _, c := range cases {
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(c.status)
			for _, s := range c.writes {
				_, _ = io.WriteString(w, s)
			}
		})
		rr := httptest.NewRecorder()
		middleware.AccessLogZerolog(c.opt)(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/x", nil))

		want := ""
		for _, s := range c.writes {
			want += s
		}
		if rr.Code != c.status || rr.Body.String() != want {
			t.Fatalf("%s: got %d %q", c.name, rr.Code, rr.Body.String())
		}
	}
}

func TestAccessLogKeepsFlushReachable(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rc := http.NewResponseController(w)
		if err := rc.Flush(); err != nil {
			t.Errorf("flush through access log writer: %v", err)
		}
	})
	middleware.AccessLogZerolog(middleware.AccessLogOptions{})(next).
		ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

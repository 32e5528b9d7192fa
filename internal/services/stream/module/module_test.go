package module_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"satyanetra/internal/core/pubsub"
	"satyanetra/internal/core/scoring"
	"satyanetra/internal/modkit/httpkit"
	"satyanetra/internal/platform/config"
	phttp "satyanetra/internal/platform/net/http"
	"satyanetra/internal/platform/testkit"
	alerts "satyanetra/internal/services/alerts/domain"
	analysis "satyanetra/internal/services/analysis/domain"
	streamhttp "satyanetra/internal/services/stream/http"
	streammod "satyanetra/internal/services/stream/module"

	"github.com/gorilla/websocket"
)

func setup(t *testing.T) (*streammod.Module, *pubsub.Topic[analysis.Event], *pubsub.Topic[alerts.Alert], string) {
	t.Helper()
	results := pubsub.NewTopic[analysis.Event]("results", 4, nil)
	feed := pubsub.NewTopic[alerts.Alert]("alerts", 4, nil)
	m := streammod.New(streammod.Options{Results: results, Alerts: feed})
	srv := phttp.NewServer(config.New().Prefix("T_STREAM_"))
	httpkit.MountAPIV1(srv.Router(), nil, m.MountRoutes)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return m, results, feed, "ws" + strings.TrimPrefix(ts.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestResultStream(t *testing.T) {
	m, results, _, base := setup(t)
	conn := dial(t, base+"/api/v1/stream/results")
	testkit.Eventually(t, time.Second, func() bool { return results.Subscribers() == 1 }, "stream never subscribed")

	results.Publish(analysis.Event{Result: scoring.Result{ContentID: "c1", Score: 88}, Revision: 1})

	var msg streamhttp.Message[analysis.Event]
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != "result" || msg.Data.ContentID != "c1" || msg.Data.Score != 88 || msg.Dropped != 0 {
		t.Fatalf("message = %+v", msg)
	}
	if m.Active() != 1 {
		t.Fatalf("active = %d", m.Active())
	}

	// a client hang-up releases the subscription
	_ = conn.Close()
	testkit.Eventually(t, 2*time.Second, func() bool { return results.Subscribers() == 0 }, "subscription leaked")
}

func TestAlertStreamClosesOnShutdown(t *testing.T) {
	m, _, feed, base := setup(t)
	conn := dial(t, base+"/api/v1/stream/alerts")
	testkit.Eventually(t, time.Second, func() bool { return feed.Subscribers() == 1 }, "stream never subscribed")

	feed.Publish(alerts.Alert{ID: "a1", Severity: alerts.SeverityCritical})
	var msg streamhttp.Message[alerts.Alert]
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil || msg.Type != "alert" || msg.Data.ID != "a1" {
		t.Fatalf("message = %+v, %v", msg, err)
	}

	m.Close()
	_, _, err := conn.ReadMessage()
	var ce *websocket.CloseError
	if !errors.As(err, &ce) || ce.Code != websocket.CloseGoingAway {
		t.Fatalf("read after close = %v", err)
	}
}

func TestPlainRequestIsRejected(t *testing.T) {
	_, _, _, base := setup(t)
	url := "http" + strings.TrimPrefix(base, "ws") + "/api/v1/stream/results"
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("plain GET = %d", resp.StatusCode)
	}
}

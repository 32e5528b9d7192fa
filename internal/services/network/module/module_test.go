package module_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"satyanetra/internal/core/cluster"
	modkit "satyanetra/internal/modkit"
	"satyanetra/internal/modkit/httpkit"
	"satyanetra/internal/platform/config"
	phttp "satyanetra/internal/platform/net/http"
	"satyanetra/internal/platform/schedule"
	networkmod "satyanetra/internal/services/network/module"
)

type envelope struct {
	Data json.RawMessage `json:"data"`
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
	m, err := networkmod.New(modkit.Deps{}, networkmod.Options{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	srv := phttp.NewServer(config.New().Prefix("T_NETWORK_"))
	httpkit.MountAPIV1(srv.Router(), nil, m.MountRoutes)
	h := srv.Handler()

	for _, body := range []string{
		`{"a":"fan1","b":"fan2","weight":1,"kind":"shared_hashtag"}`,
		`{"a":"fan2","b":"fan3","weight":1,"kind":"shared_hashtag"}`,
		`{"a":"@fan3","b":"fan1","weight":1,"kind":"shared_hashtag"}`,
	} {
		if code, _ := do(t, h, http.MethodPost, "/api/v1/network/interactions", body); code != http.StatusOK {
			t.Fatalf("interaction %s = %d", body, code)
		}
	}
	if code, _ := do(t, h, http.MethodPost, "/api/v1/network/accounts", `{"handle":"quiet","inactive":true}`); code != http.StatusOK {
		t.Fatalf("account = %d", code)
	}

	code, env := do(t, h, http.MethodPost, "/api/v1/network/clusters/detect", "")
	if code != http.StatusOK {
		t.Fatalf("detect = %d", code)
	}
	var set cluster.Set
	if err := json.Unmarshal(env.Data, &set); err != nil {
		t.Fatalf("decode set: %v", err)
	}
	if set.Epoch != 1 || len(set.Clusters) != 1 || len(set.Clusters[0].Members) != 3 {
		t.Fatalf("set = %+v", set)
	}

	_, env = do(t, h, http.MethodGet, "/api/v1/network/stats", "")
	var st struct {
		TotalNetworks int `json:"total_networks"`
		Accounts      int `json:"accounts"`
	}
	_ = json.Unmarshal(env.Data, &st)
	if st.TotalNetworks != 1 || st.Accounts != 4 {
		t.Fatalf("stats = %s", env.Data)
	}

	_, env = do(t, h, http.MethodGet, "/api/v1/network/map", "")
	var mp struct {
		Nodes []json.RawMessage `json:"nodes"`
		Edges []json.RawMessage `json:"edges"`
	}
	_ = json.Unmarshal(env.Data, &mp)
	if len(mp.Nodes) != 3 || len(mp.Edges) != 3 {
		t.Fatalf("map = %s", env.Data)
	}

	cases := []struct {
		path, body string
		want       int
	}{
		{"/api/v1/network/interactions", `{"a":"x","b":"x","weight":1}`, http.StatusBadRequest},
		{"/api/v1/network/interactions", `{"a":"x","b":"y","weight":0}`, http.StatusBadRequest},
		{"/api/v1/network/interactions", `{"a":"x","b":"y","weight":1,"kind":"telepathy"}`, http.StatusBadRequest},
		{"/api/v1/network/accounts", `{"handle":""}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		if code, _ := do(t, h, http.MethodPost, tc.path, tc.body); code != tc.want {
			t.Fatalf("%s %s = %d, want %d", tc.path, tc.body, code, tc.want)
		}
	}
}

func TestFromConfig(t *testing.T) {
	t.Setenv("CORE_NETWORK_ALGORITHM", "louvain")
	t.Setenv("CORE_NETWORK_INTERVAL", "30s")
	t.Setenv("CORE_NETWORK_RULES", `[{"level":"high","min_size":4,"min_avg_weight":2}]`)
	o, err := networkmod.FromConfig(config.New())
	if err != nil {
		t.Fatalf("from config: %v", err)
	}
	if o.Service.Cluster.Algorithm != cluster.AlgorithmLouvain || o.Service.Interval != 30*time.Second {
		t.Fatalf("options = %+v", o.Service)
	}
	if len(o.Service.Cluster.Rules) != 1 || o.Service.Cluster.Rules[0].Level != cluster.RiskHigh {
		t.Fatalf("rules = %+v", o.Service.Cluster.Rules)
	}

	t.Setenv("CORE_NETWORK_RULES", `[{"level":"apocalyptic"}]`)
	if _, err := networkmod.FromConfig(config.New()); err == nil {
		t.Fatalf("expected rule error")
	}
}

func TestSchedule(t *testing.T) {
	m, err := networkmod.New(modkit.Deps{}, networkmod.Options{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	sc, err := schedule.New()
	if err != nil {
		t.Fatalf("scheduler: %v", err)
	}
	defer func() { _ = sc.Shutdown() }()
	if err := m.Schedule(t.Context(), sc); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if sc.Jobs() != 1 {
		t.Fatalf("jobs = %d", sc.Jobs())
	}
}

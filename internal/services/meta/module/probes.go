package module

import (
	"context"
	"fmt"

	"satyanetra/internal/adapters/capability"
	metahttp "satyanetra/internal/services/meta/http"
	network "satyanetra/internal/services/network/domain"
)

// Workers is the analysis pool surface the health probe reads
type Workers interface {
	Running() bool
	Workers() int
	QueueDepth() int
}

// AnalysisProbe reports the worker pool; a stopped pool is down
func AnalysisProbe(w Workers) metahttp.Probe {
	return func(context.Context) metahttp.Component {
		c := metahttp.Component{
			Name:   "analysis",
			Status: metahttp.StatusOK,
			Detail: fmt.Sprintf("%d workers", w.Workers()),
			Info:   map[string]any{"workers": w.Workers(), "queued": w.QueueDepth()},
		}
		if !w.Running() {
			c.Status, c.Detail = metahttp.StatusDown, "worker pool not running"
		}
		return c
	}
}

// Detection is the network surface the graph and detector probes read
type Detection interface {
	Stats(ctx context.Context) network.Stats
	LastError() string
}

// GraphProbe reports graph size
func GraphProbe(d Detection) metahttp.Probe {
	return func(ctx context.Context) metahttp.Component {
		st := d.Stats(ctx)
		return metahttp.Component{
			Name:   "graph",
			Status: metahttp.StatusOK,
			Info:   map[string]any{"accounts": st.Accounts, "edges": st.Edges},
		}
	}
}

// DetectorProbe is degraded while the most recent run failed; the previous set is still served
func DetectorProbe(d Detection) metahttp.Probe {
	return func(ctx context.Context) metahttp.Component {
		st := d.Stats(ctx)
		c := metahttp.Component{
			Name:   "detector",
			Status: metahttp.StatusOK,
			Info:   map[string]any{"epoch": st.Epoch, "clusters": st.TotalNetworks},
		}
		if !st.DetectedAt.IsZero() {
			c.Info["detected_at"] = st.DetectedAt
		}
		if msg := d.LastError(); msg != "" {
			c.Status, c.Detail = metahttp.StatusDegraded, msg
		}
		return c
	}
}

// BreakerProbe maps a capability breaker onto a status. A nil state func means the capability
// is not configured
func BreakerProbe(name string, state func() capability.State) metahttp.Probe {
	return func(context.Context) metahttp.Component {
		if state == nil {
			return metahttp.Component{Name: name, Status: metahttp.StatusDisabled}
		}
		s := state()
		c := metahttp.Component{Name: name, Status: metahttp.StatusOK, Detail: "circuit " + s.String()}
		switch s {
		case capability.StateHalfOpen:
			c.Status = metahttp.StatusDegraded
		case capability.StateOpen:
			c.Status = metahttp.StatusDown
		}
		return c
	}
}

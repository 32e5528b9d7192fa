// Package service owns the account graph and the cluster detector. Graph writes never wait on
// detection: runs work on snapshots, scheduled runs are singletons and on-demand runs coalesce.
package service

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"satyanetra/internal/core/cluster"
	"satyanetra/internal/core/graph"
	"satyanetra/internal/core/pubsub"
	perr "satyanetra/internal/platform/errors"
	"satyanetra/internal/platform/logger"
	"satyanetra/internal/platform/metrics"
	analysis "satyanetra/internal/services/analysis/domain"
	"satyanetra/internal/services/network/domain"

	"golang.org/x/sync/singleflight"
)

// Config tunes the graph and detection
type Config struct {
	Shards       int
	Cluster      cluster.Config
	Interval     time.Duration
	StreamBuffer int
	// ThreatFloor is the result score counted toward detection_rate
	ThreatFloor float64
	// FlagFloor is the tier at which an account counts as suspicious
	FlagFloor cluster.RiskLevel
}

func (c Config) normalized() Config {
	if c.Interval <= 0 {
		c.Interval = time.Minute
	}
	if c.ThreatFloor <= 0 {
		c.ThreatFloor = 50
	}
	if !c.FlagFloor.Valid() {
		c.FlagFloor = cluster.RiskMedium
	}
	if c.Cluster.RiskWindow <= 0 {
		c.Cluster.RiskWindow = 24 * time.Hour
	}
	return c
}

// Svc implements domain.ServicePort
type Svc struct {
	cfg   Config
	g     *graph.Store
	det   *cluster.Detector
	topic *pubsub.Topic[domain.ClusterEvent]
	sf    singleflight.Group
	m     *metrics.Metrics
	now   func() time.Time

	analyzed atomic.Int64
	threats  atomic.Int64
	lastErr  atomic.Pointer[string]
}

var _ domain.ServicePort = (*Svc)(nil)

// New builds the service
func New(cfg Config, m *metrics.Metrics) (*Svc, error) {
	cfg = cfg.normalized()
	det, err := cluster.NewDetector(cfg.Cluster)
	if err != nil {
		return nil, err
	}
	if m == nil {
		m = metrics.Discard()
	}
	return &Svc{
		cfg:   cfg,
		g:     graph.NewStore(cfg.Shards),
		det:   det,
		topic: pubsub.NewTopic[domain.ClusterEvent]("clusters", cfg.StreamBuffer, m.StreamDropped.WithLabelValues("clusters")),
		m:     m,
		now:   time.Now,
	}, nil
}

// Graph exposes the store for invariant checks
func (s *Svc) Graph() *graph.Store { return s.g }

// Topic is the cluster publication topic
func (s *Svc) Topic() *pubsub.Topic[domain.ClusterEvent] { return s.topic }

// Interval is the scheduled detection period
func (s *Svc) Interval() time.Duration { return s.cfg.Interval }

// LastError is the message of the most recent failed run, if the last run failed
func (s *Svc) LastError() string {
	if p := s.lastErr.Load(); p != nil {
		return *p
	}
	return ""
}

// Subscribe implements domain.ServicePort
func (s *Svc) Subscribe() *pubsub.Subscription[domain.ClusterEvent] { return s.topic.Subscribe() }

// RecordInteraction implements domain.ServicePort
func (s *Svc) RecordInteraction(_ context.Context, in domain.InteractionInput) (graph.Edge, error) {
	kind := graph.Kind(in.Kind)
	if kind == "" {
		kind = graph.KindInteraction
	}
	at := in.At
	if at.IsZero() {
		at = s.now()
	}
	e, err := s.g.RecordInteraction(in.A, in.B, in.Weight, at, kind)
	if err != nil {
		return graph.Edge{}, err
	}
	s.gauges()
	return e, nil
}

// UpsertAccount implements domain.ServicePort
func (s *Svc) UpsertAccount(_ context.Context, in domain.AccountInput) (graph.Node, error) {
	n, err := s.g.UpsertNode(in.Handle, in.CreatedAt)
	if err != nil {
		return graph.Node{}, err
	}
	if in.Inactive {
		if err := s.g.MarkInactive(n.Handle); err != nil {
			return graph.Node{}, err
		}
		n, _ = s.g.Node(n.Handle)
	}
	s.gauges()
	return n, nil
}

// Clusters implements domain.ServicePort
func (s *Svc) Clusters(context.Context) cluster.Set { return s.det.Current() }

// Detect runs detection now. Concurrent callers share one run; a caller whose ctx ends stops
// waiting but the run itself continues under the detector budget.
func (s *Svc) Detect(ctx context.Context) (cluster.Set, error) {
	ch := s.sf.DoChan("detect", func() (any, error) {
		return s.detect(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return s.det.Current(), perr.Wrap(ctx.Err(), perr.ErrorCodeDetectionTimeout, "detection still running")
	case r := <-ch:
		set, _ := r.Val.(cluster.Set)
		return set, r.Err
	}
}

// RunScheduled is the periodic job body
func (s *Svc) RunScheduled(ctx context.Context) {
	if _, err := s.Detect(ctx); err != nil {
		logger.Named("network").Warn().Err(err).Msg("scheduled detection failed")
	}
}

func (s *Svc) detect(ctx context.Context) (cluster.Set, error) {
	log := logger.Named("network")
	start := s.now()
	snap := s.g.Snapshot()
	prev := s.det.Current()

	next, err := s.det.Detect(ctx, snap)
	if err != nil {
		outcome := "error"
		if perr.IsCode(err, perr.ErrorCodeDetectionTimeout) {
			outcome = "timeout"
		}
		s.m.ClusterRuns.WithLabelValues(outcome).Inc()
		msg := err.Error()
		s.lastErr.Store(&msg)
		log.Warn().Err(err).Int("nodes", len(snap.Nodes)).Msg("cluster detection failed; previous set kept")
		return next, err
	}
	s.lastErr.Store(nil)
	s.m.ClusterRuns.WithLabelValues("ok").Inc()

	levels := map[cluster.RiskLevel]int{cluster.RiskLow: 0, cluster.RiskMedium: 0, cluster.RiskHigh: 0, cluster.RiskCritical: 0}
	for _, c := range next.Clusters {
		levels[c.RiskLevel]++
	}
	for lvl, n := range levels {
		s.m.ClustersActive.WithLabelValues(string(lvl)).Set(float64(n))
	}

	ev := domain.ClusterEvent{
		Set:          next,
		Changes:      cluster.Diff(prev, next),
		NewlyFlagged: cluster.NewlyFlagged(prev, next, s.cfg.FlagFloor),
	}
	s.topic.Publish(ev)
	log.Info().
		Int64("epoch", next.Epoch).
		Int("clusters", len(next.Clusters)).
		Int("changes", len(ev.Changes)).
		Dur("took", s.now().Sub(start)).
		Msg("cluster detection published")
	return next, nil
}

// ConsumeResults attributes content risk to source accounts and counts analysed posts until ctx
// ends or the subscription closes
func (s *Svc) ConsumeResults(ctx context.Context, sub *pubsub.Subscription[analysis.Event]) {
	defer sub.Unsubscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.C():
			if !ok {
				return
			}
			s.ObserveResult(ev)
		}
	}
}

// ObserveResult applies one analysis result to the graph and counters. Only the first revision
// of an item is counted; re-analyses still refresh the source account's risk
func (s *Svc) ObserveResult(ev analysis.Event) {
	if ev.Revision <= 1 {
		s.analyzed.Add(1)
		if ev.Threat(s.cfg.ThreatFloor) {
			s.threats.Add(1)
		}
	}
	if ev.SourceHandle != "" {
		s.g.RecordContentRisk(ev.SourceHandle, ev.Score, ev.ComputedAt, s.cfg.Cluster.RiskWindow)
	}
}

// Stats implements domain.ServicePort
func (s *Svc) Stats(context.Context) domain.Stats {
	set := s.det.Current()
	nodes, edges := s.g.Counts()
	st := domain.Stats{
		TotalNetworks: len(set.Clusters),
		AnalyzedPosts: s.analyzed.Load(),
		Accounts:      nodes,
		Edges:         edges,
		Epoch:         set.Epoch,
		DetectedAt:    set.DetectedAt,
	}
	for _, c := range set.Clusters {
		if c.RiskLevel.Rank() >= s.cfg.FlagFloor.Rank() {
			st.SuspiciousAccounts += len(c.Members)
		}
		if c.RiskOverlap > 0 {
			st.ActiveCampaigns++
		}
		if c.RiskLevel.Rank() >= cluster.RiskHigh.Rank() {
			st.HighRiskClusters++
		}
	}
	if st.AnalyzedPosts > 0 {
		st.DetectionRate = math.Round(float64(s.threats.Load())/float64(st.AnalyzedPosts)*1000) / 1000
	}
	return st
}

// Map implements domain.ServicePort
func (s *Svc) Map(context.Context) domain.Map {
	set := s.det.Current()
	snap := s.g.Snapshot()

	owner := map[string]cluster.Cluster{}
	for _, c := range set.Clusters {
		for _, h := range c.Members {
			owner[h] = c
		}
	}
	out := domain.Map{Nodes: []domain.MapNode{}, Edges: []graph.Edge{}, Epoch: set.Epoch, TakenAt: snap.TakenAt}
	for _, n := range snap.Nodes {
		c, ok := owner[n.Handle]
		if !ok {
			continue
		}
		out.Nodes = append(out.Nodes, domain.MapNode{
			Handle:        n.Handle,
			ClusterID:     c.ID,
			RiskLevel:     c.RiskLevel,
			ActivityLevel: n.ActivityLevel,
			Connections:   n.ConnectionCount,
			RecentRisk:    n.RecentRisk,
		})
	}
	for _, e := range snap.Edges {
		ca, okA := owner[e.A]
		cb, okB := owner[e.B]
		if okA && okB && ca.ID == cb.ID {
			out.Edges = append(out.Edges, e)
		}
	}
	return out
}

func (s *Svc) gauges() {
	n, e := s.g.Counts()
	s.m.GraphNodes.Set(float64(n))
	s.m.GraphEdges.Set(float64(e))
}

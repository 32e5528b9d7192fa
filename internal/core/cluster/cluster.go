// Package cluster finds coordinated account groups in graph snapshots and tiers them by risk.
package cluster

import (
	"context"
	"math/rand/v2"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/community"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/stat"

	"satyanetra/internal/core/graph"
	perr "satyanetra/internal/platform/errors"
)

// Algorithms
const (
	AlgorithmComponents = "components"
	AlgorithmLouvain    = "louvain"
)

// Cluster is one detected group. Members are sorted and disjoint from other clusters in the same Set
type Cluster struct {
	ID               string    `json:"id"`
	Members          []string  `json:"members"`
	RiskLevel        RiskLevel `json:"risk_level"`
	DominantBehavior string    `json:"dominant_behavior"`
	DetectedAt       time.Time `json:"detected_at"`
	AvgWeight        float64   `json:"avg_weight"`
	MedianAgeDays    float64   `json:"median_age_days"`
	RiskOverlap      float64   `json:"risk_overlap"`
}

// Set is the complete output of one detection run
type Set struct {
	Epoch      int64     `json:"epoch"`
	Clusters   []Cluster `json:"clusters"`
	DetectedAt time.Time `json:"detected_at"`
}

// Lookup returns the cluster with id
func (s Set) Lookup(id string) (Cluster, bool) {
	for _, c := range s.Clusters {
		if c.ID == id {
			return c, true
		}
	}
	return Cluster{}, false
}

// Config tunes detection
type Config struct {
	Algorithm      string
	MinEdgeWeight  float64
	MinClusterSize int
	Resolution     float64
	Seed           uint64
	Rules          []TierRule
	// members whose content scored at least RiskScoreFloor within RiskWindow count as overlap
	RiskScoreFloor float64
	RiskWindow     time.Duration
	// Budget bounds one run; zero leaves only the caller's context
	Budget time.Duration
}

func (c Config) withDefaults() Config {
	if c.Algorithm == "" {
		c.Algorithm = AlgorithmComponents
	}
	if c.MinEdgeWeight <= 0 {
		c.MinEdgeWeight = 1
	}
	if c.MinClusterSize < 2 {
		c.MinClusterSize = 2
	}
	if c.Resolution <= 0 {
		c.Resolution = 1
	}
	if c.Seed == 0 {
		c.Seed = 1
	}
	if len(c.Rules) == 0 {
		c.Rules = DefaultRules
	}
	if c.RiskScoreFloor <= 0 {
		c.RiskScoreFloor = 70
	}
	if c.RiskWindow <= 0 {
		c.RiskWindow = 24 * time.Hour
	}
	return c
}

// Detector runs detection and holds the published set. Runs are serialized; readers never block
type Detector struct {
	cfg     Config
	mu      sync.Mutex
	current atomic.Pointer[Set]
}

// NewDetector builds a Detector with an empty published set
func NewDetector(cfg Config) (*Detector, error) {
	cfg = cfg.withDefaults()
	if cfg.Algorithm != AlgorithmComponents && cfg.Algorithm != AlgorithmLouvain {
		return nil, perr.InvalidArgf("unknown cluster algorithm %q", cfg.Algorithm)
	}
	d := &Detector{cfg: cfg}
	d.current.Store(&Set{Clusters: []Cluster{}})
	return d, nil
}

// Current returns the published set
func (d *Detector) Current() Set { return *d.current.Load() }

// Detect computes a full replacement set from snap and publishes it atomically. When ctx ends or
// the budget runs out first, it returns DetectionTimeout and the previous set stays published.
func (d *Detector) Detect(ctx context.Context, snap graph.Snapshot) (Set, error) {
	if d.cfg.Budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.cfg.Budget)
		defer cancel()
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	prev := d.current.Load()
	next, err := d.compute(ctx, snap, prev)
	if err != nil {
		return *prev, err
	}
	d.current.Store(&next)
	return next, nil
}

func (d *Detector) compute(ctx context.Context, snap graph.Snapshot, prev *Set) (Set, error) {
	at := snap.TakenAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	stopped := func() error {
		if err := ctx.Err(); err != nil {
			return perr.Wrap(err, perr.ErrorCodeDetectionTimeout, "cluster detection exceeded its budget")
		}
		return nil
	}

	// ids follow handle order so every run over the same snapshot builds the same graph
	kept := make([]graph.Edge, 0, len(snap.Edges))
	used := map[string]bool{}
	for _, e := range snap.Edges {
		if e.Weight >= d.cfg.MinEdgeWeight {
			kept = append(kept, e)
			used[e.A], used[e.B] = true, true
		}
	}
	handles := make([]string, 0, len(used))
	byHandle := make(map[string]graph.Node, len(used))
	for _, n := range snap.Nodes {
		if used[n.Handle] {
			handles = append(handles, n.Handle)
			byHandle[n.Handle] = n
		}
	}
	id := make(map[string]int64, len(handles))
	g := simple.NewWeightedUndirectedGraph(0, 0)
	for i, h := range handles {
		id[h] = int64(i)
		g.AddNode(simple.Node(i))
	}
	for _, e := range kept {
		ia, okA := id[e.A]
		ib, okB := id[e.B]
		if !okA || !okB {
			return Set{}, perr.GraphInconsistencyf("snapshot edge %s-%s references a missing node", e.A, e.B)
		}
		g.SetWeightedEdge(g.NewWeightedEdge(simple.Node(ia), simple.Node(ib), e.Weight))
	}
	if err := stopped(); err != nil {
		return Set{}, err
	}

	var groups [][]gonum.Node
	switch {
	case len(handles) == 0:
	case d.cfg.Algorithm == AlgorithmLouvain:
		groups = community.Modularize(g, d.cfg.Resolution, rand.NewPCG(d.cfg.Seed, d.cfg.Seed)).Communities()
	default:
		groups = topo.ConnectedComponents(g)
	}
	if err := stopped(); err != nil {
		return Set{}, err
	}

	memberOf := make(map[string]int, len(handles))
	var clusters []Cluster
	for _, grp := range groups {
		if len(grp) < d.cfg.MinClusterSize {
			continue
		}
		members := make([]string, len(grp))
		for i, n := range grp {
			members[i] = handles[n.ID()]
		}
		sort.Strings(members)
		clusters = append(clusters, Cluster{Members: members, DetectedAt: at})
	}
	sort.Slice(clusters, func(i, j int) bool { return clusters[i].Members[0] < clusters[j].Members[0] })
	for i, c := range clusters {
		for _, m := range c.Members {
			memberOf[m] = i
		}
	}

	weights := make([][]float64, len(clusters))
	kinds := make([]map[graph.Kind]float64, len(clusters))
	for i := range kinds {
		kinds[i] = map[graph.Kind]float64{}
	}
	for _, e := range kept {
		ca, okA := memberOf[e.A]
		cb, okB := memberOf[e.B]
		if !okA || !okB || ca != cb {
			continue
		}
		weights[ca] = append(weights[ca], e.Weight)
		for k, w := range e.ByKind {
			kinds[ca][k] += w
		}
	}

	for i := range clusters {
		if i%64 == 0 {
			if err := stopped(); err != nil {
				return Set{}, err
			}
		}
		c := &clusters[i]
		if len(weights[i]) > 0 {
			c.AvgWeight = stat.Mean(weights[i], nil)
		}
		ages := make([]float64, 0, len(c.Members))
		risky := 0
		for _, m := range c.Members {
			n := byHandle[m]
			ages = append(ages, at.Sub(n.CreatedAt).Hours()/24)
			if n.RecentRisk >= d.cfg.RiskScoreFloor && !n.RiskAt.IsZero() && at.Sub(n.RiskAt) <= d.cfg.RiskWindow {
				risky++
			}
		}
		sort.Float64s(ages)
		c.MedianAgeDays = stat.Quantile(0.5, stat.Empirical, ages, nil)
		c.RiskOverlap = float64(risky) / float64(len(c.Members))
		c.DominantBehavior = dominant(kinds[i])
		c.RiskLevel = assignTier(d.cfg.Rules, *c)
	}

	assignIDs(clusters, prev)
	if clusters == nil {
		clusters = []Cluster{}
	}
	return Set{Epoch: prev.Epoch + 1, Clusters: clusters, DetectedAt: at}, nil
}

var behaviorLabels = []struct {
	kind  graph.Kind
	label string
}{
	{graph.KindRetweet, "synchronized retweeting"},
	{graph.KindHashtag, "hashtag co-posting"},
	{graph.KindSimilarity, "near-duplicate content"},
	{graph.KindMention, "mention brigading"},
	{graph.KindInteraction, "coordinated interaction"},
}

// dominant labels the kind carrying the most weight; ties go to the earlier label
func dominant(kinds map[graph.Kind]float64) string {
	best, label := 0.0, behaviorLabels[len(behaviorLabels)-1].label
	for _, b := range behaviorLabels {
		if w := kinds[b.kind]; w > best {
			best, label = w, b.label
		}
	}
	return label
}

// assignIDs lets each new cluster inherit the id of the previous cluster it shares the most
// members with, greedily by overlap; the rest get an id derived from their anchor handle
func assignIDs(clusters []Cluster, prev *Set) {
	type match struct {
		next, prev, overlap int
	}
	owner := map[string]int{}
	for pi, pc := range prev.Clusters {
		for _, m := range pc.Members {
			owner[m] = pi
		}
	}
	var matches []match
	for ni, c := range clusters {
		counts := map[int]int{}
		for _, m := range c.Members {
			if pi, ok := owner[m]; ok {
				counts[pi]++
			}
		}
		for pi, n := range counts {
			matches = append(matches, match{ni, pi, n})
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.overlap != b.overlap {
			return a.overlap > b.overlap
		}
		if a.next != b.next {
			return a.next < b.next
		}
		return prev.Clusters[a.prev].ID < prev.Clusters[b.prev].ID
	})

	taken := map[string]bool{}
	for _, m := range matches {
		id := prev.Clusters[m.prev].ID
		if clusters[m.next].ID != "" || taken[id] {
			continue
		}
		clusters[m.next].ID = id
		taken[id] = true
	}
	for i := range clusters {
		if clusters[i].ID != "" {
			continue
		}
		base := "cl-" + strconv.FormatUint(xxhash.Sum64String(clusters[i].Members[0]), 16)
		id := base
		for n := 2; taken[id]; n++ {
			id = base + "-" + strconv.Itoa(n)
		}
		clusters[i].ID = id
		taken[id] = true
	}
}

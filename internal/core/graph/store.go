package graph

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"

	perr "satyanetra/internal/platform/errors"
)

// DefaultShards is the stripe count when none is configured
const DefaultShards = 32

// shard owns the nodes hashed to it and the edges whose lower handle hashes to it
type shard struct {
	mu    sync.RWMutex
	nodes map[string]*Node
	edges map[Key]*Edge
}

// Store is safe for concurrent use. Writers lock at most two shards, always in index order,
// so interaction recording never waits on more than the accounts it touches.
type Store struct {
	shards []*shard
	nodes  atomic.Int64
	edges  atomic.Int64
}

// NewStore builds a Store with n lock stripes (DefaultShards when n <= 0)
func NewStore(n int) *Store {
	if n <= 0 {
		n = DefaultShards
	}
	s := &Store{shards: make([]*shard, n)}
	for i := range s.shards {
		s.shards[i] = &shard{nodes: map[string]*Node{}, edges: map[Key]*Edge{}}
	}
	return s
}

func (s *Store) index(handle string) int {
	return int(xxhash.Sum64String(handle) % uint64(len(s.shards)))
}

// lock2 write-locks the shards of a and b in index order and returns the unlock
func (s *Store) lock2(a, b string) (int, int, func()) {
	i, j := s.index(a), s.index(b)
	lo, hi := min(i, j), max(i, j)
	s.shards[lo].mu.Lock()
	if hi != lo {
		s.shards[hi].mu.Lock()
	}
	return i, j, func() {
		if hi != lo {
			s.shards[hi].mu.Unlock()
		}
		s.shards[lo].mu.Unlock()
	}
}

// node returns the node for handle, creating it; caller holds the shard lock
func (s *Store) node(sh *shard, handle string, at time.Time) *Node {
	n, ok := sh.nodes[handle]
	if !ok {
		n = &Node{Handle: handle, CreatedAt: at, LastSeenAt: at, ActivityLevel: ActivityLow}
		sh.nodes[handle] = n
		s.nodes.Add(1)
	}
	return n
}

// UpsertNode creates the account if missing. A non-zero createdAt replaces the first-observed time
func (s *Store) UpsertNode(handle string, createdAt time.Time) (Node, error) {
	handle = Handle(handle)
	if handle == "" {
		return Node{}, perr.WithField(perr.InvalidArgf("handle is required"), "handle")
	}
	sh := s.shards[s.index(handle)]
	sh.mu.Lock()
	defer sh.mu.Unlock()

	at := createdAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	n := s.node(sh, handle, at)
	if !createdAt.IsZero() {
		n.CreatedAt = createdAt.UTC()
	}
	return *n, nil
}

// RecordInteraction accumulates weight on the {a, b} edge, creating nodes and the edge as needed.
// Weight only ever grows; lastSeenAt only moves forward.
func (s *Store) RecordInteraction(a, b string, weight float64, at time.Time, kind Kind) (Edge, error) {
	a, b = Handle(a), Handle(b)
	switch {
	case a == "" || b == "":
		return Edge{}, perr.WithField(perr.InvalidArgf("both handles are required"), "handle")
	case a == b:
		return Edge{}, perr.WithField(perr.InvalidArgf("self interaction on %q", a), "handle_b")
	case !(weight > 0) || math.IsInf(weight, 0):
		return Edge{}, perr.WithField(perr.InvalidArgf("weight must be positive, got %v", weight), "weight")
	case at.IsZero():
		return Edge{}, perr.WithField(perr.InvalidArgf("timestamp is required"), "at")
	}
	if kind == "" {
		kind = KindInteraction
	}
	if !kind.Valid() {
		return Edge{}, perr.WithField(perr.InvalidArgf("unknown interaction kind %q", kind), "kind")
	}
	at = at.UTC()
	k := PairKey(a, b)

	ia, ib, unlock := s.lock2(k.A, k.B)
	defer unlock()
	na := s.node(s.shards[ia], k.A, at)
	nb := s.node(s.shards[ib], k.B, at)

	owner := s.shards[ia]
	e, ok := owner.edges[k]
	if !ok {
		e = &Edge{A: k.A, B: k.B, ByKind: map[Kind]float64{}}
		owner.edges[k] = e
		na.ConnectionCount++
		nb.ConnectionCount++
		s.edges.Add(1)
	}
	e.Weight += weight
	e.ByKind[kind] += weight
	if at.After(e.LastSeenAt) {
		e.LastSeenAt = at
	}
	for _, n := range []*Node{na, nb} {
		n.InteractionCount++
		n.ActivityLevel = activityFor(n.InteractionCount)
		if at.After(n.LastSeenAt) {
			n.LastSeenAt = at
		}
	}
	return copyEdge(e), nil
}

// MarkInactive flags an account inactive; the node and its edges stay
func (s *Store) MarkInactive(handle string) error {
	handle = Handle(handle)
	sh := s.shards[s.index(handle)]
	sh.mu.Lock()
	defer sh.mu.Unlock()
	n, ok := sh.nodes[handle]
	if !ok {
		return perr.NotFoundf("account %q not found", handle)
	}
	n.ActivityLevel = ActivityInactive
	return nil
}

// RecordContentRisk remembers the highest content score attributed to an account.
// A newer score replaces an older one once the older is outside window. Accounts only come
// into being through interactions or upserts, so an unknown handle is ignored and false returned.
func (s *Store) RecordContentRisk(handle string, score float64, at time.Time, window time.Duration) bool {
	handle = Handle(handle)
	if handle == "" {
		return false
	}
	sh := s.shards[s.index(handle)]
	sh.mu.Lock()
	defer sh.mu.Unlock()
	n, ok := sh.nodes[handle]
	if !ok {
		return false
	}
	if score >= n.RecentRisk || at.Sub(n.RiskAt) > window {
		n.RecentRisk = score
		n.RiskAt = at.UTC()
	}
	return true
}

// Node returns a copy of one account
func (s *Store) Node(handle string) (Node, bool) {
	handle = Handle(handle)
	sh := s.shards[s.index(handle)]
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	n, ok := sh.nodes[handle]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// Edge returns a copy of the {a, b} edge
func (s *Store) Edge(a, b string) (Edge, bool) {
	k := PairKey(Handle(a), Handle(b))
	sh := s.shards[s.index(k.A)]
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	e, ok := sh.edges[k]
	if !ok {
		return Edge{}, false
	}
	return copyEdge(e), true
}

// Counts returns node and edge totals without locking
func (s *Store) Counts() (nodes, edges int) { return int(s.nodes.Load()), int(s.edges.Load()) }

// Snapshot is an immutable, sorted point-in-time copy of the graph
type Snapshot struct {
	Nodes   []Node    `json:"nodes"`
	Edges   []Edge    `json:"edges"`
	TakenAt time.Time `json:"taken_at"`
}

// Snapshot copies the graph under read locks on every shard, taken in index order, so the copy
// reflects one committed state. Detection then runs on the copy without holding anything.
func (s *Store) Snapshot() Snapshot {
	for _, sh := range s.shards {
		sh.mu.RLock()
	}
	nodes, edges := int(s.nodes.Load()), int(s.edges.Load())
	snap := Snapshot{Nodes: make([]Node, 0, nodes), Edges: make([]Edge, 0, edges), TakenAt: time.Now().UTC()}
	for _, sh := range s.shards {
		for _, n := range sh.nodes {
			snap.Nodes = append(snap.Nodes, *n)
		}
		for _, e := range sh.edges {
			snap.Edges = append(snap.Edges, copyEdge(e))
		}
	}
	for i := len(s.shards) - 1; i >= 0; i-- {
		s.shards[i].mu.RUnlock()
	}

	sort.Slice(snap.Nodes, func(i, j int) bool { return snap.Nodes[i].Handle < snap.Nodes[j].Handle })
	sort.Slice(snap.Edges, func(i, j int) bool {
		if snap.Edges[i].A != snap.Edges[j].A {
			return snap.Edges[i].A < snap.Edges[j].A
		}
		return snap.Edges[i].B < snap.Edges[j].B
	})
	return snap
}

// CheckInvariants verifies edge keys, endpoints and connection counts.
// A failure is a GraphInconsistency and indicates a bug.
func (s *Store) CheckInvariants() error {
	for _, sh := range s.shards {
		sh.mu.RLock()
	}
	defer func() {
		for i := len(s.shards) - 1; i >= 0; i-- {
			s.shards[i].mu.RUnlock()
		}
	}()

	degree := map[string]int{}
	seen := map[Key]bool{}
	nodeCount, edgeCount := 0, 0
	for i, sh := range s.shards {
		for h, n := range sh.nodes {
			nodeCount++
			if h != n.Handle || s.index(h) != i {
				return perr.GraphInconsistencyf("node %q stored under %q in shard %d", n.Handle, h, i)
			}
		}
		for k, e := range sh.edges {
			edgeCount++
			switch {
			case k.A >= k.B || k.A != e.A || k.B != e.B:
				return perr.GraphInconsistencyf("edge %v has unordered or mismatched key", k)
			case s.index(k.A) != i:
				return perr.GraphInconsistencyf("edge %v stored in shard %d", k, i)
			case seen[k]:
				return perr.GraphInconsistencyf("duplicate edge %v", k)
			case !(e.Weight > 0):
				return perr.GraphInconsistencyf("edge %v has weight %v", k, e.Weight)
			}
			seen[k] = true
			for _, h := range []string{k.A, k.B} {
				if _, ok := s.shards[s.index(h)].nodes[h]; !ok {
					return perr.GraphInconsistencyf("edge %v references missing node %q", k, h)
				}
				degree[h]++
			}
		}
	}
	for _, sh := range s.shards {
		for h, n := range sh.nodes {
			if n.ConnectionCount != degree[h] {
				return perr.GraphInconsistencyf("node %q connection count %d, has %d edges", h, n.ConnectionCount, degree[h])
			}
		}
	}
	if int64(nodeCount) != s.nodes.Load() || int64(edgeCount) != s.edges.Load() {
		return perr.GraphInconsistencyf("counters drifted: nodes %d/%d edges %d/%d", nodeCount, s.nodes.Load(), edgeCount, s.edges.Load())
	}
	return nil
}

func copyEdge(e *Edge) Edge {
	c := *e
	c.ByKind = make(map[Kind]float64, len(e.ByKind))
	for k, w := range e.ByKind {
		c.ByKind[k] = w
	}
	return c
}

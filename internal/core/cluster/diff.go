package cluster

// Change describes a cluster that is new in, or escalated by, a detection run
type Change struct {
	Cluster  Cluster   `json:"cluster"`
	Previous RiskLevel `json:"previous,omitempty"`
	New      bool      `json:"new"`
}

// Escalated reports a tier increase over the previous epoch
func (c Change) Escalated() bool {
	return !c.New && c.Cluster.RiskLevel.Rank() > c.Previous.Rank()
}

// Diff lists clusters of next that did not exist in prev or moved to a higher tier, in next's order
func Diff(prev, next Set) []Change {
	old := make(map[string]RiskLevel, len(prev.Clusters))
	for _, c := range prev.Clusters {
		old[c.ID] = c.RiskLevel
	}
	var out []Change
	for _, c := range next.Clusters {
		lvl, ok := old[c.ID]
		switch {
		case !ok:
			out = append(out, Change{Cluster: c, New: true})
		case c.RiskLevel.Rank() > lvl.Rank():
			out = append(out, Change{Cluster: c, Previous: lvl})
		}
	}
	return out
}

// NewlyFlagged returns accounts that sit in a cluster at or above floor in next but were in no
// such cluster in prev
func NewlyFlagged(prev, next Set, floor RiskLevel) []string {
	before := map[string]bool{}
	for _, c := range prev.Clusters {
		if c.RiskLevel.Rank() >= floor.Rank() {
			for _, m := range c.Members {
				before[m] = true
			}
		}
	}
	var out []string
	for _, c := range next.Clusters {
		if c.RiskLevel.Rank() < floor.Rank() {
			continue
		}
		for _, m := range c.Members {
			if !before[m] {
				out = append(out, m)
			}
		}
	}
	return out
}

package module

import (
	"strings"
	"time"

	"satyanetra/internal/core/cluster"
	"satyanetra/internal/platform/config"
	"satyanetra/internal/services/network/service"
)

// Options configures the network module
type Options struct {
	Service service.Config
	// DetectPerMinute bounds on-demand detection per caller; zero disables it
	DetectPerMinute int
}

// FromConfig reads CORE_NETWORK_* keys. RULES holds a JSON array of tier rules
func FromConfig(cfg config.Conf) (Options, error) {
	c := cfg.Prefix("CORE_NETWORK_")
	o := Options{
		Service: service.Config{
			Shards:       c.MayInt("SHARDS", 16),
			Interval:     c.MayDuration("INTERVAL", time.Minute),
			StreamBuffer: c.MayInt("STREAM_BUFFER", 64),
			ThreatFloor:  c.MayFloat64("THREAT_FLOOR", 50),
			FlagFloor:    cluster.RiskLevel(strings.ToLower(c.MayEnum("FLAG_FLOOR", "medium", "low", "medium", "high", "critical"))),
			Cluster: cluster.Config{
				Algorithm:      strings.ToLower(c.MayEnum("ALGORITHM", cluster.AlgorithmComponents, cluster.AlgorithmComponents, cluster.AlgorithmLouvain)),
				MinEdgeWeight:  c.MayFloat64("MIN_EDGE_WEIGHT", 1),
				MinClusterSize: c.MayInt("MIN_CLUSTER_SIZE", 2),
				Resolution:     c.MayFloat64("RESOLUTION", 1),
				Seed:           uint64(c.MayInt("SEED", 1)),
				RiskScoreFloor: c.MayFloat64("RISK_FLOOR", 70),
				RiskWindow:     c.MayDuration("RISK_WINDOW", 24*time.Hour),
				Budget:         c.MayDuration("BUDGET", 20*time.Second),
			},
		},
		DetectPerMinute: c.MayInt("DETECT_PER_MINUTE", 6),
	}
	if doc := c.MayString("RULES", ""); doc != "" {
		rules, err := cluster.ParseRules([]byte(doc))
		if err != nil {
			return Options{}, err
		}
		o.Service.Cluster.Rules = rules
	}
	return o, nil
}

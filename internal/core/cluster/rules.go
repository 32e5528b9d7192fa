package cluster

import (
	"encoding/json"
	"fmt"
)

// RiskLevel is a cluster's risk tier
type RiskLevel string

// Risk tiers
const (
	RiskCritical RiskLevel = "critical"
	RiskHigh     RiskLevel = "high"
	RiskMedium   RiskLevel = "medium"
	RiskLow      RiskLevel = "low"
)

// Valid reports whether l is a known tier
func (l RiskLevel) Valid() bool { return l.Rank() > 0 }

// Rank orders tiers, low = 1 .. critical = 4; unknown is 0
func (l RiskLevel) Rank() int {
	switch l {
	case RiskLow:
		return 1
	case RiskMedium:
		return 2
	case RiskHigh:
		return 3
	case RiskCritical:
		return 4
	}
	return 0
}

// TierRule assigns Level when every set bound holds. Zero bounds are ignored
type TierRule struct {
	Level            RiskLevel `json:"level"`
	MinSize          int       `json:"min_size,omitempty"`
	MinAvgWeight     float64   `json:"min_avg_weight,omitempty"`
	MaxMedianAgeDays float64   `json:"max_median_age_days,omitempty"`
	MinRiskOverlap   float64   `json:"min_risk_overlap,omitempty"`
}

// DefaultRules are evaluated top to bottom; clusters matching none are Low
var DefaultRules = []TierRule{
	{Level: RiskCritical, MinSize: 8, MinAvgWeight: 3, MaxMedianAgeDays: 30, MinRiskOverlap: 0.5},
	{Level: RiskHigh, MinSize: 5, MinAvgWeight: 2, MinRiskOverlap: 0.3},
	{Level: RiskMedium, MinSize: 3, MinAvgWeight: 1},
}

// ParseRules decodes a JSON array of tier rules
func ParseRules(doc []byte) ([]TierRule, error) {
	var rules []TierRule
	if err := json.Unmarshal(doc, &rules); err != nil {
		return nil, fmt.Errorf("cluster: parse tier rules: %w", err)
	}
	for i, r := range rules {
		if !r.Level.Valid() {
			return nil, fmt.Errorf("cluster: tier rule %d has unknown level %q", i, r.Level)
		}
		if r.MinSize < 0 || r.MinAvgWeight < 0 || r.MaxMedianAgeDays < 0 || r.MinRiskOverlap < 0 || r.MinRiskOverlap > 1 {
			return nil, fmt.Errorf("cluster: tier rule %d has out of range bounds", i)
		}
	}
	return rules, nil
}

func (r TierRule) matches(c Cluster) bool {
	switch {
	case r.MinSize > 0 && len(c.Members) < r.MinSize:
		return false
	case r.MinAvgWeight > 0 && c.AvgWeight < r.MinAvgWeight:
		return false
	case r.MaxMedianAgeDays > 0 && c.MedianAgeDays > r.MaxMedianAgeDays:
		return false
	case r.MinRiskOverlap > 0 && c.RiskOverlap < r.MinRiskOverlap:
		return false
	}
	return true
}

func assignTier(rules []TierRule, c Cluster) RiskLevel {
	for _, r := range rules {
		if r.matches(c) {
			return r.Level
		}
	}
	return RiskLow
}

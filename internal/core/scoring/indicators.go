package scoring

import (
	"sort"

	"satyanetra/internal/core/features"
)

// Indicator defaults
const (
	DefaultMaxIndicators      = 5
	DefaultIndicatorThreshold = 0.2
)

// Indicator is one triggered, human readable risk signal
type Indicator struct {
	Signal       features.Signal `json:"signal"`
	Text         string          `json:"text"`
	Contribution float64         `json:"contribution"`
}

type indicatorRule struct {
	sig        features.Signal
	text       string
	salience   float64
	mitigating bool // fires on absence: contribution uses 1-x
}

// rules are listed in tie-break order
var rules = []indicatorRule{
	{features.EmotionalLanguage, "Emotional language", 1.0, false},
	{features.DehumanizingLanguage, "Dehumanizing language", 1.0, false},
	{features.DehumanizingImagery, "Dehumanizing imagery", 1.0, false},
	{features.StatisticOverlayMisleading, "Misleading statistic overlay", 1.0, false},
	{features.FearAppeal, "Appeal to fear or outrage", 0.95, false},
	{features.PropagandaSimilarity, "Matches known propaganda templates", 0.9, false},
	{features.MisinformationMarkers, "Misinformation markers", 0.9, false},
	{features.AmplificationPattern, "Coordinated amplification pattern", 0.85, false},
	{features.BinaryFraming, "Us-versus-them framing", 0.8, false},
	{features.SourceAttribution, "No source attribution", 0.5, true},
	{features.PunctuationIntensity, "Excessive punctuation", 0.5, false},
	{features.CapsIntensity, "Excessive capitalization", 0.5, false},
	{features.ClaimVerifiability, "Unverifiable claims", 0.4, true},
}

// Indicators ranks present signals by contribution, drops those under threshold and caps the list.
// Benign verdicts carry no indicators.
func Indicators(v features.Vector, cat Category, threshold float64, limit int) []Indicator {
	if cat == CategoryBenign {
		return nil
	}
	type ranked struct {
		Indicator
		order int
	}
	var out []ranked
	for i, r := range rules {
		x, ok := v.Get(r.sig)
		if !ok {
			continue
		}
		if r.mitigating {
			x = 1 - x
		}
		c := x * r.salience
		if c < threshold {
			continue
		}
		out = append(out, ranked{Indicator{Signal: r.sig, Text: r.text, Contribution: c}, i})
	}
	sort.Slice(out, func(i, j int) bool {
		if d := out[i].Contribution - out[j].Contribution; d > Epsilon || d < -Epsilon {
			return d > 0
		}
		return out[i].order < out[j].order
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	res := make([]Indicator, len(out))
	for i, r := range out {
		res[i] = r.Indicator
	}
	return res
}

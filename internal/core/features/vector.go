// Package features derives signal vectors from content items.
package features

import (
	"math"
	"sort"

	"satyanetra/internal/core/content"
)

// Signal names one feature
type Signal string

// Text signals
const (
	EmotionalLanguage     Signal = "emotional_language"
	FearAppeal            Signal = "fear_appeal"
	SourceAttribution     Signal = "source_attribution"
	BinaryFraming         Signal = "binary_framing"
	PropagandaSimilarity  Signal = "propaganda_similarity"
	ClaimVerifiability    Signal = "claim_verifiability"
	MisinformationMarkers Signal = "misinformation_markers"
	DehumanizingLanguage  Signal = "dehumanizing_language"
	AmplificationPattern  Signal = "amplification_pattern"
	SentimentNegative     Signal = "sentiment_negative"
	SentimentPositive     Signal = "sentiment_positive"
	CapsIntensity         Signal = "caps_intensity"
	PunctuationIntensity  Signal = "punctuation_intensity"
)

// Image signals, only an inference model can produce them
const (
	DehumanizingImagery        Signal = "dehumanizing_imagery"
	StatisticOverlayMisleading Signal = "statistic_overlay_misleading"
)

// Known reports whether s is a signal this package understands
func (s Signal) Known() bool {
	switch s {
	case EmotionalLanguage, FearAppeal, SourceAttribution, BinaryFraming, PropagandaSimilarity,
		ClaimVerifiability, MisinformationMarkers, DehumanizingLanguage, AmplificationPattern,
		SentimentNegative, SentimentPositive, CapsIntensity, PunctuationIntensity,
		DehumanizingImagery, StatisticOverlayMisleading:
		return true
	}
	return false
}

// Vector maps present signals to magnitudes in [0,1].
// An absent signal was not computed; it is not the same as zero.
type Vector struct {
	Kind     content.Kind       `json:"kind"`
	Language string             `json:"language"`
	Values   map[Signal]float64 `json:"values"`
	// Partial marks a vector missing signals its kind normally carries
	Partial bool `json:"partial,omitempty"`
}

// Get returns the magnitude and whether the signal is present
func (v Vector) Get(s Signal) (float64, bool) {
	x, ok := v.Values[s]
	return x, ok
}

// Has reports presence
func (v Vector) Has(s Signal) bool {
	_, ok := v.Values[s]
	return ok
}

// Signals returns the present signal names in lexical order
func (v Vector) Signals() []Signal {
	out := make([]Signal, 0, len(v.Values))
	for s := range v.Values {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (v *Vector) set(s Signal, x float64) {
	if v.Values == nil {
		v.Values = make(map[Signal]float64)
	}
	v.Values[s] = clamp01(x)
}

func clamp01(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	return math.Max(0, math.Min(1, x))
}

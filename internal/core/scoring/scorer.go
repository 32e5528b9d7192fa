package scoring

import (
	"fmt"
	"math"
	"slices"

	"satyanetra/internal/core/features"
)

// Epsilon is the confidence band inside which the tie-break order decides
const Epsilon = 1e-9

type weighted struct {
	sig features.Signal
	w   float64
	inv bool // contributes 1-x
}

// category formulas; slices keep summation order fixed
var formulas = []struct {
	cat   Category
	terms []weighted
}{
	{CategoryPropaganda, []weighted{
		{features.EmotionalLanguage, 0.30, false},
		{features.FearAppeal, 0.25, false},
		{features.PropagandaSimilarity, 0.30, false},
		{features.BinaryFraming, 0.15, false},
	}},
	{CategoryHarmful, []weighted{
		{features.DehumanizingLanguage, 0.5, false},
		{features.DehumanizingImagery, 0.5, false},
	}},
	{CategoryBotNetwork, []weighted{
		{features.AmplificationPattern, 1, false},
	}},
	{CategoryMisinformation, []weighted{
		{features.MisinformationMarkers, 0.5, false},
		{features.StatisticOverlayMisleading, 0.3, false},
		{features.SourceAttribution, 0.2, true},
	}},
}

// Options tune the scorer
type Options struct {
	MaxIndicators      int
	IndicatorThreshold float64
	// Languages the lexicon covers; anything else is scored with low confidence
	Languages []string
}

// Scorer is stateless apart from its options
type Scorer struct {
	opt Options
}

// New builds a Scorer with defaults for zero options
func New(opt Options) *Scorer {
	if opt.MaxIndicators <= 0 {
		opt.MaxIndicators = DefaultMaxIndicators
	}
	if opt.IndicatorThreshold <= 0 {
		opt.IndicatorThreshold = DefaultIndicatorThreshold
	}
	if len(opt.Languages) == 0 {
		opt.Languages = []string{"en"}
	}
	return &Scorer{opt: opt}
}

// Score computes every verdict field except ContentID and ComputedAt
func (s *Scorer) Score(v features.Vector) Result {
	conf := Confidences(v)
	cat, top := pick(conf)

	r := Result{
		Score:       TransferScore(rawScore(v, top)),
		Category:    cat,
		Sentiment:   sentiment(v),
		Credibility: credibility(v),
		Language:    v.Language,
		Confidence:  ConfidenceNormal,
		Signals:     make(map[string]float64, len(v.Values)),
	}
	r.Label = LegacyLabel(r.Score)
	if v.Partial || !slices.Contains(s.opt.Languages, v.Language) {
		r.Confidence = ConfidenceLow
	}
	for _, sig := range v.Signals() {
		r.Signals[string(sig)] = v.Values[sig]
	}
	for _, ind := range Indicators(v, cat, s.opt.IndicatorThreshold, s.opt.MaxIndicators) {
		r.Indicators = append(r.Indicators, ind.Text)
	}
	if r.Indicators == nil {
		r.Indicators = []string{}
	}
	r.Explanation = Explain(len(r.Indicators))
	return r
}

// Explain is the one-line summary shown next to the score
func Explain(indicators int) string {
	if indicators == 0 {
		return "No obvious risk indicators detected."
	}
	return fmt.Sprintf("Detected %d risk indicators in content.", indicators)
}

// Confidences returns per-category confidences over present signals, Benign included
func Confidences(v features.Vector) map[Category]float64 {
	out := make(map[Category]float64, len(formulas)+1)
	top := 0.0
	for _, f := range formulas {
		sum, den := 0.0, 0.0
		for _, t := range f.terms {
			x, ok := v.Get(t.sig)
			if !ok {
				continue
			}
			if t.inv {
				x = 1 - x
			}
			sum += t.w * x
			den += t.w
		}
		c := 0.0
		if den > 0 {
			c = sum / den
		}
		out[f.cat] = c
		top = math.Max(top, c)
	}
	out[CategoryBenign] = 1 - top
	return out
}

// pick returns the winning category and the top threat confidence
func pick(conf map[Category]float64) (Category, float64) {
	best, top := formulas[0].cat, conf[formulas[0].cat]
	for _, f := range formulas[1:] {
		if c := conf[f.cat]; c > top+Epsilon {
			best, top = f.cat, c
		}
	}
	if conf[CategoryBenign] > top+Epsilon {
		return CategoryBenign, top
	}
	return best, top
}

func rawScore(v features.Vector, top float64) float64 {
	attr, _ := v.Get(features.SourceAttribution)
	return top*(1-0.35*attr) + 0.1*stylistic(v)
}

// stylistic is the mean of the present stylistic intensities
func stylistic(v features.Vector) float64 {
	sum, n := 0.0, 0
	for _, s := range []features.Signal{features.CapsIntensity, features.PunctuationIntensity} {
		if x, ok := v.Get(s); ok {
			sum += x
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

// TransferScore maps a raw score through a logistic curve centred at 0.5, rescaled so that
// 0 maps to 0 and 1 maps to 100, rounded to one decimal
func TransferScore(raw float64) float64 {
	lo, hi := sigmoid(-3), sigmoid(3)
	y := (sigmoid(6*(raw-0.5)) - lo) / (hi - lo)
	return round1(100 * math.Max(0, math.Min(1, y)))
}

func credibility(v features.Vector) float64 {
	get := func(s features.Signal) float64 { x, _ := v.Get(s); return x }
	c := 0.3 +
		0.4*get(features.SourceAttribution) +
		0.3*get(features.ClaimVerifiability) -
		0.2*stylistic(v) -
		0.2*get(features.MisinformationMarkers) -
		0.1*get(features.EmotionalLanguage)
	return round1(100 * math.Max(0, math.Min(1, c)))
}

func sentiment(v features.Vector) Sentiment {
	get := func(s features.Signal) float64 { x, _ := v.Get(s); return x }
	if get(features.BinaryFraming) >= 0.5 && get(features.EmotionalLanguage) >= 0.5 {
		return SentimentPolarizing
	}
	switch d := get(features.SentimentNegative) - get(features.SentimentPositive); {
	case d > 0.2:
		return SentimentNegative
	case d < -0.2:
		return SentimentPositive
	}
	return SentimentNeutral
}

// LegacyLabel buckets a 0..100 score into the dashboard's coarse labels
func LegacyLabel(score float64) string {
	switch x := score / 100; {
	case x >= 0.7:
		return "Harmful Content"
	case x >= 0.5:
		return "Potential Propaganda"
	case x >= 0.3:
		return "Suspicious"
	}
	return "Safe"
}

func round1(x float64) float64 { return math.Round(x*10) / 10 }

package scoring

import (
	"context"
	"math"
	"reflect"
	"testing"

	"satyanetra/internal/core/content"
	"satyanetra/internal/core/features"
	"satyanetra/internal/core/lexicon"
)

func vec(lang string, partial bool, kv map[features.Signal]float64) features.Vector {
	return features.Vector{Kind: content.KindText, Language: lang, Partial: partial, Values: kv}
}

func TestUrgentTextEndToEnd(t *testing.T) {
	lx, err := lexicon.Default()
	if err != nil {
		t.Fatalf("lexicon: %v", err)
	}
	v, err := features.NewExtractor(lx).Extract(context.Background(), content.Item{
		Kind: content.KindText,
		Text: "URGENT: they are lying to you, trust no official source!!!",
	})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	r := New(Options{}).Score(v)
	if r.Score < 70 || r.Score != 87.7 {
		t.Fatalf("score = %v, want 87.7", r.Score)
	}
	if r.Category != CategoryPropaganda {
		t.Fatalf("category = %s", r.Category)
	}
	if r.Credibility < 5 || r.Credibility > 7 {
		t.Fatalf("credibility = %v, want about 6", r.Credibility)
	}
	want := []string{
		"Emotional language",
		"Matches known propaganda templates",
		"Appeal to fear or outrage",
		"No source attribution",
		"Excessive punctuation",
	}
	if !reflect.DeepEqual(r.Indicators, want) {
		t.Fatalf("indicators = %q, want %q", r.Indicators, want)
	}
	if r.Sentiment != SentimentNegative || r.Confidence != ConfidenceNormal || r.Language != "en" || r.Label != "Harmful Content" {
		t.Fatalf("unexpected verdict %+v", r)
	}
	if r.Explanation != "Detected 5 risk indicators in content." {
		t.Fatalf("explanation = %q", r.Explanation)
	}
}

func TestExplain(t *testing.T) {
	cases := map[int]string{
		0: "No obvious risk indicators detected.",
		1: "Detected 1 risk indicators in content.",
		3: "Detected 3 risk indicators in content.",
	}
	for n, want := range cases {
		if got := Explain(n); got != want {
			t.Fatalf("Explain(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestScoreDeterministic(t *testing.T) {
	v := vec("en", false, map[features.Signal]float64{
		features.EmotionalLanguage:     0.31,
		features.FearAppeal:            0.17,
		features.PropagandaSimilarity:  0.29,
		features.BinaryFraming:         0.11,
		features.MisinformationMarkers: 0.4,
		features.SourceAttribution:     0.5,
		features.CapsIntensity:         0.2,
	})
	s := New(Options{})
	a, b := s.Score(v), s.Score(v)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("scoring not deterministic:\n%+v\n%+v", a, b)
	}
	if math.Float64bits(a.Score) != math.Float64bits(b.Score) {
		t.Fatalf("score bits differ")
	}
}

func TestScoreBounds(t *testing.T) {
	s := New(Options{})
	extremes := []map[features.Signal]float64{
		{},
		{features.EmotionalLanguage: 1, features.FearAppeal: 1, features.PropagandaSimilarity: 1, features.BinaryFraming: 1,
			features.CapsIntensity: 1, features.PunctuationIntensity: 1, features.MisinformationMarkers: 1},
		{features.SourceAttribution: 1, features.ClaimVerifiability: 1},
		{features.DehumanizingImagery: 1, features.StatisticOverlayMisleading: 1},
	}
	for i, kv := range extremes {
		r := s.Score(vec("en", false, kv))
		if r.Score < 0 || r.Score > 100 || r.Credibility < 0 || r.Credibility > 100 {
			t.Fatalf("case %d out of range: score=%v credibility=%v", i, r.Score, r.Credibility)
		}
		if !r.Category.Valid() || !r.Sentiment.Valid() || !r.Confidence.Valid() {
			t.Fatalf("case %d invalid enums %+v", i, r)
		}
	}
}

func TestCategorySelection(t *testing.T) {
	tests := []struct {
		name string
		kv   map[features.Signal]float64
		want Category
	}{
		{"empty vector is benign", map[features.Signal]float64{}, CategoryBenign},
		{"attributed calm text is benign", map[features.Signal]float64{
			features.SourceAttribution: 1, features.EmotionalLanguage: 0.1, features.MisinformationMarkers: 0,
		}, CategoryBenign},
		{"dehumanizing wins", map[features.Signal]float64{
			features.DehumanizingLanguage: 0.9, features.EmotionalLanguage: 0.5,
		}, CategoryHarmful},
		{"amplification", map[features.Signal]float64{features.AmplificationPattern: 0.8}, CategoryBotNetwork},
		{"misinformation", map[features.Signal]float64{
			features.MisinformationMarkers: 1, features.SourceAttribution: 0,
		}, CategoryMisinformation},
		{"tie prefers propaganda over harmful", map[features.Signal]float64{
			features.EmotionalLanguage: 0.6, features.FearAppeal: 0.6, features.PropagandaSimilarity: 0.6,
			features.BinaryFraming: 0.6, features.DehumanizingLanguage: 0.6,
		}, CategoryPropaganda},
		{"tie prefers bot over misinformation", map[features.Signal]float64{
			features.AmplificationPattern: 0.7, features.MisinformationMarkers: 0.7,
		}, CategoryBotNetwork},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := New(Options{}).Score(vec("en", false, tc.kv)).Category; got != tc.want {
				t.Fatalf("category = %s, want %s (conf=%v)", got, tc.want, Confidences(vec("en", false, tc.kv)))
			}
		})
	}
}

func TestAbsentIsNotZero(t *testing.T) {
	// misinformation over present signals only: with attribution absent the marker alone decides
	absent := Confidences(vec("en", false, map[features.Signal]float64{features.MisinformationMarkers: 0.6}))
	zero := Confidences(vec("en", false, map[features.Signal]float64{features.MisinformationMarkers: 0.6, features.StatisticOverlayMisleading: 0}))
	if absent[CategoryMisinformation] <= zero[CategoryMisinformation] {
		t.Fatalf("absent signal treated as zero: %v vs %v", absent[CategoryMisinformation], zero[CategoryMisinformation])
	}
}

func TestCredibilityIndependentOfScore(t *testing.T) {
	s := New(Options{})
	// same threat level, different sourcing
	a := s.Score(vec("en", false, map[features.Signal]float64{features.PropagandaSimilarity: 0.8, features.SourceAttribution: 0}))
	b := s.Score(vec("en", false, map[features.Signal]float64{features.PropagandaSimilarity: 0.8, features.SourceAttribution: 1, features.ClaimVerifiability: 1}))
	if b.Credibility <= a.Credibility {
		t.Fatalf("attribution should raise credibility: %v <= %v", b.Credibility, a.Credibility)
	}
	if a.Score+a.Credibility == 100 {
		t.Fatalf("credibility should not be 100-score")
	}
}

func TestSentimentAndConfidence(t *testing.T) {
	s := New(Options{})
	tests := []struct {
		v          features.Vector
		sentiment  Sentiment
		confidence Confidence
	}{
		{vec("en", false, map[features.Signal]float64{features.BinaryFraming: 0.6, features.EmotionalLanguage: 0.7}), SentimentPolarizing, ConfidenceNormal},
		{vec("en", false, map[features.Signal]float64{features.SentimentPositive: 0.8}), SentimentPositive, ConfidenceNormal},
		{vec("en", false, map[features.Signal]float64{features.SentimentNegative: 0.3, features.SentimentPositive: 0.2}), SentimentNeutral, ConfidenceNormal},
		{vec("und", false, map[features.Signal]float64{}), SentimentNeutral, ConfidenceLow},
		{vec("en", true, map[features.Signal]float64{}), SentimentNeutral, ConfidenceLow},
	}
	for i, tc := range tests {
		r := s.Score(tc.v)
		if r.Sentiment != tc.sentiment || r.Confidence != tc.confidence {
			t.Fatalf("case %d: got (%s,%s), want (%s,%s)", i, r.Sentiment, r.Confidence, tc.sentiment, tc.confidence)
		}
	}
}

func TestTransferAndLabels(t *testing.T) {
	tests := []struct {
		raw   float64
		score float64
		label string
	}{
		{-1, 0, "Safe"},
		{0, 0, "Safe"},
		{0.5, 50, "Potential Propaganda"},
		{1, 100, "Harmful Content"},
		{1.2, 100, "Harmful Content"},
	}
	for _, tc := range tests {
		got := TransferScore(tc.raw)
		if got != tc.score || LegacyLabel(got) != tc.label {
			t.Fatalf("TransferScore(%v) = %v (%s), want %v (%s)", tc.raw, got, LegacyLabel(got), tc.score, tc.label)
		}
	}
	if LegacyLabel(35) != "Suspicious" {
		t.Fatalf("35 should be Suspicious")
	}
	prev := -1.0
	for raw := 0.0; raw <= 1.0; raw += 0.05 {
		if got := TransferScore(raw); got < prev {
			t.Fatalf("transfer not monotonic at %v", raw)
		} else {
			prev = got
		}
	}
}

func TestIndicators(t *testing.T) {
	v := vec("en", false, map[features.Signal]float64{
		features.EmotionalLanguage: 0.1,
		features.FearAppeal:        0.5,
		features.BinaryFraming:     0.5,
		features.SourceAttribution: 0.2,
		features.CapsIntensity:     0.9,
	})
	got := Indicators(v, CategoryPropaganda, 0.2, 3)
	wantSignals := []features.Signal{features.FearAppeal, features.CapsIntensity, features.BinaryFraming}
	if len(got) != len(wantSignals) {
		t.Fatalf("indicators = %+v", got)
	}
	for i, s := range wantSignals {
		if got[i].Signal != s {
			t.Fatalf("rank %d = %s, want %s (%+v)", i, got[i].Signal, s, got)
		}
	}
	if Indicators(v, CategoryBenign, 0.2, 5) != nil {
		t.Fatalf("benign verdicts carry no indicators")
	}
	if n := len(Indicators(v, CategoryPropaganda, 0.2, 0)); n != 4 {
		t.Fatalf("uncapped indicators = %d, want 4", n)
	}
}

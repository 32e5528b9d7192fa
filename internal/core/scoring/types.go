// Package scoring turns feature vectors into verdicts. Everything here is a pure function of the
// vector, so a vector scored twice yields identical fields.
package scoring

import "time"

// Category is the verdict label
type Category string

// Categories, in tie-break order
const (
	CategoryPropaganda     Category = "propaganda"
	CategoryHarmful        Category = "harmful_content"
	CategoryBotNetwork     Category = "bot_network"
	CategoryMisinformation Category = "misinformation"
	CategoryBenign         Category = "benign"
)

// Valid reports whether c is a known category
func (c Category) Valid() bool {
	switch c {
	case CategoryPropaganda, CategoryHarmful, CategoryBotNetwork, CategoryMisinformation, CategoryBenign:
		return true
	}
	return false
}

// Sentiment is the overall tone
type Sentiment string

// Sentiments
const (
	SentimentPolarizing Sentiment = "polarizing"
	SentimentNegative   Sentiment = "negative"
	SentimentNeutral    Sentiment = "neutral"
	SentimentPositive   Sentiment = "positive"
)

// Valid reports whether s is a known sentiment
func (s Sentiment) Valid() bool {
	switch s {
	case SentimentPolarizing, SentimentNegative, SentimentNeutral, SentimentPositive:
		return true
	}
	return false
}

// Confidence annotates results scored from a reduced signal set
type Confidence string

// Confidence levels
const (
	ConfidenceNormal Confidence = "normal"
	ConfidenceLow    Confidence = "low"
)

// Valid reports whether c is a known confidence level
func (c Confidence) Valid() bool { return c == ConfidenceNormal || c == ConfidenceLow }

// Result is the verdict for one content item. Immutable once computed; re-analysis produces a new one
type Result struct {
	ContentID   string             `json:"content_id"`
	Score       float64            `json:"score"`
	Category    Category           `json:"category"`
	Sentiment   Sentiment          `json:"sentiment"`
	Credibility float64            `json:"credibility"`
	Indicators  []string           `json:"indicators"`
	Language    string             `json:"language"`
	Confidence  Confidence         `json:"confidence"`
	Label       string             `json:"label"`
	Explanation string             `json:"explanation"`
	Signals     map[string]float64 `json:"signals,omitempty"`
	ComputedAt  time.Time          `json:"computed_at"`
}

// Threat reports whether the result counts toward threat trends at the given score floor
func (r Result) Threat(floor float64) bool {
	return r.Category != CategoryBenign && r.Score >= floor
}

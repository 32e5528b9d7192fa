// Package graph is the concurrent account graph: accounts as nodes, observed co-activity as
// undirected weighted edges collapsed per account pair.
package graph

import (
	"strings"
	"time"
)

// ActivityLevel buckets how active an account is
type ActivityLevel string

// Activity levels
const (
	ActivityInactive ActivityLevel = "inactive"
	ActivityLow      ActivityLevel = "low"
	ActivityMedium   ActivityLevel = "medium"
	ActivityHigh     ActivityLevel = "high"
)

// Valid reports whether l is a known level
func (l ActivityLevel) Valid() bool {
	switch l {
	case ActivityInactive, ActivityLow, ActivityMedium, ActivityHigh:
		return true
	}
	return false
}

func activityFor(interactions int) ActivityLevel {
	switch {
	case interactions >= 50:
		return ActivityHigh
	case interactions >= 5:
		return ActivityMedium
	}
	return ActivityLow
}

// Kind is the type of co-activity an interaction records
type Kind string

// Interaction kinds
const (
	KindInteraction Kind = "interaction"
	KindRetweet     Kind = "retweet_timing"
	KindHashtag     Kind = "shared_hashtag"
	KindSimilarity  Kind = "content_similarity"
	KindMention     Kind = "mention"
)

// Valid reports whether k is a known kind
func (k Kind) Valid() bool {
	switch k {
	case KindInteraction, KindRetweet, KindHashtag, KindSimilarity, KindMention:
		return true
	}
	return false
}

// Node is an account
type Node struct {
	Handle           string        `json:"handle"`
	CreatedAt        time.Time     `json:"created_at"`
	LastSeenAt       time.Time     `json:"last_seen_at"`
	ActivityLevel    ActivityLevel `json:"activity_level"`
	ConnectionCount  int           `json:"connection_count"`
	InteractionCount int           `json:"interaction_count"`
	// RecentRisk is the highest content score seen for the account, as of RiskAt
	RecentRisk float64   `json:"recent_risk,omitempty"`
	RiskAt     time.Time `json:"risk_at,omitzero"`
}

// Edge is the collapsed co-activity between two accounts; A < B
type Edge struct {
	A          string           `json:"a"`
	B          string           `json:"b"`
	Weight     float64          `json:"weight"`
	LastSeenAt time.Time        `json:"last_seen_at"`
	ByKind     map[Kind]float64 `json:"by_kind"`
}

// Key is the unordered pair key of an edge
type Key struct{ A, B string }

// PairKey orders two handles into a Key
func PairKey(a, b string) Key {
	if b < a {
		a, b = b, a
	}
	return Key{A: a, B: b}
}

// Handle canonicalizes an account handle: trimmed, leading @ dropped, lower-cased
func Handle(h string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(h), "@"))
}

// Package domain holds the bot-network types shared by service and transport
package domain

import (
	"context"
	"time"

	"satyanetra/internal/core/cluster"
	"satyanetra/internal/core/graph"
	"satyanetra/internal/core/pubsub"
)

// InteractionInput is the body of POST /network/interactions. Kind defaults to interaction and
// At to the server clock.
type InteractionInput struct {
	A      string    `json:"a" validate:"required,handle"`
	B      string    `json:"b" validate:"required,handle,nefield=A"`
	Weight float64   `json:"weight" validate:"gt=0"`
	Kind   string    `json:"kind,omitempty" validate:"omitempty,oneof=interaction retweet_timing shared_hashtag content_similarity mention"`
	At     time.Time `json:"at,omitzero"`
}

// AccountInput is the body of POST /network/accounts
type AccountInput struct {
	Handle    string    `json:"handle" validate:"required,handle"`
	CreatedAt time.Time `json:"created_at,omitzero"`
	Inactive  bool      `json:"inactive,omitempty"`
}

// ClusterEvent is published after every successful detection run
type ClusterEvent struct {
	Set          cluster.Set      `json:"set"`
	Changes      []cluster.Change `json:"changes"`
	NewlyFlagged []string         `json:"newly_flagged"`
}

// Stats is the dashboard summary of the graph and the published clusters
type Stats struct {
	TotalNetworks      int       `json:"total_networks"`
	SuspiciousAccounts int       `json:"suspicious_accounts"`
	ActiveCampaigns    int       `json:"active_campaigns"`
	HighRiskClusters   int       `json:"high_risk_clusters"`
	AnalyzedPosts      int64     `json:"analyzed_posts"`
	DetectionRate      float64   `json:"detection_rate"`
	Accounts           int       `json:"accounts"`
	Edges              int       `json:"edges"`
	Epoch              int64     `json:"epoch"`
	DetectedAt         time.Time `json:"detected_at,omitzero"`
}

// MapNode is an account in the visualisation snapshot
type MapNode struct {
	Handle        string              `json:"handle"`
	ClusterID     string              `json:"cluster_id"`
	RiskLevel     cluster.RiskLevel   `json:"risk_level"`
	ActivityLevel graph.ActivityLevel `json:"activity_level"`
	Connections   int                 `json:"connections"`
	RecentRisk    float64             `json:"recent_risk,omitempty"`
}

// Map is the clustered part of the graph
type Map struct {
	Nodes   []MapNode    `json:"nodes"`
	Edges   []graph.Edge `json:"edges"`
	Epoch   int64        `json:"epoch"`
	TakenAt time.Time    `json:"taken_at"`
}

// ServicePort is consumed by handlers and other modules
type ServicePort interface {
	RecordInteraction(ctx context.Context, in InteractionInput) (graph.Edge, error)
	UpsertAccount(ctx context.Context, in AccountInput) (graph.Node, error)
	Clusters(ctx context.Context) cluster.Set
	Detect(ctx context.Context) (cluster.Set, error)
	Stats(ctx context.Context) Stats
	Map(ctx context.Context) Map
	Subscribe() *pubsub.Subscription[ClusterEvent]
}

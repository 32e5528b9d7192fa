// Package domain holds the alert types shared by service and transport
package domain

import (
	"context"
	"time"

	"satyanetra/internal/core/pubsub"
)

// Severity orders alerts; critical alerts bypass the rate limiter
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Rank is 1 for low through 4 for critical, 0 for unknown values
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	}
	return 0
}

// Kind is what raised the alert
type Kind string

const (
	KindContent Kind = "content"
	KindCluster Kind = "cluster"
)

// Alert is an append-only feed entry. Only the acknowledgement fields ever change
type Alert struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Severity       Severity   `json:"severity"`
	Kind           Kind       `json:"kind"`
	SourceRef      string     `json:"source_ref"`
	RaisedAt       time.Time  `json:"raised_at"`
	Acknowledged   bool       `json:"acknowledged"`
	AcknowledgedBy string     `json:"acknowledged_by,omitempty"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
}

// DedupKey identifies alerts that suppress each other inside the window
func (a Alert) DedupKey() string { return a.SourceRef + "|" + string(a.Severity) }

// ListFilter narrows the feed. Results are newest first
type ListFilter struct {
	Limit          int
	MinSeverity    Severity
	Unacknowledged bool
}

// Matches reports whether a passes the severity and acknowledgement filters
func (f ListFilter) Matches(a Alert) bool {
	if f.Unacknowledged && a.Acknowledged {
		return false
	}
	return a.Severity.Rank() >= f.MinSeverity.Rank()
}

// ServicePort is consumed by handlers and the stream module
type ServicePort interface {
	List(ctx context.Context, f ListFilter) ([]Alert, error)
	Acknowledge(ctx context.Context, id, by string) (Alert, error)
	Subscribe() *pubsub.Subscription[Alert]
}

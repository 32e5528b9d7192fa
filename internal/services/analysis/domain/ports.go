package domain

import (
	"context"

	"satyanetra/internal/core/pubsub"
)

// ServicePort is consumed by handlers and by other modules
type ServicePort interface {
	SubmitText(ctx context.Context, in TextInput) (Submitted, error)
	SubmitImage(ctx context.Context, in ImageInput) (Submitted, error)
	Get(ctx context.Context, id string) (Record, error)
	Withdraw(ctx context.Context, id string) (Record, error)
	Reanalyze(ctx context.Context, id string) (Submitted, error)
	Subscribe() *pubsub.Subscription[Event]
	Counts(ctx context.Context) (Counts, error)
}

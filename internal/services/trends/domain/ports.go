// Package domain declares the trends surface
package domain

import (
	"context"

	"satyanetra/internal/core/timeseries"
)

// MaxWindows caps one trends query
const MaxWindows = 1440

// ServicePort is consumed by handlers
type ServicePort interface {
	// Last returns up to n buckets oldest first; the open bucket is last
	Last(ctx context.Context, n int) ([]timeseries.Bucket, error)
}

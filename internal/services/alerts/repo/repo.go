// Package repo stores the alert feed in memory or Postgres
package repo

import (
	"context"
	"slices"
	"sync"
	"time"

	"satyanetra/internal/modkit/repokit"
	perr "satyanetra/internal/platform/errors"
	ptime "satyanetra/internal/platform/time"
	"satyanetra/internal/services/alerts/domain"
)

// DefaultLimit caps List when the filter has no limit
const DefaultLimit = 100

// Storage is the append-only alert feed
type Storage interface {
	Append(ctx context.Context, a domain.Alert) error
	List(ctx context.Context, f domain.ListFilter) ([]domain.Alert, error)
	// Acknowledge is idempotent; the first acknowledgement wins
	Acknowledge(ctx context.Context, id, by string, at time.Time) (domain.Alert, error)
}

type binder struct{}

// NewPG returns a binder for the Postgres implementation
func NewPG() repokit.Binder[Storage] { return binder{} }

// Bind implements repokit.Binder
func (binder) Bind(q repokit.Queryer) Storage { return &pg{q: q} }

func limit(f domain.ListFilter) int {
	if f.Limit <= 0 || f.Limit > 1000 {
		return DefaultLimit
	}
	return f.Limit
}

type memory struct {
	mu    sync.RWMutex
	feed  []domain.Alert
	index map[string]int
}

// NewMemory returns a process-local Storage
func NewMemory() Storage { return &memory{index: map[string]int{}} }

func (m *memory) Append(_ context.Context, a domain.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.index[a.ID]; ok {
		return perr.Newf(perr.ErrorCodeDuplicateKey, "alert %s already stored", a.ID)
	}
	m.index[a.ID] = len(m.feed)
	m.feed = append(m.feed, a)
	return nil
}

func (m *memory) List(_ context.Context, f domain.ListFilter) ([]domain.Alert, error) {
	n := limit(f)
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Alert, 0, min(n, len(m.feed)))
	for _, a := range slices.Backward(m.feed) {
		if len(out) == n {
			break
		}
		if f.Matches(a) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memory) Acknowledge(_ context.Context, id, by string, at time.Time) (domain.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.index[id]
	if !ok {
		return domain.Alert{}, perr.NotFoundf("alert %s not found", id)
	}
	a := &m.feed[i]
	if !a.Acknowledged {
		a.Acknowledged, a.AcknowledgedBy, a.AcknowledgedAt = true, by, ptime.Ptr(at)
	}
	return *a, nil
}

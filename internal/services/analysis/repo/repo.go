// Package repo stores analysis records in memory or Postgres
package repo

import (
	"context"
	"sync"

	"satyanetra/internal/modkit/repokit"
	perr "satyanetra/internal/platform/errors"
	"satyanetra/internal/services/analysis/domain"
)

// Storage is the analysis record store. Put is an upsert keyed by record id
type Storage interface {
	Put(ctx context.Context, r domain.Record) error
	Get(ctx context.Context, id string) (domain.Record, error)
	Counts(ctx context.Context) (domain.Counts, error)
}

type binder struct{}

// NewPG returns a binder for the Postgres implementation
func NewPG() repokit.Binder[Storage] { return binder{} }

// Bind implements repokit.Binder
func (binder) Bind(q repokit.Queryer) Storage { return &pg{q: q} }

type memory struct {
	mu   sync.RWMutex
	recs map[string]domain.Record
}

// NewMemory returns a process-local Storage
func NewMemory() Storage { return &memory{recs: map[string]domain.Record{}} }

func (m *memory) Put(_ context.Context, r domain.Record) error {
	if r.ID == "" {
		return perr.InvalidArgf("record id is required")
	}
	m.mu.Lock()
	m.recs[r.ID] = r
	m.mu.Unlock()
	return nil
}

func (m *memory) Get(_ context.Context, id string) (domain.Record, error) {
	m.mu.RLock()
	r, ok := m.recs[id]
	m.mu.RUnlock()
	if !ok {
		return domain.Record{}, perr.NotFoundf("analysis %s not found", id)
	}
	return r, nil
}

func (m *memory) Counts(context.Context) (domain.Counts, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var c domain.Counts
	for _, r := range m.recs {
		switch r.Status {
		case domain.StatusPending:
			c.Pending++
		case domain.StatusCompleted:
			c.Completed++
		case domain.StatusFailed:
			c.Failed++
		}
	}
	return c, nil
}

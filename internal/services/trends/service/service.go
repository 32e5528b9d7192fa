// Package service feeds published results and cluster changes into the time-series aggregator
// and exports sealed buckets to ClickHouse when a sink is configured.
package service

import (
	"context"
	"sync"
	"time"

	"satyanetra/internal/core/pubsub"
	"satyanetra/internal/core/scoring"
	"satyanetra/internal/core/timeseries"
	perr "satyanetra/internal/platform/errors"
	"satyanetra/internal/platform/logger"
	"satyanetra/internal/platform/metrics"
	analysis "satyanetra/internal/services/analysis/domain"
	network "satyanetra/internal/services/network/domain"
	"satyanetra/internal/services/trends/domain"
)

// Table is the ClickHouse destination for sealed buckets
const Table = "trend_buckets"

// Sink receives sealed buckets as [][]any rows; store.Clickhouse satisfies it
type Sink interface {
	Insert(ctx context.Context, table string, data any) error
}

// Config tunes bucketing
type Config struct {
	Window   time.Duration
	Capacity int
	// ThreatFloor is the minimum score of a non-benign result counted as a threat
	ThreatFloor float64
}

// Svc implements domain.ServicePort
type Svc struct {
	cfg  Config
	agg  *timeseries.Aggregator
	sink Sink
	m    *metrics.Metrics

	// mu serializes exports; cursor is the start of the next window to export
	mu     sync.Mutex
	cursor time.Time
}

var _ domain.ServicePort = (*Svc)(nil)

// New builds the service; sink may be nil
func New(cfg Config, sink Sink, m *metrics.Metrics, opts ...timeseries.Option) *Svc {
	if cfg.ThreatFloor <= 0 {
		cfg.ThreatFloor = 50
	}
	if m == nil {
		m = metrics.Discard()
	}
	agg := timeseries.New(cfg.Window, cfg.Capacity, opts...)
	cfg.Window = agg.Window()
	s := &Svc{cfg: cfg, agg: agg, sink: sink, m: m}
	if open := agg.Last(1); len(open) == 1 {
		s.cursor = open[0].WindowStart
	}
	return s
}

// Window is the bucket width and the roll-over period
func (s *Svc) Window() time.Duration { return s.cfg.Window }

// Last implements domain.ServicePort
func (s *Svc) Last(_ context.Context, n int) ([]timeseries.Bucket, error) {
	if n <= 0 || n > domain.MaxWindows {
		return nil, perr.WithField(perr.InvalidArgf("windows must be between 1 and %d", domain.MaxWindows), "windows")
	}
	return s.agg.Last(n), nil
}

// ObserveResult counts one analysis result
func (s *Svc) ObserveResult(ev analysis.Event) {
	if ev.Threat(s.cfg.ThreatFloor) {
		s.agg.AddThreat(1)
	}
	if ev.Category == scoring.CategoryBotNetwork {
		s.agg.AddBotActivity(1)
	}
}

// ObserveClusters counts accounts that newly entered a flagged cluster
func (s *Svc) ObserveClusters(ev network.ClusterEvent) {
	if n := len(ev.NewlyFlagged); n > 0 {
		s.agg.AddBotActivity(int64(n))
	}
}

// Roll seals closed windows and exports every sealed bucket past the cursor. A failed export
// leaves the cursor in place so the next roll retries the same windows
func (s *Svc) Roll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := s.agg.SealedSince(s.cursor)
	if len(pending) == 0 || s.sink == nil {
		if n := len(pending); n > 0 {
			s.cursor = pending[n-1].WindowEnd
		}
		return nil
	}
	rows := make([][]any, 0, len(pending))
	for _, b := range pending {
		rows = append(rows, []any{b.WindowStart, b.WindowEnd, b.ThreatCount, b.BotActivityCount})
	}
	if err := s.sink.Insert(ctx, Table, rows); err != nil {
		s.m.TrendExports.WithLabelValues("error").Inc()
		return perr.Wrapf(err, perr.ErrorCodeUnavailable, "export %d trend buckets", len(rows))
	}
	s.m.TrendExports.WithLabelValues("ok").Inc()
	s.cursor = pending[len(pending)-1].WindowEnd
	logger.Named("trends").Debug().Int("buckets", len(rows)).Time("through", s.cursor).Msg("trend buckets exported")
	return nil
}

// RunScheduled is the periodic roll job body
func (s *Svc) RunScheduled(ctx context.Context) {
	if err := s.Roll(ctx); err != nil {
		logger.Named("trends").Warn().Err(err).Msg("trend export failed; will retry")
	}
}

// Consume counts results and cluster events until ctx ends or both subscriptions close
func (s *Svc) Consume(ctx context.Context, results *pubsub.Subscription[analysis.Event], clusters *pubsub.Subscription[network.ClusterEvent]) {
	defer results.Unsubscribe()
	defer clusters.Unsubscribe()
	rc, cc := results.C(), clusters.C()
	for rc != nil || cc != nil {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-rc:
			if !ok {
				rc = nil
				continue
			}
			s.ObserveResult(ev)
		case ev, ok := <-cc:
			if !ok {
				cc = nil
				continue
			}
			s.ObserveClusters(ev)
		}
	}
}

// Package service turns published results and cluster changes into alerts. Repeats of the same
// source and severity are suppressed inside a window; non-critical alerts are rate limited.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"satyanetra/internal/core/cluster"
	"satyanetra/internal/core/pubsub"
	"satyanetra/internal/core/scoring"
	"satyanetra/internal/platform/logger"
	"satyanetra/internal/platform/metrics"
	"satyanetra/internal/services/alerts/domain"
	"satyanetra/internal/services/alerts/repo"
	analysis "satyanetra/internal/services/analysis/domain"
	network "satyanetra/internal/services/network/domain"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// Config holds the dispatch policy
type Config struct {
	CriticalScore float64
	HighScore     float64
	// Window suppresses a repeat of the same source and severity
	Window time.Duration
	// PerMinute and Burst shape non-critical alerts; PerMinute <= 0 disables the limiter
	PerMinute    float64
	Burst        int
	StreamBuffer int
}

// DefaultConfig is the stock policy
func DefaultConfig() Config {
	return Config{CriticalScore: 85, HighScore: 70, Window: 15 * time.Minute, PerMinute: 30, Burst: 10}
}

func (c Config) normalized() Config {
	d := DefaultConfig()
	if c.CriticalScore <= 0 {
		c.CriticalScore = d.CriticalScore
	}
	if c.HighScore <= 0 || c.HighScore > c.CriticalScore {
		c.HighScore = min(d.HighScore, c.CriticalScore)
	}
	if c.Window <= 0 {
		c.Window = d.Window
	}
	if c.Burst <= 0 {
		c.Burst = d.Burst
	}
	return c
}

// Svc implements domain.ServicePort
type Svc struct {
	cfg   Config
	st    repo.Storage
	topic *pubsub.Topic[domain.Alert]
	m     *metrics.Metrics
	now   func() time.Time

	mu   sync.Mutex
	seen *cache.Cache
	lim  *rate.Limiter
}

var _ domain.ServicePort = (*Svc)(nil)

// New builds the dispatcher
func New(cfg Config, st repo.Storage, m *metrics.Metrics) *Svc {
	cfg = cfg.normalized()
	if m == nil {
		m = metrics.Discard()
	}
	s := &Svc{
		cfg:   cfg,
		st:    st,
		topic: pubsub.NewTopic[domain.Alert]("alerts", cfg.StreamBuffer, m.StreamDropped.WithLabelValues("alerts")),
		m:     m,
		now:   time.Now,
		seen:  cache.New(cfg.Window, 2*cfg.Window),
	}
	if cfg.PerMinute > 0 {
		s.lim = rate.NewLimiter(rate.Limit(cfg.PerMinute/60), cfg.Burst)
	}
	return s
}

// Topic is the alert publication topic
func (s *Svc) Topic() *pubsub.Topic[domain.Alert] { return s.topic }

// Subscribe implements domain.ServicePort
func (s *Svc) Subscribe() *pubsub.Subscription[domain.Alert] { return s.topic.Subscribe() }

// List implements domain.ServicePort
func (s *Svc) List(ctx context.Context, f domain.ListFilter) ([]domain.Alert, error) {
	return s.st.List(ctx, f)
}

// Acknowledge implements domain.ServicePort
func (s *Svc) Acknowledge(ctx context.Context, id, by string) (domain.Alert, error) {
	a, err := s.st.Acknowledge(ctx, id, by, s.now().UTC())
	if err != nil {
		return a, err
	}
	logger.C(ctx).Info().Str("alert_id", id).Str("by", by).Msg("alert acknowledged")
	return a, nil
}

// ForResult applies the score thresholds to one result
func (s *Svc) ForResult(ev analysis.Event) (domain.Alert, bool) {
	var sev domain.Severity
	switch {
	case ev.Category == scoring.CategoryBenign:
		return domain.Alert{}, false
	case ev.Score >= s.cfg.CriticalScore:
		sev = domain.SeverityCritical
	case ev.Score >= s.cfg.HighScore:
		sev = domain.SeverityHigh
	default:
		return domain.Alert{}, false
	}
	desc := fmt.Sprintf("Content scored %.1f as %s (%s)", ev.Score, ev.Category, ev.Label)
	if ev.SourceHandle != "" {
		desc += " from " + ev.SourceHandle
	}
	return domain.Alert{
		Title:       fmt.Sprintf("%s risk content detected", title(sev)),
		Description: desc,
		Severity:    sev,
		Kind:        domain.KindContent,
		SourceRef:   ev.ContentID,
	}, true
}

// ForClusters lists the alerts one detection run warrants: every critical cluster, and every new
// or escalated cluster at its tier's severity
func (s *Svc) ForClusters(ev network.ClusterEvent) []domain.Alert {
	changed := make(map[string]cluster.Change, len(ev.Changes))
	for _, c := range ev.Changes {
		changed[c.Cluster.ID] = c
	}
	var out []domain.Alert
	for _, c := range ev.Set.Clusters {
		ch, isChange := changed[c.ID]
		if !isChange && c.RiskLevel != cluster.RiskCritical {
			continue
		}
		sev := domain.Severity(c.RiskLevel)
		var what string
		switch {
		case isChange && ch.New:
			what = "New"
		case isChange && ch.Escalated():
			what = "Escalated"
		default:
			what = "Active"
		}
		desc := fmt.Sprintf("%d accounts, %s, average interaction weight %.1f, %.0f%% with recent high-risk content",
			len(c.Members), c.DominantBehavior, c.AvgWeight, c.RiskOverlap*100)
		if ch.Escalated() {
			desc += fmt.Sprintf("; escalated from %s", ch.Previous)
		}
		out = append(out, domain.Alert{
			Title:       fmt.Sprintf("%s %s risk bot network", what, c.RiskLevel),
			Description: desc,
			Severity:    sev,
			Kind:        domain.KindCluster,
			SourceRef:   c.ID,
		})
	}
	return out
}

// Raise runs a candidate through suppression, stores it and publishes it. It reports whether the
// alert was stored
func (s *Svc) Raise(ctx context.Context, a domain.Alert) (domain.Alert, bool, error) {
	log := logger.C(ctx)
	key := a.DedupKey()

	s.mu.Lock()
	if err := s.seen.Add(key, struct{}{}, s.cfg.Window); err != nil {
		s.mu.Unlock()
		s.m.AlertsSuppressed.WithLabelValues("dedup").Inc()
		log.Debug().Str("key", key).Msg("alert suppressed as duplicate")
		return a, false, nil
	}
	if a.Severity != domain.SeverityCritical && s.lim != nil && !s.lim.Allow() {
		s.seen.Delete(key)
		s.mu.Unlock()
		s.m.AlertsSuppressed.WithLabelValues("rate").Inc()
		log.Warn().Str("key", key).Msg("alert suppressed by rate limit")
		return a, false, nil
	}
	s.mu.Unlock()

	a.ID = uuid.NewString()
	a.RaisedAt = s.now().UTC()
	if err := s.st.Append(ctx, a); err != nil {
		s.seen.Delete(key)
		return a, false, err
	}
	s.m.AlertsRaised.WithLabelValues(string(a.Severity)).Inc()
	s.topic.Publish(a)
	log.Info().Str("alert_id", a.ID).Str("severity", string(a.Severity)).Str("source_ref", a.SourceRef).Msg("alert raised")
	return a, true, nil
}

// ConsumeResults raises content alerts until ctx ends or the subscription closes
func (s *Svc) ConsumeResults(ctx context.Context, sub *pubsub.Subscription[analysis.Event]) {
	defer sub.Unsubscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.C():
			if !ok {
				return
			}
			if a, ok := s.ForResult(ev); ok {
				s.raise(ctx, a)
			}
		}
	}
}

// ConsumeClusters raises cluster alerts until ctx ends or the subscription closes
func (s *Svc) ConsumeClusters(ctx context.Context, sub *pubsub.Subscription[network.ClusterEvent]) {
	defer sub.Unsubscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.C():
			if !ok {
				return
			}
			for _, a := range s.ForClusters(ev) {
				s.raise(ctx, a)
			}
		}
	}
}

func (s *Svc) raise(ctx context.Context, a domain.Alert) {
	if _, _, err := s.Raise(ctx, a); err != nil {
		logger.C(ctx).Error().Err(err).Str("source_ref", a.SourceRef).Msg("alert not stored")
	}
}

func title(s domain.Severity) string {
	switch s {
	case domain.SeverityCritical:
		return "Critical"
	case domain.SeverityHigh:
		return "High"
	case domain.SeverityMedium:
		return "Medium"
	}
	return "Low"
}

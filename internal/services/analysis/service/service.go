// Package service runs submitted content through the scoring pipeline on a bounded worker pool
package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"satyanetra/internal/core/content"
	"satyanetra/internal/core/pubsub"
	perr "satyanetra/internal/platform/errors"
	"satyanetra/internal/platform/logger"
	"satyanetra/internal/platform/metrics"
	ptime "satyanetra/internal/platform/time"
	"satyanetra/internal/services/analysis/domain"
	"satyanetra/internal/services/analysis/repo"
)

// Config tunes the worker pool
type Config struct {
	Workers      int
	QueueSize    int
	StreamBuffer int
	Retry        RetryConfig
}

func (c Config) normalized() Config {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 256
	}
	if c.StreamBuffer <= 0 {
		c.StreamBuffer = pubsub.DefaultBuffer
	}
	return c
}

// run is the in-flight state of one analysis
type run struct {
	cancel     context.CancelFunc
	withdrawn  bool
	committing bool
}

// Svc owns the queue, the workers and the results topic
type Svc struct {
	cfg   Config
	repo  repo.Storage
	norm  *content.Normalizer
	pipe  *Pipeline
	topic *pubsub.Topic[domain.Event]
	m     *metrics.Metrics
	now   func() time.Time

	queue    chan domain.Record
	reserved atomic.Int64
	running  atomic.Bool

	mu        sync.Mutex
	inflight  map[string]*run
	closed    bool
	admitting sync.WaitGroup
}

var _ domain.ServicePort = (*Svc)(nil)

// New builds the service; call Run to start the workers
func New(cfg Config, st repo.Storage, norm *content.Normalizer, pipe *Pipeline, m *metrics.Metrics) *Svc {
	cfg = cfg.normalized()
	if m == nil {
		m = metrics.Discard()
	}
	return &Svc{
		cfg:      cfg,
		repo:     st,
		norm:     norm,
		pipe:     pipe,
		topic:    pubsub.NewTopic[domain.Event]("results", cfg.StreamBuffer, m.StreamDropped.WithLabelValues("results")),
		m:        m,
		now:      time.Now,
		queue:    make(chan domain.Record, cfg.QueueSize),
		inflight: map[string]*run{},
	}
}

// Topic exposes the results topic for in-process consumers
func (s *Svc) Topic() *pubsub.Topic[domain.Event] { return s.topic }

// Subscribe implements domain.ServicePort
func (s *Svc) Subscribe() *pubsub.Subscription[domain.Event] { return s.topic.Subscribe() }

// Workers is the configured pool size
func (s *Svc) Workers() int { return s.cfg.Workers }

// Running reports whether the pool is started
func (s *Svc) Running() bool { return s.running.Load() }

// QueueDepth is the number of accepted items not yet picked up by a worker
func (s *Svc) QueueDepth() int { return int(s.reserved.Load()) }

// SubmitText implements domain.ServicePort
func (s *Svc) SubmitText(ctx context.Context, in domain.TextInput) (domain.Submitted, error) {
	it, err := s.norm.Text(in.Text, in.SourceHandle)
	if err != nil {
		return domain.Submitted{}, err
	}
	return s.accept(ctx, it)
}

// SubmitImage implements domain.ServicePort
func (s *Svc) SubmitImage(ctx context.Context, in domain.ImageInput) (domain.Submitted, error) {
	it, err := s.norm.Image(ctx, in.Data, in.Overlay, in.ContentType, in.SourceHandle)
	if err != nil {
		return domain.Submitted{}, err
	}
	return s.accept(ctx, it)
}

func (s *Svc) accept(ctx context.Context, it content.Item) (domain.Submitted, error) {
	rec := domain.Record{
		ID:           it.ID,
		Kind:         it.Kind,
		Status:       domain.StatusPending,
		SourceHandle: it.SourceHandle,
		SubmittedAt:  it.SubmittedAt,
		Revision:     1,
		Item:         it,
	}
	if err := s.enqueue(ctx, rec); err != nil {
		return domain.Submitted{}, err
	}
	logger.C(ctx).Debug().Str("analysis_id", rec.ID).Str("kind", string(rec.Kind)).Msg("content accepted")
	return domain.Submitted{ID: rec.ID, Kind: rec.Kind, Status: rec.Status, SubmittedAt: rec.SubmittedAt}, nil
}

// enqueue reserves a queue slot, stores rec and hands it to the pool. The reservation makes the
// channel send non-blocking.
func (s *Svc) enqueue(ctx context.Context, rec domain.Record) error {
	if s.reserved.Add(1) > int64(s.cfg.QueueSize) {
		s.reserved.Add(-1)
		return perr.TooManyf("analysis queue is full (%d items)", s.cfg.QueueSize)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.reserved.Add(-1)
		return perr.Unavailablef("analysis workers are shut down")
	}
	if _, busy := s.inflight[rec.ID]; busy {
		s.mu.Unlock()
		s.reserved.Add(-1)
		return perr.Conflictf("analysis %s is already running", rec.ID)
	}
	r := &run{}
	s.inflight[rec.ID] = r
	s.admitting.Add(1)
	s.mu.Unlock()
	defer s.admitting.Done()

	if err := s.repo.Put(ctx, rec); err != nil {
		s.release(rec.ID, r)
		s.reserved.Add(-1)
		return err
	}
	s.queue <- rec
	s.m.AnalysisQueueDepth.Set(float64(s.reserved.Load()))
	return nil
}

// release drops the in-flight entry for id if it still belongs to r
func (s *Svc) release(id string, r *run) {
	s.mu.Lock()
	if s.inflight[id] == r {
		delete(s.inflight, id)
	}
	s.mu.Unlock()
}

// Get implements domain.ServicePort
func (s *Svc) Get(ctx context.Context, id string) (domain.Record, error) {
	return s.repo.Get(ctx, id)
}

// Counts implements domain.ServicePort
func (s *Svc) Counts(ctx context.Context) (domain.Counts, error) {
	return s.repo.Counts(ctx)
}

// Withdraw cancels a queued or running analysis and records it as failed. Finished analyses
// cannot be withdrawn.
func (s *Svc) Withdraw(ctx context.Context, id string) (domain.Record, error) {
	s.mu.Lock()
	r, ok := s.inflight[id]
	switch {
	case !ok:
		s.mu.Unlock()
		rec, err := s.repo.Get(ctx, id)
		if err != nil {
			return domain.Record{}, err
		}
		if rec.Status.Terminal() {
			return rec, perr.Conflictf("analysis %s already %s", id, rec.Status)
		}
		return s.fail(ctx, rec, 0, domain.ReasonWithdrawn)
	case r.committing:
		s.mu.Unlock()
		return domain.Record{}, perr.Conflictf("analysis %s is completing", id)
	}
	r.withdrawn = true
	if r.cancel != nil {
		r.cancel()
	}
	s.mu.Unlock()

	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Record{}, err
	}
	logger.C(ctx).Info().Str("analysis_id", id).Msg("analysis withdrawn")
	return s.fail(ctx, rec, rec.Attempts, domain.ReasonWithdrawn)
}

// Reanalyze queues a finished analysis again. The new result supersedes the prior one
func (s *Svc) Reanalyze(ctx context.Context, id string) (domain.Submitted, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Submitted{}, err
	}
	if !rec.Status.Terminal() {
		return domain.Submitted{}, perr.Conflictf("analysis %s is still pending", id)
	}
	if rec.Kind == content.KindImage && (rec.Item.Image == nil || len(rec.Item.Image.Data) == 0) {
		return domain.Submitted{}, perr.Conflictf("analysis %s no longer has its image bytes", id)
	}

	rec.Status = domain.StatusPending
	rec.Revision++
	rec.Reason = ""
	rec.Result = nil
	rec.FinishedAt = nil
	rec.Attempts = 0
	if err := s.enqueue(ctx, rec); err != nil {
		return domain.Submitted{}, err
	}
	return domain.Submitted{ID: rec.ID, Kind: rec.Kind, Status: rec.Status, SubmittedAt: rec.SubmittedAt}, nil
}

// Run starts the workers and blocks until ctx is done. Items still queued at shutdown are
// recorded as failed rather than dropped, and later submissions are refused as unavailable.
// The pool runs once per Svc.
func (s *Svc) Run(ctx context.Context) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return perr.Conflictf("analysis workers already stopped")
	}
	if !s.running.CompareAndSwap(false, true) {
		return perr.Conflictf("analysis workers already running")
	}
	defer s.running.Store(false)

	log := logger.Named("analysis")
	log.Info().Int("workers", s.cfg.Workers).Int("queue", s.cfg.QueueSize).Msg("analysis workers starting")

	var wg sync.WaitGroup
	for range s.cfg.Workers {
		wg.Go(func() {
			for {
				select {
				case <-ctx.Done():
					return
				case rec := <-s.queue:
					s.dequeued()
					s.process(ctx, rec)
				}
			}
		})
	}
	<-ctx.Done()
	wg.Wait()

	// no new admissions; wait out the ones already past the check so they land in the queue
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.admitting.Wait()

	drain := context.WithoutCancel(ctx)
	for {
		select {
		case rec := <-s.queue:
			s.dequeued()
			s.mu.Lock()
			delete(s.inflight, rec.ID)
			s.mu.Unlock()
			_, _ = s.fail(drain, rec, 0, "analysis interrupted by shutdown")
		default:
			s.topic.Close()
			log.Info().Msg("analysis workers stopped")
			return ctx.Err()
		}
	}
}

func (s *Svc) dequeued() {
	s.m.AnalysisQueueDepth.Set(float64(s.reserved.Add(-1)))
}

func (s *Svc) process(parent context.Context, rec domain.Record) {
	ctx, cancel := context.WithCancel(logger.WithAnalysis(parent, rec.ID))
	defer cancel()
	log := logger.C(ctx)

	s.mu.Lock()
	r := s.inflight[rec.ID]
	if r == nil || r.withdrawn {
		delete(s.inflight, rec.ID)
		s.mu.Unlock()
		return
	}
	r.cancel = cancel
	s.mu.Unlock()
	defer s.release(rec.ID, r)

	start := s.now()
	attempts := 0
	defer func() {
		if p := recover(); p != nil {
			log.Error().Interface("panic", p).Msg("analysis panicked")
			if s.commit(rec.ID) {
				_, _ = s.fail(context.WithoutCancel(ctx), rec, attempts, fmt.Sprintf("internal error: %v", p))
			}
		}
	}()

	res, attempts, err := s.pipe.Run(ctx, rec.Item)
	s.m.AnalysisDuration.WithLabelValues(string(rec.Kind)).Observe(s.now().Sub(start).Seconds())

	if !s.commit(rec.ID) {
		// withdrawn: the withdrawer owns the record now and nothing is published
		return
	}
	store := context.WithoutCancel(ctx)
	if err != nil {
		reason := err.Error()
		if parent.Err() != nil {
			reason = "analysis interrupted by shutdown"
		}
		log.Warn().Err(err).Int("attempts", attempts).Msg("analysis failed")
		_, _ = s.fail(store, rec, attempts, reason)
		return
	}

	rec.Status, rec.Result, rec.Attempts, rec.FinishedAt, rec.Reason = domain.StatusCompleted, &res, attempts, ptime.Ptr(s.now().UTC()), ""
	if err := s.repo.Put(store, rec); err != nil {
		log.Error().Err(err).Msg("store result failed")
		_, _ = s.fail(store, rec, attempts, "result could not be stored")
		return
	}
	s.m.AnalysisOutcomes.WithLabelValues(string(domain.StatusCompleted)).Inc()
	s.release(rec.ID, r)
	s.topic.Publish(domain.Event{Result: res, SourceHandle: rec.SourceHandle, Revision: rec.Revision})
	log.Debug().Float64("score", res.Score).Str("category", string(res.Category)).Msg("analysis completed")
}

// commit marks the run as finishing; false means it was withdrawn first
func (s *Svc) commit(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.inflight[id]
	if r == nil || r.withdrawn {
		return false
	}
	r.committing = true
	return true
}

func (s *Svc) fail(ctx context.Context, rec domain.Record, attempts int, reason string) (domain.Record, error) {
	rec.Status, rec.Reason, rec.FinishedAt, rec.Result = domain.StatusFailed, reason, ptime.Ptr(s.now().UTC()), nil
	if attempts > 0 {
		rec.Attempts = attempts
	}
	if err := s.repo.Put(ctx, rec); err != nil {
		logger.C(ctx).Error().Err(err).Str("analysis_id", rec.ID).Msg("store failure failed")
		return rec, err
	}
	s.m.AnalysisOutcomes.WithLabelValues(string(domain.StatusFailed)).Inc()
	return rec, nil
}

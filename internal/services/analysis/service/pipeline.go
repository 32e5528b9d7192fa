package service

import (
	"context"
	"time"

	"satyanetra/internal/core/content"
	"satyanetra/internal/core/features"
	"satyanetra/internal/core/scoring"
	perr "satyanetra/internal/platform/errors"
	"satyanetra/internal/platform/logger"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
)

// RetryConfig bounds how often a ModelUnavailable extraction is attempted again
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultRetryConfig retries three times starting at 200ms
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxRetries: 3, BaseDelay: 200 * time.Millisecond, MaxDelay: 5 * time.Second}
}

func (c RetryConfig) normalized() RetryConfig {
	d := DefaultRetryConfig()
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = d.BaseDelay
	}
	if c.MaxDelay < c.BaseDelay {
		c.MaxDelay = max(d.MaxDelay, c.BaseDelay)
	}
	return c
}

// Pipeline runs one item through extraction and scoring. It holds no per-item state and is safe
// for concurrent use; the worker pool and the CLI both drive it.
type Pipeline struct {
	ext    *features.Extractor
	scorer *scoring.Scorer
	retry  retrypolicy.RetryPolicy[features.Vector]
	now    func() time.Time
}

// NewPipeline builds a Pipeline
func NewPipeline(ext *features.Extractor, sc *scoring.Scorer, rc RetryConfig) *Pipeline {
	rc = rc.normalized()
	rp := retrypolicy.NewBuilder[features.Vector]().
		HandleIf(func(_ features.Vector, err error) bool { return perr.Retryable(err) }).
		WithBackoff(rc.BaseDelay, rc.MaxDelay).
		WithMaxRetries(rc.MaxRetries).
		WithJitterFactor(0.1).
		ReturnLastFailure().
		Build()
	return &Pipeline{ext: ext, scorer: sc, retry: rp, now: time.Now}
}

// Run extracts and scores it. attempts counts extraction calls, retries included
func (p *Pipeline) Run(ctx context.Context, it content.Item) (res scoring.Result, attempts int, err error) {
	log := logger.C(ctx)
	vec, err := failsafe.With(p.retry).WithContext(ctx).Get(func() (features.Vector, error) {
		attempts++
		v, err := p.ext.Extract(ctx, it)
		if err != nil && perr.Retryable(err) {
			log.Warn().Err(err).Int("attempt", attempts).Msg("extraction failed")
		}
		return v, err
	})
	if err != nil {
		return scoring.Result{}, attempts, err
	}

	res = p.scorer.Score(vec)
	res.ContentID = it.ID
	res.ComputedAt = p.now().UTC()
	return res, attempts, nil
}

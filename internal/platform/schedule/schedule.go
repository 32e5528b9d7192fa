// Package schedule runs periodic background jobs on a gocron scheduler in UTC.
// Jobs run in singleton mode so a slow run is never overlapped by the next tick.
package schedule

import (
	"context"
	"time"

	perr "satyanetra/internal/platform/errors"
	"satyanetra/internal/platform/logger"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler owns the gocron instance
type Scheduler struct {
	s gocron.Scheduler
}

// New builds a stopped scheduler
func New() (*Scheduler, error) {
	s, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "create scheduler")
	}
	return &Scheduler{s: s}, nil
}

// Every registers fn to run every d. ctx is handed to each run and should be the process context
func (s *Scheduler) Every(ctx context.Context, name string, d time.Duration, fn func(context.Context)) error {
	if d <= 0 {
		return perr.InvalidArgf("job %s: interval must be positive", name)
	}
	log := logger.Named("schedule")
	_, err := s.s.NewJob(
		gocron.DurationJob(d),
		gocron.NewTask(func() {
			if ctx.Err() != nil {
				return
			}
			start := time.Now()
			fn(ctx)
			log.Debug().Str("job", name).Dur("took", time.Since(start)).Msg("job ran")
		}),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "register job %s", name)
	}
	log.Info().Str("job", name).Dur("every", d).Msg("job registered")
	return nil
}

// Start begins running registered jobs
func (s *Scheduler) Start() { s.s.Start() }

// Jobs is the number of registered jobs
func (s *Scheduler) Jobs() int { return len(s.s.Jobs()) }

// Shutdown stops the scheduler and waits for running jobs
func (s *Scheduler) Shutdown() error { return s.s.Shutdown() }

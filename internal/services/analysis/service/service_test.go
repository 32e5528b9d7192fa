package service_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"satyanetra/internal/core/content"
	"satyanetra/internal/core/features"
	"satyanetra/internal/core/lexicon"
	"satyanetra/internal/core/scoring"
	perr "satyanetra/internal/platform/errors"
	"satyanetra/internal/platform/metrics"
	"satyanetra/internal/platform/testkit"
	"satyanetra/internal/services/analysis/domain"
	"satyanetra/internal/services/analysis/repo"
	"satyanetra/internal/services/analysis/service"
)

const urgent = "URGENT: they are lying to you, trust no official source!!!"

type modelFunc func(ctx context.Context, req features.Request) (map[features.Signal]float64, error)

func (f modelFunc) Infer(ctx context.Context, req features.Request) (map[features.Signal]float64, error) {
	return f(ctx, req)
}

type fixture struct {
	svc  *service.Svc
	st   repo.Storage
	stop context.CancelFunc
	done chan struct{}
}

func newFixture(t *testing.T, model features.Model, cfg service.Config) *fixture {
	t.Helper()
	lx, err := lexicon.Default()
	if err != nil {
		t.Fatalf("lexicon: %v", err)
	}
	opts := []features.ExtractorOption{features.WithModelTimeout(20 * time.Millisecond)}
	if model != nil {
		opts = append(opts, features.WithModel(model))
	}
	if cfg.Retry == (service.RetryConfig{}) {
		cfg.Retry = service.RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
	}
	pipe := service.NewPipeline(features.NewExtractor(lx, opts...), scoring.New(scoring.Options{}), cfg.Retry)
	st := repo.NewMemory()
	return &fixture{
		svc: service.New(cfg, st, content.NewNormalizer(content.Limits{}), pipe, metrics.Discard()),
		st:  st,
	}
}

func (f *fixture) start(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	f.stop, f.done = cancel, make(chan struct{})
	go func() {
		_ = f.svc.Run(ctx)
		close(f.done)
	}()
	testkit.Eventually(t, time.Second, f.svc.Running, "workers did not start")
	t.Cleanup(func() {
		cancel()
		<-f.done
	})
}

func (f *fixture) waitStatus(t *testing.T, id string, want domain.Status) domain.Record {
	t.Helper()
	var rec domain.Record
	testkit.Eventually(t, 2*time.Second, func() bool {
		r, err := f.svc.Get(context.Background(), id)
		rec = r
		return err == nil && r.Status == want
	}, "analysis never reached "+string(want))
	return rec
}

func TestSubmitScoresAndPublishes(t *testing.T) {
	f := newFixture(t, nil, service.Config{Workers: 2})
	sub := f.svc.Subscribe()
	defer sub.Unsubscribe()
	f.start(t)

	ack, err := f.svc.SubmitText(context.Background(), domain.TextInput{Text: urgent, SourceHandle: "@loud"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if ack.Status != domain.StatusPending || ack.ID == "" {
		t.Fatalf("ack = %+v", ack)
	}

	select {
	case ev := <-sub.C():
		if ev.ContentID != ack.ID || ev.Category != scoring.CategoryPropaganda || ev.Score != 87.7 {
			t.Fatalf("event = %+v", ev)
		}
		if ev.SourceHandle != "@loud" || ev.Revision != 1 {
			t.Fatalf("event meta = %q rev %d", ev.SourceHandle, ev.Revision)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no result published")
	}

	rec := f.waitStatus(t, ack.ID, domain.StatusCompleted)
	if rec.Result == nil || rec.Result.Score != 87.7 || rec.Attempts != 1 {
		t.Fatalf("record = %+v", rec)
	}
}

func TestSubmitRejectsInvalidInput(t *testing.T) {
	f := newFixture(t, nil, service.Config{})
	_, err := f.svc.SubmitText(context.Background(), domain.TextInput{Text: " \t "})
	testkit.MustCode(t, err, perr.ErrorCodeInvalidArgument)

	_, err = f.svc.SubmitImage(context.Background(), domain.ImageInput{Data: []byte("plain words, not pixels")})
	testkit.MustCode(t, err, perr.ErrorCodeInvalidArgument)
}

func TestTimeoutsThenSuccessPublishesResult(t *testing.T) {
	var calls atomic.Int32
	model := modelFunc(func(ctx context.Context, _ features.Request) (map[features.Signal]float64, error) {
		if calls.Add(1) <= 2 {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return map[features.Signal]float64{features.PropagandaSimilarity: 0.75}, nil
	})
	f := newFixture(t, model, service.Config{Workers: 1})
	f.start(t)

	ack, err := f.svc.SubmitText(context.Background(), domain.TextInput{Text: urgent})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	rec := f.waitStatus(t, ack.ID, domain.StatusCompleted)
	if rec.Attempts != 3 || calls.Load() != 3 {
		t.Fatalf("attempts = %d calls = %d, want 3", rec.Attempts, calls.Load())
	}
	if rec.Result.Category != scoring.CategoryPropaganda {
		t.Fatalf("category = %s", rec.Result.Category)
	}
}

func TestRetriesExhaustedRecordsFailure(t *testing.T) {
	var calls atomic.Int32
	model := modelFunc(func(context.Context, features.Request) (map[features.Signal]float64, error) {
		calls.Add(1)
		return nil, errors.New("connection refused")
	})
	f := newFixture(t, model, service.Config{Workers: 1})
	sub := f.svc.Subscribe()
	defer sub.Unsubscribe()
	f.start(t)

	ack, _ := f.svc.SubmitText(context.Background(), domain.TextInput{Text: urgent})
	rec := f.waitStatus(t, ack.ID, domain.StatusFailed)
	if calls.Load() != 4 || rec.Attempts != 4 {
		t.Fatalf("calls = %d attempts = %d, want 4", calls.Load(), rec.Attempts)
	}
	testkit.MustContain(t, rec.Reason, "inference failed")
	select {
	case ev := <-sub.C():
		t.Fatalf("failure published a result: %+v", ev)
	default:
	}
}

func TestQueueFullIsTooManyRequests(t *testing.T) {
	f := newFixture(t, nil, service.Config{QueueSize: 2})
	for range 2 {
		if _, err := f.svc.SubmitText(context.Background(), domain.TextInput{Text: "hello there"}); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	_, err := f.svc.SubmitText(context.Background(), domain.TextInput{Text: "hello there"})
	testkit.MustCode(t, err, perr.ErrorCodeTooManyRequests)
	if f.svc.QueueDepth() != 2 {
		t.Fatalf("depth = %d", f.svc.QueueDepth())
	}
}

func TestSubmitAfterShutdownIsUnavailable(t *testing.T) {
	f := newFixture(t, nil, service.Config{Workers: 1})
	f.start(t)
	f.stop()
	<-f.done

	_, err := f.svc.SubmitText(context.Background(), domain.TextInput{Text: urgent})
	testkit.MustCode(t, err, perr.ErrorCodeUnavailable)
	if f.svc.QueueDepth() != 0 {
		t.Fatalf("depth = %d after refused submit", f.svc.QueueDepth())
	}
	if counts, err := f.svc.Counts(context.Background()); err != nil || counts.Pending != 0 {
		t.Fatalf("counts = %+v, %v", counts, err)
	}
	if err := f.svc.Run(context.Background()); !perr.IsCode(err, perr.ErrorCodeConflict) {
		t.Fatalf("second run = %v", err)
	}
}

func TestWithdrawQueuedItem(t *testing.T) {
	f := newFixture(t, nil, service.Config{Workers: 1})
	sub := f.svc.Subscribe()
	defer sub.Unsubscribe()

	ack, _ := f.svc.SubmitText(context.Background(), domain.TextInput{Text: urgent})
	rec, err := f.svc.Withdraw(context.Background(), ack.ID)
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if rec.Status != domain.StatusFailed || rec.Reason != domain.ReasonWithdrawn {
		t.Fatalf("record = %+v", rec)
	}

	f.start(t)
	testkit.Eventually(t, time.Second, func() bool { return f.svc.QueueDepth() == 0 }, "queue not drained")
	time.Sleep(20 * time.Millisecond)
	if got, _ := f.svc.Get(context.Background(), ack.ID); got.Status != domain.StatusFailed {
		t.Fatalf("status after run = %s", got.Status)
	}
	select {
	case ev := <-sub.C():
		t.Fatalf("withdrawn item published %+v", ev)
	default:
	}

	_, err = f.svc.Withdraw(context.Background(), ack.ID)
	testkit.MustCode(t, err, perr.ErrorCodeConflict)
}

func TestWithdrawCancelsRunningAnalysis(t *testing.T) {
	entered := make(chan struct{})
	var released atomic.Bool
	model := modelFunc(func(ctx context.Context, _ features.Request) (map[features.Signal]float64, error) {
		close(entered)
		<-ctx.Done()
		released.Store(true)
		return nil, ctx.Err()
	})
	lx, _ := lexicon.Default()
	// long model timeout so only the withdrawal can end the call
	pipe := service.NewPipeline(
		features.NewExtractor(lx, features.WithModel(model), features.WithModelTimeout(time.Minute)),
		scoring.New(scoring.Options{}),
		service.RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond},
	)
	f := &fixture{st: repo.NewMemory()}
	f.svc = service.New(service.Config{Workers: 1}, f.st, content.NewNormalizer(content.Limits{}), pipe, metrics.Discard())
	sub := f.svc.Subscribe()
	defer sub.Unsubscribe()
	f.start(t)

	ack, _ := f.svc.SubmitText(context.Background(), domain.TextInput{Text: urgent})
	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatalf("model never called")
	}
	if _, err := f.svc.Withdraw(context.Background(), ack.ID); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	testkit.Eventually(t, time.Second, released.Load, "model call not cancelled")

	rec := f.waitStatus(t, ack.ID, domain.StatusFailed)
	if rec.Reason != domain.ReasonWithdrawn {
		t.Fatalf("reason = %q", rec.Reason)
	}
	select {
	case ev := <-sub.C():
		t.Fatalf("withdrawn item published %+v", ev)
	case <-time.After(30 * time.Millisecond):
	}
}

func TestReanalyzeSupersedes(t *testing.T) {
	f := newFixture(t, nil, service.Config{Workers: 1})
	sub := f.svc.Subscribe()
	defer sub.Unsubscribe()
	f.start(t)

	ack, _ := f.svc.SubmitText(context.Background(), domain.TextInput{Text: urgent})
	first := f.waitStatus(t, ack.ID, domain.StatusCompleted)
	<-sub.C()

	if _, err := f.svc.Reanalyze(context.Background(), ack.ID); err != nil {
		t.Fatalf("reanalyze: %v", err)
	}
	select {
	case ev := <-sub.C():
		if ev.Revision != 2 || ev.ContentID != ack.ID {
			t.Fatalf("event = %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no re-analysis result")
	}
	second := f.waitStatus(t, ack.ID, domain.StatusCompleted)
	if second.Revision != 2 || second.Result == first.Result {
		t.Fatalf("result not superseded: %+v", second)
	}
	if second.Result.Score != first.Result.Score {
		t.Fatalf("scores differ: %v vs %v", second.Result.Score, first.Result.Score)
	}
}

func TestPanicIsIsolatedPerItem(t *testing.T) {
	var calls atomic.Int32
	model := modelFunc(func(context.Context, features.Request) (map[features.Signal]float64, error) {
		if calls.Add(1) == 1 {
			panic("model exploded")
		}
		return map[features.Signal]float64{}, nil
	})
	f := newFixture(t, model, service.Config{Workers: 1})
	f.start(t)

	bad, _ := f.svc.SubmitText(context.Background(), domain.TextInput{Text: urgent})
	rec := f.waitStatus(t, bad.ID, domain.StatusFailed)
	testkit.MustContain(t, rec.Reason, "model exploded")

	good, _ := f.svc.SubmitText(context.Background(), domain.TextInput{Text: "a calm note"})
	f.waitStatus(t, good.ID, domain.StatusCompleted)
}

func TestGetUnknown(t *testing.T) {
	f := newFixture(t, nil, service.Config{})
	_, err := f.svc.Get(context.Background(), "nope")
	testkit.MustCode(t, err, perr.ErrorCodeNotFound)
}

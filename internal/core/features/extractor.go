package features

import (
	"context"
	"errors"
	"time"

	"satyanetra/internal/core/content"
	"satyanetra/internal/core/lexicon"
	perr "satyanetra/internal/platform/errors"
)

// DefaultModelTimeout bounds a single inference call
const DefaultModelTimeout = 5 * time.Second

// Request is what the inference capability receives
type Request struct {
	Kind  content.Kind
	Text  string
	Image *content.Image
}

// Model is the external inference capability. It returns magnitudes for the signals it
// supports; unknown signal names are ignored.
type Model interface {
	Infer(ctx context.Context, req Request) (map[Signal]float64, error)
}

// Extractor turns items into vectors. Safe for concurrent use
type Extractor struct {
	lx      *lexicon.Lexicon
	model   Model
	timeout time.Duration
}

// ExtractorOption configures an Extractor
type ExtractorOption func(*Extractor)

// WithModel sets the inference capability. Without one, propaganda similarity falls back to the
// embedded templates and image-only signals are omitted.
func WithModel(m Model) ExtractorOption { return func(e *Extractor) { e.model = m } }

// WithModelTimeout sets the per-call timeout
func WithModelTimeout(d time.Duration) ExtractorOption {
	return func(e *Extractor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// NewExtractor builds an Extractor over a lexicon
func NewExtractor(lx *lexicon.Lexicon, opts ...ExtractorOption) *Extractor {
	e := &Extractor{lx: lx, timeout: DefaultModelTimeout}
	for _, o := range opts {
		o(e)
	}
	return e
}

// HasModel reports whether an inference capability is wired
func (e *Extractor) HasModel() bool { return e.model != nil }

// Extract computes the vector for it. A model failure is ModelUnavailable and retryable;
// cancellation of ctx is returned as the context error.
func (e *Extractor) Extract(ctx context.Context, it content.Item) (Vector, error) {
	v := Vector{Kind: it.Kind, Language: "und", Values: map[Signal]float64{}}

	text := it.AnalyzableText()
	if text != "" {
		v.Language = textSignals(e.lx, text, &v)
	}

	switch it.Kind {
	case content.KindText:
		if e.model == nil {
			return v, nil
		}
		out, err := e.infer(ctx, Request{Kind: it.Kind, Text: text})
		if err != nil {
			return Vector{}, err
		}
		merge(&v, out, PropagandaSimilarity)
	case content.KindImage:
		if it.Image != nil && it.Image.OverlayPartial {
			v.Partial = true
		}
		if e.model == nil {
			v.Partial = true
			return v, nil
		}
		out, err := e.infer(ctx, Request{Kind: it.Kind, Text: text, Image: it.Image})
		if err != nil {
			return Vector{}, err
		}
		merge(&v, out, PropagandaSimilarity, DehumanizingImagery, StatisticOverlayMisleading)
		if !v.Has(DehumanizingImagery) || !v.Has(StatisticOverlayMisleading) {
			v.Partial = true
		}
	default:
		return Vector{}, perr.InvalidArgf("unsupported content kind %q", it.Kind)
	}
	return v, nil
}

func (e *Extractor) infer(ctx context.Context, req Request) (map[Signal]float64, error) {
	cctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	out, err := e.model.Infer(cctx, req)
	if err == nil {
		return out, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) || cctx.Err() != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeModelUnavailable, "inference timed out after %s", e.timeout)
	}
	if perr.IsCode(err, perr.ErrorCodeModelUnavailable) {
		return nil, err
	}
	return nil, perr.Wrap(err, perr.ErrorCodeModelUnavailable, "inference failed")
}

// merge copies the allowed model outputs into v, model values replacing lexical ones
func merge(v *Vector, out map[Signal]float64, allowed ...Signal) {
	for _, s := range allowed {
		if x, ok := out[s]; ok {
			v.set(s, x)
		}
	}
}

// Package module wires the analysis pipeline into the API using modkit
package module

import (
	"context"
	"time"

	"satyanetra/internal/core/content"
	"satyanetra/internal/core/features"
	"satyanetra/internal/core/lexicon"
	"satyanetra/internal/core/pubsub"
	"satyanetra/internal/core/scoring"
	modkit "satyanetra/internal/modkit"
	"satyanetra/internal/modkit/httpkit"
	"satyanetra/internal/modkit/repokit"
	"satyanetra/internal/services/analysis/domain"
	analysishttp "satyanetra/internal/services/analysis/http"
	"satyanetra/internal/services/analysis/repo"
	"satyanetra/internal/services/analysis/service"
)

// Ports is what other modules consume
type Ports struct {
	Service domain.ServicePort
	Results *pubsub.Topic[domain.Event]
}

// Module implements module.Module for analysis
type Module struct {
	b     modkit.Built
	opt   Options
	svc   *service.Svc
	model bool
}

// New builds the module. A nil Lexicon loads the embedded default
func New(deps modkit.Deps, o Options, opts ...modkit.Option) (*Module, error) {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("analysis"), modkit.WithPrefix("/analysis")}, opts...)...)

	lx := o.Lexicon
	if lx == nil {
		var err error
		if lx, err = lexicon.Default(); err != nil {
			return nil, err
		}
	}

	pipe := NewPipeline(lx, o)

	var nopts []content.Option
	if o.OCR != nil {
		nopts = append(nopts, content.WithOCR(o.OCR))
	}
	norm := content.NewNormalizer(o.Limits, nopts...)

	var st repo.Storage
	if deps.PG != nil {
		st = repokit.MustBind(repo.NewPG(), deps.PG)
	} else {
		st = repo.NewMemory()
	}

	return &Module{
		b:     b,
		opt:   o,
		svc:   service.New(o.Service, st, norm, pipe, deps.MetricsOrDiscard()),
		model: o.Model != nil,
	}, nil
}

// NewPipeline builds the extraction and scoring pipeline from options; the CLI uses it directly
func NewPipeline(lx *lexicon.Lexicon, o Options) *service.Pipeline {
	eopts := []features.ExtractorOption{features.WithModelTimeout(o.ModelTimeout)}
	if o.Model != nil {
		eopts = append(eopts, features.WithModel(o.Model))
	}
	return service.NewPipeline(features.NewExtractor(lx, eopts...), scoring.New(o.Scoring), o.Service.Retry)
}

// MountRoutes implements module.Module
func (m *Module) MountRoutes(r httpkit.Router) {
	m.b.Mount(r, func(g httpkit.Router) {
		if m.opt.SubmitPerMinute > 0 {
			analysishttp.Register(g, m.svc, httpkit.RateLimit(m.opt.SubmitPerMinute, time.Minute))
			return
		}
		analysishttp.Register(g, m.svc)
	})
}

// Name implements module.Module
func (m *Module) Name() string { return m.b.Name }

// Ports implements module.Module
func (m *Module) Ports() any { return Ports{Service: m.svc, Results: m.svc.Topic()} }

// Service exposes the concrete service for wiring in main
func (m *Module) Service() *service.Svc { return m.svc }

// HasModel reports whether an inference capability is wired
func (m *Module) HasModel() bool { return m.model }

// Run starts the worker pool and blocks until ctx is done
func (m *Module) Run(ctx context.Context) error { return m.svc.Run(ctx) }

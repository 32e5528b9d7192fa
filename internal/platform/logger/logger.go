// Package logger owns the process root zerolog logger and the context fields that follow a
// request or an analysis through the pipeline
package logger

import (
	"context"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"satyanetra/internal/platform/config/raw"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

// Logger is the logging type passed around the codebase
type Logger = zerolog.Logger

// Options configures the root logger
type Options struct {
	Level     string // trace..panic; unknown values mean debug
	Format    string // "console" or "json"
	Service   string
	Component string
	Writer    io.Writer // stdout when nil
	// WithCaller adds file:line to every event
	WithCaller bool
	// SampleEvery keeps one event in N when above 1
	SampleEvery  int
	StaticFields map[string]string
}

// FromEnv reads LOG_* through the raw view, which does not log
func FromEnv() Options {
	env := raw.New().Prefix("LOG_")
	return Options{
		Level:       strings.ToLower(env.Get("LEVEL", "debug")),
		Format:      strings.ToLower(env.Get("FORMAT", "console")),
		Service:     env.Get("SERVICE", "satyanetra"),
		Component:   env.Get("COMPONENT", ""),
		WithCaller:  env.GetBool("CALLER", false),
		SampleEvery: env.GetInt("SAMPLE_EVERY", 0),
	}
}

var (
	initOnce sync.Once
	root     atomic.Pointer[Logger]
)

// Get returns the root logger, initialising it from the environment on first use
func Get() *Logger {
	if l := root.Load(); l != nil {
		return l
	}
	Init(FromEnv())
	return root.Load()
}

// Init builds the root logger. Only the first call has any effect
func Init(opt Options) {
	initOnce.Do(func() {
		zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
		zerolog.TimeFieldFormat = time.RFC3339Nano

		out := opt.Writer
		if out == nil {
			out = os.Stdout
		}
		if opt.Format == "console" {
			out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
		}

		fields := map[string]string{"service": opt.Service, "component": opt.Component}
		if bi, ok := debug.ReadBuildInfo(); ok {
			fields["go_version"] = bi.GoVersion
		}
		for k, v := range opt.StaticFields {
			fields[k] = v
		}

		b := zerolog.New(out).Level(parseLevel(opt.Level)).With().Timestamp()
		for k, v := range fields {
			if v != "" {
				b = b.Str(k, v)
			}
		}
		if opt.WithCaller {
			b = b.Caller()
		}
		l := b.Logger()
		if opt.SampleEvery > 1 {
			l = l.Sample(&zerolog.BasicSampler{N: uint32(opt.SampleEvery)})
		}
		root.Store(&l)
	})
}

// parseLevel maps a level name onto zerolog, treating "warning" as warn and anything
// unrecognised (including no-level and disabled) as debug
func parseLevel(s string) zerolog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || lvl == zerolog.NoLevel || lvl == zerolog.Disabled {
		return zerolog.DebugLevel
	}
	return lvl
}

// ctxField is a context key that C copies onto child loggers under its own name
type ctxField string

const (
	fieldRequestID  ctxField = "request_id"
	fieldSubject    ctxField = "subject"
	fieldAnalysisID ctxField = "analysis_id"
)

var ctxFields = [...]ctxField{fieldRequestID, fieldSubject, fieldAnalysisID}

func with(ctx context.Context, f ctxField, v string) context.Context {
	if v == "" {
		return ctx
	}
	return context.WithValue(ctx, f, v)
}

// WithRequest stores the request id and the authenticated subject on ctx; blanks are skipped
func WithRequest(ctx context.Context, reqID, subject string) context.Context {
	return with(with(ctx, fieldRequestID, reqID), fieldSubject, subject)
}

// WithAnalysis tags ctx with the analysis being processed
func WithAnalysis(ctx context.Context, analysisID string) context.Context {
	return with(ctx, fieldAnalysisID, analysisID)
}

// C returns a child of the root logger carrying whatever ctx fields are set
func C(ctx context.Context) *Logger {
	b := Get().With()
	for _, f := range ctxFields {
		if v, _ := ctx.Value(f).(string); v != "" {
			b = b.Str(string(f), v)
		}
	}
	l := b.Logger()
	return &l
}

// Named returns a child of the root logger with component set
func Named(component string) *Logger {
	if component == "" {
		return Get()
	}
	l := Get().With().Str("component", component).Logger()
	return &l
}

// RequestID returns the id stored by WithRequest
func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(fieldRequestID).(string)
	return v
}

package pg

import (
	"context"
	"strings"
	"time"

	"satyanetra/internal/platform/logger"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// queryTracer logs statements through pgx's tracing hooks
type queryTracer struct {
	log  logger.Logger
	slow time.Duration
	all  bool
	now  func() time.Time
}

type traceKey struct{}

type traceStart struct {
	sql  string
	args []any
	at   time.Time
}

// Tracer warns about statements slower than slow (zero disables) and, when all is set, logs
// every statement at info. Its logger runs at debug so SQL logging ignores the root level
func Tracer(log logger.Logger, slow time.Duration, all bool) pgx.QueryTracer {
	return &queryTracer{
		log:  log.Level(zerolog.DebugLevel).With().Str("component", "pg").Logger(),
		slow: slow,
		all:  all,
		now:  time.Now,
	}
}

func (t *queryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, d pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, traceKey{}, traceStart{sql: d.SQL, args: d.Args, at: t.now()})
}

func (t *queryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, d pgx.TraceQueryEndData) {
	st, ok := ctx.Value(traceKey{}).(traceStart)
	if !ok {
		return
	}
	took := t.now().Sub(st.at)
	slow := t.slow > 0 && took >= t.slow

	evt := t.log.Info()
	switch {
	case slow || d.Err != nil:
		evt = t.log.Warn()
	case !t.all:
		return
	}
	if id := logger.RequestID(ctx); id != "" {
		evt = evt.Str("request_id", id)
	}
	evt.Str("sql", oneLine(st.sql)).
		Interface("args", st.args).
		Float64("elapsed_ms", float64(took.Microseconds())/1000).
		Bool("slow", slow).
		Int64("rows", d.CommandTag.RowsAffected()).
		Err(d.Err).
		Msg("pg query")
}

// oneLine folds whitespace runs so multi-line SQL logs on one line
func oneLine(s string) string { return strings.Join(strings.Fields(s), " ") }

package repokit

import (
	"context"
	"errors"
	"testing"
	"time"

	"satyanetra/internal/platform/store"
	"satyanetra/internal/platform/testkit"
)

type recTag struct{}

func (recTag) String() string      { return "" }
func (recTag) RowsAffected() int64 { return 1 }

type recQ struct{ stmts *[]string }

func (q recQ) Exec(_ context.Context, sql string, _ ...any) (CommandTag, error) {
	*q.stmts = append(*q.stmts, sql)
	return recTag{}, nil
}
func (q recQ) Query(context.Context, string, ...any) (Rows, error) { return nil, nil }
func (q recQ) QueryRow(context.Context, string, ...any) Row        { return nil }
func (q recQ) Tx(ctx context.Context, fn func(store.RowQuerier) error) error {
	*q.stmts = append(*q.stmts, "BEGIN")
	return fn(q)
}

func TestBeginHooksRunFirst(t *testing.T) {
	var stmts []string
	tx := WithBeginHooks(recQ{stmts: &stmts}, StatementTimeout(1500*time.Millisecond))
	err := WithTx(context.Background(), tx, func(q Queryer) error {
		_, err := q.Exec(context.Background(), "INSERT")
		return err
	})
	if err != nil {
		t.Fatalf("tx: %v", err)
	}
	want := []string{"BEGIN", "SET LOCAL statement_timeout = 1500", "INSERT"}
	if len(stmts) != len(want) {
		t.Fatalf("stmts = %v", stmts)
	}
	for i := range want {
		if stmts[i] != want[i] {
			t.Fatalf("stmt %d = %q want %q", i, stmts[i], want[i])
		}
	}
}

func TestBindFunc(t *testing.T) {
	b := BindFunc[string](func(Queryer) string { return "bound" })
	var stmts []string
	if MustBind[string](b, recQ{stmts: &stmts}) != "bound" {
		t.Fatalf("bind mismatch")
	}
	testkit.MustPanic(t, func() { MustBind[string](b, nil) })
}

type guardFn func(context.Context) error

func (g guardFn) Guard(ctx context.Context) error { return g(ctx) }

func TestMustGuard(t *testing.T) {
	MustGuard(context.Background(), guardFn(func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			t.Fatalf("guard should receive a deadline")
		}
		return nil
	}))
	testkit.MustPanic(t, func() {
		MustGuard(context.Background(), guardFn(func(context.Context) error { return errors.New("pg down") }))
	})
}

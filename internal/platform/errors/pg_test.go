package errors

import (
	stderrs "errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func pgErr(code string) *pgconn.PgError { return &pgconn.PgError{Code: code} }

func TestDBErrorCodeMappings(t *testing.T) {
	cases := []struct {
		err  error
		want ErrorCode
	}{
		{pgErr("23505"), ErrorCodeDuplicateKey},
		{pgErr("23503"), ErrorCodeInvalidArgument},
		{pgErr("23502"), ErrorCodeValidation},
		{pgErr("40001"), ErrorCodeDB},
		{pgErr("57P03"), ErrorCodeUnavailable},
		{pgErr("99999"), ErrorCodeDB},
		{pgx.ErrNoRows, ErrorCodeNotFound},
	}
	for _, c := range cases {
		got, ok := DBErrorCode(c.err)
		if !ok || got != c.want {
			t.Fatalf("DBErrorCode(%v) = %v,%v want %v", c.err, got, ok, c.want)
		}
	}
	if _, ok := DBErrorCode(stderrs.New("plain")); ok {
		t.Fatalf("plain error should not map")
	}
}

func TestFromPostgres(t *testing.T) {
	if FromPostgres(nil, "x") != nil {
		t.Fatalf("nil should stay nil")
	}
	err := FromPostgresf(fmt.Errorf("exec: %w", pgErr("23505")), "insert alert %s", "a1")
	if !IsCode(err, ErrorCodeDuplicateKey) || !IsDuplicateKey(err) {
		t.Fatalf("duplicate key not mapped: %v", err)
	}
	if !IsCode(FromPostgres(stderrs.New("boom"), "q"), ErrorCodeDB) {
		t.Fatalf("foreign error should map to DB")
	}
}

func TestIsRetryable(t *testing.T) {
	for _, code := range []string{"40001", "40P01", "55P03", "57P03"} {
		if !IsRetryable(pgErr(code)) {
			t.Fatalf("%s should be retryable", code)
		}
	}
	if IsRetryable(pgErr("23505")) {
		t.Fatalf("23505 should not be retryable")
	}
	if !IsRetryable(stderrs.New("commit unexpectedly resulted in rollback")) {
		t.Fatalf("commit rollback text should be retryable")
	}
}

func TestStatementTimeoutIsNotRetried(t *testing.T) {
	err := FromPostgres(pgErr("57014"), "list alerts")
	if !IsCode(err, ErrorCodeDB) || IsRetryable(err) {
		t.Fatalf("statement timeout: code=%v retryable=%v", CodeOf(err), IsRetryable(err))
	}
	if !IsCode(FromPostgres(pgErr("23514"), "append alert"), ErrorCodeValidation) {
		t.Fatalf("check violation should map to validation")
	}
}

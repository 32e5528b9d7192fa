package errors

import (
	"context"
	stderrs "errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type sqlState struct {
	code      ErrorCode
	retryable bool
}

// sqlStates maps the SQLSTATEs the analysis and alert repos can hit. Anything else is a DB error
var sqlStates = map[string]sqlState{
	"23505": {code: ErrorCodeDuplicateKey},                 // unique_violation
	"23503": {code: ErrorCodeInvalidArgument},              // foreign_key_violation
	"22001": {code: ErrorCodeInvalidArgument},              // string_data_right_truncation
	"22P02": {code: ErrorCodeInvalidArgument},              // invalid_text_representation
	"23502": {code: ErrorCodeValidation},                   // not_null_violation
	"23514": {code: ErrorCodeValidation},                   // check_violation, e.g. an unknown alert severity
	"40001": {code: ErrorCodeDB, retryable: true},          // serialization_failure
	"40P01": {code: ErrorCodeDB, retryable: true},          // deadlock_detected
	"55P03": {code: ErrorCodeDB, retryable: true},          // lock_not_available
	"57014": {code: ErrorCodeDB},                           // query_canceled by statement_timeout
	"25006": {code: ErrorCodeUnavailable},                  // read_only_sql_transaction
	"57P03": {code: ErrorCodeUnavailable, retryable: true}, // cannot_connect_now
}

// transientText covers failures pgx reports without a PgError, mostly around commit
var transientText = []string{
	"commit unexpectedly resulted in rollback",
	"deadlock detected",
	"could not serialize access",
	"terminating connection due to administrator command",
}

// ExtractPgError finds a *pgconn.PgError anywhere in err's chain
func ExtractPgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	ok := stderrs.As(err, &pgErr)
	return pgErr, ok
}

// IsDuplicateKey reports a unique constraint violation
func IsDuplicateKey(err error) bool {
	pgErr, ok := ExtractPgError(err)
	return ok && pgErr.Code == "23505"
}

// DBErrorCode maps a Postgres failure to an ErrorCode; ok is false when err did not come from
// Postgres at all
func DBErrorCode(err error) (ErrorCode, bool) {
	if stderrs.Is(err, pgx.ErrNoRows) {
		return ErrorCodeNotFound, true
	}
	pgErr, ok := ExtractPgError(err)
	if !ok {
		return ErrorCodeUnknown, false
	}
	if st, known := sqlStates[pgErr.Code]; known {
		return st.code, true
	}
	return ErrorCodeDB, true
}

// FromPostgres wraps err with the mapped code; non-Postgres errors become DB errors. nil stays nil
func FromPostgres(err error, msg string) error {
	if err == nil {
		return nil
	}
	code, ok := DBErrorCode(err)
	if !ok {
		code = ErrorCodeDB
	}
	return Wrap(err, code, msg)
}

// FromPostgresf is FromPostgres with a formatted message
func FromPostgresf(err error, format string, a ...any) error {
	return FromPostgres(err, fmt.Sprintf(format, a...))
}

// IsRetryable reports a transient database failure. Context cancellation never is
func IsRetryable(err error) bool {
	if err == nil || stderrs.Is(err, context.Canceled) || stderrs.Is(err, context.DeadlineExceeded) {
		return false
	}
	if pgErr, ok := ExtractPgError(err); ok {
		return sqlStates[pgErr.Code].retryable
	}
	msg := strings.ToLower(Root(err).Error())
	for _, s := range transientText {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

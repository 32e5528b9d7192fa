// Package errors is the project error type: a code that maps onto HTTP and the wire envelope,
// a message, an optional offending field and the wrapped cause. Import it as perr
package errors

import (
	stderrs "errors"
	"fmt"
	"net/http"
)

// ErrorCode classifies an error. The numeric values go out on the wire, so new codes are appended
type ErrorCode uint16

const (
	ErrorCodeUnknown ErrorCode = iota
	ErrorCodePanic
	// ErrorCodeUnavailable is a transient dependency failure; retrying may succeed
	ErrorCodeUnavailable
	// ErrorCodeTooManyRequests covers rate limits and a full analysis queue
	ErrorCodeTooManyRequests
	ErrorCodeConflict
	ErrorCodeUnauthorized
	ErrorCodeForbidden
	// ErrorCodeInvalidArgument is a submission that can never be processed (empty, oversized, bad kind)
	ErrorCodeInvalidArgument
	// ErrorCodeValidation is a request that failed struct validation
	ErrorCodeValidation
	ErrorCodeJSON
	ErrorCodeNotFound
	ErrorCodeDuplicateKey
	ErrorCodeDB
	// ErrorCodeModelUnavailable is an inference or OCR call that failed or timed out
	ErrorCodeModelUnavailable
	// ErrorCodePartialResult marks a signal that could not be computed for a content kind
	ErrorCodePartialResult
	// ErrorCodeGraphInconsistency is a broken account graph invariant
	ErrorCodeGraphInconsistency
	// ErrorCodeDetectionTimeout is a cluster detection run that ran past its budget
	ErrorCodeDetectionTimeout
)

var codeInfo = [...]struct {
	name   string
	status int
}{
	ErrorCodeUnknown:            {"unknown", http.StatusInternalServerError},
	ErrorCodePanic:              {"panic", http.StatusInternalServerError},
	ErrorCodeUnavailable:        {"unavailable", http.StatusServiceUnavailable},
	ErrorCodeTooManyRequests:    {"too_many_requests", http.StatusTooManyRequests},
	ErrorCodeConflict:           {"conflict", http.StatusConflict},
	ErrorCodeUnauthorized:       {"unauthorized", http.StatusUnauthorized},
	ErrorCodeForbidden:          {"forbidden", http.StatusForbidden},
	ErrorCodeInvalidArgument:    {"invalid_input", http.StatusUnprocessableEntity},
	ErrorCodeValidation:         {"validation", http.StatusBadRequest},
	ErrorCodeJSON:               {"json", http.StatusBadRequest},
	ErrorCodeNotFound:           {"not_found", http.StatusNotFound},
	ErrorCodeDuplicateKey:       {"duplicate_key", http.StatusConflict},
	ErrorCodeDB:                 {"db", http.StatusInternalServerError},
	ErrorCodeModelUnavailable:   {"model_unavailable", http.StatusServiceUnavailable},
	ErrorCodePartialResult:      {"partial_result", http.StatusInternalServerError},
	ErrorCodeGraphInconsistency: {"graph_inconsistency", http.StatusInternalServerError},
	ErrorCodeDetectionTimeout:   {"detection_timeout", http.StatusGatewayTimeout},
}

func (c ErrorCode) known() bool { return int(c) < len(codeInfo) }

// String names the code for logs
func (c ErrorCode) String() string {
	if !c.known() {
		return codeInfo[ErrorCodeUnknown].name
	}
	return codeInfo[c].name
}

// HTTPStatusCode is the response status for c; unknown codes are 500
func HTTPStatusCode(c ErrorCode) int {
	if !c.known() {
		return http.StatusInternalServerError
	}
	return codeInfo[c].status
}

// ErrNotFound is the shared not-found error repositories return
var ErrNotFound = New(ErrorCodeNotFound, "not found")

// Error is the structured error. msg is for people, code is for machines
type Error struct {
	code  ErrorCode
	msg   string
	field string
	cause error
}

func (e *Error) Error() string {
	switch {
	case e == nil:
		return "<nil>"
	case e.cause != nil:
		return e.msg + ": " + e.cause.Error()
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.cause }

// Code is the error classification
func (e *Error) Code() ErrorCode { return e.code }

// Field is the request field the error refers to, if any
func (e *Error) Field() string { return e.field }

// Wire is the error body of the response envelope
type Wire struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Field   string    `json:"field,omitempty"`
}

// WireFrom renders err for a response. Foreign errors become ErrorCodeUnknown carrying their text;
// nil is the zero Wire
func WireFrom(err error) Wire {
	if err == nil {
		return Wire{}
	}
	if e, ok := As(err); ok {
		return Wire{Code: e.code, Message: e.msg, Field: e.field}
	}
	return Wire{Code: ErrorCodeUnknown, Message: err.Error()}
}

// As finds the first *Error in err's chain
func As(err error) (*Error, bool) {
	var e *Error
	ok := stderrs.As(err, &e)
	return e, ok
}

// Root is the innermost cause in err's chain
func Root(err error) error {
	for {
		next := stderrs.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

// CodeOf is the code of the first *Error in err's chain, or ErrorCodeUnknown
func CodeOf(err error) ErrorCode {
	if e, ok := As(err); ok {
		return e.code
	}
	return ErrorCodeUnknown
}

// IsCode reports whether CodeOf(err) is code
func IsCode(err error, code ErrorCode) bool { return CodeOf(err) == code }

// HTTPStatus is the response status for err
func HTTPStatus(err error) int { return HTTPStatusCode(CodeOf(err)) }

// WithField returns a copy of err naming the offending field. Foreign errors pass through
func WithField(err error, field string) error {
	e, ok := As(err)
	if !ok {
		return err
	}
	cp := *e
	cp.field = field
	return &cp
}

// New returns an error with code and msg
func New(code ErrorCode, msg string) error { return &Error{code: code, msg: msg} }

// Newf is New with a format
func Newf(code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...)}
}

// Wrap classifies cause under code with msg in front of it
func Wrap(cause error, code ErrorCode, msg string) error {
	return &Error{code: code, msg: msg, cause: cause}
}

// Wrapf is Wrap with a format
func Wrapf(cause error, code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...), cause: cause}
}

// WrapIf is Wrap that passes nil through
func WrapIf(err error, code ErrorCode, msg string) error {
	if err == nil {
		return nil
	}
	return Wrap(err, code, msg)
}

func NotFoundf(format string, a ...any) error     { return Newf(ErrorCodeNotFound, format, a...) }
func InvalidArgf(format string, a ...any) error   { return Newf(ErrorCodeInvalidArgument, format, a...) }
func JSONErrf(format string, a ...any) error      { return Newf(ErrorCodeJSON, format, a...) }
func PanicErrf(format string, a ...any) error     { return Newf(ErrorCodePanic, format, a...) }
func Unauthorizedf(format string, a ...any) error { return Newf(ErrorCodeUnauthorized, format, a...) }
func Conflictf(format string, a ...any) error     { return Newf(ErrorCodeConflict, format, a...) }
func Unavailablef(format string, a ...any) error  { return Newf(ErrorCodeUnavailable, format, a...) }
func TooManyf(format string, a ...any) error      { return Newf(ErrorCodeTooManyRequests, format, a...) }

// ModelUnavailablef is a retryable capability failure
func ModelUnavailablef(format string, a ...any) error {
	return Newf(ErrorCodeModelUnavailable, format, a...)
}

// GraphInconsistencyf reports a broken graph invariant; it is a bug, never retried
func GraphInconsistencyf(format string, a ...any) error {
	return Newf(ErrorCodeGraphInconsistency, format, a...)
}

func DetectionTimeoutf(format string, a ...any) error {
	return Newf(ErrorCodeDetectionTimeout, format, a...)
}

// Retryable reports whether another attempt could succeed: capability and dependency outages,
// plus the transient Postgres states in pg.go
func Retryable(err error) bool {
	switch CodeOf(err) {
	case ErrorCodeModelUnavailable, ErrorCodeUnavailable:
		return true
	}
	return err != nil && IsRetryable(err)
}

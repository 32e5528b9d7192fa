package net

import (
	"net/http"

	perr "satyanetra/internal/platform/errors"
)

// Wire is the JSON envelope every API response uses. Data is set on success; Code, Error and
// Field are set on failure, Field naming the offending input when there is one
type Wire struct {
	StatusCode int            `json:"status_code"`
	Status     string         `json:"status"`
	Code       perr.ErrorCode `json:"code,omitempty"`
	Error      string         `json:"error,omitempty"`
	Field      string         `json:"field,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
	Data       any            `json:"data,omitempty"`
}

// Reply builds a success envelope for status. 204 carries no data
func Reply(status int, data any, reqID string) (int, Wire) {
	if status == 0 {
		status = http.StatusOK
	}
	w := Wire{StatusCode: status, Status: http.StatusText(status), RequestID: reqID}
	if status != http.StatusNoContent {
		w.Data = data
	}
	return status, w
}

// Error builds a failure envelope with the status the error code maps to. A nil error is an
// empty 200
func Error(err error, reqID string) (int, Wire) {
	if err == nil {
		return Reply(http.StatusOK, nil, reqID)
	}
	status := perr.HTTPStatus(err)
	pw := perr.WireFrom(err)
	return status, Wire{
		StatusCode: status,
		Status:     http.StatusText(status),
		Code:       pw.Code,
		Error:      pw.Message,
		Field:      pw.Field,
		RequestID:  reqID,
	}
}

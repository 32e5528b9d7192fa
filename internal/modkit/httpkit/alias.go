// Package httpkit is what modules use to mount routes, so they do not import
// internal/platform/net/http directly
package httpkit

import (
	"net/http"

	phttp "satyanetra/internal/platform/net/http"
	"satyanetra/internal/platform/net/http/bind"
)

type (
	// Router is the route registration seam
	Router = phttp.Router

	// JSONOptions bounds a request body
	JSONOptions = bind.JSONOptions
)

// Accepted replies 202 for queued analyses
func Accepted(data any) phttp.Response { return phttp.Accepted(data) }

// URLParam reads a path parameter
func URLParam(r *http.Request, key string) string { return phttp.URLParam(r, key) }

// WriteJSON is the writer auth and rate limiting use for their rejections
func WriteJSON(w http.ResponseWriter, status int, v any) { phttp.JSON(w, status, v) }

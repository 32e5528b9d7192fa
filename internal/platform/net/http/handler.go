// Package http holds the router seam, the server and the JSON envelope handlers modules mount
package http

import (
	"encoding/json"
	stdhttp "net/http"

	pnet "satyanetra/internal/platform/net"
	"satyanetra/internal/platform/net/http/bind"
)

// Response lets a handler choose a status other than 200. Body may be an error
type Response struct {
	Status int
	Body   any
	Header stdhttp.Header
}

// Accepted is the reply for queued work
func Accepted(data any) Response { return Response{Status: stdhttp.StatusAccepted, Body: data} }

// OK is the default reply
func OK(data any) Response { return Response{Status: stdhttp.StatusOK, Body: data} }

// Error replies with err's status and envelope
func Error(err error) Response { return Response{Body: err} }

// JSON writes v with status
func JSON(w stdhttp.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Handle writes the Response h returns inside the pnet.Wire envelope
func Handle(h func(*stdhttp.Request) Response) stdhttp.HandlerFunc {
	return func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		resp := h(r)
		for k, vs := range resp.Header {
			for _, v := range vs {
				w.Header().Add(k, v)
			}
		}
		id := pnet.RequestID(r.Context())
		switch body := resp.Body.(type) {
		case error:
			status, env := pnet.Error(body, id)
			JSON(w, status, env)
		default:
			if resp.Status == stdhttp.StatusNoContent {
				w.WriteHeader(resp.Status)
				return
			}
			status, env := pnet.Reply(resp.Status, body, id)
			JSON(w, status, env)
		}
	}
}

// reply turns a handler's (value, error) into a Response; a returned Response is used as is
func reply(out any, err error) Response {
	if err != nil {
		return Error(err)
	}
	if resp, ok := out.(Response); ok {
		return resp
	}
	return OK(out)
}

// JSONHandler binds T from the body, then calls fn
func JSONHandler[T any](fn func(*stdhttp.Request, T) (any, error), opts ...bind.JSONOptions) Handler {
	return Handle(func(r *stdhttp.Request) Response {
		in, err := bind.ParseJSON[T](r, opts...)
		if err != nil {
			return Error(err)
		}
		return reply(fn(r, in))
	})
}

// JSONHandlerNoBody calls fn without reading a body
func JSONHandlerNoBody(fn func(*stdhttp.Request) (any, error)) Handler {
	return Handle(func(r *stdhttp.Request) Response { return reply(fn(r)) })
}

// GetJSON mounts fn under GET
func GetJSON(r Router, path string, fn func(*stdhttp.Request) (any, error)) {
	r.Get(path, JSONHandlerNoBody(fn))
}

// PostJSON mounts a body-binding fn under POST
func PostJSON[T any](r Router, path string, fn func(*stdhttp.Request, T) (any, error), opts ...bind.JSONOptions) {
	r.Post(path, JSONHandler(fn, opts...))
}

// PostNoBody mounts fn under POST for actions such as /{id}/ack
func PostNoBody(r Router, path string, fn func(*stdhttp.Request) (any, error)) {
	r.Post(path, JSONHandlerNoBody(fn))
}

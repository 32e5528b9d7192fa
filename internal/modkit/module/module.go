// Package module is the contract the API composes: each service module mounts routes, exposes a
// port bundle for its neighbours and may register periodic jobs
package module

import (
	"context"
	"reflect"

	phttp "satyanetra/internal/platform/net/http"
	"satyanetra/internal/platform/schedule"
)

// Module is one service mounted under /api/v1
type Module interface {
	MountRoutes(r phttp.Router)
	// Ports is the module's port bundle: a single port or a struct of them
	Ports() any
	Name() string
}

// Scheduled modules register periodic jobs, e.g. cluster detection or trend rollover
type Scheduled interface {
	Module
	Schedule(ctx context.Context, sc *schedule.Scheduler) error
}

// PortsOf finds a T in m's port bundle: the bundle itself, or the first exported field that
// holds a T
func PortsOf[T any](m Module) (T, bool) {
	var zero T
	p := m.Ports()
	if p == nil {
		return zero, false
	}
	if v, ok := p.(T); ok {
		return v, true
	}
	rv := reflect.ValueOf(p)
	if rv.Kind() != reflect.Struct {
		return zero, false
	}
	for _, f := range reflect.VisibleFields(rv.Type()) {
		if !f.IsExported() || len(f.Index) > 1 {
			continue
		}
		if v, ok := rv.FieldByIndex(f.Index).Interface().(T); ok {
			return v, true
		}
	}
	return zero, false
}

// MustPortsOf is PortsOf for wiring code, where a missing port is a programming error
func MustPortsOf[T any](m Module) T {
	v, ok := PortsOf[T](m)
	if !ok {
		panic("module: " + m.Name() + " has no port of the requested type")
	}
	return v
}

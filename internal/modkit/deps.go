// Package modkit provides module wiring and core deps
package modkit

import (
	"satyanetra/internal/modkit/repokit"
	"satyanetra/internal/platform/config"
	"satyanetra/internal/platform/logger"
	"satyanetra/internal/platform/metrics"
	"satyanetra/internal/platform/store"
)

// Deps holds core dependencies passed to modules.
// PG and CH are nil when the backend is disabled; modules fall back to memory repos
type Deps struct {
	Log     logger.Logger
	Cfg     config.Conf
	PG      repokit.TxRunner
	CH      store.Clickhouse
	Metrics *metrics.Metrics
}

// MetricsOrDiscard never returns nil
func (d Deps) MetricsOrDiscard() *metrics.Metrics {
	if d.Metrics == nil {
		return metrics.Discard()
	}
	return d.Metrics
}

package ch

import (
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"satyanetra/internal/core/version"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// BuildClientInfo tags our queries in system.query_log with the app, the build and the host.
// app is the store AppName (satyanetra-api); role narrows it further when one binary has several
func BuildClientInfo(role, app string) clickhouse.ClientInfo {
	bi := version.Info()
	name := strings.TrimSpace(app)
	if name == "" {
		name = bi.Service
	}
	commit := bi.Commit
	if commit == "none" {
		commit = vcsRevision()
	}
	host, _ := os.Hostname()

	return clickhouse.ClientInfo{Products: []struct{ Name, Version string }{
		{Name: name, Version: bi.Version},
		{Name: "role", Version: strings.TrimSpace(role)},
		{Name: "commit", Version: commit},
		{Name: "go", Version: runtime.Version()},
		{Name: "host", Version: host},
	}}
}

// vcsRevision is the short commit the toolchain stamped, for builds without -ldflags
func vcsRevision() string {
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" && len(s.Value) >= 7 {
				return s.Value[:7]
			}
		}
	}
	return "unknown"
}

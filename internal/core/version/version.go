// Package version reports what build of satyanetra is running
package version

import "runtime"

// Stamped at link time:
//
//	-ldflags "-X satyanetra/internal/core/version.version=v0.3.0 -X satyanetra/internal/core/version.commit=abc1234 -X satyanetra/internal/core/version.date=2026-10-01"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// BuildInfo is served by /api/v1/version and tagged on ClickHouse sessions
type BuildInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
	Go      string `json:"go"`
}

// Info returns the stamped build info for the API service
func Info() BuildInfo {
	return BuildInfo{Service: "satyanetra-api", Version: version, Commit: commit, Date: date, Go: runtime.Version()}
}

// Dev reports whether the binary was built without version stamping
func (b BuildInfo) Dev() bool { return b.Version == "dev" }

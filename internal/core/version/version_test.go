package version

import (
	"runtime"
	"testing"
)

func TestInfoDefaults(t *testing.T) {
	bi := Info()
	if bi.Service != "satyanetra-api" || bi.Go != runtime.Version() {
		t.Fatalf("unexpected build info %+v", bi)
	}
	if !bi.Dev() {
		t.Fatalf("unstamped test binary should report a dev build")
	}
	if (BuildInfo{Version: "v0.3.0"}).Dev() {
		t.Fatalf("stamped version reported as dev")
	}
}

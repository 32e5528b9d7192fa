package time

import (
	"testing"
	"time"
)

func TestPtr(t *testing.T) {
	if Ptr(time.Time{}) != nil {
		t.Fatalf("zero time should map to nil")
	}
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	p := Ptr(now)
	if p == nil || !p.Equal(now) {
		t.Fatalf("Ptr(%v) = %v", now, p)
	}
}

// Package time holds time helpers shared by the repos
package time

import "time"

// Ptr returns &t, or nil for the zero time so optional timestamps stay unset
func Ptr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

package feature

import (
	"time"

	"github.com/pfrederiksen/rl-predictor/internal/ballchasing"
)

// InWindow reports whether a replay date is no older than days before now.
// A replay exactly days old is inside; one with no usable date is kept.
func InWindow(date ballchasing.Timestamp, now time.Time, days int) bool {
	if date.IsZero() {
		return true
	}
	cutoff := now.Add(-time.Duration(days) * 24 * time.Hour)
	return !date.Time.Before(cutoff)
}

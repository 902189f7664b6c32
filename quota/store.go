// Package quota tracks per-user daily upload counters. The reset semantics
// are "compare to today's calendar date, else treat as zero"; nothing ever
// zeroes a row explicitly.
package quota

import (
	"context"
	"time"
)

// DateLayout is the calendar-day format used for quota accounting.
const DateLayout = "2006-01-02"

// Day formats a point in time as the calendar day used for accounting.
func Day(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// Usage is one user's upload counter: the last day an upload was recorded on
// and how many were recorded that day.
type Usage struct {
	Date  string
	Count int
}

// CountOn returns the recorded count if the usage belongs to day, else zero.
// This is where the implicit daily reset lives.
func (u Usage) CountOn(day string) int {
	if u.Date == day {
		return u.Count
	}
	return 0
}

// Store persists daily upload counters keyed by user id.
type Store interface {
	// Usage returns the user's current counter. An unknown user yields a
	// zero Usage, not an error.
	Usage(ctx context.Context, userID string) (Usage, error)

	// Record counts one upload at the given time, rolling the counter over
	// when the calendar day has changed.
	Record(ctx context.Context, userID string, when time.Time) error
}

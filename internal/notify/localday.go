package notify

import (
	"math"
	"time"
)

// localDay collapses an instant to the calendar day it falls on in loc,
// represented as UTC midnight so day arithmetic is stable across DST.
func localDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysUntil counts whole local calendar days from now to then in loc.
func daysUntil(now, then time.Time, loc *time.Location) int {
	diff := localDay(then, loc).Sub(localDay(now, loc))
	return int(math.Round(diff.Hours() / 24))
}

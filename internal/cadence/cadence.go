package cadence

import (
	"errors"
	"fmt"
	"time"
)

// Unit is a closed enumeration of billing cadence units.
type Unit string

const (
	Day   Unit = "day"
	Week  Unit = "week"
	Month Unit = "month"
	Year  Unit = "year"
)

// Valid reports whether u is one of the known cadence units.
func (u Unit) Valid() bool {
	switch u {
	case Day, Week, Month, Year:
		return true
	}
	return false
}

// Average days per month over the Gregorian cycle.
const monthlyDays = 365.25 / 12

// maxAdvanceSteps bounds AdvanceRenewal. A healthy cadence catches up on
// years of backlog in far fewer steps; hitting the cap means the stored
// cadence makes no forward progress.
const maxAdvanceSteps = 10000

// ErrTooManySteps is returned when AdvanceRenewal exceeds its step limit.
var ErrTooManySteps = errors.New("cadence: advance exceeded step limit")

// Add returns date advanced by count units, in UTC calendar arithmetic.
// Month and year additions follow standard calendar rollover: adding one
// month to Jan 31 normalizes through the short month to early March.
func Add(date time.Time, unit Unit, count int) time.Time {
	date = date.UTC()
	switch unit {
	case Day:
		return date.AddDate(0, 0, count)
	case Week:
		return date.AddDate(0, 0, 7*count)
	case Month:
		return date.AddDate(0, count, 0)
	case Year:
		return date.AddDate(count, 0, 0)
	}
	return date
}

// AdvanceRenewal repeatedly applies Add starting from start until the
// result is strictly after now, and returns the first such occurrence.
// If start is already after now it is returned unchanged. Large backlogs
// are walked forward step by step rather than jumped in closed form, so
// calendar rollover stays exact.
func AdvanceRenewal(start time.Time, unit Unit, count int, now time.Time) (time.Time, error) {
	cursor := start.UTC()
	now = now.UTC()
	for i := 0; i < maxAdvanceSteps; i++ {
		if cursor.After(now) {
			return cursor, nil
		}
		cursor = Add(cursor, unit, count)
	}
	if cursor.After(now) {
		return cursor, nil
	}
	return time.Time{}, fmt.Errorf("%w (unit=%s count=%d)", ErrTooManySteps, unit, count)
}

// MonthlyFactor returns the multiplier converting one cadence-period amount
// into an average monthly amount, i.e. how many cadence periods fit in an
// average month. It is an average over the calendar, not a simulation of
// actual billing dates: a $120 yearly charge contributes $10 per month.
func MonthlyFactor(unit Unit, count int) float64 {
	if count <= 0 {
		return 0
	}
	switch unit {
	case Day:
		return monthlyDays / float64(count)
	case Week:
		return monthlyDays / 7 / float64(count)
	case Month:
		return 1 / float64(count)
	case Year:
		return 1 / 12.0 / float64(count)
	}
	return 0
}

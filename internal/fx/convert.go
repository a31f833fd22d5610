package fx

import (
	"strings"

	"github.com/shopspring/decimal"
)

// RateToPrimary derives the cross rate that converts one unit of from into
// the primary currency, using a snapshot quoted against the base. Matching
// currencies convert at exactly 1 without touching the snapshot. It reports
// false when no primary is configured, either side is missing from the
// snapshot, or the from leg is zero.
func RateToPrimary(snap *Snapshot, primary, from string) (float64, bool) {
	if primary == "" {
		return 0, false
	}
	if strings.EqualFold(primary, from) {
		return 1, true
	}
	if snap == nil {
		return 0, false
	}
	toPrimary, ok := snap.Rate(primary)
	if !ok {
		return 0, false
	}
	fromBase, ok := snap.Rate(from)
	if !ok || fromBase == 0 {
		return 0, false
	}
	return toPrimary / fromBase, true
}

// ConvertCents applies a rate to an integer cent amount, rounding half away
// from zero. Decimal arithmetic avoids drift on large amounts.
func ConvertCents(cents int64, rate float64) int64 {
	return decimal.NewFromInt(cents).
		Mul(decimal.NewFromFloat(rate)).
		Round(0).
		IntPart()
}

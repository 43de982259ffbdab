package utils

import (
	"time"
)

// TimeSlot is a half-open rental interval [From, To).
type TimeSlot struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// IsValidSlot checks that a candidate interval is well formed. Callers must
// reject malformed intervals before running any overlap check.
func IsValidSlot(slot TimeSlot) bool {
	return slot.From.Before(slot.To)
}

// SlotsOverlap reports whether two half-open intervals conflict. Touching
// endpoints do not overlap: a rental ending at 14:00 and one starting at
// 14:00 can share a vehicle.
func SlotsOverlap(a, b TimeSlot) bool {
	return a.From.Before(b.To) && a.To.After(b.From)
}

// HasOverlap reports whether the candidate interval conflicts with any of
// the existing reserved intervals. It stops at the first conflict and
// requires no ordering on existing. An empty list never conflicts.
func HasOverlap(candidate TimeSlot, existing []TimeSlot) bool {
	for _, slot := range existing {
		if SlotsOverlap(candidate, slot) {
			return true
		}
	}
	return false
}

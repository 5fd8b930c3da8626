package schedule

import "time"

// Slot is a candidate appointment interval. Half-open: [Start, End).
type Slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps reports whether the half-open intervals [s1,e1) and [s2,e2)
// intersect. Adjacent intervals (e1 == s2) do not overlap. This is the single
// overlap predicate used for every hold/booking comparison.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}

// OverlapsSlot reports whether the slot intersects [start, end).
func (s Slot) OverlapsSlot(start, end time.Time) bool {
	return Overlaps(s.Start, s.End, start, end)
}

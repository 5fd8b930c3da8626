package schedule

import "time"

// Slots generates the ordered candidate slots for a service of the given
// duration on the local calendar day containing day. Closed weekdays produce
// no slots. The walk steps in granularity increments of local wall-clock time
// so slot start times stay pinned to the business clock across DST
// transitions; only the emitted boundaries are converted to UTC.
func (h Hours) Slots(day time.Time, duration time.Duration) []Slot {
	local := day.In(h.Location)
	if !h.openDays[local.Weekday()] {
		return nil
	}

	y, m, d := local.Date()
	openMin := h.OpenHour * 60
	closeMin := h.CloseHour * 60
	durMin := int(duration / time.Minute)
	stepMin := int(h.Granularity / time.Minute)
	if durMin <= 0 || stepMin <= 0 {
		return nil
	}

	var slots []Slot
	for startMin := openMin; startMin < closeMin; startMin += stepMin {
		endMin := startMin + durMin
		// A slot ending exactly at close is kept.
		if endMin > closeMin {
			continue
		}
		start := time.Date(y, m, d, 0, startMin, 0, 0, h.Location)
		end := time.Date(y, m, d, 0, endMin, 0, 0, h.Location)
		slots = append(slots, Slot{Start: start.UTC(), End: end.UTC()})
	}
	return slots
}

// FormatLocal renders an instant as a short business-local clock label,
// e.g. "2:30 PM".
func (h Hours) FormatLocal(t time.Time) string {
	return t.In(h.Location).Format("3:04 PM")
}

package schedule

import (
	"fmt"
	"time"
)

// Hours describes the business-hour rules slot generation works from. All
// wall-clock arithmetic stays inside this package; everything downstream
// operates on UTC instants only.
type Hours struct {
	Location    *time.Location
	OpenHour    int
	CloseHour   int
	Granularity time.Duration
	openDays    map[time.Weekday]bool
}

// NewHours builds business-hour rules for the named timezone. Open days
// default to Monday through Saturday.
func NewHours(timezone string, openHour, closeHour int, granularity time.Duration) (Hours, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return Hours{}, fmt.Errorf("schedule: load timezone %q: %w", timezone, err)
	}
	if openHour < 0 || closeHour > 24 || openHour >= closeHour {
		return Hours{}, fmt.Errorf("schedule: invalid business hours %d-%d", openHour, closeHour)
	}
	if granularity <= 0 {
		return Hours{}, fmt.Errorf("schedule: granularity must be positive, got %s", granularity)
	}
	return Hours{
		Location:    loc,
		OpenHour:    openHour,
		CloseHour:   closeHour,
		Granularity: granularity,
		openDays: map[time.Weekday]bool{
			time.Monday:    true,
			time.Tuesday:   true,
			time.Wednesday: true,
			time.Thursday:  true,
			time.Friday:    true,
			time.Saturday:  true,
		},
	}, nil
}

// WithOpenDays overrides the set of weekdays the business operates on.
func (h Hours) WithOpenDays(days ...time.Weekday) Hours {
	open := make(map[time.Weekday]bool, len(days))
	for _, d := range days {
		open[d] = true
	}
	h.openDays = open
	return h
}

// IsOpenOn reports whether the business operates on the given weekday.
func (h Hours) IsOpenOn(day time.Weekday) bool {
	return h.openDays[day]
}

// ParseDate interprets a YYYY-MM-DD string as local midnight in the business
// timezone. The returned instant is the single source for both the weekday
// check and the slot walk, so the calendar day can never diverge between the
// two near midnight or DST boundaries.
func (h Hours) ParseDate(date string) (time.Time, error) {
	day, err := time.ParseInLocation("2006-01-02", date, h.Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("schedule: parse date %q: %w", date, err)
	}
	return day, nil
}

// DayWindow returns the UTC half-open window [start, end) covering the local
// calendar day, for range queries against stored instants.
func (h Hours) DayWindow(day time.Time) (time.Time, time.Time) {
	local := day.In(h.Location)
	y, m, d := local.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, h.Location)
	end := time.Date(y, m, d+1, 0, 0, 0, 0, h.Location)
	return start.UTC(), end.UTC()
}

package availability

import (
	"time"

	"medassist/internal/models"
)

// Clock returns the current wall-clock time in the zone pharmacy schedules are written in.
type Clock func() time.Time

// SystemClock reads time.Now in loc.
func SystemClock(loc *time.Location) Clock {
	return func() time.Time {
		return time.Now().In(loc)
	}
}

// IsOpen reports whether a pharmacy with the given schedule is open at now.
// now must already be expressed in the pharmacy's local zone.
//
// Bounds are inclusive on both ends. A missing or malformed day entry is
// closed. Ranges that wrap past midnight (close earlier than open) only
// match inside the literal numeric window, so "22:00"-"02:00" is never open.
func IsOpen(schedule models.OperatingHours, is24Hours bool, now time.Time) bool {
	if is24Hours {
		return true
	}

	day := schedule.Day(now.Weekday())
	if day == nil || day.Closed {
		return false
	}

	open, ok := parseClock(day.Open)
	if !ok {
		return false
	}
	closing, ok := parseClock(day.Close)
	if !ok {
		return false
	}

	current := now.Hour()*60 + now.Minute()
	return open <= current && current <= closing
}

// parseClock parses a strict 24-hour "HH:MM" into minutes since midnight.
func parseClock(s string) (int, bool) {
	if len(s) != 5 || s[2] != ':' {
		return 0, false
	}
	for _, i := range []int{0, 1, 3, 4} {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}

	hours := int(s[0]-'0')*10 + int(s[1]-'0')
	minutes := int(s[3]-'0')*10 + int(s[4]-'0')
	if hours > 23 || minutes > 59 {
		return 0, false
	}
	return hours*60 + minutes, true
}

// ValidClock reports whether s is a well-formed "HH:MM" time.
func ValidClock(s string) bool {
	_, ok := parseClock(s)
	return ok
}

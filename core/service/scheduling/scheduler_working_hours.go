package scheduling

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"scheduler_server/core/domain"
)

// weekdayName returns the lowercase weekday key used by WorkingHours maps.
func weekdayName(t time.Time) string {
	return strings.ToLower(t.Weekday().String())
}

// parseClock parses a "HH:mm" wall-clock string.
func parseClock(s string) (hour, minute int, err error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed clock time %q", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("malformed clock time %q", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("malformed clock time %q", s)
	}
	return hour, minute, nil
}

// participantDayWindow computes one participant's absolute availability
// window for a calendar date. The window is built from the participant's
// working hours in their own timezone; a participant without working hours is
// available the whole day. The second return is false on non-working days.
func participantDayWindow(p *domain.Participant, year int, month time.Month, day int) (domain.TimeInterval, bool) {
	loc := time.UTC
	if p.WorkingHours != nil && p.WorkingHours.Timezone != "" {
		if l, err := time.LoadLocation(p.WorkingHours.Timezone); err == nil {
			loc = l
		}
	}

	midnight := time.Date(year, month, day, 0, 0, 0, 0, loc)

	if p.WorkingHours == nil {
		return domain.TimeInterval{Start: midnight, End: midnight.AddDate(0, 0, 1)}, true
	}

	hours, ok := lookupDay(p.WorkingHours.Days, weekdayName(midnight))
	if !ok {
		return domain.TimeInterval{}, false
	}

	sh, sm, err := parseClock(hours.Start)
	if err != nil {
		return domain.TimeInterval{}, false
	}
	eh, em, err := parseClock(hours.End)
	if err != nil {
		return domain.TimeInterval{}, false
	}

	start := time.Date(year, month, day, sh, sm, 0, 0, loc)
	end := time.Date(year, month, day, eh, em, 0, 0, loc)
	if !start.Before(end) {
		return domain.TimeInterval{}, false
	}
	return domain.TimeInterval{Start: start, End: end}, true
}

// lookupDay finds a weekday entry case-insensitively.
func lookupDay(days map[string]domain.DayHours, name string) (domain.DayHours, bool) {
	if hours, ok := days[name]; ok {
		return hours, true
	}
	for key, hours := range days {
		if strings.EqualFold(key, name) {
			return hours, true
		}
	}
	return domain.DayHours{}, false
}

// mutualDayWindow intersects every required participant's window for a
// calendar date. A single non-working participant removes the day for
// everyone.
func mutualDayWindow(participants []*domain.Participant, year int, month time.Month, day int) (domain.TimeInterval, bool) {
	var window domain.TimeInterval
	first := true

	for _, p := range participants {
		if !p.Required() {
			continue
		}
		pw, ok := participantDayWindow(p, year, month, day)
		if !ok {
			return domain.TimeInterval{}, false
		}
		if first {
			window = pw
			first = false
			continue
		}
		window, ok = window.Intersection(pw)
		if !ok {
			return domain.TimeInterval{}, false
		}
	}

	if first {
		// No required participants constrain the day; treat it as open.
		loc := time.UTC
		midnight := time.Date(year, month, day, 0, 0, 0, 0, loc)
		window = domain.TimeInterval{Start: midnight, End: midnight.AddDate(0, 0, 1)}
	}
	return window, true
}

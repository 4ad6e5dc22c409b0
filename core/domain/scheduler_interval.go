package domain

import (
	"fmt"
	"math"
	"time"
)

// TimeInterval is a normalized absolute [Start, End) range used for all
// overlap arithmetic. Invariant: Start < End.
type TimeInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// InvalidEventTimeError is returned when an EventTime carries neither a
// dateTime nor a date, or when the populated field fails to parse.
type InvalidEventTimeError struct {
	Reason string
}

func (e *InvalidEventTimeError) Error() string {
	return fmt.Sprintf("invalid event time: %s", e.Reason)
}

// ResolveEventTime converts a single EventTime boundary to an absolute
// instant. All-day dates resolve to midnight in the event's own timezone,
// falling back to fallbackTZ, then UTC.
func ResolveEventTime(et EventTime, fallbackTZ string) (time.Time, error) {
	switch {
	case et.DateTime != "":
		t, err := time.Parse(time.RFC3339, et.DateTime)
		if err != nil {
			return time.Time{}, &InvalidEventTimeError{Reason: fmt.Sprintf("unparseable dateTime %q", et.DateTime)}
		}
		return t, nil

	case et.Date != "":
		loc := resolveLocation(et.Timezone, fallbackTZ)
		t, err := time.ParseInLocation("2006-01-02", et.Date, loc)
		if err != nil {
			return time.Time{}, &InvalidEventTimeError{Reason: fmt.Sprintf("unparseable date %q", et.Date)}
		}
		return t, nil

	default:
		return time.Time{}, &InvalidEventTimeError{Reason: "neither dateTime nor date is set"}
	}
}

// EventInterval converts an event's start/end EventTimes into an absolute
// TimeInterval. An all-day event spans midnight to midnight in its own
// timezone.
func EventInterval(start, end EventTime, fallbackTZ string) (TimeInterval, error) {
	s, err := ResolveEventTime(start, fallbackTZ)
	if err != nil {
		return TimeInterval{}, err
	}
	e, err := ResolveEventTime(end, fallbackTZ)
	if err != nil {
		return TimeInterval{}, err
	}
	return TimeInterval{Start: s, End: e}, nil
}

func resolveLocation(candidates ...string) *time.Location {
	for _, tz := range candidates {
		if tz == "" {
			continue
		}
		if loc, err := time.LoadLocation(tz); err == nil {
			return loc
		}
	}
	return time.UTC
}

// Overlaps reports whether two intervals conflict. The raw check is a strict
// half-open intersection; with bufferMinutes > 0 the intervals also conflict
// when the gap between their nearer edges is strictly less than the buffer.
// The gap is only evaluated in the direction where the intervals are in fact
// sequential.
func (a TimeInterval) Overlaps(b TimeInterval, bufferMinutes int) bool {
	if a.Start.Before(b.End) && b.Start.Before(a.End) {
		return true
	}
	if bufferMinutes <= 0 {
		return false
	}

	buffer := time.Duration(bufferMinutes) * time.Minute
	if !a.End.After(b.Start) {
		// a runs first
		return b.Start.Sub(a.End) < buffer
	}
	if !b.End.After(a.Start) {
		// b runs first
		return a.Start.Sub(b.End) < buffer
	}
	return false
}

// Intersection returns max(starts)..min(ends), and false when the result is
// empty.
func (a TimeInterval) Intersection(b TimeInterval) (TimeInterval, bool) {
	start := a.Start
	if b.Start.After(start) {
		start = b.Start
	}
	end := a.End
	if b.End.Before(end) {
		end = b.End
	}
	if !start.Before(end) {
		return TimeInterval{}, false
	}
	return TimeInterval{Start: start, End: end}, true
}

// Contains reports whether the instant falls within [Start, End).
func (a TimeInterval) Contains(t time.Time) bool {
	return !t.Before(a.Start) && t.Before(a.End)
}

// DurationMinutes returns the interval length in whole minutes, rounded.
func (a TimeInterval) DurationMinutes() int {
	return int(math.Round(a.End.Sub(a.Start).Minutes()))
}

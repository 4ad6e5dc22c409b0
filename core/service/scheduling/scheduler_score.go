package scheduling

import (
	"strings"
	"time"

	"scheduler_server/core/domain"
	"scheduler_server/core/port/in"
)

// Score weights. The blend is a tunable heuristic; only boundedness and
// monotonicity are contractual.
const (
	weightTimeOfDay = 0.30
	weightDayOfWeek = 0.25
	weightProximity = 0.25
	weightQuality   = 0.20
)

// Quality saturates once the slot sits this far from the window edges.
const qualityMarginMinutes = 60.0

// scoreContext carries the per-request inputs the scorer needs beyond the
// slot itself.
type scoreContext struct {
	prefs      *in.AvailabilityPreferences
	rangeStart time.Time
	rangeEnd   time.Time
	displayLoc *time.Location      // timezone used for part-of-day and weekday affinity
	window     domain.TimeInterval // the slot's mutual working window
}

// scoreSlot rates a candidate on four independent [0,1] axes and blends them
// into one bounded overall score.
func scoreSlot(slot domain.TimeInterval, sc scoreContext) (float64, domain.ScoreBreakdown) {
	breakdown := domain.ScoreBreakdown{
		TimeOfDay: timeOfDayScore(slot, sc),
		DayOfWeek: dayOfWeekScore(slot, sc),
		Proximity: proximityScore(slot, sc),
		Quality:   qualityScore(slot, sc),
	}

	score := weightTimeOfDay*breakdown.TimeOfDay +
		weightDayOfWeek*breakdown.DayOfWeek +
		weightProximity*breakdown.Proximity +
		weightQuality*breakdown.Quality

	return clamp01(score), breakdown
}

// partOfDay buckets a local hour into morning / afternoon / evening.
func partOfDay(hour int) string {
	switch {
	case hour >= 5 && hour < 12:
		return "morning"
	case hour >= 12 && hour < 17:
		return "afternoon"
	case hour >= 17 && hour < 22:
		return "evening"
	default:
		return "night"
	}
}

func timeOfDayScore(slot domain.TimeInterval, sc scoreContext) float64 {
	if sc.prefs == nil || sc.prefs.PreferredTimeOfDay == "" {
		return 1.0
	}
	if partOfDay(slot.Start.In(sc.displayLoc).Hour()) == sc.prefs.PreferredTimeOfDay {
		return 1.0
	}
	return 0.3
}

func dayOfWeekScore(slot domain.TimeInterval, sc scoreContext) float64 {
	if sc.prefs == nil {
		return 1.0
	}

	day := weekdayName(slot.Start.In(sc.displayLoc))
	for _, avoid := range sc.prefs.AvoidDays {
		if equalDay(avoid, day) {
			return 0.1
		}
	}
	if len(sc.prefs.PreferredDays) == 0 {
		return 1.0
	}
	for _, preferred := range sc.prefs.PreferredDays {
		if equalDay(preferred, day) {
			return 1.0
		}
	}
	return 0.5
}

func proximityScore(slot domain.TimeInterval, sc scoreContext) float64 {
	if !sc.prefs.SoonerPreferred() {
		return 0.5
	}
	span := sc.rangeEnd.Sub(sc.rangeStart)
	if span <= 0 {
		return 1.0
	}
	frac := float64(slot.Start.Sub(sc.rangeStart)) / float64(span)
	return clamp01(1.0 - frac)
}

// qualityScore rewards slots away from the extreme edges of the working
// window and on round half-hour boundaries.
func qualityScore(slot domain.TimeInterval, sc scoreContext) float64 {
	startMargin := slot.Start.Sub(sc.window.Start).Minutes()
	endMargin := sc.window.End.Sub(slot.End).Minutes()
	margin := startMargin
	if endMargin < margin {
		margin = endMargin
	}
	if margin < 0 {
		margin = 0
	}
	if margin > qualityMarginMinutes {
		margin = qualityMarginMinutes
	}

	score := 0.5 + 0.5*(margin/qualityMarginMinutes)
	if slot.Start.Minute()%30 != 0 {
		score -= 0.1
	}
	return clamp01(score)
}

func equalDay(a, b string) bool {
	return strings.EqualFold(a, b)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

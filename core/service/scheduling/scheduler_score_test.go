package scheduling

import (
	"testing"
	"time"

	"scheduler_server/core/domain"
	"scheduler_server/core/port/in"
)

func scoreFixture(t *testing.T) scoreContext {
	t.Helper()
	return scoreContext{
		rangeStart: mustTime(t, "2026-03-02T00:00:00Z"),
		rangeEnd:   mustTime(t, "2026-03-07T00:00:00Z"),
		displayLoc: time.UTC,
		window: domain.TimeInterval{
			Start: mustTime(t, "2026-03-02T09:00:00Z"),
			End:   mustTime(t, "2026-03-02T17:00:00Z"),
		},
	}
}

func slotAt(t *testing.T, start string, d time.Duration) domain.TimeInterval {
	t.Helper()
	s := mustTime(t, start)
	return domain.TimeInterval{Start: s, End: s.Add(d)}
}

func TestScoreSlotBounded(t *testing.T) {
	sc := scoreFixture(t)
	prefSooner := false
	scenarios := []*in.AvailabilityPreferences{
		nil,
		{PreferredTimeOfDay: "morning"},
		{PreferredDays: []string{"monday"}, AvoidDays: []string{"friday"}},
		{PreferSooner: &prefSooner},
	}

	starts := []string{
		"2026-03-02T09:00:00Z",
		"2026-03-02T11:30:00Z",
		"2026-03-02T14:15:00Z",
		"2026-03-02T16:00:00Z",
	}

	for _, prefs := range scenarios {
		sc.prefs = prefs
		for _, start := range starts {
			score, breakdown := scoreSlot(slotAt(t, start, time.Hour), sc)
			if score < 0 || score > 1 {
				t.Errorf("score %f out of [0,1] for start %s", score, start)
			}
			for name, axis := range map[string]float64{
				"timeOfDay": breakdown.TimeOfDay,
				"dayOfWeek": breakdown.DayOfWeek,
				"proximity": breakdown.Proximity,
				"quality":   breakdown.Quality,
			} {
				if axis < 0 || axis > 1 {
					t.Errorf("%s = %f out of [0,1] for start %s", name, axis, start)
				}
			}
		}
	}
}

func TestTimeOfDayScore(t *testing.T) {
	sc := scoreFixture(t)
	sc.prefs = &in.AvailabilityPreferences{PreferredTimeOfDay: "afternoon"}

	afternoon := timeOfDayScore(slotAt(t, "2026-03-02T14:00:00Z", time.Hour), sc)
	morning := timeOfDayScore(slotAt(t, "2026-03-02T09:00:00Z", time.Hour), sc)

	if afternoon != 1.0 {
		t.Errorf("matching part of day scored %f, want 1.0", afternoon)
	}
	if morning >= afternoon {
		t.Errorf("non-matching part of day (%f) must score below matching (%f)", morning, afternoon)
	}

	sc.prefs = nil
	if got := timeOfDayScore(slotAt(t, "2026-03-02T09:00:00Z", time.Hour), sc); got != 1.0 {
		t.Errorf("no preference should be neutral, got %f", got)
	}
}

func TestDayOfWeekScore(t *testing.T) {
	sc := scoreFixture(t)

	// 2026-03-02 is a Monday, 2026-03-06 a Friday.
	monday := slotAt(t, "2026-03-02T10:00:00Z", time.Hour)
	friday := slotAt(t, "2026-03-06T10:00:00Z", time.Hour)

	sc.prefs = &in.AvailabilityPreferences{
		PreferredDays: []string{"Monday"},
		AvoidDays:     []string{"FRIDAY"},
	}

	if got := dayOfWeekScore(monday, sc); got != 1.0 {
		t.Errorf("preferred day scored %f, want 1.0 (case-insensitive match)", got)
	}
	if got := dayOfWeekScore(friday, sc); got != 0.1 {
		t.Errorf("avoided day scored %f, want 0.1", got)
	}

	tuesday := slotAt(t, "2026-03-03T10:00:00Z", time.Hour)
	if got := dayOfWeekScore(tuesday, sc); got != 0.5 {
		t.Errorf("unlisted day with preferences scored %f, want 0.5", got)
	}
}

func TestProximityScoreMonotonic(t *testing.T) {
	sc := scoreFixture(t)

	early := proximityScore(slotAt(t, "2026-03-02T09:00:00Z", time.Hour), sc)
	mid := proximityScore(slotAt(t, "2026-03-04T09:00:00Z", time.Hour), sc)
	late := proximityScore(slotAt(t, "2026-03-06T09:00:00Z", time.Hour), sc)

	if !(early > mid && mid > late) {
		t.Errorf("proximity must decay over the range: early=%f mid=%f late=%f", early, mid, late)
	}

	prefSooner := false
	sc.prefs = &in.AvailabilityPreferences{PreferSooner: &prefSooner}
	flatEarly := proximityScore(slotAt(t, "2026-03-02T09:00:00Z", time.Hour), sc)
	flatLate := proximityScore(slotAt(t, "2026-03-06T09:00:00Z", time.Hour), sc)
	if flatEarly != flatLate {
		t.Errorf("proximity must be flat when sooner is not preferred: %f vs %f", flatEarly, flatLate)
	}
}

func TestQualityScore(t *testing.T) {
	sc := scoreFixture(t)

	edge := qualityScore(slotAt(t, "2026-03-02T09:00:00Z", time.Hour), sc)
	centered := qualityScore(slotAt(t, "2026-03-02T12:00:00Z", time.Hour), sc)
	if centered <= edge {
		t.Errorf("centered slot (%f) must outscore an edge slot (%f)", centered, edge)
	}

	round := qualityScore(slotAt(t, "2026-03-02T12:00:00Z", time.Hour), sc)
	offbeat := qualityScore(slotAt(t, "2026-03-02T12:10:00Z", time.Hour), sc)
	if offbeat >= round {
		t.Errorf("off-grid start (%f) must score below a round start (%f)", offbeat, round)
	}
}

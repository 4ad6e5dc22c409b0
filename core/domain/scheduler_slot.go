package domain

import "time"

// ScoreBreakdown exposes the four independent scoring axes of a candidate
// slot. Every component lies in [0,1].
type ScoreBreakdown struct {
	TimeOfDay float64 `json:"timeOfDay"`
	DayOfWeek float64 `json:"dayOfWeek"`
	Proximity float64 `json:"proximity"`
	Quality   float64 `json:"quality"`
}

// LocalTime is a slot projected into one participant's timezone for display.
type LocalTime struct {
	Start    string `json:"start"`
	End      string `json:"end"`
	Timezone string `json:"timezone"`
}

// AvailableSlot is one ranked candidate returned by an availability search.
// LocalTimes is keyed by participant userId.
type AvailableSlot struct {
	Start          time.Time            `json:"start"`
	End            time.Time            `json:"end"`
	Score          float64              `json:"score"`
	ScoreBreakdown ScoreBreakdown       `json:"scoreBreakdown"`
	LocalTimes     map[string]LocalTime `json:"localTimes,omitempty"`
}

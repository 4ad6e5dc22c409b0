package domain

import "time"

type ConflictType string

const (
	ConflictDoubleBooking ConflictType = "double_booking"
	ConflictDirectOverlap ConflictType = "direct_overlap"
	ConflictBackToBack    ConflictType = "back_to_back"
	ConflictRecurring     ConflictType = "recurring_conflict"
)

type ConflictSeverity string

const (
	SeverityNone    ConflictSeverity = "none"
	SeverityWarning ConflictSeverity = "warning"
	SeverityError   ConflictSeverity = "error"
)

// EventConflict describes one collision between a proposed interval and an
// existing event. OverlapDuration is 0 for pure buffer violations.
type EventConflict struct {
	Type             ConflictType     `json:"type"`
	Severity         ConflictSeverity `json:"severity"`
	ConflictingEvent *CalendarEvent   `json:"conflictingEvent"`
	OverlapStart     time.Time        `json:"overlapStart"`
	OverlapEnd       time.Time        `json:"overlapEnd"`
	OverlapDuration  int              `json:"overlapDuration"`
	Message          string           `json:"message"`
}

// SuggestedTime is an alternative conflict-free slot offered alongside a
// failed conflict check.
type SuggestedTime struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

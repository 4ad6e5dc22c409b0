package in

import (
	"context"
	"time"

	"scheduler_server/core/domain"

	"github.com/google/uuid"
)

// SchedulingService is the inbound port for the scheduling intelligence
// layer: conflict detection for a proposed interval and multi-participant
// availability search.
type SchedulingService interface {
	CheckConflicts(ctx context.Context, requesterID uuid.UUID, req *ConflictCheckRequest) (*ConflictCheckResponse, error)
	FindAvailability(ctx context.Context, req *AvailabilityRequest) (*AvailabilityResponse, error)
}

// =============================================================================
// Conflict Check
// =============================================================================

type ConflictCheckRequest struct {
	Start             time.Time `json:"start"`
	End               time.Time `json:"end"`
	CalendarIDs       []string  `json:"calendarIds,omitempty"`
	ExcludeEventID    string    `json:"excludeEventId,omitempty"`
	BufferMinutes     int       `json:"bufferMinutes,omitempty"`
	CheckAllDayEvents *bool     `json:"checkAllDayEvents,omitempty"` // default true
}

// AllDayEventsIncluded reports whether all-day events participate in the
// check. They do unless the caller opts out.
func (r *ConflictCheckRequest) AllDayEventsIncluded() bool {
	return r.CheckAllDayEvents == nil || *r.CheckAllDayEvents
}

type ConflictCheckResponse struct {
	HasConflicts     bool                    `json:"hasConflicts"`
	Severity         domain.ConflictSeverity `json:"severity"`
	Conflicts        []*domain.EventConflict `json:"conflicts"`
	SuggestedTimes   []*domain.SuggestedTime `json:"suggestedTimes,omitempty"`
	CheckedCalendars []string                `json:"checkedCalendars"`
	BufferMinutes    int                     `json:"bufferMinutes"`
}

// =============================================================================
// Availability Search
// =============================================================================

type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type AvailabilityPreferences struct {
	PreferredTimeOfDay string   `json:"preferredTimeOfDay,omitempty"` // morning | afternoon | evening
	PreferredDays      []string `json:"preferredDays,omitempty"`
	AvoidDays          []string `json:"avoidDays,omitempty"`
	PreferSooner       *bool    `json:"preferSooner,omitempty"` // default true
	MinQualityScore    *float64 `json:"minQualityScore,omitempty"`
}

// SoonerPreferred reports whether earlier slots should rank higher.
func (p *AvailabilityPreferences) SoonerPreferred() bool {
	return p == nil || p.PreferSooner == nil || *p.PreferSooner
}

type AvailabilityRequest struct {
	Participants  []*domain.Participant    `json:"participants"`
	DateRange     DateRange                `json:"dateRange"`
	Duration      int                      `json:"duration"` // minutes
	BufferMinutes int                      `json:"bufferMinutes,omitempty"`
	Preferences   *AvailabilityPreferences `json:"preferences,omitempty"`
	Limit         int                      `json:"limit,omitempty"` // default 10
}

type AvailabilityResponse struct {
	Slots            []*domain.AvailableSlot `json:"slots"`
	SearchedRange    DateRange               `json:"searchedRange"`
	ParticipantCount int                     `json:"participantCount"`
	RequestDuration  int                     `json:"requestDuration"` // minutes
}

package domain

import (
	"time"

	"github.com/google/uuid"
)

type EventStatus string

const (
	EventStatusConfirmed EventStatus = "confirmed"
	EventStatusTentative EventStatus = "tentative"
	EventStatusCancelled EventStatus = "cancelled"
)

type Transparency string

const (
	TransparencyOpaque      Transparency = "opaque"
	TransparencyTransparent Transparency = "transparent"
)

// EventTime is a point-or-all-day time specification attached to an event
// boundary. Exactly one of DateTime or Date is populated: DateTime carries an
// RFC3339 instant, Date carries a "2006-01-02" all-day date with no
// time-of-day.
type EventTime struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}

// IsAllDay reports whether this boundary is an all-day date.
func (et EventTime) IsAllDay() bool {
	return et.DateTime == "" && et.Date != ""
}

// CalendarEvent is a read-only snapshot of a provider event. Recurring events
// arrive pre-expanded into concrete instances; the expansion itself happens at
// the provider boundary.
type CalendarEvent struct {
	ID               string       `json:"id"`
	CalendarID       string       `json:"calendarId"`
	Summary          string       `json:"summary"`
	Start            EventTime    `json:"start"`
	End              EventTime    `json:"end"`
	Status           EventStatus  `json:"status"`
	Transparency     Transparency `json:"transparency,omitempty"`
	RecurringEventID string       `json:"recurringEventId,omitempty"`
	Recurrence       []string     `json:"recurrence,omitempty"`
}

// IsRecurring reports whether the event belongs to a recurring series.
func (e *CalendarEvent) IsRecurring() bool {
	return e.RecurringEventID != "" || len(e.Recurrence) > 0
}

// IsAllDay reports whether the event is an all-day event.
func (e *CalendarEvent) IsAllDay() bool {
	return e.Start.IsAllDay()
}

// DayHours is a single working-hours window as local wall-clock times,
// "HH:mm" in the owner's timezone.
type DayHours struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// WorkingHours describes when a participant is available, keyed by lowercase
// weekday name ("monday" .. "sunday"). Days absent from the map are
// non-working days.
type WorkingHours struct {
	Timezone string              `json:"timezone"`
	Days     map[string]DayHours `json:"days"`
}

// Participant is one attendee of an availability search.
type Participant struct {
	UserID       uuid.UUID     `json:"userId"`
	CalendarID   string        `json:"calendarId"`
	Email        string        `json:"email,omitempty"`
	DisplayName  string        `json:"displayName,omitempty"`
	WorkingHours *WorkingHours `json:"workingHours,omitempty"`
	IsRequired   *bool         `json:"isRequired,omitempty"`
}

// Required reports whether the participant constrains the search.
// Participants are required unless explicitly marked otherwise.
func (p *Participant) Required() bool {
	return p.IsRequired == nil || *p.IsRequired
}

// Timezone returns the participant's display timezone, falling back to UTC.
func (p *Participant) Timezone() string {
	if p.WorkingHours != nil && p.WorkingHours.Timezone != "" {
		return p.WorkingHours.Timezone
	}
	return "UTC"
}

// TimePeriod is an absolute busy period as reported by a free/busy query.
type TimePeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

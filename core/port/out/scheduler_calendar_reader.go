// Package out defines outbound ports (driven ports) for the application.
package out

import (
	"context"
	"time"

	"scheduler_server/core/domain"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// =============================================================================
// Calendar Reader Port (Google Calendar, other providers)
// =============================================================================

// CalendarReaderPort is the read-only surface the scheduling engines consume.
// Implementations own authentication, retries and pagination; the engines only
// see calendars, expanded event instances and busy periods.
type CalendarReaderPort interface {
	ListCalendars(ctx context.Context, userID uuid.UUID) ([]*ProviderCalendar, error)
	ListEvents(ctx context.Context, userID uuid.UUID, query *EventQuery) (*EventListResult, error)
	GetFreeBusy(ctx context.Context, userID uuid.UUID, query *FreeBusyQuery) (*FreeBusyResult, error)
}

// ProviderCalendar is one calendar entry as reported by the provider.
type ProviderCalendar struct {
	ID         string
	Summary    string
	AccessRole string
	IsPrimary  bool
	Hidden     bool
	Deleted    bool
}

// EventQuery selects events from a single calendar within a window.
// SingleEvents requests recurrence already expanded into concrete instances.
type EventQuery struct {
	CalendarID   string
	TimeMin      time.Time
	TimeMax      time.Time
	SingleEvents bool
	MaxResults   int
}

// EventListResult is the result of an event listing.
type EventListResult struct {
	Events []*domain.CalendarEvent
}

// FreeBusyQuery selects busy periods for a set of calendars within a window.
type FreeBusyQuery struct {
	CalendarIDs []string
	TimeMin     time.Time
	TimeMax     time.Time
}

// FreeBusyResult maps calendar ID to its busy periods.
type FreeBusyResult struct {
	Calendars map[string][]*domain.TimePeriod
}

// =============================================================================
// Token Resolution
// =============================================================================

// TokenResolver supplies an OAuth2 token for a user. Token acquisition,
// refresh and storage live entirely outside this module; adapters only ask
// for a usable token at call time.
type TokenResolver interface {
	OAuth2Token(ctx context.Context, userID uuid.UUID) (*oauth2.Token, error)
}

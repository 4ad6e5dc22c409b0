// Package provider implements calendar provider adapters.
package provider

import (
	"context"
	"fmt"
	"time"

	"scheduler_server/core/domain"
	"scheduler_server/core/port/out"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// GoogleCalendarReader implements CalendarReaderPort against the Google
// Calendar API. Tokens come from the external resolver; this adapter never
// initiates an OAuth flow itself.
type GoogleCalendarReader struct {
	oauthConfig *oauth2.Config
	tokens      out.TokenResolver
	timeout     time.Duration
	cb          *gobreaker.CircuitBreaker
	log         zerolog.Logger
}

// NewGoogleCalendarReader creates a new Google Calendar reader adapter.
// A positive timeout bounds every outbound call; zero disables the bound.
func NewGoogleCalendarReader(oauthConfig *oauth2.Config, tokens out.TokenResolver, timeout time.Duration, log zerolog.Logger) *GoogleCalendarReader {
	adapterLog := log.With().Str("component", "google_calendar_reader").Logger()

	cbSettings := gobreaker.Settings{
		Name:        "google-calendar-api",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.ConsecutiveFailures > 5 ||
				(counts.Requests >= 10 && failureRatio >= 0.6)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			adapterLog.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	}

	return &GoogleCalendarReader{
		oauthConfig: oauthConfig,
		tokens:      tokens,
		timeout:     timeout,
		cb:          gobreaker.NewCircuitBreaker(cbSettings),
		log:         adapterLog,
	}
}

// callContext applies the configured per-call timeout.
func (a *GoogleCalendarReader) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, a.timeout)
}

// getService creates a Calendar service for the user's token.
func (a *GoogleCalendarReader) getService(ctx context.Context, userID uuid.UUID) (*calendar.Service, error) {
	token, err := a.tokens.OAuth2Token(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve token: %w", err)
	}
	client := a.oauthConfig.Client(ctx, token)
	return calendar.NewService(ctx, option.WithHTTPClient(client))
}

// ListCalendars lists the user's calendars.
func (a *GoogleCalendarReader) ListCalendars(ctx context.Context, userID uuid.UUID) ([]*out.ProviderCalendar, error) {
	ctx, cancel := a.callContext(ctx)
	defer cancel()

	svc, err := a.getService(ctx, userID)
	if err != nil {
		return nil, err
	}

	result, err := a.cb.Execute(func() (interface{}, error) {
		return svc.CalendarList.List().Context(ctx).Do()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list calendars: %w", err)
	}
	list := result.(*calendar.CalendarList)

	calendars := make([]*out.ProviderCalendar, 0, len(list.Items))
	for _, cal := range list.Items {
		calendars = append(calendars, &out.ProviderCalendar{
			ID:         cal.Id,
			Summary:    cal.Summary,
			AccessRole: cal.AccessRole,
			IsPrimary:  cal.Primary,
			Hidden:     cal.Hidden,
			Deleted:    cal.Deleted,
		})
	}

	return calendars, nil
}

// ListEvents lists events from a calendar within a time window. SingleEvents
// asks the API to expand recurring series into concrete instances.
func (a *GoogleCalendarReader) ListEvents(ctx context.Context, userID uuid.UUID, query *out.EventQuery) (*out.EventListResult, error) {
	ctx, cancel := a.callContext(ctx)
	defer cancel()

	svc, err := a.getService(ctx, userID)
	if err != nil {
		return nil, err
	}

	calendarID := query.CalendarID
	if calendarID == "" {
		calendarID = "primary"
	}

	call := svc.Events.List(calendarID).
		SingleEvents(query.SingleEvents).
		Context(ctx)

	if !query.TimeMin.IsZero() {
		call = call.TimeMin(query.TimeMin.Format(time.RFC3339))
	}
	if !query.TimeMax.IsZero() {
		call = call.TimeMax(query.TimeMax.Format(time.RFC3339))
	}
	if query.MaxResults > 0 {
		call = call.MaxResults(int64(query.MaxResults))
	}

	result, err := a.cb.Execute(func() (interface{}, error) {
		return call.Do()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	resp := result.(*calendar.Events)

	events := make([]*domain.CalendarEvent, 0, len(resp.Items))
	for _, item := range resp.Items {
		events = append(events, convertEvent(item, calendarID))
	}

	return &out.EventListResult{Events: events}, nil
}

// GetFreeBusy queries busy periods for a set of calendars.
func (a *GoogleCalendarReader) GetFreeBusy(ctx context.Context, userID uuid.UUID, query *out.FreeBusyQuery) (*out.FreeBusyResult, error) {
	ctx, cancel := a.callContext(ctx)
	defer cancel()

	svc, err := a.getService(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := make([]*calendar.FreeBusyRequestItem, len(query.CalendarIDs))
	for i, id := range query.CalendarIDs {
		items[i] = &calendar.FreeBusyRequestItem{Id: id}
	}

	freeBusyReq := &calendar.FreeBusyRequest{
		TimeMin: query.TimeMin.Format(time.RFC3339),
		TimeMax: query.TimeMax.Format(time.RFC3339),
		Items:   items,
	}

	result, err := a.cb.Execute(func() (interface{}, error) {
		return svc.Freebusy.Query(freeBusyReq).Context(ctx).Do()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query free/busy: %w", err)
	}
	resp := result.(*calendar.FreeBusyResponse)

	freeBusy := &out.FreeBusyResult{
		Calendars: make(map[string][]*domain.TimePeriod, len(resp.Calendars)),
	}
	for calID, calData := range resp.Calendars {
		periods := make([]*domain.TimePeriod, 0, len(calData.Busy))
		for _, busy := range calData.Busy {
			start, err := time.Parse(time.RFC3339, busy.Start)
			if err != nil {
				continue
			}
			end, err := time.Parse(time.RFC3339, busy.End)
			if err != nil {
				continue
			}
			periods = append(periods, &domain.TimePeriod{Start: start, End: end})
		}
		freeBusy.Calendars[calID] = periods
	}

	return freeBusy, nil
}

// convertEvent maps a Google event to the domain snapshot. Start/end keep
// their wire form: DateTime for timed events, Date for all-day ones.
func convertEvent(event *calendar.Event, calendarID string) *domain.CalendarEvent {
	result := &domain.CalendarEvent{
		ID:               event.Id,
		CalendarID:       calendarID,
		Summary:          event.Summary,
		Status:           domain.EventStatus(event.Status),
		Transparency:     domain.Transparency(event.Transparency),
		RecurringEventID: event.RecurringEventId,
		Recurrence:       event.Recurrence,
	}

	if event.Start != nil {
		result.Start = domain.EventTime{
			DateTime: event.Start.DateTime,
			Date:     event.Start.Date,
			Timezone: event.Start.TimeZone,
		}
	}
	if event.End != nil {
		result.End = domain.EventTime{
			DateTime: event.End.DateTime,
			Date:     event.End.Date,
			Timezone: event.End.TimeZone,
		}
	}

	return result
}

// Ensure interface compliance
var _ out.CalendarReaderPort = (*GoogleCalendarReader)(nil)

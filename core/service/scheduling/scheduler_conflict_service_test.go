package scheduling

import (
	"context"
	"errors"
	"testing"
	"time"

	"scheduler_server/core/domain"
	"scheduler_server/core/port/in"
	"scheduler_server/core/port/out"
	"scheduler_server/pkg/apperr"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// fakeCalendarReader is an in-memory CalendarReaderPort for tests.
type fakeCalendarReader struct {
	calendars        []*out.ProviderCalendar
	eventsByCalendar map[string][]*domain.CalendarEvent
	listErrByID      map[string]error
	listCalendarsErr error
	busyByCalendar   map[string][]*domain.TimePeriod
	freeBusyErr      error
}

func (f *fakeCalendarReader) ListCalendars(ctx context.Context, userID uuid.UUID) ([]*out.ProviderCalendar, error) {
	if f.listCalendarsErr != nil {
		return nil, f.listCalendarsErr
	}
	return f.calendars, nil
}

func (f *fakeCalendarReader) ListEvents(ctx context.Context, userID uuid.UUID, query *out.EventQuery) (*out.EventListResult, error) {
	if err := f.listErrByID[query.CalendarID]; err != nil {
		return nil, err
	}
	return &out.EventListResult{Events: f.eventsByCalendar[query.CalendarID]}, nil
}

func (f *fakeCalendarReader) GetFreeBusy(ctx context.Context, userID uuid.UUID, query *out.FreeBusyQuery) (*out.FreeBusyResult, error) {
	if f.freeBusyErr != nil {
		return nil, f.freeBusyErr
	}
	calendars := make(map[string][]*domain.TimePeriod, len(query.CalendarIDs))
	for _, id := range query.CalendarIDs {
		calendars[id] = f.busyByCalendar[id]
	}
	return &out.FreeBusyResult{Calendars: calendars}, nil
}

var _ out.CalendarReaderPort = (*fakeCalendarReader)(nil)

func timedEventAt(id, summary, start, end string) *domain.CalendarEvent {
	return &domain.CalendarEvent{
		ID:      id,
		Summary: summary,
		Start:   domain.EventTime{DateTime: start},
		End:     domain.EventTime{DateTime: end},
		Status:  domain.EventStatusConfirmed,
	}
}

func newConflictFixture(events ...*domain.CalendarEvent) *ConflictService {
	reader := &fakeCalendarReader{
		calendars: []*out.ProviderCalendar{
			{ID: "primary", IsPrimary: true},
		},
		eventsByCalendar: map[string][]*domain.CalendarEvent{
			"primary": events,
		},
	}
	return NewConflictService(reader, zerolog.Nop(), Options{})
}

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("bad time %q: %v", s, err)
	}
	return parsed
}

func TestCheckConflictsCleanCalendar(t *testing.T) {
	svc := newConflictFixture(
		timedEventAt("ev1", "Standup", "2026-03-02T08:00:00Z", "2026-03-02T08:30:00Z"),
	)

	resp, err := svc.CheckConflicts(context.Background(), uuid.New(), &in.ConflictCheckRequest{
		Start: mustTime(t, "2026-03-02T10:00:00Z"),
		End:   mustTime(t, "2026-03-02T11:00:00Z"),
	})
	if err != nil {
		t.Fatalf("CheckConflicts() error: %v", err)
	}

	if resp.HasConflicts {
		t.Error("HasConflicts = true for a clean window")
	}
	if resp.Severity != domain.SeverityNone {
		t.Errorf("Severity = %q, want %q", resp.Severity, domain.SeverityNone)
	}
	if resp.Conflicts == nil {
		t.Error("Conflicts must be an empty slice, not nil, so it serializes as []")
	}
	if len(resp.SuggestedTimes) != 0 {
		t.Errorf("SuggestedTimes should be empty without conflicts, got %d", len(resp.SuggestedTimes))
	}
	if len(resp.CheckedCalendars) != 1 || resp.CheckedCalendars[0] != "primary" {
		t.Errorf("CheckedCalendars = %v, want [primary]", resp.CheckedCalendars)
	}
}

func TestCheckConflictsInvalidRange(t *testing.T) {
	svc := newConflictFixture()

	_, err := svc.CheckConflicts(context.Background(), uuid.New(), &in.ConflictCheckRequest{
		Start: mustTime(t, "2026-03-02T11:00:00Z"),
		End:   mustTime(t, "2026-03-02T10:00:00Z"),
	})
	if !apperr.IsCode(err, apperr.CodeInvalidRange) {
		t.Fatalf("CheckConflicts() error = %v, want code %s", err, apperr.CodeInvalidRange)
	}
	if apperr.GetHTTPStatus(err) != 400 {
		t.Errorf("status = %d, want 400", apperr.GetHTTPStatus(err))
	}
}

func TestCheckConflictsClassification(t *testing.T) {
	tests := []struct {
		name         string
		event        *domain.CalendarEvent
		buffer       int
		wantType     domain.ConflictType
		wantSeverity domain.ConflictSeverity
		wantOverlap  int
	}{
		{
			name:         "identical interval is a double booking",
			event:        timedEventAt("ev1", "1:1", "2026-03-02T10:00:00Z", "2026-03-02T11:00:00Z"),
			wantType:     domain.ConflictDoubleBooking,
			wantSeverity: domain.SeverityError,
			wantOverlap:  60,
		},
		{
			name:         "partial overlap is a direct overlap",
			event:        timedEventAt("ev1", "Review", "2026-03-02T10:30:00Z", "2026-03-02T11:30:00Z"),
			wantType:     domain.ConflictDirectOverlap,
			wantSeverity: domain.SeverityError,
			wantOverlap:  30,
		},
		{
			name:         "adjacent event with buffer is back to back",
			event:        timedEventAt("ev1", "Next", "2026-03-02T11:05:00Z", "2026-03-02T12:00:00Z"),
			buffer:       15,
			wantType:     domain.ConflictBackToBack,
			wantSeverity: domain.SeverityWarning,
			wantOverlap:  0,
		},
		{
			name: "long recurring overlap escalates to error",
			event: &domain.CalendarEvent{
				ID:               "ev1",
				Summary:          "Weekly sync",
				Start:            domain.EventTime{DateTime: "2026-03-02T10:30:00Z"},
				End:              domain.EventTime{DateTime: "2026-03-02T11:30:00Z"},
				Status:           domain.EventStatusConfirmed,
				RecurringEventID: "series1",
			},
			wantType:     domain.ConflictRecurring,
			wantSeverity: domain.SeverityError,
			wantOverlap:  30,
		},
		{
			name: "short recurring overlap stays a warning",
			event: &domain.CalendarEvent{
				ID:               "ev1",
				Summary:          "Weekly sync",
				Start:            domain.EventTime{DateTime: "2026-03-02T10:50:00Z"},
				End:              domain.EventTime{DateTime: "2026-03-02T11:30:00Z"},
				Status:           domain.EventStatusConfirmed,
				RecurringEventID: "series1",
			},
			wantType:     domain.ConflictRecurring,
			wantSeverity: domain.SeverityWarning,
			wantOverlap:  10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newConflictFixture(tt.event)

			resp, err := svc.CheckConflicts(context.Background(), uuid.New(), &in.ConflictCheckRequest{
				Start:         mustTime(t, "2026-03-02T10:00:00Z"),
				End:           mustTime(t, "2026-03-02T11:00:00Z"),
				BufferMinutes: tt.buffer,
			})
			if err != nil {
				t.Fatalf("CheckConflicts() error: %v", err)
			}
			if len(resp.Conflicts) != 1 {
				t.Fatalf("got %d conflicts, want 1", len(resp.Conflicts))
			}

			c := resp.Conflicts[0]
			if c.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", c.Type, tt.wantType)
			}
			if c.Severity != tt.wantSeverity {
				t.Errorf("Severity = %q, want %q", c.Severity, tt.wantSeverity)
			}
			if c.OverlapDuration != tt.wantOverlap {
				t.Errorf("OverlapDuration = %d, want %d", c.OverlapDuration, tt.wantOverlap)
			}
			if resp.Severity != tt.wantSeverity {
				t.Errorf("overall Severity = %q, want %q", resp.Severity, tt.wantSeverity)
			}
		})
	}
}

func TestCheckConflictsBackToBackAnchorsAtEventEdge(t *testing.T) {
	svc := newConflictFixture(
		timedEventAt("ev1", "Next", "2026-03-02T11:05:00Z", "2026-03-02T12:00:00Z"),
	)

	resp, err := svc.CheckConflicts(context.Background(), uuid.New(), &in.ConflictCheckRequest{
		Start:         mustTime(t, "2026-03-02T10:00:00Z"),
		End:           mustTime(t, "2026-03-02T11:00:00Z"),
		BufferMinutes: 15,
	})
	if err != nil {
		t.Fatalf("CheckConflicts() error: %v", err)
	}
	if len(resp.Conflicts) != 1 {
		t.Fatalf("got %d conflicts, want 1", len(resp.Conflicts))
	}

	c := resp.Conflicts[0]
	if !c.OverlapStart.Equal(c.OverlapEnd) {
		t.Errorf("back-to-back overlap should be zero length, got %v..%v", c.OverlapStart, c.OverlapEnd)
	}
	if want := mustTime(t, "2026-03-02T11:05:00Z"); !c.OverlapStart.Equal(want) {
		t.Errorf("overlap anchored at %v, want the event's start %v", c.OverlapStart, want)
	}
}

func TestCheckConflictsFiltersNonBlockingEvents(t *testing.T) {
	cancelled := timedEventAt("ev1", "Cancelled", "2026-03-02T10:00:00Z", "2026-03-02T11:00:00Z")
	cancelled.Status = domain.EventStatusCancelled

	transparent := timedEventAt("ev2", "OOO marker", "2026-03-02T10:00:00Z", "2026-03-02T11:00:00Z")
	transparent.Transparency = domain.TransparencyTransparent

	svc := newConflictFixture(cancelled, transparent)

	resp, err := svc.CheckConflicts(context.Background(), uuid.New(), &in.ConflictCheckRequest{
		Start: mustTime(t, "2026-03-02T10:00:00Z"),
		End:   mustTime(t, "2026-03-02T11:00:00Z"),
	})
	if err != nil {
		t.Fatalf("CheckConflicts() error: %v", err)
	}
	if resp.HasConflicts {
		t.Errorf("cancelled and transparent events should never conflict, got %d conflicts", len(resp.Conflicts))
	}
}

func TestCheckConflictsAllDayToggle(t *testing.T) {
	allDay := &domain.CalendarEvent{
		ID:      "ev1",
		Summary: "Company holiday",
		Start:   domain.EventTime{Date: "2026-03-02", Timezone: "UTC"},
		End:     domain.EventTime{Date: "2026-03-03", Timezone: "UTC"},
		Status:  domain.EventStatusConfirmed,
	}

	req := func(include *bool) *in.ConflictCheckRequest {
		return &in.ConflictCheckRequest{
			Start:             mustTime(t, "2026-03-02T10:00:00Z"),
			End:               mustTime(t, "2026-03-02T11:00:00Z"),
			CheckAllDayEvents: include,
		}
	}

	svc := newConflictFixture(allDay)

	// Included by default.
	resp, err := svc.CheckConflicts(context.Background(), uuid.New(), req(nil))
	if err != nil {
		t.Fatalf("CheckConflicts() error: %v", err)
	}
	if !resp.HasConflicts {
		t.Error("all-day events should conflict by default")
	}

	exclude := false
	resp, err = svc.CheckConflicts(context.Background(), uuid.New(), req(&exclude))
	if err != nil {
		t.Fatalf("CheckConflicts() error: %v", err)
	}
	if resp.HasConflicts {
		t.Error("all-day events should be skipped when checkAllDayEvents is false")
	}
}

func TestCheckConflictsExcludesEventUnderEdit(t *testing.T) {
	svc := newConflictFixture(
		timedEventAt("editing", "The event itself", "2026-03-02T10:00:00Z", "2026-03-02T11:00:00Z"),
	)

	resp, err := svc.CheckConflicts(context.Background(), uuid.New(), &in.ConflictCheckRequest{
		Start:          mustTime(t, "2026-03-02T10:00:00Z"),
		End:            mustTime(t, "2026-03-02T11:00:00Z"),
		ExcludeEventID: "editing",
	})
	if err != nil {
		t.Fatalf("CheckConflicts() error: %v", err)
	}
	if resp.HasConflicts {
		t.Error("the excluded event must not conflict with itself")
	}
}

func TestCheckConflictsSeverityAggregation(t *testing.T) {
	shortRecurring := &domain.CalendarEvent{
		ID:               "ev1",
		Summary:          "Weekly sync",
		Start:            domain.EventTime{DateTime: "2026-03-02T10:50:00Z"},
		End:              domain.EventTime{DateTime: "2026-03-02T11:30:00Z"},
		Status:           domain.EventStatusConfirmed,
		RecurringEventID: "series1",
	}
	direct := timedEventAt("ev2", "Review", "2026-03-02T10:00:00Z", "2026-03-02T10:30:00Z")

	svc := newConflictFixture(shortRecurring, direct)

	resp, err := svc.CheckConflicts(context.Background(), uuid.New(), &in.ConflictCheckRequest{
		Start: mustTime(t, "2026-03-02T10:00:00Z"),
		End:   mustTime(t, "2026-03-02T11:00:00Z"),
	})
	if err != nil {
		t.Fatalf("CheckConflicts() error: %v", err)
	}
	if len(resp.Conflicts) != 2 {
		t.Fatalf("got %d conflicts, want 2", len(resp.Conflicts))
	}
	if resp.Severity != domain.SeverityError {
		t.Errorf("overall Severity = %q, error must dominate warning", resp.Severity)
	}
}

func TestCheckConflictsSuggestionsAvoidConflicts(t *testing.T) {
	svc := newConflictFixture(
		timedEventAt("ev1", "Review", "2026-03-02T10:30:00Z", "2026-03-02T11:30:00Z"),
		timedEventAt("ev2", "Planning", "2026-03-02T10:45:00Z", "2026-03-02T12:30:00Z"),
	)

	resp, err := svc.CheckConflicts(context.Background(), uuid.New(), &in.ConflictCheckRequest{
		Start: mustTime(t, "2026-03-02T10:00:00Z"),
		End:   mustTime(t, "2026-03-02T11:00:00Z"),
	})
	if err != nil {
		t.Fatalf("CheckConflicts() error: %v", err)
	}
	if !resp.HasConflicts {
		t.Fatal("expected conflicts")
	}
	if len(resp.SuggestedTimes) == 0 {
		t.Fatal("conflicting proposals must come with at least one suggestion")
	}

	duration := time.Hour
	conflicting := []domain.TimeInterval{
		{Start: mustTime(t, "2026-03-02T10:30:00Z"), End: mustTime(t, "2026-03-02T11:30:00Z")},
		{Start: mustTime(t, "2026-03-02T10:45:00Z"), End: mustTime(t, "2026-03-02T12:30:00Z")},
	}
	for _, s := range resp.SuggestedTimes {
		if got := s.End.Sub(s.Start); got != duration {
			t.Errorf("suggestion %v..%v has duration %v, want %v", s.Start, s.End, got, duration)
		}
		slot := domain.TimeInterval{Start: s.Start, End: s.End}
		for _, iv := range conflicting {
			if slot.Overlaps(iv, 0) {
				t.Errorf("suggestion %v..%v overlaps conflicting event %v..%v", s.Start, s.End, iv.Start, iv.End)
			}
		}
	}
}

func TestCheckConflictsSkipsFailedCalendar(t *testing.T) {
	reader := &fakeCalendarReader{
		calendars: []*out.ProviderCalendar{
			{ID: "primary"},
			{ID: "broken"},
		},
		eventsByCalendar: map[string][]*domain.CalendarEvent{
			"primary": {timedEventAt("ev1", "Review", "2026-03-02T10:30:00Z", "2026-03-02T11:30:00Z")},
		},
		listErrByID: map[string]error{
			"broken": errors.New("provider 503"),
		},
	}
	svc := NewConflictService(reader, zerolog.Nop(), Options{})

	resp, err := svc.CheckConflicts(context.Background(), uuid.New(), &in.ConflictCheckRequest{
		Start: mustTime(t, "2026-03-02T10:00:00Z"),
		End:   mustTime(t, "2026-03-02T11:00:00Z"),
	})
	if err != nil {
		t.Fatalf("a single failed calendar must not abort the check: %v", err)
	}
	if len(resp.CheckedCalendars) != 1 || resp.CheckedCalendars[0] != "primary" {
		t.Errorf("CheckedCalendars = %v, want [primary]", resp.CheckedCalendars)
	}
	if !resp.HasConflicts {
		t.Error("conflicts from the healthy calendar must still surface")
	}
}

func TestCheckConflictsSkipsHiddenAndDeletedCalendars(t *testing.T) {
	reader := &fakeCalendarReader{
		calendars: []*out.ProviderCalendar{
			{ID: "primary"},
			{ID: "hidden", Hidden: true},
			{ID: "deleted", Deleted: true},
		},
		eventsByCalendar: map[string][]*domain.CalendarEvent{},
	}
	svc := NewConflictService(reader, zerolog.Nop(), Options{})

	resp, err := svc.CheckConflicts(context.Background(), uuid.New(), &in.ConflictCheckRequest{
		Start: mustTime(t, "2026-03-02T10:00:00Z"),
		End:   mustTime(t, "2026-03-02T11:00:00Z"),
	})
	if err != nil {
		t.Fatalf("CheckConflicts() error: %v", err)
	}
	if len(resp.CheckedCalendars) != 1 || resp.CheckedCalendars[0] != "primary" {
		t.Errorf("CheckedCalendars = %v, want [primary]", resp.CheckedCalendars)
	}
}

func TestCheckConflictsDefaultBufferFromOptions(t *testing.T) {
	reader := &fakeCalendarReader{
		calendars: []*out.ProviderCalendar{{ID: "primary", IsPrimary: true}},
		eventsByCalendar: map[string][]*domain.CalendarEvent{
			"primary": {timedEventAt("ev1", "Retro", "2026-03-02T11:05:00Z", "2026-03-02T12:00:00Z")},
		},
	}
	svc := NewConflictService(reader, zerolog.Nop(), Options{DefaultBufferMinutes: 15})

	// No buffer on the request: the configured default applies, turning the
	// 5-minute gap into a back-to-back violation.
	resp, err := svc.CheckConflicts(context.Background(), uuid.New(), &in.ConflictCheckRequest{
		Start: mustTime(t, "2026-03-02T10:00:00Z"),
		End:   mustTime(t, "2026-03-02T11:00:00Z"),
	})
	if err != nil {
		t.Fatalf("CheckConflicts() error: %v", err)
	}

	if resp.BufferMinutes != 15 {
		t.Errorf("BufferMinutes = %d, want the configured default of 15", resp.BufferMinutes)
	}
	if len(resp.Conflicts) != 1 {
		t.Fatalf("got %d conflicts, want 1", len(resp.Conflicts))
	}
	if resp.Conflicts[0].Type != domain.ConflictBackToBack {
		t.Errorf("Type = %q, want %q", resp.Conflicts[0].Type, domain.ConflictBackToBack)
	}
	if resp.Severity != domain.SeverityWarning {
		t.Errorf("Severity = %q, want %q", resp.Severity, domain.SeverityWarning)
	}
}

// Package scheduling implements the calendar scheduling intelligence layer:
// conflict detection for a proposed interval and multi-participant
// availability search. Both engines are stateless per-request computations on
// top of the read-only calendar ports; neither mutates nor persists anything.
package scheduling

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"scheduler_server/core/domain"
	"scheduler_server/core/port/in"
	"scheduler_server/core/port/out"
	"scheduler_server/pkg/apperr"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// Margin applied when generating alternative slots around conflicts.
	suggestionMarginMinutes = 5

	// Recurring conflicts above this overlap escalate from warning to error.
	recurringErrorThresholdMinutes = 15

	// Upper bound on suggested alternatives per response.
	maxSuggestions = 3

	// Default concurrent provider fetches per request, overridable through
	// Options. The provider is external and may itself be rate-limited.
	maxConcurrentFetches = 5
)

// ConflictService is the conflict detection engine. It classifies every
// collision between a proposed interval and the requester's existing events
// using a single sweep over start-sorted candidates.
type ConflictService struct {
	reader out.CalendarReaderPort
	opts   Options
	log    zerolog.Logger
}

// NewConflictService creates the conflict detection engine.
func NewConflictService(reader out.CalendarReaderPort, log zerolog.Logger, opts Options) *ConflictService {
	return &ConflictService{
		reader: reader,
		opts:   opts.withDefaults(),
		log:    log.With().Str("component", "conflict_service").Logger(),
	}
}

// timedEvent pairs a candidate event with its resolved absolute interval.
type timedEvent struct {
	event    *domain.CalendarEvent
	interval domain.TimeInterval
}

// CheckConflicts reports every conflict between the proposed interval and the
// requester's calendars. Validation errors surface before any I/O; a failed
// fetch for one calendar is logged and that calendar is skipped.
func (s *ConflictService) CheckConflicts(ctx context.Context, requesterID uuid.UUID, req *in.ConflictCheckRequest) (*in.ConflictCheckResponse, error) {
	if req == nil {
		return nil, apperr.BadRequest("missing request body")
	}
	if !req.Start.Before(req.End) {
		return nil, apperr.InvalidRange("proposed start must be before proposed end")
	}

	bufferMinutes := req.BufferMinutes
	if bufferMinutes <= 0 {
		bufferMinutes = s.opts.DefaultBufferMinutes
	}
	buffer := time.Duration(bufferMinutes) * time.Minute
	proposed := domain.TimeInterval{Start: req.Start, End: req.End}

	calendarIDs, err := s.resolveCalendars(ctx, requesterID, req.CalendarIDs)
	if err != nil {
		return nil, err
	}

	// Buffer widens the fetch window so back-to-back neighbors are visible.
	checked, candidates := s.fetchEvents(ctx, requesterID, calendarIDs, req.Start.Add(-buffer), req.End.Add(buffer))

	timed := s.filterAndResolve(candidates, req)
	sort.Slice(timed, func(i, j int) bool {
		return timed[i].interval.Start.Before(timed[j].interval.Start)
	})

	// Sweep in start order. Once an event starts past the buffer-extended end
	// of the proposal nothing later in the sorted list can conflict.
	horizon := req.End.Add(buffer)
	conflicts := []*domain.EventConflict{}
	for _, te := range timed {
		if te.interval.Start.After(horizon) {
			break
		}
		if !proposed.Overlaps(te.interval, bufferMinutes) {
			continue
		}
		conflicts = append(conflicts, classifyConflict(proposed, te, bufferMinutes))
	}

	resp := &in.ConflictCheckResponse{
		HasConflicts:     len(conflicts) > 0,
		Severity:         overallSeverity(conflicts),
		Conflicts:        conflicts,
		CheckedCalendars: checked,
		BufferMinutes:    bufferMinutes,
	}
	if resp.HasConflicts {
		resp.SuggestedTimes = suggestTimes(proposed, conflicts, bufferMinutes)
	}

	s.log.Debug().
		Str("user_id", requesterID.String()).
		Int("calendars", len(checked)).
		Int("candidates", len(timed)).
		Int("conflicts", len(conflicts)).
		Msg("conflict check complete")

	return resp, nil
}

// resolveCalendars returns the explicit calendar set, or every non-hidden,
// non-deleted calendar of the requester when none was given.
func (s *ConflictService) resolveCalendars(ctx context.Context, requesterID uuid.UUID, explicit []string) ([]string, error) {
	if len(explicit) > 0 {
		return explicit, nil
	}

	calendars, err := s.reader.ListCalendars(ctx, requesterID)
	if err != nil {
		return nil, apperr.ExternalError("calendar provider", err)
	}

	ids := make([]string, 0, len(calendars))
	for _, cal := range calendars {
		if cal.Hidden || cal.Deleted {
			continue
		}
		ids = append(ids, cal.ID)
	}
	return ids, nil
}

// fetchEvents pulls events from each calendar concurrently with bounded
// parallelism. Per-calendar failures are isolated: the calendar is logged and
// skipped, never aborting the whole check.
func (s *ConflictService) fetchEvents(ctx context.Context, requesterID uuid.UUID, calendarIDs []string, timeMin, timeMax time.Time) ([]string, []*domain.CalendarEvent) {
	type fetchResult struct {
		calendarID string
		events     []*domain.CalendarEvent
		err        error
	}

	results := make(chan fetchResult, len(calendarIDs))
	sem := make(chan struct{}, s.opts.MaxConcurrentFetches)
	var wg sync.WaitGroup

	for _, id := range calendarIDs {
		wg.Add(1)
		go func(calID string) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			res, err := s.reader.ListEvents(ctx, requesterID, &out.EventQuery{
				CalendarID:   calID,
				TimeMin:      timeMin,
				TimeMax:      timeMax,
				SingleEvents: true,
			})
			if err != nil {
				results <- fetchResult{calendarID: calID, err: err}
				return
			}
			results <- fetchResult{calendarID: calID, events: res.Events}
		}(id)
	}

	wg.Wait()
	close(results)

	checked := make([]string, 0, len(calendarIDs))
	var events []*domain.CalendarEvent
	for r := range results {
		if r.err != nil {
			s.log.Warn().
				Err(r.err).
				Str("calendar_id", r.calendarID).
				Msg("calendar fetch failed, skipping")
			continue
		}
		checked = append(checked, r.calendarID)
		events = append(events, r.events...)
	}
	sort.Strings(checked)

	return checked, events
}

// filterAndResolve drops events that can never conflict and converts the rest
// to absolute intervals. Cancelled and transparent events never conflict;
// the event under edit is excluded so edit-in-place checks don't collide with
// themselves.
func (s *ConflictService) filterAndResolve(events []*domain.CalendarEvent, req *in.ConflictCheckRequest) []timedEvent {
	timed := make([]timedEvent, 0, len(events))
	for _, ev := range events {
		if req.ExcludeEventID != "" && ev.ID == req.ExcludeEventID {
			continue
		}
		if ev.Status == domain.EventStatusCancelled {
			continue
		}
		if ev.Transparency == domain.TransparencyTransparent {
			continue
		}
		if ev.IsAllDay() && !req.AllDayEventsIncluded() {
			continue
		}

		interval, err := domain.EventInterval(ev.Start, ev.End, "")
		if err != nil {
			s.log.Warn().
				Err(err).
				Str("event_id", ev.ID).
				Msg("skipping event with unresolvable time")
			continue
		}
		timed = append(timed, timedEvent{event: ev, interval: interval})
	}
	return timed
}

// classifyConflict builds the conflict record for one overlapping event.
// Precedence: double_booking, then recurring_conflict, then direct_overlap;
// back_to_back covers pure buffer violations with no direct intersection.
func classifyConflict(proposed domain.TimeInterval, te timedEvent, bufferMinutes int) *domain.EventConflict {
	summary := te.event.Summary
	if summary == "" {
		summary = "(untitled)"
	}

	conflict := &domain.EventConflict{ConflictingEvent: te.event}

	overlap, ok := proposed.Intersection(te.interval)
	if !ok {
		// Buffer-only violation. Anchor the zero-length overlap at the
		// conflicting event's nearer edge.
		edge := te.interval.End
		if !te.interval.Start.Before(proposed.End) {
			edge = te.interval.Start
		}
		conflict.Type = domain.ConflictBackToBack
		conflict.Severity = domain.SeverityWarning
		conflict.OverlapStart = edge
		conflict.OverlapEnd = edge
		conflict.Message = fmt.Sprintf("Less than %d minutes between this and %q", bufferMinutes, summary)
		return conflict
	}

	conflict.OverlapStart = overlap.Start
	conflict.OverlapEnd = overlap.End
	conflict.OverlapDuration = overlap.DurationMinutes()

	switch {
	case proposed.Start.Equal(te.interval.Start) && proposed.End.Equal(te.interval.End):
		conflict.Type = domain.ConflictDoubleBooking
		conflict.Severity = domain.SeverityError
		conflict.Message = fmt.Sprintf("Double-booked with %q", summary)

	case te.event.IsRecurring():
		conflict.Type = domain.ConflictRecurring
		if conflict.OverlapDuration > recurringErrorThresholdMinutes {
			conflict.Severity = domain.SeverityError
		} else {
			conflict.Severity = domain.SeverityWarning
		}
		conflict.Message = fmt.Sprintf("Overlaps recurring event %q by %d minutes", summary, conflict.OverlapDuration)

	default:
		conflict.Type = domain.ConflictDirectOverlap
		conflict.Severity = domain.SeverityError
		conflict.Message = fmt.Sprintf("Overlaps %q by %d minutes", summary, conflict.OverlapDuration)
	}

	return conflict
}

// overallSeverity aggregates per-conflict severities: error dominates, then
// warning, and none without conflicts.
func overallSeverity(conflicts []*domain.EventConflict) domain.ConflictSeverity {
	if len(conflicts) == 0 {
		return domain.SeverityNone
	}
	for _, c := range conflicts {
		if c.Severity == domain.SeverityError {
			return domain.SeverityError
		}
	}
	return domain.SeverityWarning
}

// suggestTimes offers up to three alternative slots of the proposed length:
// one ending shortly before the first conflict, one starting shortly after
// the last conflict's overlap, and one clear of every conflicting event.
// Candidates that collide with a conflicting event are discarded.
func suggestTimes(proposed domain.TimeInterval, conflicts []*domain.EventConflict, bufferMinutes int) []*domain.SuggestedTime {
	duration := proposed.End.Sub(proposed.Start)
	margin := suggestionMarginMinutes * time.Minute

	intervals := make([]domain.TimeInterval, 0, len(conflicts))
	latestEnd := conflicts[0].OverlapEnd
	for _, c := range conflicts {
		iv, err := domain.EventInterval(c.ConflictingEvent.Start, c.ConflictingEvent.End, "")
		if err != nil {
			continue
		}
		intervals = append(intervals, iv)
		if iv.End.After(latestEnd) {
			latestEnd = iv.End
		}
	}

	free := func(slot domain.TimeInterval) bool {
		for _, iv := range intervals {
			if slot.Overlaps(iv, bufferMinutes) {
				return false
			}
		}
		return true
	}

	var suggestions []*domain.SuggestedTime
	add := func(start time.Time) {
		if len(suggestions) >= maxSuggestions {
			return
		}
		slot := domain.TimeInterval{Start: start, End: start.Add(duration)}
		if !free(slot) {
			return
		}
		for _, existing := range suggestions {
			if existing.Start.Equal(slot.Start) {
				return
			}
		}
		suggestions = append(suggestions, &domain.SuggestedTime{Start: slot.Start, End: slot.End})
	}

	// Before the first conflict's overlap.
	add(conflicts[0].OverlapStart.Add(-margin).Add(-duration))
	// After the last conflict's overlap.
	add(conflicts[len(conflicts)-1].OverlapEnd.Add(margin))
	// Past every conflicting event entirely.
	add(latestEnd.Add(margin).Add(time.Duration(bufferMinutes) * time.Minute))

	return suggestions
}

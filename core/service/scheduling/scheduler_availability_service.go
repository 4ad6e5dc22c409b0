package scheduling

import (
	"context"
	"sort"
	"sync"
	"time"

	"scheduler_server/core/domain"
	"scheduler_server/core/port/in"
	"scheduler_server/core/port/out"
	"scheduler_server/pkg/apperr"

	"github.com/rs/zerolog"
)

const (
	// Default result limits, overridable through Options.
	defaultSlotLimit = 10
	maxSlotLimit     = 50

	// Default step between candidate slots, clamped to the requested
	// duration when the duration is shorter.
	slotStepMinutes = 30
)

// AvailabilityService is the availability finder. It intersects every
// required participant's working hours per day, generates fixed-length
// candidate slots inside the mutual windows, rejects busy ones with the same
// overlap primitive the conflict engine uses, and ranks the survivors.
type AvailabilityService struct {
	reader out.CalendarReaderPort
	opts   Options
	log    zerolog.Logger
}

// NewAvailabilityService creates the availability finder.
func NewAvailabilityService(reader out.CalendarReaderPort, log zerolog.Logger, opts Options) *AvailabilityService {
	return &AvailabilityService{
		reader: reader,
		opts:   opts.withDefaults(),
		log:    log.With().Str("component", "availability_service").Logger(),
	}
}

// FindAvailability enumerates, scores and ranks mutually available slots.
// Malformed requests fail synchronously before any I/O; a failed free/busy
// fetch for one participant degrades to "no data" for that participant.
func (s *AvailabilityService) FindAvailability(ctx context.Context, req *in.AvailabilityRequest) (*in.AvailabilityResponse, error) {
	if req == nil {
		return nil, apperr.BadRequest("missing request body")
	}
	if len(req.Participants) == 0 {
		return nil, apperr.NoParticipants()
	}
	if req.Duration <= 0 {
		return nil, apperr.InvalidDuration(req.Duration)
	}
	if !req.DateRange.Start.Before(req.DateRange.End) {
		return nil, apperr.InvalidRange("dateRange start must be before dateRange end")
	}

	bufferMinutes := req.BufferMinutes
	if bufferMinutes <= 0 {
		bufferMinutes = s.opts.DefaultBufferMinutes
	}
	limit := req.Limit
	if limit <= 0 {
		limit = s.opts.DefaultSlotLimit
	}
	if limit > s.opts.MaxSlotLimit {
		limit = s.opts.MaxSlotLimit
	}

	busyByParticipant := s.fetchBusyPeriods(ctx, req.Participants, req.DateRange, bufferMinutes)

	sc := scoreContext{
		prefs:      req.Preferences,
		rangeStart: req.DateRange.Start,
		rangeEnd:   req.DateRange.End,
		displayLoc: displayLocation(req.Participants),
	}

	duration := time.Duration(req.Duration) * time.Minute
	step := time.Duration(s.opts.SlotStepMinutes) * time.Minute
	if duration < step {
		step = duration
	}

	searchRange := domain.TimeInterval{Start: req.DateRange.Start, End: req.DateRange.End}
	var slots []*domain.AvailableSlot

	// Walk the range one calendar day at a time. Each participant's window
	// is computed on their own wall clock, so a single date can map to very
	// different absolute windows across timezones. Iterate one day past each
	// edge of the range: a local date far from UTC resolves to an absolute
	// window up to a day away from its UTC-midnight tuple, and windows are
	// clipped to the range below anyway.
	startDay := req.DateRange.Start.UTC().Truncate(24*time.Hour).AddDate(0, 0, -1)
	endDay := req.DateRange.End.UTC().Truncate(24*time.Hour).AddDate(0, 0, 1)
	for day := startDay; !day.After(endDay); day = day.AddDate(0, 0, 1) {
		year, month, dayOfMonth := day.Date()

		window, ok := mutualDayWindow(req.Participants, year, month, dayOfMonth)
		if !ok {
			continue
		}
		window, ok = window.Intersection(searchRange)
		if !ok {
			continue
		}

		for t := window.Start; ; t = t.Add(step) {
			slot := domain.TimeInterval{Start: t, End: t.Add(duration)}
			if slot.End.After(window.End) {
				break
			}
			if !s.slotFree(slot, req.Participants, busyByParticipant, bufferMinutes) {
				continue
			}

			sc.window = window
			score, breakdown := scoreSlot(slot, sc)
			if req.Preferences != nil && req.Preferences.MinQualityScore != nil && score < *req.Preferences.MinQualityScore {
				continue
			}

			slots = append(slots, &domain.AvailableSlot{
				Start:          slot.Start,
				End:            slot.End,
				Score:          score,
				ScoreBreakdown: breakdown,
				LocalTimes:     projectLocalTimes(slot, req.Participants),
			})
		}
	}

	sort.SliceStable(slots, func(i, j int) bool {
		if slots[i].Score != slots[j].Score {
			return slots[i].Score > slots[j].Score
		}
		return slots[i].Start.Before(slots[j].Start)
	})
	if len(slots) > limit {
		slots = slots[:limit]
	}
	if slots == nil {
		slots = []*domain.AvailableSlot{}
	}

	s.log.Debug().
		Int("participants", len(req.Participants)).
		Int("duration_min", req.Duration).
		Int("slots", len(slots)).
		Msg("availability search complete")

	return &in.AvailabilityResponse{
		Slots:            slots,
		SearchedRange:    req.DateRange,
		ParticipantCount: len(req.Participants),
		RequestDuration:  req.Duration,
	}, nil
}

// participantKey identifies one participant entry. A user can appear more
// than once with different calendars, so the user ID alone is not unique.
func participantKey(p *domain.Participant) string {
	return p.UserID.String() + "/" + p.CalendarID
}

// fetchBusyPeriods pulls free/busy data for every participant concurrently
// with bounded parallelism. A failed fetch is logged and that participant
// contributes no busy periods; partial availability beats a hard failure.
func (s *AvailabilityService) fetchBusyPeriods(ctx context.Context, participants []*domain.Participant, dateRange in.DateRange, bufferMinutes int) map[string][]domain.TimeInterval {
	type fetchResult struct {
		key  string
		busy []domain.TimeInterval
		err  error
	}

	buffer := time.Duration(bufferMinutes) * time.Minute
	results := make(chan fetchResult, len(participants))
	sem := make(chan struct{}, s.opts.MaxConcurrentFetches)
	var wg sync.WaitGroup

	for _, p := range participants {
		wg.Add(1)
		go func(p *domain.Participant) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			res, err := s.reader.GetFreeBusy(ctx, p.UserID, &out.FreeBusyQuery{
				CalendarIDs: []string{p.CalendarID},
				TimeMin:     dateRange.Start.Add(-buffer),
				TimeMax:     dateRange.End.Add(buffer),
			})
			if err != nil {
				results <- fetchResult{key: participantKey(p), err: err}
				return
			}

			var busy []domain.TimeInterval
			for _, periods := range res.Calendars {
				for _, period := range periods {
					if !period.Start.Before(period.End) {
						continue
					}
					busy = append(busy, domain.TimeInterval{Start: period.Start, End: period.End})
				}
			}
			results <- fetchResult{key: participantKey(p), busy: busy}
		}(p)
	}

	wg.Wait()
	close(results)

	busyByParticipant := make(map[string][]domain.TimeInterval, len(participants))
	for r := range results {
		if r.err != nil {
			s.log.Warn().
				Err(r.err).
				Str("participant", r.key).
				Msg("free/busy fetch failed, treating participant as having no data")
			continue
		}
		busyByParticipant[r.key] = append(busyByParticipant[r.key], r.busy...)
	}
	return busyByParticipant
}

// slotFree reports whether the slot avoids every required participant's busy
// periods, buffer included.
func (s *AvailabilityService) slotFree(slot domain.TimeInterval, participants []*domain.Participant, busyByParticipant map[string][]domain.TimeInterval, bufferMinutes int) bool {
	for _, p := range participants {
		if !p.Required() {
			continue
		}
		for _, busy := range busyByParticipant[participantKey(p)] {
			if slot.Overlaps(busy, bufferMinutes) {
				return false
			}
		}
	}
	return true
}

// displayLocation picks the timezone used for part-of-day and weekday
// affinity: the first required participant with working hours, else UTC.
func displayLocation(participants []*domain.Participant) *time.Location {
	for _, p := range participants {
		if !p.Required() || p.WorkingHours == nil || p.WorkingHours.Timezone == "" {
			continue
		}
		if loc, err := time.LoadLocation(p.WorkingHours.Timezone); err == nil {
			return loc
		}
	}
	return time.UTC
}

// projectLocalTimes renders the slot in each participant's own timezone for
// display.
func projectLocalTimes(slot domain.TimeInterval, participants []*domain.Participant) map[string]domain.LocalTime {
	projections := make(map[string]domain.LocalTime, len(participants))
	for _, p := range participants {
		tz := p.Timezone()
		loc, err := time.LoadLocation(tz)
		if err != nil {
			loc = time.UTC
			tz = "UTC"
		}
		projections[p.UserID.String()] = domain.LocalTime{
			Start:    slot.Start.In(loc).Format(time.RFC3339),
			End:      slot.End.In(loc).Format(time.RFC3339),
			Timezone: tz,
		}
	}
	return projections
}

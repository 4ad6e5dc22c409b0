package scheduling

import (
	"scheduler_server/core/port/in"
	"scheduler_server/core/port/out"

	"github.com/rs/zerolog"
)

// Options carries the operator-tunable knobs shared by both engines. Zero
// values fall back to the package defaults, so tests and callers without a
// config can pass Options{}.
type Options struct {
	// Applied when a request carries no positive buffer of its own.
	DefaultBufferMinutes int

	SlotStepMinutes  int
	DefaultSlotLimit int
	MaxSlotLimit     int

	MaxConcurrentFetches int
}

func (o Options) withDefaults() Options {
	if o.DefaultBufferMinutes < 0 {
		o.DefaultBufferMinutes = 0
	}
	if o.SlotStepMinutes <= 0 {
		o.SlotStepMinutes = slotStepMinutes
	}
	if o.DefaultSlotLimit <= 0 {
		o.DefaultSlotLimit = defaultSlotLimit
	}
	if o.MaxSlotLimit <= 0 {
		o.MaxSlotLimit = maxSlotLimit
	}
	if o.MaxConcurrentFetches <= 0 {
		o.MaxConcurrentFetches = maxConcurrentFetches
	}
	return o
}

// Service bundles the conflict detection engine and the availability finder
// behind the inbound scheduling port.
type Service struct {
	*ConflictService
	*AvailabilityService
}

// NewService creates both engines on top of a shared calendar reader.
func NewService(reader out.CalendarReaderPort, log zerolog.Logger, opts Options) *Service {
	return &Service{
		ConflictService:     NewConflictService(reader, log, opts),
		AvailabilityService: NewAvailabilityService(reader, log, opts),
	}
}

var _ in.SchedulingService = (*Service)(nil)

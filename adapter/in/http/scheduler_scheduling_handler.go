package http

import (
	"time"

	"scheduler_server/core/port/in"
	"scheduler_server/pkg/metrics"

	"github.com/gofiber/fiber/v2"
)

type SchedulingHandler struct {
	schedulingService in.SchedulingService
}

func NewSchedulingHandler(schedulingService in.SchedulingService) *SchedulingHandler {
	return &SchedulingHandler{schedulingService: schedulingService}
}

func (h *SchedulingHandler) Register(app fiber.Router) {
	sched := app.Group("/scheduling")
	sched.Post("/conflicts", h.CheckConflicts)
	sched.Post("/availability", h.FindAvailability)
}

// CheckConflicts checks a proposed time against the requester's calendars.
func (h *SchedulingHandler) CheckConflicts(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return ErrorResponse(c, 401, "unauthorized")
	}

	var req in.ConflictCheckRequest
	if err := c.BodyParser(&req); err != nil {
		return ErrorResponse(c, 400, "invalid request body")
	}

	if req.Start.IsZero() || req.End.IsZero() {
		return ErrorResponse(c, 400, "start and end are required")
	}

	started := time.Now()
	result, err := h.schedulingService.CheckConflicts(c.Context(), userID, &req)
	if err != nil {
		return AppErrorResponse(c, err)
	}
	metrics.RecordLatency("conflict_check", time.Since(started))

	return SuccessResponse(c, result)
}

// FindAvailability searches for open slots across all participants.
func (h *SchedulingHandler) FindAvailability(c *fiber.Ctx) error {
	if _, err := GetUserID(c); err != nil {
		return ErrorResponse(c, 401, "unauthorized")
	}

	var req in.AvailabilityRequest
	if err := c.BodyParser(&req); err != nil {
		return ErrorResponse(c, 400, "invalid request body")
	}

	started := time.Now()
	result, err := h.schedulingService.FindAvailability(c.Context(), &req)
	if err != nil {
		return AppErrorResponse(c, err)
	}
	metrics.RecordLatency("availability_search", time.Since(started))

	return SuccessResponse(c, result)
}

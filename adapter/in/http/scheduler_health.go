package http

import (
	"time"

	"scheduler_server/pkg/metrics"
	"scheduler_server/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type HealthHandler struct {
	startedAt time.Time
}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{startedAt: time.Now()}
}

func (h *HealthHandler) Register(app *fiber.App) {
	app.Get("/health", h.Health)
	app.Get("/health/metrics", h.Metrics)
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return response.OK(c, fiber.Map{
		"status":    "ok",
		"uptime":    time.Since(h.startedAt).String(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Metrics exposes per-operation latency percentiles.
func (h *HealthHandler) Metrics(c *fiber.Ctx) error {
	stats := metrics.AllLatencyStats()

	operations := make(map[string]map[string]any, len(stats))
	for name, s := range stats {
		operations[name] = s.ToMap()
	}

	return response.OK(c, fiber.Map{
		"operations": operations,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}

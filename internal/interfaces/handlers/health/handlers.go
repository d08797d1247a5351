package health

import (
	healthsvc "myinvestments-backend/internal/application/health"
	"myinvestments-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Handlers holds dependencies for health endpoints.
type Handlers struct {
	Service *healthsvc.Service
}

// Reset clears health stats. Mounted behind middleware.RequireAdminKey.
func (h *Handlers) Reset(c *fiber.Ctx) error {
	if err := h.Service.Reset(c.Context()); err != nil {
		return response.Error(c, err.Error(), fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Stats reset successfully", fiber.Map{"success": true}, nil)
}

// JSON returns health data with the service name.
func (h *Handlers) JSON(c *fiber.Ctx) error {
	result := h.Service.Collect(c.Context())
	return c.JSON(fiber.Map{
		"service":      "myinvestments-api",
		"status":       result.Status,
		"runtime":      result.Runtime,
		"traffic":      result.Traffic,
		"dependencies": result.Dependencies,
	})
}

// Errors returns the last 50 failed requests.
func (h *Handlers) Errors(c *fiber.Ctx) error {
	entries, err := h.Service.RecentErrors(c.Context())
	if err != nil {
		log.Warn().Err(err).Msg("health: reading error log failed")
		return c.Status(fiber.StatusInternalServerError).JSON([]interface{}{})
	}
	return c.JSON(entries)
}

// Dashboard returns the HTML status page.
func (h *Handlers) Dashboard(c *fiber.Ctx) error {
	html, err := healthsvc.RenderDashboardHTML(h.Service.Collect(c.Context()))
	if err != nil {
		return err
	}
	c.Set("Content-Type", "text/html; charset=utf-8")
	return c.SendString(html)
}

package portfolio

import (
	portfoliosvc "myinvestments-backend/internal/application/portfolio"
	"myinvestments-backend/internal/middleware"
	"myinvestments-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *portfoliosvc.Service
}

// Summary GET /api/v1/portfolio/summary
func (h *Handlers) Summary(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	s, err := h.Service.Summary(c.Context(), userID)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Portfolio summary", s, nil)
}

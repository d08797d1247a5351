package dividends

import (
	dividendsvc "myinvestments-backend/internal/application/dividends"
	"myinvestments-backend/internal/application/portfolio"
	"myinvestments-backend/internal/middleware"
	"myinvestments-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Handlers holds dependencies for dividend endpoints.
type Handlers struct {
	Service   *dividendsvc.Service
	Portfolio *portfolio.Service
}

type RecordRequest struct {
	HoldingID     string              `json:"holding_id"`
	Date          string              `json:"date"`
	GrossAmount   decimal.NullDecimal `json:"gross_amount"`
	TaxesWithheld decimal.NullDecimal `json:"taxes_withheld"`
	Notes         string              `json:"notes"`
}

type UpdateRequest struct {
	Date  *string `json:"date"`
	Notes *string `json:"notes"`
}

// List GET /api/v1/dividends
func (h *Handlers) List(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	ds, err := h.Service.List(c.Context(), userID)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Dividends retrieved", ds, fiber.Map{"count": len(ds)})
}

// Record POST /api/v1/dividends
func (h *Handlers) Record(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	var req RecordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	holdingID, _ := uuid.Parse(req.HoldingID)
	d, err := h.Service.Record(c.Context(), userID, dividendsvc.RecordInput{
		HoldingID:     holdingID,
		Date:          req.Date,
		Gross:         req.GrossAmount,
		TaxesWithheld: req.TaxesWithheld,
		Notes:         req.Notes,
	})
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.SuccessCreated(c, "Dividend recorded", d, nil)
}

// Stats GET /api/v1/dividends/stats
func (h *Handlers) Stats(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	stats, err := h.Portfolio.DividendStats(c.Context(), userID)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Dividend statistics", stats, nil)
}

// Update PUT /api/v1/dividends/:id
func (h *Handlers) Update(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid dividend id", fiber.StatusBadRequest, nil)
	}
	var req UpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	d, err := h.Service.Update(c.Context(), userID, id, dividendsvc.UpdateInput(req))
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Dividend updated", d, nil)
}

// Delete DELETE /api/v1/dividends/:id
func (h *Handlers) Delete(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid dividend id", fiber.StatusBadRequest, nil)
	}
	if err := h.Service.Remove(c.Context(), userID, id); err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Dividend deleted", fiber.Map{"dividend_id": id}, nil)
}

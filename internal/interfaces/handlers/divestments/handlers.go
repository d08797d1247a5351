package divestments

import (
	divestmentsvc "myinvestments-backend/internal/application/divestments"
	"myinvestments-backend/internal/application/portfolio"
	"myinvestments-backend/internal/middleware"
	"myinvestments-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Handlers holds dependencies for divestment endpoints.
type Handlers struct {
	Service   *divestmentsvc.Service
	Portfolio *portfolio.Service
}

type QuoteRequest struct {
	HoldingID string              `json:"holding_id"`
	Kind      string              `json:"kind"`
	Amount    decimal.NullDecimal `json:"amount"`
	Date      string              `json:"date"`
	Reason    string              `json:"reason"`
	Notes     string              `json:"notes"`
}

type UpdateRequest struct {
	Date   *string `json:"date"`
	Reason *string `json:"reason"`
	Notes  *string `json:"notes"`
}

// Quote POST /api/v1/divestments/quote: price a divestment without touching the ledger.
func (h *Handlers) Quote(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	var req QuoteRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	// An unparsable id becomes uuid.Nil, which the service reports as missing.
	holdingID, _ := uuid.Parse(req.HoldingID)
	q, err := h.Service.Quote(c.Context(), userID, divestmentsvc.QuoteInput{
		HoldingID: holdingID,
		Kind:      req.Kind,
		Amount:    req.Amount,
		Date:      req.Date,
		Reason:    req.Reason,
		Notes:     req.Notes,
	})
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Divestment quoted", q, nil)
}

// Pending GET /api/v1/divestments/quote
func (h *Handlers) Pending(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	q, err := h.Service.Pending(c.Context(), userID)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Pending divestment", q, nil)
}

// Discard DELETE /api/v1/divestments/quote
func (h *Handlers) Discard(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	if err := h.Service.Discard(c.Context(), userID); err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Pending divestment discarded", nil, nil)
}

// Confirm POST /api/v1/divestments/confirm
func (h *Handlers) Confirm(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	rec, err := h.Service.Confirm(c.Context(), userID)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.SuccessCreated(c, "Divestment confirmed", rec, nil)
}

// List GET /api/v1/divestments
func (h *Handlers) List(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	ds, err := h.Service.List(c.Context(), userID)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Divestments retrieved", ds, fiber.Map{"count": len(ds)})
}

// Stats GET /api/v1/divestments/stats
func (h *Handlers) Stats(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	stats, err := h.Portfolio.DivestmentStats(c.Context(), userID)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Divestment statistics", stats, nil)
}

// Update PUT /api/v1/divestments/:id: date, reason and notes only.
func (h *Handlers) Update(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid divestment id", fiber.StatusBadRequest, nil)
	}
	var req UpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	d, err := h.Service.Update(c.Context(), userID, id, divestmentsvc.UpdateInput(req))
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Divestment updated", d, nil)
}

// Delete DELETE /api/v1/divestments/:id: removes the record; the holding is not restored.
func (h *Handlers) Delete(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid divestment id", fiber.StatusBadRequest, nil)
	}
	if err := h.Service.Delete(c.Context(), userID, id); err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Divestment deleted", fiber.Map{"divestment_id": id}, nil)
}

package holdings

import (
	"myinvestments-backend/internal/application/divestments"
	"myinvestments-backend/internal/application/dividends"
	holdingsvc "myinvestments-backend/internal/application/holdings"
	"myinvestments-backend/internal/domain"
	"myinvestments-backend/internal/middleware"
	"myinvestments-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Handlers holds dependencies for holding endpoints.
type Handlers struct {
	Service     *holdingsvc.Service
	Dividends   *dividends.Service
	Divestments *divestments.Service
}

type CreateRequest struct {
	Name                 string              `json:"name"`
	Category             string              `json:"category"`
	Date                 string              `json:"date"`
	Amount               decimal.NullDecimal `json:"amount"`
	CurrentValue         decimal.NullDecimal `json:"current_value"`
	Quantity             decimal.NullDecimal `json:"quantity"`
	Performance          decimal.NullDecimal `json:"performance"`
	IsExistingInvestment bool                `json:"is_existing_investment"`
	Notes                string              `json:"notes"`
}

type UpdateRequest struct {
	Name     *string `json:"name"`
	Category *string `json:"category"`
	Notes    *string `json:"notes"`
	Date     *string `json:"date"`
}

type RevalueRequest struct {
	Value decimal.NullDecimal `json:"value"`
	Date  string              `json:"date"`
	Note  string              `json:"note"`
}

func holdingID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params("id"))
	return id, err == nil
}

// List GET /api/v1/holdings
func (h *Handlers) List(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	hs, err := h.Service.List(c.Context(), userID)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Holdings retrieved", domain.NewHoldingViews(hs), fiber.Map{"count": len(hs)})
}

// Create POST /api/v1/holdings
func (h *Handlers) Create(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	var req CreateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	holding, err := h.Service.Create(c.Context(), userID, holdingsvc.CreateInput{
		Name:                 req.Name,
		Category:             req.Category,
		Date:                 req.Date,
		Amount:               req.Amount,
		CurrentValue:         req.CurrentValue,
		Quantity:             req.Quantity,
		Performance:          req.Performance,
		IsExistingInvestment: req.IsExistingInvestment,
		Notes:                req.Notes,
	})
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.SuccessCreated(c, "Holding created", domain.NewHoldingView(*holding), nil)
}

// Get GET /api/v1/holdings/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	id, ok := holdingID(c)
	if !ok {
		return response.Error(c, "Invalid holding id", fiber.StatusBadRequest, nil)
	}
	holding, err := h.Service.Get(c.Context(), userID, id)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Holding retrieved", domain.NewHoldingView(*holding), nil)
}

// Update PUT /api/v1/holdings/:id: descriptive fields only.
func (h *Handlers) Update(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	id, ok := holdingID(c)
	if !ok {
		return response.Error(c, "Invalid holding id", fiber.StatusBadRequest, nil)
	}
	var req UpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	holding, err := h.Service.Update(c.Context(), userID, id, holdingsvc.UpdateInput(req))
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Holding updated", domain.NewHoldingView(*holding), nil)
}

// Delete DELETE /api/v1/holdings/:id: also removes the holding's dividends and divestments.
func (h *Handlers) Delete(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	id, ok := holdingID(c)
	if !ok {
		return response.Error(c, "Invalid holding id", fiber.StatusBadRequest, nil)
	}
	if err := h.Service.Remove(c.Context(), userID, id); err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Holding deleted", fiber.Map{"holding_id": id}, nil)
}

// Revalue POST /api/v1/holdings/:id/revalue
func (h *Handlers) Revalue(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	id, ok := holdingID(c)
	if !ok {
		return response.Error(c, "Invalid holding id", fiber.StatusBadRequest, nil)
	}
	var req RevalueRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	holding, err := h.Service.Revalue(c.Context(), userID, id, holdingsvc.RevalueInput(req))
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Holding revalued", domain.NewHoldingView(*holding), nil)
}

// EligibleForDividends GET /api/v1/holdings/eligible-for-dividends
func (h *Handlers) EligibleForDividends(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	seq, err := h.Dividends.EligibleHoldings(c.Context(), userID)
	if err != nil {
		return response.DomainError(c, err)
	}
	views := make([]domain.HoldingView, 0)
	for holding := range seq {
		views = append(views, domain.NewHoldingView(holding))
	}
	return response.Success(c, "Eligible holdings retrieved", views, fiber.Map{"count": len(views)})
}

// ListDividends GET /api/v1/holdings/:id/dividends
func (h *Handlers) ListDividends(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	id, ok := holdingID(c)
	if !ok {
		return response.Error(c, "Invalid holding id", fiber.StatusBadRequest, nil)
	}
	ds, err := h.Dividends.ListByHolding(c.Context(), userID, id)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Dividends retrieved", ds, fiber.Map{"count": len(ds)})
}

// ListDivestments GET /api/v1/holdings/:id/divestments
func (h *Handlers) ListDivestments(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	id, ok := holdingID(c)
	if !ok {
		return response.Error(c, "Invalid holding id", fiber.StatusBadRequest, nil)
	}
	ds, err := h.Divestments.ListByHolding(c.Context(), userID, id)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Divestments retrieved", ds, fiber.Map{"count": len(ds)})
}

package backup

import (
	"fmt"

	backupsvc "myinvestments-backend/internal/application/backup"
	"myinvestments-backend/internal/middleware"
	"myinvestments-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *backupsvc.Service
}

// Export GET /api/v1/backup/export: the document is sent bare so it can be re-imported as is.
func (h *Handlers) Export(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	doc, err := h.Service.Export(c.Context(), userID)
	if err != nil {
		return response.DomainError(c, err)
	}
	c.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="myinvestments-backup-%s.json"`, doc.ExportDate.Format("2006-01-02")))
	return c.JSON(doc)
}

// Import POST /api/v1/backup/import: replaces every holding, divestment and dividend of the user.
func (h *Handlers) Import(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	var doc backupsvc.Document
	if err := c.BodyParser(&doc); err != nil {
		return response.Error(c, "Invalid backup file", fiber.StatusBadRequest, nil)
	}
	res, err := h.Service.Import(c.Context(), userID, &doc)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Backup imported", res, nil)
}

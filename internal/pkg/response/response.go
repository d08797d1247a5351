package response

import (
	"errors"

	"myinvestments-backend/internal/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// SuccessBody is the standardized success JSON shape.
type SuccessBody struct {
	Status   string      `json:"status"`
	Message  string      `json:"message"`
	Data     interface{} `json:"data"`
	Metadata interface{} `json:"metadata,omitempty"`
}

// ErrorBody is the standardized error JSON shape.
type ErrorBody struct {
	Status string      `json:"status"`
	Error  ErrorDetail `json:"error"`
}

// ErrorDetail is the nested error object.
type ErrorDetail struct {
	Message    string      `json:"message"`
	StatusCode int         `json:"statusCode"`
	Details    interface{} `json:"details,omitempty"`
}

const statusSuccess = "success"
const statusError = "error"

// Success sends a 200 OK response with the standard success format.
func Success(c *fiber.Ctx, message string, data interface{}, metadata interface{}) error {
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	return c.Status(fiber.StatusOK).JSON(SuccessBody{
		Status:   statusSuccess,
		Message:  message,
		Data:     data,
		Metadata: metadata,
	})
}

// SuccessCreated sends a 201 Created response with the standard success format.
func SuccessCreated(c *fiber.Ctx, message string, data interface{}, metadata interface{}) error {
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	return c.Status(fiber.StatusCreated).JSON(SuccessBody{
		Status:   statusSuccess,
		Message:  message,
		Data:     data,
		Metadata: metadata,
	})
}

// Error sends a response with the standard error format.
func Error(c *fiber.Ctx, message string, statusCode int, details interface{}) error {
	if details == nil {
		details = map[string]interface{}{}
	}
	return c.Status(statusCode).JSON(ErrorBody{
		Status: statusError,
		Error: ErrorDetail{
			Message:    message,
			StatusCode: statusCode,
			Details:    details,
		},
	})
}

// Unauthorized sends 401 with the same shape as other errors (status "error", error.message).
// Use this for auth middleware so all errors are consistent.
func Unauthorized(c *fiber.Ctx, message string) error {
	return Error(c, message, fiber.StatusUnauthorized, nil)
}

// DomainError maps the ledger's error taxonomy onto HTTP statuses. Anything outside the
// taxonomy is logged and reported as a bare 500.
func DomainError(c *fiber.Ctx, err error) error {
	var (
		validationErr *domain.ValidationError
		notFoundErr   *domain.NotFoundError
		amountErr     *domain.InvalidAmountError
	)
	switch {
	case errors.As(err, &validationErr):
		return Error(c, domain.ErrValidationFailed.Error(), fiber.StatusBadRequest, fiber.Map{"reasons": validationErr.Reasons})
	case errors.As(err, &notFoundErr):
		return Error(c, notFoundErr.Message(), fiber.StatusNotFound, nil)
	case errors.As(err, &amountErr):
		return Error(c, amountErr.Reason, fiber.StatusUnprocessableEntity, nil)
	case errors.Is(err, domain.ErrIneligibleHolding):
		return Error(c, err.Error(), fiber.StatusUnprocessableEntity, nil)
	case errors.Is(err, domain.ErrDivisionDegenerate):
		return Error(c, err.Error(), fiber.StatusBadRequest, nil)
	case errors.Is(err, domain.ErrNoPendingQuote):
		return Error(c, err.Error(), fiber.StatusConflict, nil)
	}
	log.Error().Err(err).Str("path", c.Path()).Msg("unhandled service error")
	return Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
}

package api

import (
	"errors"

	common_models "litterbugs/internal/common/models"

	"github.com/gofiber/fiber/v2"
)

// StatusFor maps the failure taxonomy onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, common_models.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, common_models.ErrPermission):
		return fiber.StatusForbidden
	case errors.Is(err, common_models.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, common_models.ErrUpload):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// Error writes err as {"error": "..."} with its mapped status.
func Error(c *fiber.Ctx, err error) error {
	return c.Status(StatusFor(err)).JSON(fiber.Map{"error": err.Error()})
}

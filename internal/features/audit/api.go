package audit

import (
	"litterbugs/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type AuditApi struct {
	controller *AuditController
}

func NewAuditApi(controller *AuditController) *AuditApi {
	return &AuditApi{controller: controller}
}

func (h *AuditApi) Setup(app *fiber.App) {
	audit := app.Group("/api/audit", middleware.IdentityMiddleware(), middleware.RequireIdentity())

	audit.Get("/", h.controller.ListLogs)
}

package report

import (
	"litterbugs/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ReportApi struct {
	ReportController *ReportController
}

func NewReportApi(reportController *ReportController) *ReportApi {
	return &ReportApi{
		ReportController: reportController,
	}
}

func (api *ReportApi) Setup(app *fiber.App) {
	group := app.Group("/api/reports", middleware.IdentityMiddleware())

	group.Get("/", api.ReportController.List)
	group.Get("/export", api.ReportController.Export)
	group.Post("/", api.ReportController.Create)
	group.Put("/:id", api.ReportController.Update)
	group.Delete("/:id", api.ReportController.Delete)
}

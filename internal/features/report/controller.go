package report

import (
	"fmt"
	"time"

	"litterbugs/internal/common/api"
	common_models "litterbugs/internal/common/models"
	"litterbugs/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

type ReportController struct {
	ReportService ReportService
}

func NewReportController(reportService ReportService) *ReportController {
	return &ReportController{ReportService: reportService}
}

// List godoc
// @Summary List unexpired reports
// @Tags reports
// @Produce json
// @Param now query string false "Reference time (RFC3339)"
// @Success 200 {array} common_models.Report
// @Router /api/reports [get]
func (ctrl *ReportController) List(c *fiber.Ctx) error {
	now, err := parseNow(c.Query("now"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid now parameter"})
	}

	reports, err := ctrl.ReportService.ListUnexpired(c.UserContext(), now)
	if err != nil {
		return api.Error(c, err)
	}
	return c.JSON(reports)
}

// Create godoc
// @Summary Create a report
// @Tags reports
// @Accept json
// @Produce json
// @Param report body common_models.CreatePayload true "Report"
// @Success 201 {object} common_models.Report
// @Router /api/reports [post]
func (ctrl *ReportController) Create(c *fiber.Ctx) error {
	var payload common_models.CreatePayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	report, err := ctrl.ReportService.CreateReport(c.UserContext(), middleware.CallerID(c), payload)
	if err != nil {
		return api.Error(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(report)
}

// Update godoc
// @Summary Update a report's fields or attach photos
// @Tags reports
// @Accept json
// @Produce json
// @Param id path string true "Report ID"
// @Param update body common_models.UpdatePayload true "Update"
// @Success 200 {object} common_models.Report
// @Router /api/reports/{id} [put]
func (ctrl *ReportController) Update(c *fiber.Ctx) error {
	id := utils.CopyString(c.Params("id"))
	var payload common_models.UpdatePayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	report, err := ctrl.ReportService.UpdateReport(c.UserContext(), middleware.CallerID(c), id, payload)
	if err != nil {
		return api.Error(c, err)
	}
	return c.JSON(report)
}

// Delete godoc
// @Summary Delete a report
// @Tags reports
// @Param id path string true "Report ID"
// @Success 204
// @Router /api/reports/{id} [delete]
func (ctrl *ReportController) Delete(c *fiber.Ctx) error {
	id := utils.CopyString(c.Params("id"))
	if err := ctrl.ReportService.DeleteReport(c.UserContext(), middleware.CallerID(c), id); err != nil {
		return api.Error(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Export godoc
// @Summary Export unexpired reports as a spreadsheet
// @Tags reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Router /api/reports/export [get]
func (ctrl *ReportController) Export(c *fiber.Ctx) error {
	now, err := parseNow(c.Query("now"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid now parameter"})
	}

	data, filename, err := ctrl.ReportService.ExportToExcel(c.UserContext(), now)
	if err != nil {
		return api.Error(c, err)
	}

	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	return c.Send(data)
}

func parseNow(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, raw)
}

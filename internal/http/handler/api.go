package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"laporan/internal/model"
	"laporan/internal/service"
)

// reportListResponse is the JSON body of the report list.
type reportListResponse struct {
	Items []model.Report `json:"data"`
	Total int            `json:"total"`
}

// ListReports returns every report as JSON.
//
// @Summary  List reports
// @Tags     reports
// @Produce  json
// @Success  200  {object}  reportListResponse
// @Failure  500  {object}  errorPayload
// @Router   /api/reports [get]
func ListReports(svc service.ReportService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reports, err := svc.List(c.UserContext())
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		if reports == nil {
			reports = []model.Report{}
		}
		return c.JSON(reportListResponse{Items: reports, Total: len(reports)})
	}
}

// GetReport returns a single report as JSON.
//
// @Summary  Get report
// @Tags     reports
// @Produce  json
// @Param    id   path      string  true  "Report ID"
// @Success  200  {object}  model.Report
// @Failure  400  {object}  errorPayload
// @Failure  404  {object}  errorPayload
// @Router   /api/reports/{id} [get]
func GetReport(svc service.ReportService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		r, err := svc.Get(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "report not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(r)
	}
}

package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"laporan/internal/export"
)

// ExportWarningsHeader carries the number of reports exported without their photo.
const ExportWarningsHeader = "X-Export-Warnings"

// ExportReports streams a fully built excel or word document as an attachment.
//
// @Summary  Export reports
// @Tags     reports
// @Produce  application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Produce  application/vnd.openxmlformats-officedocument.wordprocessingml.document
// @Param    format  path  string  true  "excel or word"
// @Success  200
// @Failure  400  {object}  errorPayload
// @Failure  500  {object}  errorPayload
// @Router   /export/{format} [get]
func ExportReports(svc export.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		format, err := export.ParseFormat(c.Params("format"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "UNKNOWN_FORMAT", "unknown export format")
		}

		res, err := svc.Export(c.UserContext(), format)
		if err != nil {
			if errors.Is(err, export.ErrUnknownFormat) {
				return writeError(c, fiber.StatusBadRequest, "UNKNOWN_FORMAT", "unknown export format")
			}
			return writeError(c, fiber.StatusInternalServerError, "EXPORT_FAILED", "export failed")
		}

		c.Set(fiber.HeaderContentType, res.ContentType)
		c.Set(fiber.HeaderContentDisposition, "attachment; filename="+res.Filename)
		c.Set(ExportWarningsHeader, strconv.Itoa(len(res.Warnings)))
		return c.Status(fiber.StatusOK).Send(res.Data)
	}
}

package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"laporan/internal/model"
	"laporan/internal/service"
	"laporan/internal/upload"
)

// Multipart and urlencoded form field names of the report pages.
const (
	fieldPhoto      = "foto"
	fieldSubstation = "gardu"
	fieldFault      = "kerusakan"
	fieldFaultAt    = "waktuKerusakan"
	fieldRepair     = "perbaikan"
	fieldResolvedAt = "selesai"
	fieldStatus     = "status"
	fieldAuthor     = "by"
)

const notFoundText = "Data tidak ditemukan"

// UploadForm renders the report upload page.
func UploadForm() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.Render("form", fiber.Map{
			"Statuses":      model.Statuses,
			"DefaultStatus": model.StatusPending,
		})
	}
}

// CreateReport handles the multipart upload form and redirects to the list.
func CreateReport(svc service.ReportService, loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile(fieldPhoto)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "PHOTO_REQUIRED", "photo is required")
		}

		faultAt, err := model.ParseInput(c.FormValue(fieldFaultAt), loc)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_TIME", "invalid fault time")
		}
		resolvedAt, err := model.ParseInput(c.FormValue(fieldResolvedAt), loc)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_TIME", "invalid resolved time")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		in := model.ReportInput{
			Substation: c.FormValue(fieldSubstation),
			Fault:      c.FormValue(fieldFault),
			Repair:     c.FormValue(fieldRepair),
			FaultAt:    faultAt,
			ResolvedAt: resolvedAt,
			Status:     model.Status(c.FormValue(fieldStatus)),
			Author:     c.FormValue(fieldAuthor),
		}
		photo := service.Photo{Reader: f, Filename: fh.Filename, ContentType: ct, Size: fh.Size}

		if _, err := svc.Create(c.UserContext(), in, photo); err != nil {
			return writeCreateError(c, err)
		}
		return c.Redirect("/laporan")
	}
}

func writeCreateError(c *fiber.Ctx, err error) error {
	var upErr *upload.UploadError
	switch {
	case errors.Is(err, service.ErrPhotoRequired):
		return writeError(c, fiber.StatusBadRequest, "PHOTO_REQUIRED", "photo is required")
	case errors.Is(err, model.ErrInvalidStatus):
		return writeError(c, fiber.StatusBadRequest, "INVALID_STATUS", "invalid status")
	case errors.Is(err, upload.ErrFormatNotAllowed):
		return writeError(c, fiber.StatusBadRequest, "FORMAT_NOT_ALLOWED", "photo format not allowed")
	case errors.As(err, &upErr):
		return writeError(c, fiber.StatusBadGateway, "UPLOAD_FAILED", "photo upload failed")
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// ListReportsPage renders every report as a table.
func ListReportsPage(svc service.ReportService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reports, err := svc.List(c.UserContext())
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.Render("laporan", fiber.Map{"Reports": reports})
	}
}

// EditForm renders the edit page, or a plain-text 404 when the report does not exist.
func EditForm(svc service.ReportService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := svc.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			if errors.Is(err, service.ErrNotFound) || errors.Is(err, service.ErrIDRequired) {
				return c.Status(fiber.StatusNotFound).SendString(notFoundText)
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.Render("edit", fiber.Map{
			"Report":   r,
			"Statuses": model.Statuses,
		})
	}
}

// UpdateReport applies the non-empty form fields and redirects to the list.
// An unknown id redirects as well.
func UpdateReport(svc service.ReportService, loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, err := updateFromForm(c, loc)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_TIME", "invalid time value")
		}

		if _, err := svc.Update(c.UserContext(), c.Params("id"), u); err != nil {
			switch {
			case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrIDRequired):
				return c.Redirect("/laporan")
			case errors.Is(err, model.ErrInvalidStatus):
				return writeError(c, fiber.StatusBadRequest, "INVALID_STATUS", "invalid status")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.Redirect("/laporan")
	}
}

func updateFromForm(c *fiber.Ctx, loc *time.Location) (model.ReportUpdate, error) {
	var u model.ReportUpdate
	text := func(name string) *string {
		if v := c.FormValue(name); v != "" {
			return &v
		}
		return nil
	}
	u.Substation = text(fieldSubstation)
	u.Fault = text(fieldFault)
	u.Repair = text(fieldRepair)
	u.Author = text(fieldAuthor)
	if v := c.FormValue(fieldStatus); v != "" {
		s := model.Status(v)
		u.Status = &s
	}
	for name, dst := range map[string]**time.Time{fieldFaultAt: &u.FaultAt, fieldResolvedAt: &u.ResolvedAt} {
		v := c.FormValue(name)
		if v == "" {
			continue
		}
		t, err := model.ParseInput(v, loc)
		if err != nil {
			return model.ReportUpdate{}, err
		}
		*dst = &t
	}
	return u, nil
}

// DeleteReport removes a report and redirects to the list. Unknown ids are a no-op.
func DeleteReport(svc service.ReportService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := svc.Delete(c.UserContext(), c.Params("id"))
		if err != nil && !errors.Is(err, service.ErrNotFound) && !errors.Is(err, service.ErrIDRequired) {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.Redirect("/laporan")
	}
}

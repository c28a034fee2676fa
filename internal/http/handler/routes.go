package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"laporan/internal/export"
	"laporan/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, pinger Pinger, reportSvc service.ReportService, exportSvc export.Service, loc *time.Location) {
	app.Get("/health", HealthCheck(pinger))
	app.Get("/healthz", LivenessProbe())

	// HTML pages
	app.Get("/", UploadForm())
	app.Post("/upload", CreateReport(reportSvc, loc))
	app.Get("/laporan", ListReportsPage(reportSvc))
	app.Get("/edit/:id", EditForm(reportSvc))
	app.Post("/edit/:id", UpdateReport(reportSvc, loc))
	app.Get("/delete/:id", DeleteReport(reportSvc))

	app.Get("/export/:format", ExportReports(exportSvc))

	api := app.Group("/api")
	api.Get("/reports", ListReports(reportSvc))
	api.Get("/reports/:id", GetReport(reportSvc))
}

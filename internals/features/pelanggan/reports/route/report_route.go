package route

import (
	"github.com/gofiber/fiber/v2"

	"pdam_pelanggan_backend/internals/features/pelanggan/reports/controller"
	"pdam_pelanggan_backend/internals/middlewares"
)

// /api/u/laporan/pelanggan: scope data mengikuti list pelanggan.
func ReportUserRoutes(user fiber.Router, ctl *controller.ReportController) {
	g := user.Group("/laporan/pelanggan", middlewares.ReportRateLimiter())
	g.Get("/csv", ctl.ExportCSV)
	g.Get("/excel", ctl.ExportExcel)
	g.Get("/pdf", ctl.ExportPDF)
	g.Get("/template/:format", ctl.Template)
	g.Post("/import", ctl.Import)
}

package controller

import (
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	pelangganController "pdam_pelanggan_backend/internals/features/pelanggan/pelanggan/controller"
	"pdam_pelanggan_backend/internals/features/pelanggan/reports/service"
	helper "pdam_pelanggan_backend/internals/helpers"
	helperAuth "pdam_pelanggan_backend/internals/helpers/auth"
)

const (
	mimeCSV  = "text/csv; charset=utf-8"
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	mimePDF  = "application/pdf"

	maxImportSize = 10 << 20
)

type ReportController struct {
	Service *service.ReportService
}

func NewReportController(svc *service.ReportService) *ReportController {
	return &ReportController{Service: svc}
}

func attachment(c *fiber.Ctx, mime, name string, body []byte) error {
	c.Set(fiber.HeaderContentType, mime)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+name+`"`)
	return c.Status(fiber.StatusOK).Send(body)
}

func stamped(prefix, ext string) string {
	return prefix + "-" + time.Now().Format("20060102-150405") + "." + ext
}

// GET /api/u/laporan/pelanggan/csv
func (ctl *ReportController) ExportCSV(c *fiber.Ctx) error {
	sess, err := helperAuth.GetSession(c)
	if err != nil {
		return err
	}
	f, err := pelangganController.ParseListQuery(c)
	if err != nil {
		return err
	}
	body, err := ctl.Service.ExportCSV(c.UserContext(), sess, f)
	if err != nil {
		return err
	}
	return attachment(c, mimeCSV, stamped("pelanggan", "csv"), body)
}

// GET /api/u/laporan/pelanggan/excel
func (ctl *ReportController) ExportExcel(c *fiber.Ctx) error {
	sess, err := helperAuth.GetSession(c)
	if err != nil {
		return err
	}
	f, err := pelangganController.ParseListQuery(c)
	if err != nil {
		return err
	}
	body, err := ctl.Service.ExportExcel(c.UserContext(), sess, f)
	if err != nil {
		return err
	}
	return attachment(c, mimeXLSX, stamped("pelanggan", "xlsx"), body)
}

// GET /api/u/laporan/pelanggan/pdf
func (ctl *ReportController) ExportPDF(c *fiber.Ctx) error {
	sess, err := helperAuth.GetSession(c)
	if err != nil {
		return err
	}
	f, err := pelangganController.ParseListQuery(c)
	if err != nil {
		return err
	}
	body, err := ctl.Service.ExportPDF(c.UserContext(), sess, f)
	if err != nil {
		return err
	}
	return attachment(c, mimePDF, stamped("laporan-pelanggan", "pdf"), body)
}

// GET /api/u/laporan/pelanggan/template/:format (csv|xlsx)
func (ctl *ReportController) Template(c *fiber.Ctx) error {
	switch strings.ToLower(c.Params("format")) {
	case service.FormatCSV:
		return attachment(c, mimeCSV, "template-pelanggan.csv", service.TemplateCSV())
	case service.FormatExcel, "excel":
		body, err := service.TemplateExcel()
		if err != nil {
			return helper.ErrUpstream(err, "Gagal membuat template")
		}
		return attachment(c, mimeXLSX, "template-pelanggan.xlsx", body)
	default:
		return helper.ErrValidationField("format", "harus csv atau xlsx")
	}
}

// POST /api/u/laporan/pelanggan/import (multipart: file, user_id opsional untuk admin)
func (ctl *ReportController) Import(c *fiber.Ctx) error {
	sess, err := helperAuth.GetSession(c)
	if err != nil {
		return err
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return helper.ErrValidationField("file", "wajib diisi")
	}
	if fh.Size > maxImportSize {
		return helper.ErrValidationField("file", "maksimal 10MB")
	}
	var format string
	switch strings.ToLower(filepath.Ext(fh.Filename)) {
	case ".csv":
		format = service.FormatCSV
	case ".xlsx":
		format = service.FormatExcel
	default:
		return helper.ErrValidationField("file", "format harus .csv atau .xlsx")
	}

	owner := sess.UserID
	if raw := strings.TrimSpace(c.FormValue("user_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return helper.ErrValidationField("user_id", "harus UUID")
		}
		owner = id
	}

	file, err := fh.Open()
	if err != nil {
		return helper.ErrValidationField("file", "tidak bisa dibaca")
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return helper.ErrValidationField("file", "tidak bisa dibaca")
	}

	res, err := ctl.Service.Import(c.UserContext(), sess, owner, format, data)
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "Impor selesai", res)
}

package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	pelangganDto "pdam_pelanggan_backend/internals/features/pelanggan/pelanggan/dto"
	pelangganService "pdam_pelanggan_backend/internals/features/pelanggan/pelanggan/service"
	helper "pdam_pelanggan_backend/internals/helpers"
	helperAuth "pdam_pelanggan_backend/internals/helpers/auth"
)

const (
	SheetName = "Pelanggan"

	FormatCSV   = "csv"
	FormatExcel = "xlsx"
)

type ReportService struct {
	DB        *gorm.DB
	Pelanggan *pelangganService.PelangganService
	Log       *zap.Logger
	Now       func() time.Time
}

func NewReportService(db *gorm.DB, pelanggan *pelangganService.PelangganService, log *zap.Logger) *ReportService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ReportService{DB: db, Pelanggan: pelanggan, Log: log, Now: time.Now}
}

// rows: data ekspor mengikuti scope & filter list pelanggan.
func (s *ReportService) rows(ctx context.Context, sess helperAuth.Session, f pelangganDto.ListQuery) ([]pelangganDto.PelangganResponse, error) {
	return s.Pelanggan.ListAll(ctx, sess, f, helper.ExportOpts.AllHardCap)
}

/* ====================== CSV ====================== */

func WriteCSV(w io.Writer, rows []pelangganDto.PelangganResponse) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(exportRow(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (s *ReportService) ExportCSV(ctx context.Context, sess helperAuth.Session, f pelangganDto.ListQuery) ([]byte, error) {
	rows, err := s.rows(ctx, sess, f)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows); err != nil {
		return nil, errors.Wrap(err, "tulis csv")
	}
	s.Log.Info("ekspor csv", zap.Int("rows", len(rows)), zap.Stringer("by", sess.UserID))
	return buf.Bytes(), nil
}

func TemplateCSV() []byte {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	_ = cw.Write(Columns)
	_ = cw.Write(templateSample)
	cw.Flush()
	return buf.Bytes()
}

/* ====================== EXCEL ====================== */

func newWorkbook() (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, err
	}
	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return nil, err
	}
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return nil, err
	}
	if err := f.SetRowStyle(SheetName, 1, 1, style); err != nil {
		return nil, err
	}
	last, _ := excelize.ColumnNumberToName(len(Columns))
	_ = f.SetColWidth(SheetName, "A", last, 18)
	return f, nil
}

func writeSheetRow(f *excelize.File, row int, cells []string) error {
	vals := make([]any, len(cells))
	for i, c := range cells {
		vals[i] = c
	}
	// jumlah_jiwa sebagai angka
	if n, err := strconv.Atoi(cells[3]); err == nil {
		vals[3] = n
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(SheetName, cell, &vals)
}

func BuildExcel(rows []pelangganDto.PelangganResponse) (*bytes.Buffer, error) {
	f, err := newWorkbook()
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	for i, r := range rows {
		if err := writeSheetRow(f, i+2, exportRow(r)); err != nil {
			return nil, err
		}
	}
	return f.WriteToBuffer()
}

func (s *ReportService) ExportExcel(ctx context.Context, sess helperAuth.Session, f pelangganDto.ListQuery) ([]byte, error) {
	rows, err := s.rows(ctx, sess, f)
	if err != nil {
		return nil, err
	}
	buf, err := BuildExcel(rows)
	if err != nil {
		return nil, errors.Wrap(err, "tulis xlsx")
	}
	s.Log.Info("ekspor excel", zap.Int("rows", len(rows)), zap.Stringer("by", sess.UserID))
	return buf.Bytes(), nil
}

func TemplateExcel() ([]byte, error) {
	f, err := newWorkbook()
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	if err := writeSheetRow(f, 2, templateSample); err != nil {
		return nil, err
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

/* ====================== PDF ====================== */

type pdfColumn struct {
	Title string
	Width float64
	Value func(no int, p pelangganDto.PelangganResponse) string
}

var pdfColumns = []pdfColumn{
	{"No", 10, func(no int, _ pelangganDto.PelangganResponse) string { return strconv.Itoa(no) }},
	{"ID Pelanggan", 28, func(_ int, p pelangganDto.PelangganResponse) string { return p.IDPelanggan }},
	{"Nama", 45, func(_ int, p pelangganDto.PelangganResponse) string { return p.NamaPelanggan }},
	{"Alamat", 65, func(_ int, p pelangganDto.PelangganResponse) string { return helper.Deref(p.Alamat) }},
	{"Desa", 32, func(_ int, p pelangganDto.PelangganResponse) string { return helper.Deref(p.DesaNama) }},
	{"Kecamatan", 32, func(_ int, p pelangganDto.PelangganResponse) string { return helper.Deref(p.KecamatanNama) }},
	{"Status", 30, func(_ int, p pelangganDto.PelangganResponse) string { return p.StatusPelanggan }},
	{"Jenis Meter", 35, func(_ int, p pelangganDto.PelangganResponse) string { return helper.Deref(p.JenisMeter) }},
}

// Attribution: baris "Dicetak oleh ..." di kepala laporan.
func Attribution(printedBy string, at time.Time) string {
	return fmt.Sprintf("Dicetak oleh %s - %s", printedBy, at.Format("02/01/2006 15:04"))
}

// fit memotong teks agar muat di lebar sel.
func fit(pdf *fpdf.Fpdf, s string, width float64) string {
	const pad = 2
	if pdf.GetStringWidth(s) <= width-pad {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && pdf.GetStringWidth(string(r)+"...") > width-pad {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}

// BuildPDF: tabel A4 landscape; header tabel diulang di setiap halaman.
func BuildPDF(w io.Writer, rows []pelangganDto.PelangganResponse, printedBy string, at time.Time) error {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(false, 12)
	pdf.AliasNbPages("")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	tableHeader := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(221, 235, 247)
		for _, col := range pdfColumns {
			pdf.CellFormat(col.Width, 7, col.Title, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.SetHeaderFunc(func() {
		pdf.SetFont("Helvetica", "B", 13)
		pdf.CellFormat(0, 7, "Laporan Data Pelanggan", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(0, 5, tr(Attribution(printedBy, at)), "", 1, "L", false, 0, "")
		pdf.CellFormat(0, 5, fmt.Sprintf("Total: %d pelanggan", len(rows)), "", 1, "L", false, 0, "")
		pdf.Ln(2)
		tableHeader()
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-10)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 5, fmt.Sprintf("Halaman %d/{nb}", pdf.PageNo()), "", 0, "R", false, 0, "")
	})

	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 8)
	if len(rows) == 0 {
		pdf.CellFormat(0, 8, "Tidak ada data", "1", 1, "C", false, 0, "")
	}
	_, pageH := pdf.GetPageSize()
	const rowH = 6
	for i, r := range rows {
		if pdf.GetY()+rowH > pageH-15 {
			pdf.AddPage()
			pdf.SetFont("Helvetica", "", 8)
		}
		for _, col := range pdfColumns {
			pdf.CellFormat(col.Width, rowH, fit(pdf, tr(col.Value(i+1, r)), col.Width), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
	return pdf.Output(w)
}

func (s *ReportService) ExportPDF(ctx context.Context, sess helperAuth.Session, f pelangganDto.ListQuery) ([]byte, error) {
	rows, err := s.rows(ctx, sess, f)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := BuildPDF(&buf, rows, sess.DisplayName(), s.Now()); err != nil {
		return nil, errors.Wrap(err, "tulis pdf")
	}
	s.Log.Info("ekspor pdf", zap.Int("rows", len(rows)), zap.Stringer("by", sess.UserID))
	return buf.Bytes(), nil
}

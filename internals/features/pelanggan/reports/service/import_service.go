package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	pelangganDto "pdam_pelanggan_backend/internals/features/pelanggan/pelanggan/dto"
	"pdam_pelanggan_backend/internals/features/pelanggan/reports/dto"
	unitModel "pdam_pelanggan_backend/internals/features/referensi/units/model"
	staffService "pdam_pelanggan_backend/internals/features/users/staff/service"
	helper "pdam_pelanggan_backend/internals/helpers"
	helperAuth "pdam_pelanggan_backend/internals/helpers/auth"
	"pdam_pelanggan_backend/internals/metrics"
)

const MaxImportRows = 5000

var requiredColumns = []string{"id_pelanggan", "nama_pelanggan"}

// kolom referensi: nilai boleh UUID atau kode unit
var refColumns = map[string]unitModel.Kind{
	"cabang_id":    unitModel.KindCabang,
	"desa_id":      unitModel.KindDesa,
	"kecamatan_id": unitModel.KindKecamatan,
	"rayon_id":     unitModel.KindRayon,
	"golongan_id":  unitModel.KindGolongan,
	"kelompok_id":  unitModel.KindKelompok,
}

/* ====================== PARSER ====================== */

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.ReplaceAll(h, " ", "_")
}

// ParseCSV: delimiter koma atau titik koma (ekspor Excel lokal).
func ParseCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\ufeff"))
	firstLine := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		firstLine = data[:i]
	}
	r := csv.NewReader(bytes.NewReader(data))
	if bytes.Count(firstLine, []byte(";")) > bytes.Count(firstLine, []byte(",")) {
		r.Comma = ';'
	}
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, helper.ErrValidation("File CSV tidak valid: %v", err)
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

// ParseExcel: sheet pertama workbook.
func ParseExcel(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, helper.ErrValidation("File Excel tidak valid")
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, helper.ErrValidation("Worksheet tidak ditemukan")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, helper.ErrValidation("Worksheet tidak bisa dibaca")
	}
	return rows, nil
}

/* ====================== IMPORT ====================== */

type rowReader struct {
	index map[string]int
	cells []string
}

func (r rowReader) get(col string) string {
	i, ok := r.index[col]
	if !ok || i >= len(r.cells) {
		return ""
	}
	return strings.TrimSpace(r.cells[i])
}

func (r rowReader) ptr(col string) *string {
	return helper.StrPtr(r.get(col))
}

func blankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// failureReason: pesan AppError + detail field (urut nama field).
func failureReason(err error) string {
	ae := helper.AsAppError(err)
	if len(ae.Fields) == 0 {
		return ae.Message
	}
	keys := make([]string, 0, len(ae.Fields))
	for k := range ae.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(ae.Fields[k], ", "))
	}
	return strings.Join(parts, "; ")
}

// refLookup: kode → id per jenis referensi, di-cache selama satu impor.
type refLookup struct {
	svc   *ReportService
	ctx   context.Context
	cache map[string]uuid.UUID
}

func (l *refLookup) resolve(col, raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	if id, err := uuid.Parse(raw); err == nil {
		return &id, nil
	}
	kind := refColumns[col]
	kode := strings.ToUpper(helper.CleanText(raw))
	key := string(kind) + ":" + kode
	if id, ok := l.cache[key]; ok {
		return &id, nil
	}
	var ids []uuid.UUID
	if err := l.svc.DB.WithContext(l.ctx).Table(kind.Table()).
		Where("UPPER(kode) = ?", kode).
		Limit(1).
		Pluck("id", &ids).Error; err != nil {
		return nil, helper.DBError(err, "")
	}
	if len(ids) == 0 {
		return nil, helper.ErrValidationField(col, fmt.Sprintf("%s %q tidak ditemukan", kind.Label(), raw))
	}
	l.cache[key] = ids[0]
	return &ids[0], nil
}

// tanggalCell: Excel bisa mengirim serial number untuk sel bertipe tanggal.
func tanggalCell(raw string) *string {
	if raw == "" {
		return nil
	}
	if serial, err := strconv.ParseFloat(raw, 64); err == nil && serial > 20000 && serial < 80000 {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			s := t.Format("2006-01-02")
			return &s
		}
	}
	return &raw
}

func parseFloatCell(col, raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
	if err != nil {
		return nil, helper.ErrValidationField(col, "harus angka")
	}
	return &v, nil
}

func (l *refLookup) fields(r rowReader) (pelangganDto.PelangganFields, error) {
	f := pelangganDto.PelangganFields{
		IDPelanggan:       r.get("id_pelanggan"),
		NamaPelanggan:     r.get("nama_pelanggan"),
		Alamat:            r.ptr("alamat"),
		NoTelpon:          r.ptr("no_telpon"),
		JenisMeter:        r.ptr("jenis_meter"),
		TanggalPemasangan: tanggalCell(r.get("tanggal_pemasangan")),
		StatusPelanggan:   r.ptr("status_pelanggan"),
		FotoRumahURL:      r.ptr("foto_rumah_url"),
		Distribusi:        r.ptr("distribusi"),
		Sumber:            r.ptr("sumber"),
		KondisiMeter:      r.ptr("kondisi_meter"),
		KondisiLingkungan: r.ptr("kondisi_lingkungan"),
		Kategori:          r.ptr("kategori"),
	}
	if f.IDPelanggan == "" {
		return f, helper.ErrValidationField("id_pelanggan", "wajib diisi")
	}
	if f.NamaPelanggan == "" {
		return f, helper.ErrValidationField("nama_pelanggan", "wajib diisi")
	}
	if raw := r.get("jumlah_jiwa"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return f, helper.ErrValidationField("jumlah_jiwa", "harus bilangan bulat")
		}
		f.JumlahJiwa = &n
	}
	var err error
	if f.Latitude, err = parseFloatCell("latitude", r.get("latitude")); err != nil {
		return f, err
	}
	if f.Longitude, err = parseFloatCell("longitude", r.get("longitude")); err != nil {
		return f, err
	}

	refs := []struct {
		col string
		dst **uuid.UUID
	}{
		{"cabang_id", &f.CabangID},
		{"desa_id", &f.DesaID},
		{"kecamatan_id", &f.KecamatanID},
		{"rayon_id", &f.RayonID},
		{"golongan_id", &f.GolonganID},
		{"kelompok_id", &f.KelompokID},
	}
	for _, ref := range refs {
		id, err := l.resolve(ref.col, r.get(ref.col))
		if err != nil {
			return f, err
		}
		*ref.dst = id
	}
	return f, nil
}

// Import: best-effort per baris. Baris gagal dicatat, baris lain tetap dibuat.
// Kesalahan di level file (format, header, owner) menggagalkan seluruh impor.
func (s *ReportService) Import(ctx context.Context, sess helperAuth.Session, ownerID uuid.UUID, format string, data []byte) (dto.ImportResult, error) {
	out := dto.ImportResult{Format: format, Failed: []dto.ImportFailure{}}

	if ownerID != sess.UserID {
		if err := sess.RequireAdmin("Impor Pelanggan untuk User"); err != nil {
			return out, err
		}
	}
	if _, err := staffService.RequireActiveOwner(s.DB.WithContext(ctx), ownerID); err != nil {
		return out, err
	}

	var (
		rows [][]string
		err  error
	)
	switch format {
	case FormatCSV:
		rows, err = ParseCSV(data)
	case FormatExcel:
		rows, err = ParseExcel(data)
	default:
		return out, helper.ErrValidation("Format file harus .csv atau .xlsx")
	}
	if err != nil {
		return out, err
	}
	if len(rows) == 0 {
		return out, helper.ErrValidation("File kosong")
	}

	index := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		if key := normalizeHeader(h); key != "" {
			if _, dup := index[key]; !dup {
				index[key] = i
			}
		}
	}
	var missing []string
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return out, helper.ErrValidation("Kolom wajib tidak ditemukan: %s", strings.Join(missing, ", "))
	}
	if len(rows)-1 > MaxImportRows {
		return out, helper.ErrValidation("Maksimal %d baris per impor", MaxImportRows)
	}

	lookup := &refLookup{svc: s, ctx: ctx, cache: map[string]uuid.UUID{}}
	for i, cells := range rows[1:] {
		if blankRow(cells) {
			continue
		}
		rowNo := i + 2
		r := rowReader{index: index, cells: cells}

		f, err := lookup.fields(r)
		if err == nil {
			_, err = s.Pelanggan.CreateForUser(ctx, sess, ownerID, f)
		}
		if err != nil {
			if helper.IsKind(err, helper.KindUpstream) {
				s.Log.Warn("impor: baris gagal karena upstream", zap.Int("row", rowNo), zap.Error(err))
			}
			out.Failed = append(out.Failed, dto.ImportFailure{
				Row:         rowNo,
				IDPelanggan: r.get("id_pelanggan"),
				Reason:      failureReason(err),
			})
			continue
		}
		out.Created++
	}

	metrics.ImportRows(format, out.Created, len(out.Failed))
	s.Log.Info("impor pelanggan",
		zap.String("format", format),
		zap.Int("created", out.Created),
		zap.Int("failed", len(out.Failed)),
		zap.Stringer("owner", ownerID),
		zap.Stringer("by", sess.UserID),
	)
	return out, nil
}

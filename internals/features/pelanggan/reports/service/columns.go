package service

import (
	"strconv"

	"github.com/google/uuid"

	pelangganDto "pdam_pelanggan_backend/internals/features/pelanggan/pelanggan/dto"
	helper "pdam_pelanggan_backend/internals/helpers"
)

// Columns: urutan kolom file CSV/Excel (ekspor, template, impor).
var Columns = []string{
	"id_pelanggan",
	"nama_pelanggan",
	"alamat",
	"jumlah_jiwa",
	"latitude",
	"longitude",
	"no_telpon",
	"jenis_meter",
	"tanggal_pemasangan",
	"status_pelanggan",
	"foto_rumah_url",
	"cabang_id",
	"desa_id",
	"kecamatan_id",
	"rayon_id",
	"golongan_id",
	"kelompok_id",
	"distribusi",
	"sumber",
	"kondisi_meter",
	"kondisi_lingkungan",
	"kategori",
}

// templateSample: contoh baris di template. Referensi boleh berupa kode atau UUID.
var templateSample = []string{
	"P0001",
	"Budi Santoso",
	"Jl. Merdeka No. 1",
	"4",
	"-7.2278",
	"107.9087",
	"081234567890",
	"meter normal",
	"2024-01-15",
	"aktif",
	"",
	"CB01",
	"DS07",
	"",
	"RY01",
	"R1",
	"KL01",
	"",
	"",
	"",
	"bersih",
	"jadwal harian",
}

func uuidCell(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}

func floatCell(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}

// exportRow: satu pelanggan → sel string sesuai Columns.
func exportRow(p pelangganDto.PelangganResponse) []string {
	return []string{
		p.IDPelanggan,
		p.NamaPelanggan,
		helper.Deref(p.Alamat),
		strconv.Itoa(p.JumlahJiwa),
		floatCell(p.Latitude),
		floatCell(p.Longitude),
		helper.Deref(p.NoTelpon),
		helper.Deref(p.JenisMeter),
		p.TanggalString(),
		p.StatusPelanggan,
		helper.Deref(p.FotoRumahURL),
		uuidCell(p.CabangID),
		uuidCell(p.DesaID),
		uuidCell(p.KecamatanID),
		uuidCell(p.RayonID),
		uuidCell(p.GolonganID),
		uuidCell(p.KelompokID),
		helper.Deref(p.Distribusi),
		helper.Deref(p.Sumber),
		helper.Deref(p.KondisiMeter),
		p.KondisiLingkungan,
		p.Kategori,
	}
}

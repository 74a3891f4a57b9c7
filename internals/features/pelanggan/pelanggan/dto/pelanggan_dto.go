package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"pdam_pelanggan_backend/internals/features/pelanggan/pelanggan/model"
	helper "pdam_pelanggan_backend/internals/helpers"
)

/* =======================================================
   REQUEST DTOs
   ======================================================= */

// PelangganFields: kolom isian pelanggan (form lama, create-for-user, impor).
// kecamatan_id hanya dipakai bila desa_id kosong; selain itu diturunkan dari desa.
type PelangganFields struct {
	IDPelanggan   string   `json:"id_pelanggan" validate:"required,max=50"`
	NamaPelanggan string   `json:"nama_pelanggan" validate:"required,max=150"`
	NoTelpon      *string  `json:"no_telpon,omitempty" validate:"omitempty,max=30"`
	Alamat        *string  `json:"alamat,omitempty"`
	JumlahJiwa    *int     `json:"jumlah_jiwa,omitempty" validate:"omitempty,min=1"`
	Latitude      *float64 `json:"latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Longitude     *float64 `json:"longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
	FotoRumahURL  *string  `json:"foto_rumah_url,omitempty" validate:"omitempty,url"`

	CabangID    *uuid.UUID `json:"cabang_id,omitempty"`
	DesaID      *uuid.UUID `json:"desa_id,omitempty"`
	KecamatanID *uuid.UUID `json:"kecamatan_id,omitempty"`
	RayonID     *uuid.UUID `json:"rayon_id,omitempty"`
	GolonganID  *uuid.UUID `json:"golongan_id,omitempty"`
	KelompokID  *uuid.UUID `json:"kelompok_id,omitempty"`

	JenisMeter        *string `json:"jenis_meter,omitempty"`
	TanggalPemasangan *string `json:"tanggal_pemasangan,omitempty"` // YYYY-MM-DD
	Distribusi        *string `json:"distribusi,omitempty" validate:"omitempty,max=100"`
	Sumber            *string `json:"sumber,omitempty" validate:"omitempty,max=100"`
	KondisiMeter      *string `json:"kondisi_meter,omitempty" validate:"omitempty,max=100"`
	KondisiLingkungan *string `json:"kondisi_lingkungan,omitempty" validate:"omitempty,max=100"`
	Kategori          *string `json:"kategori,omitempty" validate:"omitempty,max=100"`
	StatusPelanggan   *string `json:"status_pelanggan,omitempty"`
}

func trimPtr(p *string) *string {
	if p == nil {
		return nil
	}
	return helper.StrPtr(*p)
}

func lowerPtr(p *string) *string {
	if p = trimPtr(p); p == nil {
		return nil
	}
	v := strings.ToLower(*p)
	return &v
}

func nilIfZero(id *uuid.UUID) *uuid.UUID {
	if id == nil || *id == uuid.Nil {
		return nil
	}
	return id
}

func (f *PelangganFields) Normalize() {
	f.IDPelanggan = helper.CleanText(f.IDPelanggan)
	f.NamaPelanggan = helper.CleanText(f.NamaPelanggan)
	f.NoTelpon = trimPtr(f.NoTelpon)
	f.Alamat = trimPtr(f.Alamat)
	f.FotoRumahURL = trimPtr(f.FotoRumahURL)
	f.CabangID = nilIfZero(f.CabangID)
	f.DesaID = nilIfZero(f.DesaID)
	f.KecamatanID = nilIfZero(f.KecamatanID)
	f.RayonID = nilIfZero(f.RayonID)
	f.GolonganID = nilIfZero(f.GolonganID)
	f.KelompokID = nilIfZero(f.KelompokID)
	f.JenisMeter = lowerPtr(f.JenisMeter)
	f.TanggalPemasangan = trimPtr(f.TanggalPemasangan)
	f.Distribusi = trimPtr(f.Distribusi)
	f.Sumber = trimPtr(f.Sumber)
	f.KondisiMeter = trimPtr(f.KondisiMeter)
	f.KondisiLingkungan = lowerPtr(f.KondisiLingkungan)
	f.Kategori = lowerPtr(f.Kategori)
	f.StatusPelanggan = lowerPtr(f.StatusPelanggan)
}

// CreatePelangganRequest: admin boleh memilih pemilik lewat user_id.
type CreatePelangganRequest struct {
	PelangganFields
	UserID *uuid.UUID `json:"user_id,omitempty"`
}

// UpdatePelangganRequest: partial update; desa berubah → kecamatan diturunkan ulang.
type UpdatePelangganRequest struct {
	IDPelanggan   *string  `json:"id_pelanggan,omitempty" validate:"omitempty,max=50"`
	NamaPelanggan *string  `json:"nama_pelanggan,omitempty" validate:"omitempty,max=150"`
	NoTelpon      *string  `json:"no_telpon,omitempty" validate:"omitempty,max=30"`
	Alamat        *string  `json:"alamat,omitempty"`
	JumlahJiwa    *int     `json:"jumlah_jiwa,omitempty" validate:"omitempty,min=1"`
	Latitude      *float64 `json:"latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Longitude     *float64 `json:"longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
	FotoRumahURL  *string  `json:"foto_rumah_url,omitempty"`

	CabangID   *uuid.UUID `json:"cabang_id,omitempty"`
	DesaID     *uuid.UUID `json:"desa_id,omitempty"`
	ClearDesa  bool       `json:"clear_desa,omitempty"`
	RayonID    *uuid.UUID `json:"rayon_id,omitempty"`
	GolonganID *uuid.UUID `json:"golongan_id,omitempty"`
	KelompokID *uuid.UUID `json:"kelompok_id,omitempty"`

	JenisMeter        *string `json:"jenis_meter,omitempty"`
	TanggalPemasangan *string `json:"tanggal_pemasangan,omitempty"`
	Distribusi        *string `json:"distribusi,omitempty"`
	Sumber            *string `json:"sumber,omitempty"`
	KondisiMeter      *string `json:"kondisi_meter,omitempty"`
	KondisiLingkungan *string `json:"kondisi_lingkungan,omitempty"`
	Kategori          *string `json:"kategori,omitempty"`
	StatusPelanggan   *string `json:"status_pelanggan,omitempty"`
}

type TransferRequest struct {
	UserID uuid.UUID `json:"user_id"`
}

// BulkAssignRequest: id dikirim sebagai string supaya id rusak jadi kegagalan per item.
type BulkAssignRequest struct {
	UserID       string   `json:"user_id"`
	PelangganIDs []string `json:"pelanggan_ids"`
	Confirm      bool     `json:"confirm"`
}

type BulkDeleteRequest struct {
	IDs     []string `json:"ids"`
	Confirm bool     `json:"confirm"`
}

type ConfirmRequest struct {
	Confirm bool `json:"confirm"`
}

type ListQuery struct {
	Q               string
	StatusPelanggan string
	JenisMeter      string
	CabangID        *uuid.UUID
	DesaID          *uuid.UUID
	KecamatanID     *uuid.UUID
	RayonID         *uuid.UUID
	GolonganID      *uuid.UUID
	KelompokID      *uuid.UUID
	UserID          *uuid.UUID
	// pelanggan milik user nonaktif (kandidat pemindahan)
	Unassigned bool
}

/* =======================================================
   RESPONSE DTOs
   ======================================================= */

type PelangganResponse struct {
	model.PelangganModel
	CabangNama    *string `json:"cabang_nama,omitempty"`
	DesaNama      *string `json:"desa_nama,omitempty"`
	KecamatanNama *string `json:"kecamatan_nama,omitempty"`
	RayonNama     *string `json:"rayon_nama,omitempty"`
	GolonganNama  *string `json:"golongan_nama,omitempty"`
	KelompokNama  *string `json:"kelompok_nama,omitempty"`
	OwnerName     *string `json:"owner_name,omitempty"`
}

// TanggalString: YYYY-MM-DD atau "".
func (p PelangganResponse) TanggalString() string {
	if p.TanggalPemasangan == nil {
		return ""
	}
	return time.Time(*p.TanggalPemasangan).Format("2006-01-02")
}

type MarkerResponse struct {
	ID              uuid.UUID `json:"id"`
	IDPelanggan     string    `json:"id_pelanggan"`
	NamaPelanggan   string    `json:"nama_pelanggan"`
	Alamat          *string   `json:"alamat,omitempty"`
	Latitude        float64   `json:"latitude"`
	Longitude       float64   `json:"longitude"`
	StatusPelanggan string    `json:"status_pelanggan"`
}

type BulkFailure struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// BulkAssignResult: best-effort; Failed bisa dikirim ulang apa adanya.
type BulkAssignResult struct {
	UserID         uuid.UUID     `json:"user_id"`
	SucceededCount int           `json:"succeeded_count"`
	FailedCount    int           `json:"failed_count"`
	Succeeded      []string      `json:"succeeded"`
	Failed         []BulkFailure `json:"failed"`
}

type BulkDeleteResult struct {
	Deleted  int64    `json:"deleted"`
	NotFound []string `json:"not_found"`
	Invalid  []string `json:"invalid"`
}

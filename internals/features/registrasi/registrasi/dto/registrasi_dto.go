package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"

	pelangganModel "pdam_pelanggan_backend/internals/features/pelanggan/pelanggan/model"
	"pdam_pelanggan_backend/internals/features/registrasi/registrasi/model"
	helper "pdam_pelanggan_backend/internals/helpers"
)

/* =======================================================
   REQUEST DTOs
   ======================================================= */

// SubmitRequest: dokumen dikirim sebagai URL (JSON) atau file (multipart, lihat Documents).
type SubmitRequest struct {
	NamaPelanggan     string   `json:"nama_pelanggan" form:"nama_pelanggan" validate:"required,max=150"`
	Email             *string  `json:"email,omitempty" form:"email" validate:"omitempty,email,max=255"`
	NoTelpon          string   `json:"no_telpon" form:"no_telpon" validate:"required,max=30"`
	Alamat            string   `json:"alamat" form:"alamat" validate:"required"`
	Latitude          *float64 `json:"latitude" form:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude         *float64 `json:"longitude" form:"longitude" validate:"required,gte=-180,lte=180"`
	JumlahJiwa        *int     `json:"jumlah_jiwa,omitempty" form:"jumlah_jiwa" validate:"omitempty,min=1"`
	DesaID            string   `json:"desa_id" form:"desa_id" validate:"required"`
	CatatanRegistrasi *string  `json:"catatan_registrasi,omitempty" form:"catatan_registrasi"`

	FotoRumahURL string `json:"foto_rumah_url,omitempty" form:"foto_rumah_url" validate:"omitempty,url"`
	FotoKTPURL   string `json:"foto_ktp_url,omitempty" form:"foto_ktp_url" validate:"omitempty,url"`
	FotoKKURL    string `json:"foto_kk_url,omitempty" form:"foto_kk_url" validate:"omitempty,url"`
}

func (r *SubmitRequest) Normalize() {
	r.NamaPelanggan = helper.CleanText(r.NamaPelanggan)
	r.NoTelpon = strings.TrimSpace(r.NoTelpon)
	r.Alamat = strings.TrimSpace(r.Alamat)
	r.DesaID = strings.TrimSpace(r.DesaID)
	if r.Email != nil {
		r.Email = helper.StrPtr(strings.ToLower(*r.Email))
	}
	if r.CatatanRegistrasi != nil {
		r.CatatanRegistrasi = helper.StrPtr(*r.CatatanRegistrasi)
	}
	r.FotoRumahURL = strings.TrimSpace(r.FotoRumahURL)
	r.FotoKTPURL = strings.TrimSpace(r.FotoKTPURL)
	r.FotoKKURL = strings.TrimSpace(r.FotoKKURL)
}

// Documents: file hasil multipart; kosong berarti pakai URL di SubmitRequest.
type Documents struct {
	Rumah helper.Upload
	KTP   helper.Upload
	KK    helper.Upload
}

// ApproveRequest: klasifikasi dari admin. owner_user_id kosong = pengaju (staf).
type ApproveRequest struct {
	IDPelanggan string     `json:"id_pelanggan"`
	JenisMeter  string     `json:"jenis_meter"`
	OwnerUserID *uuid.UUID `json:"owner_user_id,omitempty"`

	CabangID   *uuid.UUID `json:"cabang_id,omitempty"`
	RayonID    *uuid.UUID `json:"rayon_id,omitempty"`
	GolonganID *uuid.UUID `json:"golongan_id,omitempty"`
	KelompokID *uuid.UUID `json:"kelompok_id,omitempty"`

	TanggalPemasangan *string `json:"tanggal_pemasangan,omitempty"`
	Distribusi        *string `json:"distribusi,omitempty" validate:"omitempty,max=100"`
	Sumber            *string `json:"sumber,omitempty" validate:"omitempty,max=100"`
	KondisiMeter      *string `json:"kondisi_meter,omitempty" validate:"omitempty,max=100"`
	KondisiLingkungan *string `json:"kondisi_lingkungan,omitempty" validate:"omitempty,max=100"`
	Kategori          *string `json:"kategori,omitempty" validate:"omitempty,max=100"`
	StatusPelanggan   *string `json:"status_pelanggan,omitempty"`
}

type RejectRequest struct {
	RejectedReason string `json:"rejected_reason"`
}

type ListQuery struct {
	Status string
	Q      string
}

/* =======================================================
   RESPONSE DTOs
   ======================================================= */

type RegistrasiResponse struct {
	model.RegistrasiModel
	DesaNama        *string `json:"desa_nama,omitempty"`
	KecamatanNama   *string `json:"kecamatan_nama,omitempty"`
	SubmittedByName *string `json:"submitted_by_name,omitempty"`
	ReviewedByName  *string `json:"reviewed_by_name,omitempty"`
}

// StatusCounts dihitung terpisah dari list (tidak terpengaruh filter status).
type StatusCounts struct {
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
	Total    int64 `json:"total"`
}

// TrackingResponse: cek status publik, tanpa dokumen & data kontak.
type TrackingResponse struct {
	NoRegistrasi   string     `json:"no_registrasi"`
	NamaPelanggan  string     `json:"nama_pelanggan"`
	Status         string     `json:"status"`
	RejectedReason *string    `json:"rejected_reason,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	ReviewedAt     *time.Time `json:"reviewed_at,omitempty"`
}

func ToTracking(m model.RegistrasiModel) TrackingResponse {
	return TrackingResponse{
		NoRegistrasi:   m.NoRegistrasi,
		NamaPelanggan:  MaskName(m.NamaPelanggan),
		Status:         m.Status,
		RejectedReason: m.RejectedReason,
		CreatedAt:      m.CreatedAt,
		ReviewedAt:     m.ReviewedAt,
	}
}

// MaskName: "Budi Santoso" → "B*** S******".
func MaskName(name string) string {
	parts := strings.Fields(name)
	for i, p := range parts {
		r := []rune(p)
		if len(r) > 1 {
			parts[i] = string(r[0]) + strings.Repeat("*", len(r)-1)
		}
	}
	return strings.Join(parts, " ")
}

type SubmitResponse struct {
	ID           uuid.UUID `json:"id"`
	NoRegistrasi string    `json:"no_registrasi"`
	Status       string    `json:"status"`
	KecamatanID  uuid.UUID `json:"kecamatan_id"`
}

type ApproveResult struct {
	Registrasi model.RegistrasiModel         `json:"registrasi"`
	Pelanggan  pelangganModel.PelangganModel `json:"pelanggan"`
}

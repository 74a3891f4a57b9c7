package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"pdam_pelanggan_backend/internals/features/referensi/units/model"
	helper "pdam_pelanggan_backend/internals/helpers"
)

/* =======================================================
   REQUEST DTOs
   ======================================================= */

type CreateUnitRequest struct {
	Kode     string `json:"kode" validate:"required,max=30"`
	Nama     string `json:"nama" validate:"required,max=120"`
	IsActive *bool  `json:"is_active,omitempty"`
	// hanya untuk desa
	KecamatanID *uuid.UUID `json:"kecamatan_id,omitempty"`
}

func (r *CreateUnitRequest) Normalize() {
	r.Kode = strings.ToUpper(helper.CleanText(r.Kode))
	r.Nama = helper.CleanText(r.Nama)
	if r.KecamatanID != nil && *r.KecamatanID == uuid.Nil {
		r.KecamatanID = nil
	}
}

// UpdateUnitRequest: partial update (pointer = field dikirim)
type UpdateUnitRequest struct {
	Kode           *string    `json:"kode,omitempty" validate:"omitempty,max=30"`
	Nama           *string    `json:"nama,omitempty" validate:"omitempty,max=120"`
	IsActive       *bool      `json:"is_active,omitempty"`
	KecamatanID    *uuid.UUID `json:"kecamatan_id,omitempty"`
	ClearKecamatan bool       `json:"clear_kecamatan,omitempty"`
}

func (r *UpdateUnitRequest) Normalize() {
	if r.Kode != nil {
		v := strings.ToUpper(helper.CleanText(*r.Kode))
		r.Kode = &v
	}
	if r.Nama != nil {
		v := helper.CleanText(*r.Nama)
		r.Nama = &v
	}
}

type ListQuery struct {
	Q      string
	Active *bool
}

/* =======================================================
   RESPONSE DTOs
   ======================================================= */

type UnitResponse struct {
	ID             uuid.UUID `json:"id"`
	Kind           string    `json:"kind"`
	Kode           string    `json:"kode"`
	Nama           string    `json:"nama"`
	IsActive       bool      `json:"is_active"`
	TotalPelanggan int64     `json:"total_pelanggan"`
	CreatedAt      time.Time `json:"created_at"`

	// desa saja
	KecamatanID     *uuid.UUID `json:"kecamatan_id,omitempty"`
	KecamatanNama   *string    `json:"kecamatan_nama,omitempty"`
	KecamatanStatus string     `json:"kecamatan_status,omitempty"`
}

// UnitOption: bentuk ringan untuk dropdown (list aktif).
type UnitOption struct {
	ID          uuid.UUID  `json:"id"`
	Kode        string     `json:"kode"`
	Nama        string     `json:"nama"`
	KecamatanID *uuid.UUID `json:"kecamatan_id,omitempty"`
}

func FromModel(kind model.Kind, m model.UnitModel, total int64) UnitResponse {
	r := UnitResponse{
		ID:             m.ID,
		Kind:           string(kind),
		Kode:           m.Kode,
		Nama:           m.Nama,
		IsActive:       m.IsActive,
		TotalPelanggan: total,
		CreatedAt:      m.CreatedAt,
	}
	if kind == model.KindDesa {
		r.KecamatanID = m.KecamatanID
		r.KecamatanStatus = "not_assigned"
		if m.KecamatanID != nil {
			r.KecamatanStatus = "assigned"
		}
	}
	return r
}

func ToOption(m model.UnitModel) UnitOption {
	return UnitOption{ID: m.ID, Kode: m.Kode, Nama: m.Nama, KecamatanID: m.KecamatanID}
}

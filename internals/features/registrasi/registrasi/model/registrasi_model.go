package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// RegistrasiModel: permohonan sambungan baru. Dibuat pending, berpindah tepat
// sekali ke approved atau rejected.
type RegistrasiModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	NoRegistrasi string    `gorm:"size:30;not null;uniqueIndex" json:"no_registrasi"`

	NamaPelanggan     string    `gorm:"size:150;not null" json:"nama_pelanggan"`
	Email             *string   `gorm:"size:255" json:"email,omitempty"`
	NoTelpon          string    `gorm:"size:30;not null" json:"no_telpon"`
	Alamat            string    `gorm:"type:text;not null" json:"alamat"`
	Latitude          float64   `gorm:"not null" json:"latitude"`
	Longitude         float64   `gorm:"not null" json:"longitude"`
	JumlahJiwa        int       `gorm:"not null;default:1" json:"jumlah_jiwa"`
	DesaID            uuid.UUID `gorm:"type:uuid;not null;index" json:"desa_id"`
	KecamatanID       uuid.UUID `gorm:"type:uuid;not null;index" json:"kecamatan_id"`
	CatatanRegistrasi *string   `gorm:"type:text" json:"catatan_registrasi,omitempty"`

	FotoRumahURL string `gorm:"type:text;not null" json:"foto_rumah_url"`
	FotoKTPURL   string `gorm:"column:foto_ktp_url;type:text;not null" json:"foto_ktp_url"`
	FotoKKURL    string `gorm:"column:foto_kk_url;type:text;not null" json:"foto_kk_url"`

	// nil = pendaftaran mandiri (publik)
	SubmittedBy *uuid.UUID `gorm:"type:uuid;index" json:"submitted_by,omitempty"`

	Status         string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	RejectedReason *string    `gorm:"type:text" json:"rejected_reason,omitempty"`
	ReviewedBy     *uuid.UUID `gorm:"type:uuid" json:"reviewed_by,omitempty"`
	ReviewedAt     *time.Time `json:"reviewed_at,omitempty"`
	PelangganID    *uuid.UUID `gorm:"type:uuid" json:"pelanggan_id,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (RegistrasiModel) TableName() string {
	return "registrasi"
}

func (r *RegistrasiModel) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.Status == "" {
		r.Status = StatusPending
	}
	if r.JumlahJiwa < 1 {
		r.JumlahJiwa = 1
	}
	return nil
}

package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PelangganModel: tabel pelanggan. id_pelanggan = No SL (unik, diisi manusia).
type PelangganModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	IDPelanggan   string    `gorm:"column:id_pelanggan;size:50;not null;uniqueIndex" json:"id_pelanggan"`
	NamaPelanggan string    `gorm:"size:150;not null" json:"nama_pelanggan"`
	NoTelpon      *string   `gorm:"size:30" json:"no_telpon,omitempty"`
	Alamat        *string   `gorm:"type:text" json:"alamat,omitempty"`
	JumlahJiwa    int       `gorm:"not null;default:1" json:"jumlah_jiwa"`
	Latitude      *float64  `json:"latitude,omitempty"`
	Longitude     *float64  `json:"longitude,omitempty"`
	FotoRumahURL  *string   `gorm:"type:text" json:"foto_rumah_url,omitempty"`

	CabangID    *uuid.UUID `gorm:"type:uuid;index" json:"cabang_id,omitempty"`
	DesaID      *uuid.UUID `gorm:"type:uuid;index" json:"desa_id,omitempty"`
	KecamatanID *uuid.UUID `gorm:"type:uuid;index" json:"kecamatan_id,omitempty"`
	RayonID     *uuid.UUID `gorm:"type:uuid;index" json:"rayon_id,omitempty"`
	GolonganID  *uuid.UUID `gorm:"type:uuid;index" json:"golongan_id,omitempty"`
	KelompokID  *uuid.UUID `gorm:"type:uuid;index" json:"kelompok_id,omitempty"`

	JenisMeter        *string         `gorm:"size:40" json:"jenis_meter,omitempty"`
	TanggalPemasangan *datatypes.Date `json:"tanggal_pemasangan,omitempty"`
	Distribusi        *string         `gorm:"size:100" json:"distribusi,omitempty"`
	Sumber            *string         `gorm:"size:100" json:"sumber,omitempty"`
	KondisiMeter      *string         `gorm:"size:100" json:"kondisi_meter,omitempty"`
	KondisiLingkungan string          `gorm:"size:100;not null;default:'bersih'" json:"kondisi_lingkungan"`
	Kategori          string          `gorm:"size:100;not null;default:'jadwal harian'" json:"kategori"`
	StatusPelanggan   string          `gorm:"size:40;not null;default:'aktif';index" json:"status_pelanggan"`

	UserID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	RegistrasiID *uuid.UUID `gorm:"type:uuid;index" json:"registrasi_id,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (PelangganModel) TableName() string {
	return "pelanggan"
}

func (p *PelangganModel) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.JumlahJiwa < 1 {
		p.JumlahJiwa = 1
	}
	return nil
}

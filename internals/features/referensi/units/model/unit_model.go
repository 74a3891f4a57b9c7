package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Kind: jenis unit referensi. Satu tabel per jenis.
type Kind string

const (
	KindCabang    Kind = "cabang"
	KindDesa      Kind = "desa"
	KindKecamatan Kind = "kecamatan"
	KindRayon     Kind = "rayon"
	KindGolongan  Kind = "golongan"
	KindKelompok  Kind = "kelompok"
)

var Kinds = []Kind{KindCabang, KindDesa, KindKecamatan, KindRayon, KindGolongan, KindKelompok}

func ParseKind(s string) (Kind, bool) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, true
		}
	}
	return "", false
}

func (k Kind) Table() string { return string(k) }

// PelangganColumn: kolom FK di tabel pelanggan yang menunjuk ke jenis ini.
func (k Kind) PelangganColumn() string { return string(k) + "_id" }

func (k Kind) Label() string {
	switch k {
	case KindCabang:
		return "Cabang"
	case KindDesa:
		return "Desa"
	case KindKecamatan:
		return "Kecamatan"
	case KindRayon:
		return "Rayon"
	case KindGolongan:
		return "Golongan"
	case KindKelompok:
		return "Kelompok"
	}
	return string(k)
}

// UnitBase: kolom yang sama di semua tabel referensi.
type UnitBase struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Kode      string    `gorm:"size:30;not null;uniqueIndex" json:"kode"`
	Nama      string    `gorm:"size:120;not null" json:"nama"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (u *UnitBase) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// UnitModel dipakai saat runtime lewat db.Table(kind.Table()).
// KecamatanID hanya ada di tabel desa; jenis lain wajib Omit("kecamatan_id").
type UnitModel struct {
	UnitBase
	KecamatanID *uuid.UUID `gorm:"type:uuid;index" json:"kecamatan_id,omitempty"`
}

/* ===== skema per tabel (AutoMigrate) ===== */

type CabangModel struct{ UnitBase }

func (CabangModel) TableName() string { return KindCabang.Table() }

type KecamatanModel struct{ UnitBase }

func (KecamatanModel) TableName() string { return KindKecamatan.Table() }

type DesaModel struct {
	UnitBase
	KecamatanID *uuid.UUID `gorm:"type:uuid;index"`
}

func (DesaModel) TableName() string { return KindDesa.Table() }

type RayonModel struct{ UnitBase }

func (RayonModel) TableName() string { return KindRayon.Table() }

type GolonganModel struct{ UnitBase }

func (GolonganModel) TableName() string { return KindGolongan.Table() }

type KelompokModel struct{ UnitBase }

func (KelompokModel) TableName() string { return KindKelompok.Table() }

// MigrationModels: urutan aman untuk AutoMigrate.
func MigrationModels() []any {
	return []any{
		&CabangModel{},
		&KecamatanModel{},
		&DesaModel{},
		&RayonModel{},
		&GolonganModel{},
		&KelompokModel{},
	}
}

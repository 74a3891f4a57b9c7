package service

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"pdam_pelanggan_backend/internals/features/referensi/units/model"
	helper "pdam_pelanggan_backend/internals/helpers"
)

type ResolutionStatus string

const (
	// desa kosong → field turunan ikut kosong
	ResolutionCleared     ResolutionStatus = "cleared"
	ResolutionAssigned    ResolutionStatus = "assigned"
	ResolutionNotAssigned ResolutionStatus = "not_assigned"
)

// Resolution: hasil desa → kecamatan. KecamatanID hanya terisi saat assigned.
type Resolution struct {
	Status        ResolutionStatus `json:"status"`
	DesaID        *uuid.UUID       `json:"desa_id,omitempty"`
	KecamatanID   *uuid.UUID       `json:"kecamatan_id,omitempty"`
	KecamatanKode string           `json:"kecamatan_kode,omitempty"`
	KecamatanNama string           `json:"kecamatan_nama,omitempty"`
}

// RequireKecamatan: untuk alur yang mewajibkan kecamatan terisi (registrasi).
func (r Resolution) RequireKecamatan() (uuid.UUID, error) {
	switch r.Status {
	case ResolutionAssigned:
		return *r.KecamatanID, nil
	case ResolutionCleared:
		return uuid.Nil, helper.ErrValidationField("desa_id", "Desa wajib dipilih")
	default:
		return uuid.Nil, helper.ErrValidationField("desa_id", "Desa belum terhubung ke kecamatan")
	}
}

// Resolver: lookup murni ke tabel desa/kecamatan, tanpa efek samping.
type Resolver struct {
	DB *gorm.DB
}

func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{DB: db}
}

// WithTx: resolver yang membaca lewat transaksi berjalan.
func (r *Resolver) WithTx(tx *gorm.DB) *Resolver {
	return &Resolver{DB: tx}
}

func (r *Resolver) ResolveKecamatan(ctx context.Context, desaID uuid.UUID) (Resolution, error) {
	if desaID == uuid.Nil {
		return Resolution{Status: ResolutionCleared}, nil
	}

	var desa model.UnitModel
	if err := r.DB.WithContext(ctx).
		Table(model.KindDesa.Table()).
		Select("id", "kecamatan_id").
		Where("id = ?", desaID).
		Take(&desa).Error; err != nil {
		return Resolution{}, helper.DBError(err, "Desa tidak ditemukan")
	}

	id := desa.ID
	if desa.KecamatanID == nil {
		return Resolution{Status: ResolutionNotAssigned, DesaID: &id}, nil
	}

	var kec model.UnitModel
	err := r.DB.WithContext(ctx).
		Table(model.KindKecamatan.Table()).
		Select("id", "kode", "nama").
		Where("id = ?", *desa.KecamatanID).
		Take(&kec).Error
	if err != nil {
		if helper.IsKind(helper.DBError(err, ""), helper.KindNotFound) {
			// FK menggantung dianggap belum terhubung
			return Resolution{Status: ResolutionNotAssigned, DesaID: &id}, nil
		}
		return Resolution{}, helper.DBError(err, "")
	}

	kecID := kec.ID
	return Resolution{
		Status:        ResolutionAssigned,
		DesaID:        &id,
		KecamatanID:   &kecID,
		KecamatanKode: kec.Kode,
		KecamatanNama: kec.Nama,
	}, nil
}

// ResolveOptional: versi untuk form yang desa-nya opsional (pelanggan).
// Mengembalikan kecamatan_id turunan (nil bila desa kosong / belum terhubung).
func (r *Resolver) ResolveOptional(ctx context.Context, desaID *uuid.UUID) (*uuid.UUID, error) {
	if desaID == nil {
		return nil, nil
	}
	res, err := r.ResolveKecamatan(ctx, *desaID)
	if err != nil {
		return nil, err
	}
	return res.KecamatanID, nil
}

// EnsureExists: id referensi opsional harus menunjuk baris yang ada.
func (r *Resolver) EnsureExists(ctx context.Context, kind model.Kind, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	var n int64
	if err := r.DB.WithContext(ctx).Table(kind.Table()).Where("id = ?", *id).Count(&n).Error; err != nil {
		return helper.DBError(err, "")
	}
	if n == 0 {
		return helper.ErrNotFound("%s tidak ditemukan", kind.Label())
	}
	return nil
}

// UnitRefs: kumpulan FK referensi pada pelanggan.
type UnitRefs struct {
	CabangID   *uuid.UUID
	DesaID     *uuid.UUID
	RayonID    *uuid.UUID
	GolonganID *uuid.UUID
	KelompokID *uuid.UUID
}

func (r *Resolver) EnsureRefs(ctx context.Context, refs UnitRefs) error {
	checks := []struct {
		kind model.Kind
		id   *uuid.UUID
	}{
		{model.KindCabang, refs.CabangID},
		{model.KindDesa, refs.DesaID},
		{model.KindRayon, refs.RayonID},
		{model.KindGolongan, refs.GolonganID},
		{model.KindKelompok, refs.KelompokID},
	}
	for _, c := range checks {
		if err := r.EnsureExists(ctx, c.kind, c.id); err != nil {
			return err
		}
	}
	return nil
}

package referensi

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	unitModel "pdam_pelanggan_backend/internals/features/referensi/units/model"
	staffModel "pdam_pelanggan_backend/internals/features/users/staff/model"
)

type UnitSeed struct {
	Kode      string `json:"kode"`
	Nama      string `json:"nama"`
	Kecamatan string `json:"kecamatan,omitempty"` // kode kecamatan, khusus desa
}

type AdminSeed struct {
	AuthIdentity string `json:"auth_identity"`
	Email        string `json:"email"`
	FullName     string `json:"full_name"`
}

type ReferensiSeed struct {
	Cabang    []UnitSeed  `json:"cabang"`
	Kecamatan []UnitSeed  `json:"kecamatan"`
	Desa      []UnitSeed  `json:"desa"`
	Rayon     []UnitSeed  `json:"rayon"`
	Golongan  []UnitSeed  `json:"golongan"`
	Kelompok  []UnitSeed  `json:"kelompok"`
	Admins    []AdminSeed `json:"admins"`
}

// SeedReferensiFromJSON mengisi tabel referensi & admin awal. Kode yang sudah ada dilewati.
func SeedReferensiFromJSON(db *gorm.DB, filePath string, log *zap.Logger) error {
	log.Info("📥 Membaca file seed", zap.String("file", filePath))

	file, err := os.ReadFile(filePath)
	if err != nil {
		return errors.Wrap(err, "baca file seed")
	}
	var data ReferensiSeed
	if err := json.Unmarshal(file, &data); err != nil {
		return errors.Wrap(err, "decode JSON seed")
	}
	return SeedReferensi(db, data, log)
}

func SeedReferensi(db *gorm.DB, data ReferensiSeed, log *zap.Logger) error {
	return db.Transaction(func(tx *gorm.DB) error {
		// kecamatan lebih dulu: desa menunjuk ke kode kecamatan
		order := []struct {
			kind unitModel.Kind
			rows []UnitSeed
		}{
			{unitModel.KindCabang, data.Cabang},
			{unitModel.KindKecamatan, data.Kecamatan},
			{unitModel.KindDesa, data.Desa},
			{unitModel.KindRayon, data.Rayon},
			{unitModel.KindGolongan, data.Golongan},
			{unitModel.KindKelompok, data.Kelompok},
		}
		for _, o := range order {
			n, err := seedUnits(tx, o.kind, o.rows)
			if err != nil {
				return err
			}
			log.Info("✅ Seed referensi", zap.String("kind", string(o.kind)), zap.Int("inserted", n))
		}

		n, err := seedAdmins(tx, data.Admins)
		if err != nil {
			return err
		}
		log.Info("✅ Seed admin", zap.Int("inserted", n))
		return nil
	})
}

func seedUnits(tx *gorm.DB, kind unitModel.Kind, rows []UnitSeed) (int, error) {
	var existing []string
	if err := tx.Table(kind.Table()).Pluck("kode", &existing).Error; err != nil {
		return 0, errors.Wrapf(err, "ambil kode %s", kind)
	}
	seen := make(map[string]bool, len(existing))
	for _, k := range existing {
		seen[strings.ToUpper(k)] = true
	}

	inserted := 0
	for _, r := range rows {
		kode := strings.ToUpper(strings.TrimSpace(r.Kode))
		if kode == "" || seen[kode] {
			continue
		}
		u := unitModel.UnitModel{
			UnitBase: unitModel.UnitBase{ID: uuid.New(), Kode: kode, Nama: strings.TrimSpace(r.Nama), IsActive: true},
		}
		q := tx.Table(kind.Table())
		if kind == unitModel.KindDesa {
			if kc := strings.ToUpper(strings.TrimSpace(r.Kecamatan)); kc != "" {
				var ids []uuid.UUID
				if err := tx.Table(unitModel.KindKecamatan.Table()).
					Where("kode = ?", kc).Limit(1).Pluck("id", &ids).Error; err != nil {
					return inserted, errors.Wrapf(err, "cari kecamatan %s", kc)
				}
				if len(ids) == 0 {
					return inserted, errors.Errorf("desa %s: kecamatan %s tidak ditemukan", kode, kc)
				}
				u.KecamatanID = &ids[0]
			}
		} else {
			q = q.Omit("kecamatan_id")
		}
		if err := q.Create(&u).Error; err != nil {
			return inserted, errors.Wrapf(err, "insert %s %s", kind, kode)
		}
		seen[kode] = true
		inserted++
	}
	return inserted, nil
}

func seedAdmins(tx *gorm.DB, rows []AdminSeed) (int, error) {
	inserted := 0
	for _, a := range rows {
		email := strings.ToLower(strings.TrimSpace(a.Email))
		if email == "" || strings.TrimSpace(a.AuthIdentity) == "" {
			continue
		}
		var count int64
		if err := tx.Model(&staffModel.StaffUserModel{}).
			Where("email = ? OR auth_identity = ?", email, a.AuthIdentity).
			Count(&count).Error; err != nil {
			return inserted, errors.Wrap(err, "cek admin")
		}
		if count > 0 {
			continue
		}
		u := staffModel.StaffUserModel{
			AuthIdentity: strings.TrimSpace(a.AuthIdentity),
			Email:        email,
			FullName:     strings.TrimSpace(a.FullName),
			Role:         "admin",
			IsActive:     true,
		}
		if err := tx.Create(&u).Error; err != nil {
			return inserted, errors.Wrapf(err, "insert admin %s", email)
		}
		inserted++
	}
	return inserted, nil
}

// Package testutil menyiapkan SQLite in-memory + data referensi untuk test service & controller.
package testutil

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	database "pdam_pelanggan_backend/internals/databases"
	pelangganModel "pdam_pelanggan_backend/internals/features/pelanggan/pelanggan/model"
	unitModel "pdam_pelanggan_backend/internals/features/referensi/units/model"
	staffModel "pdam_pelanggan_backend/internals/features/users/staff/model"
	helperAuth "pdam_pelanggan_backend/internals/helpers/auth"
)

// NewDB membuka database in-memory terisolasi per test dan menjalankan AutoMigrate.
// Satu koneksi saja: semua query di dalam transaksi wajib lewat tx.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_pragma=foreign_keys(1)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

// Fixture: data referensi & staf minimal.
type Fixture struct {
	Admin     staffModel.StaffUserModel
	Staff     staffModel.StaffUserModel
	Inactive  staffModel.StaffUserModel
	Cabang    unitModel.UnitModel
	Kecamatan unitModel.UnitModel
	Desa      unitModel.UnitModel
	// desa tanpa kecamatan
	DesaLepas unitModel.UnitModel
	Rayon     unitModel.UnitModel
	Golongan  unitModel.UnitModel
	Kelompok  unitModel.UnitModel
}

func (f Fixture) AdminSession() helperAuth.Session { return SessionOf(f.Admin) }
func (f Fixture) StaffSession() helperAuth.Session { return SessionOf(f.Staff) }

func SessionOf(u staffModel.StaffUserModel) helperAuth.Session {
	return helperAuth.Session{
		UserID:       u.ID,
		AuthIdentity: u.AuthIdentity,
		Email:        u.Email,
		FullName:     u.FullName,
		Role:         u.Role,
		CabangID:     u.CabangID,
	}
}

func Seed(t *testing.T, db *gorm.DB) Fixture {
	t.Helper()
	var f Fixture

	f.Cabang = CreateUnit(t, db, unitModel.KindCabang, "CB01", "Cabang Kota", nil)
	f.Kecamatan = CreateUnit(t, db, unitModel.KindKecamatan, "KC03", "Tarogong Kidul", nil)
	f.Desa = CreateUnit(t, db, unitModel.KindDesa, "DS07", "Sukagalih", &f.Kecamatan.ID)
	f.DesaLepas = CreateUnit(t, db, unitModel.KindDesa, "DS99", "Desa Baru", nil)
	f.Rayon = CreateUnit(t, db, unitModel.KindRayon, "RY01", "Rayon Utara", nil)
	f.Golongan = CreateUnit(t, db, unitModel.KindGolongan, "R1", "Rumah Tangga 1", nil)
	f.Kelompok = CreateUnit(t, db, unitModel.KindKelompok, "KL01", "Kelompok A", nil)

	f.Admin = CreateStaff(t, db, "admin@pdam.test", "admin", true)
	f.Staff = CreateStaff(t, db, "petugas@pdam.test", "user", true)
	f.Inactive = CreateStaff(t, db, "nonaktif@pdam.test", "user", false)
	return f
}

func CreateUnit(t *testing.T, db *gorm.DB, kind unitModel.Kind, kode, nama string, kecamatanID *uuid.UUID) unitModel.UnitModel {
	t.Helper()
	u := unitModel.UnitModel{
		UnitBase:    unitModel.UnitBase{Kode: kode, Nama: nama, IsActive: true},
		KecamatanID: kecamatanID,
	}
	q := db.Table(kind.Table())
	if kind != unitModel.KindDesa {
		q = q.Omit("kecamatan_id")
	}
	require.NoError(t, q.Create(&u).Error)
	return u
}

func CreateStaff(t *testing.T, db *gorm.DB, email, role string, active bool) staffModel.StaffUserModel {
	t.Helper()
	u := staffModel.StaffUserModel{
		AuthIdentity: uuid.NewString(),
		Email:        email,
		FullName:     "Staf " + email,
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, db.Create(&u).Error)
	if !active {
		// default:true di kolom membuat false tidak ikut saat Create
		require.NoError(t, db.Model(&u).Update("is_active", false).Error)
		u.IsActive = false
	}
	return u
}

func CreatePelanggan(t *testing.T, db *gorm.DB, idPelanggan string, owner uuid.UUID, mut ...func(*pelangganModel.PelangganModel)) pelangganModel.PelangganModel {
	t.Helper()
	p := pelangganModel.PelangganModel{
		IDPelanggan:       idPelanggan,
		NamaPelanggan:     "Pelanggan " + idPelanggan,
		JumlahJiwa:        1,
		KondisiLingkungan: "bersih",
		Kategori:          "jadwal harian",
		StatusPelanggan:   "aktif",
		UserID:            owner,
	}
	for _, m := range mut {
		m(&p)
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

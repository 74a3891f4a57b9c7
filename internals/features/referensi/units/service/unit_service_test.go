package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pdam_pelanggan_backend/internals/caches"
	pelangganModel "pdam_pelanggan_backend/internals/features/pelanggan/pelanggan/model"
	"pdam_pelanggan_backend/internals/features/referensi/units/dto"
	"pdam_pelanggan_backend/internals/features/referensi/units/model"
	"pdam_pelanggan_backend/internals/features/referensi/units/service"
	registrasiModel "pdam_pelanggan_backend/internals/features/registrasi/registrasi/model"
	helper "pdam_pelanggan_backend/internals/helpers"
	"pdam_pelanggan_backend/internals/testutil"
)

var allRows = helper.Params{Page: 1, PerPage: 100, SortBy: "nama", SortOrder: "asc"}

func TestUnitDelete(t *testing.T) {
	db := testutil.NewDB(t)
	fx := testutil.Seed(t, db)
	svc := service.NewUnitService(db, nil, zap.NewNop())
	ctx := context.Background()
	admin := fx.AdminSession()

	testutil.CreatePelanggan(t, db, "P0001", fx.Staff.ID, func(p *pelangganModel.PelangganModel) {
		p.RayonID = &fx.Rayon.ID
	})

	t.Run("unit in use cannot be deleted", func(t *testing.T) {
		got, err := svc.GetByID(ctx, model.KindRayon, fx.Rayon.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 1, got.TotalPelanggan)

		err = svc.Delete(ctx, admin, model.KindRayon, fx.Rayon.ID)
		assert.True(t, helper.IsKind(err, helper.KindConflict))

		_, err = svc.GetByID(ctx, model.KindRayon, fx.Rayon.ID)
		assert.NoError(t, err)
	})

	t.Run("unused unit is deleted and leaves listings", func(t *testing.T) {
		require.NoError(t, svc.Delete(ctx, admin, model.KindKelompok, fx.Kelompok.ID))

		items, total, err := svc.List(ctx, model.KindKelompok, dto.ListQuery{}, allRows)
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, items)

		_, err = svc.GetByID(ctx, model.KindKelompok, fx.Kelompok.ID)
		assert.True(t, helper.IsKind(err, helper.KindNotFound))
	})

	t.Run("kecamatan with desa cannot be deleted", func(t *testing.T) {
		err := svc.Delete(ctx, admin, model.KindKecamatan, fx.Kecamatan.ID)
		assert.True(t, helper.IsKind(err, helper.KindConflict))
	})

	t.Run("cabang with staff cannot be deleted", func(t *testing.T) {
		require.NoError(t, db.Model(&fx.Staff).Update("cabang_id", fx.Cabang.ID).Error)
		err := svc.Delete(ctx, admin, model.KindCabang, fx.Cabang.ID)
		assert.True(t, helper.IsKind(err, helper.KindConflict))
	})

	t.Run("non admin is forbidden", func(t *testing.T) {
		err := svc.Delete(ctx, fx.StaffSession(), model.KindGolongan, fx.Golongan.ID)
		assert.True(t, helper.IsKind(err, helper.KindForbidden))
	})
}

func TestUnitDeleteBlockedByPendingRegistrasi(t *testing.T) {
	db := testutil.NewDB(t)
	fx := testutil.Seed(t, db)
	svc := service.NewUnitService(db, nil, zap.NewNop())
	ctx := context.Background()
	admin := fx.AdminSession()

	// kecamatan tanpa desa: satu-satunya rujukan adalah registrasi
	kc := testutil.CreateUnit(t, db, model.KindKecamatan, "KC09", "Kecamatan Sepi", nil)
	reg := registrasiModel.RegistrasiModel{
		NoRegistrasi:  "REG-20260101-ABC123",
		NamaPelanggan: "Budi",
		NoTelpon:      "0812",
		Alamat:        "Jl. Cimanuk",
		Latitude:      -7.2278,
		Longitude:     107.9087,
		DesaID:        fx.Desa.ID,
		KecamatanID:   kc.ID,
		FotoRumahURL:  "https://cdn.test/rumah.webp",
		FotoKTPURL:    "https://cdn.test/ktp.webp",
		FotoKKURL:     "https://cdn.test/kk.webp",
		SubmittedBy:   &fx.Staff.ID,
	}
	require.NoError(t, db.Create(&reg).Error)

	err := svc.Delete(ctx, admin, model.KindDesa, fx.Desa.ID)
	assert.True(t, helper.IsKind(err, helper.KindConflict), "desa: %v", err)
	err = svc.Delete(ctx, admin, model.KindKecamatan, kc.ID)
	assert.True(t, helper.IsKind(err, helper.KindConflict), "kecamatan: %v", err)

	_, err = svc.GetByID(ctx, model.KindDesa, fx.Desa.ID)
	require.NoError(t, err)

	// registrasi yang sudah ditolak tidak lagi menahan penghapusan
	require.NoError(t, db.Model(&reg).Update("status", registrasiModel.StatusRejected).Error)
	require.NoError(t, svc.Delete(ctx, admin, model.KindDesa, fx.Desa.ID))
	require.NoError(t, svc.Delete(ctx, admin, model.KindKecamatan, kc.ID))
}

func TestUnitCreateAndToggle(t *testing.T) {
	db := testutil.NewDB(t)
	fx := testutil.Seed(t, db)
	cache := caches.NewMemoryCache()
	svc := service.NewUnitService(db, cache, zap.NewNop())
	ctx := context.Background()
	admin := fx.AdminSession()

	active, err := svc.ListActive(ctx, model.KindDesa)
	require.NoError(t, err)
	assert.Len(t, active, 2)
	assert.Contains(t, cache.Items, "active:desa")

	created, err := svc.Create(ctx, admin, model.KindDesa, dto.CreateUnitRequest{
		Kode:        " ds10 ",
		Nama:        "Sukajaya  Baru",
		KecamatanID: &fx.Kecamatan.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "DS10", created.Kode)
	assert.Equal(t, "Sukajaya Baru", created.Nama)
	assert.Equal(t, "assigned", created.KecamatanStatus)
	require.NotNil(t, created.KecamatanNama)
	assert.Equal(t, "Tarogong Kidul", *created.KecamatanNama)
	assert.NotContains(t, cache.Items, "active:desa", "mutation drops cached list")

	_, err = svc.Create(ctx, admin, model.KindDesa, dto.CreateUnitRequest{Kode: "DS10", Nama: "Duplikat"})
	assert.True(t, helper.IsKind(err, helper.KindConflict))

	_, err = svc.Create(ctx, admin, model.KindRayon, dto.CreateUnitRequest{Kode: "RY9", Nama: "X", KecamatanID: &fx.Kecamatan.ID})
	assert.True(t, helper.IsKind(err, helper.KindValidation))

	_, err = svc.Create(ctx, admin, model.KindGolongan, dto.CreateUnitRequest{Kode: "", Nama: ""})
	assert.True(t, helper.IsKind(err, helper.KindValidation))

	toggled, err := svc.ToggleStatus(ctx, admin, model.KindDesa, created.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)

	active, err = svc.ListActive(ctx, model.KindDesa)
	require.NoError(t, err)
	assert.Len(t, active, 2)

	inactive := false
	items, total, err := svc.List(ctx, model.KindDesa, dto.ListQuery{Active: &inactive}, allRows)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, created.ID, items[0].ID)
}

func TestUnitUpdateDesaKecamatan(t *testing.T) {
	db := testutil.NewDB(t)
	fx := testutil.Seed(t, db)
	svc := service.NewUnitService(db, nil, zap.NewNop())
	ctx := context.Background()
	admin := fx.AdminSession()

	got, err := svc.Update(ctx, admin, model.KindDesa, fx.DesaLepas.ID, dto.UpdateUnitRequest{KecamatanID: &fx.Kecamatan.ID})
	require.NoError(t, err)
	assert.Equal(t, "assigned", got.KecamatanStatus)

	got, err = svc.Update(ctx, admin, model.KindDesa, fx.DesaLepas.ID, dto.UpdateUnitRequest{ClearKecamatan: true})
	require.NoError(t, err)
	assert.Equal(t, "not_assigned", got.KecamatanStatus)
	assert.Nil(t, got.KecamatanID)

	q := "desa"
	items, _, err := svc.List(ctx, model.KindDesa, dto.ListQuery{Q: q}, allRows)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, fx.DesaLepas.ID, items[0].ID)
}

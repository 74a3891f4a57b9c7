package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pdam_pelanggan_backend/internals/features/pelanggan/pelanggan/dto"
	"pdam_pelanggan_backend/internals/features/pelanggan/pelanggan/model"
	"pdam_pelanggan_backend/internals/features/pelanggan/pelanggan/service"
	helper "pdam_pelanggan_backend/internals/helpers"
	"pdam_pelanggan_backend/internals/testutil"
)

func ptr[T any](v T) *T { return &v }

var firstPage = helper.Params{Page: 1, PerPage: 50, SortBy: "id_pelanggan", SortOrder: "asc"}

func TestCreateForUser(t *testing.T) {
	db := testutil.NewDB(t)
	fx := testutil.Seed(t, db)
	svc := service.NewPelangganService(db, nil, zap.NewNop())
	ctx := context.Background()
	admin := fx.AdminSession()

	t.Run("derives kecamatan and applies defaults", func(t *testing.T) {
		m, err := svc.CreateForUser(ctx, admin, fx.Staff.ID, dto.PelangganFields{
			IDPelanggan:       " P0500 ",
			NamaPelanggan:     "Budi",
			DesaID:            &fx.Desa.ID,
			KecamatanID:       &fx.Cabang.ID, // diabaikan karena desa dipilih
			JenisMeter:        ptr("Meter Normal"),
			TanggalPemasangan: ptr("2024-03-01"),
		})
		require.NoError(t, err)
		assert.Equal(t, "P0500", m.IDPelanggan)
		assert.Equal(t, fx.Staff.ID, m.UserID)
		require.NotNil(t, m.KecamatanID)
		assert.Equal(t, fx.Kecamatan.ID, *m.KecamatanID)
		assert.Equal(t, "bersih", m.KondisiLingkungan)
		assert.Equal(t, "jadwal harian", m.Kategori)
		assert.Equal(t, "aktif", m.StatusPelanggan)
		assert.Equal(t, 1, m.JumlahJiwa)
		assert.Equal(t, "meter normal", *m.JenisMeter)
	})

	t.Run("duplicate id_pelanggan conflicts", func(t *testing.T) {
		_, err := svc.CreateForUser(ctx, admin, fx.Staff.ID, dto.PelangganFields{IDPelanggan: "P0500", NamaPelanggan: "Lain"})
		assert.True(t, helper.IsKind(err, helper.KindConflict))
	})

	t.Run("required fields", func(t *testing.T) {
		_, err := svc.CreateForUser(ctx, admin, fx.Staff.ID, dto.PelangganFields{NamaPelanggan: "Tanpa ID"})
		assert.True(t, helper.IsKind(err, helper.KindValidation))
		_, err = svc.CreateForUser(ctx, admin, fx.Staff.ID, dto.PelangganFields{IDPelanggan: "P0501"})
		assert.True(t, helper.IsKind(err, helper.KindValidation))
	})

	t.Run("owner checks", func(t *testing.T) {
		_, err := svc.CreateForUser(ctx, admin, uuid.New(), dto.PelangganFields{IDPelanggan: "P0502", NamaPelanggan: "X"})
		assert.True(t, helper.IsKind(err, helper.KindNotFound))
		_, err = svc.CreateForUser(ctx, admin, fx.Inactive.ID, dto.PelangganFields{IDPelanggan: "P0502", NamaPelanggan: "X"})
		assert.True(t, helper.IsKind(err, helper.KindValidation))
	})

	t.Run("staff may only create for themselves", func(t *testing.T) {
		_, err := svc.CreateForUser(ctx, fx.StaffSession(), fx.Admin.ID, dto.PelangganFields{IDPelanggan: "P0503", NamaPelanggan: "X"})
		assert.True(t, helper.IsKind(err, helper.KindForbidden))
		m, err := svc.CreateForUser(ctx, fx.StaffSession(), fx.Staff.ID, dto.PelangganFields{IDPelanggan: "P0503", NamaPelanggan: "X"})
		require.NoError(t, err)
		assert.Equal(t, fx.Staff.ID, m.UserID)
	})

	t.Run("invalid enums and dates", func(t *testing.T) {
		_, err := svc.CreateForUser(ctx, admin, fx.Staff.ID, dto.PelangganFields{IDPelanggan: "P0504", NamaPelanggan: "X", JenisMeter: ptr("entah")})
		assert.True(t, helper.IsKind(err, helper.KindValidation))
		_, err = svc.CreateForUser(ctx, admin, fx.Staff.ID, dto.PelangganFields{IDPelanggan: "P0504", NamaPelanggan: "X", TanggalPemasangan: ptr("kemarin")})
		assert.True(t, helper.IsKind(err, helper.KindValidation))
		_, err = svc.CreateForUser(ctx, admin, fx.Staff.ID, dto.PelangganFields{IDPelanggan: "P0504", NamaPelanggan: "X", RayonID: ptr(uuid.New())})
		assert.True(t, helper.IsKind(err, helper.KindNotFound))
	})
}

func TestListScopeAndMarkers(t *testing.T) {
	db := testutil.NewDB(t)
	fx := testutil.Seed(t, db)
	svc := service.NewPelangganService(db, nil, zap.NewNop())
	ctx := context.Background()

	testutil.CreatePelanggan(t, db, "P0001", fx.Staff.ID, func(p *model.PelangganModel) {
		p.Latitude = ptr(-7.2278)
		p.Longitude = ptr(107.9087)
		p.DesaID = &fx.Desa.ID
	})
	testutil.CreatePelanggan(t, db, "P0002", fx.Admin.ID)
	testutil.CreatePelanggan(t, db, "P0003", fx.Inactive.ID)

	own, total, err := svc.List(ctx, fx.StaffSession(), dto.ListQuery{}, firstPage)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "P0001", own[0].IDPelanggan)
	require.NotNil(t, own[0].DesaNama)
	assert.Equal(t, "Sukagalih", *own[0].DesaNama)
	require.NotNil(t, own[0].OwnerName)

	// filter user_id diabaikan untuk role user
	own, _, err = svc.List(ctx, fx.StaffSession(), dto.ListQuery{UserID: &fx.Admin.ID}, firstPage)
	require.NoError(t, err)
	assert.Len(t, own, 1)

	all, total, err := svc.List(ctx, fx.AdminSession(), dto.ListQuery{}, firstPage)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, all, 3)

	orphans, _, err := svc.List(ctx, fx.AdminSession(), dto.ListQuery{Unassigned: true}, firstPage)
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	assert.Equal(t, "P0003", orphans[0].IDPelanggan)

	found, _, err := svc.List(ctx, fx.AdminSession(), dto.ListQuery{Q: "p0002"}, firstPage)
	require.NoError(t, err)
	require.Len(t, found, 1)

	markers, err := svc.Markers(ctx, fx.AdminSession(), dto.ListQuery{})
	require.NoError(t, err)
	require.Len(t, markers, 1)
	assert.InDelta(t, -7.2278, markers[0].Latitude, 1e-9)

	// urut id_pelanggan: P0002 milik admin
	require.Equal(t, "P0002", all[1].IDPelanggan)
	_, err = svc.Get(ctx, fx.StaffSession(), all[1].ID)
	assert.True(t, helper.IsKind(err, helper.KindForbidden))
}

func TestUpdateRederivesKecamatan(t *testing.T) {
	db := testutil.NewDB(t)
	fx := testutil.Seed(t, db)
	svc := service.NewPelangganService(db, nil, zap.NewNop())
	ctx := context.Background()

	p := testutil.CreatePelanggan(t, db, "P0001", fx.Staff.ID)
	testutil.CreatePelanggan(t, db, "P0002", fx.Staff.ID)

	got, err := svc.Update(ctx, fx.StaffSession(), p.ID, dto.UpdatePelangganRequest{DesaID: &fx.Desa.ID})
	require.NoError(t, err)
	require.NotNil(t, got.KecamatanID)
	assert.Equal(t, fx.Kecamatan.ID, *got.KecamatanID)

	got, err = svc.Update(ctx, fx.StaffSession(), p.ID, dto.UpdatePelangganRequest{DesaID: &fx.DesaLepas.ID})
	require.NoError(t, err)
	assert.Nil(t, got.KecamatanID, "desa without kecamatan leaves no stale kecamatan")

	got, err = svc.Update(ctx, fx.StaffSession(), p.ID, dto.UpdatePelangganRequest{ClearDesa: true, StatusPelanggan: ptr("Bongkar")})
	require.NoError(t, err)
	assert.Nil(t, got.DesaID)
	assert.Equal(t, "bongkar", got.StatusPelanggan)

	_, err = svc.Update(ctx, fx.StaffSession(), p.ID, dto.UpdatePelangganRequest{IDPelanggan: ptr("P0002")})
	assert.True(t, helper.IsKind(err, helper.KindConflict))
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	db := testutil.NewDB(t)
	fx := testutil.Seed(t, db)
	svc := service.NewPelangganService(db, nil, zap.NewNop())
	ctx := context.Background()

	a := testutil.CreatePelanggan(t, db, "P0001", fx.Staff.ID)
	b := testutil.CreatePelanggan(t, db, "P0002", fx.Staff.ID)

	err := svc.Delete(ctx, fx.AdminSession(), a.ID, false)
	assert.True(t, helper.IsKind(err, helper.KindValidation))

	require.NoError(t, svc.Delete(ctx, fx.AdminSession(), a.ID, true))
	err = svc.Delete(ctx, fx.AdminSession(), a.ID, true)
	assert.True(t, helper.IsKind(err, helper.KindNotFound))

	_, err = svc.BulkDelete(ctx, fx.AdminSession(), []string{b.ID.String()}, false)
	assert.True(t, helper.IsKind(err, helper.KindValidation))

	missing := uuid.NewString()
	res, err := svc.BulkDelete(ctx, fx.AdminSession(), []string{b.ID.String(), missing, "rusak"}, true)
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Deleted)
	assert.Equal(t, []string{missing}, res.NotFound)
	assert.Equal(t, []string{"rusak"}, res.Invalid)
}

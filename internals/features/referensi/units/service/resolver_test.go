package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdam_pelanggan_backend/internals/features/referensi/units/model"
	"pdam_pelanggan_backend/internals/features/referensi/units/service"
	helper "pdam_pelanggan_backend/internals/helpers"
	"pdam_pelanggan_backend/internals/testutil"
)

func TestResolveKecamatan(t *testing.T) {
	db := testutil.NewDB(t)
	fx := testutil.Seed(t, db)
	r := service.NewResolver(db)
	ctx := context.Background()

	t.Run("assigned desa is deterministic", func(t *testing.T) {
		first, err := r.ResolveKecamatan(ctx, fx.Desa.ID)
		require.NoError(t, err)
		second, err := r.ResolveKecamatan(ctx, fx.Desa.ID)
		require.NoError(t, err)

		assert.Equal(t, service.ResolutionAssigned, first.Status)
		require.NotNil(t, first.KecamatanID)
		assert.Equal(t, fx.Kecamatan.ID, *first.KecamatanID)
		assert.Equal(t, "Tarogong Kidul", first.KecamatanNama)
		assert.Equal(t, first, second)
	})

	t.Run("desa without kecamatan reports not assigned", func(t *testing.T) {
		first, err := r.ResolveKecamatan(ctx, fx.DesaLepas.ID)
		require.NoError(t, err)
		second, err := r.ResolveKecamatan(ctx, fx.DesaLepas.ID)
		require.NoError(t, err)

		assert.Equal(t, service.ResolutionNotAssigned, first.Status)
		assert.Nil(t, first.KecamatanID)
		assert.Equal(t, first, second)

		_, err = first.RequireKecamatan()
		assert.True(t, helper.IsKind(err, helper.KindValidation))
	})

	t.Run("cleared desa clears kecamatan", func(t *testing.T) {
		res, err := r.ResolveKecamatan(ctx, uuid.Nil)
		require.NoError(t, err)
		assert.Equal(t, service.ResolutionCleared, res.Status)
		assert.Nil(t, res.KecamatanID)
		assert.Nil(t, res.DesaID)
	})

	t.Run("unknown desa is not found", func(t *testing.T) {
		_, err := r.ResolveKecamatan(ctx, uuid.New())
		assert.True(t, helper.IsKind(err, helper.KindNotFound))
	})

	t.Run("optional resolution", func(t *testing.T) {
		kec, err := r.ResolveOptional(ctx, nil)
		require.NoError(t, err)
		assert.Nil(t, kec)

		kec, err = r.ResolveOptional(ctx, &fx.Desa.ID)
		require.NoError(t, err)
		require.NotNil(t, kec)
		assert.Equal(t, fx.Kecamatan.ID, *kec)
	})
}

func TestEnsureRefs(t *testing.T) {
	db := testutil.NewDB(t)
	fx := testutil.Seed(t, db)
	r := service.NewResolver(db)
	ctx := context.Background()

	require.NoError(t, r.EnsureRefs(ctx, service.UnitRefs{
		CabangID: &fx.Cabang.ID,
		DesaID:   &fx.Desa.ID,
		RayonID:  &fx.Rayon.ID,
	}))

	missing := uuid.New()
	err := r.EnsureRefs(ctx, service.UnitRefs{GolonganID: &missing})
	assert.True(t, helper.IsKind(err, helper.KindNotFound))

	err = r.EnsureExists(ctx, model.KindKelompok, &missing)
	assert.True(t, helper.IsKind(err, helper.KindNotFound))
}

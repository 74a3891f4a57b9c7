package service_test

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	pelangganModel "pdam_pelanggan_backend/internals/features/pelanggan/pelanggan/model"
	"pdam_pelanggan_backend/internals/features/registrasi/registrasi/dto"
	"pdam_pelanggan_backend/internals/features/registrasi/registrasi/model"
	"pdam_pelanggan_backend/internals/features/registrasi/registrasi/service"
	helper "pdam_pelanggan_backend/internals/helpers"
	"pdam_pelanggan_backend/internals/testutil"
)

/* ====================== fakes ====================== */

type fakeStorage struct {
	mu       sync.Mutex
	uploaded []string
	deleted  []string
	failOn   string
}

func (f *fakeStorage) Upload(_ context.Context, folder string, up helper.Upload) (string, error) {
	if f.failOn != "" && up.Filename == f.failOn {
		return "", errors.New("storage down")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	url := "https://files.test/" + folder + "/" + up.Filename
	f.uploaded = append(f.uploaded, url)
	return url, nil
}

func (f *fakeStorage) Delete(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, url)
	return nil
}

type recordingNotifier struct {
	approved chan string
	rejected chan string
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{approved: make(chan string, 4), rejected: make(chan string, 4)}
}

func (n *recordingNotifier) Approved(_ context.Context, r model.RegistrasiModel, idPelanggan string) error {
	n.approved <- r.NoRegistrasi + ":" + idPelanggan
	return nil
}

func (n *recordingNotifier) Rejected(_ context.Context, r model.RegistrasiModel) error {
	n.rejected <- r.NoRegistrasi
	return nil
}

/* ====================== helpers ====================== */

func ptr[T any](v T) *T { return &v }

func newService(db *gorm.DB, storage helper.FileStorage, notifier service.Notifier) *service.RegistrasiService {
	return service.NewRegistrasiService(db, nil, storage, notifier, zap.NewNop())
}

func validSubmit(desaID uuid.UUID) dto.SubmitRequest {
	return dto.SubmitRequest{
		NamaPelanggan: "Asep Sunandar",
		Email:         ptr("asep@example.com"),
		NoTelpon:      "081234567890",
		Alamat:        "Kp. Sukagalih RT 01/02",
		Latitude:      ptr(-7.2278),
		Longitude:     ptr(107.9087),
		DesaID:        desaID.String(),
		FotoRumahURL:  "https://files.test/rumah.webp",
		FotoKTPURL:    "https://files.test/ktp.webp",
		FotoKKURL:     "https://files.test/kk.webp",
	}
}

func countPelanggan(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&pelangganModel.PelangganModel{}).Count(&n).Error)
	return n
}

func statusOf(t *testing.T, db *gorm.DB, id uuid.UUID) string {
	t.Helper()
	var r model.RegistrasiModel
	require.NoError(t, db.Where("id = ?", id).Take(&r).Error)
	return r.Status
}

/* ====================== tests ====================== */

func TestGenerateNoRegistrasi(t *testing.T) {
	no, err := service.GenerateNoRegistrasi(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^REG-20240701-[0-9A-F]{6}$`), no)
}

func TestSubmitThenApproveScenario(t *testing.T) {
	db := testutil.NewDB(t)
	fx := testutil.Seed(t, db)
	notifier := newRecordingNotifier()
	svc := newService(db, nil, notifier)
	ctx := context.Background()

	staffID := fx.Staff.ID
	sub, err := svc.Submit(ctx, &staffID, validSubmit(fx.Desa.ID), dto.Documents{})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, sub.Status)
	assert.Equal(t, fx.Kecamatan.ID, sub.KecamatanID)
	assert.NotEmpty(t, sub.NoRegistrasi)
	assert.Zero(t, countPelanggan(t, db), "submit never creates a customer")

	res, err := svc.Approve(ctx, fx.AdminSession(), sub.ID, dto.ApproveRequest{
		IDPelanggan: "P0099",
		JenisMeter:  "bisa di layani",
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, res.Registrasi.Status)
	require.NotNil(t, res.Registrasi.PelangganID)
	assert.Equal(t, res.Pelanggan.ID, *res.Registrasi.PelangganID)

	var all []pelangganModel.PelangganModel
	require.NoError(t, db.Find(&all).Error)
	require.Len(t, all, 1)
	p := all[0]
	assert.Equal(t, "P0099", p.IDPelanggan)
	assert.Equal(t, fx.Desa.ID, *p.DesaID)
	assert.Equal(t, fx.Kecamatan.ID, *p.KecamatanID)
	assert.Equal(t, "aktif", p.StatusPelanggan)
	assert.Equal(t, "bisa di layani", *p.JenisMeter)
	assert.Equal(t, "bersih", p.KondisiLingkungan)
	assert.Equal(t, "jadwal harian", p.Kategori)
	assert.Equal(t, fx.Staff.ID, p.UserID, "owner defaults to the submitting staff")
	assert.Equal(t, sub.ID, *p.RegistrasiID)

	var stored model.RegistrasiModel
	require.NoError(t, db.Where("id = ?", sub.ID).Take(&stored).Error)
	assert.Equal(t, model.StatusApproved, stored.Status)
	assert.Equal(t, fx.Admin.ID, *stored.ReviewedBy)
	assert.NotNil(t, stored.ReviewedAt)

	select {
	case got := <-notifier.approved:
		assert.Equal(t, sub.NoRegistrasi+":P0099", got)
	case <-time.After(2 * time.Second):
		t.Fatal("applicant was not notified")
	}
}

func TestApproveDuplicateIDPelangganKeepsPending(t *testing.T) {
	db := testutil.NewDB(t)
	fx := testutil.Seed(t, db)
	svc := newService(db, nil, nil)
	ctx := context.Background()
	testutil.CreatePelanggan(t, db, "P0099", fx.Admin.ID)

	staffID := fx.Staff.ID
	sub, err := svc.Submit(ctx, &staffID, validSubmit(fx.Desa.ID), dto.Documents{})
	require.NoError(t, err)

	_, err = svc.Approve(ctx, fx.AdminSession(), sub.ID, dto.ApproveRequest{IDPelanggan: "P0099", JenisMeter: "meter normal"})
	assert.True(t, helper.IsKind(err, helper.KindConflict))
	assert.Equal(t, model.StatusPending, statusOf(t, db, sub.ID))
	assert.EqualValues(t, 1, countPelanggan(t, db))
}

func TestApproveValidation(t *testing.T) {
	db := testutil.NewDB(t)
	fx := testutil.Seed(t, db)
	svc := newService(db, nil, nil)
	ctx := context.Background()

	staffID := fx.Staff.ID
	sub, err := svc.Submit(ctx, &staffID, validSubmit(fx.Desa.ID), dto.Documents{})
	require.NoError(t, err)

	cases := []struct {
		name string
		req  dto.ApproveRequest
		kind helper.ErrorKind
	}{
		{"missing id_pelanggan", dto.ApproveRequest{JenisMeter: "meter normal"}, helper.KindValidation},
		{"blank id_pelanggan", dto.ApproveRequest{IDPelanggan: "   ", JenisMeter: "meter normal"}, helper.KindValidation},
		{"missing jenis_meter", dto.ApproveRequest{IDPelanggan: "P1"}, helper.KindValidation},
		{"unknown jenis_meter", dto.ApproveRequest{IDPelanggan: "P1", JenisMeter: "meter ajaib"}, helper.KindValidation},
		{"unknown status", dto.ApproveRequest{IDPelanggan: "P1", JenisMeter: "meter normal", StatusPelanggan: ptr("hilang")}, helper.KindValidation},
		{"bad date", dto.ApproveRequest{IDPelanggan: "P1", JenisMeter: "meter normal", TanggalPemasangan: ptr("besok")}, helper.KindValidation},
		{"unknown rayon", dto.ApproveRequest{IDPelanggan: "P1", JenisMeter: "meter normal", RayonID: ptr(uuid.New())}, helper.KindNotFound},
		{"unknown owner", dto.ApproveRequest{IDPelanggan: "P1", JenisMeter: "meter normal", OwnerUserID: ptr(uuid.New())}, helper.KindNotFound},
		{"inactive owner", dto.ApproveRequest{IDPelanggan: "P1", JenisMeter: "meter normal", OwnerUserID: &fx.Inactive.ID}, helper.KindValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Approve(ctx, fx.AdminSession(), sub.ID, tc.req)
			assert.True(t, helper.IsKind(err, tc.kind), "got %v", err)
			assert.Equal(t, model.StatusPending, statusOf(t, db, sub.ID))
			assert.Zero(t, countPelanggan(t, db))
		})
	}

	_, err = svc.Approve(ctx, fx.StaffSession(), sub.ID, dto.ApproveRequest{IDPelanggan: "P1", JenisMeter: "meter normal"})
	assert.True(t, helper.IsKind(err, helper.KindForbidden))

	_, err = svc.Approve(ctx, fx.AdminSession(), uuid.New(), dto.ApproveRequest{IDPelanggan: "P1", JenisMeter: "meter normal"})
	assert.True(t, helper.IsKind(err, helper.KindNotFound))
}

func TestApproveSelfServiceNeedsOwner(t *testing.T) {
	db := testutil.NewDB(t)
	fx := testutil.Seed(t, db)
	svc := newService(db, nil, nil)
	ctx := context.Background()

	sub, err := svc.Submit(ctx, nil, validSubmit(fx.Desa.ID), dto.Documents{})
	require.NoError(t, err)

	_, err = svc.Approve(ctx, fx.AdminSession(), sub.ID, dto.ApproveRequest{IDPelanggan: "P0200", JenisMeter: "meter normal"})
	assert.True(t, helper.IsKind(err, helper.KindValidation))
	assert.Equal(t, model.StatusPending, statusOf(t, db, sub.ID))

	res, err := svc.Approve(ctx, fx.AdminSession(), sub.ID, dto.ApproveRequest{
		IDPelanggan:     "P0200",
		JenisMeter:      "Meter Normal",
		OwnerUserID:     &fx.Staff.ID,
		RayonID:         &fx.Rayon.ID,
		StatusPelanggan: ptr("daftar pemasangan"),
		Kategori:        ptr("  "),
	})
	require.NoError(t, err)
	assert.Equal(t, fx.Staff.ID, res.Pelanggan.UserID)
	assert.Equal(t, "daftar pemasangan", res.Pelanggan.StatusPelanggan)
	assert.Equal(t, "jadwal harian", res.Pelanggan.Kategori)
	assert.Equal(t, fx.Rayon.ID, *res.Pelanggan.RayonID)
}

func TestRejectFlow(t *testing.T) {
	db := testutil.NewDB(t)
	fx := testutil.Seed(t, db)
	notifier := newRecordingNotifier()
	svc := newService(db, nil, notifier)
	ctx := context.Background()

	sub, err := svc.Submit(ctx, nil, validSubmit(fx.Desa.ID), dto.Documents{})
	require.NoError(t, err)

	_, err = svc.Reject(ctx, fx.AdminSession(), sub.ID, dto.RejectRequest{RejectedReason: "   "})
	assert.True(t, helper.IsKind(err, helper.KindValidation))
	assert.Equal(t, model.StatusPending, statusOf(t, db, sub.ID))

	_, err = svc.Reject(ctx, fx.StaffSession(), sub.ID, dto.RejectRequest{RejectedReason: "Dokumen buram"})
	assert.True(t, helper.IsKind(err, helper.KindForbidden))

	r, err := svc.Reject(ctx, fx.AdminSession(), sub.ID, dto.RejectRequest{RejectedReason: " Dokumen buram "})
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, r.Status)
	assert.Equal(t, "Dokumen buram", *r.RejectedReason)

	select {
	case got := <-notifier.rejected:
		assert.Equal(t, sub.NoRegistrasi, got)
	case <-time.After(2 * time.Second):
		t.Fatal("applicant was not notified")
	}

	// terminal: tidak bisa di-approve atau di-reject lagi
	_, err = svc.Approve(ctx, fx.AdminSession(), sub.ID, dto.ApproveRequest{IDPelanggan: "P0300", JenisMeter: "meter normal", OwnerUserID: &fx.Staff.ID})
	assert.True(t, helper.IsKind(err, helper.KindInvalidState))
	_, err = svc.Reject(ctx, fx.AdminSession(), sub.ID, dto.RejectRequest{RejectedReason: "lagi"})
	assert.True(t, helper.IsKind(err, helper.KindInvalidState))
	assert.Equal(t, model.StatusRejected, statusOf(t, db, sub.ID))
	assert.Zero(t, countPelanggan(t, db))
}

func TestApprovedIsTerminal(t *testing.T) {
	db := testutil.NewDB(t)
	fx := testutil.Seed(t, db)
	svc := newService(db, nil, nil)
	ctx := context.Background()

	staffID := fx.Staff.ID
	sub, err := svc.Submit(ctx, &staffID, validSubmit(fx.Desa.ID), dto.Documents{})
	require.NoError(t, err)
	_, err = svc.Approve(ctx, fx.AdminSession(), sub.ID, dto.ApproveRequest{IDPelanggan: "P0400", JenisMeter: "meter normal"})
	require.NoError(t, err)

	_, err = svc.Approve(ctx, fx.AdminSession(), sub.ID, dto.ApproveRequest{IDPelanggan: "P0401", JenisMeter: "meter normal"})
	assert.True(t, helper.IsKind(err, helper.KindInvalidState))
	_, err = svc.Reject(ctx, fx.AdminSession(), sub.ID, dto.RejectRequest{RejectedReason: "salah"})
	assert.True(t, helper.IsKind(err, helper.KindInvalidState))
	assert.EqualValues(t, 1, countPelanggan(t, db))
}

func TestConcurrentApproveOnlyOneWins(t *testing.T) {
	db := testutil.NewDB(t)
	fx := testutil.Seed(t, db)
	svc := newService(db, nil, nil)
	ctx := context.Background()

	staffID := fx.Staff.ID
	sub, err := svc.Submit(ctx, &staffID, validSubmit(fx.Desa.ID), dto.Documents{})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Approve(ctx, fx.AdminSession(), sub.ID, dto.ApproveRequest{
				IDPelanggan: []string{"P0500", "P0501"}[i],
				JenisMeter:  "meter normal",
			})
		}(i)
	}
	wg.Wait()

	ok, invalid := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case helper.IsKind(err, helper.KindInvalidState):
			invalid++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, invalid)
	assert.EqualValues(t, 1, countPelanggan(t, db))
}

func TestSubmitValidation(t *testing.T) {
	db := testutil.NewDB(t)
	fx := testutil.Seed(t, db)
	svc := newService(db, nil, nil)
	ctx := context.Background()

	t.Run("coordinates required", func(t *testing.T) {
		req := validSubmit(fx.Desa.ID)
		req.Latitude = nil
		_, err := svc.Submit(ctx, nil, req, dto.Documents{})
		assert.True(t, helper.IsKind(err, helper.KindValidation))

		req = validSubmit(fx.Desa.ID)
		req.Longitude = ptr(200.0)
		_, err = svc.Submit(ctx, nil, req, dto.Documents{})
		assert.True(t, helper.IsKind(err, helper.KindValidation))
	})

	t.Run("desa must resolve to a kecamatan", func(t *testing.T) {
		_, err := svc.Submit(ctx, nil, validSubmit(fx.DesaLepas.ID), dto.Documents{})
		assert.True(t, helper.IsKind(err, helper.KindValidation))

		_, err = svc.Submit(ctx, nil, validSubmit(uuid.New()), dto.Documents{})
		require.True(t, helper.IsKind(err, helper.KindValidation), "desa tak dikenal: %v", err)
		assert.Contains(t, helper.AsAppError(err).Fields, "desa_id")

		req := validSubmit(fx.Desa.ID)
		req.DesaID = ""
		_, err = svc.Submit(ctx, nil, req, dto.Documents{})
		assert.True(t, helper.IsKind(err, helper.KindValidation))
	})

	t.Run("all documents required", func(t *testing.T) {
		req := validSubmit(fx.Desa.ID)
		req.FotoKTPURL = ""
		req.FotoKKURL = ""
		_, err := svc.Submit(ctx, nil, req, dto.Documents{})
		require.True(t, helper.IsKind(err, helper.KindValidation))
		ae := helper.AsAppError(err)
		assert.Contains(t, ae.Fields, "foto_ktp")
		assert.Contains(t, ae.Fields, "foto_kk")
		assert.NotContains(t, ae.Fields, "foto_rumah")
	})

	t.Run("jumlah_jiwa minimum one", func(t *testing.T) {
		req := validSubmit(fx.Desa.ID)
		req.JumlahJiwa = ptr(0)
		_, err := svc.Submit(ctx, nil, req, dto.Documents{})
		assert.True(t, helper.IsKind(err, helper.KindValidation))
	})

	var n int64
	require.NoError(t, db.Model(&model.RegistrasiModel{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestSubmitUploadsDocuments(t *testing.T) {
	db := testutil.NewDB(t)
	fx := testutil.Seed(t, db)
	ctx := context.Background()

	docs := dto.Documents{
		Rumah: helper.Upload{Filename: "rumah.jpg", ContentType: "image/jpeg", Data: []byte("r")},
		KTP:   helper.Upload{Filename: "ktp.jpg", ContentType: "image/jpeg", Data: []byte("k")},
		KK:    helper.Upload{Filename: "kk.pdf", ContentType: "application/pdf", Data: []byte("%PDF")},
	}
	req := validSubmit(fx.Desa.ID)
	req.FotoRumahURL, req.FotoKTPURL, req.FotoKKURL = "", "", ""

	t.Run("success", func(t *testing.T) {
		storage := &fakeStorage{}
		svc := newService(db, storage, nil)
		sub, err := svc.Submit(ctx, nil, req, docs)
		require.NoError(t, err)
		assert.Len(t, storage.uploaded, 3)

		var r model.RegistrasiModel
		require.NoError(t, db.Where("id = ?", sub.ID).Take(&r).Error)
		assert.Equal(t, "https://files.test/registrasi/rumah.jpg", r.FotoRumahURL)
		assert.Equal(t, "https://files.test/registrasi/kk.pdf", r.FotoKKURL)
		assert.Equal(t, 1, r.JumlahJiwa)
	})

	t.Run("upload failure persists nothing", func(t *testing.T) {
		var before int64
		require.NoError(t, db.Model(&model.RegistrasiModel{}).Count(&before).Error)

		storage := &fakeStorage{failOn: "ktp.jpg"}
		svc := newService(db, storage, nil)
		_, err := svc.Submit(ctx, nil, req, docs)
		assert.True(t, helper.IsKind(err, helper.KindUpstream))

		var after int64
		require.NoError(t, db.Model(&model.RegistrasiModel{}).Count(&after).Error)
		assert.Equal(t, before, after)
		assert.ElementsMatch(t, storage.uploaded, storage.deleted, "uploaded files are cleaned up")
	})

	t.Run("no storage configured", func(t *testing.T) {
		svc := newService(db, nil, nil)
		_, err := svc.Submit(ctx, nil, req, docs)
		assert.True(t, helper.IsKind(err, helper.KindUpstream))
	})
}

func TestListCountsAndTracking(t *testing.T) {
	db := testutil.NewDB(t)
	fx := testutil.Seed(t, db)
	svc := newService(db, nil, nil)
	ctx := context.Background()
	staffID := fx.Staff.ID

	var ids []uuid.UUID
	var nos []string
	for i := 0; i < 3; i++ {
		req := validSubmit(fx.Desa.ID)
		req.NamaPelanggan = []string{"Asep", "Budi", "Cucu"}[i]
		var by *uuid.UUID
		if i > 0 {
			by = &staffID
		}
		sub, err := svc.Submit(ctx, by, req, dto.Documents{})
		require.NoError(t, err)
		ids = append(ids, sub.ID)
		nos = append(nos, sub.NoRegistrasi)
	}
	_, err := svc.Approve(ctx, fx.AdminSession(), ids[1], dto.ApproveRequest{IDPelanggan: "P0600", JenisMeter: "meter normal"})
	require.NoError(t, err)
	_, err = svc.Reject(ctx, fx.AdminSession(), ids[2], dto.RejectRequest{RejectedReason: "Di luar area layanan"})
	require.NoError(t, err)

	page := helper.Params{Page: 1, PerPage: 20, SortBy: "nama_pelanggan", SortOrder: "asc"}

	pending, total, err := svc.List(ctx, fx.AdminSession(), dto.ListQuery{Status: "pending"}, page)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, pending, 1)
	assert.Equal(t, "Asep", pending[0].NamaPelanggan)
	require.NotNil(t, pending[0].KecamatanNama)
	assert.Equal(t, "Tarogong Kidul", *pending[0].KecamatanNama)

	counts, err := svc.Counts(ctx, fx.AdminSession())
	require.NoError(t, err)
	assert.Equal(t, dto.StatusCounts{Pending: 1, Approved: 1, Rejected: 1, Total: 3}, counts)

	// staf hanya melihat pengajuannya sendiri
	own, total, err := svc.List(ctx, fx.StaffSession(), dto.ListQuery{}, page)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, own, 2)
	staffCounts, err := svc.Counts(ctx, fx.StaffSession())
	require.NoError(t, err)
	assert.EqualValues(t, 2, staffCounts.Total)
	assert.Zero(t, staffCounts.Pending)

	_, err = svc.Get(ctx, fx.StaffSession(), ids[0])
	assert.True(t, helper.IsKind(err, helper.KindForbidden))

	_, _, err = svc.List(ctx, fx.AdminSession(), dto.ListQuery{Status: "ditunda"}, page)
	assert.True(t, helper.IsKind(err, helper.KindValidation))

	tr, err := svc.Track(ctx, strings.ToLower(nos[2]))
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, tr.Status)
	assert.Equal(t, "C***", tr.NamaPelanggan)
	require.NotNil(t, tr.RejectedReason)

	_, err = svc.Track(ctx, "REG-00000000-XXXXXX")
	assert.True(t, helper.IsKind(err, helper.KindNotFound))
}

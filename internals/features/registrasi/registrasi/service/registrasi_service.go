package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"pdam_pelanggan_backend/internals/constants"
	pelangganModel "pdam_pelanggan_backend/internals/features/pelanggan/pelanggan/model"
	pelangganService "pdam_pelanggan_backend/internals/features/pelanggan/pelanggan/service"
	unitModel "pdam_pelanggan_backend/internals/features/referensi/units/model"
	unitService "pdam_pelanggan_backend/internals/features/referensi/units/service"
	"pdam_pelanggan_backend/internals/features/registrasi/registrasi/dto"
	"pdam_pelanggan_backend/internals/features/registrasi/registrasi/model"
	staffModel "pdam_pelanggan_backend/internals/features/users/staff/model"
	staffService "pdam_pelanggan_backend/internals/features/users/staff/service"
	helper "pdam_pelanggan_backend/internals/helpers"
	helperAuth "pdam_pelanggan_backend/internals/helpers/auth"
	"pdam_pelanggan_backend/internals/metrics"
)

const (
	notifyTimeout  = 30 * time.Second
	documentFolder = "registrasi"
)

type RegistrasiService struct {
	DB       *gorm.DB
	Resolver *unitService.Resolver
	Storage  helper.FileStorage
	Notifier Notifier
	Log      *zap.Logger
	Now      func() time.Time
}

func NewRegistrasiService(db *gorm.DB, resolver *unitService.Resolver, storage helper.FileStorage, notifier Notifier, log *zap.Logger) *RegistrasiService {
	if log == nil {
		log = zap.NewNop()
	}
	if resolver == nil {
		resolver = unitService.NewResolver(db)
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &RegistrasiService{
		DB:       db,
		Resolver: resolver,
		Storage:  storage,
		Notifier: notifier,
		Log:      log,
		Now:      time.Now,
	}
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	return strings.ToLower(string(helper.AsAppError(err).Kind))
}

/* ====================== SUBMIT ====================== */

type docSlot struct {
	field string
	url   string
	up    helper.Upload
}

// resolveDocuments: file multipart diunggah paralel; URL dipakai apa adanya.
// Jika satu upload gagal, file yang sudah terunggah dihapus kembali.
func (s *RegistrasiService) resolveDocuments(ctx context.Context, slots []docSlot) ([]string, error) {
	missing := map[string][]string{}
	needUpload := false
	for _, sl := range slots {
		switch {
		case !sl.up.Empty():
			needUpload = true
		case sl.url == "":
			missing[sl.field] = []string{"wajib diunggah"}
		}
	}
	if len(missing) > 0 {
		return nil, &helper.AppError{Kind: helper.KindValidation, Message: "Dokumen belum lengkap", Fields: missing}
	}

	urls := make([]string, len(slots))
	uploaded := make([]bool, len(slots))
	if needUpload && s.Storage == nil {
		return nil, helper.ErrUpstream(errors.New("file storage belum dikonfigurasi"), "Penyimpanan dokumen tidak tersedia")
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, sl := range slots {
		if sl.up.Empty() {
			urls[i] = sl.url
			continue
		}
		i, sl := i, sl
		g.Go(func() error {
			u, err := s.Storage.Upload(gctx, documentFolder, sl.up)
			if err != nil {
				return errors.Wrapf(err, "upload %s", sl.field)
			}
			urls[i] = u
			uploaded[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.discard(urls, uploaded)
		if helper.IsKind(err, helper.KindValidation) {
			return nil, err
		}
		return nil, helper.ErrUpstream(err, "Gagal mengunggah dokumen, silakan coba lagi")
	}
	return urls, nil
}

// discard: hapus file yang sempat terunggah (best-effort).
func (s *RegistrasiService) discard(urls []string, uploaded []bool) {
	for i, ok := range uploaded {
		if !ok || urls[i] == "" {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := s.Storage.Delete(ctx, urls[i]); err != nil {
			s.Log.Warn("gagal menghapus dokumen yatim", zap.String("url", urls[i]), zap.Error(err))
		}
		cancel()
	}
}

// Submit membuat registrasi pending. Tidak pernah membuat pelanggan.
// submittedBy nil = pendaftaran mandiri lewat form publik.
func (s *RegistrasiService) Submit(ctx context.Context, submittedBy *uuid.UUID, req dto.SubmitRequest, docs dto.Documents) (dto.SubmitResponse, error) {
	req.Normalize()
	if err := helper.ValidateStruct(req); err != nil {
		metrics.RegistrasiTransition("submit", resultLabel(err))
		return dto.SubmitResponse{}, err
	}
	desaID, err := uuid.Parse(req.DesaID)
	if err != nil {
		err = helper.ErrValidationField("desa_id", "harus UUID")
		metrics.RegistrasiTransition("submit", resultLabel(err))
		return dto.SubmitResponse{}, err
	}
	res, err := s.Resolver.ResolveKecamatan(ctx, desaID)
	if err != nil {
		// desa tak dikenal = input salah, bukan resource yang dicari
		if helper.IsKind(err, helper.KindNotFound) {
			err = helper.ErrValidationField("desa_id", "Desa tidak ditemukan")
		}
		metrics.RegistrasiTransition("submit", resultLabel(err))
		return dto.SubmitResponse{}, err
	}
	kecamatanID, err := res.RequireKecamatan()
	if err != nil {
		metrics.RegistrasiTransition("submit", resultLabel(err))
		return dto.SubmitResponse{}, err
	}

	slots := []docSlot{
		{field: "foto_rumah", url: req.FotoRumahURL, up: docs.Rumah},
		{field: "foto_ktp", url: req.FotoKTPURL, up: docs.KTP},
		{field: "foto_kk", url: req.FotoKKURL, up: docs.KK},
	}
	urls, err := s.resolveDocuments(ctx, slots)
	if err != nil {
		metrics.RegistrasiTransition("submit", resultLabel(err))
		return dto.SubmitResponse{}, err
	}

	jiwa := 1
	if req.JumlahJiwa != nil {
		jiwa = *req.JumlahJiwa
	}
	m := model.RegistrasiModel{
		NamaPelanggan:     req.NamaPelanggan,
		Email:             req.Email,
		NoTelpon:          req.NoTelpon,
		Alamat:            req.Alamat,
		Latitude:          *req.Latitude,
		Longitude:         *req.Longitude,
		JumlahJiwa:        jiwa,
		DesaID:            desaID,
		KecamatanID:       kecamatanID,
		CatatanRegistrasi: req.CatatanRegistrasi,
		FotoRumahURL:      urls[0],
		FotoKTPURL:        urls[1],
		FotoKKURL:         urls[2],
		SubmittedBy:       submittedBy,
		Status:            model.StatusPending,
	}

	if err := s.insertWithNumber(ctx, &m); err != nil {
		uploaded := make([]bool, len(slots))
		for i, sl := range slots {
			uploaded[i] = !sl.up.Empty()
		}
		s.discard(urls, uploaded)
		metrics.RegistrasiTransition("submit", resultLabel(err))
		return dto.SubmitResponse{}, err
	}

	metrics.RegistrasiTransition("submit", "ok")
	s.Log.Info("registrasi diajukan",
		zap.String("no_registrasi", m.NoRegistrasi),
		zap.Stringer("desa_id", desaID),
		zap.Bool("mandiri", submittedBy == nil),
	)
	return dto.SubmitResponse{
		ID:           m.ID,
		NoRegistrasi: m.NoRegistrasi,
		Status:       m.Status,
		KecamatanID:  m.KecamatanID,
	}, nil
}

// insertWithNumber: nomor registrasi dibuat ulang bila bentrok unique index.
func (s *RegistrasiService) insertWithNumber(ctx context.Context, m *model.RegistrasiModel) error {
	db := s.DB.WithContext(ctx)
	for attempt := 0; attempt < noRegistrasiAttempts; attempt++ {
		no, err := GenerateNoRegistrasi(s.Now())
		if err != nil {
			return helper.ErrUpstream(err, "Gagal membuat nomor registrasi")
		}
		m.NoRegistrasi = no
		err = db.Create(m).Error
		if err == nil {
			return nil
		}
		if !helper.IsUniqueViolation(err) {
			return helper.DBError(err, "")
		}
		s.Log.Warn("no_registrasi bentrok, generate ulang", zap.String("no", no), zap.Int("attempt", attempt+1))
		m.ID = uuid.Nil
	}
	return helper.ErrConflict("Gagal membuat nomor registrasi unik, silakan coba lagi")
}

/* ====================== APPROVE / REJECT ====================== */

func (s *RegistrasiService) notify(action string, r model.RegistrasiModel, send func(context.Context) error) {
	if r.Email == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := send(ctx); err != nil {
			s.Log.Warn("gagal mengirim notifikasi registrasi",
				zap.String("action", action),
				zap.String("no_registrasi", r.NoRegistrasi),
				zap.Error(err),
			)
		}
	}()
}

// Approve: pending → approved dan pelanggan baru dibuat dalam satu transaksi.
// Precondition pending dijaga UPDATE bersyarat; 0 baris → INVALID_STATE + rollback.
func (s *RegistrasiService) Approve(ctx context.Context, sess helperAuth.Session, id uuid.UUID, req dto.ApproveRequest) (dto.ApproveResult, error) {
	var out dto.ApproveResult
	err := s.approve(ctx, sess, id, req, &out)
	metrics.RegistrasiTransition("approve", resultLabel(err))
	if err != nil {
		return dto.ApproveResult{}, err
	}

	s.Log.Info("registrasi disetujui",
		zap.String("no_registrasi", out.Registrasi.NoRegistrasi),
		zap.String("id_pelanggan", out.Pelanggan.IDPelanggan),
		zap.Stringer("owner", out.Pelanggan.UserID),
		zap.Stringer("by", sess.UserID),
	)
	s.notify("approve", out.Registrasi, func(ctx context.Context) error {
		return s.Notifier.Approved(ctx, out.Registrasi, out.Pelanggan.IDPelanggan)
	})
	return out, nil
}

func (s *RegistrasiService) approve(ctx context.Context, sess helperAuth.Session, id uuid.UUID, req dto.ApproveRequest, out *dto.ApproveResult) error {
	if err := sess.RequireAdmin("Approve Registrasi"); err != nil {
		return err
	}

	// validasi input dulu: gagal di sini tidak menyentuh database
	idPelanggan := helper.CleanText(req.IDPelanggan)
	if idPelanggan == "" {
		return helper.ErrValidationField("id_pelanggan", "wajib diisi")
	}
	jenisMeter := strings.ToLower(strings.TrimSpace(req.JenisMeter))
	if jenisMeter == "" {
		return helper.ErrValidationField("jenis_meter", "wajib diisi")
	}
	if err := pelangganService.ValidateJenisMeter(&jenisMeter); err != nil {
		return err
	}
	status := constants.StatusPelangganAktif
	if req.StatusPelanggan != nil && strings.TrimSpace(*req.StatusPelanggan) != "" {
		status = strings.ToLower(strings.TrimSpace(*req.StatusPelanggan))
		if err := pelangganService.ValidateStatusPelanggan(&status); err != nil {
			return err
		}
	}
	if err := helper.ValidateStruct(req); err != nil {
		return err
	}
	tanggal, err := pelangganService.ParseTanggal("tanggal_pemasangan", req.TanggalPemasangan)
	if err != nil {
		return err
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var r model.RegistrasiModel
		if err := tx.Where("id = ?", id).Take(&r).Error; err != nil {
			return helper.DBError(err, "Registrasi tidak ditemukan")
		}
		if r.Status != model.StatusPending {
			return helper.ErrInvalidState("Registrasi sudah %s, tidak bisa disetujui", r.Status)
		}

		owner := req.OwnerUserID
		if owner == nil {
			owner = r.SubmittedBy
		}
		if owner == nil {
			return helper.ErrValidationField("owner_user_id", "wajib dipilih untuk pendaftaran mandiri")
		}
		if _, err := staffService.RequireActiveOwner(tx, *owner); err != nil {
			return err
		}

		resolver := s.Resolver.WithTx(tx)
		if err := resolver.EnsureRefs(ctx, unitService.UnitRefs{
			CabangID:   req.CabangID,
			RayonID:    req.RayonID,
			GolonganID: req.GolonganID,
			KelompokID: req.KelompokID,
		}); err != nil {
			return err
		}

		taken, err := pelangganService.IDPelangganTaken(tx, idPelanggan)
		if err != nil {
			return err
		}
		if taken {
			return helper.ErrConflict("ID pelanggan %q sudah digunakan", idPelanggan)
		}

		lat, lng := r.Latitude, r.Longitude
		desaID, kecamatanID := r.DesaID, r.KecamatanID
		noTelpon, alamat, foto := r.NoTelpon, r.Alamat, r.FotoRumahURL
		regID := r.ID
		p := &pelangganModel.PelangganModel{
			IDPelanggan:       idPelanggan,
			NamaPelanggan:     r.NamaPelanggan,
			NoTelpon:          helper.StrPtr(noTelpon),
			Alamat:            helper.StrPtr(alamat),
			JumlahJiwa:        r.JumlahJiwa,
			Latitude:          &lat,
			Longitude:         &lng,
			FotoRumahURL:      helper.StrPtr(foto),
			CabangID:          req.CabangID,
			DesaID:            &desaID,
			KecamatanID:       &kecamatanID,
			RayonID:           req.RayonID,
			GolonganID:        req.GolonganID,
			KelompokID:        req.KelompokID,
			JenisMeter:        &jenisMeter,
			TanggalPemasangan: tanggal,
			Distribusi:        helper.StrPtr(helper.Deref(req.Distribusi)),
			Sumber:            helper.StrPtr(helper.Deref(req.Sumber)),
			KondisiMeter:      helper.StrPtr(helper.Deref(req.KondisiMeter)),
			KondisiLingkungan: defaultLower(req.KondisiLingkungan, constants.DefaultKondisiLingkungan),
			Kategori:          defaultLower(req.Kategori, constants.DefaultKategori),
			StatusPelanggan:   status,
			UserID:            *owner,
			RegistrasiID:      &regID,
		}
		if err := pelangganService.Insert(tx, p); err != nil {
			return err
		}

		now := s.Now()
		res := tx.Model(&model.RegistrasiModel{}).
			Where("id = ? AND status = ?", id, model.StatusPending).
			Updates(map[string]any{
				"status":       model.StatusApproved,
				"reviewed_by":  sess.UserID,
				"reviewed_at":  now,
				"pelanggan_id": p.ID,
				"updated_at":   now,
			})
		if res.Error != nil {
			return helper.DBError(res.Error, "")
		}
		if res.RowsAffected == 0 {
			return helper.ErrInvalidState("Registrasi sudah diproses oleh admin lain")
		}

		r.Status = model.StatusApproved
		r.ReviewedBy = &sess.UserID
		r.ReviewedAt = &now
		r.PelangganID = &p.ID
		r.UpdatedAt = now
		out.Registrasi = r
		out.Pelanggan = *p
		return nil
	})
}

func defaultLower(p *string, def string) string {
	if p == nil {
		return def
	}
	v := strings.ToLower(strings.TrimSpace(*p))
	if v == "" {
		return def
	}
	return v
}

// Reject: pending → rejected dengan alasan wajib. Tidak membuat pelanggan.
func (s *RegistrasiService) Reject(ctx context.Context, sess helperAuth.Session, id uuid.UUID, req dto.RejectRequest) (model.RegistrasiModel, error) {
	out, err := s.reject(ctx, sess, id, req)
	metrics.RegistrasiTransition("reject", resultLabel(err))
	if err != nil {
		return model.RegistrasiModel{}, err
	}
	s.Log.Info("registrasi ditolak",
		zap.String("no_registrasi", out.NoRegistrasi),
		zap.Stringer("by", sess.UserID),
	)
	s.notify("reject", out, func(ctx context.Context) error {
		return s.Notifier.Rejected(ctx, out)
	})
	return out, nil
}

func (s *RegistrasiService) reject(ctx context.Context, sess helperAuth.Session, id uuid.UUID, req dto.RejectRequest) (model.RegistrasiModel, error) {
	var r model.RegistrasiModel
	if err := sess.RequireAdmin("Tolak Registrasi"); err != nil {
		return r, err
	}
	reason := strings.TrimSpace(req.RejectedReason)
	if reason == "" {
		return r, helper.ErrValidationField("rejected_reason", "Alasan penolakan wajib diisi")
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).Take(&r).Error; err != nil {
			return helper.DBError(err, "Registrasi tidak ditemukan")
		}
		if r.Status != model.StatusPending {
			return helper.ErrInvalidState("Registrasi sudah %s, tidak bisa ditolak", r.Status)
		}
		now := s.Now()
		res := tx.Model(&model.RegistrasiModel{}).
			Where("id = ? AND status = ?", id, model.StatusPending).
			Updates(map[string]any{
				"status":          model.StatusRejected,
				"rejected_reason": reason,
				"reviewed_by":     sess.UserID,
				"reviewed_at":     now,
				"updated_at":      now,
			})
		if res.Error != nil {
			return helper.DBError(res.Error, "")
		}
		if res.RowsAffected == 0 {
			return helper.ErrInvalidState("Registrasi sudah diproses oleh admin lain")
		}
		r.Status = model.StatusRejected
		r.RejectedReason = &reason
		r.ReviewedBy = &sess.UserID
		r.ReviewedAt = &now
		r.UpdatedAt = now
		return nil
	})
	return r, err
}

/* ====================== READ ====================== */

var registrasiSortable = map[string]string{
	"created_at":     "created_at",
	"nama_pelanggan": "nama_pelanggan",
	"no_registrasi":  "no_registrasi",
	"status":         "status",
}

func validStatus(s string) bool {
	return s == model.StatusPending || s == model.StatusApproved || s == model.StatusRejected
}

// scoped: admin melihat semua; staf hanya registrasi yang ia ajukan.
func (s *RegistrasiService) scoped(ctx context.Context, sess helperAuth.Session) *gorm.DB {
	q := s.DB.WithContext(ctx).Model(&model.RegistrasiModel{})
	if !sess.IsAdmin() {
		q = q.Where("submitted_by = ?", sess.UserID)
	}
	return q
}

func (s *RegistrasiService) List(ctx context.Context, sess helperAuth.Session, f dto.ListQuery, p helper.Params) ([]dto.RegistrasiResponse, int64, error) {
	q := s.scoped(ctx, sess)
	if st := strings.ToLower(strings.TrimSpace(f.Status)); st != "" && st != "all" {
		if !validStatus(st) {
			return nil, 0, helper.ErrValidationField("status", "harus pending, approved, atau rejected")
		}
		q = q.Where("status = ?", st)
	}
	if term := strings.TrimSpace(f.Q); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("LOWER(nama_pelanggan) LIKE ? OR LOWER(no_registrasi) LIKE ? OR LOWER(alamat) LIKE ?", like, like, like)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, helper.DBError(err, "")
	}
	var rows []model.RegistrasiModel
	if err := q.Order(p.OrderExpr(registrasiSortable, "created_at")).
		Limit(p.Limit()).Offset(p.Offset()).
		Find(&rows).Error; err != nil {
		return nil, 0, helper.DBError(err, "")
	}
	out, err := s.decorate(ctx, rows)
	return out, total, err
}

// Counts: agregat per status dari tabel sumber, tidak mengikuti filter list.
func (s *RegistrasiService) Counts(ctx context.Context, sess helperAuth.Session) (dto.StatusCounts, error) {
	var rows []struct {
		Status string
		N      int64
	}
	var out dto.StatusCounts
	if err := s.scoped(ctx, sess).Select("status, COUNT(*) AS n").Group("status").Scan(&rows).Error; err != nil {
		return out, helper.DBError(err, "")
	}
	for _, r := range rows {
		switch r.Status {
		case model.StatusPending:
			out.Pending = r.N
		case model.StatusApproved:
			out.Approved = r.N
		case model.StatusRejected:
			out.Rejected = r.N
		}
		out.Total += r.N
	}
	return out, nil
}

func (s *RegistrasiService) Get(ctx context.Context, sess helperAuth.Session, id uuid.UUID) (dto.RegistrasiResponse, error) {
	var r model.RegistrasiModel
	if err := s.DB.WithContext(ctx).Where("id = ?", id).Take(&r).Error; err != nil {
		return dto.RegistrasiResponse{}, helper.DBError(err, "Registrasi tidak ditemukan")
	}
	if !sess.IsAdmin() && (r.SubmittedBy == nil || *r.SubmittedBy != sess.UserID) {
		return dto.RegistrasiResponse{}, helper.ErrForbidden("Registrasi ini bukan milik Anda")
	}
	out, err := s.decorate(ctx, []model.RegistrasiModel{r})
	if err != nil {
		return dto.RegistrasiResponse{}, err
	}
	return out[0], nil
}

// Track: cek status publik berdasarkan no_registrasi.
func (s *RegistrasiService) Track(ctx context.Context, noRegistrasi string) (dto.TrackingResponse, error) {
	no := strings.ToUpper(strings.TrimSpace(noRegistrasi))
	if no == "" {
		return dto.TrackingResponse{}, helper.ErrValidationField("no_registrasi", "wajib diisi")
	}
	var r model.RegistrasiModel
	if err := s.DB.WithContext(ctx).Where("no_registrasi = ?", no).Take(&r).Error; err != nil {
		return dto.TrackingResponse{}, helper.DBError(err, "Nomor registrasi tidak ditemukan")
	}
	return dto.ToTracking(r), nil
}

func (s *RegistrasiService) decorate(ctx context.Context, rows []model.RegistrasiModel) ([]dto.RegistrasiResponse, error) {
	out := make([]dto.RegistrasiResponse, len(rows))
	if len(rows) == 0 {
		return out, nil
	}
	var desaIDs, kecIDs, userIDs []uuid.UUID
	for i, r := range rows {
		out[i] = dto.RegistrasiResponse{RegistrasiModel: r}
		desaIDs = append(desaIDs, r.DesaID)
		kecIDs = append(kecIDs, r.KecamatanID)
		if r.SubmittedBy != nil {
			userIDs = append(userIDs, *r.SubmittedBy)
		}
		if r.ReviewedBy != nil {
			userIDs = append(userIDs, *r.ReviewedBy)
		}
	}

	db := s.DB.WithContext(ctx)
	unitNames := func(kind unitModel.Kind, ids []uuid.UUID) (map[uuid.UUID]string, error) {
		var units []unitModel.UnitModel
		if err := db.Table(kind.Table()).Select("id", "nama").Where("id IN ?", ids).Find(&units).Error; err != nil {
			return nil, helper.DBError(err, "")
		}
		m := make(map[uuid.UUID]string, len(units))
		for _, u := range units {
			m[u.ID] = u.Nama
		}
		return m, nil
	}
	desa, err := unitNames(unitModel.KindDesa, desaIDs)
	if err != nil {
		return nil, err
	}
	kec, err := unitNames(unitModel.KindKecamatan, kecIDs)
	if err != nil {
		return nil, err
	}
	users := map[uuid.UUID]string{}
	if len(userIDs) > 0 {
		var staff []staffModel.StaffUserModel
		if err := db.Select("id", "full_name", "email").Where("id IN ?", userIDs).Find(&staff).Error; err != nil {
			return nil, helper.DBError(err, "")
		}
		for _, u := range staff {
			name := u.FullName
			if name == "" {
				name = u.Email
			}
			users[u.ID] = name
		}
	}

	pick := func(m map[uuid.UUID]string, id *uuid.UUID) *string {
		if id == nil {
			return nil
		}
		if v, ok := m[*id]; ok {
			return &v
		}
		return nil
	}
	for i := range out {
		r := rows[i]
		out[i].DesaNama = pick(desa, &r.DesaID)
		out[i].KecamatanNama = pick(kec, &r.KecamatanID)
		out[i].SubmittedByName = pick(users, r.SubmittedBy)
		out[i].ReviewedByName = pick(users, r.ReviewedBy)
	}
	return out, nil
}

package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"pdam_pelanggan_backend/internals/constants"
	"pdam_pelanggan_backend/internals/features/pelanggan/pelanggan/dto"
	"pdam_pelanggan_backend/internals/features/pelanggan/pelanggan/model"
	unitModel "pdam_pelanggan_backend/internals/features/referensi/units/model"
	unitService "pdam_pelanggan_backend/internals/features/referensi/units/service"
	staffModel "pdam_pelanggan_backend/internals/features/users/staff/model"
	staffService "pdam_pelanggan_backend/internals/features/users/staff/service"
	helper "pdam_pelanggan_backend/internals/helpers"
	helperAuth "pdam_pelanggan_backend/internals/helpers/auth"
)

type PelangganService struct {
	DB       *gorm.DB
	Resolver *unitService.Resolver
	Log      *zap.Logger
}

func NewPelangganService(db *gorm.DB, resolver *unitService.Resolver, log *zap.Logger) *PelangganService {
	if log == nil {
		log = zap.NewNop()
	}
	if resolver == nil {
		resolver = unitService.NewResolver(db)
	}
	return &PelangganService{DB: db, Resolver: resolver, Log: log}
}

/* ====================== helpers dipakai registrasi ====================== */

// IDPelangganTaken: cek keunikan No SL di dalam transaksi pemanggil.
func IDPelangganTaken(tx *gorm.DB, idPelanggan string) (bool, error) {
	var n int64
	if err := tx.Model(&model.PelangganModel{}).Where("id_pelanggan = ?", idPelanggan).Count(&n).Error; err != nil {
		return false, helper.DBError(err, "")
	}
	return n > 0, nil
}

// Insert: create + petakan unique violation ke Conflict.
func Insert(tx *gorm.DB, m *model.PelangganModel) error {
	if err := tx.Create(m).Error; err != nil {
		if helper.IsUniqueViolation(err) {
			return helper.ErrConflict("ID pelanggan %q sudah digunakan", m.IDPelanggan)
		}
		return helper.DBError(err, "")
	}
	return nil
}

func ParseTanggal(field string, s *string) (*datatypes.Date, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	raw := strings.TrimSpace(*s)
	for _, layout := range []string{"2006-01-02", "02/01/2006", "2006-01-02T15:04:05Z07:00"} {
		if t, err := time.Parse(layout, raw); err == nil {
			d := datatypes.Date(t)
			return &d, nil
		}
	}
	return nil, helper.ErrValidationField(field, "format tanggal harus YYYY-MM-DD")
}

func ValidateJenisMeter(v *string) error {
	if v != nil && !constants.IsJenisMeter(*v) {
		return helper.ErrValidationField("jenis_meter", "harus salah satu dari: "+strings.Join(constants.JenisMeterValues, ", "))
	}
	return nil
}

func ValidateStatusPelanggan(v *string) error {
	if v != nil && !constants.IsStatusPelanggan(*v) {
		return helper.ErrValidationField("status_pelanggan", "harus salah satu dari: "+strings.Join(constants.StatusPelangganValues, ", "))
	}
	return nil
}

func orDefault(p *string, def string) string {
	if p == nil || *p == "" {
		return def
	}
	return *p
}

// buildModel memvalidasi field & menurunkan kecamatan dari desa.
func (s *PelangganService) buildModel(ctx context.Context, resolver *unitService.Resolver, f dto.PelangganFields) (*model.PelangganModel, error) {
	f.Normalize()
	if err := helper.ValidateStruct(f); err != nil {
		return nil, err
	}
	if err := ValidateJenisMeter(f.JenisMeter); err != nil {
		return nil, err
	}
	if err := ValidateStatusPelanggan(f.StatusPelanggan); err != nil {
		return nil, err
	}
	tgl, err := ParseTanggal("tanggal_pemasangan", f.TanggalPemasangan)
	if err != nil {
		return nil, err
	}
	if err := resolver.EnsureRefs(ctx, unitService.UnitRefs{
		CabangID:   f.CabangID,
		DesaID:     f.DesaID,
		RayonID:    f.RayonID,
		GolonganID: f.GolonganID,
		KelompokID: f.KelompokID,
	}); err != nil {
		return nil, err
	}

	kecamatanID := f.KecamatanID
	if f.DesaID != nil {
		if kecamatanID, err = resolver.ResolveOptional(ctx, f.DesaID); err != nil {
			return nil, err
		}
	} else if err := resolver.EnsureExists(ctx, unitModel.KindKecamatan, kecamatanID); err != nil {
		return nil, err
	}

	jiwa := 1
	if f.JumlahJiwa != nil {
		jiwa = *f.JumlahJiwa
	}
	return &model.PelangganModel{
		IDPelanggan:       f.IDPelanggan,
		NamaPelanggan:     f.NamaPelanggan,
		NoTelpon:          f.NoTelpon,
		Alamat:            f.Alamat,
		JumlahJiwa:        jiwa,
		Latitude:          f.Latitude,
		Longitude:         f.Longitude,
		FotoRumahURL:      f.FotoRumahURL,
		CabangID:          f.CabangID,
		DesaID:            f.DesaID,
		KecamatanID:       kecamatanID,
		RayonID:           f.RayonID,
		GolonganID:        f.GolonganID,
		KelompokID:        f.KelompokID,
		JenisMeter:        f.JenisMeter,
		TanggalPemasangan: tgl,
		Distribusi:        f.Distribusi,
		Sumber:            f.Sumber,
		KondisiMeter:      f.KondisiMeter,
		KondisiLingkungan: orDefault(f.KondisiLingkungan, constants.DefaultKondisiLingkungan),
		Kategori:          orDefault(f.Kategori, constants.DefaultKategori),
		StatusPelanggan:   orDefault(f.StatusPelanggan, constants.StatusPelangganAktif),
	}, nil
}

/* ====================== CREATE ====================== */

// CreateForUser membuat pelanggan langsung atas nama user (tanpa registrasi).
// Admin boleh memilih user mana saja; staf hanya untuk dirinya sendiri.
func (s *PelangganService) CreateForUser(ctx context.Context, sess helperAuth.Session, ownerID uuid.UUID, f dto.PelangganFields) (*model.PelangganModel, error) {
	if ownerID != sess.UserID {
		if err := sess.RequireAdmin("Buat Pelanggan untuk User"); err != nil {
			return nil, err
		}
	}

	var out *model.PelangganModel
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := staffService.RequireActiveOwner(tx, ownerID); err != nil {
			return err
		}
		m, err := s.buildModel(ctx, s.Resolver.WithTx(tx), f)
		if err != nil {
			return err
		}
		taken, err := IDPelangganTaken(tx, m.IDPelanggan)
		if err != nil {
			return err
		}
		if taken {
			return helper.ErrConflict("ID pelanggan %q sudah digunakan", m.IDPelanggan)
		}
		m.UserID = ownerID
		if err := Insert(tx, m); err != nil {
			return err
		}
		out = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Log.Info("pelanggan dibuat",
		zap.String("id_pelanggan", out.IDPelanggan),
		zap.Stringer("owner", ownerID),
		zap.Stringer("by", sess.UserID),
	)
	return out, nil
}

/* ====================== READ ====================== */

var pelangganSortable = map[string]string{
	"id_pelanggan":     "pelanggan.id_pelanggan",
	"nama_pelanggan":   "pelanggan.nama_pelanggan",
	"status_pelanggan": "pelanggan.status_pelanggan",
	"created_at":       "pelanggan.created_at",
}

// scoped: role user hanya melihat datanya sendiri.
func (s *PelangganService) scoped(ctx context.Context, sess helperAuth.Session, f dto.ListQuery) *gorm.DB {
	q := s.DB.WithContext(ctx).Model(&model.PelangganModel{})
	if !sess.IsAdmin() {
		q = q.Where("pelanggan.user_id = ?", sess.UserID)
	} else {
		if f.UserID != nil {
			q = q.Where("pelanggan.user_id = ?", *f.UserID)
		}
		if f.Unassigned {
			q = q.Where("pelanggan.user_id IN (?)",
				s.DB.WithContext(ctx).Model(&staffModel.StaffUserModel{}).Select("id").Where("is_active = ?", false))
		}
	}
	if term := strings.TrimSpace(f.Q); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("LOWER(pelanggan.nama_pelanggan) LIKE ? OR LOWER(pelanggan.id_pelanggan) LIKE ? OR LOWER(COALESCE(pelanggan.alamat, '')) LIKE ?", like, like, like)
	}
	if f.StatusPelanggan != "" {
		q = q.Where("pelanggan.status_pelanggan = ?", f.StatusPelanggan)
	}
	if f.JenisMeter != "" {
		q = q.Where("pelanggan.jenis_meter = ?", f.JenisMeter)
	}
	refFilters := []struct {
		col string
		id  *uuid.UUID
	}{
		{"pelanggan.cabang_id", f.CabangID},
		{"pelanggan.desa_id", f.DesaID},
		{"pelanggan.kecamatan_id", f.KecamatanID},
		{"pelanggan.rayon_id", f.RayonID},
		{"pelanggan.golongan_id", f.GolonganID},
		{"pelanggan.kelompok_id", f.KelompokID},
	}
	for _, rf := range refFilters {
		if rf.id != nil {
			q = q.Where(rf.col+" = ?", *rf.id)
		}
	}
	return q
}

func (s *PelangganService) List(ctx context.Context, sess helperAuth.Session, f dto.ListQuery, p helper.Params) ([]dto.PelangganResponse, int64, error) {
	q := s.scoped(ctx, sess, f)

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, helper.DBError(err, "")
	}
	var rows []model.PelangganModel
	if err := q.Order(p.OrderExpr(pelangganSortable, "created_at")).
		Limit(p.Limit()).Offset(p.Offset()).
		Find(&rows).Error; err != nil {
		return nil, 0, helper.DBError(err, "")
	}
	out, err := s.decorate(ctx, rows)
	return out, total, err
}

// ListAll: untuk ekspor (tanpa pagination, dibatasi hardCap).
func (s *PelangganService) ListAll(ctx context.Context, sess helperAuth.Session, f dto.ListQuery, hardCap int) ([]dto.PelangganResponse, error) {
	var rows []model.PelangganModel
	if err := s.scoped(ctx, sess, f).
		Order("pelanggan.id_pelanggan ASC").
		Limit(hardCap).
		Find(&rows).Error; err != nil {
		return nil, helper.DBError(err, "")
	}
	return s.decorate(ctx, rows)
}

func (s *PelangganService) Markers(ctx context.Context, sess helperAuth.Session, f dto.ListQuery) ([]dto.MarkerResponse, error) {
	var rows []model.PelangganModel
	if err := s.scoped(ctx, sess, f).
		Select("pelanggan.id", "pelanggan.id_pelanggan", "pelanggan.nama_pelanggan", "pelanggan.alamat",
			"pelanggan.latitude", "pelanggan.longitude", "pelanggan.status_pelanggan").
		Where("pelanggan.latitude IS NOT NULL AND pelanggan.longitude IS NOT NULL").
		Limit(helper.ExportOpts.AllHardCap).
		Find(&rows).Error; err != nil {
		return nil, helper.DBError(err, "")
	}
	out := make([]dto.MarkerResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.MarkerResponse{
			ID:              r.ID,
			IDPelanggan:     r.IDPelanggan,
			NamaPelanggan:   r.NamaPelanggan,
			Alamat:          r.Alamat,
			Latitude:        *r.Latitude,
			Longitude:       *r.Longitude,
			StatusPelanggan: r.StatusPelanggan,
		})
	}
	return out, nil
}

func (s *PelangganService) findScoped(db *gorm.DB, sess helperAuth.Session, id uuid.UUID) (*model.PelangganModel, error) {
	var m model.PelangganModel
	if err := db.Where("id = ?", id).Take(&m).Error; err != nil {
		return nil, helper.DBError(err, "Pelanggan tidak ditemukan")
	}
	if !sess.IsAdmin() && m.UserID != sess.UserID {
		return nil, helper.ErrForbidden("Pelanggan ini bukan milik Anda")
	}
	return &m, nil
}

func (s *PelangganService) Get(ctx context.Context, sess helperAuth.Session, id uuid.UUID) (dto.PelangganResponse, error) {
	m, err := s.findScoped(s.DB.WithContext(ctx), sess, id)
	if err != nil {
		return dto.PelangganResponse{}, err
	}
	out, err := s.decorate(ctx, []model.PelangganModel{*m})
	if err != nil {
		return dto.PelangganResponse{}, err
	}
	return out[0], nil
}

// decorate: nama referensi & nama pemilik untuk tampilan/ekspor.
func (s *PelangganService) decorate(ctx context.Context, rows []model.PelangganModel) ([]dto.PelangganResponse, error) {
	out := make([]dto.PelangganResponse, len(rows))
	if len(rows) == 0 {
		return out, nil
	}

	collect := func(get func(model.PelangganModel) *uuid.UUID) []uuid.UUID {
		seen := map[uuid.UUID]struct{}{}
		ids := make([]uuid.UUID, 0)
		for _, r := range rows {
			if id := get(r); id != nil {
				if _, ok := seen[*id]; !ok {
					seen[*id] = struct{}{}
					ids = append(ids, *id)
				}
			}
		}
		return ids
	}
	names := func(kind unitModel.Kind, ids []uuid.UUID) (map[uuid.UUID]string, error) {
		m := map[uuid.UUID]string{}
		if len(ids) == 0 {
			return m, nil
		}
		var units []unitModel.UnitModel
		if err := s.DB.WithContext(ctx).Table(kind.Table()).Select("id", "nama").Where("id IN ?", ids).Find(&units).Error; err != nil {
			return nil, helper.DBError(err, "")
		}
		for _, u := range units {
			m[u.ID] = u.Nama
		}
		return m, nil
	}

	type lookup struct {
		kind unitModel.Kind
		get  func(model.PelangganModel) *uuid.UUID
		set  func(*dto.PelangganResponse, *string)
	}
	lookups := []lookup{
		{unitModel.KindCabang, func(p model.PelangganModel) *uuid.UUID { return p.CabangID }, func(r *dto.PelangganResponse, v *string) { r.CabangNama = v }},
		{unitModel.KindDesa, func(p model.PelangganModel) *uuid.UUID { return p.DesaID }, func(r *dto.PelangganResponse, v *string) { r.DesaNama = v }},
		{unitModel.KindKecamatan, func(p model.PelangganModel) *uuid.UUID { return p.KecamatanID }, func(r *dto.PelangganResponse, v *string) { r.KecamatanNama = v }},
		{unitModel.KindRayon, func(p model.PelangganModel) *uuid.UUID { return p.RayonID }, func(r *dto.PelangganResponse, v *string) { r.RayonNama = v }},
		{unitModel.KindGolongan, func(p model.PelangganModel) *uuid.UUID { return p.GolonganID }, func(r *dto.PelangganResponse, v *string) { r.GolonganNama = v }},
		{unitModel.KindKelompok, func(p model.PelangganModel) *uuid.UUID { return p.KelompokID }, func(r *dto.PelangganResponse, v *string) { r.KelompokNama = v }},
	}

	for i, r := range rows {
		out[i] = dto.PelangganResponse{PelangganModel: r}
	}
	for _, lk := range lookups {
		m, err := names(lk.kind, collect(lk.get))
		if err != nil {
			return nil, err
		}
		for i, r := range rows {
			if id := lk.get(r); id != nil {
				if n, ok := m[*id]; ok {
					v := n
					lk.set(&out[i], &v)
				}
			}
		}
	}

	owners := collect(func(p model.PelangganModel) *uuid.UUID { id := p.UserID; return &id })
	var users []staffModel.StaffUserModel
	if err := s.DB.WithContext(ctx).Select("id", "full_name", "email").Where("id IN ?", owners).Find(&users).Error; err != nil {
		return nil, helper.DBError(err, "")
	}
	ownerName := map[uuid.UUID]string{}
	for _, u := range users {
		name := u.FullName
		if name == "" {
			name = u.Email
		}
		ownerName[u.ID] = name
	}
	for i, r := range rows {
		if n, ok := ownerName[r.UserID]; ok {
			v := n
			out[i].OwnerName = &v
		}
	}
	return out, nil
}

/* ====================== UPDATE / DELETE ====================== */

func (s *PelangganService) Update(ctx context.Context, sess helperAuth.Session, id uuid.UUID, req dto.UpdatePelangganRequest) (dto.PelangganResponse, error) {
	if err := helper.ValidateStruct(req); err != nil {
		return dto.PelangganResponse{}, err
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cur, err := s.findScoped(tx, sess, id)
		if err != nil {
			return err
		}
		resolver := s.Resolver.WithTx(tx)
		updates := map[string]any{}

		if req.IDPelanggan != nil {
			v := helper.CleanText(*req.IDPelanggan)
			if v == "" {
				return helper.ErrValidationField("id_pelanggan", "wajib diisi")
			}
			if v != cur.IDPelanggan {
				taken, err := IDPelangganTaken(tx, v)
				if err != nil {
					return err
				}
				if taken {
					return helper.ErrConflict("ID pelanggan %q sudah digunakan", v)
				}
				updates["id_pelanggan"] = v
			}
		}
		if req.NamaPelanggan != nil {
			v := helper.CleanText(*req.NamaPelanggan)
			if v == "" {
				return helper.ErrValidationField("nama_pelanggan", "wajib diisi")
			}
			updates["nama_pelanggan"] = v
		}
		setStr := func(col string, p *string) {
			if p != nil {
				updates[col] = helper.StrPtr(*p)
			}
		}
		setStr("no_telpon", req.NoTelpon)
		setStr("alamat", req.Alamat)
		setStr("foto_rumah_url", req.FotoRumahURL)
		setStr("distribusi", req.Distribusi)
		setStr("sumber", req.Sumber)
		setStr("kondisi_meter", req.KondisiMeter)

		if req.JumlahJiwa != nil {
			updates["jumlah_jiwa"] = *req.JumlahJiwa
		}
		if req.Latitude != nil {
			updates["latitude"] = *req.Latitude
		}
		if req.Longitude != nil {
			updates["longitude"] = *req.Longitude
		}
		if req.JenisMeter != nil {
			v := strings.ToLower(strings.TrimSpace(*req.JenisMeter))
			if err := ValidateJenisMeter(&v); err != nil {
				return err
			}
			updates["jenis_meter"] = v
		}
		if req.StatusPelanggan != nil {
			v := strings.ToLower(strings.TrimSpace(*req.StatusPelanggan))
			if err := ValidateStatusPelanggan(&v); err != nil {
				return err
			}
			updates["status_pelanggan"] = v
		}
		if req.KondisiLingkungan != nil {
			updates["kondisi_lingkungan"] = orDefault(helper.StrPtr(strings.ToLower(*req.KondisiLingkungan)), constants.DefaultKondisiLingkungan)
		}
		if req.Kategori != nil {
			updates["kategori"] = orDefault(helper.StrPtr(strings.ToLower(*req.Kategori)), constants.DefaultKategori)
		}
		if req.TanggalPemasangan != nil {
			tgl, err := ParseTanggal("tanggal_pemasangan", req.TanggalPemasangan)
			if err != nil {
				return err
			}
			if tgl == nil {
				updates["tanggal_pemasangan"] = nil
			} else {
				updates["tanggal_pemasangan"] = *tgl
			}
		}

		if err := resolver.EnsureRefs(ctx, unitService.UnitRefs{
			CabangID:   req.CabangID,
			DesaID:     req.DesaID,
			RayonID:    req.RayonID,
			GolonganID: req.GolonganID,
			KelompokID: req.KelompokID,
		}); err != nil {
			return err
		}
		if req.CabangID != nil {
			updates["cabang_id"] = *req.CabangID
		}
		if req.RayonID != nil {
			updates["rayon_id"] = *req.RayonID
		}
		if req.GolonganID != nil {
			updates["golongan_id"] = *req.GolonganID
		}
		if req.KelompokID != nil {
			updates["kelompok_id"] = *req.KelompokID
		}

		// desa berubah/dikosongkan → kecamatan ikut diturunkan ulang
		switch {
		case req.ClearDesa:
			updates["desa_id"] = nil
			updates["kecamatan_id"] = nil
		case req.DesaID != nil:
			kec, err := resolver.ResolveOptional(ctx, req.DesaID)
			if err != nil {
				return err
			}
			updates["desa_id"] = *req.DesaID
			if kec == nil {
				updates["kecamatan_id"] = nil
			} else {
				updates["kecamatan_id"] = *kec
			}
		}

		if len(updates) == 0 {
			return nil
		}
		updates["updated_at"] = time.Now()
		if err := tx.Model(&model.PelangganModel{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			if helper.IsUniqueViolation(err) {
				return helper.ErrConflict("ID pelanggan sudah digunakan")
			}
			return helper.DBError(err, "")
		}
		return nil
	})
	if err != nil {
		return dto.PelangganResponse{}, err
	}
	return s.Get(ctx, sess, id)
}

func requireConfirm(confirm bool, action string) error {
	if !confirm {
		return helper.ErrValidationField("confirm", action+" membutuhkan konfirmasi (confirm: true)")
	}
	return nil
}

func (s *PelangganService) Delete(ctx context.Context, sess helperAuth.Session, id uuid.UUID, confirm bool) error {
	if err := sess.RequireAdmin("Hapus Pelanggan"); err != nil {
		return err
	}
	if err := requireConfirm(confirm, "Hapus pelanggan"); err != nil {
		return err
	}
	res := s.DB.WithContext(ctx).Where("id = ?", id).Delete(&model.PelangganModel{})
	if res.Error != nil {
		return helper.DBError(res.Error, "")
	}
	if res.RowsAffected == 0 {
		return helper.ErrNotFound("Pelanggan tidak ditemukan")
	}
	s.Log.Info("pelanggan dihapus", zap.Stringer("id", id), zap.Stringer("by", sess.UserID))
	return nil
}

func (s *PelangganService) BulkDelete(ctx context.Context, sess helperAuth.Session, rawIDs []string, confirm bool) (dto.BulkDeleteResult, error) {
	out := dto.BulkDeleteResult{NotFound: []string{}, Invalid: []string{}}
	if err := sess.RequireAdmin("Hapus Pelanggan"); err != nil {
		return out, err
	}
	if err := requireConfirm(confirm, "Hapus massal"); err != nil {
		return out, err
	}
	if len(rawIDs) == 0 {
		return out, helper.ErrValidationField("ids", "minimal satu id")
	}

	ids := make([]uuid.UUID, 0, len(rawIDs))
	for _, raw := range rawIDs {
		id, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			out.Invalid = append(out.Invalid, raw)
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return out, nil
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []uuid.UUID
		if err := tx.Model(&model.PelangganModel{}).Where("id IN ?", ids).Pluck("id", &existing).Error; err != nil {
			return helper.DBError(err, "")
		}
		found := make(map[uuid.UUID]bool, len(existing))
		for _, id := range existing {
			found[id] = true
		}
		for _, id := range ids {
			if !found[id] {
				out.NotFound = append(out.NotFound, id.String())
			}
		}
		if len(existing) == 0 {
			return nil
		}
		res := tx.Where("id IN ?", existing).Delete(&model.PelangganModel{})
		if res.Error != nil {
			return helper.DBError(res.Error, "")
		}
		out.Deleted = res.RowsAffected
		return nil
	})
	if err != nil {
		return dto.BulkDeleteResult{}, err
	}
	s.Log.Info("pelanggan dihapus massal", zap.Int64("deleted", out.Deleted), zap.Stringer("by", sess.UserID))
	return out, nil
}

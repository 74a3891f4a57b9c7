package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	pelangganModel "pdam_pelanggan_backend/internals/features/pelanggan/pelanggan/model"
	"pdam_pelanggan_backend/internals/features/referensi/units/dto"
	"pdam_pelanggan_backend/internals/features/referensi/units/model"
	registrasiModel "pdam_pelanggan_backend/internals/features/registrasi/registrasi/model"
	staffModel "pdam_pelanggan_backend/internals/features/users/staff/model"
	"pdam_pelanggan_backend/internals/caches"
	helper "pdam_pelanggan_backend/internals/helpers"
	helperAuth "pdam_pelanggan_backend/internals/helpers/auth"
	"pdam_pelanggan_backend/internals/metrics"
)

type UnitService struct {
	DB    *gorm.DB
	Cache caches.JSONCache
	Log   *zap.Logger
}

func NewUnitService(db *gorm.DB, cache caches.JSONCache, log *zap.Logger) *UnitService {
	if log == nil {
		log = zap.NewNop()
	}
	return &UnitService{DB: db, Cache: cache, Log: log}
}

func activeCacheKey(kind model.Kind) string { return "active:" + string(kind) }

func (s *UnitService) table(ctx context.Context, kind model.Kind) *gorm.DB {
	return s.DB.WithContext(ctx).Table(kind.Table())
}

func (s *UnitService) invalidate(ctx context.Context, kind model.Kind) {
	if s.Cache != nil {
		s.Cache.Delete(ctx, activeCacheKey(kind))
	}
}

/* =========================
   READ
   ========================= */

// ListActive: unit aktif untuk dropdown, urut nama. Cache boleh basi sampai TTL/mutasi berikutnya.
func (s *UnitService) ListActive(ctx context.Context, kind model.Kind) ([]dto.UnitOption, error) {
	key := activeCacheKey(kind)
	if s.Cache != nil {
		var cached []dto.UnitOption
		if s.Cache.GetJSON(ctx, key, &cached) {
			metrics.CacheLookup(true)
			return cached, nil
		}
		metrics.CacheLookup(false)
	}

	var rows []model.UnitModel
	if err := s.table(ctx, kind).Where("is_active = ?", true).Order("nama ASC").Find(&rows).Error; err != nil {
		return nil, helper.DBError(err, "")
	}

	out := make([]dto.UnitOption, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.ToOption(r))
	}
	if s.Cache != nil {
		s.Cache.SetJSON(ctx, key, out)
	}
	return out, nil
}

var unitSortable = map[string]string{
	"kode":       "kode",
	"nama":       "nama",
	"created_at": "created_at",
}

// List: semua unit (filter q/active) + total_pelanggan dihitung ulang per baca.
func (s *UnitService) List(ctx context.Context, kind model.Kind, f dto.ListQuery, p helper.Params) ([]dto.UnitResponse, int64, error) {
	q := s.table(ctx, kind)
	if term := strings.TrimSpace(f.Q); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("LOWER(nama) LIKE ? OR LOWER(kode) LIKE ?", like, like)
	}
	if f.Active != nil {
		q = q.Where("is_active = ?", *f.Active)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, helper.DBError(err, "")
	}

	var rows []model.UnitModel
	if err := q.Order(p.OrderExpr(unitSortable, "nama")).
		Limit(p.Limit()).Offset(p.Offset()).
		Find(&rows).Error; err != nil {
		return nil, 0, helper.DBError(err, "")
	}

	out, err := s.decorate(ctx, kind, rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *UnitService) GetByID(ctx context.Context, kind model.Kind, id uuid.UUID) (dto.UnitResponse, error) {
	m, err := s.find(s.DB.WithContext(ctx), kind, id)
	if err != nil {
		return dto.UnitResponse{}, err
	}
	out, err := s.decorate(ctx, kind, []model.UnitModel{m})
	if err != nil {
		return dto.UnitResponse{}, err
	}
	return out[0], nil
}

func (s *UnitService) find(db *gorm.DB, kind model.Kind, id uuid.UUID) (model.UnitModel, error) {
	var m model.UnitModel
	if err := db.Table(kind.Table()).Where("id = ?", id).Take(&m).Error; err != nil {
		return m, helper.DBError(err, kind.Label()+" tidak ditemukan")
	}
	return m, nil
}

type countRow struct {
	UnitID uuid.UUID
	Total  int64
}

// decorate menambah total_pelanggan (agregat) dan nama kecamatan untuk desa.
func (s *UnitService) decorate(ctx context.Context, kind model.Kind, rows []model.UnitModel) ([]dto.UnitResponse, error) {
	out := make([]dto.UnitResponse, 0, len(rows))
	if len(rows) == 0 {
		return out, nil
	}

	ids := make([]uuid.UUID, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}

	col := kind.PelangganColumn()
	var counts []countRow
	if err := s.DB.WithContext(ctx).
		Model(&pelangganModel.PelangganModel{}).
		Select(col+" AS unit_id, COUNT(*) AS total").
		Where(col+" IN ?", ids).
		Group(col).
		Scan(&counts).Error; err != nil {
		return nil, helper.DBError(err, "")
	}
	byID := make(map[uuid.UUID]int64, len(counts))
	for _, c := range counts {
		byID[c.UnitID] = c.Total
	}

	kecNama := map[uuid.UUID]string{}
	if kind == model.KindDesa {
		kecIDs := make([]uuid.UUID, 0)
		for _, r := range rows {
			if r.KecamatanID != nil {
				kecIDs = append(kecIDs, *r.KecamatanID)
			}
		}
		if len(kecIDs) > 0 {
			var kecs []model.UnitModel
			if err := s.DB.WithContext(ctx).Table(model.KindKecamatan.Table()).
				Select("id", "nama").Where("id IN ?", kecIDs).Find(&kecs).Error; err != nil {
				return nil, helper.DBError(err, "")
			}
			for _, k := range kecs {
				kecNama[k.ID] = k.Nama
			}
		}
	}

	for _, r := range rows {
		resp := dto.FromModel(kind, r, byID[r.ID])
		if r.KecamatanID != nil {
			if n, ok := kecNama[*r.KecamatanID]; ok {
				nama := n
				resp.KecamatanNama = &nama
			}
		}
		out = append(out, resp)
	}
	return out, nil
}

/* =========================
   WRITE (admin)
   ========================= */

func (s *UnitService) Create(ctx context.Context, sess helperAuth.Session, kind model.Kind, req dto.CreateUnitRequest) (dto.UnitResponse, error) {
	if err := sess.RequireAdmin("Data Referensi"); err != nil {
		return dto.UnitResponse{}, err
	}
	req.Normalize()
	if err := helper.ValidateStruct(req); err != nil {
		return dto.UnitResponse{}, err
	}
	if kind != model.KindDesa && req.KecamatanID != nil {
		return dto.UnitResponse{}, helper.ErrValidationField("kecamatan_id", "hanya berlaku untuk desa")
	}
	if kind == model.KindDesa {
		if err := NewResolver(s.DB).EnsureExists(ctx, model.KindKecamatan, req.KecamatanID); err != nil {
			return dto.UnitResponse{}, err
		}
	}

	m := model.UnitModel{
		UnitBase:    model.UnitBase{Kode: req.Kode, Nama: req.Nama, IsActive: true},
		KecamatanID: req.KecamatanID,
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Table(kind.Table())
		if kind != model.KindDesa {
			q = q.Omit("kecamatan_id")
		}
		if err := q.Create(&m).Error; err != nil {
			if helper.IsUniqueViolation(err) {
				return helper.ErrConflict("Kode %s %q sudah dipakai", kind.Label(), req.Kode)
			}
			return helper.DBError(err, "")
		}
		// kolom default:true tidak ikut saat nilai false
		if req.IsActive != nil && !*req.IsActive {
			if err := tx.Table(kind.Table()).Where("id = ?", m.ID).Update("is_active", false).Error; err != nil {
				return helper.DBError(err, "")
			}
			m.IsActive = false
		}
		return nil
	})
	if err != nil {
		return dto.UnitResponse{}, err
	}

	s.invalidate(ctx, kind)
	s.Log.Info("referensi dibuat", zap.String("kind", string(kind)), zap.String("kode", m.Kode), zap.Stringer("by", sess.UserID))
	return s.GetByID(ctx, kind, m.ID)
}

func (s *UnitService) Update(ctx context.Context, sess helperAuth.Session, kind model.Kind, id uuid.UUID, req dto.UpdateUnitRequest) (dto.UnitResponse, error) {
	if err := sess.RequireAdmin("Data Referensi"); err != nil {
		return dto.UnitResponse{}, err
	}
	req.Normalize()
	if err := helper.ValidateStruct(req); err != nil {
		return dto.UnitResponse{}, err
	}
	if kind != model.KindDesa && (req.KecamatanID != nil || req.ClearKecamatan) {
		return dto.UnitResponse{}, helper.ErrValidationField("kecamatan_id", "hanya berlaku untuk desa")
	}

	updates := map[string]any{}
	if req.Kode != nil {
		if *req.Kode == "" {
			return dto.UnitResponse{}, helper.ErrValidationField("kode", "wajib diisi")
		}
		updates["kode"] = *req.Kode
	}
	if req.Nama != nil {
		if *req.Nama == "" {
			return dto.UnitResponse{}, helper.ErrValidationField("nama", "wajib diisi")
		}
		updates["nama"] = *req.Nama
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if kind == model.KindDesa {
		switch {
		case req.ClearKecamatan:
			updates["kecamatan_id"] = nil
		case req.KecamatanID != nil:
			if err := NewResolver(s.DB).EnsureExists(ctx, model.KindKecamatan, req.KecamatanID); err != nil {
				return dto.UnitResponse{}, err
			}
			updates["kecamatan_id"] = *req.KecamatanID
		}
	}

	if _, err := s.find(s.DB.WithContext(ctx), kind, id); err != nil {
		return dto.UnitResponse{}, err
	}
	if len(updates) > 0 {
		updates["updated_at"] = time.Now()
		if err := s.table(ctx, kind).Where("id = ?", id).Updates(updates).Error; err != nil {
			if helper.IsUniqueViolation(err) {
				return dto.UnitResponse{}, helper.ErrConflict("Kode %s sudah dipakai", kind.Label())
			}
			return dto.UnitResponse{}, helper.DBError(err, "")
		}
		s.invalidate(ctx, kind)
	}
	return s.GetByID(ctx, kind, id)
}

// ToggleStatus membalik is_active. Tidak ada cascade ke desa/pelanggan.
func (s *UnitService) ToggleStatus(ctx context.Context, sess helperAuth.Session, kind model.Kind, id uuid.UUID) (dto.UnitResponse, error) {
	if err := sess.RequireAdmin("Data Referensi"); err != nil {
		return dto.UnitResponse{}, err
	}
	m, err := s.find(s.DB.WithContext(ctx), kind, id)
	if err != nil {
		return dto.UnitResponse{}, err
	}
	if err := s.table(ctx, kind).Where("id = ?", id).Updates(map[string]any{
		"is_active":  !m.IsActive,
		"updated_at": time.Now(),
	}).Error; err != nil {
		return dto.UnitResponse{}, helper.DBError(err, "")
	}
	s.invalidate(ctx, kind)
	return s.GetByID(ctx, kind, id)
}

// Delete ditolak (Conflict) selama unit masih dipakai pelanggan,
// kecamatan masih punya desa, cabang masih punya staf, atau desa/kecamatan
// masih dirujuk registrasi pending (approve akan menyalinnya ke pelanggan).
func (s *UnitService) Delete(ctx context.Context, sess helperAuth.Session, kind model.Kind, id uuid.UUID) error {
	if err := sess.RequireAdmin("Data Referensi"); err != nil {
		return err
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := s.find(tx, kind, id)
		if err != nil {
			return err
		}

		var used int64
		if err := tx.Model(&pelangganModel.PelangganModel{}).
			Where(kind.PelangganColumn()+" = ?", id).
			Count(&used).Error; err != nil {
			return helper.DBError(err, "")
		}
		if used > 0 {
			return helper.ErrConflict("%s %q masih dipakai %d pelanggan", kind.Label(), m.Nama, used)
		}

		if kind == model.KindDesa || kind == model.KindKecamatan {
			var pending int64
			if err := tx.Model(&registrasiModel.RegistrasiModel{}).
				Where(string(kind)+"_id = ? AND status = ?", id, registrasiModel.StatusPending).
				Count(&pending).Error; err != nil {
				return helper.DBError(err, "")
			}
			if pending > 0 {
				return helper.ErrConflict("%s %q masih dirujuk %d registrasi pending", kind.Label(), m.Nama, pending)
			}
		}

		switch kind {
		case model.KindKecamatan:
			var desa int64
			if err := tx.Table(model.KindDesa.Table()).Where("kecamatan_id = ?", id).Count(&desa).Error; err != nil {
				return helper.DBError(err, "")
			}
			if desa > 0 {
				return helper.ErrConflict("Kecamatan %q masih terhubung ke %d desa", m.Nama, desa)
			}
		case model.KindCabang:
			var staf int64
			if err := tx.Model(&staffModel.StaffUserModel{}).Where("cabang_id = ?", id).Count(&staf).Error; err != nil {
				return helper.DBError(err, "")
			}
			if staf > 0 {
				return helper.ErrConflict("Cabang %q masih memiliki %d staf", m.Nama, staf)
			}
		}

		res := tx.Table(kind.Table()).Where("id = ?", id).Delete(&model.UnitModel{})
		if res.Error != nil {
			return helper.DBError(res.Error, "")
		}
		if res.RowsAffected == 0 {
			return helper.ErrNotFound("%s tidak ditemukan", kind.Label())
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, kind)
	s.Log.Info("referensi dihapus", zap.String("kind", string(kind)), zap.Stringer("id", id), zap.Stringer("by", sess.UserID))
	return nil
}

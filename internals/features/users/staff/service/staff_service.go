package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	pelangganModel "pdam_pelanggan_backend/internals/features/pelanggan/pelanggan/model"
	unitModel "pdam_pelanggan_backend/internals/features/referensi/units/model"
	"pdam_pelanggan_backend/internals/features/users/staff/dto"
	"pdam_pelanggan_backend/internals/features/users/staff/model"
	helper "pdam_pelanggan_backend/internals/helpers"
	helperAuth "pdam_pelanggan_backend/internals/helpers/auth"
)

type StaffService struct {
	DB  *gorm.DB
	Log *zap.Logger
}

func NewStaffService(db *gorm.DB, log *zap.Logger) *StaffService {
	if log == nil {
		log = zap.NewNop()
	}
	return &StaffService{DB: db, Log: log}
}

/* ====================== LOOKUP (dipakai fitur lain) ====================== */

func FindByID(db *gorm.DB, id uuid.UUID) (*model.StaffUserModel, error) {
	var u model.StaffUserModel
	if err := db.Where("id = ?", id).Take(&u).Error; err != nil {
		return nil, helper.DBError(err, "User tidak ditemukan")
	}
	return &u, nil
}

// RequireActiveOwner: calon pemilik pelanggan harus ada (NotFound) dan aktif (Validation).
func RequireActiveOwner(db *gorm.DB, id uuid.UUID) (*model.StaffUserModel, error) {
	u, err := FindByID(db, id)
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, helper.ErrValidationField("user_id", "User tidak aktif")
	}
	return u, nil
}

/* ====================== READ ====================== */

var staffSortable = map[string]string{
	"email":      "email",
	"full_name":  "full_name",
	"created_at": "created_at",
}

func (s *StaffService) List(ctx context.Context, sess helperAuth.Session, f dto.ListQuery, p helper.Params) ([]dto.StaffResponse, int64, error) {
	if err := sess.RequireAdmin("Manajemen User"); err != nil {
		return nil, 0, err
	}
	q := s.DB.WithContext(ctx).Model(&model.StaffUserModel{})
	if term := strings.TrimSpace(f.Q); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("LOWER(email) LIKE ? OR LOWER(full_name) LIKE ?", like, like)
	}
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}
	if f.Active != nil {
		q = q.Where("is_active = ?", *f.Active)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, helper.DBError(err, "")
	}
	var rows []model.StaffUserModel
	if err := q.Order(p.OrderExpr(staffSortable, "created_at")).
		Limit(p.Limit()).Offset(p.Offset()).
		Find(&rows).Error; err != nil {
		return nil, 0, helper.DBError(err, "")
	}

	counts, err := s.ownedCounts(ctx, rows)
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.StaffResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.FromModel(r, counts[r.ID]))
	}
	return out, total, nil
}

func (s *StaffService) ownedCounts(ctx context.Context, rows []model.StaffUserModel) (map[uuid.UUID]int64, error) {
	out := map[uuid.UUID]int64{}
	if len(rows) == 0 {
		return out, nil
	}
	ids := make([]uuid.UUID, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	var counts []struct {
		UserID uuid.UUID
		Total  int64
	}
	if err := s.DB.WithContext(ctx).Model(&pelangganModel.PelangganModel{}).
		Select("user_id, COUNT(*) AS total").
		Where("user_id IN ?", ids).
		Group("user_id").
		Scan(&counts).Error; err != nil {
		return nil, helper.DBError(err, "")
	}
	for _, c := range counts {
		out[c.UserID] = c.Total
	}
	return out, nil
}

func (s *StaffService) Get(ctx context.Context, sess helperAuth.Session, id uuid.UUID) (dto.StaffResponse, error) {
	if sess.UserID != id {
		if err := sess.RequireAdmin("Manajemen User"); err != nil {
			return dto.StaffResponse{}, err
		}
	}
	u, err := FindByID(s.DB.WithContext(ctx), id)
	if err != nil {
		return dto.StaffResponse{}, err
	}
	counts, err := s.ownedCounts(ctx, []model.StaffUserModel{*u})
	if err != nil {
		return dto.StaffResponse{}, err
	}
	return dto.FromModel(*u, counts[u.ID]), nil
}

/* ====================== WRITE (admin) ====================== */

func (s *StaffService) ensureCabang(ctx context.Context, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	var n int64
	if err := s.DB.WithContext(ctx).Table(unitModel.KindCabang.Table()).Where("id = ?", *id).Count(&n).Error; err != nil {
		return helper.DBError(err, "")
	}
	if n == 0 {
		return helper.ErrNotFound("Cabang tidak ditemukan")
	}
	return nil
}

func (s *StaffService) Create(ctx context.Context, sess helperAuth.Session, req dto.CreateStaffRequest) (dto.StaffResponse, error) {
	if err := sess.RequireAdmin("Manajemen User"); err != nil {
		return dto.StaffResponse{}, err
	}
	req.Normalize()
	if err := helper.ValidateStruct(req); err != nil {
		return dto.StaffResponse{}, err
	}
	if err := s.ensureCabang(ctx, req.CabangID); err != nil {
		return dto.StaffResponse{}, err
	}

	m := req.ToModel()
	if err := s.DB.WithContext(ctx).Create(m).Error; err != nil {
		if helper.IsUniqueViolation(err) {
			return dto.StaffResponse{}, helper.ErrConflict("Email atau auth identity sudah terdaftar")
		}
		return dto.StaffResponse{}, helper.DBError(err, "")
	}
	if req.IsActive != nil && !*req.IsActive {
		if err := s.DB.WithContext(ctx).Model(m).Update("is_active", false).Error; err != nil {
			return dto.StaffResponse{}, helper.DBError(err, "")
		}
		m.IsActive = false
	}

	s.Log.Info("staf dibuat", zap.String("email", m.Email), zap.String("role", m.Role), zap.Stringer("by", sess.UserID))
	return dto.FromModel(*m, 0), nil
}

func (s *StaffService) Update(ctx context.Context, sess helperAuth.Session, id uuid.UUID, req dto.UpdateStaffRequest) (dto.StaffResponse, error) {
	if err := sess.RequireAdmin("Manajemen User"); err != nil {
		return dto.StaffResponse{}, err
	}
	req.Normalize()
	if err := helper.ValidateStruct(req); err != nil {
		return dto.StaffResponse{}, err
	}
	if _, err := FindByID(s.DB.WithContext(ctx), id); err != nil {
		return dto.StaffResponse{}, err
	}

	updates := map[string]any{}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.FullName != nil {
		updates["full_name"] = *req.FullName
	}
	if req.Role != nil {
		if id == sess.UserID && *req.Role != "admin" {
			return dto.StaffResponse{}, helper.ErrValidationField("role", "Tidak bisa menurunkan role akun sendiri")
		}
		updates["role"] = *req.Role
	}
	switch {
	case req.ClearCabang:
		updates["cabang_id"] = nil
	case req.CabangID != nil:
		if err := s.ensureCabang(ctx, req.CabangID); err != nil {
			return dto.StaffResponse{}, err
		}
		updates["cabang_id"] = *req.CabangID
	}
	if req.Position != nil {
		updates["position"] = helper.StrPtr(*req.Position)
	}
	if req.Phone != nil {
		updates["phone"] = helper.StrPtr(*req.Phone)
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		updates["updated_at"] = time.Now()
		if err := s.DB.WithContext(ctx).Model(&model.StaffUserModel{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			if helper.IsUniqueViolation(err) {
				return dto.StaffResponse{}, helper.ErrConflict("Email sudah terdaftar")
			}
			return dto.StaffResponse{}, helper.DBError(err, "")
		}
	}
	return s.Get(ctx, sess, id)
}

func (s *StaffService) ToggleActive(ctx context.Context, sess helperAuth.Session, id uuid.UUID) (dto.StaffResponse, error) {
	if err := sess.RequireAdmin("Manajemen User"); err != nil {
		return dto.StaffResponse{}, err
	}
	if id == sess.UserID {
		return dto.StaffResponse{}, helper.ErrValidation("Tidak bisa menonaktifkan akun sendiri")
	}
	u, err := FindByID(s.DB.WithContext(ctx), id)
	if err != nil {
		return dto.StaffResponse{}, err
	}
	if err := s.DB.WithContext(ctx).Model(u).Update("is_active", !u.IsActive).Error; err != nil {
		return dto.StaffResponse{}, helper.DBError(err, "")
	}
	return s.Get(ctx, sess, id)
}

// Delete ditolak selama user masih memiliki pelanggan (tidak boleh ada pelanggan yatim).
func (s *StaffService) Delete(ctx context.Context, sess helperAuth.Session, id uuid.UUID) error {
	if err := sess.RequireAdmin("Manajemen User"); err != nil {
		return err
	}
	if id == sess.UserID {
		return helper.ErrValidation("Tidak bisa menghapus akun sendiri")
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := FindByID(tx, id)
		if err != nil {
			return err
		}
		var owned int64
		if err := tx.Model(&pelangganModel.PelangganModel{}).Where("user_id = ?", id).Count(&owned).Error; err != nil {
			return helper.DBError(err, "")
		}
		if owned > 0 {
			return helper.ErrConflict("User %s masih memiliki %d pelanggan, pindahkan dulu", u.Email, owned)
		}
		if err := tx.Delete(&model.StaffUserModel{}, "id = ?", id).Error; err != nil {
			return helper.DBError(err, "")
		}
		s.Log.Info("staf dihapus", zap.String("email", u.Email), zap.Stringer("by", sess.UserID))
		return nil
	})
}

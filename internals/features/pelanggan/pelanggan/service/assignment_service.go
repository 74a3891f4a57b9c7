package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"pdam_pelanggan_backend/internals/features/pelanggan/pelanggan/dto"
	"pdam_pelanggan_backend/internals/features/pelanggan/pelanggan/model"
	staffService "pdam_pelanggan_backend/internals/features/users/staff/service"
	helper "pdam_pelanggan_backend/internals/helpers"
	helperAuth "pdam_pelanggan_backend/internals/helpers/auth"
	"pdam_pelanggan_backend/internals/metrics"
)

// Transfer memindahkan kepemilikan pelanggan. Pemilik sama = sukses tanpa perubahan.
func (s *PelangganService) Transfer(ctx context.Context, sess helperAuth.Session, pelangganID, newUserID uuid.UUID) (*model.PelangganModel, error) {
	if err := sess.RequireAdmin("Pindah Pelanggan"); err != nil {
		return nil, err
	}

	var out model.PelangganModel
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", pelangganID).Take(&out).Error; err != nil {
			return helper.DBError(err, "Pelanggan tidak ditemukan")
		}
		if _, err := staffService.RequireActiveOwner(tx, newUserID); err != nil {
			return err
		}
		if out.UserID == newUserID {
			return nil
		}
		if err := transferOne(tx, pelangganID, newUserID); err != nil {
			return err
		}
		s.Log.Info("pelanggan dipindah",
			zap.String("id_pelanggan", out.IDPelanggan),
			zap.Stringer("from", out.UserID),
			zap.Stringer("to", newUserID),
			zap.Stringer("by", sess.UserID),
		)
		out.UserID = newUserID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// transferOne: satu UPDATE; baris tidak ada → NotFound.
func transferOne(db *gorm.DB, pelangganID, newUserID uuid.UUID) error {
	res := db.Model(&model.PelangganModel{}).
		Where("id = ?", pelangganID).
		Updates(map[string]any{"user_id": newUserID, "updated_at": time.Now()})
	if res.Error != nil {
		return helper.DBError(res.Error, "")
	}
	if res.RowsAffected == 0 {
		return helper.ErrNotFound("Pelanggan tidak ditemukan")
	}
	return nil
}

// BulkAssign menerapkan Transfer ke setiap id secara best-effort: id yang gagal
// dicatat di Failed tanpa membatalkan id lain yang berhasil.
func (s *PelangganService) BulkAssign(ctx context.Context, sess helperAuth.Session, req dto.BulkAssignRequest) (dto.BulkAssignResult, error) {
	out := dto.BulkAssignResult{Succeeded: []string{}, Failed: []dto.BulkFailure{}}
	if err := sess.RequireAdmin("Assign Pelanggan"); err != nil {
		return out, err
	}
	if err := requireConfirm(req.Confirm, "Assign massal"); err != nil {
		return out, err
	}
	userID, err := uuid.Parse(strings.TrimSpace(req.UserID))
	if err != nil {
		return out, helper.ErrValidationField("user_id", "harus UUID")
	}
	if len(req.PelangganIDs) == 0 {
		return out, helper.ErrValidationField("pelanggan_ids", "minimal satu id")
	}

	db := s.DB.WithContext(ctx)
	if _, err := staffService.RequireActiveOwner(db, userID); err != nil {
		return out, err
	}
	out.UserID = userID

	seen := make(map[string]struct{}, len(req.PelangganIDs))
	for _, raw := range req.PelangganIDs {
		key := strings.TrimSpace(raw)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		id, err := uuid.Parse(key)
		if err != nil {
			out.Failed = append(out.Failed, dto.BulkFailure{ID: raw, Reason: "ID pelanggan tidak valid"})
			continue
		}
		if err := transferOne(db, id, userID); err != nil {
			out.Failed = append(out.Failed, dto.BulkFailure{ID: key, Reason: helper.AsAppError(err).Message})
			continue
		}
		out.Succeeded = append(out.Succeeded, id.String())
	}

	out.SucceededCount = len(out.Succeeded)
	out.FailedCount = len(out.Failed)
	metrics.BulkAssignItems(out.SucceededCount, out.FailedCount)
	s.Log.Info("bulk assign pelanggan",
		zap.Stringer("to", userID),
		zap.Int("succeeded", out.SucceededCount),
		zap.Int("failed", out.FailedCount),
		zap.Stringer("by", sess.UserID),
	)
	return out, nil
}

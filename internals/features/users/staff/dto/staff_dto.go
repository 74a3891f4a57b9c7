package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"pdam_pelanggan_backend/internals/features/users/staff/model"
	helper "pdam_pelanggan_backend/internals/helpers"
)

/* =======================================================
   REQUEST DTOs
   ======================================================= */

// CreateStaffRequest: menautkan akun Supabase yang sudah ada ke profil staf
type CreateStaffRequest struct {
	AuthIdentity string     `json:"auth_identity" validate:"required,max=100"`
	Email        string     `json:"email" validate:"required,email,max=255"`
	FullName     string     `json:"full_name" validate:"omitempty,max=120"`
	Role         string     `json:"role" validate:"omitempty,oneof=admin user"`
	CabangID     *uuid.UUID `json:"cabang_id,omitempty"`
	Position     *string    `json:"position,omitempty" validate:"omitempty,max=100"`
	Phone        *string    `json:"phone,omitempty" validate:"omitempty,max=30"`
	IsActive     *bool      `json:"is_active,omitempty"`
}

func (r *CreateStaffRequest) Normalize() {
	r.AuthIdentity = strings.TrimSpace(r.AuthIdentity)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.FullName = helper.CleanText(r.FullName)
	r.Role = strings.ToLower(strings.TrimSpace(r.Role))
	if r.Role == "" {
		r.Role = "user"
	}
	if r.Position != nil {
		r.Position = helper.StrPtr(*r.Position)
	}
	if r.Phone != nil {
		r.Phone = helper.StrPtr(*r.Phone)
	}
}

func (r *CreateStaffRequest) ToModel() *model.StaffUserModel {
	return &model.StaffUserModel{
		AuthIdentity: r.AuthIdentity,
		Email:        r.Email,
		FullName:     r.FullName,
		Role:         r.Role,
		CabangID:     r.CabangID,
		Position:     r.Position,
		Phone:        r.Phone,
		IsActive:     true,
	}
}

// UpdateStaffRequest: partial update
type UpdateStaffRequest struct {
	Email       *string    `json:"email,omitempty" validate:"omitempty,email,max=255"`
	FullName    *string    `json:"full_name,omitempty" validate:"omitempty,max=120"`
	Role        *string    `json:"role,omitempty" validate:"omitempty,oneof=admin user"`
	CabangID    *uuid.UUID `json:"cabang_id,omitempty"`
	ClearCabang bool       `json:"clear_cabang,omitempty"`
	Position    *string    `json:"position,omitempty" validate:"omitempty,max=100"`
	Phone       *string    `json:"phone,omitempty" validate:"omitempty,max=30"`
	IsActive    *bool      `json:"is_active,omitempty"`
}

func (r *UpdateStaffRequest) Normalize() {
	if r.Email != nil {
		v := strings.ToLower(strings.TrimSpace(*r.Email))
		r.Email = &v
	}
	if r.FullName != nil {
		v := helper.CleanText(*r.FullName)
		r.FullName = &v
	}
	if r.Role != nil {
		v := strings.ToLower(strings.TrimSpace(*r.Role))
		r.Role = &v
	}
}

type ListQuery struct {
	Q      string
	Role   string
	Active *bool
}

/* =======================================================
   RESPONSE DTOs
   ======================================================= */

type StaffResponse struct {
	ID             uuid.UUID  `json:"id"`
	AuthIdentity   string     `json:"auth_identity"`
	Email          string     `json:"email"`
	FullName       string     `json:"full_name"`
	Role           string     `json:"role"`
	CabangID       *uuid.UUID `json:"cabang_id,omitempty"`
	Position       *string    `json:"position,omitempty"`
	Phone          *string    `json:"phone,omitempty"`
	IsActive       bool       `json:"is_active"`
	TotalPelanggan int64      `json:"total_pelanggan"`
	CreatedAt      time.Time  `json:"created_at"`
}

func FromModel(m model.StaffUserModel, total int64) StaffResponse {
	return StaffResponse{
		ID:             m.ID,
		AuthIdentity:   m.AuthIdentity,
		Email:          m.Email,
		FullName:       m.FullName,
		Role:           m.Role,
		CabangID:       m.CabangID,
		Position:       m.Position,
		Phone:          m.Phone,
		IsActive:       m.IsActive,
		TotalPelanggan: total,
		CreatedAt:      m.CreatedAt,
	}
}

package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StaffUserModel merepresentasikan tabel users (profil staf, bukan kredensial).
// Login & password dikelola Supabase Auth; auth_identity = sub dari token.
type StaffUserModel struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	AuthIdentity string     `gorm:"size:100;not null;uniqueIndex" json:"auth_identity"`
	Email        string     `gorm:"size:255;not null;uniqueIndex" json:"email"`
	FullName     string     `gorm:"size:120" json:"full_name"`
	Role         string     `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	CabangID     *uuid.UUID `gorm:"type:uuid;index" json:"cabang_id,omitempty"`
	Position     *string    `gorm:"size:100" json:"position,omitempty"`
	Phone        *string    `gorm:"size:30" json:"phone,omitempty"`
	IsActive     bool       `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (StaffUserModel) TableName() string {
	return "users"
}

func (u *StaffUserModel) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = "user"
	}
	return nil
}

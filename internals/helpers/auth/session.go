package helper

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"pdam_pelanggan_backend/internals/constants"
	appHelper "pdam_pelanggan_backend/internals/helpers"
)

const LocSession = "session"

// Session adalah identitas staf yang sudah diverifikasi middleware.
// Diteruskan eksplisit ke setiap pemanggilan service.
type Session struct {
	UserID       uuid.UUID  `json:"id"`
	AuthIdentity string     `json:"auth_identity"`
	Email        string     `json:"email"`
	FullName     string     `json:"full_name"`
	Role         string     `json:"role"`
	CabangID     *uuid.UUID `json:"cabang_id,omitempty"`
}

func (s Session) IsAdmin() bool { return s.Role == constants.RoleAdmin }

// DisplayName: nama lengkap, fallback email.
func (s Session) DisplayName() string {
	if s.FullName != "" {
		return s.FullName
	}
	return s.Email
}

// RequireAdmin dipakai service untuk operasi khusus admin.
func (s Session) RequireAdmin(feature string) error {
	if !s.IsAdmin() {
		return appHelper.ErrForbidden("%s", constants.RoleErrorAdmin(feature))
	}
	return nil
}

func SetSession(c *fiber.Ctx, s Session) {
	c.Locals(LocSession, s)
	c.Locals("user_id", s.UserID.String())
	c.Locals("userRole", s.Role)
}

// GetSession mengambil Session dari Locals; 401 bila tidak ada.
func GetSession(c *fiber.Ctx) (Session, error) {
	s, ok := c.Locals(LocSession).(Session)
	if !ok || s.UserID == uuid.Nil {
		return Session{}, appHelper.ErrUnauthorized("Sesi tidak ditemukan, silakan login ulang")
	}
	return s, nil
}

// internals/middlewares/auth/auth_middleware.go
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	userModel "pdam_pelanggan_backend/internals/features/users/staff/model"
	helperAuth "pdam_pelanggan_backend/internals/helpers/auth"
)

type AuthJWTOpts struct {
	Secret              string
	AllowCookieFallback bool // pakai cookie access_token jika tidak ada Bearer
	Log                 *zap.Logger
}

// AuthJWT memverifikasi access token Supabase (HS256), lalu memuat staf aktif
// dengan auth_identity = sub dan menyimpan Session ke Locals.
func AuthJWT(db *gorm.DB, o AuthJWTOpts) fiber.Handler {
	secret := strings.TrimSpace(o.Secret)
	if secret == "" {
		panic("AuthJWT: Secret wajib diisi")
	}
	log := o.Log
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *fiber.Ctx) error {
		// 1) Ambil token
		raw, err := extractBearerToken(c, o.AllowCookieFallback)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}

		// 2) Parse + verifikasi algoritma
		claims := jwt.MapClaims{}
		parser := jwt.Parser{SkipClaimsValidation: true}
		tok, err := parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !tok.Valid {
			log.Debug("token parse error", zap.Error(err))
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - Token parse error")
		}

		// 3) Validasi exp (toleransi 30 detik)
		if err := validateTokenExpiry(claims, 30*time.Second); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - Token expired")
		}

		sub := strClaim(claims, "sub")
		if sub == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - Invalid or missing subject")
		}

		// 4) Muat profil staf
		var user userModel.StaffUserModel
		if err := db.WithContext(c.UserContext()).
			Where("auth_identity = ?", sub).
			First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusForbidden, "Akun belum terdaftar sebagai staf")
			}
			log.Error("load staff user", zap.String("sub", sub), zap.Error(err))
			return fiber.NewError(fiber.StatusInternalServerError, "Internal Server Error")
		}
		if !user.IsActive {
			return fiber.NewError(fiber.StatusForbidden, "Akun Anda telah dinonaktifkan")
		}

		email := user.Email
		if email == "" {
			email = strClaim(claims, "email")
		}
		helperAuth.SetSession(c, helperAuth.Session{
			UserID:       user.ID,
			AuthIdentity: user.AuthIdentity,
			Email:        email,
			FullName:     user.FullName,
			Role:         user.Role,
			CabangID:     user.CabangID,
		})
		return c.Next()
	}
}

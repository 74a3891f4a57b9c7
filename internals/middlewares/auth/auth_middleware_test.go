package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pdam_pelanggan_backend/internals/constants"
	helper "pdam_pelanggan_backend/internals/helpers"
	helperAuth "pdam_pelanggan_backend/internals/helpers/auth"
	authMiddleware "pdam_pelanggan_backend/internals/middlewares/auth"
	"pdam_pelanggan_backend/internals/testutil"
)

const secret = "rahasia-test"

func sign(t *testing.T, key string, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return tok
}

func TestAuthJWT(t *testing.T) {
	db := testutil.NewDB(t)
	f := testutil.Seed(t, db)

	app := fiber.New(fiber.Config{ErrorHandler: helper.NewErrorHandler(zap.NewNop())})
	opts := authMiddleware.AuthJWTOpts{Secret: secret, AllowCookieFallback: true}
	app.Get("/me", authMiddleware.AuthJWT(db, opts), func(c *fiber.Ctx) error {
		sess, err := helperAuth.GetSession(c)
		if err != nil {
			return err
		}
		return c.SendString(sess.Role + ":" + sess.Email)
	})
	app.Get("/admin", authMiddleware.AuthJWT(db, opts),
		authMiddleware.OnlyRolesSlice(constants.RoleErrorAdmin("Test"), constants.AdminOnly),
		func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	exp := time.Now().Add(time.Hour).Unix()
	valid := func(sub string) string {
		return sign(t, secret, jwt.MapClaims{"sub": sub, "exp": exp})
	}

	cases := []struct {
		name   string
		path   string
		header string
		cookie string
		status int
	}{
		{"tanpa token", "/me", "", "", fiber.StatusUnauthorized},
		{"format salah", "/me", "Token abc", "", fiber.StatusUnauthorized},
		{"secret salah", "/me", "Bearer " + sign(t, "lain", jwt.MapClaims{"sub": f.Staff.AuthIdentity, "exp": exp}), "", fiber.StatusUnauthorized},
		{"kedaluwarsa", "/me", "Bearer " + sign(t, secret, jwt.MapClaims{"sub": f.Staff.AuthIdentity, "exp": time.Now().Add(-time.Hour).Unix()}), "", fiber.StatusUnauthorized},
		{"tanpa sub", "/me", "Bearer " + sign(t, secret, jwt.MapClaims{"exp": exp}), "", fiber.StatusUnauthorized},
		{"belum terdaftar", "/me", "Bearer " + valid("sub-asing"), "", fiber.StatusForbidden},
		{"staf nonaktif", "/me", "Bearer " + valid(f.Inactive.AuthIdentity), "", fiber.StatusForbidden},
		{"staf aktif", "/me", "Bearer " + valid(f.Staff.AuthIdentity), "", fiber.StatusOK},
		{"cookie fallback", "/me", "", valid(f.Staff.AuthIdentity), fiber.StatusOK},
		{"staf ke area admin", "/admin", "Bearer " + valid(f.Staff.AuthIdentity), "", fiber.StatusForbidden},
		{"admin ke area admin", "/admin", "Bearer " + valid(f.Admin.AuthIdentity), "", fiber.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "access_token", Value: tc.cookie})
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestAuthJWTRequiresSecret(t *testing.T) {
	assert.Panics(t, func() {
		authMiddleware.AuthJWT(nil, authMiddleware.AuthJWTOpts{})
	})
}

package auth

import (
	"github.com/gofiber/fiber/v2"

	helperAuth "pdam_pelanggan_backend/internals/helpers/auth"
)

// RoleMiddlewareWithCustomError validasi role + custom error message
func RoleMiddlewareWithCustomError(allowedRoles []string, customForbiddenMessage string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := helperAuth.GetSession(c)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized: missing role information")
		}

		for _, allowed := range allowedRoles {
			if sess.Role == allowed {
				return c.Next()
			}
		}

		if customForbiddenMessage == "" {
			customForbiddenMessage = "Forbidden: you are not authorized to access this resource"
		}
		return fiber.NewError(fiber.StatusForbidden, customForbiddenMessage)
	}
}

// Shortcut biar lebih clean pemakaian
func OnlyRoles(customMessage string, roles ...string) fiber.Handler {
	return RoleMiddlewareWithCustomError(roles, customMessage)
}

func OnlyRolesSlice(customMessage string, roles []string) fiber.Handler {
	return RoleMiddlewareWithCustomError(roles, customMessage)
}

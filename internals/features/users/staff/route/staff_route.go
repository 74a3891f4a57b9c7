package route

import (
	"github.com/gofiber/fiber/v2"

	"pdam_pelanggan_backend/internals/constants"
	"pdam_pelanggan_backend/internals/features/users/staff/controller"
	authMiddleware "pdam_pelanggan_backend/internals/middlewares/auth"
)

func StaffUserRoutes(user fiber.Router, ctl *controller.StaffController) {
	user.Get("/me", ctl.Me)
}

func StaffAdminRoutes(admin fiber.Router, ctl *controller.StaffController) {
	users := admin.Group("/users",
		authMiddleware.OnlyRolesSlice(constants.RoleErrorAdmin("Manajemen User"), constants.AdminOnly),
	)
	users.Get("/", ctl.List)
	users.Post("/", ctl.Create)
	users.Get("/:id", ctl.Detail)
	users.Put("/:id", ctl.Update)
	users.Patch("/:id/toggle", ctl.ToggleActive)
	users.Delete("/:id", ctl.Delete)
}

package route

import (
	"github.com/gofiber/fiber/v2"

	"pdam_pelanggan_backend/internals/constants"
	"pdam_pelanggan_backend/internals/features/pelanggan/pelanggan/controller"
	authMiddleware "pdam_pelanggan_backend/internals/middlewares/auth"
)

// /api/u/pelanggan: semua staf; service membatasi ke data milik sendiri untuk role user.
func PelangganUserRoutes(user fiber.Router, ctl *controller.PelangganController) {
	g := user.Group("/pelanggan")
	g.Get("/", ctl.List)
	g.Get("/peta", ctl.Markers)
	g.Post("/", ctl.CreateOwn)
	g.Get("/:id", ctl.Detail)
	g.Put("/:id", ctl.Update)
}

func PelangganAdminRoutes(admin fiber.Router, ctl *controller.PelangganController) {
	g := admin.Group("/pelanggan",
		authMiddleware.OnlyRolesSlice(constants.RoleErrorAdmin("Manajemen Pelanggan"), constants.AdminOnly),
	)
	g.Get("/", ctl.List)
	g.Post("/", ctl.CreateForUser)
	g.Post("/bulk-assign", ctl.BulkAssign)
	g.Post("/bulk-delete", ctl.BulkDelete)
	g.Patch("/:id/transfer", ctl.Transfer)
	g.Delete("/:id", ctl.Delete)
}

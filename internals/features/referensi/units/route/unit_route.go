package route

import (
	"github.com/gofiber/fiber/v2"

	"pdam_pelanggan_backend/internals/constants"
	"pdam_pelanggan_backend/internals/features/referensi/units/controller"
	authMiddleware "pdam_pelanggan_backend/internals/middlewares/auth"
)

// Publik: dropdown form registrasi & resolver desa → kecamatan.
func UnitPublicRoutes(public fiber.Router, ctl *controller.UnitController) {
	ref := public.Group("/referensi")
	ref.Get("/desa/:id/kecamatan", ctl.ResolveKecamatan)
	ref.Get("/:kind", ctl.ListActive)
}

func UnitAdminRoutes(admin fiber.Router, ctl *controller.UnitController) {
	ref := admin.Group("/referensi",
		authMiddleware.OnlyRolesSlice(constants.RoleErrorAdmin("Data Referensi"), constants.AdminOnly),
	)
	ref.Get("/:kind", ctl.List)
	ref.Post("/:kind", ctl.Create)
	ref.Get("/:kind/:id", ctl.Detail)
	ref.Put("/:kind/:id", ctl.Update)
	ref.Patch("/:kind/:id/toggle", ctl.ToggleStatus)
	ref.Delete("/:kind/:id", ctl.Delete)
}

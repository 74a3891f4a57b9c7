package route

import (
	"github.com/gofiber/fiber/v2"

	"pdam_pelanggan_backend/internals/constants"
	"pdam_pelanggan_backend/internals/features/registrasi/registrasi/controller"
	"pdam_pelanggan_backend/internals/middlewares"
	authMiddleware "pdam_pelanggan_backend/internals/middlewares/auth"
)

// /api/public/registrasi: form pendaftaran & cek status
func RegistrasiPublicRoutes(public fiber.Router, ctl *controller.RegistrasiController) {
	g := public.Group("/registrasi")
	g.Post("/", middlewares.RegisterRateLimiter(), ctl.SubmitPublic)
	g.Get("/:no_registrasi", ctl.Track)
}

// /api/u/registrasi: staf: ajukan & lihat pengajuan sendiri
func RegistrasiUserRoutes(user fiber.Router, ctl *controller.RegistrasiController) {
	g := user.Group("/registrasi")
	g.Get("/", ctl.List)
	g.Post("/", ctl.SubmitStaff)
	g.Get("/:id", ctl.Detail)
}

// /api/a/registrasi: review admin
func RegistrasiAdminRoutes(admin fiber.Router, ctl *controller.RegistrasiController) {
	g := admin.Group("/registrasi",
		authMiddleware.OnlyRolesSlice(constants.RoleErrorAdmin("Review Registrasi"), constants.AdminOnly),
	)
	g.Get("/", ctl.List)
	g.Get("/:id", ctl.Detail)
	g.Post("/:id/approve", ctl.Approve)
	g.Post("/:id/reject", ctl.Reject)
}

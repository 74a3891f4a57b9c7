// file: internals/route/index.go
package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"pdam_pelanggan_backend/internals/caches"
	"pdam_pelanggan_backend/internals/configs"
	pelangganController "pdam_pelanggan_backend/internals/features/pelanggan/pelanggan/controller"
	pelangganRoute "pdam_pelanggan_backend/internals/features/pelanggan/pelanggan/route"
	pelangganService "pdam_pelanggan_backend/internals/features/pelanggan/pelanggan/service"
	reportController "pdam_pelanggan_backend/internals/features/pelanggan/reports/controller"
	reportRoute "pdam_pelanggan_backend/internals/features/pelanggan/reports/route"
	reportService "pdam_pelanggan_backend/internals/features/pelanggan/reports/service"
	unitController "pdam_pelanggan_backend/internals/features/referensi/units/controller"
	unitRoute "pdam_pelanggan_backend/internals/features/referensi/units/route"
	unitService "pdam_pelanggan_backend/internals/features/referensi/units/service"
	registrasiController "pdam_pelanggan_backend/internals/features/registrasi/registrasi/controller"
	registrasiRoute "pdam_pelanggan_backend/internals/features/registrasi/registrasi/route"
	registrasiService "pdam_pelanggan_backend/internals/features/registrasi/registrasi/service"
	staffController "pdam_pelanggan_backend/internals/features/users/staff/controller"
	staffRoute "pdam_pelanggan_backend/internals/features/users/staff/route"
	staffService "pdam_pelanggan_backend/internals/features/users/staff/service"
	helper "pdam_pelanggan_backend/internals/helpers"
	authMiddleware "pdam_pelanggan_backend/internals/middlewares/auth"
)

var startTime time.Time

// Deps: dependency yang dibangun di main lalu dibagikan ke semua fitur.
type Deps struct {
	DB       *gorm.DB
	Config   configs.Config
	Log      *zap.Logger
	Cache    caches.JSONCache
	Storage  helper.FileStorage
	Notifier registrasiService.Notifier
}

func SetupRoutes(app *fiber.App, d Deps) {
	startTime = time.Now()
	log := d.Log

	BaseRoutes(app, d.DB)

	// ===================== SERVICES =====================
	units := unitService.NewUnitService(d.DB, d.Cache, log)
	resolver := unitService.NewResolver(d.DB)
	staff := staffService.NewStaffService(d.DB, log)
	pelanggan := pelangganService.NewPelangganService(d.DB, resolver, log)
	reports := reportService.NewReportService(d.DB, pelanggan, log)
	registrasi := registrasiService.NewRegistrasiService(d.DB, resolver, d.Storage, d.Notifier, log)

	unitCtl := unitController.NewUnitController(units, resolver)
	staffCtl := staffController.NewStaffController(staff)
	pelangganCtl := pelangganController.NewPelangganController(pelanggan)
	reportCtl := reportController.NewReportController(reports)
	registrasiCtl := registrasiController.NewRegistrasiController(registrasi)

	authOpts := authMiddleware.AuthJWTOpts{
		Secret:              d.Config.SupabaseJWTSecret,
		AllowCookieFallback: true,
		Log:                 log,
	}

	// ===================== GROUPS =====================

	// PUBLIC → tanpa login (pendaftaran & cek status)
	log.Info("Setting up PUBLIC group...")
	public := app.Group("/api/public")

	// PRIVATE (USER) → semua staf aktif
	log.Info("Setting up PRIVATE group...")
	user := app.Group("/api/u", authMiddleware.AuthJWT(d.DB, authOpts))

	// ADMIN → role dicek per fitur (pesan error menyebut fiturnya)
	log.Info("Setting up ADMIN group...")
	admin := app.Group("/api/a", authMiddleware.AuthJWT(d.DB, authOpts))

	// ===================== MOUNT ROUTES =====================

	log.Info("Mounting Referensi routes...")
	unitRoute.UnitPublicRoutes(public, unitCtl)
	unitRoute.UnitAdminRoutes(admin, unitCtl)

	log.Info("Mounting Staff routes...")
	staffRoute.StaffUserRoutes(user, staffCtl)
	staffRoute.StaffAdminRoutes(admin, staffCtl)

	log.Info("Mounting Pelanggan routes...")
	pelangganRoute.PelangganUserRoutes(user, pelangganCtl)
	pelangganRoute.PelangganAdminRoutes(admin, pelangganCtl)
	reportRoute.ReportUserRoutes(user, reportCtl)

	log.Info("Mounting Registrasi routes...")
	registrasiRoute.RegistrasiPublicRoutes(public, registrasiCtl)
	registrasiRoute.RegistrasiUserRoutes(user, registrasiCtl)
	registrasiRoute.RegistrasiAdminRoutes(admin, registrasiCtl)
}

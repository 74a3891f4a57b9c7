package middlewares

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"pdam_pelanggan_backend/internals/configs"
	"pdam_pelanggan_backend/internals/middlewares/logger"
)

// SetupMiddlewares memasang middleware global (urutan penting).
func SetupMiddlewares(app *fiber.App, cfg configs.Config, log *zap.Logger) {
	app.Use(RecoveryMiddleware(log))
	app.Use(CorsMiddleware(cfg.CorsAllowOrigins))
	app.Use(logger.LoggerMiddleware())
	app.Use(MetricsMiddleware())
	app.Use(GlobalRateLimiter())
}

package middlewares

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// Global limiter: untuk semua endpoint biasa
func GlobalRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success":    false,
				"message":    "❌ Terlalu banyak permintaan. Silakan coba lagi nanti.",
				"error_code": "TOO_MANY_REQUESTS",
			})
		},
	})
}

// Rate limiter untuk pendaftaran pelanggan publik
func RegisterRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        3,
		Expiration: 5 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success":    false,
				"message":    "❌ Terlalu banyak percobaan pendaftaran. Tunggu beberapa menit ya.",
				"error_code": "TOO_MANY_REQUESTS",
			})
		},
	})
}

// Rate limiter untuk import/ekspor (berat di DB)
func ReportRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        10,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success":    false,
				"message":    "❌ Terlalu banyak permintaan ekspor/impor. Coba lagi sebentar.",
				"error_code": "TOO_MANY_REQUESTS",
			})
		},
	})
}

package middlewares

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"pdam_pelanggan_backend/internals/metrics"
)

// MetricsMiddleware mencatat jumlah & durasi request per route template.
func MetricsMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}
		path := c.Route().Path
		metrics.ObserveHTTP(c.Method(), path, strconv.Itoa(status), time.Since(start))
		return err
	}
}

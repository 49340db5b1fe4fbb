package middleware

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
)

var httpMetrics *fiberprometheus.FiberPrometheus

// InitMetrics sets up the Prometheus HTTP middleware and exposes the
// scrape endpoint on the app.
func InitMetrics(app *fiber.App) {
	httpMetrics = fiberprometheus.New("forum")
	httpMetrics.RegisterAt(app, "/metrics")
}

// MetricsMiddleware records request metrics for every route.
func MetricsMiddleware() fiber.Handler {
	return httpMetrics.Middleware
}

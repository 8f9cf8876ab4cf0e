package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"retailforecast/handlers"
	"retailforecast/middleware"
	"retailforecast/utils"
)

// SetupRoutes defines all the routes for the application.
func SetupRoutes(app *fiber.App) {
	app.Get("/version", handlers.HandleVersion)
	app.Get("/health/db", handlers.HandleDBHealth)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api/v1")

	// --- Authentication Routes ---
	auth := api.Group("/auth")
	auth.Post("/login", handlers.HandleLogin)

	// --- Merchant Routes (staff read on behalf of their merchant) ---
	merchant := api.Group("/merchant", middleware.JWTMiddleware, middleware.CheckRole(utils.ForecastReaderRoles...))

	forecast := merchant.Group("/forecast")
	forecast.Get("/", handlers.HandleGetForecasts)
	forecast.Get("/correlations", handlers.HandleGetCorrelations)
	forecast.Get("/predictions/export", handlers.HandleExportPredictions) // Must be before /predictions
	forecast.Get("/predictions", handlers.HandleGetPredictions)
	forecast.Get("/products/:itemId", handlers.HandleGetProductForecast)
	forecast.Post("/products/:itemId/insights", handlers.HandleGetProductInsights)
}

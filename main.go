package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"

	"retailforecast/config"
	"retailforecast/database"
	"retailforecast/forecasting"
	"retailforecast/handlers"
	"retailforecast/routes"
)

func main() {
	// Load .env file
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file, using environment variables")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}
	config.AppConfig = *cfg

	opts, err := cfg.Forecast.Options()
	if err != nil {
		log.Fatalf("❌ Invalid forecast configuration: %v", err)
	}
	handlers.SetForecaster(forecasting.NewForecaster(opts, nil))
	handlers.ConfigureGemini(cfg.Gemini)
	if cfg.Gemini.APIKey == "" {
		log.Println("⚠️  GEMINI_API_KEY is not set, AI insights are disabled")
	}

	// Initialize database
	database.Connect(cfg.DatabaseURL)
	defer database.Close()

	app := fiber.New()

	// Add CORS middleware
	app.Use(cors.New())

	// Setup routes
	routes.SetupRoutes(app)

	// Start server
	log.Printf("📈 Forecast service listening on %s (jitter=%v, models disabled=%v)",
		cfg.Addr(), opts.JitterEnabled, opts.DisabledModels)
	log.Fatal(app.Listen(cfg.Addr()))
}

package handlers

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"

	"retailforecast/database"
)

// pingDB checks database connectivity; replaced in tests.
var pingDB = func(ctx context.Context) error {
	return database.GetDB().Ping(ctx)
}

// HandleVersion prints the build information.
// GET /version
func HandleVersion(c *fiber.Ctx) error {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return c.Status(500).SendString("no build information available")
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTML)
	return c.SendString("<pre>\n" + info.String() + "</pre>\n")
}

// HandleDBHealth pings the database.
// GET /health/db
func HandleDBHealth(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
	defer cancel()
	if err := pingDB(ctx); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"success": false, "message": "Database ping failed: " + err.Error()})
	}
	return c.JSON(fiber.Map{"success": true, "message": "Database ping successful!"})
}

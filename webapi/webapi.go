// Package webapi provides the HTTP surface of the rate hub:
// - currencies: the supported currency catalog
// - rates: resolved quotes and on-demand update cycles
// - portfolio: the per-owner multi-currency ledger
package webapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/valutatrade/hub/pkg/app"
)

// SetupApp initializes Fiber with the hub's routes and middleware.
func SetupApp(a *app.App) *fiber.App {
	fiberApp := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			status := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				status = e.Code
			}
			return ErrorResponseJSON(c, status, "Internal Server Error", err.Error())
		},
	})

	fiberApp.Use(recover.New())
	fiberApp.Use(logger.New())

	// Health check endpoint
	fiberApp.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("ValutaTrade Hub is running! 🚀")
	})

	CurrencyRoutes(fiberApp, a)
	RateRoutes(fiberApp, a)
	PortfolioRoutes(fiberApp, a)
	return fiberApp
}

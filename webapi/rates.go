package webapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/valutatrade/hub/pkg/app"
)

// RateRoutes sets up the rate resolution and update routes.
func RateRoutes(fiberApp *fiber.App, a *app.App) {
	group := fiberApp.Group("/api/rates")
	group.Get("/:from/:to", GetRate(a))
	group.Post("/update", RunUpdate(a))
}

// GetRate resolves the rate between two currencies, deriving it through
// the base currency when no direct quote exists.
func GetRate(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		detail, err := a.Ledger.GetRate(c.Params("from"), c.Params("to"))
		if err != nil {
			return ErrorResponseJSON(c, ErrorToStatusCode(err), "Failed to resolve rate", err.Error())
		}
		return c.JSON(Response{
			Status:  fiber.StatusOK,
			Message: "Rate resolved successfully",
			Data:    detail,
		})
	}
}

// RunUpdate triggers one synchronous update cycle against all sources.
func RunUpdate(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		result, err := a.Aggregator.RunUpdate(c.Context())
		if err != nil {
			return ErrorResponseJSON(c, ErrorToStatusCode(err), "Rate update failed", err.Error())
		}
		return c.JSON(Response{
			Status:  fiber.StatusOK,
			Message: "Rates updated successfully",
			Data:    result,
		})
	}
}

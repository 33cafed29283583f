package webapi

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/valutatrade/hub/pkg/app"
	"github.com/valutatrade/hub/pkg/currency"
)

// CurrencyRoutes sets up the currency catalog routes.
func CurrencyRoutes(fiberApp *fiber.App, a *app.App) {
	group := fiberApp.Group("/api/currencies")
	group.Get("/", ListCurrencies(a))
	group.Get("/:code", GetCurrency(a))
}

// ListCurrencies returns all supported currency codes.
func ListCurrencies(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(Response{
			Status:  fiber.StatusOK,
			Message: "Supported currencies fetched successfully",
			Data:    a.Deps.CurrencyRegistry.ListSupportedCodes(),
		})
	}
}

// GetCurrency returns the catalog entry for one currency code.
func GetCurrency(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		code := strings.ToUpper(strings.TrimSpace(c.Params("code")))
		if !currency.IsValidCodeFormat(code) {
			return ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid currency code", "currency codes are 2-5 uppercase letters")
		}
		cur, err := a.Deps.CurrencyRegistry.Lookup(code)
		if err != nil {
			return ErrorResponseJSON(c, ErrorToStatusCode(err), "Currency not found", err.Error())
		}
		return c.JSON(Response{
			Status:  fiber.StatusOK,
			Message: "Currency fetched successfully",
			Data:    cur,
		})
	}
}

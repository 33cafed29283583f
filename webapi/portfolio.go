package webapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/valutatrade/hub/pkg/app"
	"github.com/valutatrade/hub/pkg/currency"
)

// AmountRequest is the body of every wallet mutation.
type AmountRequest struct {
	Currency string  `json:"currency" validate:"required"`
	Amount   float64 `json:"amount" validate:"required,gt=0"`
}

// PortfolioRoutes sets up the ledger routes.
func PortfolioRoutes(fiberApp *fiber.App, a *app.App) {
	group := fiberApp.Group("/api/portfolio/:owner")
	group.Get("/", GetPortfolio(a))
	group.Get("/value", ValuatePortfolio(a))
	group.Post("/deposit", Deposit(a))
	group.Post("/withdraw", Withdraw(a))
	group.Post("/buy", Buy(a))
	group.Post("/sell", Sell(a))
}

// GetPortfolio returns the owner's wallets, creating the portfolio with
// its seed balance on first reference.
func GetPortfolio(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := a.Ledger.PortfolioInfo(c.Params("owner"))
		if err != nil {
			return ErrorResponseJSON(c, ErrorToStatusCode(err), "Failed to fetch portfolio", err.Error())
		}
		return c.JSON(Response{
			Status:  fiber.StatusOK,
			Message: "Portfolio fetched successfully",
			Data:    p,
		})
	}
}

// ValuatePortfolio values all wallets in the target currency (query param
// "target", default is the configured base).
func ValuatePortfolio(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		target := c.Query("target", currency.DefaultBase)
		v, err := a.Ledger.Valuate(c.Params("owner"), target)
		if err != nil {
			return ErrorResponseJSON(c, ErrorToStatusCode(err), "Failed to valuate portfolio", err.Error())
		}
		return c.JSON(Response{
			Status:  fiber.StatusOK,
			Message: "Portfolio valuated successfully",
			Data:    v,
		})
	}
}

// Deposit adds funds to a wallet.
func Deposit(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := BindAndValidate[AmountRequest](c)
		if err != nil {
			return nil // Error already written by helper
		}
		balance, err := a.Ledger.Deposit(c.Params("owner"), input.Currency, input.Amount)
		if err != nil {
			return ErrorResponseJSON(c, ErrorToStatusCode(err), "Deposit failed", err.Error())
		}
		return c.JSON(Response{
			Status:  fiber.StatusOK,
			Message: "Deposit completed successfully",
			Data:    fiber.Map{"currency": input.Currency, "balance": balance},
		})
	}
}

// Withdraw removes funds from a wallet.
func Withdraw(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := BindAndValidate[AmountRequest](c)
		if err != nil {
			return nil // Error already written by helper
		}
		balance, err := a.Ledger.Withdraw(c.Params("owner"), input.Currency, input.Amount)
		if err != nil {
			return ErrorResponseJSON(c, ErrorToStatusCode(err), "Withdrawal failed", err.Error())
		}
		return c.JSON(Response{
			Status:  fiber.StatusOK,
			Message: "Withdrawal completed successfully",
			Data:    fiber.Map{"currency": input.Currency, "balance": balance},
		})
	}
}

// Buy purchases currency against the base wallet at the resolved rate.
func Buy(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := BindAndValidate[AmountRequest](c)
		if err != nil {
			return nil // Error already written by helper
		}
		receipt, err := a.Ledger.Buy(c.Params("owner"), input.Currency, input.Amount)
		if err != nil {
			return ErrorResponseJSON(c, ErrorToStatusCode(err), "Buy failed", err.Error())
		}
		return c.JSON(Response{
			Status:  fiber.StatusOK,
			Message: "Buy completed successfully",
			Data:    receipt,
		})
	}
}

// Sell disposes of currency, crediting the base wallet at the resolved rate.
func Sell(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := BindAndValidate[AmountRequest](c)
		if err != nil {
			return nil // Error already written by helper
		}
		receipt, err := a.Ledger.Sell(c.Params("owner"), input.Currency, input.Amount)
		if err != nil {
			return ErrorResponseJSON(c, ErrorToStatusCode(err), "Sell failed", err.Error())
		}
		return c.JSON(Response{
			Status:  fiber.StatusOK,
			Message: "Sell completed successfully",
			Data:    receipt,
		})
	}
}

package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrInvalidAmount is returned when an operation amount is zero,
	// negative, or not a finite number.
	ErrInvalidAmount = errors.New("amount must be a positive number")

	// ErrWalletNotFound is returned when a portfolio has no wallet for the
	// requested currency.
	ErrWalletNotFound = errors.New("no wallet for currency")

	// ErrPortfolioNotFound is returned when no portfolio exists for an owner.
	ErrPortfolioNotFound = errors.New("portfolio not found")

	// ErrRateUnavailable is returned when no resolution path exists for a
	// currency pair.
	ErrRateUnavailable = errors.New("exchange rate unavailable")
)

// InsufficientFundsError is returned when a withdrawal exceeds the wallet
// balance. It carries enough context for user-facing display.
type InsufficientFundsError struct {
	Available float64
	Required  float64
	Currency  string
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: have %.4f %s, need %.4f %s",
		e.Available, e.Currency, e.Required, e.Currency)
}

// RatesExpiredError is returned when the rate cache is older than the
// configured TTL. Trading operations fail with it before touching wallets.
type RatesExpiredError struct {
	Age time.Duration
	TTL time.Duration
}

func (e *RatesExpiredError) Error() string {
	return fmt.Sprintf("exchange rates expired (%.0fs old, TTL: %.0fs); run an update to refresh",
		e.Age.Seconds(), e.TTL.Seconds())
}

// AllSourcesFailedError is returned by an update cycle in which every rate
// source failed. The prior cache is left intact.
type AllSourcesFailedError struct {
	Errors []string
}

func (e *AllSourcesFailedError) Error() string {
	return "all rate sources failed: " + strings.Join(e.Errors, "; ")
}

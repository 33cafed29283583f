package domain

import (
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
)

// Wallet holds a single-currency balance.
//
// Invariant: Balance >= 0 at all times. Any operation that would violate
// this fails without mutating state.
type Wallet struct {
	Currency string  `json:"currency"`
	Balance  float64 `json:"balance"`
}

// NewWallet creates an empty wallet for the given currency code.
func NewWallet(currency string) *Wallet {
	return &Wallet{Currency: strings.ToUpper(currency)}
}

// Deposit adds funds to the wallet.
func (w *Wallet) Deposit(amount float64) error {
	if err := validateAmount(amount); err != nil {
		return err
	}
	w.Balance += amount
	return nil
}

// Withdraw removes funds from the wallet. The balance is left unchanged
// when the amount is invalid or exceeds the available funds.
func (w *Wallet) Withdraw(amount float64) error {
	if err := validateAmount(amount); err != nil {
		return err
	}
	if amount > w.Balance {
		return &InsufficientFundsError{
			Available: w.Balance,
			Required:  amount,
			Currency:  w.Currency,
		}
	}
	w.Balance -= amount
	return nil
}

func validateAmount(amount float64) error {
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return ErrInvalidAmount
	}
	return nil
}

// Portfolio is a user's collection of currency wallets, unique per code.
type Portfolio struct {
	OwnerID uuid.UUID          `json:"owner_id"`
	Owner   string             `json:"owner"`
	Wallets map[string]*Wallet `json:"wallets"`
}

// NewPortfolio creates an empty portfolio for the given owner.
func NewPortfolio(ownerID uuid.UUID, owner string) *Portfolio {
	return &Portfolio{
		OwnerID: ownerID,
		Owner:   owner,
		Wallets: make(map[string]*Wallet),
	}
}

// Wallet returns the wallet for the given currency, creating it lazily on
// first reference.
func (p *Portfolio) Wallet(currency string) *Wallet {
	code := strings.ToUpper(currency)
	if p.Wallets == nil {
		p.Wallets = make(map[string]*Wallet)
	}
	w, ok := p.Wallets[code]
	if !ok {
		w = NewWallet(code)
		p.Wallets[code] = w
	}
	return w
}

// ExistingWallet returns the wallet for the given currency or
// ErrWalletNotFound if none was ever created.
func (p *Portfolio) ExistingWallet(currency string) (*Wallet, error) {
	code := strings.ToUpper(currency)
	w, ok := p.Wallets[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrWalletNotFound, code)
	}
	return w, nil
}

// HasWallet checks whether a wallet exists for the currency.
func (p *Portfolio) HasWallet(currency string) bool {
	_, ok := p.Wallets[strings.ToUpper(currency)]
	return ok
}

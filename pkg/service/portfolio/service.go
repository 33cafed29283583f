// Package portfolio implements the multi-currency ledger: deposits,
// withdrawals, cross-currency trades, and portfolio valuation on top of
// the resolved rate cache.
package portfolio

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/valutatrade/hub/pkg/currency"
	"github.com/valutatrade/hub/pkg/domain"
)

// Resolver derives a rate for an arbitrary currency pair.
type Resolver interface {
	Resolve(from, to string) (float64, bool)
	// Direct reports whether from→to is stored as-is, without derivation.
	Direct(from, to string) bool
}

// Freshness reports when the rate cache was last refreshed.
type Freshness interface {
	LastRefresh() time.Time
}

// Repository persists portfolios. Save must complete durably before
// returning.
type Repository interface {
	Load(owner string) (*domain.Portfolio, error)
	Save(p *domain.Portfolio) error
}

// RateDetail describes one resolved rate for display.
type RateDetail struct {
	From    string    `json:"from"`
	To      string    `json:"to"`
	Rate    float64   `json:"rate"`
	Reverse float64   `json:"reverse"`
	// Derived is true when the rate came from a reciprocal or a bridge
	// through the base currency rather than a directly stored pair.
	Derived   bool      `json:"derived"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ValuationLine is one wallet's contribution to a portfolio valuation.
type ValuationLine struct {
	Currency string  `json:"currency"`
	Balance  float64 `json:"balance"`
	Rate     float64 `json:"rate,omitempty"`
	Value    float64 `json:"value,omitempty"`
	// Resolved is false when no rate path existed; the line is then
	// excluded from the total.
	Resolved bool `json:"resolved"`
}

// Valuation is the full portfolio value in a target currency.
type Valuation struct {
	Owner    string          `json:"owner"`
	Target   string          `json:"target"`
	Total    float64         `json:"total"`
	Lines    []ValuationLine `json:"lines"`
	ValuedAt time.Time       `json:"valued_at"`
}

// WalletInfo is one wallet line in a portfolio summary.
type WalletInfo struct {
	Currency string  `json:"currency"`
	Balance  float64 `json:"balance"`
	// ValueInBase is the balance converted to the base currency; zero and
	// unresolved when no rate path exists.
	ValueInBase float64 `json:"value_in_base,omitempty"`
	Resolved    bool    `json:"resolved"`
}

// Summary is the portfolio view the CLI and web surface render.
type Summary struct {
	OwnerID      uuid.UUID    `json:"owner_id"`
	Owner        string       `json:"owner"`
	BaseCurrency string       `json:"base_currency"`
	Wallets      []WalletInfo `json:"wallets"`
	TotalInBase  float64      `json:"total_in_base"`
	LastRefresh  time.Time    `json:"last_refresh"`
}

// TradeReceipt summarizes one executed buy or sell.
type TradeReceipt struct {
	Owner        string    `json:"owner"`
	Action       string    `json:"action"`
	Currency     string    `json:"currency"`
	Amount       float64   `json:"amount"`
	Rate         float64   `json:"rate"`
	BaseCurrency string    `json:"base_currency"`
	BaseAmount   float64   `json:"base_amount"`
	BaseBalance  float64   `json:"base_balance"`
	Balance      float64   `json:"balance"`
	ExecutedAt   time.Time `json:"executed_at"`
}

// Service coordinates wallet mutations with rate resolution and durable
// persistence. Every mutating operation persists synchronously; a failed
// save rolls the in-memory change back.
type Service struct {
	registry  *currency.Registry
	resolver  Resolver
	freshness Freshness
	repo      Repository

	base           string
	ttl            time.Duration
	initialBalance float64
	logger         *slog.Logger
}

// New wires the ledger service.
func New(
	registry *currency.Registry,
	resolver Resolver,
	freshness Freshness,
	repository Repository,
	base string,
	ttl time.Duration,
	initialBalance float64,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		registry:       registry,
		resolver:       resolver,
		freshness:      freshness,
		repo:           repository,
		base:           strings.ToUpper(base),
		ttl:            ttl,
		initialBalance: initialBalance,
		logger:         logger,
	}
}

// Deposit adds funds to the owner's wallet in the given currency and
// returns the new balance.
func (s *Service) Deposit(owner, code string, amount float64) (balance float64, err error) {
	defer s.logAction("deposit", time.Now(), &err, "owner", owner, "currency", code, "amount", amount)

	cur, err := s.registry.Lookup(code)
	if err != nil {
		return 0, err
	}
	p, err := s.loadOrCreate(owner)
	if err != nil {
		return 0, err
	}

	w := p.Wallet(cur.Code)
	if err := w.Deposit(amount); err != nil {
		return 0, err
	}
	if err := s.repo.Save(p); err != nil {
		w.Balance -= amount
		return 0, fmt.Errorf("persisting deposit: %w", err)
	}
	return w.Balance, nil
}

// Withdraw removes funds from an existing wallet and returns the new
// balance.
func (s *Service) Withdraw(owner, code string, amount float64) (balance float64, err error) {
	defer s.logAction("withdraw", time.Now(), &err, "owner", owner, "currency", code, "amount", amount)

	cur, err := s.registry.Lookup(code)
	if err != nil {
		return 0, err
	}
	p, err := s.loadOrCreate(owner)
	if err != nil {
		return 0, err
	}

	w, err := p.ExistingWallet(cur.Code)
	if err != nil {
		return 0, err
	}
	if err := w.Withdraw(amount); err != nil {
		return 0, err
	}
	if err := s.repo.Save(p); err != nil {
		w.Balance += amount
		return 0, fmt.Errorf("persisting withdrawal: %w", err)
	}
	return w.Balance, nil
}

// Buy purchases amount units of the given currency, paying from the base
// wallet at the resolved rate. Both legs apply atomically: any failure
// leaves both wallets as they were.
func (s *Service) Buy(owner, code string, amount float64) (receipt *TradeReceipt, err error) {
	defer s.logAction("buy", time.Now(), &err, "owner", owner, "currency", code, "amount", amount)
	return s.trade(owner, code, amount, true)
}

// Sell disposes of amount units of the given currency, crediting the
// proceeds to the base wallet at the resolved rate. Both legs apply
// atomically.
func (s *Service) Sell(owner, code string, amount float64) (receipt *TradeReceipt, err error) {
	defer s.logAction("sell", time.Now(), &err, "owner", owner, "currency", code, "amount", amount)
	return s.trade(owner, code, amount, false)
}

func (s *Service) trade(owner, code string, amount float64, buying bool) (*TradeReceipt, error) {
	cur, err := s.registry.Lookup(code)
	if err != nil {
		return nil, err
	}
	if cur.Code == s.base {
		return nil, fmt.Errorf("%w: cannot trade the base currency against itself", domain.ErrInvalidAmount)
	}
	if err := s.checkFreshness(); err != nil {
		return nil, err
	}

	// An unpriced pair makes the currency untradeable, not merely unquoted.
	rate, ok := s.resolver.Resolve(cur.Code, s.base)
	if !ok {
		return nil, fmt.Errorf("no exchange rate available for %s: %w",
			cur.Code, &currency.NotFoundError{Code: cur.Code})
	}

	p, err := s.loadOrCreate(owner)
	if err != nil {
		return nil, err
	}
	baseWallet := p.Wallet(s.base)
	var tradeWallet *domain.Wallet
	if buying {
		tradeWallet = p.Wallet(cur.Code)
	} else {
		// Selling requires a wallet that was actually funded at some point.
		tradeWallet, err = p.ExistingWallet(cur.Code)
		if err != nil {
			return nil, err
		}
	}
	baseAmount := amount * rate

	if buying {
		if err := baseWallet.Withdraw(baseAmount); err != nil {
			return nil, err
		}
		if err := tradeWallet.Deposit(amount); err != nil {
			baseWallet.Balance += baseAmount
			return nil, err
		}
	} else {
		if err := tradeWallet.Withdraw(amount); err != nil {
			return nil, err
		}
		if err := baseWallet.Deposit(baseAmount); err != nil {
			tradeWallet.Balance += amount
			return nil, err
		}
	}

	if err := s.repo.Save(p); err != nil {
		if buying {
			baseWallet.Balance += baseAmount
			tradeWallet.Balance -= amount
		} else {
			tradeWallet.Balance += amount
			baseWallet.Balance -= baseAmount
		}
		return nil, fmt.Errorf("persisting trade: %w", err)
	}

	action := "sell"
	if buying {
		action = "buy"
	}
	return &TradeReceipt{
		Owner:        owner,
		Action:       action,
		Currency:     cur.Code,
		Amount:       amount,
		Rate:         rate,
		BaseCurrency: s.base,
		BaseAmount:   baseAmount,
		BaseBalance:  baseWallet.Balance,
		Balance:      tradeWallet.Balance,
		ExecutedAt:   time.Now(),
	}, nil
}

// Valuate computes the portfolio's total value in the target currency.
// Wallets with no rate path are reported unresolved and excluded from the
// total rather than failing the whole valuation.
func (s *Service) Valuate(owner, target string) (v *Valuation, err error) {
	defer s.logAction("valuate", time.Now(), &err, "owner", owner, "target", target)

	cur, err := s.registry.Lookup(target)
	if err != nil {
		return nil, err
	}
	p, err := s.loadOrCreate(owner)
	if err != nil {
		return nil, err
	}

	v = &Valuation{
		Owner:    owner,
		Target:   cur.Code,
		ValuedAt: time.Now(),
	}
	for _, code := range sortedWalletCodes(p) {
		w := p.Wallets[code]
		line := ValuationLine{Currency: code, Balance: w.Balance}
		if rate, ok := s.resolver.Resolve(code, cur.Code); ok {
			line.Rate = rate
			line.Value = w.Balance * rate
			line.Resolved = true
			v.Total += line.Value
		} else {
			s.logger.Warn("no rate path for wallet, excluding from total",
				"owner", owner, "currency", code, "target", cur.Code)
		}
		v.Lines = append(v.Lines, line)
	}
	return v, nil
}

// GetRate resolves the rate between two supported currencies and reports
// whether it was derived rather than directly quoted.
func (s *Service) GetRate(from, to string) (detail *RateDetail, err error) {
	defer s.logAction("get_rate", time.Now(), &err, "from", from, "to", to)

	fromCur, err := s.registry.Lookup(from)
	if err != nil {
		return nil, err
	}
	toCur, err := s.registry.Lookup(to)
	if err != nil {
		return nil, err
	}

	rate, ok := s.resolver.Resolve(fromCur.Code, toCur.Code)
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", domain.ErrRateUnavailable, fromCur.Code, toCur.Code)
	}

	detail = &RateDetail{
		From:      fromCur.Code,
		To:        toCur.Code,
		Rate:      rate,
		Reverse:   1.0 / rate,
		Derived:   !s.resolver.Direct(fromCur.Code, toCur.Code),
		UpdatedAt: s.freshness.LastRefresh(),
	}
	return detail, nil
}

// PortfolioInfo returns the owner's portfolio summary with each wallet
// valued in the base currency, creating the portfolio with its initial
// base-currency balance on first reference. Valuation is best-effort:
// wallets with no rate path stay unresolved.
func (s *Service) PortfolioInfo(owner string) (summary *Summary, err error) {
	defer s.logAction("portfolio_info", time.Now(), &err, "owner", owner)

	p, err := s.loadOrCreate(owner)
	if err != nil {
		return nil, err
	}

	summary = &Summary{
		OwnerID:      p.OwnerID,
		Owner:        p.Owner,
		BaseCurrency: s.base,
		LastRefresh:  s.freshness.LastRefresh(),
	}
	for _, code := range sortedWalletCodes(p) {
		w := p.Wallets[code]
		info := WalletInfo{Currency: code, Balance: w.Balance}
		if rate, ok := s.resolver.Resolve(code, s.base); ok {
			info.ValueInBase = w.Balance * rate
			info.Resolved = true
			summary.TotalInBase += info.ValueInBase
		}
		summary.Wallets = append(summary.Wallets, info)
	}
	return summary, nil
}

// checkFreshness gates trading on the cache TTL. Reads (valuation, rate
// display) are never gated; staleness only blocks buy and sell.
func (s *Service) checkFreshness() error {
	last := s.freshness.LastRefresh()
	age := time.Since(last)
	if last.IsZero() || age > s.ttl {
		return &domain.RatesExpiredError{Age: age, TTL: s.ttl}
	}
	return nil
}

// loadOrCreate fetches the owner's portfolio, seeding a new one with the
// initial base-currency balance when none exists yet.
func (s *Service) loadOrCreate(owner string) (*domain.Portfolio, error) {
	p, err := s.repo.Load(owner)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, domain.ErrPortfolioNotFound) {
		return nil, err
	}

	p = domain.NewPortfolio(uuid.New(), owner)
	if s.initialBalance > 0 {
		// Seed money for new accounts; failure here means misconfiguration.
		if derr := p.Wallet(s.base).Deposit(s.initialBalance); derr != nil {
			return nil, derr
		}
	}
	if err := s.repo.Save(p); err != nil {
		return nil, fmt.Errorf("persisting new portfolio: %w", err)
	}
	s.logger.Info("created portfolio", "owner", owner, "initial_balance", s.initialBalance, "currency", s.base)
	return p, nil
}

func sortedWalletCodes(p *domain.Portfolio) []string {
	codes := make([]string, 0, len(p.Wallets))
	for code := range p.Wallets {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

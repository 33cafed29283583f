// Package app composes the services from their dependencies. It owns no
// behavior of its own; it only wires.
package app

import (
	"log/slog"
	"time"

	"github.com/valutatrade/hub/pkg/config"
	"github.com/valutatrade/hub/pkg/currency"
	"github.com/valutatrade/hub/pkg/provider"
	"github.com/valutatrade/hub/pkg/service/portfolio"
	"github.com/valutatrade/hub/pkg/service/rates"
)

// RateStore is the slice of the durable rate store the services consume:
// the aggregator's write path and the resolver's read path.
type RateStore interface {
	rates.Committer
	rates.Quoter
	LastRefresh() time.Time
}

// Deps contains the infrastructure dependencies the services are built
// from, assembled by the initializer.
type Deps struct {
	Logger           *slog.Logger
	CurrencyRegistry *currency.Registry
	Sources          []provider.RateSource
	Store            RateStore
	PortfolioRepo    portfolio.Repository
}

// App is the composed application.
type App struct {
	Deps   *Deps
	Config *config.App

	Aggregator *rates.Aggregator
	Resolver   *rates.Resolver
	Scheduler  *rates.Scheduler
	Ledger     *portfolio.Service
}

// New wires the services from deps and config.
func New(deps *Deps, cfg *config.App) *App {
	a := &App{
		Deps:   deps,
		Config: cfg,
	}
	a.Aggregator = rates.NewAggregator(deps.Sources, deps.Store, cfg.Rates.SourceTimeout, deps.Logger)
	a.Resolver = rates.NewResolver(deps.Store, cfg.Rates.BaseCurrency)
	a.Scheduler = rates.NewScheduler(a.Aggregator, cfg.Rates.UpdateInterval, deps.Logger)
	a.Ledger = portfolio.New(
		deps.CurrencyRegistry,
		a.Resolver,
		deps.Store,
		deps.PortfolioRepo,
		cfg.Rates.BaseCurrency,
		cfg.Rates.TTL,
		cfg.Ledger.InitialBalance,
		deps.Logger,
	)
	return a
}

// Package initializer assembles the infrastructure layer: logger, currency
// catalog, rate sources, durable stores.
package initializer

import (
	infra_provider "github.com/valutatrade/hub/infra/provider"
	"github.com/valutatrade/hub/infra/ratestore"
	infra_portfolio "github.com/valutatrade/hub/infra/repository/portfolio"
	"github.com/valutatrade/hub/pkg/app"
	"github.com/valutatrade/hub/pkg/config"
	"github.com/valutatrade/hub/pkg/currency"
	"github.com/valutatrade/hub/pkg/provider"
)

// InitializeDependencies builds the application dependencies from config.
// A source that cannot be constructed (for example a missing API key) is
// skipped with a warning so the remaining sources still serve.
func InitializeDependencies(cfg *config.App) (*app.Deps, error) {
	logger := SetupLogger(cfg.Log)

	deps := &app.Deps{
		Logger:           logger,
		CurrencyRegistry: currency.NewDefaultRegistry(),
	}
	logger.Info("currency catalog loaded", "count", deps.CurrencyRegistry.Count())

	store := ratestore.New(cfg.Storage.RatesPath(), cfg.Storage.HistoryPath(), logger)
	deps.Store = store
	deps.PortfolioRepo = infra_portfolio.NewRepository(cfg.Storage.PortfoliosPath(), logger)

	var sources []provider.RateSource
	sources = append(sources, infra_provider.NewCoinGeckoSource(
		cfg.CoinGecko, cfg.Rates.BaseCurrency, cfg.Rates.SourceTimeout, logger,
	))
	fiatSource, err := infra_provider.NewExchangeRateAPISource(
		cfg.ExchangeRateAPI, cfg.Rates.BaseCurrency, cfg.Rates.SourceTimeout, logger,
	)
	if err != nil {
		logger.Warn("fiat rate source unavailable", "error", err)
	} else {
		sources = append(sources, fiatSource)
	}
	deps.Sources = sources

	logger.Info("rate sources initialized", "count", len(sources))
	return deps, nil
}

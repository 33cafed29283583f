package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"

	"github.com/valutatrade/hub/infra/initializer"
	"github.com/valutatrade/hub/pkg/app"
	"github.com/valutatrade/hub/pkg/config"
	"github.com/valutatrade/hub/pkg/currency"
	"github.com/valutatrade/hub/pkg/service/portfolio"
)

func usage() {
	fmt.Println("Usage: cli <command> [arguments]")
	fmt.Println("Commands:")
	fmt.Println("  currencies                              list supported currencies")
	fmt.Println("  update                                  fetch fresh rates from all sources")
	fmt.Println("  rate <from> <to>                        resolve a rate")
	fmt.Println("  portfolio <owner>                       show wallets")
	fmt.Println("  value <owner> [target]                  value the portfolio")
	fmt.Println("  deposit <owner> <currency> <amount>")
	fmt.Println("  withdraw <owner> <currency> <amount>")
	fmt.Println("  buy <owner> <currency> <amount>")
	fmt.Println("  sell <owner> <currency> <amount>")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	cfg, err := config.Load(".env")
	if err != nil {
		color.Red("Failed to load configuration: %v", err)
		os.Exit(1)
	}
	deps, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		color.Red("Failed to initialize: %v", err)
		os.Exit(1)
	}
	a := app.New(deps, cfg)

	if err := dispatch(a, os.Args[1], os.Args[2:]); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func dispatch(a *app.App, cmd string, args []string) error {
	switch cmd {
	case "currencies":
		for _, code := range a.Deps.CurrencyRegistry.ListSupportedCodes() {
			cur, err := a.Deps.CurrencyRegistry.Lookup(code)
			if err != nil {
				continue
			}
			fmt.Println(cur.DisplayInfo())
		}
		return nil

	case "update":
		result, err := a.Aggregator.RunUpdate(context.Background())
		if err != nil {
			return err
		}
		color.Green("Updated %d pairs", result.TotalPairs)
		for source, count := range result.PerSource {
			fmt.Printf("  %s: %d quotes\n", source, count)
		}
		for _, e := range result.Errors {
			color.Yellow("  failed: %s", e)
		}
		return nil

	case "rate":
		if len(args) < 2 {
			return fmt.Errorf("usage: rate <from> <to>")
		}
		detail, err := a.Ledger.GetRate(args[0], args[1])
		if err != nil {
			return err
		}
		kind := "direct"
		if detail.Derived {
			kind = "derived"
		}
		color.Green("1 %s = %.6f %s (%s, as of %s)",
			detail.From, detail.Rate, detail.To, kind,
			detail.UpdatedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("1 %s = %.6f %s\n", detail.To, detail.Reverse, detail.From)
		return nil

	case "portfolio":
		if len(args) < 1 {
			return fmt.Errorf("usage: portfolio <owner>")
		}
		summary, err := a.Ledger.PortfolioInfo(args[0])
		if err != nil {
			return err
		}
		color.Cyan("Portfolio of %s", summary.Owner)
		for _, w := range summary.Wallets {
			if w.Resolved {
				fmt.Printf("  %s: %s (%.2f %s)\n",
					w.Currency, formatAmount(a, w.Currency, w.Balance), w.ValueInBase, summary.BaseCurrency)
			} else {
				fmt.Printf("  %s: %s (no rate)\n", w.Currency, formatAmount(a, w.Currency, w.Balance))
			}
		}
		color.Green("Total: %.2f %s", summary.TotalInBase, summary.BaseCurrency)
		if !summary.LastRefresh.IsZero() {
			fmt.Printf("Rates as of %s\n", summary.LastRefresh.Format("2006-01-02 15:04:05"))
		}
		return nil

	case "value":
		if len(args) < 1 {
			return fmt.Errorf("usage: value <owner> [target]")
		}
		target := currency.DefaultBase
		if len(args) > 1 {
			target = args[1]
		}
		v, err := a.Ledger.Valuate(args[0], target)
		if err != nil {
			return err
		}
		for _, line := range v.Lines {
			if line.Resolved {
				fmt.Printf("  %s %s -> %.2f %s\n",
					formatAmount(a, line.Currency, line.Balance), line.Currency, line.Value, v.Target)
			} else {
				color.Yellow("  %s %s (no rate available)",
					formatAmount(a, line.Currency, line.Balance), line.Currency)
			}
		}
		color.Green("Total: %.2f %s", v.Total, v.Target)
		return nil

	case "deposit", "withdraw":
		owner, code, amount, err := moneyArgs(cmd, args)
		if err != nil {
			return err
		}
		var balance float64
		if cmd == "deposit" {
			balance, err = a.Ledger.Deposit(owner, code, amount)
		} else {
			balance, err = a.Ledger.Withdraw(owner, code, amount)
		}
		if err != nil {
			return err
		}
		color.Green("New %s balance: %s", code, formatAmount(a, code, balance))
		return nil

	case "buy", "sell":
		owner, code, amount, err := moneyArgs(cmd, args)
		if err != nil {
			return err
		}
		var receipt *portfolio.TradeReceipt
		if cmd == "buy" {
			receipt, err = a.Ledger.Buy(owner, code, amount)
		} else {
			receipt, err = a.Ledger.Sell(owner, code, amount)
		}
		if err != nil {
			return err
		}
		verb := "Sold"
		if cmd == "buy" {
			verb = "Bought"
		}
		color.Green("%s %s %s at %.4f %s per unit",
			verb, formatAmount(a, receipt.Currency, receipt.Amount), receipt.Currency,
			receipt.Rate, receipt.BaseCurrency)
		fmt.Printf("  %s balance: %s\n", receipt.Currency, formatAmount(a, receipt.Currency, receipt.Balance))
		fmt.Printf("  %s balance: %s\n", receipt.BaseCurrency, formatAmount(a, receipt.BaseCurrency, receipt.BaseBalance))
		return nil

	default:
		usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func moneyArgs(cmd string, args []string) (owner, code string, amount float64, err error) {
	if len(args) < 3 {
		return "", "", 0, fmt.Errorf("usage: %s <owner> <currency> <amount>", cmd)
	}
	amount, err = strconv.ParseFloat(args[2], 64)
	if err != nil {
		return "", "", 0, fmt.Errorf("invalid amount %q: %w", args[2], err)
	}
	return args[0], args[1], amount, nil
}

// formatAmount renders a balance with the currency's display precision.
func formatAmount(a *app.App, code string, amount float64) string {
	decimals := currency.FiatDecimals
	if cur, err := a.Deps.CurrencyRegistry.Lookup(code); err == nil {
		decimals = cur.Decimals()
	}
	return strconv.FormatFloat(amount, 'f', decimals, 64)
}

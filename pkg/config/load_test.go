package config_test

import (
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valutatrade/hub/pkg/config"
)

func TestMain(m *testing.M) {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	log.SetOutput(io.Discard)

	exitVal := m.Run()
	os.Exit(exitVal)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert := assert.New(t)
	assert.Equal("USD", cfg.Rates.BaseCurrency)
	assert.Equal(time.Hour, cfg.Rates.TTL)
	assert.Equal(10*time.Second, cfg.Rates.SourceTimeout)
	assert.Equal(5*time.Minute, cfg.Rates.UpdateInterval)
	assert.Equal("bitcoin", cfg.CoinGecko.IDMap["BTC"])
	assert.Contains(cfg.ExchangeRateAPI.FiatCodes, "EUR")
	assert.Equal(filepath.Join("data", "rates.json"), cfg.Storage.RatesPath())
	assert.Equal(filepath.Join("data", "exchange_rates.json"), cfg.Storage.HistoryPath())
	assert.Equal(filepath.Join("data", "portfolios.json"), cfg.Storage.PortfoliosPath())
	assert.InDelta(10000.0, cfg.Ledger.InitialBalance, 1e-9)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("RATES_TTL", "30m")
	t.Setenv("RATES_BASE_CURRENCY", "EUR")
	t.Setenv("STORAGE_DATA_DIR", "/var/lib/hub")
	t.Setenv("LEDGER_INITIAL_BALANCE", "500")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert := assert.New(t)
	assert.Equal(30*time.Minute, cfg.Rates.TTL)
	assert.Equal("EUR", cfg.Rates.BaseCurrency)
	assert.Equal("/var/lib/hub", cfg.Storage.DataDir)
	assert.InDelta(500.0, cfg.Ledger.InitialBalance, 1e-9)
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile,
		[]byte("EXCHANGERATE_API_KEY=abc123def456\n"), 0o644))

	cfg, err := config.Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, "abc123def456", cfg.ExchangeRateAPI.APIKey)
}

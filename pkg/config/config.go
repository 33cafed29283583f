package config

import (
	"path/filepath"
	"time"
)

// Rates groups the parameters of the aggregation engine.
type Rates struct {
	BaseCurrency   string        `envconfig:"BASE_CURRENCY" default:"USD"`
	TTL            time.Duration `envconfig:"TTL" default:"1h"`
	SourceTimeout  time.Duration `envconfig:"SOURCE_TIMEOUT" default:"10s"`
	UpdateInterval time.Duration `envconfig:"UPDATE_INTERVAL" default:"5m"`
}

// CoinGecko configures the crypto rate source.
type CoinGecko struct {
	BaseURL string `envconfig:"BASE_URL" default:"https://api.coingecko.com/api/v3"`
	// IDMap translates registry codes to CoinGecko coin IDs.
	IDMap map[string]string `envconfig:"ID_MAP" default:"BTC:bitcoin,ETH:ethereum,SOL:solana,DOGE:dogecoin,XRP:ripple"`
}

// ExchangeRateAPI configures the fiat rate source.
type ExchangeRateAPI struct {
	APIKey    string   `envconfig:"API_KEY"`
	BaseURL   string   `envconfig:"BASE_URL" default:"https://v6.exchangerate-api.com/v6"`
	FiatCodes []string `envconfig:"FIAT_CODES" default:"EUR,GBP,JPY,RUB,CNY"`
}

// Storage locates the durable JSON documents.
type Storage struct {
	DataDir        string `envconfig:"DATA_DIR" default:"data"`
	RatesFile      string `envconfig:"RATES_FILE" default:"rates.json"`
	HistoryFile    string `envconfig:"HISTORY_FILE" default:"exchange_rates.json"`
	PortfoliosFile string `envconfig:"PORTFOLIOS_FILE" default:"portfolios.json"`
}

// RatesPath is the full path to the cache document.
func (s *Storage) RatesPath() string { return filepath.Join(s.DataDir, s.RatesFile) }

// HistoryPath is the full path to the history document.
func (s *Storage) HistoryPath() string { return filepath.Join(s.DataDir, s.HistoryFile) }

// PortfoliosPath is the full path to the portfolios document.
func (s *Storage) PortfoliosPath() string { return filepath.Join(s.DataDir, s.PortfoliosFile) }

// Ledger groups portfolio/trading parameters.
type Ledger struct {
	// InitialBalance is deposited into a new portfolio's base-currency
	// wallet at creation time.
	InitialBalance float64 `envconfig:"INITIAL_BALANCE" default:"10000"`
}

type Log struct {
	Level      int    `envconfig:"LEVEL" default:"0"`
	Format     string `envconfig:"FORMAT" default:"text"`
	TimeFormat string `envconfig:"TIME_FORMAT" default:"2006-01-02 15:04:05"`
	Prefix     string `envconfig:"PREFIX" default:"[valutatrade]"`
}

type Server struct {
	Host string `envconfig:"HOST" default:"localhost"`
	Port int    `envconfig:"PORT" default:"3000"`
}

// App is the root configuration, loaded once at startup and passed by
// reference to whichever component composes the system.
type App struct {
	Env             string           `envconfig:"APP_ENV" default:"development"`
	Server          *Server          `envconfig:"SERVER"`
	Log             *Log             `envconfig:"LOG"`
	Rates           *Rates           `envconfig:"RATES"`
	Storage         *Storage         `envconfig:"STORAGE"`
	Ledger          *Ledger          `envconfig:"LEDGER"`
	CoinGecko       *CoinGecko       `envconfig:"COINGECKO"`
	ExchangeRateAPI *ExchangeRateAPI `envconfig:"EXCHANGERATE"`
}

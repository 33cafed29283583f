package config

import (
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Load reads the .env file (when present) and resolves the full App
// configuration from the environment.
func Load(envFiles ...string) (*App, error) {
	logger := slog.Default()

	if len(envFiles) == 0 {
		if err := godotenv.Load(); err != nil {
			logger.Debug("no .env file found in current directory")
		}
	} else if err := godotenv.Load(envFiles...); err != nil {
		logger.Warn("failed to load environment files", "files", envFiles, "error", err)
	}

	var cfg App
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	logger.Info("configuration loaded",
		"env", cfg.Env,
		"base_currency", cfg.Rates.BaseCurrency,
		"rates_ttl", cfg.Rates.TTL,
		"source_timeout", cfg.Rates.SourceTimeout,
		"update_interval", cfg.Rates.UpdateInterval,
		"data_dir", cfg.Storage.DataDir,
		"exchangerate_api_key", maskValue(cfg.ExchangeRateAPI.APIKey),
	)
	return &cfg, nil
}

func maskValue(key string) string {
	if len(key) <= 6 {
		return "****"
	}
	return key[:2] + "****" + key[len(key)-4:]
}

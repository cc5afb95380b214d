package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// applyEnv overlays QUANTCV_* environment variables on the configuration.
// A .env file in the working directory is loaded first when present.
func applyEnv(c *Config) {
	// missing .env is not an error
	_ = godotenv.Load()

	if v := os.Getenv("QUANTCV_ENV"); v != "" {
		c.App.Env = v
	}
	if v := os.Getenv("QUANTCV_SERVER_HOST"); v != "" {
		c.Server.Host = v
	}
	if v, ok := envInt("QUANTCV_SERVER_PORT"); ok {
		c.Server.Port = v
	}
	if v := os.Getenv("QUANTCV_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("QUANTCV_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v, ok := envFloat("QUANTCV_INITIAL_CAPITAL"); ok {
		c.Backtest.InitialCapital = v
	}
	if v, ok := envFloat("QUANTCV_RISK_FREE_RATE"); ok {
		c.Backtest.RiskFreeRate = v
	}
	if v, ok := envInt("QUANTCV_FOLDS"); ok {
		c.CrossValidation.Folds = v
	}
	if v, ok := envInt("QUANTCV_PURGE_GAP"); ok {
		c.CrossValidation.PurgeGap = v
	}
	if v, ok := envInt("QUANTCV_EMBARGO_GAP"); ok {
		c.CrossValidation.EmbargoGap = v
	}
	if v := os.Getenv("QUANTCV_COMBINATORIAL"); v != "" {
		c.CrossValidation.Combinatorial = v == "true" || v == "1"
	}
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envFloat(key string) (float64, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

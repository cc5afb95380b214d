package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"quantcv/internal/config"
	"quantcv/internal/logging"
	"quantcv/internal/market"
	"quantcv/internal/strategy"
	"quantcv/internal/strategy/optimizer"
)

func main() {
	var (
		configFile = flag.String("config", "", "Configuration file path (yaml)")
		dataFile   = flag.String("data", "", "Market data CSV (date,symbol,close,volume)")
		synthetic  = flag.Int("synthetic", 0, "Generate N synthetic observations instead of loading data")
		symbol     = flag.String("symbol", "SPY", "Symbol for synthetic data")
		output     = flag.String("output", "", "Write the JSON report to this file (default stdout)")
	)
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(&cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logging: %v\n", err)
		os.Exit(1)
	}

	series, err := loadSeries(*dataFile, *synthetic, *symbol)
	if err != nil {
		log.WithError(err).Fatal("failed to load market data")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	validator := optimizer.NewCrossValidator(&cfg.CrossValidation, &cfg.Backtest, logrus.NewEntry(log))
	report, err := validator.Run(ctx, series, strategy.DefaultDefinition())
	if err != nil {
		log.WithError(err).Fatal("cross-validation failed")
	}

	log.WithFields(logrus.Fields{
		"run_id":       report.RunID,
		"folds":        len(report.FoldDetails),
		"sharpe":       report.Performance.SharpeRatio,
		"max_drawdown": report.Performance.MaxDrawdown,
	}).Info("cross-validation completed")

	if err := writeReport(report, *output); err != nil {
		log.WithError(err).Fatal("failed to write report")
	}
}

func loadSeries(dataFile string, synthetic int, symbol string) (market.Series, error) {
	if dataFile != "" {
		return market.LoadCSV(dataFile)
	}
	if synthetic > 0 {
		return market.Synthetic(symbol, synthetic, 42), nil
	}
	return nil, fmt.Errorf("either -data or -synthetic is required")
}

func writeReport(report *optimizer.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if path == "" {
		_, err = os.Stdout.Write(append(data, '\n'))
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

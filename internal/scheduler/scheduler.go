package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"quantcv/internal/config"
	"quantcv/internal/market"
	"quantcv/internal/monitor"
	"quantcv/internal/strategy"
	"quantcv/internal/strategy/optimizer"
)

// Scheduler periodically re-runs the cross-validation against a data file so
// a deployed strategy's out-of-sample profile stays current.
type Scheduler struct {
	cron    *cron.Cron
	config  *config.Config
	log     *logrus.Logger
	metrics *monitor.Metrics
}

// New creates a new revalidation scheduler
func New(cfg *config.Config, log *logrus.Logger, metrics *monitor.Metrics) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		config:  cfg,
		log:     log,
		metrics: metrics,
	}
}

// Start registers the revalidation job and starts the cron loop.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.config.Scheduler.Enabled {
		return nil
	}
	if s.config.Scheduler.DataFile == "" {
		return fmt.Errorf("scheduler enabled but no data_file configured")
	}

	_, err := s.cron.AddFunc(s.config.Scheduler.Schedule, func() {
		if err := s.revalidate(ctx); err != nil {
			s.log.WithError(err).Error("scheduled revalidation failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", s.config.Scheduler.Schedule, err)
	}

	s.cron.Start()
	s.log.WithField("schedule", s.config.Scheduler.Schedule).Info("revalidation scheduler started")
	return nil
}

// Stop stops the cron loop, waiting for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) revalidate(ctx context.Context) error {
	series, err := market.LoadCSV(s.config.Scheduler.DataFile)
	if err != nil {
		return fmt.Errorf("failed to load data: %w", err)
	}

	validator := optimizer.NewCrossValidator(&s.config.CrossValidation, &s.config.Backtest, logrus.NewEntry(s.log))

	start := time.Now()
	report, err := validator.Run(ctx, series, strategy.DefaultDefinition())
	if err != nil {
		if s.metrics != nil {
			s.metrics.ObserveRun("failed", 0, 0, time.Since(start))
		}
		return err
	}

	if s.metrics != nil {
		s.metrics.ObserveRun("completed", len(report.FoldDetails), 0, time.Since(start))
	}
	s.log.WithFields(logrus.Fields{
		"run_id":       report.RunID,
		"folds":        len(report.FoldDetails),
		"sharpe":       report.Performance.SharpeRatio,
		"max_drawdown": report.Performance.MaxDrawdown,
		"mean_overfit": report.Robustness.MeanOverfitting,
		"consistency":  report.Robustness.ConsistencyScore,
	}).Info("scheduled revalidation completed")
	return nil
}

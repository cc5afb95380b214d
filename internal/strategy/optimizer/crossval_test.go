package optimizer

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quantcv/internal/market"
	"quantcv/internal/strategy"
	"quantcv/internal/strategy/backtest"
)

func quietLogger() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

func TestCrossValidatorInsufficientData(t *testing.T) {
	cfg := &CrossValConfig{Folds: 5, PurgeGap: 21, EmbargoGap: 21}
	cv := NewCrossValidator(cfg, backtest.DefaultConfig(), quietLogger())

	_, err := cv.Run(context.Background(), market.Synthetic("SPY", 100, 1), strategy.DefaultDefinition())
	require.Error(t, err)

	var insufficient *InsufficientDataError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 460, insufficient.Required)
	assert.Equal(t, 100, insufficient.Actual)
}

func TestCrossValidatorEndToEnd(t *testing.T) {
	series := market.Synthetic("SPY", 600, 42)
	cfg := &CrossValConfig{Folds: 3, PurgeGap: 5, EmbargoGap: 5}
	cv := NewCrossValidator(cfg, backtest.DefaultConfig(), quietLogger())

	report, err := cv.Run(context.Background(), series, strategy.DefaultDefinition())
	require.NoError(t, err)
	require.Len(t, report.FoldDetails, 3)
	assert.Equal(t, StateDone, report.State)
	assert.NotEmpty(t, report.RunID)

	for i, fold := range report.FoldDetails {
		assert.Equal(t, i, fold.FoldNumber)
		assert.Equal(t, 200, fold.TestPeriod.DataPoints)
		assert.Len(t, fold.TestReturns, fold.TestPeriod.DataPoints-1)
		assert.GreaterOrEqual(t, fold.PurgedSampleCount, cfg.PurgeGap)
		assert.GreaterOrEqual(t, fold.OverfittingIndicator, 0.0)
		assert.GreaterOrEqual(t, fold.StabilityScore, 0.0)
		assert.LessOrEqual(t, fold.StabilityScore, 1.0)
		assert.NotNil(t, fold.TrainPerformance)
		assert.NotNil(t, fold.TestPerformance)
		assert.NotEmpty(t, fold.OptimizedParameters)
	}
	// the middle fold is purged on both sides
	assert.Equal(t, cfg.PurgeGap+cfg.EmbargoGap, report.FoldDetails[1].PurgedSampleCount)

	assert.Len(t, report.Returns, 3*199)
	assert.NotNil(t, report.Performance)
	assert.NotNil(t, report.Risk)
	assert.NotNil(t, report.FoldAnalysis)
	assert.NotNil(t, report.TemporalStability)
	assert.NotNil(t, report.Robustness)

	assert.GreaterOrEqual(t, report.Robustness.ConsistencyScore, 0.0)
	assert.LessOrEqual(t, report.Robustness.ConsistencyScore, 1.0)
	assert.GreaterOrEqual(t, report.FoldAnalysis.PerformanceStability, 0.0)
	assert.LessOrEqual(t, report.FoldAnalysis.PerformanceStability, 1.0)
}

func TestCrossValidatorCombinatorial(t *testing.T) {
	series := market.Synthetic("SPY", 600, 9)
	cfg := &CrossValConfig{Folds: 3, PurgeGap: 5, EmbargoGap: 5, Combinatorial: true}
	cv := NewCrossValidator(cfg, backtest.DefaultConfig(), quietLogger())

	report, err := cv.Run(context.Background(), series, strategy.DefaultDefinition())
	require.NoError(t, err)

	var standard, combinatorial int
	lastFold := -1
	for _, fold := range report.FoldDetails {
		assert.Greater(t, fold.FoldNumber, lastFold, "results sorted by fold number")
		lastFold = fold.FoldNumber
		if len(fold.CombinatorialFolds) > 0 {
			combinatorial++
			assert.GreaterOrEqual(t, len(fold.TestReturns)+1, MinTestSize)
		} else {
			standard++
		}
	}
	assert.Equal(t, 3, standard)
	// the all-blocks combination leaves no training data and is skipped
	assert.Equal(t, 6, combinatorial)
}

func TestCrossValidatorCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cv := NewCrossValidator(&CrossValConfig{Folds: 3, PurgeGap: 5, EmbargoGap: 5}, backtest.DefaultConfig(), quietLogger())
	_, err := cv.Run(ctx, market.Synthetic("SPY", 600, 2), strategy.DefaultDefinition())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOverfittingIndicator(t *testing.T) {
	train := &backtest.PerformanceMetrics{AnnualizedReturn: 0.10, SharpeRatio: 1.0}
	test := &backtest.PerformanceMetrics{AnnualizedReturn: 0.05, SharpeRatio: 0.5}
	assert.InDelta(t, 0.5, overfittingIndicator(train, test), 1e-9)

	// test outperforming train floors at zero
	better := &backtest.PerformanceMetrics{AnnualizedReturn: 0.20, SharpeRatio: 2.0}
	assert.Equal(t, 0.0, overfittingIndicator(train, better))

	// zero train metrics contribute no degradation
	zero := &backtest.PerformanceMetrics{}
	assert.Equal(t, 0.0, overfittingIndicator(zero, test))
}

func TestDiagnostics(t *testing.T) {
	results := []FoldResult{
		{FoldNumber: 0, TestPerformance: &backtest.PerformanceMetrics{SharpeRatio: 1.2, TotalReturn: 0.05, MaxDrawdown: 0.05, Volatility: 0.10}},
		{FoldNumber: 1, TestPerformance: &backtest.PerformanceMetrics{SharpeRatio: 0.8, TotalReturn: 0.02, MaxDrawdown: 0.20, Volatility: 0.12}},
		{FoldNumber: 2, TestPerformance: &backtest.PerformanceMetrics{SharpeRatio: -0.1, TotalReturn: -0.03, MaxDrawdown: 0.10, Volatility: 0.30}},
	}

	analysis := AnalyzeFolds(results)
	assert.Equal(t, 0, analysis.BestFold)
	assert.Equal(t, 2, analysis.WorstFold)
	assert.Equal(t, []int{0, 1}, analysis.ConsistentPerformers)
	assert.Equal(t, []int{1, 2}, analysis.VolatileFolds)
	assert.InDelta(t, 2.0/3.0, analysis.ConsistencyScore, 1e-9)

	ts := AnalyzeTemporalStability(results)
	assert.Less(t, ts.PerformanceDrift, 0.0, "declining Sharpe across folds")

	empty := AnalyzeFolds(nil)
	assert.Equal(t, -1, empty.BestFold)
	assert.Equal(t, -1, empty.WorstFold)
}

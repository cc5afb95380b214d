package optimizer

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"quantcv/internal/market"
	"quantcv/internal/strategy"
	"quantcv/internal/strategy/backtest"
)

// State represents the orchestrator state machine
type State string

const (
	StatePreparing                 State = "preparing"
	StateRunningStandardFolds      State = "running_standard_folds"
	StateRunningCombinatorialFolds State = "running_combinatorial_folds"
	StateAggregating               State = "aggregating"
	StateDone                      State = "done"
	StateFailed                    State = "failed"
)

// CrossValConfig represents cross-validation configuration
type CrossValConfig struct {
	Folds         int  `json:"folds" yaml:"folds"`
	PurgeGap      int  `json:"purge_gap" yaml:"purge_gap"`
	EmbargoGap    int  `json:"embargo_gap" yaml:"embargo_gap"`
	Combinatorial bool `json:"combinatorial" yaml:"combinatorial"`
	Workers       int  `json:"workers,omitempty" yaml:"workers,omitempty"`
}

// DefaultCrossValConfig returns the conventional 5-fold purged setup.
func DefaultCrossValConfig() *CrossValConfig {
	return &CrossValConfig{
		Folds:      5,
		PurgeGap:   21,
		EmbargoGap: 21,
	}
}

// PeriodInfo describes one train or test period
type PeriodInfo struct {
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	DataPoints int       `json:"data_points"`
}

// TimeSeriesPoint is one dated value of the report's return series
type TimeSeriesPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// FoldResult represents one fold's complete evaluation. Created once,
// immutable afterward.
type FoldResult struct {
	FoldNumber             int                          `json:"fold_number"`
	CombinatorialFolds     []int                        `json:"combinatorial_folds,omitempty"`
	TrainPeriod            PeriodInfo                   `json:"train_period"`
	TestPeriod             PeriodInfo                   `json:"test_period"`
	PurgedSampleCount      int                          `json:"purged_sample_count"`
	OptimizedParameters    strategy.Params              `json:"optimized_parameters"`
	TrainPerformance       *backtest.PerformanceMetrics `json:"train_performance"`
	TestPerformance        *backtest.PerformanceMetrics `json:"test_performance"`
	TestTrades             []backtest.Trade             `json:"test_trades"`
	TestPositions          []backtest.Position          `json:"test_positions"`
	TestReturns            []float64                    `json:"test_returns"`
	OverfittingIndicator   float64                      `json:"overfitting_indicator"`
	StabilityScore         float64                      `json:"stability_score"`
	OutOfSampleDegradation float64                      `json:"out_of_sample_degradation"`

	testDates []time.Time
}

// Report is the aggregate output of a cross-validation run
type Report struct {
	RunID             string                       `json:"run_id"`
	State             State                        `json:"state"`
	Returns           []TimeSeriesPoint            `json:"returns"`
	Trades            []backtest.Trade             `json:"trades"`
	Positions         []backtest.Position          `json:"positions"`
	Performance       *backtest.PerformanceMetrics `json:"performance"`
	Risk              *backtest.RiskMetrics        `json:"risk"`
	FoldDetails       []FoldResult                 `json:"fold_details"`
	FoldAnalysis      *FoldAnalysis                `json:"fold_analysis"`
	TemporalStability *TemporalStability           `json:"temporal_stability"`
	Robustness        *RobustnessMetrics           `json:"robustness_metrics"`
}

// CrossValidator drives folds through optimize -> backtest -> metrics and
// aggregates the per-fold results.
type CrossValidator struct {
	config   *CrossValConfig
	btConfig *backtest.Config
	log      *logrus.Entry
}

// NewCrossValidator creates a new cross-validation orchestrator. A nil logger
// falls back to the standard logrus logger.
func NewCrossValidator(config *CrossValConfig, btConfig *backtest.Config, log *logrus.Entry) *CrossValidator {
	if config == nil {
		config = DefaultCrossValConfig()
	}
	if btConfig == nil {
		btConfig = backtest.DefaultConfig()
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &CrossValidator{config: config, btConfig: btConfig, log: log}
}

// foldTask is one prepared fold partition awaiting evaluation
type foldTask struct {
	fold   Fold
	combo  []int
	train  []int
	test   []int
	purged []int
}

// Run executes the full cross-validation. Fatal errors (insufficient data,
// cancellation) return an error; per-fold errors are absorbed and logged, so
// a successful run returns whatever folds completed, possibly zero.
func (cv *CrossValidator) Run(ctx context.Context, data market.Series, def *strategy.Definition) (*Report, error) {
	n := len(data)
	required := cv.config.Folds * (MinTrainSize + cv.config.PurgeGap + cv.config.EmbargoGap)
	cv.log.WithFields(logrus.Fields{
		"state":        StatePreparing,
		"observations": n,
		"folds":        cv.config.Folds,
	}).Info("preparing cross-validation")
	if n < required {
		return nil, &InsufficientDataError{Required: required, Actual: n}
	}

	blocks := StandardFolds(n, cv.config.Folds)
	tasks := cv.prepareStandard(n, blocks)

	cv.log.WithField("state", StateRunningStandardFolds).Info("running standard folds")
	results, err := cv.runPool(ctx, data, def, tasks)
	if err != nil {
		return nil, err
	}

	if cv.config.Combinatorial {
		cv.log.WithField("state", StateRunningCombinatorialFolds).Info("running combinatorial folds")
		comboTasks := cv.prepareCombinatorial(n, blocks)
		comboResults, err := cv.runPool(ctx, data, def, comboTasks)
		if err != nil {
			return nil, err
		}
		results = append(results, comboResults...)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].FoldNumber < results[j].FoldNumber
	})

	cv.log.WithFields(logrus.Fields{
		"state":           StateAggregating,
		"completed_folds": len(results),
	}).Info("aggregating fold results")
	return cv.aggregate(results), nil
}

func (cv *CrossValidator) prepareStandard(n int, blocks []Block) []foldTask {
	tasks := make([]foldTask, 0, len(blocks))
	for i, block := range blocks {
		train, test, purged := PurgedSplit(n, block.Start, block.End, cv.config.PurgeGap, cv.config.EmbargoGap)
		tasks = append(tasks, foldTask{
			fold: Fold{
				Number:     i,
				PurgeGap:   cv.config.PurgeGap,
				EmbargoGap: cv.config.EmbargoGap,
			},
			train:  train,
			test:   test,
			purged: purged,
		})
	}
	return tasks
}

func (cv *CrossValidator) prepareCombinatorial(n int, blocks []Block) []foldTask {
	combos := Combinations(cv.config.Folds)
	tasks := make([]foldTask, 0, len(combos))
	next := cv.config.Folds
	for _, combo := range combos {
		indices := blockIndices(blocks, combo)
		train, test, purged := PurgedSplitFromIndices(n, indices, cv.config.PurgeGap, cv.config.EmbargoGap)
		if len(train) < MinTrainSize || len(test) < MinTestSize {
			// below the size floor, silently omitted
			continue
		}
		tasks = append(tasks, foldTask{
			fold: Fold{
				Number:        next,
				Combinatorial: true,
				TestIndices:   test,
				PurgeGap:      cv.config.PurgeGap,
				EmbargoGap:    cv.config.EmbargoGap,
			},
			combo:  combo,
			train:  train,
			test:   test,
			purged: purged,
		})
		next++
	}
	return tasks
}

// runPool evaluates fold tasks on a bounded worker pool. Fold errors are
// logged and absorbed; cancellation aborts the run.
func (cv *CrossValidator) runPool(ctx context.Context, data market.Series, def *strategy.Definition, tasks []foldTask) ([]FoldResult, error) {
	workers := cv.config.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(tasks) {
		workers = len(tasks)
	}
	if workers < 1 {
		workers = 1
	}

	var (
		mu      sync.Mutex
		results []FoldResult
		wg      sync.WaitGroup
		sem     = make(chan struct{}, workers)
	)

	for _, task := range tasks {
		if err := ctx.Err(); err != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(task foldTask) {
			defer wg.Done()
			defer func() { <-sem }()

			result, err := cv.runFold(ctx, data, def, task)
			if err != nil {
				if ctx.Err() == nil {
					cv.log.WithError(err).WithField("fold", task.fold.Number).Warn("fold skipped")
				}
				return
			}
			mu.Lock()
			results = append(results, *result)
			mu.Unlock()
		}(task)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// runFold executes one fold: optimize on train, evaluate on test, diagnose.
func (cv *CrossValidator) runFold(ctx context.Context, data market.Series, def *strategy.Definition, task foldTask) (*FoldResult, error) {
	trainSeries := data.Select(task.train)
	testSeries := data.Select(task.test)

	search := NewGridSearch(def, cv.btConfig)
	params, _, err := search.Optimize(ctx, trainSeries)
	if err != nil {
		return nil, &FoldError{Fold: task.fold.Number, Err: err}
	}

	engine := backtest.NewEngine(def, params, cv.btConfig)
	trainResult, err := engine.Run(ctx, trainSeries)
	if err != nil {
		return nil, &FoldError{Fold: task.fold.Number, Err: err}
	}
	trainPerf := backtest.CalculatePerformance(trainResult.Returns, trainResult.Trades, nil, cv.btConfig.RiskFreeRate)

	testResult, err := engine.Run(ctx, testSeries)
	if err != nil {
		return nil, &FoldError{Fold: task.fold.Number, Err: err}
	}
	testPerf := backtest.CalculatePerformance(testResult.Returns, testResult.Trades, nil, cv.btConfig.RiskFreeRate)

	stability, err := cv.stabilityScore(ctx, def, params, testSeries, testPerf.SharpeRatio)
	if err != nil {
		return nil, &FoldError{Fold: task.fold.Number, Err: err}
	}

	return &FoldResult{
		FoldNumber:             task.fold.Number,
		CombinatorialFolds:     task.combo,
		TrainPeriod:            periodInfo(trainSeries),
		TestPeriod:             periodInfo(testSeries),
		PurgedSampleCount:      len(task.purged),
		OptimizedParameters:    params,
		TrainPerformance:       trainPerf,
		TestPerformance:        testPerf,
		TestTrades:             testResult.Trades,
		TestPositions:          testResult.Positions,
		TestReturns:            testResult.Returns,
		OverfittingIndicator:   overfittingIndicator(trainPerf, testPerf),
		StabilityScore:         stability,
		OutOfSampleDegradation: relativeDegradation(trainPerf.SharpeRatio, testPerf.SharpeRatio),
		testDates:              testResult.Dates,
	}, nil
}

// stabilityScore measures parameter sensitivity: rerun the test backtest with
// each optimized numeric parameter perturbed by one grid step and score the
// spread of the resulting Sharpe ratios. 1 means insensitive.
func (cv *CrossValidator) stabilityScore(ctx context.Context, def *strategy.Definition, params strategy.Params, testSeries market.Series, baseSharpe float64) (float64, error) {
	sharpes := []float64{baseSharpe}

	for name, spec := range def.Parameters {
		if spec.Kind != strategy.KindNumber || spec.Bounds == nil || spec.Bounds.Step <= 0 {
			continue
		}
		base, ok := params[name]
		if !ok {
			continue
		}
		for _, delta := range []float64{-spec.Bounds.Step, spec.Bounds.Step} {
			value := base.Number + delta
			if value < spec.Bounds.Min || value > spec.Bounds.Max {
				continue
			}
			perturbed := make(strategy.Params, len(params))
			for k, v := range params {
				perturbed[k] = v
			}
			perturbed[name] = strategy.NumberValue(value)

			engine := backtest.NewEngine(def, perturbed, cv.btConfig)
			result, err := engine.Run(ctx, testSeries)
			if err != nil {
				return 0, err
			}
			perf := backtest.CalculatePerformance(result.Returns, nil, nil, cv.btConfig.RiskFreeRate)
			sharpes = append(sharpes, perf.SharpeRatio)
		}
	}

	if len(sharpes) < 2 {
		return 1, nil
	}
	score := 1 / (1 + stdDev(sharpes))
	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}
	return score, nil
}

// aggregate concatenates all fold test series and computes the overall
// metrics and cross-fold diagnostics.
func (cv *CrossValidator) aggregate(results []FoldResult) *Report {
	report := &Report{
		RunID:       uuid.NewString(),
		State:       StateDone,
		FoldDetails: results,
	}

	var returns []float64
	for _, r := range results {
		for i, v := range r.TestReturns {
			point := TimeSeriesPoint{Value: v}
			if i < len(r.testDates) {
				point.Date = r.testDates[i]
			}
			report.Returns = append(report.Returns, point)
		}
		returns = append(returns, r.TestReturns...)
		report.Trades = append(report.Trades, r.TestTrades...)
		report.Positions = append(report.Positions, r.TestPositions...)
	}

	report.Performance = backtest.CalculatePerformance(returns, report.Trades, nil, cv.btConfig.RiskFreeRate)
	report.Risk = backtest.CalculateRisk(returns)
	report.FoldAnalysis = AnalyzeFolds(results)
	report.TemporalStability = AnalyzeTemporalStability(results)
	report.Robustness = AnalyzeRobustness(results)
	return report
}

// overfittingIndicator is the mean relative degradation of annualized return
// and Sharpe from train to test, floored at 0.
func overfittingIndicator(train, test *backtest.PerformanceMetrics) float64 {
	degradation := (relativeDegradation(train.AnnualizedReturn, test.AnnualizedReturn) +
		relativeDegradation(train.SharpeRatio, test.SharpeRatio)) / 2
	if degradation < 0 {
		return 0
	}
	return degradation
}

// relativeDegradation is (train-test)/|train|, 0 when train is 0.
func relativeDegradation(train, test float64) float64 {
	if train == 0 {
		return 0
	}
	return (train - test) / abs(train)
}

func periodInfo(series market.Series) PeriodInfo {
	return PeriodInfo{
		StartDate:  series.Start(),
		EndDate:    series.End(),
		DataPoints: len(series),
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

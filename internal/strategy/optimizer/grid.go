package optimizer

import (
	"context"
	"fmt"
	"math"
	"sort"

	"quantcv/internal/market"
	"quantcv/internal/strategy"
	"quantcv/internal/strategy/backtest"
)

// MaxGridCombinations caps the exhaustive grid search. Enumeration is
// truncated, not sampled.
const MaxGridCombinations = 50

// gridAxis represents one searchable numeric parameter and its grid values
type gridAxis struct {
	name   string
	values []float64
}

// GridSearch exhaustively searches the strategy's numeric parameter bounds on
// a training slice, scoring each combination by the Sharpe ratio of the
// resulting training return series. Ties are broken by first-encountered.
type GridSearch struct {
	def    *strategy.Definition
	config *backtest.Config
}

// NewGridSearch creates a new grid search optimizer
func NewGridSearch(def *strategy.Definition, config *backtest.Config) *GridSearch {
	return &GridSearch{def: def, config: config}
}

// Optimize returns the best parameter set and its training Sharpe. When no
// parameters are declared it runs a single backtest with defaults. Returns
// ErrNoViableParameters when every combination fails.
func (g *GridSearch) Optimize(ctx context.Context, train market.Series) (strategy.Params, float64, error) {
	combos := g.enumerate()

	var best strategy.Params
	bestScore := math.Inf(-1)
	found := false
	var lastErr error

	for _, params := range combos {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		if err := strategy.ValidateParams(g.def, params); err != nil {
			lastErr = err
			continue
		}

		score, err := g.evaluate(ctx, train, params)
		if err != nil {
			lastErr = err
			continue
		}
		if !found || score > bestScore {
			found = true
			bestScore = score
			best = params
		}
	}

	if !found {
		if lastErr != nil {
			return nil, 0, fmt.Errorf("%w: %v", ErrNoViableParameters, lastErr)
		}
		return nil, 0, ErrNoViableParameters
	}
	return best, bestScore, nil
}

// evaluate backtests one combination on the training slice and returns its
// Sharpe ratio.
func (g *GridSearch) evaluate(ctx context.Context, train market.Series, params strategy.Params) (float64, error) {
	engine := backtest.NewEngine(g.def, params, g.config)
	result, err := engine.Run(ctx, train)
	if err != nil {
		return 0, err
	}
	perf := backtest.CalculatePerformance(result.Returns, nil, nil, g.config.RiskFreeRate)
	return perf.SharpeRatio, nil
}

// enumerate builds the cross-product of all bounded numeric parameters,
// truncated at MaxGridCombinations. Axes iterate in sorted name order so the
// truncation and tie-breaking are deterministic.
func (g *GridSearch) enumerate() []strategy.Params {
	axes := g.axes()
	if len(axes) == 0 {
		return []strategy.Params{strategy.DefaultParams(g.def)}
	}

	cursor := make([]int, len(axes))
	combos := make([]strategy.Params, 0, MaxGridCombinations)
	for len(combos) < MaxGridCombinations {
		params := strategy.DefaultParams(g.def)
		for i, axis := range axes {
			params[axis.name] = strategy.NumberValue(axis.values[cursor[i]])
		}
		combos = append(combos, params)

		// advance the odometer, last axis fastest
		i := len(axes) - 1
		for ; i >= 0; i-- {
			cursor[i]++
			if cursor[i] < len(axes[i].values) {
				break
			}
			cursor[i] = 0
		}
		if i < 0 {
			break
		}
	}
	return combos
}

func (g *GridSearch) axes() []gridAxis {
	names := make([]string, 0, len(g.def.Parameters))
	for name, spec := range g.def.Parameters {
		if spec.Kind == strategy.KindNumber && spec.Bounds != nil && spec.Bounds.Step > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	axes := make([]gridAxis, 0, len(names))
	for _, name := range names {
		b := g.def.Parameters[name].Bounds
		var values []float64
		for v := b.Min; v <= b.Max+1e-9; v += b.Step {
			values = append(values, v)
		}
		if len(values) > 0 {
			axes = append(axes, gridAxis{name: name, values: values})
		}
	}
	return axes
}

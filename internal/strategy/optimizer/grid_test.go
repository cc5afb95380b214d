package optimizer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quantcv/internal/market"
	"quantcv/internal/strategy"
	"quantcv/internal/strategy/backtest"
)

func TestGridEnumerationCap(t *testing.T) {
	def := &strategy.Definition{
		Name:        "wide",
		SignalTypes: []string{"utilities_spy"},
		Parameters: map[string]strategy.ParameterSpec{
			"a": {
				Kind:    strategy.KindNumber,
				Default: strategy.NumberValue(0),
				Bounds:  &strategy.Bounds{Min: 0, Max: 100, Step: 1},
			},
			"b": {
				Kind:    strategy.KindNumber,
				Default: strategy.NumberValue(0),
				Bounds:  &strategy.Bounds{Min: 0, Max: 100, Step: 1},
			},
		},
	}

	search := NewGridSearch(def, backtest.DefaultConfig())
	combos := search.enumerate()
	assert.Len(t, combos, MaxGridCombinations)

	// truncation, not sampling: the first combos follow the odometer order
	assert.Equal(t, 0.0, combos[0]["a"].Number)
	assert.Equal(t, 0.0, combos[0]["b"].Number)
	assert.Equal(t, 1.0, combos[1]["b"].Number)
	assert.Equal(t, 0.0, combos[1]["a"].Number)
}

func TestGridNoDeclaredParameters(t *testing.T) {
	def := &strategy.Definition{Name: "bare", SignalTypes: []string{"utilities_spy"}}
	search := NewGridSearch(def, backtest.DefaultConfig())

	combos := search.enumerate()
	require.Len(t, combos, 1)

	series := market.Synthetic("SPY", 200, 7)
	params, score, err := search.Optimize(context.Background(), series)
	require.NoError(t, err)
	assert.Empty(t, params)
	assert.False(t, score != score, "score must not be NaN")
}

func TestGridSelectsBestSharpe(t *testing.T) {
	series := market.Synthetic("SPY", 300, 11)
	def := strategy.DefaultDefinition()
	cfg := backtest.DefaultConfig()

	search := NewGridSearch(def, cfg)
	params, best, err := search.Optimize(context.Background(), series)
	require.NoError(t, err)
	require.NotNil(t, params)

	// the winning score must match a fresh evaluation of the winning params
	score, err := search.evaluate(context.Background(), series, params)
	require.NoError(t, err)
	assert.InDelta(t, best, score, 1e-12)

	// and no other combination may beat it
	for _, combo := range search.enumerate() {
		s, err := search.evaluate(context.Background(), series, combo)
		require.NoError(t, err)
		assert.LessOrEqual(t, s, best+1e-12)
	}
}

func TestGridNoViableParameters(t *testing.T) {
	// too short for any lookback in the default bounds
	series := market.Synthetic("SPY", 11, 3)
	search := NewGridSearch(strategy.DefaultDefinition(), backtest.DefaultConfig())

	_, _, err := search.Optimize(context.Background(), series)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoViableParameters)
}

func TestGridCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	search := NewGridSearch(strategy.DefaultDefinition(), backtest.DefaultConfig())
	_, _, err := search.Optimize(ctx, market.Synthetic("SPY", 300, 5))
	assert.ErrorIs(t, err, context.Canceled)
}

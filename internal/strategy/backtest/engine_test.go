package backtest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quantcv/internal/market"
	"quantcv/internal/strategy"
)

// seriesOf builds a daily series from closes.
func seriesOf(closes ...float64) market.Series {
	start := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	series := make(market.Series, len(closes))
	for i, c := range closes {
		series[i] = market.Observation{
			Date:   start.AddDate(0, 0, i),
			Symbol: "SPY",
			Close:  c,
			Volume: 1000,
		}
	}
	return series
}

// rotationDef is a short-lookback fixed-size variant for deterministic paths.
func rotationDef() (*strategy.Definition, strategy.Params) {
	def := strategy.DefaultDefinition()
	def.PositionSizing = strategy.SizingFixed
	params := strategy.Params{
		"lookback":  strategy.NumberValue(3),
		"threshold": strategy.NumberValue(0.01),
	}
	return def, params
}

func TestEngineInsufficientData(t *testing.T) {
	engine := NewEngine(strategy.DefaultDefinition(), nil, DefaultConfig())

	// default lookback 20 requires at least 22 observations
	_, err := engine.Run(context.Background(), market.Synthetic("SPY", 21, 1))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = engine.Run(context.Background(), market.Synthetic("SPY", 22, 1))
	assert.NoError(t, err)
}

func TestEngineReturnSeries(t *testing.T) {
	series := market.Synthetic("SPY", 200, 42)
	engine := NewEngine(strategy.DefaultDefinition(), nil, DefaultConfig())

	result, err := engine.Run(context.Background(), series)
	require.NoError(t, err)

	require.Len(t, result.Returns, len(series)-1)
	require.Len(t, result.Dates, len(series)-1)

	// no position can exist before the signal warmup ends
	for i := 0; i < strategy.DefaultLookback; i++ {
		assert.Equal(t, 0.0, result.Returns[i], "return %d inside warmup", i)
	}

	for i, d := range result.Dates {
		assert.Equal(t, series[i+1].Date, d)
	}
}

func TestEngineRotation(t *testing.T) {
	def, params := rotationDef()
	cfg := DefaultConfig()
	engine := NewEngine(def, params, cfg)

	// spike long at 110, rotate defensive at 90, rotate back at 100
	series := seriesOf(100, 100, 100, 110, 112, 90, 95, 100)
	result, err := engine.Run(context.Background(), series)
	require.NoError(t, err)

	require.Len(t, result.Trades, 3)
	assert.Equal(t, "SPY", result.Trades[0].Symbol)
	assert.Equal(t, "XLU", result.Trades[1].Symbol)
	assert.Equal(t, "SPY", result.Trades[2].Symbol)

	assert.Equal(t, 110.0, result.Trades[0].EntryPrice)
	assert.Equal(t, 90.0, result.Trades[0].ExitPrice)
	assert.Equal(t, 90.0, result.Trades[1].EntryPrice)
	assert.Equal(t, 100.0, result.Trades[1].ExitPrice)

	// flat until the spike day, realized from the day after
	require.Len(t, result.Returns, 7)
	assert.Equal(t, []float64{0, 0, 0}, result.Returns[:3])
	assert.InDelta(t, (112.0-110.0)/110.0*cfg.MaxPositionSize, result.Returns[3], 1e-12)
	assert.InDelta(t, (90.0-112.0)/112.0*cfg.MaxPositionSize, result.Returns[4], 1e-12)

	// one snapshot per held day
	require.Len(t, result.Positions, 4)
	assert.Equal(t, "SPY", result.Positions[0].Symbol)
	assert.Equal(t, "XLU", result.Positions[2].Symbol)
}

func TestEngineTradeConsistency(t *testing.T) {
	def, params := rotationDef()
	cfg := DefaultConfig()
	engine := NewEngine(def, params, cfg)

	result, err := engine.Run(context.Background(), seriesOf(100, 100, 100, 110, 112, 90, 95, 100))
	require.NoError(t, err)
	require.NotEmpty(t, result.Trades)

	net := 0.0
	for _, tr := range result.Trades {
		assert.NotEmpty(t, tr.ID)
		assert.Equal(t, tr.EntryQuantity, tr.ExitQuantity)
		assert.InDelta(t, (tr.ExitPrice-tr.EntryPrice)*tr.ExitQuantity, tr.PnL, 1e-9)

		notional := tr.EntryPrice*tr.EntryQuantity + tr.ExitPrice*tr.ExitQuantity
		assert.InDelta(t, cfg.CommissionRate*notional, tr.Commissions, 1e-9)
		assert.InDelta(t, cfg.SlippageRate*notional, tr.Slippage, 1e-9)

		assert.False(t, tr.ExitDate.Before(tr.EntryDate))
		assert.GreaterOrEqual(t, tr.TimeInTradeDays, 0.0)

		net += tr.PnL - tr.Commissions - tr.Slippage
	}
	assert.InDelta(t, cfg.InitialCapital+net, result.FinalCapital, 1e-6)

	for _, p := range result.Positions {
		assert.InDelta(t, p.Quantity*p.Price, p.Value, 1e-9)
		assert.Greater(t, p.Weight, 0.0)
		assert.LessOrEqual(t, p.Weight, 1.0)
	}
}

func TestEngineConfidenceSizing(t *testing.T) {
	def, params := rotationDef()
	def.PositionSizing = strategy.SizingConfidence
	cfg := DefaultConfig()
	engine := NewEngine(def, params, cfg)

	// dev 0.1 at the spike clamps confidence to 0.9
	result, err := engine.Run(context.Background(), seriesOf(100, 100, 100, 110, 112, 90))
	require.NoError(t, err)
	require.NotEmpty(t, result.Positions)
	assert.InDelta(t, cfg.MaxPositionSize*0.9, result.Positions[0].Weight, 1e-12)
}

func TestEngineCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := NewEngine(strategy.DefaultDefinition(), nil, DefaultConfig())
	_, err := engine.Run(ctx, market.Synthetic("SPY", 200, 1))
	assert.ErrorIs(t, err, context.Canceled)
}

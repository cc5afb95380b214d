package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"quantcv/internal/market"
	"quantcv/internal/strategy"
)

// Engine simulates one parameterized strategy over one contiguous data slice.
// It is a pure function of (strategy, params, data, config); no state survives
// a run.
type Engine struct {
	def    *strategy.Definition
	params strategy.Params
	config *Config
}

// NewEngine creates a new single-run backtest engine
func NewEngine(def *strategy.Definition, params strategy.Params, config *Config) *Engine {
	return &Engine{
		def:    def,
		params: params,
		config: config,
	}
}

// openPosition tracks the currently held position during simulation
type openPosition struct {
	symbol     string
	entryDate  time.Time
	entryPrice float64
	quantity   float64
	weight     float64
}

// Run simulates the strategy over the series and returns trades, per-period
// position snapshots and the realized return series (length len(data)-1).
func (e *Engine) Run(ctx context.Context, data market.Series) (*Result, error) {
	lookback := int(e.params.NumberOr("lookback", strategy.DefaultLookback))
	if lookback < 2 {
		lookback = strategy.DefaultLookback
	}
	if len(data) <= lookback+1 {
		return nil, fmt.Errorf("%w: %d observations, lookback %d", ErrInsufficientData, len(data), lookback)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	signalType := e.def.SignalType()
	pair := strategy.SymbolsFor(signalType)

	result := &Result{
		Trades:    make([]Trade, 0),
		Positions: make([]Position, 0),
		Returns:   make([]float64, 0, len(data)-1),
		Dates:     make([]time.Time, 0, len(data)-1),
	}

	capital := e.config.InitialCapital
	var held *openPosition

	for i := 1; i < len(data); i++ {
		priceReturn := (data[i].Close - data[i-1].Close) / data[i-1].Close

		realized := 0.0
		if held != nil {
			realized = priceReturn * held.weight
		}
		result.Returns = append(result.Returns, realized)
		result.Dates = append(result.Dates, data[i].Date)

		if held != nil {
			result.Positions = append(result.Positions, Position{
				Symbol:      held.symbol,
				Date:        data[i].Date,
				Quantity:    held.quantity,
				Price:       data[i].Close,
				Value:       held.quantity * data[i].Close,
				Weight:      held.weight,
				DailyReturn: realized,
			})
		}

		sig, ok := strategy.GenerateSignal(data, i, signalType, e.params)
		if !ok {
			continue
		}

		target := pair.RiskOff
		if sig.Direction == strategy.RiskOn {
			target = pair.RiskOn
		}

		switch {
		case held != nil && held.symbol != target:
			capital = e.closeTrade(result, held, data[i], capital)
			held = e.open(target, data[i], capital, sig.Confidence)
		case held == nil && sig.Direction == strategy.RiskOn && sig.Confidence > 0.5:
			held = e.open(target, data[i], capital, sig.Confidence)
		}
	}

	if held != nil {
		capital = e.closeTrade(result, held, data[len(data)-1], capital)
	}
	result.FinalCapital = capital

	return result, nil
}

// open sizes and opens a new position at the given observation.
func (e *Engine) open(symbol string, obs market.Observation, capital, confidence float64) *openPosition {
	size := capital * e.config.MaxPositionSize
	if e.def.PositionSizing != strategy.SizingFixed {
		size *= confidence
	}
	if size <= 0 || obs.Close <= 0 {
		return nil
	}
	return &openPosition{
		symbol:     symbol,
		entryDate:  obs.Date,
		entryPrice: obs.Close,
		quantity:   size / obs.Close,
		weight:     size / capital,
	}
}

// closeTrade realizes the held position into a Trade and compounds capital by
// its P&L net of commissions and slippage.
func (e *Engine) closeTrade(result *Result, held *openPosition, obs market.Observation, capital float64) float64 {
	entryValue := held.entryPrice * held.quantity
	exitValue := obs.Close * held.quantity
	notional := entryValue + exitValue

	pnl := (obs.Close - held.entryPrice) * held.quantity
	commissions := e.config.CommissionRate * notional
	slippage := e.config.SlippageRate * notional

	pnlPercent := 0.0
	if entryValue != 0 {
		pnlPercent = pnl / entryValue * 100
	}

	result.Trades = append(result.Trades, Trade{
		ID:              uuid.NewString(),
		EntryDate:       held.entryDate,
		ExitDate:        obs.Date,
		Symbol:          held.symbol,
		EntryPrice:      held.entryPrice,
		EntryQuantity:   held.quantity,
		ExitPrice:       obs.Close,
		ExitQuantity:    held.quantity,
		PnL:             pnl,
		PnLPercent:      pnlPercent,
		Commissions:     commissions,
		Slippage:        slippage,
		TimeInTradeDays: obs.Date.Sub(held.entryDate).Hours() / 24,
	})

	return capital + pnl - commissions - slippage
}

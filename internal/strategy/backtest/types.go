package backtest

import (
	"errors"
	"time"
)

// Config represents single-run backtest configuration
type Config struct {
	InitialCapital  float64   `json:"initial_capital" yaml:"initial_capital"`
	CommissionRate  float64   `json:"commission_rate" yaml:"commission_rate"`
	SlippageRate    float64   `json:"slippage_rate" yaml:"slippage_rate"`
	MaxPositionSize float64   `json:"max_position_size" yaml:"max_position_size"`
	RiskFreeRate    float64   `json:"risk_free_rate" yaml:"risk_free_rate"`
	StartDate       time.Time `json:"start_date,omitempty" yaml:"start_date,omitempty"`
	EndDate         time.Time `json:"end_date,omitempty" yaml:"end_date,omitempty"`
}

// DefaultConfig returns a config with conventional simulation defaults.
func DefaultConfig() *Config {
	return &Config{
		InitialCapital:  100_000,
		CommissionRate:  0.001,
		SlippageRate:    0.0005,
		MaxPositionSize: 0.95,
		RiskFreeRate:    0.02,
	}
}

// Trade represents one closed round trip. Immutable once created.
type Trade struct {
	ID              string    `json:"id"`
	EntryDate       time.Time `json:"entry_date"`
	ExitDate        time.Time `json:"exit_date"`
	Symbol          string    `json:"symbol"`
	EntryPrice      float64   `json:"entry_price"`
	EntryQuantity   float64   `json:"entry_quantity"`
	ExitPrice       float64   `json:"exit_price"`
	ExitQuantity    float64   `json:"exit_quantity"`
	PnL             float64   `json:"pnl"`
	PnLPercent      float64   `json:"pnl_percent"`
	Commissions     float64   `json:"commissions"`
	Slippage        float64   `json:"slippage"`
	TimeInTradeDays float64   `json:"time_in_trade_days"`
}

// Position represents one per-period snapshot of a held position
type Position struct {
	Symbol      string    `json:"symbol"`
	Date        time.Time `json:"date"`
	Quantity    float64   `json:"quantity"`
	Price       float64   `json:"price"`
	Value       float64   `json:"value"`
	Weight      float64   `json:"weight"`
	DailyReturn float64   `json:"daily_return"`
}

// Result represents the output of a single backtest run
type Result struct {
	Trades       []Trade     `json:"trades"`
	Positions    []Position  `json:"positions"`
	Returns      []float64   `json:"returns"`
	Dates        []time.Time `json:"dates"`
	FinalCapital float64     `json:"final_capital"`
}

// ErrInsufficientData is returned when a data slice is too short to cover
// the signal warmup window.
var ErrInsufficientData = errors.New("insufficient data for backtest")

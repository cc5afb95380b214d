package backtest

import "math"

// DefaultRollingWindow is the sliding window used for rolling metrics.
const DefaultRollingWindow = 21

// RollingMetrics represents four parallel time series, one value per window
// end, each of length len(returns)-window+1.
type RollingMetrics struct {
	Window      int       `json:"window"`
	Returns     []float64 `json:"returns"`
	Volatility  []float64 `json:"volatility"`
	Sharpe      []float64 `json:"sharpe"`
	MaxDrawdown []float64 `json:"max_drawdown"`
}

// CalculateRolling recomputes compounded return, volatility, Sharpe and max
// drawdown over a sliding window. Returns nil when the series is shorter than
// the window.
func CalculateRolling(returns []float64, window int, riskFreeRate float64) *RollingMetrics {
	if window <= 0 || len(returns) < window {
		return nil
	}

	count := len(returns) - window + 1
	m := &RollingMetrics{
		Window:      window,
		Returns:     make([]float64, 0, count),
		Volatility:  make([]float64, 0, count),
		Sharpe:      make([]float64, 0, count),
		MaxDrawdown: make([]float64, 0, count),
	}

	for end := window; end <= len(returns); end++ {
		win := returns[end-window : end]

		total := CompoundReturn(win)
		annualized := math.Pow(1+total, PeriodsPerYear/float64(window)) - 1
		vol := stdDevPop(win) * math.Sqrt(PeriodsPerYear)
		sharpe := 0.0
		if vol != 0 {
			sharpe = (annualized - riskFreeRate) / vol
		}
		dd, _, _ := drawdownStats(win)

		m.Returns = append(m.Returns, total)
		m.Volatility = append(m.Volatility, vol)
		m.Sharpe = append(m.Sharpe, sharpe)
		m.MaxDrawdown = append(m.MaxDrawdown, dd)
	}

	return m
}

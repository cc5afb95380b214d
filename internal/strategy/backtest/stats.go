package backtest

import "math"

// PeriodsPerYear is the annualization factor for daily observations.
const PeriodsPerYear = 252

// monthBlock and yearBlock are the consistency block sizes in periods.
const (
	monthBlock = 21
	yearBlock  = 252
)

// PerformanceMetrics represents the full performance record of a return
// series. Recomputed fresh per call, never partially mutated.
type PerformanceMetrics struct {
	TotalReturn      float64 `json:"total_return"`
	AnnualizedReturn float64 `json:"annualized_return"`
	Volatility       float64 `json:"volatility"`

	SharpeRatio  float64 `json:"sharpe_ratio"`
	SortinoRatio float64 `json:"sortino_ratio"`
	CalmarRatio  float64 `json:"calmar_ratio"`

	MaxDrawdown         float64 `json:"max_drawdown"`
	MaxDrawdownDuration int     `json:"max_drawdown_duration"`
	RecoveryTime        float64 `json:"recovery_time"`

	TradeCount        int     `json:"trade_count"`
	WinRate           float64 `json:"win_rate"`
	AverageWin        float64 `json:"average_win"`
	AverageLoss       float64 `json:"average_loss"`
	ProfitFactor      float64 `json:"profit_factor"`
	ConsecutiveWins   int     `json:"consecutive_wins"`
	ConsecutiveLosses int     `json:"consecutive_losses"`

	MonthlyReturns   []float64 `json:"monthly_returns,omitempty"`
	YearlyReturns    []float64 `json:"yearly_returns,omitempty"`
	BestMonth        float64   `json:"best_month"`
	WorstMonth       float64   `json:"worst_month"`
	PositiveMonthPct float64   `json:"positive_month_pct"`
	BestYear         float64   `json:"best_year"`
	WorstYear        float64   `json:"worst_year"`
	PositiveYearPct  float64   `json:"positive_year_pct"`

	HasBenchmark     bool    `json:"has_benchmark"`
	Beta             float64 `json:"beta,omitempty"`
	Alpha            float64 `json:"alpha,omitempty"`
	TrackingError    float64 `json:"tracking_error,omitempty"`
	InformationRatio float64 `json:"information_ratio,omitempty"`

	Rolling *RollingMetrics `json:"rolling,omitempty"`
}

// CalculatePerformance computes the full metric set for a return series.
// Trades and benchmark are optional; all ratios guard zero denominators and
// return 0 instead of raising.
func CalculatePerformance(returns []float64, trades []Trade, benchmark []float64, riskFreeRate float64) *PerformanceMetrics {
	m := &PerformanceMetrics{}
	n := len(returns)

	m.TotalReturn = CompoundReturn(returns)
	if n > 0 {
		m.AnnualizedReturn = math.Pow(1+m.TotalReturn, PeriodsPerYear/float64(n)) - 1
	}
	m.Volatility = stdDevPop(returns) * math.Sqrt(PeriodsPerYear)

	excess := m.AnnualizedReturn - riskFreeRate
	if m.Volatility != 0 {
		m.SharpeRatio = excess / m.Volatility
	}
	if downside := downsideDeviation(returns); downside != 0 && m.Volatility != 0 {
		m.SortinoRatio = excess / downside
	}

	m.MaxDrawdown, m.MaxDrawdownDuration, m.RecoveryTime = drawdownStats(returns)
	if m.MaxDrawdown != 0 {
		m.CalmarRatio = m.AnnualizedReturn / m.MaxDrawdown
	}

	if len(trades) > 0 {
		m.applyTradeStats(trades)
	}

	m.MonthlyReturns = blockReturns(returns, monthBlock)
	m.YearlyReturns = blockReturns(returns, yearBlock)
	m.BestMonth, m.WorstMonth, m.PositiveMonthPct = blockSummary(m.MonthlyReturns)
	m.BestYear, m.WorstYear, m.PositiveYearPct = blockSummary(m.YearlyReturns)

	if len(benchmark) > 0 && n > 0 {
		m.applyBenchmarkStats(returns, benchmark, riskFreeRate)
	}

	m.Rolling = CalculateRolling(returns, DefaultRollingWindow, riskFreeRate)

	return m
}

// CompoundReturn computes the compounded total return of a series. The empty
// series compounds to 0.
func CompoundReturn(returns []float64) float64 {
	product := 1.0
	for _, r := range returns {
		product *= 1 + r
	}
	return product - 1
}

// drawdownStats walks the cumulative compounded curve and reports the maximum
// drawdown, the longest run of periods spent below the running peak, and the
// mean length of drawdown episodes.
func drawdownStats(returns []float64) (maxDD float64, maxDuration int, recovery float64) {
	cum := 0.0
	peak := 0.0
	duration := 0
	var episodes []int

	for _, r := range returns {
		cum = (1+cum)*(1+r) - 1
		if cum > peak {
			peak = cum
			if duration > 0 {
				episodes = append(episodes, duration)
			}
			duration = 0
			continue
		}
		dd := (peak - cum) / (1 + peak)
		if dd > maxDD {
			maxDD = dd
		}
		duration++
		if duration > maxDuration {
			maxDuration = duration
		}
	}
	if duration > 0 {
		episodes = append(episodes, duration)
	}
	if len(episodes) > 0 {
		sum := 0
		for _, e := range episodes {
			sum += e
		}
		recovery = float64(sum) / float64(len(episodes))
	}
	return maxDD, maxDuration, recovery
}

func (m *PerformanceMetrics) applyTradeStats(trades []Trade) {
	m.TradeCount = len(trades)

	var winners, losers int
	var grossProfit, grossLoss float64
	var winStreak, lossStreak int
	for _, t := range trades {
		switch {
		case t.PnL > 0:
			winners++
			grossProfit += t.PnL
			winStreak++
			lossStreak = 0
		case t.PnL < 0:
			losers++
			grossLoss += t.PnL
			lossStreak++
			winStreak = 0
		default:
			winStreak = 0
			lossStreak = 0
		}
		if winStreak > m.ConsecutiveWins {
			m.ConsecutiveWins = winStreak
		}
		if lossStreak > m.ConsecutiveLosses {
			m.ConsecutiveLosses = lossStreak
		}
	}

	m.WinRate = float64(winners) / float64(len(trades)) * 100
	if winners > 0 {
		m.AverageWin = grossProfit / float64(winners)
	}
	if losers > 0 {
		m.AverageLoss = grossLoss / float64(losers)
	}
	if grossLoss != 0 {
		m.ProfitFactor = grossProfit / math.Abs(grossLoss)
	}
}

func (m *PerformanceMetrics) applyBenchmarkStats(returns, benchmark []float64, riskFreeRate float64) {
	n := len(returns)
	if len(benchmark) < n {
		n = len(benchmark)
	}
	if n == 0 {
		return
	}
	strat := returns[:n]
	bench := benchmark[:n]

	rfDaily := riskFreeRate / PeriodsPerYear
	excessS := make([]float64, n)
	excessB := make([]float64, n)
	diff := make([]float64, n)
	for i := 0; i < n; i++ {
		excessS[i] = strat[i] - rfDaily
		excessB[i] = bench[i] - rfDaily
		diff[i] = strat[i] - bench[i]
	}

	meanS := mean(excessS)
	meanB := mean(excessB)
	var cov, varB float64
	for i := 0; i < n; i++ {
		cov += (excessS[i] - meanS) * (excessB[i] - meanB)
		varB += (excessB[i] - meanB) * (excessB[i] - meanB)
	}
	m.HasBenchmark = true
	if varB != 0 {
		m.Beta = cov / varB
		m.Alpha = (meanS - m.Beta*meanB) * PeriodsPerYear
	}
	m.TrackingError = stdDevPop(diff) * math.Sqrt(PeriodsPerYear)
	if m.TrackingError != 0 {
		m.InformationRatio = mean(diff) * PeriodsPerYear / m.TrackingError
	}
}

// blockReturns compounds the series in fixed-size blocks, dropping a trailing
// partial block.
func blockReturns(returns []float64, size int) []float64 {
	if size <= 0 || len(returns) < size {
		return nil
	}
	blocks := make([]float64, 0, len(returns)/size)
	for start := 0; start+size <= len(returns); start += size {
		blocks = append(blocks, CompoundReturn(returns[start:start+size]))
	}
	return blocks
}

func blockSummary(blocks []float64) (best, worst, positivePct float64) {
	if len(blocks) == 0 {
		return 0, 0, 0
	}
	best = blocks[0]
	worst = blocks[0]
	positive := 0
	for _, b := range blocks {
		if b > best {
			best = b
		}
		if b < worst {
			worst = b
		}
		if b > 0 {
			positive++
		}
	}
	return best, worst, float64(positive) / float64(len(blocks)) * 100
}

// downsideDeviation is the annualized root mean square of negative returns.
func downsideDeviation(returns []float64) float64 {
	var sumSq float64
	count := 0
	for _, r := range returns {
		if r < 0 {
			sumSq += r * r
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return math.Sqrt(sumSq/float64(count)) * math.Sqrt(PeriodsPerYear)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stdDevPop is the population standard deviation (divide by n).
func stdDevPop(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	var sumSq float64
	for _, v := range values {
		d := v - m
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)))
}

// stdDevSample is the bias-corrected sample standard deviation (divide by n-1).
func stdDevSample(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	var sumSq float64
	for _, v := range values {
		d := v - m
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)-1))
}

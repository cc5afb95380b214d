package backtest

import (
	"math"
	"sort"
)

// RiskMetrics represents tail and distribution statistics of a return series
type RiskMetrics struct {
	VaR95                 float64 `json:"var_95"`
	VaR99                 float64 `json:"var_99"`
	ExpectedShortfall95   float64 `json:"expected_shortfall_95"`
	ExpectedShortfall99   float64 `json:"expected_shortfall_99"`
	Volatility            float64 `json:"volatility"`
	Skewness              float64 `json:"skewness"`
	Kurtosis              float64 `json:"kurtosis"`
	TailRatio             float64 `json:"tail_ratio"`
}

// CalculateRisk computes VaR, expected shortfall and distribution moments.
// Total function: degenerate inputs yield zeros, never errors.
func CalculateRisk(returns []float64) *RiskMetrics {
	m := &RiskMetrics{}
	n := len(returns)
	if n == 0 {
		return m
	}

	sorted := make([]float64, n)
	copy(sorted, returns)
	sort.Float64s(sorted)

	m.VaR95 = math.Abs(sorted[int(float64(n)*0.05)])
	m.VaR99 = math.Abs(sorted[int(float64(n)*0.01)])
	m.ExpectedShortfall95 = tailMean(sorted, int(float64(n)*0.05)+1)
	m.ExpectedShortfall99 = tailMean(sorted, int(float64(n)*0.01)+1)

	m.Volatility = stdDevPop(returns) * math.Sqrt(PeriodsPerYear)
	m.Skewness = skewness(returns)
	m.Kurtosis = kurtosis(returns)
	m.TailRatio = tailRatio(sorted)

	return m
}

// tailMean averages the worst count entries of an ascending-sorted series.
func tailMean(sorted []float64, count int) float64 {
	if count > len(sorted) {
		count = len(sorted)
	}
	if count <= 0 {
		return 0
	}
	sum := 0.0
	for _, r := range sorted[:count] {
		sum += r
	}
	return math.Abs(sum / float64(count))
}

// skewness is the bias-corrected sample skewness estimator.
func skewness(values []float64) float64 {
	n := float64(len(values))
	if n < 3 {
		return 0
	}
	m := mean(values)
	s := stdDevSample(values)
	if s == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		z := (v - m) / s
		sum += z * z * z
	}
	return n / ((n - 1) * (n - 2)) * sum
}

// kurtosis is the bias-corrected sample excess kurtosis estimator.
func kurtosis(values []float64) float64 {
	n := float64(len(values))
	if n < 4 {
		return 0
	}
	m := mean(values)
	s := stdDevSample(values)
	if s == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		z := (v - m) / s
		sum += z * z * z * z
	}
	return n*(n+1)/((n-1)*(n-2)*(n-3))*sum - 3*(n-1)*(n-1)/((n-2)*(n-3))
}

// tailRatio compares the mean of the bottom 5% against the mean of the
// top 5% of an ascending-sorted series.
func tailRatio(sorted []float64) float64 {
	n := len(sorted)
	k := int(float64(n) * 0.05)
	if k < 1 {
		k = 1
	}
	if k > n {
		return 0
	}
	bottom := mean(sorted[:k])
	top := mean(sorted[n-k:])
	if top == 0 {
		return 0
	}
	return math.Abs(bottom / top)
}

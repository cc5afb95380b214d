package backtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateRiskQuantiles(t *testing.T) {
	// 100 evenly spaced returns from -0.050 to 0.049
	returns := make([]float64, 100)
	for i := range returns {
		returns[i] = float64(i-50) / 1000
	}

	m := CalculateRisk(returns)
	assert.InDelta(t, 0.045, m.VaR95, 1e-12)
	assert.InDelta(t, 0.049, m.VaR99, 1e-12)
	assert.InDelta(t, 0.0475, m.ExpectedShortfall95, 1e-12)
	assert.InDelta(t, 0.0495, m.ExpectedShortfall99, 1e-12)

	// expected shortfall always dominates the matching VaR
	assert.GreaterOrEqual(t, m.ExpectedShortfall95, m.VaR95)
	assert.GreaterOrEqual(t, m.ExpectedShortfall99, m.VaR99)

	// bottom 5: mean(-0.050..-0.046), top 5: mean(0.045..0.049)
	assert.InDelta(t, 0.048/0.047, m.TailRatio, 1e-12)
}

func TestCalculateRiskMoments(t *testing.T) {
	// symmetric series: zero skew, platykurtic
	returns := make([]float64, 101)
	for i := range returns {
		returns[i] = float64(i-50) / 1000
	}
	m := CalculateRisk(returns)
	assert.InDelta(t, 0.0, m.Skewness, 1e-9)
	assert.Less(t, m.Kurtosis, 0.0)

	// a long right tail skews positive
	skewed := append(make([]float64, 0, 20), -0.01, -0.01, -0.01, -0.01, -0.01,
		-0.01, -0.01, -0.01, -0.01, 0.09)
	m = CalculateRisk(skewed)
	assert.Greater(t, m.Skewness, 0.0)
}

func TestCalculateRiskDegenerate(t *testing.T) {
	m := CalculateRisk(nil)
	assert.Equal(t, 0.0, m.VaR95)
	assert.Equal(t, 0.0, m.ExpectedShortfall95)
	assert.Equal(t, 0.0, m.Volatility)

	// constant series has no variance, moments guard the zero denominator
	flat := []float64{-0.01, -0.01, -0.01, -0.01, -0.01}
	m = CalculateRisk(flat)
	assert.Equal(t, 0.0, m.Skewness)
	assert.Equal(t, 0.0, m.Kurtosis)
	assert.Equal(t, 0.0, m.Volatility)
	assert.InDelta(t, 0.01, m.VaR95, 1e-12)
	assert.InDelta(t, 1.0, m.TailRatio, 1e-12)
}

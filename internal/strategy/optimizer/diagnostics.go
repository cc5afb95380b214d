package optimizer

import "math"

// Thresholds for fold ranking
const (
	consistentSharpe   = 0.5
	volatileDrawdown   = 0.15
	volatileVolatility = 0.25
)

// FoldAnalysis ranks folds by out-of-sample performance
type FoldAnalysis struct {
	BestFold             int     `json:"best_fold"`
	WorstFold            int     `json:"worst_fold"`
	ConsistentPerformers []int   `json:"consistent_performers"`
	VolatileFolds        []int   `json:"volatile_folds"`
	PerformanceStability float64 `json:"performance_stability"`
	ConsistencyScore     float64 `json:"consistency_score"`
}

// TemporalStability measures how out-of-sample performance evolves over the
// standard folds in time order
type TemporalStability struct {
	PerformanceDrift float64 `json:"performance_drift"`
	StabilityTrend   float64 `json:"stability_trend"`
}

// RobustnessMetrics summarizes cross-fold overfitting diagnostics
type RobustnessMetrics struct {
	PerformanceStability float64 `json:"performance_stability"`
	ConsistencyScore     float64 `json:"consistency_score"`
	MeanOverfitting      float64 `json:"mean_overfitting"`
	MeanStability        float64 `json:"mean_stability"`
	SharpeVariance       float64 `json:"sharpe_variance"`
}

// AnalyzeFolds identifies best/worst folds by test Sharpe, consistent
// performers and volatile folds.
func AnalyzeFolds(results []FoldResult) *FoldAnalysis {
	analysis := &FoldAnalysis{
		BestFold:             -1,
		WorstFold:            -1,
		ConsistentPerformers: []int{},
		VolatileFolds:        []int{},
	}
	if len(results) == 0 {
		return analysis
	}

	sharpes := testSharpes(results)
	best, worst := 0, 0
	positive := 0
	for i, r := range results {
		if sharpes[i] > sharpes[best] {
			best = i
		}
		if sharpes[i] < sharpes[worst] {
			worst = i
		}
		if r.TestPerformance.TotalReturn > 0 {
			positive++
		}
		if sharpes[i] > consistentSharpe {
			analysis.ConsistentPerformers = append(analysis.ConsistentPerformers, r.FoldNumber)
		}
		if r.TestPerformance.MaxDrawdown > volatileDrawdown || r.TestPerformance.Volatility > volatileVolatility {
			analysis.VolatileFolds = append(analysis.VolatileFolds, r.FoldNumber)
		}
	}
	analysis.BestFold = results[best].FoldNumber
	analysis.WorstFold = results[worst].FoldNumber
	analysis.PerformanceStability = performanceStability(sharpes)
	analysis.ConsistencyScore = float64(positive) / float64(len(results))
	return analysis
}

// AnalyzeTemporalStability correlates fold order with test Sharpe and fits a
// trend through the rolling (window 3) variance of the Sharpe sequence.
// Standard folds only, in fold-number order.
func AnalyzeTemporalStability(results []FoldResult) *TemporalStability {
	var sharpes []float64
	for _, r := range results {
		if !r.isCombinatorial() {
			sharpes = append(sharpes, r.TestPerformance.SharpeRatio)
		}
	}

	ts := &TemporalStability{}
	if len(sharpes) < 2 {
		return ts
	}

	indices := make([]float64, len(sharpes))
	for i := range indices {
		indices[i] = float64(i)
	}
	ts.PerformanceDrift = pearson(indices, sharpes)

	variances := rollingVariance(sharpes, 3)
	if len(variances) >= 2 {
		xs := make([]float64, len(variances))
		for i := range xs {
			xs[i] = float64(i)
		}
		ts.StabilityTrend = olsSlope(xs, variances)
	}
	return ts
}

// AnalyzeRobustness summarizes overfitting and stability across all folds.
func AnalyzeRobustness(results []FoldResult) *RobustnessMetrics {
	m := &RobustnessMetrics{}
	if len(results) == 0 {
		return m
	}

	sharpes := testSharpes(results)
	positive := 0
	for _, r := range results {
		m.MeanOverfitting += r.OverfittingIndicator
		m.MeanStability += r.StabilityScore
		if r.TestPerformance.TotalReturn > 0 {
			positive++
		}
	}
	m.MeanOverfitting /= float64(len(results))
	m.MeanStability /= float64(len(results))
	m.SharpeVariance = popVariance(sharpes)
	m.PerformanceStability = performanceStability(sharpes)
	m.ConsistencyScore = float64(positive) / float64(len(results))
	return m
}

func (r *FoldResult) isCombinatorial() bool {
	return len(r.CombinatorialFolds) > 0
}

func testSharpes(results []FoldResult) []float64 {
	sharpes := make([]float64, len(results))
	for i, r := range results {
		sharpes[i] = r.TestPerformance.SharpeRatio
	}
	return sharpes
}

// performanceStability = max(0, 1 - variance(test Sharpes))
func performanceStability(sharpes []float64) float64 {
	s := 1 - popVariance(sharpes)
	if s < 0 {
		return 0
	}
	return s
}

// rollingVariance computes the variance of each sliding window.
func rollingVariance(values []float64, window int) []float64 {
	if window <= 0 || len(values) < window {
		return nil
	}
	out := make([]float64, 0, len(values)-window+1)
	for end := window; end <= len(values); end++ {
		out = append(out, popVariance(values[end-window:end]))
	}
	return out
}

func pearson(xs, ys []float64) float64 {
	n := len(xs)
	if n != len(ys) || n < 2 {
		return 0
	}
	mx, my := meanOf(xs), meanOf(ys)
	var cov, vx, vy float64
	for i := 0; i < n; i++ {
		dx := xs[i] - mx
		dy := ys[i] - my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	if vx == 0 || vy == 0 {
		return 0
	}
	return cov / math.Sqrt(vx*vy)
}

func olsSlope(xs, ys []float64) float64 {
	n := len(xs)
	if n != len(ys) || n < 2 {
		return 0
	}
	mx, my := meanOf(xs), meanOf(ys)
	var cov, vx float64
	for i := 0; i < n; i++ {
		cov += (xs[i] - mx) * (ys[i] - my)
		vx += (xs[i] - mx) * (xs[i] - mx)
	}
	if vx == 0 {
		return 0
	}
	return cov / vx
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func popVariance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := meanOf(values)
	var sumSq float64
	for _, v := range values {
		d := v - m
		sumSq += d * d
	}
	return sumSq / float64(len(values))
}

func stdDev(values []float64) float64 {
	return math.Sqrt(popVariance(values))
}

package monitor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects engine metrics for prometheus
type Metrics struct {
	runsTotal   *prometheus.CounterVec
	foldsTotal  *prometheus.CounterVec
	runDuration prometheus.Histogram
}

// NewMetrics creates and registers the engine collectors on a registerer.
// Pass prometheus.DefaultRegisterer for the process-wide registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		runsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quantcv",
			Name:      "runs_total",
			Help:      "Cross-validation runs by final status",
		}, []string{"status"}),
		foldsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quantcv",
			Name:      "folds_total",
			Help:      "Folds by outcome",
		}, []string{"outcome"}),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quantcv",
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of cross-validation runs",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
	}
}

// ObserveRun records one completed run.
func (m *Metrics) ObserveRun(status string, completedFolds, skippedFolds int, elapsed time.Duration) {
	m.runsTotal.WithLabelValues(status).Inc()
	m.foldsTotal.WithLabelValues("completed").Add(float64(completedFolds))
	m.foldsTotal.WithLabelValues("skipped").Add(float64(skippedFolds))
	m.runDuration.Observe(elapsed.Seconds())
}

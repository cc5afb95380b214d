package market

import (
	"math/rand"
	"time"
)

// Synthetic generates a deterministic daily series of n observations for one
// symbol. Price follows a gentle upward drift with seeded noise, which gives
// backtests realistic trend-plus-chop behavior without external data.
func Synthetic(symbol string, n int, seed int64) Series {
	rng := rand.New(rand.NewSource(seed))
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	series := make(Series, n)
	for i := 0; i < n; i++ {
		price := 100.0 + 0.1*float64(i) + rng.NormFloat64()*2.0
		if price < 1.0 {
			price = 1.0
		}
		series[i] = Observation{
			Date:   start.AddDate(0, 0, i),
			Symbol: symbol,
			Close:  price,
			Volume: 1_000_000 + rng.Float64()*500_000,
		}
	}
	return series
}

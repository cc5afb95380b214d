package market

import (
	"fmt"
	"time"
)

// Observation represents one row of a time-ordered price series
type Observation struct {
	Date   time.Time `json:"date"`
	Symbol string    `json:"symbol"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Series represents an ascending, deduplicated sequence of observations
// for a single symbol. Immutable once validated.
type Series []Observation

// Validate checks that the series is non-empty, strictly ascending by date
// and carries positive prices.
func (s Series) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("empty series")
	}
	for i, obs := range s {
		if obs.Close <= 0 {
			return fmt.Errorf("non-positive close at index %d (%s)", i, obs.Date.Format("2006-01-02"))
		}
		if i > 0 && !s[i-1].Date.Before(obs.Date) {
			return fmt.Errorf("dates not strictly ascending at index %d (%s)", i, obs.Date.Format("2006-01-02"))
		}
	}
	return nil
}

// Slice returns the sub-series [i0, i1), clamped to valid bounds.
func (s Series) Slice(i0, i1 int) Series {
	if i0 < 0 {
		i0 = 0
	}
	if i1 > len(s) {
		i1 = len(s)
	}
	if i0 >= i1 {
		return Series{}
	}
	return s[i0:i1]
}

// Select returns a new series holding the observations at the given indices,
// in the order given. Indices out of range are skipped.
func (s Series) Select(indices []int) Series {
	out := make(Series, 0, len(indices))
	for _, idx := range indices {
		if idx >= 0 && idx < len(s) {
			out = append(out, s[idx])
		}
	}
	return out
}

// Closes returns the close prices as a slice.
func (s Series) Closes() []float64 {
	closes := make([]float64, len(s))
	for i, obs := range s {
		closes[i] = obs.Close
	}
	return closes
}

// Start returns the date of the first observation.
func (s Series) Start() time.Time {
	if len(s) == 0 {
		return time.Time{}
	}
	return s[0].Date
}

// End returns the date of the last observation.
func (s Series) End() time.Time {
	if len(s) == 0 {
		return time.Time{}
	}
	return s[len(s)-1].Date
}

package strategy

import (
	"math"
	"time"

	"quantcv/internal/market"
)

// Direction represents the risk posture of a signal
type Direction string

const (
	RiskOn  Direction = "risk_on"
	RiskOff Direction = "risk_off"
)

// Strength represents how far price has moved from its reference level
type Strength string

const (
	StrengthModerate Strength = "moderate"
	StrengthStrong   Strength = "strong"
)

// DefaultLookback is the trailing window of the moving-average signal.
const DefaultLookback = 20

// Signal represents one risk-on/risk-off reading at an observation
type Signal struct {
	Date       time.Time `json:"date"`
	Type       string    `json:"type"`
	Direction  Direction `json:"direction"`
	Strength   Strength  `json:"strength"`
	Confidence float64   `json:"confidence"`
	RawValue   float64   `json:"raw_value"`
}

// GenerateSignal derives a signal at index i of the series by comparing the
// close to its trailing moving average. Returns false while i is inside the
// lookback warmup.
func GenerateSignal(series market.Series, i int, signalType string, params Params) (Signal, bool) {
	lookback := int(params.NumberOr("lookback", DefaultLookback))
	if lookback < 2 {
		lookback = DefaultLookback
	}
	threshold := params.NumberOr("threshold", 0.02)

	if i < lookback || i >= len(series) {
		return Signal{}, false
	}

	var sum float64
	for j := i - lookback; j < i; j++ {
		sum += series[j].Close
	}
	mean := sum / float64(lookback)
	if mean == 0 {
		return Signal{}, false
	}

	deviation := (series[i].Close - mean) / mean

	direction := RiskOff
	if deviation > 0 {
		direction = RiskOn
	}
	strength := StrengthModerate
	if math.Abs(deviation) > threshold {
		strength = StrengthStrong
	}
	confidence := math.Min(0.9, math.Abs(deviation)*10)

	return Signal{
		Date:       series[i].Date,
		Type:       signalType,
		Direction:  direction,
		Strength:   strength,
		Confidence: confidence,
		RawValue:   deviation,
	}, true
}

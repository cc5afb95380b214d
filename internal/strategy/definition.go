package strategy

// PositionSizing represents the position sizing method of a strategy
type PositionSizing string

const (
	SizingFixed      PositionSizing = "fixed"
	SizingConfidence PositionSizing = "confidence"
)

// Definition describes a strategy: its signal types, parameter schema and
// sizing method. Owned by the caller; the engine treats it as read-only.
type Definition struct {
	Name           string                   `json:"name" yaml:"name"`
	SignalTypes    []string                 `json:"signal_types" yaml:"signal_types"`
	Parameters     map[string]ParameterSpec `json:"parameters" yaml:"parameters"`
	PositionSizing PositionSizing           `json:"position_sizing" yaml:"position_sizing"`
}

// SymbolPair maps a signal type to its risk-on and risk-off instruments
type SymbolPair struct {
	RiskOn  string
	RiskOff string
}

var signalSymbols = map[string]SymbolPair{
	"utilities_spy": {RiskOn: "SPY", RiskOff: "XLU"},
	"treasury_spy":  {RiskOn: "SPY", RiskOff: "IEF"},
	"gold_spy":      {RiskOn: "SPY", RiskOff: "GLD"},
	"lumber_gold":   {RiskOn: "WOOD", RiskOff: "GLD"},
}

// SymbolsFor returns the instrument pair for a signal type. Unknown types
// fall back to the utilities/SPY pair.
func SymbolsFor(signalType string) SymbolPair {
	if pair, ok := signalSymbols[signalType]; ok {
		return pair
	}
	return signalSymbols["utilities_spy"]
}

// SignalType returns the strategy's primary signal type.
func (d *Definition) SignalType() string {
	if len(d.SignalTypes) > 0 {
		return d.SignalTypes[0]
	}
	return "utilities_spy"
}

// DefaultDefinition returns a moving-average risk rotation strategy with a
// searchable lookback and entry threshold.
func DefaultDefinition() *Definition {
	return &Definition{
		Name:        "ma_risk_rotation",
		SignalTypes: []string{"utilities_spy"},
		Parameters: map[string]ParameterSpec{
			"lookback": {
				Kind:    KindNumber,
				Default: NumberValue(20),
				Bounds:  &Bounds{Min: 10, Max: 40, Step: 10},
			},
			"threshold": {
				Kind:    KindNumber,
				Default: NumberValue(0.02),
				Bounds:  &Bounds{Min: 0.01, Max: 0.03, Step: 0.01},
			},
		},
		PositionSizing: SizingConfidence,
	}
}
